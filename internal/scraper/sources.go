// Package scraper 提供來源頁面的收集（Extractor）。
// 各來源的HTTP抓取（含重試/退避與速率限制）與解析，
// 產出尚未正規化的候選紀錄批次。核心的調和邏輯不在此套件。
package scraper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yuchieh/lawwatch/internal/model"
)

// SourceKind 表示來源的解析方式。
type SourceKind string

const (
	// KindDraftForum 是法規草案預告論壇的表格頁面。
	KindDraftForum SourceKind = "draftforum"
	// KindRulings 是稅務函釋的公告頁面（以字號樣式掃描）。
	KindRulings SourceKind = "rulings"
	// KindRSS 是RSS/Atom公告饋送。
	KindRSS SourceKind = "rss"
)

// Source 表示一個收集來源的設定。
type Source struct {
	Name       string     `yaml:"name"`
	Kind       SourceKind `yaml:"kind"`
	URL        string     `yaml:"url"`
	BaseOrigin string     `yaml:"base_origin"`
}

// Validate 檢查來源設定的必要欄位。
func (s Source) Validate() error {
	if s.Name == "" {
		return model.NewInvalidSourceError("(unnamed)", "name is required")
	}
	switch s.Kind {
	case KindDraftForum, KindRulings, KindRSS:
	default:
		return model.NewInvalidSourceError(s.Name, fmt.Sprintf("unknown kind %q", s.Kind))
	}
	if s.URL == "" {
		return model.NewInvalidSourceError(s.Name, "url is required")
	}
	return nil
}

// sourcesFile 是sources設定檔的結構。
type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources 回傳內建的來源清單。
// 未指定SOURCES_FILE時使用。
func DefaultSources() []Source {
	return []Source{
		{
			Name:       "mof_draft_forum",
			Kind:       KindDraftForum,
			URL:        "https://law-out.mof.gov.tw/DraftForum.aspx",
			BaseOrigin: "https://law-out.mof.gov.tw",
		},
		{
			Name:       "mof_rulings",
			Kind:       KindRulings,
			URL:        "https://www.mof.gov.tw/singlehtml/7e8e67631e154c389e29c336ef1ed38e?cntId=c757f46b20ed47b4aff71ddf654c55f8",
			BaseOrigin: "https://law.mof.gov.tw",
		},
	}
}

// LoadSources 從YAML設定檔讀取來源清單。
// path為空時回傳內建清單；檔案內容無效時回傳錯誤。
func LoadSources(path string) ([]Source, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("讀取sources設定檔失敗: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("sources設定檔解析失敗: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("sources設定檔未定義任何來源: %s", path)
	}

	for _, s := range f.Sources {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Sources, nil
}
