package scraper

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yuchieh/lawwatch/internal/model"
)

// TestLoadSources_EmptyPathReturnsDefaults 測試未指定設定檔時回傳內建來源。
func TestLoadSources_EmptyPathReturnsDefaults(t *testing.T) {
	sources, err := LoadSources("")
	if err != nil {
		t.Fatalf("LoadSources失敗: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("內建來源筆數 = %d, want 2", len(sources))
	}
	for _, s := range sources {
		if err := s.Validate(); err != nil {
			t.Errorf("內建來源 %s 無效: %v", s.Name, err)
		}
	}
}

// TestLoadSources_FromYAML 測試從YAML設定檔讀取來源。
func TestLoadSources_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - name: mof_draft_forum
    kind: draftforum
    url: https://law-out.mof.gov.tw/DraftForum.aspx
    base_origin: https://law-out.mof.gov.tw
  - name: mof_rss
    kind: rss
    url: https://www.mof.gov.tw/rss/announcements
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources失敗: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("來源筆數 = %d, want 2", len(sources))
	}
	if sources[0].Kind != KindDraftForum {
		t.Errorf("Kind = %q, want draftforum", sources[0].Kind)
	}
	if sources[1].Name != "mof_rss" {
		t.Errorf("Name = %q, want mof_rss", sources[1].Name)
	}
}

// TestLoadSources_UnknownKind 測試未知的kind回傳INVALID_SOURCE錯誤。
func TestLoadSources_UnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - name: broken
    kind: scrape
    url: https://example.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSources(path)
	if err == nil {
		t.Fatal("未知kind應回傳錯誤")
	}
	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeInvalidSource {
		t.Errorf("err = %v, want INVALID_SOURCE", err)
	}
}

// TestLoadSources_MissingFile 測試設定檔不存在時回傳錯誤。
func TestLoadSources_MissingFile(t *testing.T) {
	if _, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("檔案不存在應回傳錯誤")
	}
}

// TestSourceValidate_MissingURL 測試缺少url的來源無效。
func TestSourceValidate_MissingURL(t *testing.T) {
	s := Source{Name: "x", Kind: KindRSS}
	if err := s.Validate(); err == nil {
		t.Fatal("缺少url應回傳錯誤")
	}
}
