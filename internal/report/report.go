// Package report 提供執行結果的輸出（Reporter）。
// 主報告與各分類清單以JSON輸出、全量歷史另以CSV匯出，
// 檔案一律寫入資料目錄、內容不轉義非ASCII字元。
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yuchieh/lawwatch/internal/model"
)

const (
	// reportFile 是主報告的檔名。
	reportFile = "report.json"
	// newFile 是本次新增紀錄清單的檔名。
	newFile = "today_new.json"
	// updatedFile 是本次更新紀錄清單的檔名。
	updatedFile = "today_updated.json"
	// activeFile 是目前有效紀錄快照的檔名。
	activeFile = "current_active.json"
)

// Writer 將執行報告輸出為資料目錄下的檔案群。
type Writer struct {
	dataDir string
	logger  *slog.Logger
}

// NewWriter 建立Writer的新實例。
func NewWriter(dataDir string, logger *slog.Logger) *Writer {
	return &Writer{dataDir: dataDir, logger: logger}
}

// Write 輸出主報告與各分類清單，回傳產生的檔名。
// 新增與更新清單只在有內容時產生；有效快照一律產生。
func (w *Writer) Write(rep model.Report, history []model.Entry) ([]string, error) {
	if err := os.MkdirAll(w.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("建立資料目錄失敗: %w", err)
	}

	var generated []string

	if err := w.writeJSON(reportFile, rep); err != nil {
		return generated, err
	}
	generated = append(generated, reportFile)

	if len(rep.NewRecords) > 0 {
		if err := w.writeJSON(newFile, rep.NewRecords); err != nil {
			return generated, err
		}
		generated = append(generated, newFile)
	}
	if len(rep.UpdatedRecords) > 0 {
		if err := w.writeJSON(updatedFile, rep.UpdatedRecords); err != nil {
			return generated, err
		}
		generated = append(generated, updatedFile)
	}

	active := filterActive(history)
	if err := w.writeJSON(activeFile, active); err != nil {
		return generated, err
	}
	generated = append(generated, activeFile)

	w.logger.Info("報告輸出完成",
		slog.String("run_id", rep.RunID),
		slog.Int("files", len(generated)),
		slog.Int("active", len(active)))
	return generated, nil
}

// writeJSON 將值以縮排JSON寫入資料目錄下的檔案。
// 標題含中文與URL，輸出不做HTML轉義。
func (w *Writer) writeJSON(name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("報告 %s 序列化失敗: %w", name, err)
	}

	path := filepath.Join(w.dataDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("報告 %s 寫入失敗: %w", name, err)
	}
	return nil
}

// filterActive 取出歷史中目前有效的紀錄。
func filterActive(history []model.Entry) []model.Entry {
	active := make([]model.Entry, 0, len(history))
	for _, e := range history {
		if e.State == model.StateActive {
			active = append(active, e)
		}
	}
	return active
}
