package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuchieh/lawwatch/internal/model"
)

// utf8BOM 讓試算表軟體以UTF-8開啟中文內容。
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader 是CSV的欄位順序，識別資訊與狀態在前。
var csvHeader = []string{
	"id",
	"state",
	"announcement_date",
	"title",
	"canonical_url",
	"end_date",
	"source",
	"first_seen",
	"last_updated",
	"expired_at",
	"changed_fields",
}

// ExportCSV 將全量歷史匯出為帶時間戳檔名的CSV檔，回傳檔案路徑。
// 沒有任何紀錄時不產生檔案、回傳空字串。
func (w *Writer) ExportCSV(history []model.Entry, now time.Time) (string, error) {
	if len(history) == 0 {
		return "", nil
	}

	name := fmt.Sprintf("regulations_%s.csv", now.In(model.TaipeiZone).Format("20060102_150405"))
	path := filepath.Join(w.dataDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("CSV檔建立失敗: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return "", fmt.Errorf("CSV檔寫入失敗: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return "", fmt.Errorf("CSV標頭寫入失敗: %w", err)
	}
	for _, e := range history {
		if err := cw.Write(csvRow(e)); err != nil {
			return "", fmt.Errorf("CSV紀錄寫入失敗: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("CSV檔寫入失敗: %w", err)
	}
	return path, nil
}

// csvRow 將單筆歷史紀錄展開為CSV欄位值，順序與csvHeader一致。
func csvRow(e model.Entry) []string {
	return []string{
		e.ID,
		string(e.State),
		e.AnnouncementDate,
		e.Title,
		e.CanonicalURL,
		e.EndDate,
		e.Source,
		formatTime(&e.FirstSeen),
		formatTime(e.LastUpdated),
		formatTime(e.ExpiredAt),
		strings.Join(e.ChangedFields, ";"),
	}
}

// formatTime 將時間格式化為台北時間的RFC3339字串，nil時為空。
func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(model.TaipeiZone).Format(time.RFC3339)
}
