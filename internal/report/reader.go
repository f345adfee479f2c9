package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuchieh/lawwatch/internal/model"
)

// Reader 讀取資料目錄中最近一次執行的主報告。
// serve模式的狀態API以此取得報告內容。
type Reader struct {
	dataDir string
}

// NewReader 建立Reader的新實例。
func NewReader(dataDir string) *Reader {
	return &Reader{dataDir: dataDir}
}

// Read 讀取主報告檔。
// 檔案不存在時回傳包裝fs.ErrNotExist的錯誤，呼叫端可用errors.Is判別。
func (r *Reader) Read() (*model.Report, error) {
	data, err := os.ReadFile(filepath.Join(r.dataDir, reportFile))
	if err != nil {
		return nil, fmt.Errorf("讀取報告檔失敗: %w", err)
	}

	var rep model.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("報告檔解析失敗: %w", err)
	}
	return &rep, nil
}
