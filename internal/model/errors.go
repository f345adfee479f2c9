// Package model 定義領域模型。
package model

import "fmt"

// AppError 表示統一錯誤格式。
// 包含錯誤分類與操作者可採取的對應方式。
type AppError struct {
	Code     string // 錯誤代碼
	Message  string // 錯誤訊息
	Category string // 分類: fetch, parse, store, config
	Action   string // 操作者對應方式
}

// Error 實作error介面。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 預先定義的錯誤代碼
const (
	ErrCodeFetchFailed   = "FETCH_FAILED"
	ErrCodeSSRFBlocked   = "SSRF_BLOCKED"
	ErrCodeParseDegraded = "PARSE_DEGRADED"
	ErrCodeStoreCorrupt  = "STORE_CORRUPT"
	ErrCodeWriteFailed   = "WRITE_FAILED"
	ErrCodeInvalidSource = "INVALID_SOURCE"
	ErrCodeNoHistory     = "NO_USABLE_HISTORY"
)

// NewFetchFailedError 建立傳輸失敗錯誤。
// 重試耗盡後由擷取器回報，對應來源的批次視為降級。
func NewFetchFailedError(source string, reason string) *AppError {
	return &AppError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("來源 %s 的抓取失敗: %s", source, reason),
		Category: "fetch",
		Action:   "確認網路連線與目標網站狀態後，等待下次排程執行。",
	}
}

// NewSSRFBlockedError 建立SSRF封鎖錯誤。
func NewSSRFBlockedError(rawURL string) *AppError {
	return &AppError{
		Code:     ErrCodeSSRFBlocked,
		Message:  fmt.Sprintf("來源URL被安全性原則封鎖: %s", rawURL),
		Category: "fetch",
		Action:   "來源設定僅允許公開網站的URL，請檢查sources設定檔。",
	}
}

// NewStoreCorruptError 建立歷史檔損壞錯誤。
// 損壞檔已備份、歷史視為空，不會中斷執行。
func NewStoreCorruptError(path string, backup string) *AppError {
	return &AppError{
		Code:     ErrCodeStoreCorrupt,
		Message:  fmt.Sprintf("歷史檔無法解析: %s", path),
		Category: "store",
		Action:   fmt.Sprintf("損壞檔已備份至 %s，可供事後檢查。", backup),
	}
}

// NewWriteFailedError 建立歷史檔寫入失敗錯誤。
// 既有歷史檔維持原狀、本次批次結果不落地。
func NewWriteFailedError(path string, reason string) *AppError {
	return &AppError{
		Code:     ErrCodeWriteFailed,
		Message:  fmt.Sprintf("歷史檔寫入失敗: %s: %s", path, reason),
		Category: "store",
		Action:   "確認資料目錄的磁碟空間與權限。既有歷史未受影響。",
	}
}

// NewInvalidSourceError 建立來源設定錯誤。
func NewInvalidSourceError(name string, reason string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidSource,
		Message:  fmt.Sprintf("來源設定無效: %s: %s", name, reason),
		Category: "config",
		Action:   "檢查sources設定檔中該來源的kind與url欄位。",
	}
}

// NewNoHistoryError 建立「無可用歷史」錯誤。
// 復原程序完成後仍無任何可用歷史時回報，屬於硬性失敗。
func NewNoHistoryError(reason string) *AppError {
	return &AppError{
		Code:     ErrCodeNoHistory,
		Message:  fmt.Sprintf("本次執行無法產生可用的歷史: %s", reason),
		Category: "store",
		Action:   "檢查抓取錯誤與資料目錄狀態後重新執行。",
	}
}
