// Package model 定義領域模型。
package model

import "time"

// Stats 表示單次調和（reconciliation）的統計摘要。
type Stats struct {
	NewCount        int `json:"new_count"`
	UpdatedCount    int `json:"updated_count"`
	ExpiredCount    int `json:"expired_count"`
	ActiveCount     int `json:"active_count"`
	TotalHistorical int `json:"total_historical"`
}

// Report 表示單次執行的完整報告，交由Reporter輸出。
type Report struct {
	RunID          string    `json:"run_id"`
	ExecutedAt     time.Time `json:"executed_at"`
	Sources        []string  `json:"sources"`
	Statistics     Stats     `json:"statistics"`
	Degraded       bool      `json:"degraded"` // 任一來源因傳輸錯誤而降級時為true
	NewRecords     []Entry   `json:"new_records"`
	UpdatedRecords []Entry   `json:"updated_records"`
}

// HasChanges 回傳本次執行是否偵測到任何新增或更新。
func (r *Report) HasChanges() bool {
	return r.Statistics.NewCount > 0 || r.Statistics.UpdatedCount > 0
}
