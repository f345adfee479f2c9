// Package model 定義領域模型。
package model

import "time"

// Candidate 表示擷取器從來源頁面抓到、尚未正規化的候選紀錄。
// 僅存在於單次收集週期內，不會被持久化。
type Candidate struct {
	Title      string // 原始標題（可能含標籤殘渣）
	RawDate    string // 原始公告日期（民國年格式）
	RawEndDate string // 原始預告終止日期（可選）
	RawLink    string // 原始連結（可選、可能損壞）
	Source     string // 來源標籤
}

// Record 表示經過日期與連結正規化後的紀錄。
type Record struct {
	Title            string    `json:"title"`
	AnnouncementDate string    `json:"announcement_date"` // ISO格式（YYYY-MM-DD）、無法解析時為空字串
	EndDate          string    `json:"end_date,omitempty"`
	CanonicalURL     string    `json:"canonical_url,omitempty"` // 修復後的絕對URL、無法修復時為空字串
	OriginalURL      string    `json:"original_url,omitempty"`  // 診斷用、永遠保留原始輸入
	Source           string    `json:"source,omitempty"`
	CapturedAt       time.Time `json:"captured_at"` // 擷取時刻（固定UTC+8）
}

// TaipeiZone 是收集時刻使用的固定時區（UTC+8）。
var TaipeiZone = time.FixedZone("Asia/Taipei", 8*60*60)
