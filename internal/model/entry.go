// Package model 定義領域模型。
package model

import "time"

// State 表示歷史條目的生命週期狀態。
type State string

const (
	// StateActive 表示紀錄仍出現在來源上。
	StateActive State = "active"
	// StateExpired 表示紀錄已從來源消失。
	StateExpired State = "expired"
)

// Entry 表示歷史存放區中的一筆條目。
// 以識別碼為鍵、就地更新，除容量裁剪外永不實體刪除。
type Entry struct {
	ID string `json:"id"`
	Record

	State         State      `json:"state"`
	FirstSeen     time.Time  `json:"first_seen"`
	LastUpdated   *time.Time `json:"last_updated,omitempty"`   // 僅在曾被修訂時存在
	ExpiredAt     *time.Time `json:"expired_at,omitempty"`     // 僅在state=expired時存在
	ChangedFields []string   `json:"changed_fields,omitempty"` // 最近一次UPDATED判定的差異欄位（依比較順序）
}

// Touched 回傳條目最後被觸碰的時刻。
// 容量裁剪以此時刻決定保留順序。
func (e *Entry) Touched() time.Time {
	if e.LastUpdated != nil {
		return *e.LastUpdated
	}
	return e.FirstSeen
}
