package reconcile

import (
	"time"

	"github.com/yuchieh/lawwatch/internal/model"
)

// 可觸發UPDATED判定的欄位名稱，依比較順序固定。
const (
	FieldTitle            = "title"
	FieldEndDate          = "end_date"
	FieldAnnouncementDate = "announcement_date"
)

// CompareFields 逐欄位比較歷史條目與新紀錄，回傳有差異的欄位名稱。
// 選擇性欄位缺漏不會引發錯誤：一邊為空、一邊有值即視為差異。
// 回傳nil表示完全一致（冪等重跑）。
func CompareFields(existing *model.Entry, rec model.Record) []string {
	var changed []string
	if existing.Title != rec.Title {
		changed = append(changed, FieldTitle)
	}
	if existing.EndDate != rec.EndDate {
		changed = append(changed, FieldEndDate)
	}
	if existing.AnnouncementDate != rec.AnnouncementDate {
		changed = append(changed, FieldAnnouncementDate)
	}
	return changed
}

// ApplyNew 以新紀錄建立ACTIVE的歷史條目。
func ApplyNew(id string, rec model.Record, now time.Time) model.Entry {
	return model.Entry{
		ID:        id,
		Record:    rec,
		State:     model.StateActive,
		FirstSeen: now,
	}
}

// ApplyReactivation 將EXPIRED條目以新紀錄重新啟用。
// preserveFirstSeen為true時保留原本的first_seen，否則視為全新條目重設。
// 無論何者，expired_at與changed_fields都會清除。
func ApplyReactivation(existing *model.Entry, rec model.Record, now time.Time, preserveFirstSeen bool) model.Entry {
	e := ApplyNew(existing.ID, rec, now)
	if preserveFirstSeen {
		e.FirstSeen = existing.FirstSeen
	}
	return e
}

// ApplyUpdate 把有差異的欄位覆寫進歷史條目。
// last_updated設為now、changed_fields記錄本次差異欄位。
func ApplyUpdate(existing *model.Entry, rec model.Record, changed []string, now time.Time) {
	for _, field := range changed {
		switch field {
		case FieldTitle:
			existing.Title = rec.Title
		case FieldEndDate:
			existing.EndDate = rec.EndDate
		case FieldAnnouncementDate:
			existing.AnnouncementDate = rec.AnnouncementDate
		}
	}
	existing.LastUpdated = &now
	existing.ChangedFields = changed
}

// ApplyExpiry 將ACTIVE條目標記為EXPIRED。
// 條目保留在歷史中，永不實體刪除。
func ApplyExpiry(existing *model.Entry, now time.Time) {
	existing.State = model.StateExpired
	existing.ExpiredAt = &now
}
