package normalize

import (
	"net/url"
	"time"

	"github.com/yuchieh/lawwatch/internal/model"
)

// TitleSanitizer 定義標題清理的介面。
type TitleSanitizer interface {
	Sanitize(raw string) string
}

// Normalizer 將候選紀錄轉換為正規化紀錄。
// 純粹依輸入決定輸出；日期與連結解析失敗時降級為空欄位。
type Normalizer struct {
	baseOrigin *url.URL
	sanitizer  TitleSanitizer
	now        func() time.Time
}

// NewNormalizer 建立Normalizer的新實例。
// baseOrigin用於解析無scheme的相對連結；nowFn為nil時使用time.Now。
func NewNormalizer(baseOrigin *url.URL, sanitizer TitleSanitizer, nowFn func() time.Time) *Normalizer {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Normalizer{
		baseOrigin: baseOrigin,
		sanitizer:  sanitizer,
		now:        nowFn,
	}
}

// Normalize 將候選紀錄轉換為正規化紀錄。
// 擷取時刻固定以UTC+8記錄；原始連結永遠保留在OriginalURL供診斷。
func (n *Normalizer) Normalize(c model.Candidate) model.Record {
	title := c.Title
	if n.sanitizer != nil {
		title = n.sanitizer.Sanitize(title)
	}

	return model.Record{
		Title:            title,
		AnnouncementDate: ConvertROCDate(c.RawDate),
		EndDate:          ConvertROCDate(c.RawEndDate),
		CanonicalURL:     RepairLink(c.RawLink, n.baseOrigin),
		OriginalURL:      c.RawLink,
		Source:           c.Source,
		CapturedAt:       n.now().In(model.TaipeiZone),
	}
}

// NormalizeBatch 依序轉換整個候選批次。
func (n *Normalizer) NormalizeBatch(candidates []model.Candidate) []model.Record {
	records := make([]model.Record, 0, len(candidates))
	for _, c := range candidates {
		records = append(records, n.Normalize(c))
	}
	return records
}
