package scraper

import (
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/yuchieh/lawwatch/internal/model"
)

// ParseRSS 將RSS/Atom饋送解析為候選紀錄。
// 發布時間以台北時間的西元ISO日期帶出；沒有發布時間的項目日期留空。
func ParseRSS(body []byte, source Source) ([]model.Candidate, error) {
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("RSS解析失敗: %w", err)
	}

	candidates := make([]model.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" {
			continue
		}

		var rawDate string
		if item.PublishedParsed != nil {
			rawDate = item.PublishedParsed.In(model.TaipeiZone).Format("2006-01-02")
		}

		candidates = append(candidates, model.Candidate{
			Title:   item.Title,
			RawDate: rawDate,
			RawLink: item.Link,
			Source:  source.Name,
		})
	}
	return candidates, nil
}
