// Package normalize 提供候選紀錄的正規化處理。
// 民國年日期轉換與連結修復皆為純函式，解析失敗時降級為空欄位而非錯誤。
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// rocYearOffset 是民國年與西元年的差。
const rocYearOffset = 1911

// datePatterns 是民國年日期的候選格式，依固定優先順序嘗試。
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d{2,3})\.(\d{1,2})\.(\d{1,2})$`),
	regexp.MustCompile(`^(\d{2,3})/(\d{1,2})/(\d{1,2})$`),
	regexp.MustCompile(`^(\d{2,3})年(\d{1,2})月(\d{1,2})日$`),
}

// isoPattern 是已經是西元ISO格式的日期。
// RSS類來源直接提供西元日期，驗證後原樣通過。
var isoPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// ConvertROCDate 將民國年日期字串轉換為ISO格式（YYYY-MM-DD）。
// 依序嘗試「114.08.19」「114/08/19」「114年08月19日」三種格式，
// 已是ISO格式的輸入驗證後原樣回傳。
// 全部不符或日期不存在時回傳空字串，不會panic也不回傳錯誤。
func ConvertROCDate(raw string) string {
	if m := isoPattern.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			return ""
		}
		return raw
	}

	for _, pattern := range datePatterns {
		m := pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}

		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		year += rocYearOffset

		// 排除2月30日之類不存在的日期
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			return ""
		}

		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	}
	return ""
}
