// Package security 提供對外抓取的安全性功能。
//
// TitleSanitizerService 清理從網頁表格擷取的標題片段，
// 去除所有HTML標籤與事件屬性，只留下純文字。
// 使用bluemonday的StrictPolicy，任何標籤都不予通過。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TitleSanitizerService 定義標題清理功能的介面。
// 正規化器在候選紀錄轉換時使用。
type TitleSanitizerService interface {
	// Sanitize 清理擷取到的標題並回傳純文字。
	// 移除所有標籤、解碼HTML實體、壓縮連續空白。
	// 空字串輸入回傳空字串。同一輸入永遠回傳同一輸出（冪等）。
	Sanitize(raw string) string
}

// titleSanitizer 是TitleSanitizerService的實作。
// 持有bluemonday的policy，清理處理為thread-safe。
type titleSanitizer struct {
	policy *bluemonday.Policy
}

// NewTitleSanitizer 建立TitleSanitizerService的新實例。
// 採用StrictPolicy: 不允許任何元素與屬性。
func NewTitleSanitizer() *titleSanitizer {
	return &titleSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize 清理擷取到的標題並回傳純文字。
func (s *titleSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	// StrictPolicy會把保留的文字實體化，先清理再解碼
	cleaned := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.Join(strings.Fields(cleaned), " ")
}
