package scraper

import (
	"regexp"
	"strings"

	"github.com/yuchieh/lawwatch/internal/model"
)

// rulingRe 比對稅務函釋的發文字號（台財稅字第NNN號令、台財關字第NNN號函）。
var rulingRe = regexp.MustCompile(`台財[稅關]字第\d+號(?:令|函)`)

const (
	// rulingLimit 是單頁擷取函釋的最大筆數。
	rulingLimit = 20
	// rulingContext 是字號前後擷取脈絡的字元數。
	rulingContext = 150
)

// ParseRulings 從函釋公告頁面掃描發文字號並組出候選紀錄。
// 頁面結構不固定，改以字號樣式為錨點：發文日期通常在字號之前、
// 連結在字號之後，分別從前後脈絡擷取。
// 同一字號只取第一次出現，至多rulingLimit筆。
func ParseRulings(body []byte, source Source) []model.Candidate {
	raw := string(body)

	var candidates []model.Candidate
	seen := make(map[string]bool)

	for _, loc := range rulingRe.FindAllStringIndex(raw, -1) {
		number := raw[loc[0]:loc[1]]
		if seen[number] {
			continue
		}
		seen[number] = true

		prefix := lastRunes(raw[:loc[0]], rulingContext)
		suffix := firstRunes(raw[loc[1]:], rulingContext)

		candidates = append(candidates, model.Candidate{
			Title:   rulingTitle(stripTags(prefix+number+suffix), number),
			RawDate: rulingDate(prefix, suffix),
			RawLink: rulingLink(prefix, suffix, source),
			Source:  source.Name,
		})

		if len(candidates) >= rulingLimit {
			break
		}
	}

	return candidates
}

// rulingDate 擷取發文日期。字號前最接近的日期優先，其次才看字號之後。
func rulingDate(prefix, suffix string) string {
	if dates := rocDateRe.FindAllString(prefix, -1); len(dates) > 0 {
		return dates[len(dates)-1]
	}
	return rocDateRe.FindString(suffix)
}

// rulingLink 擷取函釋的連結。字號後的連結優先；沒有時退用來源頁面本身的URL。
func rulingLink(prefix, suffix string, source Source) string {
	if link := absURLRe.FindString(suffix); link != "" {
		return link
	}
	if links := absURLRe.FindAllString(prefix, -1); len(links) > 0 {
		return links[len(links)-1]
	}
	return source.URL
}

// rulingTitle 從脈絡中組出函釋的標題。
// 取含字號的那一行；太短時以字號本身為標題。
func rulingTitle(window, number string) string {
	for _, line := range strings.Split(window, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if strings.Contains(line, number) && len([]rune(line)) > len([]rune(number)) {
			return line
		}
	}
	return number
}

// lastRunes 回傳字串尾端最多n個字元。
func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// firstRunes 回傳字串開頭最多n個字元。
func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
