package normalize

import (
	"net/url"
	"strings"
)

// brokenArtifacts 是來源頁面已知的損壞連結樣式與修正後的形式。
// 來源系統會把網域與路徑黏在一起輸出（law.dot.gov.twhome.jsp）。
var brokenArtifacts = map[string]string{
	"law.dot.gov.twhome.jsp":       "law.mof.gov.tw/LawContent.aspx",
	"law-out.mof.gov.twDraftForum": "law-out.mof.gov.tw/DraftForum.aspx",
}

// secureDomainSuffix 是強制使用https的網域字尾。
const secureDomainSuffix = "mof.gov.tw"

// RepairLink 修復已知的損壞連結並回傳絕對URL。
// 無scheme的連結以baseOrigin解析；修復後仍缺scheme或host時回傳空字串。
// 原始輸入由呼叫端另行保留於OriginalURL，這裡不負責保存。
func RepairLink(raw string, baseOrigin *url.URL) string {
	link := strings.TrimSpace(raw)
	if link == "" {
		return ""
	}

	// 已知的網域+路徑黏連樣式
	for artifact, fixed := range brokenArtifacts {
		if strings.Contains(link, artifact) {
			link = strings.Replace(link, artifact, fixed, 1)
			if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
				link = "https://" + strings.TrimPrefix(link, "//")
			}
			break
		}
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}

	// 相對連結: 以來源的base origin解析
	if !parsed.IsAbs() {
		if baseOrigin == nil {
			return ""
		}
		parsed = baseOrigin.ResolveReference(parsed)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if parsed.Host == "" {
		return ""
	}

	parsed.Path = collapsePath(parsed.Path)

	// 來源網域強制https
	if parsed.Scheme == "http" && isSecureDomain(parsed.Hostname()) {
		parsed.Scheme = "https"
	}

	return parsed.String()
}

// collapsePath 移除路徑中的連續斜線與緊鄰重複的路徑片段。
func collapsePath(path string) string {
	if path == "" {
		return ""
	}

	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == seg {
			continue
		}
		out = append(out, seg)
	}

	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

// isSecureDomain 檢查主機是否屬於強制https的來源網域。
func isSecureDomain(host string) bool {
	lower := strings.ToLower(host)
	return lower == secureDomainSuffix || strings.HasSuffix(lower, "."+secureDomainSuffix)
}
