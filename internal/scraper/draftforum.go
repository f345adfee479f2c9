package scraper

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/yuchieh/lawwatch/internal/model"
)

var (
	// rocDateRe 比對民國年日期（114.08.19）。
	rocDateRe = regexp.MustCompile(`\d{2,3}\.\d{1,2}\.\d{1,2}`)
	// endDateRe 從列文字中取出預告終止日。
	endDateRe = regexp.MustCompile(`預告終止日\s*(\d{2,3}\.\d{1,2}\.\d{1,2})`)
	// absURLRe 從文字中取出絕對URL（備援解析用）。
	absURLRe = regexp.MustCompile(`https?://[^\s)"'<>]+`)
)

// fallbackLimit 是備援解析的最大筆數。
const fallbackLimit = 10

// ParseDraftForum 解析法規草案預告論壇的表格頁面。
// 每列預期為: 序號 | 公告日期 | 標題連結 |（預告終止日NNN.MM.DD）。
// 表格解析一筆都沒有時退用逐行的備援解析。
func ParseDraftForum(body []byte, source Source) []model.Candidate {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return parseDraftForumFallback(body, source)
	}

	var candidates []model.Candidate
	for _, row := range collectRows(doc) {
		c, ok := candidateFromRow(row, source)
		if !ok {
			continue
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return parseDraftForumFallback(body, source)
	}
	return candidates
}

// rowData 是表格列的擷取結果。
type rowData struct {
	cells []string // 各<td>的純文字
	href  string   // 列中第一個連結
	text  string   // 整列的純文字
}

// collectRows 收集文件中所有<tr>的內容。
func collectRows(doc *html.Node) []rowData {
	var rows []rowData

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			row := rowData{text: nodeText(n)}
			for cell := range n.Descendants() {
				if cell.Type != html.ElementNode {
					continue
				}
				switch cell.Data {
				case "td", "th":
					row.cells = append(row.cells, strings.TrimSpace(nodeText(cell)))
				case "a":
					if row.href == "" {
						row.href = attrValue(cell, "href")
					}
				}
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return rows
}

// candidateFromRow 從表格列組出候選紀錄。
// 找不到公告日期的列（表頭等）回傳false。
func candidateFromRow(row rowData, source Source) (model.Candidate, bool) {
	var date, title string
	for i, cell := range row.cells {
		if date == "" && rocDateRe.MatchString(cell) && !strings.Contains(cell, "預告終止日") {
			date = rocDateRe.FindString(cell)
			// 標題通常在日期欄之後
			for _, rest := range row.cells[i+1:] {
				rest = strings.TrimSpace(rest)
				if rest != "" && !rocDateRe.MatchString(rest) {
					title = rest
					break
				}
			}
			break
		}
	}
	if date == "" || title == "" {
		return model.Candidate{}, false
	}

	var endDate string
	if m := endDateRe.FindStringSubmatch(row.text); m != nil {
		endDate = m[1]
		// 終止日註記黏在標題尾端時一併去除
		if em := endDateRe.FindString(title); em != "" {
			title = strings.ReplaceAll(title, em, "")
			title = strings.ReplaceAll(title, "（）", "")
			title = strings.ReplaceAll(title, "()", "")
			title = strings.TrimSpace(title)
		}
	}

	return model.Candidate{
		Title:      title,
		RawDate:    date,
		RawEndDate: endDate,
		RawLink:    strings.TrimSpace(row.href),
		Source:     source.Name,
	}, true
}

// parseDraftForumFallback 是表格解析失敗時的備援。
// 逐行尋找同時含民國年日期與絕對URL的行，最多取fallbackLimit筆。
func parseDraftForumFallback(body []byte, source Source) []model.Candidate {
	var candidates []model.Candidate

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		date := rocDateRe.FindString(line)
		link := absURLRe.FindString(line)
		if date == "" || link == "" {
			continue
		}

		title := strings.TrimSpace(stripTags(line))
		var endDate string
		if m := endDateRe.FindStringSubmatch(line); m != nil {
			endDate = m[1]
		}

		candidates = append(candidates, model.Candidate{
			Title:      title,
			RawDate:    date,
			RawEndDate: endDate,
			RawLink:    link,
			Source:     source.Name,
		})
		if len(candidates) >= fallbackLimit {
			break
		}
	}

	return candidates
}

// nodeText 回傳節點底下所有文字節點的串接。
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// attrValue 回傳元素節點指定屬性的值。
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// stripTags 粗略移除一行文字中的HTML標籤（備援解析用）。
var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, " ")
}
