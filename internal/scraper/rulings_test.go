package scraper

import (
	"fmt"
	"strings"
	"testing"
)

var rulingsSource = Source{
	Name:       "mof_rulings",
	Kind:       KindRulings,
	URL:        "https://www.mof.gov.tw/singlehtml/announcements",
	BaseOrigin: "https://law.mof.gov.tw",
}

const rulingsPage = `<html><body>
<p>財政部114.08.01台財稅字第11304672340號令
核釋所得稅法第十四條規定
<a href="https://law.mof.gov.tw/LawContent.aspx?id=GL012345">全文</a></p>
<p>財政部114.07.15台財關字第1141015678號函 關稅法相關釋示</p>
</body></html>`

// TestParseRulings_ExtractsNumbers 測試以發文字號為錨點擷取函釋。
func TestParseRulings_ExtractsNumbers(t *testing.T) {
	got := ParseRulings([]byte(rulingsPage), rulingsSource)
	if len(got) != 2 {
		t.Fatalf("候選筆數 = %d, want 2", len(got))
	}

	first := got[0]
	if !strings.Contains(first.Title, "台財稅字第11304672340號令") {
		t.Errorf("Title = %q, 應包含發文字號", first.Title)
	}
	if first.RawDate != "114.08.01" {
		t.Errorf("RawDate = %q, want 114.08.01", first.RawDate)
	}
	if first.RawLink != "https://law.mof.gov.tw/LawContent.aspx?id=GL012345" {
		t.Errorf("RawLink = %q", first.RawLink)
	}
	if first.Source != "mof_rulings" {
		t.Errorf("Source = %q", first.Source)
	}

	second := got[1]
	if !strings.Contains(second.Title, "台財關字第1141015678號函") {
		t.Errorf("第二筆Title = %q", second.Title)
	}
}

// TestParseRulings_LinkFallback 測試脈絡中沒有連結時退用來源頁面URL。
func TestParseRulings_LinkFallback(t *testing.T) {
	page := "財政部114.06.01台財稅字第11400000001號令 某釋示"
	got := ParseRulings([]byte(page), rulingsSource)
	if len(got) != 1 {
		t.Fatalf("候選筆數 = %d, want 1", len(got))
	}
	if got[0].RawLink != rulingsSource.URL {
		t.Errorf("RawLink = %q, want 來源URL", got[0].RawLink)
	}
}

// TestParseRulings_DedupesNumbers 測試同一字號重複出現只取第一次。
func TestParseRulings_DedupesNumbers(t *testing.T) {
	page := strings.Repeat("114.06.01台財稅字第11400000001號令 某釋示\n", 3)
	if got := ParseRulings([]byte(page), rulingsSource); len(got) != 1 {
		t.Errorf("候選筆數 = %d, want 1", len(got))
	}
}

// TestParseRulings_Limit 測試至多擷取rulingLimit筆。
func TestParseRulings_Limit(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < rulingLimit+10; i++ {
		fmt.Fprintf(&sb, "114.06.01台財稅字第11400%05d號令 某釋示\n", i)
	}
	if got := ParseRulings([]byte(sb.String()), rulingsSource); len(got) != rulingLimit {
		t.Errorf("候選筆數 = %d, want %d", len(got), rulingLimit)
	}
}

// TestParseRulings_NoMatches 測試頁面中沒有字號時回傳零筆。
func TestParseRulings_NoMatches(t *testing.T) {
	if got := ParseRulings([]byte("<html><body>無公告</body></html>"), rulingsSource); len(got) != 0 {
		t.Errorf("候選筆數 = %d, want 0", len(got))
	}
}
