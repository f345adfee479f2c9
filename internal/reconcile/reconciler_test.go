package reconcile

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/yuchieh/lawwatch/internal/identity"
	"github.com/yuchieh/lawwatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func fixedNow() time.Time {
	return time.Date(2025, 8, 19, 9, 0, 0, 0, model.TaipeiZone)
}

func testReconciler(opts Options) *Reconciler {
	return NewReconciler(discardLogger(), opts, fixedNow)
}

func record(title, date, url string) model.Record {
	return model.Record{
		Title:            title,
		AnnouncementDate: date,
		CanonicalURL:     url,
		Source:           "mof_draft_forum",
	}
}

func activeEntry(rec model.Record, firstSeen time.Time) model.Entry {
	return model.Entry{
		ID:        identity.AssignID(rec),
		Record:    rec,
		State:     model.StateActive,
		FirstSeen: firstSeen,
	}
}

func batch(records ...model.Record) []Batch {
	return []Batch{{Source: "mof_draft_forum", Records: records}}
}

// TestReconcile_NewRecord 測試不在歷史中的紀錄被分類為NEW並插入ACTIVE條目。
func TestReconcile_NewRecord(t *testing.T) {
	r := testReconciler(Options{})
	rec := record("T1", "2025-08-19", "https://law.mof.gov.tw/a")

	result := r.Reconcile(nil, batch(rec))

	if len(result.New) != 1 {
		t.Fatalf("len(New) = %d, want 1", len(result.New))
	}
	e := result.New[0]
	if e.ID != identity.AssignID(rec) {
		t.Errorf("ID = %q", e.ID)
	}
	if e.State != model.StateActive {
		t.Errorf("State = %q, want active", e.State)
	}
	if !e.FirstSeen.Equal(fixedNow()) {
		t.Errorf("FirstSeen = %v, want now", e.FirstSeen)
	}
	if len(result.History) != 1 {
		t.Errorf("len(History) = %d, want 1", len(result.History))
	}
}

// TestReconcile_UpdatedAnnouncementDate 測試公告日期變化的既有紀錄被分類為UPDATED。
// 識別碼不變、changed_fields記錄差異欄位、欄位被覆寫。
func TestReconcile_UpdatedAnnouncementDate(t *testing.T) {
	r := testReconciler(Options{})
	url := "https://law.mof.gov.tw/LawContent.aspx?id=a1"
	old := record("T1", "2025-01-01", url)
	history := []model.Entry{activeEntry(old, fixedNow().Add(-24*time.Hour))}

	result := r.Reconcile(history, batch(record("T1", "2025-01-02", url)))

	if len(result.New) != 0 {
		t.Fatalf("len(New) = %d, want 0", len(result.New))
	}
	if len(result.Updated) != 1 {
		t.Fatalf("len(Updated) = %d, want 1", len(result.Updated))
	}
	e := result.Updated[0]
	if e.ID != identity.AssignID(old) {
		t.Error("identifier must be unchanged across the update")
	}
	if e.AnnouncementDate != "2025-01-02" {
		t.Errorf("AnnouncementDate = %q, want overwritten to 2025-01-02", e.AnnouncementDate)
	}
	if len(e.ChangedFields) != 1 || e.ChangedFields[0] != FieldAnnouncementDate {
		t.Errorf("ChangedFields = %v, want [announcement_date]", e.ChangedFields)
	}
	if e.LastUpdated == nil || !e.LastUpdated.Equal(fixedNow()) {
		t.Errorf("LastUpdated = %v, want now", e.LastUpdated)
	}
}

// TestReconcile_MultipleChangedFields 測試多欄位差異依比較順序記錄。
func TestReconcile_MultipleChangedFields(t *testing.T) {
	r := testReconciler(Options{})
	url := "https://law.mof.gov.tw/b"
	old := record("舊標題", "2025-01-01", url)
	old.EndDate = "2025-02-01"
	history := []model.Entry{activeEntry(old, fixedNow())}

	updated := record("新標題", "2025-01-01", url)
	updated.EndDate = "2025-03-01"
	result := r.Reconcile(history, batch(updated))

	if len(result.Updated) != 1 {
		t.Fatalf("len(Updated) = %d, want 1", len(result.Updated))
	}
	got := result.Updated[0].ChangedFields
	want := []string{FieldTitle, FieldEndDate}
	if len(got) != len(want) {
		t.Fatalf("ChangedFields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ChangedFields[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestReconcile_Idempotent 測試同一批次連續調和兩次，第二次無任何變化。
func TestReconcile_Idempotent(t *testing.T) {
	r := testReconciler(Options{})
	records := []model.Record{
		record("T1", "2025-08-19", "https://law.mof.gov.tw/a"),
		record("T2", "2025-08-18", "https://law.mof.gov.tw/b"),
	}

	first := r.Reconcile(nil, batch(records...))
	second := r.Reconcile(first.History, batch(records...))

	if len(second.New) != 0 {
		t.Errorf("second run New = %d, want 0", len(second.New))
	}
	if len(second.Updated) != 0 {
		t.Errorf("second run Updated = %d, want 0", len(second.Updated))
	}
	if len(second.Expired) != 0 {
		t.Errorf("second run Expired = %d, want 0", len(second.Expired))
	}
	if len(second.History) != len(first.History) {
		t.Errorf("history length changed: %d -> %d", len(first.History), len(second.History))
	}
}

// TestReconcile_Expiry 測試ACTIVE條目從批次消失時被標記EXPIRED且保留在歷史中。
func TestReconcile_Expiry(t *testing.T) {
	r := testReconciler(Options{})
	gone := record("消失的草案", "2025-07-01", "https://law.mof.gov.tw/gone")
	stay := record("留下的草案", "2025-08-01", "https://law.mof.gov.tw/stay")
	history := []model.Entry{
		activeEntry(gone, fixedNow().Add(-48*time.Hour)),
		activeEntry(stay, fixedNow().Add(-48*time.Hour)),
	}

	result := r.Reconcile(history, batch(stay))

	if len(result.Expired) != 1 {
		t.Fatalf("len(Expired) = %d, want 1", len(result.Expired))
	}
	e := result.Expired[0]
	if e.State != model.StateExpired {
		t.Errorf("State = %q, want expired", e.State)
	}
	if e.ExpiredAt == nil || !e.ExpiredAt.Equal(fixedNow()) {
		t.Errorf("ExpiredAt = %v, want now", e.ExpiredAt)
	}
	// 條目留在歷史中，不會被刪除
	if len(result.History) != 2 {
		t.Errorf("len(History) = %d, want 2", len(result.History))
	}
}

// TestReconcile_MonotonicExpiry 測試連續兩個批次都缺席的條目維持EXPIRED不被移除。
func TestReconcile_MonotonicExpiry(t *testing.T) {
	r := testReconciler(Options{})
	gone := record("消失的草案", "2025-07-01", "https://law.mof.gov.tw/gone")
	history := []model.Entry{activeEntry(gone, fixedNow().Add(-72*time.Hour))}

	first := r.Reconcile(history, batch())
	if len(first.Expired) != 1 {
		t.Fatalf("first run Expired = %d, want 1", len(first.Expired))
	}

	second := r.Reconcile(first.History, batch())
	if len(second.Expired) != 0 {
		t.Errorf("second run Expired = %d, want 0 (already expired)", len(second.Expired))
	}
	if len(second.History) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(second.History))
	}
	if second.History[0].State != model.StateExpired {
		t.Errorf("State = %q, want expired", second.History[0].State)
	}
}

// TestReconcile_ReactivationResetsFirstSeen 測試預設政策下EXPIRED重新出現
// 視為全新條目: 分類NEW、state回到ACTIVE、first_seen重設。
func TestReconcile_ReactivationResetsFirstSeen(t *testing.T) {
	r := testReconciler(Options{})
	rec := record("回歸的草案", "2025-06-01", "https://law.mof.gov.tw/back")
	originalFirstSeen := fixedNow().Add(-240 * time.Hour)
	expiredAt := fixedNow().Add(-120 * time.Hour)
	e := activeEntry(rec, originalFirstSeen)
	e.State = model.StateExpired
	e.ExpiredAt = &expiredAt

	result := r.Reconcile([]model.Entry{e}, batch(rec))

	if len(result.New) != 1 {
		t.Fatalf("len(New) = %d, want 1", len(result.New))
	}
	got := result.New[0]
	if got.State != model.StateActive {
		t.Errorf("State = %q, want active", got.State)
	}
	if !got.FirstSeen.Equal(fixedNow()) {
		t.Errorf("FirstSeen = %v, want reset to now", got.FirstSeen)
	}
	if got.ExpiredAt != nil {
		t.Error("ExpiredAt must be cleared on reactivation")
	}
	if len(result.History) != 1 {
		t.Errorf("len(History) = %d, want 1 (in-place by identifier)", len(result.History))
	}
}

// TestReconcile_ReactivationPreservesFirstSeen 測試PreserveFirstSeen政策下
// 重新出現的條目保留原本的first_seen。
func TestReconcile_ReactivationPreservesFirstSeen(t *testing.T) {
	r := testReconciler(Options{PreserveFirstSeen: true})
	rec := record("回歸的草案", "2025-06-01", "https://law.mof.gov.tw/back")
	originalFirstSeen := fixedNow().Add(-240 * time.Hour)
	expiredAt := fixedNow().Add(-120 * time.Hour)
	e := activeEntry(rec, originalFirstSeen)
	e.State = model.StateExpired
	e.ExpiredAt = &expiredAt

	result := r.Reconcile([]model.Entry{e}, batch(rec))

	if len(result.New) != 1 {
		t.Fatalf("len(New) = %d, want 1", len(result.New))
	}
	if !result.New[0].FirstSeen.Equal(originalFirstSeen) {
		t.Errorf("FirstSeen = %v, want preserved %v", result.New[0].FirstSeen, originalFirstSeen)
	}
}

// TestReconcile_DegradedBatchSkipsExpiry 測試降級的空批次不會把ACTIVE歷史整批標記EXPIRED。
func TestReconcile_DegradedBatchSkipsExpiry(t *testing.T) {
	r := testReconciler(Options{})
	rec := record("T1", "2025-08-19", "https://law.mof.gov.tw/a")
	history := []model.Entry{activeEntry(rec, fixedNow().Add(-24*time.Hour))}

	result := r.Reconcile(history, []Batch{{Source: "mof_draft_forum", Degraded: true}})

	if len(result.Expired) != 0 {
		t.Errorf("Expired = %d, want 0 for degraded batch", len(result.Expired))
	}
	if result.History[0].State != model.StateActive {
		t.Errorf("State = %q, want active", result.History[0].State)
	}
	if !result.Degraded {
		t.Error("Result.Degraded should be true")
	}
}

// TestReconcile_DegradedIsPerSource 測試降級豁免只及於該來源的條目。
func TestReconcile_DegradedIsPerSource(t *testing.T) {
	r := testReconciler(Options{})
	draftRec := record("草案", "2025-08-01", "https://law-out.mof.gov.tw/d1")
	rulingRec := model.Record{
		Title:            "函釋",
		AnnouncementDate: "2025-08-02",
		CanonicalURL:     "https://law.mof.gov.tw/r1",
		Source:           "mof_rulings",
	}
	history := []model.Entry{
		activeEntry(draftRec, fixedNow().Add(-24*time.Hour)),
		activeEntry(rulingRec, fixedNow().Add(-24*time.Hour)),
	}

	result := r.Reconcile(history, []Batch{
		{Source: "mof_draft_forum", Degraded: true},
		{Source: "mof_rulings", Records: nil}, // 正常來源、真的空
	})

	if len(result.Expired) != 1 {
		t.Fatalf("Expired = %d, want 1", len(result.Expired))
	}
	if result.Expired[0].Source != "mof_rulings" {
		t.Errorf("expired source = %q, want mof_rulings", result.Expired[0].Source)
	}
}

// TestReconcile_SortsByAnnouncementDateDesc 測試歷史依公告日期遞減排序、無日期者排最後。
func TestReconcile_SortsByAnnouncementDateDesc(t *testing.T) {
	r := testReconciler(Options{})
	result := r.Reconcile(nil, batch(
		record("無日期A", "", "https://law.mof.gov.tw/x1"),
		record("較舊", "2025-01-01", "https://law.mof.gov.tw/x2"),
		record("最新", "2025-08-19", "https://law.mof.gov.tw/x3"),
		record("無日期B", "", "https://law.mof.gov.tw/x4"),
	))

	titles := make([]string, 0, len(result.History))
	for _, e := range result.History {
		titles = append(titles, e.Title)
	}
	want := []string{"最新", "較舊", "無日期A", "無日期B"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("order = %v, want %v", titles, want)
		}
	}
}

// TestReconcile_DuplicateRecordsInBatch 測試同批次內識別碼重複時以先出現者為準。
func TestReconcile_DuplicateRecordsInBatch(t *testing.T) {
	r := testReconciler(Options{})
	url := "https://law.mof.gov.tw/dup"

	result := r.Reconcile(nil, batch(
		record("first", "2025-08-19", url),
		record("second", "2025-08-19", url),
	))

	if len(result.New) != 1 {
		t.Fatalf("len(New) = %d, want 1", len(result.New))
	}
	if result.New[0].Title != "first" {
		t.Errorf("Title = %q, want first occurrence", result.New[0].Title)
	}
}

// TestReconcile_Stats 測試統計摘要的各計數。
func TestReconcile_Stats(t *testing.T) {
	r := testReconciler(Options{})
	stay := record("留下", "2025-08-01", "https://law.mof.gov.tw/s")
	gone := record("消失", "2025-07-01", "https://law.mof.gov.tw/g")
	history := []model.Entry{
		activeEntry(stay, fixedNow().Add(-24*time.Hour)),
		activeEntry(gone, fixedNow().Add(-24*time.Hour)),
	}

	changed := record("留下（改名）", "2025-08-01", "https://law.mof.gov.tw/s")
	fresh := record("新增", "2025-08-19", "https://law.mof.gov.tw/n")
	result := r.Reconcile(history, batch(changed, fresh))

	s := result.Stats
	if s.NewCount != 1 || s.UpdatedCount != 1 || s.ExpiredCount != 1 {
		t.Errorf("stats = %+v, want new=1 updated=1 expired=1", s)
	}
	if s.ActiveCount != 2 {
		t.Errorf("ActiveCount = %d, want 2", s.ActiveCount)
	}
	if s.TotalHistorical != 3 {
		t.Errorf("TotalHistorical = %d, want 3", s.TotalHistorical)
	}
}

// TestReconcile_InputHistoryNotMutated 測試輸入的歷史切片不被就地修改。
func TestReconcile_InputHistoryNotMutated(t *testing.T) {
	r := testReconciler(Options{})
	gone := record("消失", "2025-07-01", "https://law.mof.gov.tw/g")
	history := []model.Entry{activeEntry(gone, fixedNow().Add(-24*time.Hour))}

	r.Reconcile(history, batch())

	if history[0].State != model.StateActive {
		t.Error("input history must not be mutated")
	}
	if history[0].ExpiredAt != nil {
		t.Error("input history must not be mutated")
	}
}

// TestReconcile_RunIDAssigned 測試每次調和都有run識別碼。
func TestReconcile_RunIDAssigned(t *testing.T) {
	r := testReconciler(Options{})
	first := r.Reconcile(nil, batch())
	second := r.Reconcile(nil, batch())

	if first.RunID == "" {
		t.Error("RunID should be assigned")
	}
	if first.RunID == second.RunID {
		t.Error("RunID should differ between runs")
	}
}
