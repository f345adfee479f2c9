// Package reconcile 實作增量變化偵測的狀態機核心。
//
// 每次調和（reconciliation pass）把收集到的批次與歷史存放區比對，
// 將每筆紀錄分類為NEW、UPDATED或EXPIRED，並產出更新後的完整歷史。
// 核心不做網路I/O、不解析標記語言、不排程，只處理正規化後的紀錄。
package reconcile

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yuchieh/lawwatch/internal/identity"
	"github.com/yuchieh/lawwatch/internal/model"
)

// Batch 是擷取器交給核心的單一來源收集結果。
// Degraded為true表示該來源因傳輸錯誤（重試耗盡）而未能取得
// 真實內容；降級批次不會觸發該來源既有條目的過期判定。
// 這個旗標是Extractor與核心之間的明示契約，不從批次是否為空推斷。
type Batch struct {
	Source   string
	Records  []model.Record
	Degraded bool
}

// Options 控制調和行為。
type Options struct {
	// PreserveFirstSeen 控制EXPIRED條目重新出現時的政策:
	// false（預設）視為全新條目、first_seen重設為本次時刻；
	// true則保留原本的first_seen。兩者都分類為NEW。
	PreserveFirstSeen bool
}

// Result 是單次調和的輸出。
type Result struct {
	RunID    string
	Now      time.Time
	Sources  []string
	Degraded bool

	New     []model.Entry
	Updated []model.Entry
	Expired []model.Entry

	// History 是調和後的完整歷史，依announcement_date遞減排序，
	// 無日期者排在最後（同值間維持原插入順序）。
	History []model.Entry

	Stats model.Stats
}

// Reconciler 是NEW/UPDATED/EXPIRED分類的狀態機。
// 單執行緒、run-to-completion；不持有任何跨執行狀態。
type Reconciler struct {
	logger *slog.Logger
	opts   Options
	now    func() time.Time
}

// NewReconciler 建立Reconciler的新實例。
// nowFn為nil時使用time.Now。
func NewReconciler(logger *slog.Logger, opts Options, nowFn func() time.Time) *Reconciler {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Reconciler{
		logger: logger,
		opts:   opts,
		now:    nowFn,
	}
}

// Reconcile 對歷史執行一次調和。
// 輸入的history不會被就地修改；回傳的Result.History是新的集合。
func (r *Reconciler) Reconcile(history []model.Entry, batches []Batch) Result {
	now := r.now().In(model.TaipeiZone)
	result := Result{
		RunID: uuid.NewString(),
		Now:   now,
	}

	// 歷史條目以識別碼索引（複本、不改動輸入）
	index := make(map[string]*model.Entry, len(history))
	order := make([]*model.Entry, 0, len(history))
	for _, e := range history {
		copied := e
		if _, dup := index[copied.ID]; dup {
			// 識別碼在存放區內必須唯一；重複視為舊資料缺陷，保留先出現者
			r.logger.Warn("歷史中發現重複識別碼，忽略後出現者",
				slog.String("id", copied.ID),
			)
			continue
		}
		index[copied.ID] = &copied
		order = append(order, &copied)
	}

	degradedSources := make(map[string]bool)
	anyDegraded := false
	seen := make(map[string]bool)
	var appended []*model.Entry

	for _, batch := range batches {
		result.Sources = append(result.Sources, batch.Source)
		if batch.Degraded {
			degradedSources[batch.Source] = true
			anyDegraded = true
			r.logger.Warn("來源批次降級，跳過該來源的過期判定",
				slog.String("source", batch.Source),
				slog.Int("records", len(batch.Records)),
			)
		}

		for _, rec := range batch.Records {
			id := identity.AssignID(rec)
			if seen[id] {
				// 同一批次內的重複紀錄，以先出現者為準
				continue
			}
			seen[id] = true

			existing, ok := index[id]
			if !ok {
				// 規則1: 不在歷史中 → NEW
				e := ApplyNew(id, rec, now)
				index[id] = &e
				appended = append(appended, &e)
				result.New = append(result.New, e)
				continue
			}

			if existing.State == model.StateExpired {
				// 規則4: EXPIRED重新出現 → 依政策重新啟用，分類為NEW
				reactivated := ApplyReactivation(existing, rec, now, r.opts.PreserveFirstSeen)
				*existing = reactivated
				result.New = append(result.New, reactivated)
				continue
			}

			// 規則2: 兩邊都有 → 逐欄位比較
			changed := CompareFields(existing, rec)
			if len(changed) == 0 {
				// 無差異，條目不被觸碰（冪等重跑）
				continue
			}
			ApplyUpdate(existing, rec, changed, now)
			result.Updated = append(result.Updated, *existing)
		}
	}

	// 規則3: 歷史中ACTIVE但本次未出現 → EXPIRED。
	// 降級來源的條目豁免；來源標籤為空的舊條目在任一來源降級時一併豁免。
	for _, e := range order {
		if e.State != model.StateActive || seen[e.ID] {
			continue
		}
		if degradedSources[e.Source] || (e.Source == "" && anyDegraded) {
			continue
		}
		ApplyExpiry(e, now)
		result.Expired = append(result.Expired, *e)
	}

	// 規則5: 組出完整歷史並依公告日期遞減排序
	final := make([]model.Entry, 0, len(order)+len(appended))
	for _, e := range order {
		final = append(final, *e)
	}
	for _, e := range appended {
		final = append(final, *e)
	}
	sortByAnnouncementDate(final)
	result.History = final

	result.Degraded = anyDegraded
	result.Stats = buildStats(result)

	r.logger.Info("調和完成",
		slog.String("run_id", result.RunID),
		slog.Int("new", result.Stats.NewCount),
		slog.Int("updated", result.Stats.UpdatedCount),
		slog.Int("expired", result.Stats.ExpiredCount),
		slog.Int("active", result.Stats.ActiveCount),
		slog.Int("total_historical", result.Stats.TotalHistorical),
		slog.Bool("degraded", anyDegraded),
	)

	return result
}

// sortByAnnouncementDate 依公告日期遞減排序，無日期者排最後。
// ISO格式（YYYY-MM-DD）可直接以字串比較；同值間維持原順序。
func sortByAnnouncementDate(entries []model.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].AnnouncementDate, entries[j].AnnouncementDate
		if di == "" {
			return false
		}
		if dj == "" {
			return true
		}
		return di > dj
	})
}

// buildStats 統計調和結果。
func buildStats(result Result) model.Stats {
	active := 0
	for _, e := range result.History {
		if e.State == model.StateActive {
			active++
		}
	}
	return model.Stats{
		NewCount:        len(result.New),
		UpdatedCount:    len(result.Updated),
		ExpiredCount:    len(result.Expired),
		ActiveCount:     active,
		TotalHistorical: len(result.History),
	}
}
