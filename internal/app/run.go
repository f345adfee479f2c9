package app

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/yuchieh/lawwatch/internal/config"
	"github.com/yuchieh/lawwatch/internal/model"
	"github.com/yuchieh/lawwatch/internal/normalize"
	"github.com/yuchieh/lawwatch/internal/reconcile"
	"github.com/yuchieh/lawwatch/internal/scraper"
)

// harvestRunner 是流程所需的來源收集介面。
type harvestRunner interface {
	HarvestAll(ctx context.Context, sources []scraper.Source) []scraper.Harvest
}

// historyStore 是流程所需的歷史存取介面。
type historyStore interface {
	Load() ([]model.Entry, error)
	SaveWithRetention(entries []model.Entry) ([]model.Entry, error)
}

// reportWriter 是流程所需的報告輸出介面。
type reportWriter interface {
	Write(rep model.Report, history []model.Entry) ([]string, error)
	ExportCSV(history []model.Entry, now time.Time) (string, error)
}

// reconcileObserver 是調和結果的計量介面（metrics用）。
type reconcileObserver interface {
	ObserveReconcile(stats model.Stats)
}

// pipeline 把單次執行的各階段串起來:
// 收集 → 正規化 → 調和 → 持久化 → 報告輸出。
type pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	sources   []scraper.Source
	harvester harvestRunner
	store     historyStore
	reporter  reportWriter
	observer  reconcileObserver // 可為nil
	sanitizer normalize.TitleSanitizer
	now       func() time.Time
}

// newPipeline 建立pipeline的新實例。
// observer可為nil；nowFn為nil時使用time.Now。
func newPipeline(
	cfg *config.Config,
	logger *slog.Logger,
	sources []scraper.Source,
	harvester harvestRunner,
	store historyStore,
	reporter reportWriter,
	observer reconcileObserver,
	sanitizer normalize.TitleSanitizer,
	nowFn func() time.Time,
) *pipeline {
	return &pipeline{
		cfg:       cfg,
		logger:    logger,
		sources:   sources,
		harvester: harvester,
		store:     store,
		reporter:  reporter,
		observer:  observer,
		sanitizer: sanitizer,
		now:       nowFn,
	}
}

// Run 執行一次完整流程並回傳執行報告。
//
// 寫入失敗時既有歷史維持原狀: 寫入前已有可用歷史的話
// 記錄錯誤後照常產出報告（結束碼0）；完全沒有任何可用歷史
// 時回傳NO_USABLE_HISTORY的硬性錯誤。
func (p *pipeline) Run(ctx context.Context) (*model.Report, error) {
	history, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	hadHistory := len(history) > 0

	harvests := p.harvester.HarvestAll(ctx, p.sources)
	batches := p.normalizeBatches(harvests)

	reconciler := reconcile.NewReconciler(p.logger, reconcile.Options{
		PreserveFirstSeen: p.cfg.ReactivatePreserveFirstSeen,
	}, p.now)
	result := reconciler.Reconcile(history, batches)

	if p.observer != nil {
		p.observer.ObserveReconcile(result.Stats)
	}

	if _, err := p.store.SaveWithRetention(result.History); err != nil {
		if !hadHistory {
			return nil, model.NewNoHistoryError(err.Error())
		}
		// 寫入前的歷史仍然有效，本次批次結果不落地
		p.logger.Error("歷史寫入失敗，沿用寫入前的歷史",
			slog.String("code", model.ErrCodeWriteFailed),
			slog.String("error", err.Error()),
		)
	}

	rep := buildReport(result)

	if _, err := p.reporter.Write(rep, result.History); err != nil {
		p.logger.Warn("報告輸出失敗",
			slog.String("run_id", rep.RunID),
			slog.String("error", err.Error()),
		)
	}
	if rep.HasChanges() {
		if _, err := p.reporter.ExportCSV(result.History, result.Now); err != nil {
			p.logger.Warn("CSV匯出失敗",
				slog.String("run_id", rep.RunID),
				slog.String("error", err.Error()),
			)
		}
	}

	return &rep, nil
}

// normalizeBatches 將各來源的候選紀錄正規化為調和輸入批次。
// 相對連結以來源自身的base origin解析，未設定時用全域設定值。
func (p *pipeline) normalizeBatches(harvests []scraper.Harvest) []reconcile.Batch {
	batches := make([]reconcile.Batch, 0, len(harvests))
	for _, h := range harvests {
		n := normalize.NewNormalizer(p.baseOrigin(h.Source), p.sanitizer, p.now)
		batches = append(batches, reconcile.Batch{
			Source:   h.Source.Name,
			Records:  n.NormalizeBatch(h.Candidates),
			Degraded: h.Degraded,
		})
	}
	return batches
}

// baseOrigin 決定來源的連結解析基準。
func (p *pipeline) baseOrigin(source scraper.Source) *url.URL {
	raw := source.BaseOrigin
	if raw == "" {
		raw = p.cfg.BaseOrigin
	}
	base, err := url.Parse(raw)
	if err != nil {
		p.logger.Warn("base origin無法解析，改用全域設定",
			slog.String("source", source.Name),
			slog.String("base_origin", raw),
		)
		base, _ = url.Parse(p.cfg.BaseOrigin)
	}
	return base
}

// buildReport 將調和結果組成執行報告。
func buildReport(result reconcile.Result) model.Report {
	return model.Report{
		RunID:          result.RunID,
		ExecutedAt:     result.Now,
		Sources:        result.Sources,
		Statistics:     result.Stats,
		Degraded:       result.Degraded,
		NewRecords:     result.New,
		UpdatedRecords: result.Updated,
	}
}
