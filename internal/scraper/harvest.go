package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/yuchieh/lawwatch/internal/model"
)

// Fetcher 定義來源頁面抓取的介面。
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, int, error)
}

// FetchObserver 定義抓取結果觀測的介面（metrics用）。
type FetchObserver interface {
	ObserveFetch(source string, statusCode int, duration time.Duration, success bool)
}

// Harvest 是單一來源的收集結果。
// Degraded為true時表示抓取或解析失敗，該來源這一輪不可視為完整快照。
type Harvest struct {
	Source     Source
	Candidates []model.Candidate
	Degraded   bool
}

// Harvester 依序收集所有來源並回傳各來源的結果批次。
type Harvester struct {
	fetcher  Fetcher
	logger   *slog.Logger
	observer FetchObserver
}

// NewHarvester 建立Harvester的新實例。observer可為nil。
func NewHarvester(fetcher Fetcher, logger *slog.Logger, observer FetchObserver) *Harvester {
	return &Harvester{
		fetcher:  fetcher,
		logger:   logger,
		observer: observer,
	}
}

// HarvestAll 收集全部來源。
// 個別來源失敗不中斷其餘來源，失敗來源以Degraded批次回傳。
func (h *Harvester) HarvestAll(ctx context.Context, sources []Source) []Harvest {
	results := make([]Harvest, 0, len(sources))
	for _, source := range sources {
		results = append(results, h.harvestOne(ctx, source))
	}
	return results
}

// harvestOne 收集單一來源。
func (h *Harvester) harvestOne(ctx context.Context, source Source) Harvest {
	start := time.Now()
	body, status, err := h.fetcher.Get(ctx, source.URL)
	if h.observer != nil {
		h.observer.ObserveFetch(source.Name, status, time.Since(start), err == nil)
	}
	if err != nil {
		appErr := model.NewFetchFailedError(source.Name, err.Error())
		h.logger.Warn("來源抓取失敗、本輪以降級批次處理",
			slog.String("source", source.Name),
			slog.String("code", appErr.Code),
			slog.Int("status", status),
			slog.String("error", err.Error()))
		return Harvest{Source: source, Degraded: true}
	}

	candidates, parseErr := h.parse(body, source)
	if parseErr != nil {
		h.logger.Warn("來源解析失敗、本輪以降級批次處理",
			slog.String("source", source.Name),
			slog.String("code", model.ErrCodeParseDegraded),
			slog.String("error", parseErr.Error()))
		return Harvest{Source: source, Degraded: true}
	}
	if len(candidates) == 0 {
		// 零筆可能是版面改版造成的解析失效，不可據此判定全部紀錄失效
		h.logger.Warn("來源解析結果為零筆、本輪以降級批次處理",
			slog.String("source", source.Name),
			slog.String("code", model.ErrCodeParseDegraded))
		return Harvest{Source: source, Degraded: true}
	}

	h.logger.Info("來源收集完成",
		slog.String("source", source.Name),
		slog.Int("candidates", len(candidates)))
	return Harvest{Source: source, Candidates: candidates}
}

// parse 依來源種類分派對應的解析器。
func (h *Harvester) parse(body []byte, source Source) ([]model.Candidate, error) {
	switch source.Kind {
	case KindDraftForum:
		return ParseDraftForum(body, source), nil
	case KindRulings:
		return ParseRulings(body, source), nil
	case KindRSS:
		return ParseRSS(body, source)
	default:
		return nil, model.NewInvalidSourceError(source.Name, "unknown kind")
	}
}
