// Package app 提供應用程式的啟動與依賴組裝。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yuchieh/lawwatch/internal/config"
	"github.com/yuchieh/lawwatch/internal/handler"
	"github.com/yuchieh/lawwatch/internal/history"
	"github.com/yuchieh/lawwatch/internal/logger"
	"github.com/yuchieh/lawwatch/internal/metrics"
	"github.com/yuchieh/lawwatch/internal/report"
	"github.com/yuchieh/lawwatch/internal/scraper"
	"github.com/yuchieh/lawwatch/internal/security"
)

// Init 進行應用程式的初始化。
// 從環境變數讀取Config並依LOG_LEVEL設定JSON結構化日誌。
// 指定writer時日誌輸出至該writer。
func Init(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		// 設定讀取失敗時仍需要可用的logger來輸出錯誤
		logger.SetupDefault(w, slog.LevelInfo)
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Run 是應用程式的主要進入點。
// 解析命令列引數的子命令並以對應模式啟動。args傳入os.Args[1:]。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck 是輕量子命令，跳過完整初始化
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("data_dir", cfg.DataDir),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	default:
		return runOnce(cfg)
	}
}

// runOnce 執行一次收集與調和後結束。
// 調和成功（即使零變化）時回傳nil；無法產生可用歷史時回傳錯誤。
func runOnce(cfg *config.Config) error {
	sources, err := scraper.LoadSources(cfg.SourcesFile)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	// 1. 計量
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	// 2. 對外抓取（SSRF防護 + 速率限制 + 退避重試）
	guard := security.NewFetchGuard()
	client := scraper.NewClient(
		guard.NewSafeClient(cfg.FetchTimeout),
		guard,
		cfg.FetchRatePerSec,
		cfg.FetchMaxRetries,
		cfg.FetchMaxSize,
	)
	harvester := scraper.NewHarvester(client, slog.Default(), collector)

	// 3. 持久化與報告
	store := history.NewStore(cfg.DataDir, cfg.HistoryMaxEntries, slog.Default())
	reporter := report.NewWriter(cfg.DataDir, slog.Default())

	p := newPipeline(
		cfg, slog.Default(), sources,
		harvester, store, reporter, collector,
		security.NewTitleSanitizer(), nil,
	)

	rep, err := p.Run(context.Background())
	if err != nil {
		return err
	}

	slog.Info("run completed",
		slog.String("run_id", rep.RunID),
		slog.Int("new", rep.Statistics.NewCount),
		slog.Int("updated", rep.Statistics.UpdatedCount),
		slog.Int("expired", rep.Statistics.ExpiredCount),
		slog.Bool("degraded", rep.Degraded),
	)
	return nil
}

// runServe 以唯讀狀態API伺服器模式啟動。
// 收到SIGINT或SIGTERM時進行graceful shutdown。
func runServe(cfg *config.Config) error {
	store := history.NewStore(cfg.DataDir, cfg.HistoryMaxEntries, slog.Default())

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	// 啟動時以既有歷史初始化gauge；讀取失敗不阻擋啟動
	if entries, err := store.Load(); err == nil {
		collector.SetHistoryEntries(len(entries))
	}

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:  slog.Default(),
		History: store,
		Report:  report.NewReader(cfg.DataDir),
		Metrics: metrics.Handler(reg),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("status API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down status API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("status API server stopped gracefully")
	return nil
}

// runHealthcheck 對serve模式的伺服器做存活確認。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
