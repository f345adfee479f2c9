// Package handler 提供serve模式的唯讀狀態API。
// 對持久化的歷史與最近一次執行報告提供查詢端點；
// 不提供任何寫入操作，調和只由run子命令觸發。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yuchieh/lawwatch/internal/middleware"
)

// RouterDeps 是NewRouter所需依賴的集合。
type RouterDeps struct {
	Logger  *slog.Logger
	History HistoryLoader
	Report  ReportLoader

	// Metrics 是/metrics端點的處理器，nil時不註冊該路由。
	Metrics http.Handler
}

// NewRouter 回傳組好全部路由與中介層的chi.Router。
//
// 中介層執行順序: Recovery → Logging。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	h := NewStatusHandler(deps.History, deps.Report)

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/history", h.GetHistory)
		r.Get("/report", h.GetReport)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	return r
}
