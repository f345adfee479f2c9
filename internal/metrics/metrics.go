// Package metrics 提供Prometheus計量的收集與輸出。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yuchieh/lawwatch/internal/model"
)

// Collector 收集抓取與調和的Prometheus計量值。
type Collector struct {
	fetchSuccess   *prometheus.CounterVec
	fetchFail      *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	httpStatus     *prometheus.CounterVec
	recordsTotal   *prometheus.CounterVec
	historyEntries prometheus.Gauge
}

// NewCollector 建立新的Collector並將計量值註冊至指定的registry。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lawwatch_fetch_success_total",
			Help: "來源抓取成功的合計數",
		}, []string{"source"}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lawwatch_fetch_fail_total",
			Help: "來源抓取失敗的合計數",
		}, []string{"source"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lawwatch_fetch_latency_seconds",
			Help:    "來源抓取的耗時（秒、含重試）",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lawwatch_http_status_total",
			Help: "HTTP狀態碼別的回應數",
		}, []string{"status_code"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lawwatch_records_total",
			Help: "調和判定的紀錄合計數（new/updated/expired）",
		}, []string{"outcome"}),
		historyEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lawwatch_history_entries",
			Help: "歷史存放區目前的條目總數",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.fetchLatency,
		c.httpStatus,
		c.recordsTotal,
		c.historyEntries,
	)

	return c
}

// ObserveFetch 記錄單一來源抓取的成敗、狀態碼與耗時。
func (c *Collector) ObserveFetch(source string, statusCode int, duration time.Duration, success bool) {
	if success {
		c.fetchSuccess.WithLabelValues(source).Inc()
	} else {
		c.fetchFail.WithLabelValues(source).Inc()
	}
	c.fetchLatency.WithLabelValues(source).Observe(duration.Seconds())
	if statusCode > 0 {
		c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	}
}

// ObserveReconcile 記錄單次調和的統計結果。
func (c *Collector) ObserveReconcile(stats model.Stats) {
	c.recordsTotal.WithLabelValues("new").Add(float64(stats.NewCount))
	c.recordsTotal.WithLabelValues("updated").Add(float64(stats.UpdatedCount))
	c.recordsTotal.WithLabelValues("expired").Add(float64(stats.ExpiredCount))
	c.historyEntries.Set(float64(stats.TotalHistorical))
}

// SetHistoryEntries 設定歷史條目總數的gauge。
// serve模式啟動時以讀到的歷史筆數初始化。
func (c *Collector) SetHistoryEntries(n int) {
	c.historyEntries.Set(float64(n))
}

// Handler 回傳Prometheus抓取用的HTTP處理器。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
