package handler

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/yuchieh/lawwatch/internal/model"
)

// HistoryLoader 是狀態API所需的歷史讀取介面。
type HistoryLoader interface {
	Load() ([]model.Entry, error)
}

// ReportLoader 是狀態API所需的報告讀取介面。
// 報告檔不存在時回傳包裝fs.ErrNotExist的錯誤。
type ReportLoader interface {
	Read() (*model.Report, error)
}

// StatusHandler 是歷史與報告查詢的HTTP處理器。
type StatusHandler struct {
	history HistoryLoader
	report  ReportLoader
}

// NewStatusHandler 建立StatusHandler的新實例。
func NewStatusHandler(history HistoryLoader, report ReportLoader) *StatusHandler {
	return &StatusHandler{history: history, report: report}
}

// errorResponse 是錯誤回應的JSON結構。
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// historyResponse 是歷史查詢的回應。
type historyResponse struct {
	Count   int           `json:"count"`
	Entries []model.Entry `json:"entries"`
}

// Healthz 回應存活確認。
// GET /healthz
func (h *StatusHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetHistory 回傳持久化的歷史條目。
// GET /api/history?state=active|expired
// state未指定時回傳全部條目。
func (h *StatusHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	switch state {
	case "", string(model.StateActive), string(model.StateExpired):
	default:
		writeError(w, http.StatusBadRequest, "INVALID_STATE",
			"state參數僅接受active或expired。")
		return
	}

	entries, err := h.history.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrCodeStoreCorrupt,
			"歷史讀取失敗。")
		return
	}

	if state != "" {
		filtered := make([]model.Entry, 0, len(entries))
		for _, e := range entries {
			if e.State == model.State(state) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	writeJSON(w, http.StatusOK, historyResponse{Count: len(entries), Entries: entries})
}

// GetReport 回傳最近一次執行的主報告。
// GET /api/report
// 尚未有任何執行報告時回404。
func (h *StatusHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.report.Read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "REPORT_NOT_FOUND",
				"尚未有任何執行報告，請先執行run。")
			return
		}
		writeError(w, http.StatusInternalServerError, "REPORT_READ_FAILED",
			"報告讀取失敗。")
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// writeJSON 以JSON輸出回應。非ASCII內容不做HTML轉義。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

// writeError 以統一錯誤格式輸出回應。
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
