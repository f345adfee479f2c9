// Package logger 提供JSON結構化日誌的設定。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel 將文字日誌等級轉換為slog.Level。
// 未知的值回傳slog.LevelInfo。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup 建立JSON結構化輸出的slog.Logger並回傳。
// 指定writer時輸出至該writer。
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetupDefault 將JSON結構化輸出設定為全域logger。
// w為nil時輸出至os.Stdout。正式環境預期傳入os.Stdout。
func SetupDefault(w io.Writer, level slog.Level) {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w, level)
	slog.SetDefault(logger)
}
