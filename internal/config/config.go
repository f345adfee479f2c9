// Package config 提供應用程式設定的讀取。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 保存應用程式整體的設定。
// 啟動時從環境變數讀取1次，之後視為不可變。
type Config struct {
	// Data
	DataDir     string
	SourcesFile string

	// Source
	BaseOrigin string

	// Fetch
	FetchTimeout    time.Duration
	FetchMaxSize    int64
	FetchMaxRetries int
	FetchRatePerSec float64

	// History
	HistoryMaxEntries int // 0表示不裁剪

	// Reconcile
	ReactivatePreserveFirstSeen bool

	// Server
	ServerPort string

	// Logging
	LogLevel string
}

// Load 從環境變數讀取Config。
// 所有項目皆有預設值；數值格式無效時回傳錯誤而非靜默採用預設。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DataDir = getEnvString("DATA_DIR", "data")
	cfg.SourcesFile = getEnvString("SOURCES_FILE", "")
	cfg.BaseOrigin = getEnvString("BASE_ORIGIN", "https://law.mof.gov.tw")

	if !strings.HasPrefix(cfg.BaseOrigin, "http://") && !strings.HasPrefix(cfg.BaseOrigin, "https://") {
		return nil, fmt.Errorf("BASE_ORIGIN must include a scheme: %s", cfg.BaseOrigin)
	}

	var err error
	cfg.FetchTimeout, err = getEnvDuration("FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.FetchMaxSize, err = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	if err != nil {
		return nil, err
	}
	cfg.FetchMaxRetries, err = getEnvInt("FETCH_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	cfg.FetchRatePerSec, err = getEnvFloat("FETCH_RATE_PER_SEC", 1.0)
	if err != nil {
		return nil, err
	}
	cfg.HistoryMaxEntries, err = getEnvInt("HISTORY_MAX_ENTRIES", 0)
	if err != nil {
		return nil, err
	}
	if cfg.HistoryMaxEntries < 0 {
		return nil, fmt.Errorf("HISTORY_MAX_ENTRIES must not be negative: %d", cfg.HistoryMaxEntries)
	}
	cfg.ReactivatePreserveFirstSeen, err = getEnvBool("REACTIVATE_PRESERVE_FIRST_SEEN", false)
	if err != nil {
		return nil, err
	}

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %q", key, v)
	}
	return i, nil
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %q", key, v)
	}
	return i, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %q", key, v)
	}
	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %q", key, v)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30s): %q", key, v)
	}
	return d, nil
}
