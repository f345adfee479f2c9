package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// FetchResult 是依HTTP狀態碼分類的抓取結果。
type FetchResult int

const (
	// FetchResultOK 表示抓取成功（200）。
	FetchResultOK FetchResult = iota
	// FetchResultRetry 表示應退避後重試的狀態（429/5xx）。
	FetchResultRetry
	// FetchResultFatal 表示不應重試的狀態（其他4xx）。
	FetchResultFatal
)

const (
	// initialBackoff 是指數退避的初始延遲。
	initialBackoff = 2 * time.Second
	// maxBackoff 是指數退避的最大延遲。
	maxBackoff = 30 * time.Second
	// userAgent 是對來源網站送出的UA字串。
	userAgent = "lawwatch/1.0 regulation tracker"
)

// ClassifyHTTPStatus 將HTTP狀態碼分類為抓取結果。
func ClassifyHTTPStatus(statusCode int) FetchResult {
	switch {
	case statusCode == http.StatusOK:
		return FetchResultOK
	case statusCode == http.StatusTooManyRequests:
		return FetchResultRetry
	case statusCode >= 500:
		return FetchResultRetry
	default:
		return FetchResultFatal
	}
}

// CalculateBackoff 依既有重試次數計算指數退避延遲。
// 初始2秒、每次加倍、上限30秒。
func CalculateBackoff(attempt int) time.Duration {
	delay := initialBackoff
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// URLValidator 定義抓取前URL安全性驗證的介面。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Client 是對來源網站的HTTP客戶端。
// SSRF防護、速率限制與指數退避重試都在這一層處理；
// 呼叫端拿到的是最終的回應內容或耗盡重試後的錯誤。
type Client struct {
	httpClient  *http.Client
	validator   URLValidator
	limiter     *rate.Limiter
	maxRetries  int
	maxBodySize int64
}

// NewClient 建立Client的新實例。
// ratePerSec限制對來源的請求頻率；maxRetries是重試次數上限（不含首次）。
func NewClient(httpClient *http.Client, validator URLValidator, ratePerSec float64, maxRetries int, maxBodySize int64) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &Client{
		httpClient:  httpClient,
		validator:   validator,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
		maxRetries:  maxRetries,
		maxBodySize: maxBodySize,
	}
}

// Get 抓取指定URL並回傳回應內容。
// 429/5xx時以指數退避重試至多maxRetries次；其餘4xx立即失敗。
// 回傳的最後一個值是實際收到的HTTP狀態碼（供metrics記錄）。
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, int, error) {
	if err := c.validator.ValidateURL(rawURL); err != nil {
		return nil, 0, fmt.Errorf("URL安全性驗證失敗: %w", err)
	}

	var lastErr error
	lastStatus := 0

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(attempt - 1)
			select {
			case <-ctx.Done():
				return nil, lastStatus, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, lastStatus, err
		}

		body, status, err := c.doOnce(ctx, rawURL)
		lastStatus = status
		if err == nil {
			return body, status, nil
		}
		lastErr = err

		if status != 0 && ClassifyHTTPStatus(status) == FetchResultFatal {
			return nil, status, err
		}
	}

	return nil, lastStatus, fmt.Errorf("重試%d次後仍失敗: %w", c.maxRetries, lastErr)
}

// doOnce 執行單次HTTP GET。
func (c *Client) doOnce(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("建立請求失敗: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.8,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP請求失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, fmt.Errorf("HTTP狀態 %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("讀取回應內容失敗: %w", err)
	}
	return body, resp.StatusCode, nil
}
