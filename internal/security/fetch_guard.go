// Package security 提供對外抓取的安全性功能。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// FetchGuardService 定義對外抓取的SSRF防護介面。
// 來源設定讀取時與實際抓取時都會使用。
type FetchGuardService interface {
	// NewSafeClient 建立具SSRF防護的HTTP客戶端。
	// safeurl函式庫會自動封鎖對私有IP、loopback、link-local、
	// 雲端metadata IP的請求，並在DNS解析後再次驗證IP，
	// 因此也能防禦DNS rebinding攻擊。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL 事前驗證URL的安全性。
	// 檢查scheme、host與IP位址，危險的URL回傳錯誤。
	ValidateURL(rawURL string) error
}

// allowedSchemes 是SSRF防護允許的URL scheme。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks 是SSRF防護封鎖的網段。
// 套件初始化時解析1次，供ValidateURL使用。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// 私有IP位址 (RFC 1918)
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// loopback (RFC 1122)
		"127.0.0.0/8",
		// link-local (RFC 3927) - 含雲端metadata IP (169.254.169.254)
		"169.254.0.0/16",
		// current network
		"0.0.0.0/8",
		// IPv6 loopback
		"::1/128",
		// IPv6 link-local
		"fe80::/10",
		// IPv6 unique-local
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// fetchGuard 是FetchGuardService的實作。
type fetchGuard struct{}

// NewFetchGuard 建立FetchGuardService的新實例。
func NewFetchGuard() *fetchGuard {
	return &fetchGuard{}
}

// NewSafeClient 建立具SSRF防護的HTTP客戶端。
func (g *fetchGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	wrappedClient := safeurl.Client(config)
	return wrappedClient.Client
}

// ValidateURL 事前驗證URL的安全性。
// 不做DNS解析的靜態檢查；DNS rebinding由NewSafeClient產生的
// 客戶端在Dialer層驗證防禦。
func (g *fetchGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// scheme驗證: 僅允許http/https
	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	// host驗證: 拒絕空host
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	// IP位址: 比對封鎖網段
	ip := net.ParseIP(host)
	if ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	// 主機名稱: 拒絕localhost等危險名稱
	if isBlockedHostname(host) {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}

// isAllowedScheme 檢查URL scheme是否在允許清單中。
func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isBlockedIP 檢查IP位址是否落在封鎖網段內。
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// blockedHostnames 是封鎖的主機名稱。
var blockedHostnames = []string{
	"localhost",
}

// isBlockedHostname 檢查主機名稱是否在封鎖清單中。
func isBlockedHostname(host string) bool {
	lower := strings.ToLower(host)
	for _, blocked := range blockedHostnames {
		if lower == blocked {
			return true
		}
	}
	return false
}
