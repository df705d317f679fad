package http

import (
	"net"
	"net/http"
	"time"
)

// UserAgent は外部API呼び出し時に付与するUser-Agentです。
const UserAgent = "mindcare-backend/1.0"

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
// OAuthプロバイダーとの通信やGemini呼び出しで共有します。
//
// 注意:
//   - http.DefaultClientにはタイムアウトがないため、常にカスタムクライアントを使用すること
//   - User-Agentが未設定のリクエストには UserAgent を付与する
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: &userAgentTransport{base: t}}
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	// RoundTripperはリクエストを変更してはならないため複製する
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(clone)
}
