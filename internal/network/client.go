// Package network は、フォーラムへのHTTP通信を担当します。
// Cookie Jarによるセッション管理、ホストごとのレート制限、
// 一時的な失敗に対するリトライをまとめたクライアントを提供します。
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"SteamCNReader/internal/config"

	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultIntervalMillis = 1000

// HTTPError は、HTTPリクエストで発生したエラーとステータスコードを保持します。
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsRetryable は、このエラーがリトライ可能かどうかを判定します。
// 429 を除く4xxはリトライ不可、それ以外(5xx)はリトライ可能です。
func (e *HTTPError) IsRetryable() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode < 400 || e.StatusCode >= 500
}

// Client は、Cookie Jarを内包し、HTTPセッションを管理するクライアントです。
type Client struct {
	httpClient         *http.Client
	jar                *cookiejar.Jar
	userAgent          string
	defaultHeaders     map[string]string
	perDomainIntervals map[string]int
	retryCount         uint64
	retryWait          time.Duration

	mu           sync.Mutex
	rateLimiters map[string]*rate.Limiter // ホスト名ごと
}

// NewClient は NetworkSettings に基づいて HTTP クライアントを初期化します。
func NewClient(settings config.NetworkSettings) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jarの作成に失敗しました: %w", err)
	}

	timeout := time.Duration(settings.RequestTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retryWait := time.Duration(settings.RetryWaitMillis) * time.Millisecond
	if retryWait <= 0 {
		retryWait = time.Second
	}
	retryCount := 0
	if settings.RetryCount > 0 {
		retryCount = settings.RetryCount
	}

	return &Client{
		httpClient:         &http.Client{Jar: jar, Timeout: timeout},
		jar:                jar,
		userAgent:          settings.UserAgent,
		defaultHeaders:     settings.DefaultHeaders,
		perDomainIntervals: settings.PerDomainIntervalMillis,
		retryCount:         uint64(retryCount),
		retryWait:          retryWait,
		rateLimiters:       make(map[string]*rate.Limiter),
	}, nil
}

// SetCookie は、指定されたURLのドメインに対して、任意のCookieを設定します。
func (c *Client) SetCookie(domainURL string, cookie *http.Cookie) error {
	if !strings.HasPrefix(domainURL, "http") {
		domainURL = "https://" + domainURL
	}

	parsedURL, err := url.Parse(domainURL)
	if err != nil {
		return fmt.Errorf("Cookie設定のためのURL解析に失敗しました: %w", err)
	}

	c.jar.SetCookies(parsedURL, []*http.Cookie{cookie})
	return nil
}

// Get は、指定されたURLにGETリクエストを送信し、レスポンスボディを返します。
// 通信エラーとリトライ可能なHTTPエラーは、設定された回数まで指数バックオフで再試行されます。
func (c *Client) Get(ctx context.Context, reqURL string) ([]byte, error) {
	parsedURL, err := url.Parse(reqURL)
	if err != nil {
		return nil, fmt.Errorf("リクエストURLの解析に失敗しました (%s): %w", reqURL, err)
	}
	limiter := c.limiterForHost(parsedURL.Hostname())

	var body []byte
	attempt := 0
	backoff := retry.WithMaxRetries(c.retryCount, retry.NewExponential(c.retryWait))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("レートリミッター待機中にエラーが発生しました: %w", err)
		}

		b, err := c.fetch(ctx, reqURL)
		if err == nil {
			body = b
			return nil
		}

		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !httpErr.IsRetryable() {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		log.WithFields(log.Fields{"url": reqURL, "attempt": attempt}).Warnf("リクエストに失敗しました。再試行します: %v", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエストの作成に失敗しました (%s): %w", reqURL, err)
	}
	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GETリクエストの送信に失敗しました (%s): %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}
	return body, nil
}

// limiterForHost は、ホストに対応するレートリミッターを返します。
// 存在しない場合は設定された間隔(未設定なら1秒)で生成します。
func (c *Client) limiterForHost(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limiter, ok := c.rateLimiters[host]; ok {
		return limiter
	}

	intervalMillis := defaultIntervalMillis
	if val, ok := c.perDomainIntervals[host]; ok {
		intervalMillis = val
	}
	limit := rate.Inf
	if intervalMillis > 0 {
		limit = rate.Every(time.Duration(intervalMillis) * time.Millisecond)
	}
	limiter := rate.NewLimiter(limit, 1)
	c.rateLimiters[host] = limiter
	return limiter
}
