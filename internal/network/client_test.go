package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"SteamCNReader/internal/config"
)

// テスト用の設定。ローカルホストへのレート制限を無効にし、リトライ待機を短くします。
func testSettings(retryCount int) config.NetworkSettings {
	return config.NetworkSettings{
		UserAgent:               "SteamCNReader-Test",
		DefaultHeaders:          map[string]string{"Accept-Language": "zh-CN"},
		PerDomainIntervalMillis: map[string]int{"127.0.0.1": 0},
		RequestTimeoutMillis:    5000,
		RetryCount:              retryCount,
		RetryWaitMillis:         1,
	}
}

func TestClient_CookieIntegration(t *testing.T) {
	// 1. Arrange (準備) - ダミーサーバーの構築
	expectedCookieValue := "a1b2c3"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("auth")
		if err != nil {
			http.Error(w, "Cookie 'auth' not found", http.StatusBadRequest)
			t.Errorf("サーバー: リクエストに'auth' Cookieが見つかりませんでした。")
			return
		}
		if cookie.Value != expectedCookieValue {
			http.Error(w, "Invalid cookie value", http.StatusBadRequest)
			t.Errorf("サーバー: Cookieの値が期待値と異なります。期待値: %s, 実際値: %s", expectedCookieValue, cookie.Value)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != "SteamCNReader-Test" {
			t.Errorf("サーバー: User-Agentが期待値と異なります: %s", ua)
		}
		if lang := r.Header.Get("Accept-Language"); lang != "zh-CN" {
			t.Errorf("サーバー: 既定ヘッダーが送信されていません: %s", lang)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Success"))
	}))
	defer server.Close()

	// 2. Arrange (準備) - テスト対象クライアントの作成
	client, err := NewClient(testSettings(0))
	if err != nil {
		t.Fatalf("NewClientの作成に失敗しました: %v", err)
	}
	if err := client.SetCookie(server.URL, &http.Cookie{Name: "auth", Value: expectedCookieValue, Path: "/"}); err != nil {
		t.Fatalf("SetCookieで予期せぬエラーが発生しました: %v", err)
	}

	// 3. Act (実行)
	body, err := client.Get(context.Background(), server.URL)

	// 4. Assert (検証)
	if err != nil {
		t.Fatalf("client.Getで予期せぬエラーが発生しました: %v", err)
	}
	if string(body) != "Success" {
		t.Errorf("レスポンスボディが期待値と異なります。期待値: 'Success', 実際値: '%s'", body)
	}
}

func TestClient_Get_NotFoundIsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := NewClient(testSettings(3))
	if err != nil {
		t.Fatalf("NewClientの作成に失敗しました: %v", err)
	}

	_, err = client.Get(context.Background(), server.URL)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("HTTPErrorを期待しましたが、%v でした", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("ステータスコードが期待値と異なります: %d", httpErr.StatusCode)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("404はリトライされないはずですが、%d 回リクエストされました", got)
	}
}

func TestClient_Get_ServerErrorIsRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, err := NewClient(testSettings(2))
	if err != nil {
		t.Fatalf("NewClientの作成に失敗しました: %v", err)
	}

	body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("リトライ後に成功するはずでしたが、エラーになりました: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("レスポンスボディが期待値と異なります: %s", body)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("リクエスト回数が期待値と異なります。期待値: 3, 実際値: %d", got)
	}
}

func TestClient_Get_RetriesExhausted(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(testSettings(1))
	if err != nil {
		t.Fatalf("NewClientの作成に失敗しました: %v", err)
	}

	_, err = client.Get(context.Background(), server.URL)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("502のHTTPErrorを期待しましたが、%v でした", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("リクエスト回数が期待値と異なります。期待値: 2, 実際値: %d", got)
	}
}

func TestClient_Get_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("never"))
	}))
	defer server.Close()

	client, err := NewClient(testSettings(3))
	if err != nil {
		t.Fatalf("NewClientの作成に失敗しました: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Get(ctx, server.URL); err == nil {
		t.Error("キャンセル済みのコンテキストでエラーを期待しました")
	}
}

func TestHTTPError_IsRetryable(t *testing.T) {
	cases := map[int]bool{
		http.StatusBadRequest:          false,
		http.StatusForbidden:           false,
		http.StatusNotFound:            false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
	}
	for code, want := range cases {
		e := &HTTPError{StatusCode: code}
		if got := e.IsRetryable(); got != want {
			t.Errorf("IsRetryable(%d) = %v, 期待値 %v", code, got, want)
		}
	}
}
