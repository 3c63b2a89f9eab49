// Package config は、アプリケーションの設定ファイル(config.json / config.yaml)の構造定義と、
// その読み込み、既定値と環境変数による上書きに関する機能を提供します。
package config

// Config は設定ファイル全体を表すルート構造体です。
type Config struct {
	ConfigVersion string          `json:"config_version" yaml:"config_version"`
	Site          SiteSettings    `json:"site" yaml:"site"`
	Network       NetworkSettings `json:"network" yaml:"network"`
	Server        ServerSettings  `json:"server" yaml:"server"`
	History       HistorySettings `json:"history" yaml:"history"`
	EnableLogFile bool            `json:"enable_log_file" yaml:"enable_log_file"`
	LogFilePath   string          `json:"log_file_path,omitempty" yaml:"log_file_path,omitempty"`
	LogLevel      string          `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// SiteSettings は、対象フォーラムに関する設定です。
type SiteSettings struct {
	// Adapter はサイトアダプタ名です (例: "steamcn")。
	Adapter string `json:"adapter" yaml:"adapter"`
	// BaseURL はフォーラムのルートURLです。相対URLの解決にも使われます。
	BaseURL string `json:"base_url" yaml:"base_url"`
	// Charset はページの文字コードです (例: "utf-8", "gbk")。
	Charset string `json:"charset,omitempty" yaml:"charset,omitempty"`
	// Cookies はリクエスト前に設定するCookieです (ログイン済みセッション等)。
	Cookies map[string]string `json:"cookies,omitempty" yaml:"cookies,omitempty"`
}

// NetworkSettings は、HTTPリクエストに関するグローバルな設定を保持します。
type NetworkSettings struct {
	UserAgent               string            `json:"user_agent" yaml:"user_agent"`
	DefaultHeaders          map[string]string `json:"default_headers" yaml:"default_headers"`
	PerDomainIntervalMillis map[string]int    `json:"per_domain_interval_ms" yaml:"per_domain_interval_ms"`
	RequestTimeoutMillis    int               `json:"request_timeout_ms" yaml:"request_timeout_ms"`
	RetryCount              int               `json:"retry_count" yaml:"retry_count"`
	RetryWaitMillis         int               `json:"retry_wait_ms" yaml:"retry_wait_ms"`
}

// ServerSettings は、JSON APIサーバーの設定です。
type ServerSettings struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	// WatchIntervalMillis は -watch モードでトップページを確認する間隔です。
	WatchIntervalMillis int `json:"watch_interval_ms,omitempty" yaml:"watch_interval_ms,omitempty"`
	// WatchKeyword が空でない場合、タイトルに含むスレッドだけを通知します。
	WatchKeyword         string   `json:"watch_keyword,omitempty" yaml:"watch_keyword,omitempty"`
	WatchExcludeKeywords []string `json:"watch_exclude_keywords,omitempty" yaml:"watch_exclude_keywords,omitempty"`
}

// HistorySettings は、閲覧履歴ストアの設定です。
type HistorySettings struct {
	// DatabasePath が空の場合、履歴は保存されません。
	DatabasePath string `json:"database_path,omitempty" yaml:"database_path,omitempty"`
	// MaxEntries を超えた古い履歴は削除されます。0は無制限です。
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}
