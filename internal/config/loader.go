package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const compatibleVersion = "1.0"

// 既定値
const (
	DefaultAdapter           = "steamcn"
	DefaultBaseURL           = "https://steamcn.com"
	DefaultCharset           = "utf-8"
	DefaultUserAgent         = "SteamCNReader/1.0"
	DefaultListenAddr        = "127.0.0.1:8080"
	DefaultRequestTimeoutMs  = 30000
	DefaultRetryCount        = 2
	DefaultRetryWaitMs       = 1000
	DefaultWatchIntervalMs   = 15 * 60 * 1000
	DefaultHistoryMaxEntries = 100
	DefaultLogLevel          = "info"
	envPrefix                = "SCNR_"
)

// Default は、設定ファイルを使わない場合の既定の設定を返します。
func Default() *Config {
	cfg := &Config{ConfigVersion: compatibleVersion}
	cfg.Network.RetryCount = DefaultRetryCount
	cfg.History.MaxEntries = DefaultHistoryMaxEntries
	applyDefaults(cfg)
	return cfg
}

// LoadAndResolve は、指定されたパスから設定ファイルを読み込み、解析と解決を行います。
// 拡張子が .yaml / .yml の場合はYAML、それ以外はJSONとして解析します。
func LoadAndResolve(path string) (*Config, error) {
	absPath, _ := filepath.Abs(path)
	cwd, _ := os.Getwd()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイル '%s' の読み込みに失敗しました (Abs: '%s', Cwd: '%s'): %w", path, absPath, cwd, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseAndResolveYAML(data)
	default:
		return ParseAndResolve(data)
	}
}

// LoadOrDefault は LoadAndResolve と同様ですが、ファイルが存在しない場合は
// 既定の設定に環境変数を適用したものを返します。
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return resolve(Default(), os.LookupEnv)
	}
	return LoadAndResolve(path)
}

// LoadEnvFile は、.envファイルの内容を環境変数に読み込みます。
// 既に設定されている環境変数は上書きしません。
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf(".envファイル '%s' の読み込みに失敗しました: %w", path, err)
	}
	return nil
}

// ParseAndResolve は、JSON形式の設定データを解析し、既定値と環境変数を適用した最終的な設定を返します。
// この関数はテストのために分離されています。
func ParseAndResolve(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError

		if errors.As(err, &syntaxErr) {
			line, col := computeLineAndColumn(data, syntaxErr.Offset)
			return nil, fmt.Errorf("設定ファイルのJSON構文エラー (行 %d, 列 %d): %w", line, col, err)
		}
		if errors.As(err, &typeErr) {
			line, col := computeLineAndColumn(data, typeErr.Offset)
			return nil, fmt.Errorf("設定ファイルの型エラー (行 %d, 列 %d, フィールド '%s'): 期待値 %v, 実際 %v - %w",
				line, col, typeErr.Field, typeErr.Type, typeErr.Value, err)
		}
		return nil, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}
	return resolve(&cfg, os.LookupEnv)
}

// ParseAndResolveYAML は、YAML形式の設定データについて ParseAndResolve と同じ処理を行います。
func ParseAndResolveYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		// yaml.v3 のエラーメッセージには行番号が含まれる
		return nil, fmt.Errorf("設定ファイルのYAML解析に失敗しました: %w", err)
	}
	return resolve(&cfg, os.LookupEnv)
}

func resolve(cfg *Config, lookup func(string) (string, bool)) (*Config, error) {
	if cfg.ConfigVersion != compatibleVersion {
		return nil, fmt.Errorf("サポートされていない設定バージョン '%s' です。'%s' が必要です。", cfg.ConfigVersion, compatibleVersion)
	}
	applyEnv(cfg, lookup)
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Site.Adapter == "" {
		cfg.Site.Adapter = DefaultAdapter
	}
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = DefaultBaseURL
	}
	if cfg.Site.Charset == "" {
		cfg.Site.Charset = DefaultCharset
	}
	if cfg.Network.UserAgent == "" {
		cfg.Network.UserAgent = DefaultUserAgent
	}
	if cfg.Network.RequestTimeoutMillis <= 0 {
		cfg.Network.RequestTimeoutMillis = DefaultRequestTimeoutMs
	}
	if cfg.Network.RetryWaitMillis <= 0 {
		cfg.Network.RetryWaitMillis = DefaultRetryWaitMs
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.WatchIntervalMillis <= 0 {
		cfg.Server.WatchIntervalMillis = DefaultWatchIntervalMs
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// applyEnv は、SCNR_ で始まる環境変数で設定を上書きします。
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		"BASE_URL":    &cfg.Site.BaseURL,
		"CHARSET":     &cfg.Site.Charset,
		"USER_AGENT":  &cfg.Network.UserAgent,
		"LISTEN_ADDR": &cfg.Server.ListenAddr,
		"HISTORY_DB":  &cfg.History.DatabasePath,
		"LOG_LEVEL":   &cfg.LogLevel,
		"LOG_FILE":    &cfg.LogFilePath,
	}
	for name, target := range overrides {
		if val, ok := lookup(envPrefix + name); ok && val != "" {
			*target = val
		}
	}
}

func validate(cfg *Config) error {
	if !strings.HasPrefix(cfg.Site.BaseURL, "http://") && !strings.HasPrefix(cfg.Site.BaseURL, "https://") {
		return fmt.Errorf("site.base_url '%s' はhttp(s)のURLである必要があります", cfg.Site.BaseURL)
	}
	if cfg.Network.RetryCount < 0 {
		return fmt.Errorf("network.retry_count は0以上である必要があります (実際 %d)", cfg.Network.RetryCount)
	}
	if cfg.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries は0以上である必要があります (実際 %d)", cfg.History.MaxEntries)
	}
	return nil
}

// computeLineAndColumn は、バイトオフセットから行番号と列番号（1始まり）を計算します。
func computeLineAndColumn(data []byte, offset int64) (int, int) {
	if offset < 0 || int(offset) > len(data) {
		return 0, 0
	}
	line := 1
	lastLineStart := 0
	for i, b := range data {
		if int64(i) == offset {
			return line, i - lastLineStart + 1
		}
		if b == '\n' {
			line++
			lastLineStart = i + 1
		}
	}
	return line, int(offset) - lastLineStart + 1
}
