// Package core は、取得・解析・履歴記録をまとめるリーダー本体を実装します。
package core

import (
	"fmt"
	"time"
)

// AppState はリーダーの活動状態を表すenumです。
type AppState int

const (
	StateIdle     AppState = iota // アイドル
	StateFetching                 // 取得中
	StateWatching                 // 監視中
)

// String は AppState を人間可読な文字列に変換します。
func (s AppState) String() string {
	switch s {
	case StateIdle:
		return "アイドル"
	case StateFetching:
		return "取得中"
	case StateWatching:
		return "監視中"
	default:
		return "不明"
	}
}

// SessionStats はセッション統計情報です。
type SessionStats struct {
	StartTime       time.Time `json:"startTime"`
	PagesFetched    int       `json:"pagesFetched"`
	FetchFailures   int       `json:"fetchFailures"`
	ParseFailures   int       `json:"parseFailures"`
	HistoryRecorded int       `json:"historyRecorded"`
	BytesFetched    int64     `json:"bytesFetched"`
}

// FormatSessionInfo はセッション統計情報を1行の文字列にフォーマットします。
func (s SessionStats) FormatSessionInfo() string {
	uptime := time.Since(s.StartTime)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60

	sizeKB := float64(s.BytesFetched) / 1024

	return fmt.Sprintf("起動: %dh%dm | ページ: %d | 取得失敗: %d | 解析失敗: %d | 履歴: %d | %.1fKB",
		hours, minutes, s.PagesFetched, s.FetchFailures, s.ParseFailures, s.HistoryRecorded, sizeKB)
}
