// Package adapter は、サイト固有の処理を抽象化するインターフェースと、
// その具体的な実装を提供します。Discuz系フォーラムごとの差異
// (URL構成、文字コード、Cookie) はアダプタに閉じ込めます。
package adapter

import (
	"SteamCNReader/internal/model"
	"SteamCNReader/internal/network"
)

// SiteAdapter は、サイト固有の処理を抽象化するインターフェースです。
type SiteAdapter interface {
	// Prepare は、HTTPリクエストの前にサイト固有の準備(Cookie設定など)を行います。
	Prepare(client *network.Client) error
	// BuildHomeURL は、トップページの完全なURLを返します。
	BuildHomeURL() string
	// BuildThreadURL は、スレッドの指定ページのURLを返します。ページは1始まりです。
	BuildThreadURL(tid, page int) (string, error)
	ParseHome(htmlBody []byte) (*model.HomeLists, error)
	ParseThread(htmlBody []byte) (*model.Thread, error)
}
