// Package model は、フォーラムページから抽出されたスレッド情報のレコード型を定義します。
// いずれも解析ごとに生成され、呼び出し元に所有権が移る一時的な値です。
package model

// Author は、スレッド一覧に表示される投稿者情報です。
// バナー項目にはUIDが無いため、UIDとAvatarは省略可能です。
type Author struct {
	Username string `json:"username"`
	UID      int    `json:"uid,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Stats は、閲覧数と返信数です。
type Stats struct {
	Viewed  int `json:"viewed"`
	Replied int `json:"replied"`
}

// ThreadMeta は、一覧ページから抽出されたスレッドの概要です。
// TIDは履歴ストアでの重複排除キーとして使われます。
type ThreadMeta struct {
	Title    string `json:"title"`
	TID      int    `json:"tid"`
	URL      string `json:"url"`
	Image    string `json:"image,omitempty"` // バナーのみ
	Section  string `json:"section"`
	PostTime string `json:"postTime,omitempty"`
	Author   Author `json:"author"`
	Stats    Stats  `json:"stats"`
}

// HomeLists は、トップページの4つのセクションです。
type HomeLists struct {
	Banner []ThreadMeta `json:"bannerThreadList"`
	Index  []ThreadMeta `json:"indexThreadList"`
	New    []ThreadMeta `json:"newThreadList"`
	Hot    []ThreadMeta `json:"hotThreadList"`
}

// User は、スレッドページの投稿者です。全フィールド必須です。
type User struct {
	Username string `json:"username"`
	UID      int    `json:"uid"`
	Avatar   string `json:"avatar"`
}

// Reply は、スレッドの返信1件です。
type Reply struct {
	User    User   `json:"user"`
	Content string `json:"content"`
	Time    string `json:"time"`
}

// Thread は、スレッドページ全体の解析結果です。
// Repliesは文書順で、先頭の投稿（スレッド本文）は含みません。
type Thread struct {
	Title   string  `json:"title"`
	TID     int     `json:"tid"`
	Time    string  `json:"time"`
	Viewed  int     `json:"viewed"`
	Replied int     `json:"replied"`
	Content string  `json:"content"`
	Author  User    `json:"author"`
	Replies []Reply `json:"replies"`
}

// Meta は、スレッド詳細から履歴用の概要を組み立てます。
// セクション名はスレッドページに無いため空になります。
func (t *Thread) Meta(url string) ThreadMeta {
	return ThreadMeta{
		Title:    t.Title,
		TID:      t.TID,
		URL:      url,
		PostTime: t.Time,
		Author: Author{
			Username: t.Author.Username,
			UID:      t.Author.UID,
			Avatar:   t.Author.Avatar,
		},
		Stats: Stats{Viewed: t.Viewed, Replied: t.Replied},
	}
}
