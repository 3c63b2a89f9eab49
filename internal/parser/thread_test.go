package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParser_ParseThread(t *testing.T) {
	// Arrange
	html := readTestdata(t, "thread.html")
	p := New("")

	// Act
	thread, err := p.ParseThread(html)

	// Assert
	if err != nil {
		t.Fatalf("ParseThreadが予期せぬエラーを返しました: %v", err)
	}
	if thread.TID != 476291 {
		t.Errorf("TIDが期待値と異なります。期待値: 476291, 実際値: %d", thread.TID)
	}
	if thread.Title != "杀手2新狙击图《鬼港》成就及部分挑战指南" {
		t.Errorf("タイトルが不正です: %q", thread.Title)
	}
	if thread.Viewed != 123 || thread.Replied != 45 {
		t.Errorf("統計が期待値と異なります。期待値: 123/45, 実際値: %d/%d", thread.Viewed, thread.Replied)
	}
	if thread.Time != "2019-3-27 20:15" {
		t.Errorf("投稿日時が不正です: %q", thread.Time)
	}
	if thread.Author.Username != "k15" || thread.Author.UID != 459867 {
		t.Errorf("作者が不正です: %+v", thread.Author)
	}
	if thread.Author.Avatar != "https://steamcn.com/uc_server/avatar.php?uid=459867&size=middle" {
		t.Errorf("作者のアバターURLが不正です: %q", thread.Author.Avatar)
	}

	wantContent := `<p>Hello</p><br/><br/>world<img src="https://steamcn.com/forum.php?mod=attachment&amp;aid=1"/>`
	if thread.Content != wantContent {
		t.Errorf("本文が期待値と異なります。\n期待値: %s\n実際値: %s", wantContent, thread.Content)
	}

	if len(thread.Replies) != 2 {
		t.Fatalf("返信数が期待値と異なります。期待値: 2, 実際値: %d", len(thread.Replies))
	}
	first := thread.Replies[0]
	if first.User.Username != "admin" || first.User.UID != 12 || first.Time != "2019-3-27 21:00" {
		t.Errorf("返信1の投稿者が不正です: %+v", first)
	}
	if want := `thanks<br/><br/><font size="6" color=#ff0000>big</font>`; first.Content != want {
		t.Errorf("返信1の本文が期待値と異なります。\n期待値: %s\n実際値: %s", want, first.Content)
	}
	second := thread.Replies[1]
	if second.User.UID != 300001 {
		t.Errorf("返信2の投稿者が不正です: %+v", second.User)
	}
	if want := `see <img src="https://steamcn.com/static/image/smiley/1.gif"/>`; second.Content != want {
		t.Errorf("返信2の本文が期待値と異なります。\n期待値: %s\n実際値: %s", want, second.Content)
	}
}

// threadPage は、ユーザー情報 users 件と投稿 posts 件を持つスレッドページを生成します。
func threadPage(users, posts int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="bm">
<a id="thread_subject" href="t99-1-1">title</a>
<span class="xg1">看10|回2</span>`)
	for i := 0; i < users; i++ {
		fmt.Fprintf(&b, `<div class="bm_user"><a href="home.php?mod=space&amp;uid=%d">u%d</a><em class="xs0 xg1">day %d</em></div>`, i+1, i, i)
	}
	for i := 0; i < posts; i++ {
		fmt.Fprintf(&b, `<div class="postmessage">post %d</div>`, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func TestParser_ParseThread_Pairing(t *testing.T) {
	p := New("")
	cases := []struct {
		users, posts int
		wantReplies  int
	}{
		{users: 1, posts: 1, wantReplies: 0},
		{users: 3, posts: 3, wantReplies: 2},
		{users: 5, posts: 3, wantReplies: 2},
		{users: 3, posts: 6, wantReplies: 2},
		{users: 10, posts: 10, wantReplies: 9},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("users=%d,posts=%d", c.users, c.posts), func(t *testing.T) {
			thread, err := p.ParseThread(threadPage(c.users, c.posts))
			if err != nil {
				t.Fatalf("ParseThreadが予期せぬエラーを返しました: %v", err)
			}
			if len(thread.Replies) != c.wantReplies {
				t.Fatalf("返信数が期待値と異なります。期待値: %d, 実際値: %d", c.wantReplies, len(thread.Replies))
			}
			if thread.Content != "post 0" || thread.Author.Username != "u0" {
				t.Errorf("本文と作者が添字0に対応していません: %q / %q", thread.Content, thread.Author.Username)
			}
			for i, r := range thread.Replies {
				idx := i + 1
				if r.Content != fmt.Sprintf("post %d", idx) || r.User.Username != fmt.Sprintf("u%d", idx) || r.Time != fmt.Sprintf("day %d", idx) {
					t.Errorf("返信%dの対応が不正です: %+v", idx, r)
				}
			}
		})
	}
}

func TestParser_ParseThread_Faults(t *testing.T) {
	p := New("")
	cases := []struct {
		name string
		html string
		want error
	}{
		{name: "ユーザー情報0件", html: threadPage(0, 3), want: ErrAlignment},
		{name: "投稿0件", html: threadPage(2, 0), want: ErrAlignment},
		{name: "本文コンテナなし", html: `<html><body><div class="bm_user"></div></body></html>`, want: ErrStructureMissing},
		{name: "件名リンクなし", html: `<div class="bm"><span class="xg1">看1|回1</span></div>`, want: ErrStructureMissing},
		{name: "統計要素なし", html: `<div class="bm"><a id="thread_subject" href="t1-1-1">x</a></div>`, want: ErrStructureMissing},
		{name: "統計の書式不一致", html: `<div class="bm"><a id="thread_subject" href="t1-1-1">x</a><span class="xg1">views 1</span></div>`, want: ErrPatternMismatch},
		{name: "件名のTIDなし", html: `<div class="bm"><a id="thread_subject" href="forum.php">x</a><span class="xg1">看1|回1</span></div>`, want: ErrPatternMismatch},
		{
			name: "ユーザーのUIDなし",
			html: `<div class="bm"><a id="thread_subject" href="t1-1-1">x</a><span class="xg1">看1|回1</span>
<div class="bm_user"><a href="home.php?mod=space">x</a><em class="xs0 xg1">d</em></div><div class="postmessage">p</div></div>`,
			want: ErrPatternMismatch,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			thread, err := p.ParseThread(c.html)
			if thread != nil {
				t.Errorf("失敗時にレコードを返してはなりません: %+v", thread)
			}
			if !errors.Is(err, c.want) {
				t.Fatalf("%v を期待しましたが、%v でした", c.want, err)
			}
		})
	}
}

func TestParser_ParseThread_StatsExample(t *testing.T) {
	html := `<div class="bm"><a id="thread_subject" href="t476291-1-1">x</a>
<em class="xs0 xg1">2019-3-27</em><span class="xg1">看123|回45</span>
<div class="bm_user"><a href="?uid=1">a</a><em class="xs0 xg1">d</em></div><div class="postmessage">p</div></div>`

	thread, err := New("").ParseThread(html)
	if err != nil {
		t.Fatalf("ParseThreadが予期せぬエラーを返しました: %v", err)
	}
	if thread.Viewed != 123 || thread.Replied != 45 {
		t.Errorf("統計が期待値と異なります。期待値: 123/45, 実際値: %d/%d", thread.Viewed, thread.Replied)
	}
	if thread.TID != 476291 {
		t.Errorf("TIDが期待値と異なります: %d", thread.TID)
	}
}
