package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"SteamCNReader/internal/model"

	"github.com/PuerkitoBio/goquery"
)

var (
	// 例: "看123|回45"
	threadStatsPattern = regexp.MustCompile(`看(\d+)\|回(\d+)`)
	uidPattern         = regexp.MustCompile(`uid=(\d+)`)
)

// userInfo は、投稿1件分のユーザー情報ブロックの内容です。
type userInfo struct {
	model.User
	Time string
}

// ParseThread は、スレッドページのHTMLを解析します。
//
// ユーザー情報ブロック (.bm_user) と投稿本文 (.postmessage) は別々に文書順で集め、
// 同じ添字どうしを対応付けます。添字0がスレッド本文、1以降が返信で、
// 返信数は短い方の件数から1を引いた数になります。
func (p *Parser) ParseThread(html string) (*model.Thread, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	content := doc.Find(".bm").First()
	if content.Length() == 0 {
		return nil, missing(".bm (本文コンテナ)")
	}

	subject := content.Find("#thread_subject").First()
	href, err := requireAttr(subject, "href", "#thread_subject")
	if err != nil {
		return nil, err
	}
	tid, err := ParseTID(href)
	if err != nil {
		return nil, err
	}

	viewed, replied, err := parseThreadStats(content)
	if err != nil {
		return nil, err
	}

	users, err := p.collectUsers(doc)
	if err != nil {
		return nil, err
	}
	posts := p.collectPosts(doc)

	if len(users) == 0 {
		return nil, fmt.Errorf("ユーザー情報が0件です: %w", ErrAlignment)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("投稿本文が0件です: %w", ErrAlignment)
	}

	n := min(len(users), len(posts))
	replies := make([]model.Reply, 0, n-1)
	for i := 1; i < n; i++ {
		replies = append(replies, model.Reply{
			User:    users[i].User,
			Content: posts[i],
			Time:    users[i].Time,
		})
	}

	return &model.Thread{
		Title:   strings.TrimSpace(subject.Text()),
		TID:     tid,
		Time:    users[0].Time,
		Viewed:  viewed,
		Replied: replied,
		Content: posts[0],
		Author:  users[0].User,
		Replies: replies,
	}, nil
}

// parseThreadStats は、本文コンテナ内の .xg1 要素のうち "看<数>|回<数>" に一致する
// 最初のものから閲覧数と返信数を取り出します。
func parseThreadStats(content *goquery.Selection) (int, int, error) {
	candidates := content.Find(".xg1")
	if candidates.Length() == 0 {
		return 0, 0, missing(".xg1 (統計情報)")
	}

	var m []string
	candidates.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m = threadStatsPattern.FindStringSubmatch(s.Text())
		return m == nil
	})
	if m == nil {
		return 0, 0, fmt.Errorf("統計情報 %q: %w", strings.TrimSpace(candidates.First().Text()), ErrPatternMismatch)
	}

	viewed, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, fmt.Errorf("閲覧数 %q: %w", m[1], ErrPatternMismatch)
	}
	replied, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, fmt.Errorf("返信数 %q: %w", m[2], ErrPatternMismatch)
	}
	return viewed, replied, nil
}

func (p *Parser) collectUsers(doc *goquery.Document) ([]userInfo, error) {
	blocks := doc.Find(".bm_user")
	users := make([]userInfo, 0, blocks.Length())
	for i := range blocks.Nodes {
		u, err := p.parseUserInfo(blocks.Eq(i))
		if err != nil {
			return nil, fmt.Errorf("%d番目のユーザー情報: %w", i, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (p *Parser) parseUserInfo(block *goquery.Selection) (userInfo, error) {
	var u userInfo

	link := block.Find("a").First()
	href, err := requireAttr(link, "href", "ユーザーリンク")
	if err != nil {
		return u, err
	}
	m := uidPattern.FindStringSubmatch(href)
	if m == nil {
		return u, fmt.Errorf("UIDが見つかりません (href=%q): %w", href, ErrPatternMismatch)
	}
	uid, err := strconv.Atoi(m[1])
	if err != nil {
		return u, fmt.Errorf("UIDが不正です (href=%q): %w", href, ErrPatternMismatch)
	}

	postedAt := block.Find(".xs0.xg1").First()
	if postedAt.Length() == 0 {
		postedAt = block.Siblings().Filter(".xs0.xg1").First()
	}
	if postedAt.Length() == 0 {
		return u, missing(".xs0.xg1 (投稿日時)")
	}

	u.Username = strings.TrimSpace(link.Text())
	u.UID = uid
	u.Avatar = p.AvatarURL(uid, avatarMiddle)
	u.Time = strings.TrimSpace(postedAt.Text())
	return u, nil
}

// collectPosts は、全ての投稿本文を文書順に正規化済みHTMLとして返します。
func (p *Parser) collectPosts(doc *goquery.Document) []string {
	blocks := doc.Find(".postmessage")
	posts := make([]string, 0, blocks.Length())
	blocks.Each(func(_ int, post *goquery.Selection) {
		UnwrapImageLinks(post)
		// Html() は html.Render のエラーのみを返し、メモリ上の木では発生しない
		inner, _ := post.Html()
		posts = append(posts, p.Normalize(inner))
	})
	return posts
}
