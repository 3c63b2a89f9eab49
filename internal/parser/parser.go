// Package parser は、SteamCNフォーラムのHTMLページをスレッドのレコードに変換します。
//
// 対象はトップページ（バナー・注目・最新・人気の4セクション）とスレッドページの
// 2種類の固定レイアウトのみです。レイアウトが変わった場合はエラーを返し、
// 部分的な結果は返しません。Parser は状態を持たないため、独立した入力に対して
// 複数のgoroutineから同時に使用できます。
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL は、相対URLの解決とアバターURLの生成に使うフォーラムのドメインです。
const DefaultBaseURL = "https://steamcn.com"

const (
	avatarSmall  = "small"
	avatarMiddle = "middle"
)

// tidPattern は、"t476291-1-1" と "forum.php?mod=viewthread&tid=476291" の両方に一致します。
var tidPattern = regexp.MustCompile(`t(?:id=)?(\d+)`)

// Parser は、フォーラムのHTMLを解析します。
type Parser struct {
	baseURL    string
	normalizer *normalizer
}

// New は、指定したベースURLのParserを返します。空文字の場合は DefaultBaseURL を使います。
func New(baseURL string) *Parser {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Parser{
		baseURL:    baseURL,
		normalizer: newNormalizer(baseURL),
	}
}

// BaseURL は、このParserが使うベースURLを返します。
func (p *Parser) BaseURL() string {
	return p.baseURL
}

// AvatarURL は、UIDからアバター画像のURLを合成します。
func (p *Parser) AvatarURL(uid int, size string) string {
	return fmt.Sprintf("%s/uc_server/avatar.php?uid=%d&size=%s", p.baseURL, uid, size)
}

// ThreadURL は、href属性をフォーラムの絶対URLに変換します。
func (p *Parser) ThreadURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return p.baseURL + "/" + strings.TrimPrefix(href, "/")
}

// ParseTID は、URLパス中の t<数字>（または tid=<数字>）からスレッドIDを取り出します。
func ParseTID(href string) (int, error) {
	m := tidPattern.FindStringSubmatch(href)
	if m == nil {
		return 0, fmt.Errorf("スレッドIDが見つかりません (href=%q): %w", href, ErrPatternMismatch)
	}
	tid, err := strconv.Atoi(m[1])
	if err != nil || tid <= 0 {
		return 0, fmt.Errorf("スレッドIDが不正です (href=%q): %w", href, ErrPatternMismatch)
	}
	return tid, nil
}

func newDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("HTMLの解析に失敗しました: %w", err)
	}
	return doc, nil
}

// requireAttr は、selの先頭要素の属性を返します。存在しなければ構造エラーです。
func requireAttr(sel *goquery.Selection, attr, what string) (string, error) {
	if sel.Length() == 0 {
		return "", missing(what)
	}
	val, ok := sel.First().Attr(attr)
	if !ok {
		return "", missing(fmt.Sprintf("%s の %s 属性", what, attr))
	}
	return val, nil
}
