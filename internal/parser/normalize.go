package parser

import (
	"regexp"
	"strings"
)

var (
	xmlnsPattern       = regexp.MustCompile(`\sxmlns="http://www\.w3\.org/1999/xhtml"`)
	lineBreakRun       = regexp.MustCompile(`(?:<br\s*/?>\s*){2,}`)
	relativeURLPattern = regexp.MustCompile(`(src|href)="(forum\.php|static/)`)
	fontSizePattern    = regexp.MustCompile(`(<font\b[^>]*\bsize=)"7"`)
	steamWidgetPattern = regexp.MustCompile(`<iframe src="https://store\.steampowered\.com/widget/\d+/" style="border:none;height:190px;width:100%;max-width:646px;"></iframe>`)

	newlineRemover = strings.NewReplacer("\r", "", "\n", "")
)

const (
	collapsedLineBreaks = "<br/><br/>"
	brokenRed           = `color="#ff00"`
	fixedRed            = `color=#ff0000`
)

// normalizer は、投稿本文のHTML断片を書き換えます。各手順は失敗しません。
type normalizer struct {
	relativeURLReplacement string
}

func newNormalizer(baseURL string) *normalizer {
	return &normalizer{
		relativeURLReplacement: `${1}="` + strings.ReplaceAll(baseURL, "$", "$$") + `/${2}`,
	}
}

// Normalize は、投稿本文の内部HTMLを表示用に整えます。
// 手順の順序は固定で、正規化済みの文字列に再度適用しても結果は変わりません。
func (p *Parser) Normalize(fragment string) string {
	return p.normalizer.normalize(fragment)
}

func (n *normalizer) normalize(s string) string {
	s = xmlnsPattern.ReplaceAllString(s, "")
	s = newlineRemover.Replace(s)
	s = lineBreakRun.ReplaceAllString(s, collapsedLineBreaks)
	s = relativeURLPattern.ReplaceAllString(s, n.relativeURLReplacement)
	// クライアントの描画は size 6 までしか対応していない
	s = fontSizePattern.ReplaceAllString(s, `${1}"6"`)
	s = strings.ReplaceAll(s, brokenRed, fixedRed)
	s = steamWidgetPattern.ReplaceAllString(s, "")
	// ウィジェットを除去すると改行の連続が新たにできることがある
	s = lineBreakRun.ReplaceAllString(s, collapsedLineBreaks)
	return strings.TrimSpace(s)
}
