package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// スレッドリンクのtitle属性は次の行書式になっています。
//
//	板块: 成就指南
//	作者: k15 (2019-03-27)
//	浏览: 0 / 回复: 0
//	最后: k15 (2019-03-27)
const (
	sectionPrefix = "板块: "
	linesRequired = 3
)

var (
	authorLinePattern = regexp.MustCompile(`^作者:\s*(.+?)\s*\(([^()]*)\)\s*$`)
	statsLinePattern  = regexp.MustCompile(`浏览:\s*(\d+)\s*/\s*回复:\s*(\d+)`)
)

// tooltip は、title属性から取り出したフィールドです。
type tooltip struct {
	Section  string
	Username string
	Date     string
	Viewed   int
	Replied  int
}

// parseTooltip は、行分割・固定プレフィックス除去・正規表現による型変換の順で
// title属性を解析します。requireAuthor が false の場合、作者行が一致しなくても
// エラーにはせず、日付も空のままにします。
func parseTooltip(raw string, requireAuthor bool) (tooltip, error) {
	var tt tooltip

	lines := strings.Split(strings.TrimSpace(raw), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	if len(lines) < linesRequired {
		return tt, &FieldError{Field: "lines", Line: raw, Err: ErrStructureMissing}
	}

	section, ok := strings.CutPrefix(lines[0], sectionPrefix)
	if !ok {
		return tt, &FieldError{Field: "section", Line: lines[0], Err: ErrPatternMismatch}
	}
	tt.Section = strings.TrimSpace(section)

	if m := authorLinePattern.FindStringSubmatch(lines[1]); m != nil {
		tt.Username = m[1]
		tt.Date = m[2]
	} else if requireAuthor {
		return tt, &FieldError{Field: "author", Line: lines[1], Err: ErrPatternMismatch}
	}

	m := statsLinePattern.FindStringSubmatch(lines[2])
	if m == nil {
		return tt, &FieldError{Field: "stats", Line: lines[2], Err: ErrPatternMismatch}
	}
	var err error
	if tt.Viewed, err = strconv.Atoi(m[1]); err != nil {
		return tt, &FieldError{Field: "viewed", Line: lines[2], Err: err}
	}
	if tt.Replied, err = strconv.Atoi(m[2]); err != nil {
		return tt, &FieldError{Field: "replied", Line: lines[2], Err: err}
	}

	return tt, nil
}
