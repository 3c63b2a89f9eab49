package parser

import (
	"errors"
	"testing"
)

func TestParseTooltip(t *testing.T) {
	raw := `板块: 成就指南
                 作者: k15 (2019-03-27)
                 浏览: 10 / 回复: 2
                 最后: k15 (2019-03-27)`

	tt, err := parseTooltip(raw, true)
	if err != nil {
		t.Fatalf("parseTooltipが予期せぬエラーを返しました: %v", err)
	}
	want := tooltip{Section: "成就指南", Username: "k15", Date: "2019-03-27", Viewed: 10, Replied: 2}
	if tt != want {
		t.Errorf("期待値: %+v, 実際値: %+v", want, tt)
	}
}

func TestParseTooltip_UsernameWithParentheses(t *testing.T) {
	raw := "板块: 综合\n作者: foo (bar) (2020-02-02)\n浏览: 1 / 回复: 0"

	tt, err := parseTooltip(raw, true)
	if err != nil {
		t.Fatalf("parseTooltipが予期せぬエラーを返しました: %v", err)
	}
	if tt.Username != "foo (bar)" || tt.Date != "2020-02-02" {
		t.Errorf("作者行の解析が不正です: %+v", tt)
	}
}

func TestParseTooltip_Errors(t *testing.T) {
	cases := []struct {
		name          string
		raw           string
		requireAuthor bool
		field         string
		want          error
	}{
		{name: "行不足", raw: "板块: a\n作者: b (c)", field: "lines", want: ErrStructureMissing},
		{name: "板块なし", raw: "分区: a\n作者: b (c)\n浏览: 1 / 回复: 1", field: "section", want: ErrPatternMismatch},
		{name: "作者行不一致", raw: "板块: a\n作者 b\n浏览: 1 / 回复: 1", requireAuthor: true, field: "author", want: ErrPatternMismatch},
		{name: "統計行不一致", raw: "板块: a\n作者: b (c)\n浏览 1 回复 1", field: "stats", want: ErrPatternMismatch},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := parseTooltip(c.raw, c.requireAuthor)
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("FieldErrorを期待しましたが、%v でした", err)
			}
			if fe.Field != c.field {
				t.Errorf("フィールドが期待値と異なります。期待値: %s, 実際値: %s", c.field, fe.Field)
			}
			if !errors.Is(err, c.want) {
				t.Errorf("%v でラップされていません: %v", c.want, err)
			}
		})
	}
}

func TestParseTooltip_AuthorOptional(t *testing.T) {
	tt, err := parseTooltip("板块: a\n最后回复\n浏览: 3 / 回复: 4", false)
	if err != nil {
		t.Fatalf("作者行は省略可能であるべきです: %v", err)
	}
	if tt.Username != "" || tt.Date != "" || tt.Viewed != 3 || tt.Replied != 4 {
		t.Errorf("解析結果が不正です: %+v", tt)
	}
}
