package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrStructureMissing は、想定した要素や属性が文書に存在しない場合のエラーです。
	ErrStructureMissing = errors.New("必要な要素が見つかりません")
	// ErrPatternMismatch は、固定書式のテキストが正規表現に一致しない場合のエラーです。
	ErrPatternMismatch = errors.New("書式が一致しません")
	// ErrAlignment は、ユーザー情報と投稿の並びを対応付けられない場合のエラーです。
	ErrAlignment = errors.New("ユーザー情報と投稿を対応付けられません")
)

// FieldError は、ツールチップ等の行書式テキストのうち、どのフィールドで失敗したかを保持します。
type FieldError struct {
	Field string
	Line  string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("フィールド '%s' の解析に失敗しました (line=%q): %v", e.Field, e.Line, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func missing(what string) error {
	return fmt.Errorf("%s: %w", what, ErrStructureMissing)
}
