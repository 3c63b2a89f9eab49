package parser

import (
	"sync"
	"testing"
)

func TestNew_DefaultBaseURL(t *testing.T) {
	if got := New("  ").BaseURL(); got != DefaultBaseURL {
		t.Errorf("既定のベースURLが期待値と異なります: %s", got)
	}
	if got := New("https://steamcn.com///").BaseURL(); got != "https://steamcn.com" {
		t.Errorf("末尾のスラッシュが除去されていません: %s", got)
	}
}

func TestParser_ThreadURL(t *testing.T) {
	p := New("")
	cases := map[string]string{
		"t1-1-1":                 "https://steamcn.com/t1-1-1",
		"/t1-1-1":                "https://steamcn.com/t1-1-1",
		"https://steamcn.com/t2": "https://steamcn.com/t2",
	}
	for in, want := range cases {
		if got := p.ThreadURL(in); got != want {
			t.Errorf("ThreadURL(%q) = %q, 期待値 %q", in, got, want)
		}
	}
}

// 同じParserを複数のgoroutineから同時に使っても結果が変わらないことを確認します。
func TestParser_ConcurrentUse(t *testing.T) {
	p := New("")
	home := readTestdata(t, "home.html")
	thread := readTestdata(t, "thread.html")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := p.ParseHome(home); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := p.ParseThread(thread); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("並行実行中にエラーが発生しました: %v", err)
	}
}
