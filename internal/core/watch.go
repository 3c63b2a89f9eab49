package core

import (
	"context"
	"strings"
	"time"

	"SteamCNReader/internal/model"

	log "github.com/sirupsen/logrus"
)

// WatchFilter は、監視で通知するスレッドをタイトルで絞り込みます。
type WatchFilter struct {
	Keyword         string
	ExcludeKeywords []string
}

func (f WatchFilter) match(title string) bool {
	if f.Keyword != "" && !strings.Contains(title, f.Keyword) {
		return false
	}
	for _, ex := range f.ExcludeKeywords {
		if ex != "" && strings.Contains(title, ex) {
			return false
		}
	}
	return true
}

// Watch は、interval ごとにトップページを確認し、まだ見ていないスレッドを fn に渡します。
// 最初に成功した確認で見つかったスレッドは既知として扱い、通知しません。
// 取得や解析の失敗はログに記録され、次の周期で再試行されます。
// ctx がキャンセルされると nil を返します。
func (r *Reader) Watch(ctx context.Context, interval time.Duration, filter WatchFilter, fn func([]model.ThreadMeta)) error {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	r.setWatching(true)
	defer r.setWatching(false)

	seen := make(map[int]bool)
	seeded := false
	for cycle := 0; ; cycle++ {
		if cycle > 0 {
			log.Debugf("次のチェックまで %v 待機します...", interval)
			select {
			case <-ctx.Done():
				log.Info("シャットダウンシグナルを受信しました。監視を終了します。")
				return nil
			case <-time.After(interval):
			}
		}

		lists, err := r.Home(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Errorf("トップページの確認に失敗しました: %v。次のサイクルで再試行します。", err)
			continue
		}

		fresh := unseenThreads(lists, seen, filter)
		if !seeded {
			log.Infof("監視を開始しました (既知のスレッド: %d件)", len(seen))
			seeded = true
			continue
		}
		if len(fresh) == 0 {
			log.Debug("新しいスレッドは見つかりませんでした。")
			continue
		}
		log.Infof("%d件の新しいスレッドが見つかりました。", len(fresh))
		fn(fresh)
	}
}

// unseenThreads は、新着・人気・おすすめの各リストから未見のスレッドを集め、seen に追加します。
// バナーは告知用のため対象外です。
func unseenThreads(lists *model.HomeLists, seen map[int]bool, filter WatchFilter) []model.ThreadMeta {
	var fresh []model.ThreadMeta
	for _, list := range [][]model.ThreadMeta{lists.New, lists.Hot, lists.Index} {
		for _, meta := range list {
			if seen[meta.TID] {
				continue
			}
			seen[meta.TID] = true
			if filter.match(meta.Title) {
				fresh = append(fresh, meta)
			}
		}
	}
	return fresh
}

func (r *Reader) setWatching(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watching = on
}
