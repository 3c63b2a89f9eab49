package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SteamCNReader/internal/adapter"
	"SteamCNReader/internal/history"
	"SteamCNReader/internal/model"
	"SteamCNReader/internal/network"

	log "github.com/sirupsen/logrus"
)

// ErrInvalidTID は、スレッドIDが正の整数でない場合に返されます。
var ErrInvalidTID = errors.New("スレッドIDは正の整数である必要があります")

// Reader は、ページの取得、解析、閲覧履歴の記録をまとめます。
// 複数のgoroutineから同時に使用できます。
type Reader struct {
	client  *network.Client
	site    adapter.SiteAdapter
	history *history.Store // nilの場合は履歴を記録しない

	mu       sync.Mutex
	stats    SessionStats
	inFlight int
	watching bool
}

// NewReader は、Readerを初期化します。store は nil でも構いません。
func NewReader(client *network.Client, site adapter.SiteAdapter, store *history.Store) (*Reader, error) {
	if err := site.Prepare(client); err != nil {
		return nil, fmt.Errorf("サイト固有設定の適用に失敗しました: %w", err)
	}
	return &Reader{
		client:  client,
		site:    site,
		history: store,
		stats:   SessionStats{StartTime: time.Now()},
	}, nil
}

// History は、設定された履歴ストアを返します。未設定の場合は nil です。
func (r *Reader) History() *history.Store {
	return r.history
}

// Stats は、現在のセッション統計のコピーを返します。
func (r *Reader) Stats() SessionStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// State は、現在の活動状態を返します。
func (r *Reader) State() AppState {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.inFlight > 0:
		return StateFetching
	case r.watching:
		return StateWatching
	default:
		return StateIdle
	}
}

// Home は、トップページを取得して4つのリストを返します。
func (r *Reader) Home(ctx context.Context) (*model.HomeLists, error) {
	homeURL := r.site.BuildHomeURL()
	body, err := r.fetch(ctx, homeURL)
	if err != nil {
		return nil, fmt.Errorf("トップページの取得に失敗しました (url=%s): %w", homeURL, err)
	}

	lists, err := r.site.ParseHome(body)
	if err != nil {
		r.count(func(s *SessionStats) { s.ParseFailures++ })
		return nil, fmt.Errorf("トップページの解析に失敗しました (size=%d bytes): %w", len(body), err)
	}
	return lists, nil
}

// Thread は、スレッドの指定ページを取得して解析します。
// 成功した場合、履歴ストアが設定されていればスレッドの概要を記録します。
func (r *Reader) Thread(ctx context.Context, tid, page int) (*model.Thread, error) {
	if tid <= 0 {
		return nil, fmt.Errorf("tid=%d: %w", tid, ErrInvalidTID)
	}
	if page < 1 {
		page = 1
	}
	threadURL, err := r.site.BuildThreadURL(tid, page)
	if err != nil {
		return nil, err
	}

	body, err := r.fetch(ctx, threadURL)
	if err != nil {
		return nil, fmt.Errorf("スレッドの取得に失敗しました (tid=%d, page=%d): %w", tid, page, err)
	}

	thread, err := r.site.ParseThread(body)
	if err != nil {
		r.count(func(s *SessionStats) { s.ParseFailures++ })
		return nil, fmt.Errorf("スレッドの解析に失敗しました (tid=%d, page=%d): %w", tid, page, err)
	}

	if r.history != nil {
		// 履歴の記録失敗は閲覧そのものを妨げない
		if err := r.history.Record(ctx, thread.Meta(threadURL)); err != nil {
			log.WithField("tid", tid).Warnf("履歴の記録に失敗しました: %v", err)
		} else {
			r.count(func(s *SessionStats) { s.HistoryRecorded++ })
		}
	}
	return thread, nil
}

func (r *Reader) fetch(ctx context.Context, url string) ([]byte, error) {
	r.mu.Lock()
	r.inFlight++
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	start := time.Now()
	body, err := r.client.Get(ctx, url)
	if err != nil {
		r.count(func(s *SessionStats) { s.FetchFailures++ })
		return nil, err
	}
	r.count(func(s *SessionStats) {
		s.PagesFetched++
		s.BytesFetched += int64(len(body))
	})
	log.WithFields(log.Fields{
		"url":     url,
		"bytes":   len(body),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("ページを取得しました")
	return body, nil
}

func (r *Reader) count(update func(*SessionStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	update(&r.stats)
}
