// Package history は、閲覧したスレッドの履歴をSQLiteに保存します。
// 同じスレッドは1件にまとめられ、最後に閲覧したものが先頭になります。
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SteamCNReader/internal/model"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound は、指定されたスレッドが履歴に存在しない場合に返されます。
var ErrNotFound = errors.New("履歴に該当するスレッドがありません")

// Entry は、履歴の1件です。
type Entry struct {
	Meta     model.ThreadMeta `json:"meta"`
	ViewedAt time.Time        `json:"viewedAt"`
}

// Store は、SQLiteに保存される閲覧履歴です。
type Store struct {
	db         *sql.DB
	maxEntries int
}

// Open は、指定されたパスのデータベースを開き、テーブルを準備します。
// maxEntries が0の場合、履歴の件数は無制限です。
func Open(path string, maxEntries int) (*Store, error) {
	if maxEntries < 0 {
		return nil, fmt.Errorf("maxEntries は0以上である必要があります (実際 %d)", maxEntries)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("SQLiteデータベース '%s' を開けませんでした: %w", path, err)
	}
	// SQLiteは書き込みを直列化する必要がある
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("SQLiteデータベース '%s' に接続できませんでした: %w", path, err)
	}

	s := &Store{db: db, maxEntries: maxEntries}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("履歴テーブルの作成に失敗しました: %w", err)
	}

	log.WithField("path", path).Info("履歴データベースを開きました")
	return s, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tid INTEGER NOT NULL UNIQUE,
			title TEXT NOT NULL,
			meta TEXT NOT NULL,
			viewed_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_seq ON history(seq DESC)`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("クエリの実行に失敗しました: %w", err)
		}
	}
	return nil
}

// Record は、スレッドを最新の履歴として追加します。
// 同じTIDの既存の履歴は削除され、上限を超えた古い履歴は破棄されます。
func (s *Store) Record(ctx context.Context, meta model.ThreadMeta) error {
	if meta.TID <= 0 {
		return fmt.Errorf("履歴に記録するスレッドのTIDが不正です: %d", meta.TID)
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("履歴のシリアライズに失敗しました (tid=%d): %w", meta.TID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE tid = ?`, meta.TID); err != nil {
		return fmt.Errorf("既存の履歴の削除に失敗しました (tid=%d): %w", meta.TID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (tid, title, meta, viewed_at) VALUES (?, ?, ?, ?)`,
		meta.TID, meta.Title, string(data), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("履歴の追加に失敗しました (tid=%d): %w", meta.TID, err)
	}
	if s.maxEntries > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM history WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT ?)`,
			s.maxEntries,
		); err != nil {
			return fmt.Errorf("古い履歴の削除に失敗しました: %w", err)
		}
	}
	return tx.Commit()
}

// List は、最近閲覧した順に最大 limit 件の履歴を返します。limit が0以下なら全件です。
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT meta, viewed_at FROM history ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var raw string
		var entry Entry
		if err := rows.Scan(&raw, &entry.ViewedAt); err != nil {
			return nil, fmt.Errorf("履歴の読み込みに失敗しました: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &entry.Meta); err != nil {
			return nil, fmt.Errorf("履歴のデシリアライズに失敗しました: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Remove は、指定されたTIDの履歴を削除します。
func (s *Store) Remove(ctx context.Context, tid int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE tid = ?`, tid)
	if err != nil {
		return fmt.Errorf("履歴の削除に失敗しました (tid=%d): %w", tid, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("tid=%d: %w", tid, ErrNotFound)
	}
	return nil
}

// Clear は、全ての履歴を削除します。
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("履歴の全削除に失敗しました: %w", err)
	}
	return nil
}

// Close は、データベース接続を閉じます。
func (s *Store) Close() error {
	return s.db.Close()
}
