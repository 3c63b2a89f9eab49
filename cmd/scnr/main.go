package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SteamCNReader/internal/adapter"
	"SteamCNReader/internal/config"
	"SteamCNReader/internal/core"
	"SteamCNReader/internal/history"
	"SteamCNReader/internal/model"
	"SteamCNReader/internal/network"
	"SteamCNReader/internal/server"

	log "github.com/sirupsen/logrus"
)

// コマンドラインフラグ
var (
	configFile  = flag.String("config", "config.json", "設定ファイルのパス (.json / .yaml)")
	envFile     = flag.String("env", ".env", "環境変数を読み込む.envファイルのパス")
	serveMode   = flag.Bool("serve", false, "JSON APIサーバーを起動します")
	homeMode    = flag.Bool("home", false, "トップページの各リストをJSONで出力します")
	threadID    = flag.Int("thread", 0, "指定したスレッドをJSONで出力します")
	threadPage  = flag.Int("page", 1, "-thread で取得するページ番号")
	watchMode   = flag.Bool("watch", false, "トップページを監視し、新しいスレッドを出力します")
	historyList = flag.Int("history", -1, "最近閲覧したスレッドを指定件数だけ出力します (0は全件)")
)

// logFile は、ログのファイル出力先です。
var logFile *os.File

// main関数はアプリケーションのエントリーポイントです。
func main() {
	flag.Parse()
	if !*serveMode && !*watchMode && !*homeMode && *threadID == 0 && *historyList < 0 {
		flag.Usage()
		os.Exit(2)
	}

	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := config.LoadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("%v", err)
	}
	cfg, err := config.LoadOrDefault(*configFile)
	if err != nil {
		log.Fatalf("設定ファイルの読み込みに失敗しました: %v", err)
	}
	if err := setupLogger(cfg); err != nil {
		log.Warnf("ログ設定の適用に失敗しました: %v", err)
	}
	defer func() {
		if logFile != nil {
			logFile.Close()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("終了シグナルを受信しました。シャットダウンを開始します...")
		cancel()
	}()

	reader, closeReader, err := newReader(cfg)
	if err != nil {
		log.Fatalf("初期化に失敗しました: %v", err)
	}
	defer closeReader()

	switch {
	case *serveMode:
		err = runServer(ctx, cfg, reader)
	case *watchMode:
		err = runWatch(ctx, cfg, reader)
	case *homeMode:
		err = runHome(ctx, reader)
	case *threadID != 0:
		err = runThread(ctx, reader, *threadID, *threadPage)
	default:
		err = runHistory(ctx, reader, *historyList)
	}
	if err != nil {
		log.Errorf("%v", err)
		closeReader()
		os.Exit(1)
	}
	log.Debug("アプリケーションが正常に終了しました。")
}

// newReader は、設定からクライアント、アダプタ、履歴ストアを組み立てます。
func newReader(cfg *config.Config) (*core.Reader, func(), error) {
	client, err := network.NewClient(cfg.Network)
	if err != nil {
		return nil, nil, fmt.Errorf("ネットワーククライアントの初期化に失敗しました: %w", err)
	}
	site, err := adapter.GetAdapter(cfg.Site.Adapter, cfg.Site)
	if err != nil {
		return nil, nil, fmt.Errorf("サイトアダプタの取得に失敗しました: %w", err)
	}

	var store *history.Store
	closeFn := func() {}
	if cfg.History.DatabasePath != "" {
		store, err = history.Open(cfg.History.DatabasePath, cfg.History.MaxEntries)
		if err != nil {
			return nil, nil, err
		}
		closeFn = func() {
			if err := store.Close(); err != nil {
				log.Warnf("履歴データベースのクローズに失敗しました: %v", err)
			}
		}
	}

	reader, err := core.NewReader(client, site, store)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return reader, closeFn, nil
}

// setupLogger はログレベルと出力先を設定します。
// EnableLogFile が true の場合、標準エラー出力とファイルの両方に出力します。
func setupLogger(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("不明なログレベル '%s' です: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	if !cfg.EnableLogFile {
		return nil
	}
	path := cfg.LogFilePath
	if path == "" {
		path = fmt.Sprintf("scnr_%s.log", time.Now().Format("2006-01-02"))
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("ログファイル '%s' を開けませんでした: %w", path, err)
	}
	logFile = f
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	log.Infof("ログ出力をファイル '%s' に開始しました", path)
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, reader *core.Reader) error {
	srv := server.New(reader, cfg.Server.ListenAddr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("APIサーバーの停止に失敗しました: %w", err)
	}
	log.Info(reader.Stats().FormatSessionInfo())
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, reader *core.Reader) error {
	interval := time.Duration(cfg.Server.WatchIntervalMillis) * time.Millisecond
	filter := core.WatchFilter{
		Keyword:         cfg.Server.WatchKeyword,
		ExcludeKeywords: cfg.Server.WatchExcludeKeywords,
	}
	log.Infof("監視モードを開始します (間隔: %v)", interval)

	var printErr error
	err := reader.Watch(ctx, interval, filter, func(metas []model.ThreadMeta) {
		for _, meta := range metas {
			if err := printJSON(meta); err != nil && printErr == nil {
				printErr = err
				return
			}
		}
	})
	if err != nil {
		return err
	}
	log.Info(reader.Stats().FormatSessionInfo())
	return printErr
}

func runHome(ctx context.Context, reader *core.Reader) error {
	lists, err := reader.Home(ctx)
	if err != nil {
		return err
	}
	return printJSON(lists)
}

func runThread(ctx context.Context, reader *core.Reader, tid, page int) error {
	thread, err := reader.Thread(ctx, tid, page)
	if err != nil {
		return err
	}
	return printJSON(thread)
}

func runHistory(ctx context.Context, reader *core.Reader, limit int) error {
	store := reader.History()
	if store == nil {
		return errors.New("履歴は無効です。history.database_path を設定してください")
	}
	entries, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	return printJSON(entries)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("JSONの出力に失敗しました: %w", err)
	}
	return nil
}
