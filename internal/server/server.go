// Package server は、リーダーの機能をJSON APIとして公開するHTTPサーバーです。
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"SteamCNReader/internal/core"
	"SteamCNReader/internal/history"
	"SteamCNReader/internal/model"
	"SteamCNReader/internal/network"
	"SteamCNReader/internal/parser"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 50

// Server は、gin エンジンと http.Server をまとめたものです。
type Server struct {
	engine *gin.Engine
	server *http.Server
	reader *core.Reader
}

// New は、ルーティングを設定したサーバーを生成します。
func New(reader *core.Reader, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggerMiddleware())

	s := &Server{engine: engine, reader: reader}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:           addr,
		Handler:        engine,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   2 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/home", s.handleHome)
		api.GET("/thread/:tid", s.handleThread)

		api.GET("/history", s.handleListHistory)
		api.POST("/history", s.handleRecordHistory)
		api.DELETE("/history/:tid", s.handleRemoveHistory)
		api.DELETE("/history", s.handleClearHistory)
	}
}

// Handler は、テストなどで直接使うための http.Handler を返します。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start は、サーバーを起動し、Shutdown が呼ばれるまでブロックします。
func (s *Server) Start() error {
	log.Infof("APIサーバーを %s で起動します", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("APIサーバーの起動に失敗しました: %w", err)
	}
	return nil
}

// Shutdown は、処理中のリクエストを待ってからサーバーを停止します。
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("APIサーバーを停止します...")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	stats := s.reader.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"state":   s.reader.State().String(),
		"session": stats.FormatSessionInfo(),
		"stats":   stats,
		"history": s.reader.History() != nil,
	})
}

func (s *Server) handleHome(c *gin.Context) {
	lists, err := s.reader.Home(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (s *Server) handleThread(c *gin.Context) {
	tid, err := strconv.Atoi(c.Param("tid"))
	if err != nil || tid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("不正なスレッドIDです: %q", c.Param("tid"))})
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("不正なページ番号です: %q", c.Query("page"))})
		return
	}

	thread, err := s.reader.Thread(c.Request.Context(), tid, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (s *Server) historyStore(c *gin.Context) *history.Store {
	store := s.reader.History()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "履歴は無効です (history.database_path が未設定)"})
	}
	return store
}

func (s *Server) handleListHistory(c *gin.Context) {
	store := s.historyStore(c)
	if store == nil {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("不正な件数です: %q", c.Query("limit"))})
		return
	}

	entries, err := store.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleRecordHistory(c *gin.Context) {
	store := s.historyStore(c)
	if store == nil {
		return
	}
	var meta model.ThreadMeta
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("無効なリクエストデータです: %v", err)})
		return
	}
	if meta.TID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tid は正の整数である必要があります"})
		return
	}

	if err := store.Record(c.Request.Context(), meta); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded", "tid": meta.TID})
}

func (s *Server) handleRemoveHistory(c *gin.Context) {
	store := s.historyStore(c)
	if store == nil {
		return
	}
	tid, err := strconv.Atoi(c.Param("tid"))
	if err != nil || tid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("不正なスレッドIDです: %q", c.Param("tid"))})
		return
	}

	if err := store.Remove(c.Request.Context(), tid); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleClearHistory(c *gin.Context) {
	store := s.historyStore(c)
	if store == nil {
		return
	}
	if err := store.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondError は、エラーの種類に応じたステータスコードでJSONエラーを返します。
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error":     err.Error(),
		"requestId": c.GetString(requestIDKey),
	})
}

func statusFor(err error) int {
	var httpErr *network.HTTPError
	switch {
	case errors.Is(err, core.ErrInvalidTID):
		return http.StatusBadRequest
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, parser.ErrStructureMissing),
		errors.Is(err, parser.ErrPatternMismatch),
		errors.Is(err, parser.ErrAlignment),
		errors.As(err, &httpErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
