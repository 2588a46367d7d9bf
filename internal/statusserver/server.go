// Package statusserver는 브리지 상태를 조회하는 HTTP 서버입니다.
package statusserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/itsneyoa/bridge-rs-sub000/internal/store"
	"github.com/itsneyoa/bridge-rs-sub000/internal/supervisor"
)

// DefaultRecentLimit는 /status에 포함할 최근 감사 기록 수의 기본값입니다.
const DefaultRecentLimit = 10

// ServerConfig는 상태 서버 설정입니다.
type ServerConfig struct {
	Port        int // 수신 포트
	RecentLimit int // /status에 포함할 최근 감사 기록 수
}

// ConnectionReporter는 게임 연결 상태를 제공합니다.
type ConnectionReporter interface {
	Snapshot() supervisor.Snapshot
}

// QueueReporter는 전송 대기열 길이를 제공합니다.
type QueueReporter interface {
	Len() int
}

// AuditReader는 명령어 감사 기록을 조회합니다.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]store.AuditEntry, error)
	GetCount() (int, error)
}

// Status는 /status 응답 본문입니다.
type Status struct {
	Connection  supervisor.Snapshot `json:"connection"`
	QueueLength int                 `json:"queue_length"`
	Uptime      string              `json:"uptime"`
	Audit       *AuditStatus        `json:"audit,omitempty"`
}

// AuditStatus는 감사 기록 요약입니다.
type AuditStatus struct {
	Count  int                `json:"count"`
	Recent []store.AuditEntry `json:"recent"`
	Error  string             `json:"error,omitempty"`
}

// Server는 /health와 /status를 제공하는 HTTP 서버입니다.
type Server struct {
	config     ServerConfig
	conn       ConnectionReporter
	queue      QueueReporter
	audit      AuditReader
	started    time.Time
	httpServer *http.Server
	logger     *log.Logger
}

// NewServer는 새 상태 서버를 생성합니다. audit이 nil이면 감사 정보는 생략합니다.
func NewServer(config ServerConfig, conn ConnectionReporter, queue QueueReporter, audit AuditReader) *Server {
	if config.RecentLimit <= 0 {
		config.RecentLimit = DefaultRecentLimit
	}

	return &Server{
		config:  config,
		conn:    conn,
		queue:   queue,
		audit:   audit,
		started: time.Now(),
	}
}

// SetLogger는 로거를 설정합니다.
func (s *Server) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Handler는 라우팅이 설정된 http.Handler를 반환합니다.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	return mux
}

// Start는 서버를 시작합니다. 컨텍스트가 취소되면 정상 종료합니다.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if s.logger != nil {
		s.logger.Printf("[STATUS] 🌐 상태 서버 시작: %s", addr)
	}

	// 컨텍스트 취소 시 서버 종료
	go func() {
		<-ctx.Done()
		s.Shutdown(context.Background())
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("상태 서버 시작 실패: %w", err)
	}

	return nil
}

// Shutdown는 서버를 정상 종료합니다.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Println("[STATUS] 상태 서버 종료 중...")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// healthHandler는 헬스체크 엔드포인트입니다.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// statusHandler는 연결 상태, 대기열 길이, 감사 요약을 JSON으로 반환합니다.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := Status{
		Connection:  s.conn.Snapshot(),
		QueueLength: s.queue.Len(),
		Uptime:      time.Since(s.started).Truncate(time.Second).String(),
	}
	if s.audit != nil {
		status.Audit = s.auditStatus(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil && s.logger != nil {
		s.logger.Printf("[STATUS] ❌ 응답 인코딩 실패: %v", err)
	}
}

func (s *Server) auditStatus(ctx context.Context) *AuditStatus {
	result := &AuditStatus{Recent: []store.AuditEntry{}}

	count, err := s.audit.GetCount()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Count = count

	recent, err := s.audit.Recent(ctx, s.config.RecentLimit)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if recent != nil {
		result.Recent = recent
	}
	return result
}
