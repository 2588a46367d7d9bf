package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// AuditEntry는 운영자가 실행한 게임 명령어 기록 하나입니다.
type AuditEntry struct {
	ID        string    `json:"id"`
	Operator  string    `json:"operator"`
	Command   string    `json:"command"`
	Status    string    `json:"status"` // success, failure, timeout
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditStore는 운영자 명령어 감사 로그 저장소입니다.
type AuditStore interface {
	// Record는 기록 하나를 저장합니다. ID와 시간이 비어있으면 채웁니다.
	Record(ctx context.Context, entry AuditEntry) error
	// Recent는 최신 기록부터 최대 limit개를 반환합니다.
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
	// GetCount는 저장된 레코드 수를 반환합니다.
	GetCount() (int, error)
	// Cleanup은 오래된 레코드를 정리합니다 (retentionDays일 이전).
	Cleanup(retentionDays int) (int, error)
	// Close는 DB 연결을 닫습니다.
	Close() error
}

// SQLiteAuditStore는 SQLite 기반 AuditStore 구현입니다.
type SQLiteAuditStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// NewSQLiteAuditStore는 새로운 SQLite 기반 감사 로그 저장소를 생성합니다.
// dbPath에 ":memory:"를 주면 메모리 DB를 사용합니다.
func NewSQLiteAuditStore(dbPath string) (*SQLiteAuditStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("DB 열기 실패: %w", err)
	}
	// 메모리 DB는 연결마다 따로 생기므로 연결을 하나로 고정
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS command_audit (
		id TEXT PRIMARY KEY,
		operator TEXT NOT NULL,
		command TEXT NOT NULL,
		status TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_created_at ON command_audit(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("테이블 생성 실패: %w", err)
	}

	return &SQLiteAuditStore{
		db:   db,
		path: dbPath,
	}, nil
}

// Record는 기록 하나를 저장합니다.
func (s *SQLiteAuditStore) Record(ctx context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO command_audit (id, operator, command, status, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		entry.ID, entry.Operator, entry.Command, entry.Status, entry.Detail, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("삽입 실패: %w", err)
	}

	return nil
}

// Recent는 최신 기록부터 최대 limit개를 반환합니다.
func (s *SQLiteAuditStore) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, operator, command, status, detail, created_at FROM command_audit ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("조회 실패: %w", err)
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0, limit)
	for rows.Next() {
		var e AuditEntry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Operator, &e.Command, &e.Status, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("행 읽기 실패: %w", err)
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// GetCount는 저장된 레코드 수를 반환합니다.
func (s *SQLiteAuditStore) GetCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM command_audit").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("카운트 조회 실패: %w", err)
	}

	return count, nil
}

// Cleanup은 오래된 레코드를 정리합니다.
func (s *SQLiteAuditStore) Cleanup(retentionDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays).UTC()

	result, err := s.db.Exec("DELETE FROM command_audit WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("정리 실패: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("삭제 개수 조회 실패: %w", err)
	}

	return int(deleted), nil
}

// Close는 DB 연결을 닫습니다.
func (s *SQLiteAuditStore) Close() error {
	return s.db.Close()
}
