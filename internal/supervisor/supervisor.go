// Package supervisor는 게임 연결의 수명 주기를 관리합니다.
//
// Connecting → Connected → Disconnected → Connecting … 순서로 상태가 바뀌며,
// 연결이 끊기면 백오프만큼 기다린 뒤 다시 연결합니다. 인증 실패 같은
// 복구 불가능한 오류는 Fatal 상태로 끝나고 재시도하지 않습니다.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itsneyoa/bridge-rs-sub000/internal/classifier"
	"github.com/itsneyoa/bridge-rs-sub000/internal/dispatch"
	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
)

// ErrFatal은 재시도하면 안 되는 연결 오류를 감쌉니다.
var ErrFatal = errors.New("복구 불가능한 게임 연결 오류")

// State는 연결 상태입니다.
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
	StateFatal
)

// String은 상태 이름을 반환합니다.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// FrameKind는 게임 연결에서 들어오는 프레임 종류입니다.
type FrameKind int

const (
	// FrameLogin은 로그인 완료입니다. Text는 봇 닉네임입니다.
	FrameLogin FrameKind = iota
	// FrameChat은 채팅 수신입니다. Text는 채팅 원문입니다 (여러 줄일 수 있음).
	FrameChat
	// FrameDisconnect는 연결 끊김입니다. Text는 사유입니다.
	FrameDisconnect
	// FrameFatal은 복구 불가능한 프로토콜/인증 오류입니다. Text는 사유입니다.
	FrameFatal
)

// Frame은 게임 연결에서 들어온 프레임 하나입니다.
type Frame struct {
	Kind FrameKind
	Text string
}

// Conn은 연결된 게임 세션입니다.
type Conn interface {
	// Frames는 수신 프레임 채널입니다. 연결이 끝나면 닫힙니다.
	Frames() <-chan Frame
	// SendLine은 채팅 한 줄을 전송합니다.
	SendLine(text string) error
	Close() error
}

// Connector는 게임 연결을 엽니다.
// 재시도하면 안 되는 오류는 ErrFatal을 감싸서 반환합니다.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// Publisher는 분류된 이벤트를 받는 버스입니다.
type Publisher interface {
	Publish(ev domain.Event)
}

// Notifier는 봇의 접속/오프라인 알림을 받습니다.
type Notifier interface {
	Online(username string)
	Offline(reason string)
}

// Config는 supervisor 설정입니다.
type Config struct {
	BackoffFloor   time.Duration // 첫 재연결 대기 시간 (기본: 5초)
	BackoffCeiling time.Duration // 최대 재연결 대기 시간 (기본: 5분)
}

// Snapshot은 상태 조회용 스냅샷입니다.
type Snapshot struct {
	State       string        `json:"state"`
	Username    string        `json:"username,omitempty"`
	Since       time.Time     `json:"since"`
	LastReason  string        `json:"last_reason,omitempty"`
	NextBackoff time.Duration `json:"next_backoff"`
}

// Supervisor는 게임 연결을 소유하고 끊기면 다시 연결합니다.
// dispatch.Sender를 구현하며, 연결되지 않은 동안에는 dispatch.ErrNotConnected를 반환합니다.
type Supervisor struct {
	connector Connector
	events    Publisher
	session   *domain.Session
	notifier  Notifier
	logger    *log.Logger

	mu              sync.RWMutex
	state           State
	since           time.Time
	conn            Conn
	backoff         *Backoff
	lastReason      string
	offlineNotified bool

	sleep func(ctx context.Context, d time.Duration) error
}

// New는 새 Supervisor를 생성합니다.
func New(config Config, connector Connector, events Publisher, session *domain.Session) *Supervisor {
	if config.BackoffFloor <= 0 {
		config.BackoffFloor = DefaultBackoffFloor
	}
	if config.BackoffCeiling <= 0 {
		config.BackoffCeiling = DefaultBackoffCeiling
	}

	return &Supervisor{
		connector: connector,
		events:    events,
		session:   session,
		backoff:   NewBackoff(config.BackoffFloor, config.BackoffCeiling),
		state:     StateConnecting,
		since:     time.Now(),
		sleep:     sleepContext,
	}
}

// SetLogger는 로거를 설정합니다.
func (s *Supervisor) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// SetNotifier는 접속/오프라인 알림 수신자를 설정합니다.
func (s *Supervisor) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// State는 현재 연결 상태를 반환합니다.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot은 현재 상태 스냅샷을 반환합니다.
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		State:       s.state.String(),
		Username:    s.session.Username(),
		Since:       s.since,
		LastReason:  s.lastReason,
		NextBackoff: s.backoff.Peek(),
	}
}

// SendLine은 현재 연결로 한 줄을 전송합니다.
func (s *Supervisor) SendLine(text string) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return dispatch.ErrNotConnected
	}
	return conn.SendLine(text)
}

// Run은 ctx가 취소되거나 복구 불가능한 오류가 날 때까지 연결을 유지합니다.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		s.setState(StateConnecting)
		s.logf("[SUPERVISOR] 🔌 게임 서버 연결 시도...")

		conn, err := s.connector.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrFatal) {
				return s.fatal(err)
			}
			s.disconnected(fmt.Sprintf("연결 실패: %v", err))
		} else {
			reason, err := s.serve(ctx, conn)
			conn.Close()
			if ctx.Err() != nil {
				s.disconnected("종료")
				return ctx.Err()
			}
			if err != nil {
				return s.fatal(err)
			}
			s.disconnected(reason)
		}

		if err := s.wait(ctx); err != nil {
			return err
		}
	}
}

// serve는 연결이 끝날 때까지 프레임을 처리하고 끊긴 사유를 반환합니다.
func (s *Supervisor) serve(ctx context.Context, conn Conn) (string, error) {
	frames := conn.Frames()
	for {
		select {
		case <-ctx.Done():
			return "종료", nil

		case frame, ok := <-frames:
			if !ok {
				return "연결 종료됨", nil
			}

			switch frame.Kind {
			case FrameLogin:
				s.connected(conn, frame.Text)
			case FrameChat:
				s.feed(frame.Text)
			case FrameDisconnect:
				return frame.Text, nil
			case FrameFatal:
				return "", fmt.Errorf("%w: %s", ErrFatal, frame.Text)
			}
		}
	}
}

// feed는 채팅 페이로드를 분류해 버스에 발행합니다. 로그인 전 채팅은 버립니다.
func (s *Supervisor) feed(payload string) {
	if s.State() != StateConnected {
		return
	}
	for _, line := range classifier.Split(payload) {
		if ev, ok := classifier.Classify(line); ok {
			s.events.Publish(ev)
		}
	}
}

func (s *Supervisor) connected(conn Conn, username string) {
	s.session.Login(username)

	s.mu.Lock()
	s.state = StateConnected
	s.since = time.Now()
	s.conn = conn
	s.backoff.Reset()
	s.offlineNotified = false
	s.mu.Unlock()

	s.logf("[SUPERVISOR] ✅ 로그인 완료: %s", username)
	if s.notifier != nil {
		s.notifier.Online(username)
	}
}

// disconnected는 연결 해제를 기록합니다. 오프라인 알림은 재연결 전까지 한 번만 보냅니다.
func (s *Supervisor) disconnected(reason string) {
	s.mu.Lock()
	s.state = StateDisconnected
	s.since = time.Now()
	s.conn = nil
	s.lastReason = reason
	notify := !s.offlineNotified
	s.offlineNotified = true
	s.mu.Unlock()

	s.logf("[SUPERVISOR] 🔌 연결 끊김: %s", reason)
	if notify && s.notifier != nil {
		s.notifier.Offline(reason)
	}
}

func (s *Supervisor) fatal(err error) error {
	s.mu.Lock()
	s.state = StateFatal
	s.since = time.Now()
	s.conn = nil
	s.lastReason = err.Error()
	s.mu.Unlock()

	s.logf("[SUPERVISOR] ❌ 복구 불가능한 오류: %v", err)
	return err
}

func (s *Supervisor) wait(ctx context.Context) error {
	s.mu.Lock()
	delay := s.backoff.Next()
	s.mu.Unlock()

	s.logf("[SUPERVISOR] ⏳ %v 후 재연결", delay)
	return s.sleep(ctx, delay)
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.since = time.Now()
}

func (s *Supervisor) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
