// Package correlate는 게임에 보낸 명령어와 그 결과로 나온 채팅 이벤트를 짝지어 줍니다.
//
// 게임의 명령어 인터페이스는 응답 봉투나 상관 ID가 없으므로, 명령어가 실제로
// 전송된 시점 이후에 발행된 이벤트만 호출자의 Predicate로 검사합니다.
package correlate

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/itsneyoa/bridge-rs-sub000/internal/bus"
	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
)

// DefaultTimeout은 명령어 전송 후 응답을 기다리는 기본 시간입니다.
const DefaultTimeout = 10 * time.Second

// DefaultBufferSize는 명령어 하나가 대기 중에 쌓아둘 수 있는 이벤트 수입니다.
// 바쁜 길드 채팅에서도 결과 이벤트가 버려지지 않도록 버스 기본값보다 크게 잡습니다.
const DefaultBufferSize = 1024

var (
	// ErrTimeout은 제한 시간 안에 일치하는 이벤트가 없었을 때 반환됩니다.
	ErrTimeout = errors.New("게임 응답 대기 시간 초과")
	// ErrBusClosed는 대기 중 버스가 닫혔을 때 반환됩니다.
	ErrBusClosed = errors.New("이벤트 버스가 닫힘")
)

type requestIDKey struct{}

// WithRequestID는 Execute 로그에 쓰일 요청 ID를 ctx에 담습니다.
// 감사 기록 ID와 같은 값을 쓰면 로그와 기록을 이어 볼 수 있습니다.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID는 ctx에 담긴 요청 ID를 반환합니다. 없으면 빈 문자열입니다.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Reply는 Predicate가 찾아낸 명령어 결과입니다.
// Err가 nil이면 성공이고, 아니면 게임 측에서 거절한 알려진 실패입니다.
type Reply struct {
	Detail string
	Err    error
}

// Predicate는 이벤트가 방금 보낸 명령어의 결과인지 판단합니다.
// 관련 없는 이벤트에는 false를 반환해야 하며 부수 효과가 없어야 합니다.
// 자유 문장으로 된 실패 응답이 많으므로 domain.Unknown도 검사 대상입니다.
type Predicate func(ev domain.Event) (Reply, bool)

// EventSource는 비활성 구독을 만들어 주는 이벤트 버스입니다.
type EventSource interface {
	SubscribeSize(size int) *bus.Subscription
}

// Dispatcher는 명령어를 전송 큐에 넣고 완료 신호를 돌려줍니다.
type Dispatcher interface {
	Enqueue(text string) <-chan struct{}
}

// Status는 명령어 실행 결과 분류입니다.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusTimeout
)

// String은 상태 이름을 반환합니다.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// StatusOf는 Execute가 반환한 에러를 결과 분류로 변환합니다.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	default:
		return StatusFailure
	}
}

// Config는 상관 엔진 설정입니다.
type Config struct {
	Timeout    time.Duration // 응답 대기 시간 (기본: 10초)
	BufferSize int           // 명령어별 구독 버퍼 크기 (기본: 1024)
}

// Engine은 명령어 하나를 실행하고 결과 이벤트를 기다립니다.
// 여러 고루틴이 동시에 Execute를 호출해도 각 호출은 자신만의 구독을 사용합니다.
type Engine struct {
	events     EventSource
	queue      Dispatcher
	timeout    time.Duration
	bufferSize int
	logger     *log.Logger
}

// NewEngine은 새 상관 엔진을 생성합니다.
func NewEngine(config Config, events EventSource, queue Dispatcher) *Engine {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}

	return &Engine{
		events:     events,
		queue:      queue,
		timeout:    config.Timeout,
		bufferSize: config.BufferSize,
	}
}

// SetLogger는 로거를 설정합니다.
func (e *Engine) SetLogger(logger *log.Logger) {
	e.logger = logger
}

// Timeout은 응답 대기 시간을 반환합니다.
func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// Execute는 명령어를 전송하고 Predicate가 일치하는 첫 이벤트의 결과를 반환합니다.
//
//  1. 버스를 비활성 상태로 구독합니다 (큐 대기 중에는 이벤트가 쌓이지 않음).
//  2. 명령어를 디스패치 큐에 넣습니다.
//  3. 실제 전송 완료 신호를 기다립니다.
//  4. 구독을 활성화합니다. 이 시점 이후의 이벤트만 검사됩니다.
//  5. 일치하는 이벤트와 타임아웃 중 먼저 오는 쪽으로 끝납니다.
//
// 타임아웃이면 ErrTimeout, 게임이 거절했으면 Predicate가 준 에러를 반환합니다.
// 구독은 어떤 경로로 끝나든 해제됩니다. 로그에는 ctx의 요청 ID가 붙고,
// 없으면 새로 만듭니다.
func (e *Engine) Execute(ctx context.Context, cmd domain.Command, match Predicate) (string, error) {
	line := domain.Serialize(cmd)
	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}

	sub := e.events.SubscribeSize(e.bufferSize)
	defer sub.Close()

	sent := e.queue.Enqueue(line)
	e.logf("[CORRELATE] ⏳ [%s] 전송 대기: %q", id, line)

	select {
	case <-sent:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	sub.Arm()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return "", ErrBusClosed
			}
			reply, matched := match(ev)
			if !matched {
				continue
			}
			if reply.Err != nil {
				e.logf("[CORRELATE] ❌ [%s] 거절됨: %v", id, reply.Err)
			} else {
				e.logf("[CORRELATE] ✅ [%s] 성공", id)
			}
			return reply.Detail, reply.Err

		case <-timer.C:
			e.logf("[CORRELATE] ⌛ [%s] %v 안에 응답 없음: %q", id, e.timeout, line)
			if n := sub.Dropped(); n > 0 {
				e.logf("[CORRELATE] ⚠️ [%s] 버퍼 초과로 이벤트 %d개 누락", id, n)
			}
			return "", ErrTimeout

		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}
