package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

const (
	// DefaultTick은 드라이버가 DrainTick을 호출하는 주기입니다.
	DefaultTick = 50 * time.Millisecond
	// DefaultCooldownTicks는 전송 사이에 지나야 하는 최소 틱 수입니다 (약 0.5초).
	DefaultCooldownTicks = 10
)

// ErrNotConnected는 게임 연결이 없어 전송할 수 없을 때 Sender가 반환합니다.
var ErrNotConnected = errors.New("게임 서버에 연결되어 있지 않음")

// Sender는 게임 연결로 한 줄을 전송합니다.
type Sender interface {
	SendLine(text string) error
}

// Config는 디스패치 큐 설정입니다.
type Config struct {
	Tick          time.Duration // 드라이버 틱 주기 (기본: 50ms)
	CooldownTicks int           // 전송 간 최소 틱 수 (기본: 10)
}

// queued는 큐에 저장된 명령어입니다.
type queued struct {
	text      string
	done      chan struct{}
	enqueueAt time.Time
}

// Queue는 게임으로 나가는 명령어의 FIFO 큐입니다.
// Enqueue는 여러 고루틴에서 호출해도 안전하며,
// 꺼내는 쪽(DrainTick)은 드라이버 하나만 호출합니다.
type Queue struct {
	mu     sync.Mutex
	items  []*queued
	config Config
	sender Sender
	logger *log.Logger

	// sinceSend는 마지막 전송 이후 지난 틱 수입니다. 드라이버만 접근합니다.
	sinceSend int
}

// NewQueue는 새 디스패치 큐를 생성합니다.
func NewQueue(config Config, sender Sender) *Queue {
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	if config.CooldownTicks <= 0 {
		config.CooldownTicks = DefaultCooldownTicks
	}

	return &Queue{
		items:     make([]*queued, 0),
		config:    config,
		sender:    sender,
		sinceSend: config.CooldownTicks,
	}
}

// SetLogger는 로거를 설정합니다.
func (q *Queue) SetLogger(logger *log.Logger) {
	q.logger = logger
}

// Enqueue는 명령어를 큐 끝에 추가하고 완료 신호 채널을 반환합니다.
// 채널은 명령어가 게임 연결로 넘겨진 직후 정확히 한 번 닫힙니다.
func (q *Queue) Enqueue(text string) <-chan struct{} {
	item := &queued{
		text:      text,
		done:      make(chan struct{}),
		enqueueAt: time.Now(),
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	return item.done
}

// DrainTick은 드라이버의 한 틱입니다.
// 쿨다운이 지났고 대기 중인 명령어가 있으면 맨 앞 하나를 전송하고 true를 반환합니다.
func (q *Queue) DrainTick() bool {
	if q.sinceSend < q.config.CooldownTicks {
		q.sinceSend++
	}
	if q.sinceSend < q.config.CooldownTicks {
		return false
	}

	item := q.pop()
	if item == nil {
		return false
	}
	q.sinceSend = 0

	if err := q.sender.SendLine(item.text); err != nil {
		// 재시도하지 않습니다. 호출자의 응답 대기 타임아웃이 처리합니다.
		q.logf("[DISPATCH] ⚠️ 전송 실패, 명령어 폐기: %q (%v)", item.text, err)
	} else {
		q.logf("[DISPATCH] 📤 전송: %q (대기 %v)", item.text, time.Since(item.enqueueAt).Round(time.Millisecond))
	}
	close(item.done)
	return true
}

// Run은 ctx가 취소될 때까지 고정 주기로 DrainTick을 호출합니다.
func (q *Queue) Run(ctx context.Context) error {
	ticker := time.NewTicker(q.config.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			q.DrainTick()
		}
	}
}

// Len은 대기 중인 명령어 수를 반환합니다.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Config는 큐 설정을 반환합니다.
func (q *Queue) Config() Config {
	return q.config
}

func (q *Queue) pop() *queued {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	item := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return item
}

func (q *Queue) logf(format string, args ...interface{}) {
	if q.logger != nil {
		q.logger.Printf(format, args...)
	}
}
