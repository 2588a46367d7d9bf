// Package bus는 분류된 채팅 이벤트를 여러 구독자에게 전달하는 브로드캐스트 버스입니다.
// 구독자는 구독(무장) 이후의 이벤트만 받으며 버스는 히스토리를 보관하지 않습니다.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
)

// DefaultBufferSize는 구독자별 기본 버퍼 크기입니다.
const DefaultBufferSize = 64

// Bus는 domain.Event 팬아웃 버스입니다.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

// New는 새 버스를 생성합니다.
func New() *Bus {
	return &Bus{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscription은 버스에 대한 개별 구독입니다.
// 생성 직후에는 비활성(inert) 상태로 아무 이벤트도 버퍼링하지 않으며,
// Arm 호출 이후 발행된 이벤트부터 받습니다.
type Subscription struct {
	bus     *Bus
	ch      chan domain.Event
	armed   atomic.Bool
	dropped atomic.Int64
	once    sync.Once
}

// Subscribe는 기본 버퍼 크기의 비활성 구독을 생성합니다.
func (b *Bus) Subscribe() *Subscription {
	return b.SubscribeSize(DefaultBufferSize)
}

// SubscribeSize는 지정한 버퍼 크기의 비활성 구독을 생성합니다.
// 버스가 이미 닫혔으면 닫힌 구독을 반환합니다.
func (b *Bus) SubscribeSize(size int) *Subscription {
	if size <= 0 {
		size = DefaultBufferSize
	}
	sub := &Subscription{bus: b, ch: make(chan domain.Event, size)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Publish는 무장된 모든 구독자에게 이벤트를 전달합니다.
// 버퍼가 가득 찬 구독자에게는 이벤트를 버립니다 (발행자는 블로킹되지 않음).
func (b *Bus) Publish(ev domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for sub := range b.subs {
		if !sub.armed.Load() {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Len은 현재 등록된 구독 수를 반환합니다.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close는 버스를 닫고 모든 구독 채널을 닫습니다.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.once.Do(func() { close(sub.ch) })
		delete(b.subs, sub)
	}
}

// Arm은 구독을 활성화합니다. 이 시점 이후 발행된 이벤트만 전달됩니다.
func (s *Subscription) Arm() {
	s.armed.Store(true)
}

// Armed는 구독이 활성 상태인지 확인합니다.
func (s *Subscription) Armed() bool {
	return s.armed.Load()
}

// Events는 이벤트 수신 채널을 반환합니다. 구독이 해제되면 닫힙니다.
func (s *Subscription) Events() <-chan domain.Event {
	return s.ch
}

// Dropped는 버퍼 초과로 버려진 이벤트 수를 반환합니다.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close는 구독을 해제합니다. 여러 번 호출해도 안전합니다.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s)
	s.once.Do(func() { close(s.ch) })
}
