// Package relay는 버스에 올라온 게임 이벤트를 핸들러로 흘려보내는 수동 중계 서비스입니다.
package relay

import (
	"context"
	"log"
	"sync"

	"github.com/itsneyoa/bridge-rs-sub000/internal/bus"
	"github.com/itsneyoa/bridge-rs-sub000/internal/handler"
)

// Config는 중계 서비스 설정입니다.
type Config struct {
	// BufferSize는 구독 버퍼 크기입니다 (기본값: 256)
	BufferSize int
}

// DefaultBufferSize는 기본 구독 버퍼 크기입니다.
// 명령어 상관 구독보다 넉넉하게 잡습니다.
const DefaultBufferSize = 256

// Service는 버스 구독 하나를 이벤트 핸들러에 연결합니다.
type Service struct {
	config   Config
	sub      *bus.Subscription
	handler  handler.EventHandler
	logger   *log.Logger
	dropped  int64
	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

// NewService는 새로운 중계 서비스를 생성합니다.
// 구독은 생성 시점에 무장되므로 이후 발행된 이벤트는 Start 전이라도 버퍼에 쌓입니다.
func NewService(config Config, events *bus.Bus, eventHandler handler.EventHandler, logger *log.Logger) *Service {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}

	sub := events.SubscribeSize(config.BufferSize)
	sub.Arm()

	return &Service{
		config:   config,
		sub:      sub,
		handler:  eventHandler,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start는 중계를 시작합니다. 컨텍스트 취소, Stop 호출, 버스 종료 중 하나가 일어나면 반환합니다.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	defer s.finish()

	s.logger.Printf("[RELAY] 🚀 게임 이벤트 중계 시작 (버퍼: %d)\n", s.config.BufferSize)

	events := s.sub.Events()
	for {
		select {
		case <-ctx.Done():
			s.logger.Println("[RELAY] 🛑 컨텍스트 취소로 중계 종료")
			return ctx.Err()
		case <-stop:
			s.logger.Println("[RELAY] 🛑 Stop 호출로 중계 종료")
			return nil
		case ev, ok := <-events:
			if !ok {
				s.logger.Println("[RELAY] 🛑 이벤트 버스 종료")
				return nil
			}
			s.handler.Handle(ev)
			s.checkDropped()
		}
	}
}

// Stop은 중계를 중지합니다.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopChan)
	s.running = false
}

// IsRunning은 서비스가 실행 중인지 확인합니다.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Dropped는 버퍼 초과로 중계하지 못한 이벤트 수를 반환합니다.
func (s *Service) Dropped() int64 {
	return s.sub.Dropped()
}

// checkDropped는 새로 버려진 이벤트가 있으면 경고합니다.
func (s *Service) checkDropped() {
	total := s.sub.Dropped()
	if total > s.dropped {
		s.logger.Printf("[RELAY] ⚠️ 처리 지연으로 이벤트 %d개 누락 (누적 %d)\n", total-s.dropped, total)
		s.dropped = total
	}
}

func (s *Service) finish() {
	s.sub.Close()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
