package handler

import (
	"fmt"
	"log"

	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
)

// EventHandler는 게임 이벤트를 처리하는 인터페이스입니다.
type EventHandler interface {
	// Handle은 이벤트를 처리합니다.
	Handle(event domain.Event)
}

// LogHandler는 이벤트를 로그로 출력하는 핸들러입니다.
type LogHandler struct {
	logger *log.Logger
}

// NewLogHandler는 새로운 LogHandler를 생성합니다.
func NewLogHandler(logger *log.Logger) *LogHandler {
	return &LogHandler{
		logger: logger,
	}
}

// Handle은 이벤트를 로그로 출력합니다.
func (h *LogHandler) Handle(event domain.Event) {
	switch ev := event.(type) {
	case domain.Message:
		h.logger.Printf("[CHAT] 💬 %s > %s: %s\n", ev.Kind, ev.Author, truncateText(ev.Content, 100))
	case domain.Unknown:
		h.logger.Printf("[GAME] ❔ %s\n", truncateText(ev.Raw, 100))
	case nil:
		h.logger.Println("[WARN] ⚠️ 이벤트가 nil입니다")
	default:
		if domain.IsCommandResponse(event) {
			h.logger.Printf("[GAME] ↩️ 명령어 응답: %s\n", domain.Describe(event))
			return
		}
		h.logger.Printf("[GUILD] 📣 %s\n", domain.Describe(event))
	}
}

// ChainHandler는 여러 핸들러를 체이닝하는 핸들러입니다.
type ChainHandler struct {
	handlers []EventHandler
}

// NewChainHandler는 새로운 ChainHandler를 생성합니다.
func NewChainHandler(handlers ...EventHandler) *ChainHandler {
	return &ChainHandler{
		handlers: handlers,
	}
}

// Handle은 모든 핸들러를 순차적으로 호출합니다.
func (h *ChainHandler) Handle(event domain.Event) {
	for _, handler := range h.handlers {
		handler.Handle(event)
	}
}

// truncateText는 텍스트를 지정된 길이로 자릅니다.
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return fmt.Sprintf("%s...", string(runes[:maxLen]))
}
