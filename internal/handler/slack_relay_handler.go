package handler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
)

// SlackNotifier는 Slack 메시지 전송 인터페이스입니다.
// 테스트 시 모킹이 가능하도록 인터페이스로 정의합니다.
type SlackNotifier interface {
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) error
}

// SlackRelayHandler는 게임 이벤트를 Slack 채널로 중계하는 핸들러입니다.
type SlackRelayHandler struct {
	client           SlackNotifier
	guildChannelID   string
	officerChannelID string
	session          *domain.Session
	logger           *log.Logger
	enabled          bool
	timeout          time.Duration
}

// SlackRelayHandlerConfig는 SlackRelayHandler 설정입니다.
type SlackRelayHandlerConfig struct {
	Client           SlackNotifier
	GuildChannelID   string
	OfficerChannelID string // 비어있으면 오피서 채팅은 중계하지 않음
	Session          *domain.Session
	Logger           *log.Logger
	Enabled          bool
}

// NewSlackRelayHandler는 새로운 SlackRelayHandler를 생성합니다.
func NewSlackRelayHandler(config SlackRelayHandlerConfig) *SlackRelayHandler {
	return &SlackRelayHandler{
		client:           config.Client,
		guildChannelID:   config.GuildChannelID,
		officerChannelID: config.OfficerChannelID,
		session:          config.Session,
		logger:           config.Logger,
		enabled:          config.Enabled,
		timeout:          10 * time.Second,
	}
}

// Handle은 이벤트를 Slack 채널로 중계합니다.
// 알 수 없는 줄과 명령어 응답은 중계하지 않으며, 봇 자신의 채팅은 건너뜁니다.
func (h *SlackRelayHandler) Handle(event domain.Event) {
	if !h.enabled {
		return
	}

	channelID, ok := h.route(event)
	if !ok {
		return
	}

	text := renderEvent(event)
	if text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.client.PostMessage(ctx, channelID, nil, text); err != nil {
		h.logger.Printf("[SLACK_RELAY] ❌ 전송 실패: %v\n", err)
	}
}

// route는 이벤트를 보낼 채널을 결정합니다.
func (h *SlackRelayHandler) route(event domain.Event) (string, bool) {
	switch ev := event.(type) {
	case domain.Unknown:
		return "", false
	case domain.Message:
		if h.session != nil && strings.EqualFold(ev.Author, h.session.Username()) {
			return "", false
		}
		if ev.Kind == domain.ChatOfficer {
			return h.officerChannelID, h.officerChannelID != ""
		}
		return h.guildChannelID, true
	default:
		if domain.IsCommandResponse(event) {
			return "", false
		}
		return h.guildChannelID, true
	}
}

// renderEvent는 이벤트를 Slack 한 줄로 변환합니다.
func renderEvent(event domain.Event) string {
	if m, ok := event.(domain.Message); ok {
		return fmt.Sprintf("*%s*: %s", escapeSlackText(m.Author), escapeSlackText(m.Content))
	}

	var icon string
	switch ev := event.(type) {
	case domain.Toggle:
		icon = "🔴"
		if ev.Online {
			icon = "🟢"
		}
	case domain.Join:
		icon = "📥"
	case domain.Leave:
		icon = "📤"
	case domain.Kick:
		icon = "👢"
	case domain.Promotion:
		icon = "⬆️"
	case domain.Demotion:
		icon = "⬇️"
	case domain.Mute:
		icon = "🔇"
	case domain.Unmute:
		icon = "🔊"
	default:
		return ""
	}
	return icon + " " + escapeSlackText(domain.Describe(event))
}

// escapeSlackText는 Slack 특수문자를 이스케이프합니다.
func escapeSlackText(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// SlackStatusNotifier는 게임 접속/오프라인 상태를 Slack 채널에 알립니다.
type SlackStatusNotifier struct {
	client    SlackNotifier
	channelID string
	logger    *log.Logger
}

// NewSlackStatusNotifier는 새로운 SlackStatusNotifier를 생성합니다.
func NewSlackStatusNotifier(client SlackNotifier, channelID string, logger *log.Logger) *SlackStatusNotifier {
	return &SlackStatusNotifier{
		client:    client,
		channelID: channelID,
		logger:    logger,
	}
}

// Online은 봇이 게임에 접속했음을 알립니다.
func (n *SlackStatusNotifier) Online(username string) {
	n.post(fmt.Sprintf("✅ 게임 연결됨: *%s* (으)로 로그인했습니다", escapeSlackText(username)))
}

// Offline은 게임 연결이 끊겼음을 알립니다.
func (n *SlackStatusNotifier) Offline(reason string) {
	n.post(fmt.Sprintf("⚠️ 게임 연결 끊김: %s", escapeSlackText(reason)))
}

func (n *SlackStatusNotifier) post(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := n.client.PostMessage(ctx, n.channelID, nil, text); err != nil && n.logger != nil {
		n.logger.Printf("[SLACK_RELAY] ❌ 상태 알림 전송 실패: %v\n", err)
	}
}
