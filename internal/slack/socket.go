package slack

import (
	"context"
	"log"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// IncomingMessage는 중계 대상 채널에 올라온 Slack 메시지입니다.
type IncomingMessage struct {
	ChannelID string
	UserID    string
	Text      string
	Timestamp string
}

// IncomingCommand는 Slack 슬래시 명령어 호출입니다.
type IncomingCommand struct {
	Name        string // 예: "/mute"
	Text        string
	UserID      string
	UserName    string
	ChannelID   string
	ResponseURL string
}

// InboundHandler는 Socket Mode로 들어온 메시지와 명령어를 처리합니다.
type InboundHandler interface {
	HandleMessage(ctx context.Context, msg IncomingMessage)
	HandleCommand(ctx context.Context, cmd IncomingCommand)
}

// SocketListenerConfig는 SocketListener 설정입니다.
type SocketListenerConfig struct {
	API       *slack.Client
	Handler   InboundHandler
	Channels  []string // 메시지를 받을 채널 ID 목록
	Commands  []string // 등록할 슬래시 명령어 목록
	BotUserID string   // 봇 자신의 메시지를 거르기 위한 사용자 ID
	Logger    *log.Logger
}

// messageBacklog는 처리를 기다릴 수 있는 Slack 메시지 수입니다.
const messageBacklog = 64

// acker는 Socket Mode 요청에 응답합니다.
type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// SocketListener는 Slack Socket Mode 연결로 이벤트를 받아 InboundHandler에 넘깁니다.
// 메시지는 Slack에 올라온 순서대로 하나씩 처리하고, 슬래시 명령어는 동시에 처리합니다.
type SocketListener struct {
	client    *socketmode.Client
	handler   InboundHandler
	channels  map[string]bool
	commands  map[string]bool
	botUserID string
	logger    *log.Logger
}

// NewSocketListener는 새로운 SocketListener를 생성합니다.
func NewSocketListener(config SocketListenerConfig) *SocketListener {
	channels := make(map[string]bool, len(config.Channels))
	for _, id := range config.Channels {
		if id != "" {
			channels[id] = true
		}
	}
	commands := make(map[string]bool, len(config.Commands))
	for _, name := range config.Commands {
		commands[name] = true
	}

	var client *socketmode.Client
	if config.API != nil {
		client = socketmode.New(config.API)
	}

	return &SocketListener{
		client:    client,
		handler:   config.Handler,
		channels:  channels,
		commands:  commands,
		botUserID: config.BotUserID,
		logger:    config.Logger,
	}
}

// Run은 ctx가 취소될 때까지 Socket Mode 이벤트 루프를 실행합니다.
func (l *SocketListener) Run(ctx context.Context) error {
	messages := make(chan IncomingMessage, messageBacklog)
	go l.relayMessages(ctx, messages)
	go l.dispatch(ctx, l.client.Events, l.client, messages)

	l.logf("[SLACK] 👂 이벤트 수신 시작 (채널 %d개, 명령어 %d개)", len(l.channels), len(l.commands))
	return l.client.RunContext(ctx)
}

// dispatch는 Socket Mode 이벤트를 도착 순서대로 읽어 분배합니다.
// 끝나면 messages를 닫습니다.
func (l *SocketListener) dispatch(ctx context.Context, events <-chan socketmode.Event, ack acker, messages chan<- IncomingMessage) {
	defer close(messages)

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			l.route(ctx, evt, ack, messages)
		case <-ctx.Done():
			return
		}
	}
}

func (l *SocketListener) route(ctx context.Context, evt socketmode.Event, ack acker, messages chan<- IncomingMessage) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		l.logf("[SLACK] 🔌 Socket Mode 연결 중...")

	case socketmode.EventTypeConnected:
		l.logf("[SLACK] ✅ Socket Mode 연결됨")

	case socketmode.EventTypeEventsAPI:
		if evt.Request != nil {
			ack.Ack(*evt.Request)
		}
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		msgEvent, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok {
			return
		}
		msg, ok := l.messageFromEvent(msgEvent)
		if !ok {
			return
		}
		select {
		case messages <- msg:
		default:
			l.logf("[SLACK] ⚠️ 처리 대기열이 가득 차 메시지 누락 (user: %s)", msg.UserID)
		}

	case socketmode.EventTypeSlashCommand:
		if evt.Request != nil {
			ack.Ack(*evt.Request)
		}
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok || !l.commands[cmd.Command] {
			return
		}
		l.logf("[SLACK] ⌨️ 슬래시 명령어: %s %s (by %s)", cmd.Command, cmd.Text, cmd.UserName)
		go l.handler.HandleCommand(ctx, commandFromSlash(cmd))
	}
}

// relayMessages는 메시지를 받은 순서대로 하나씩 처리합니다.
// messages가 닫히면 끝납니다.
func (l *SocketListener) relayMessages(ctx context.Context, messages <-chan IncomingMessage) {
	for msg := range messages {
		if ctx.Err() != nil {
			continue
		}
		l.handler.HandleMessage(ctx, msg)
	}
}

// messageFromEvent는 중계할 메시지만 골라냅니다.
// 다른 채널, 수정/삭제 같은 하위 유형, 봇 메시지, 빈 메시지는 무시합니다.
func (l *SocketListener) messageFromEvent(ev *slackevents.MessageEvent) (IncomingMessage, bool) {
	if !l.channels[ev.Channel] {
		return IncomingMessage{}, false
	}
	if ev.SubType != "" || ev.BotID != "" {
		return IncomingMessage{}, false
	}
	if ev.User == "" || ev.User == l.botUserID || ev.Text == "" {
		return IncomingMessage{}, false
	}

	return IncomingMessage{
		ChannelID: ev.Channel,
		UserID:    ev.User,
		Text:      ev.Text,
		Timestamp: ev.TimeStamp,
	}, true
}

func commandFromSlash(cmd slack.SlashCommand) IncomingCommand {
	return IncomingCommand{
		Name:        cmd.Command,
		Text:        cmd.Text,
		UserID:      cmd.UserID,
		UserName:    cmd.UserName,
		ChannelID:   cmd.ChannelID,
		ResponseURL: cmd.ResponseURL,
	}
}

func (l *SocketListener) logf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}
