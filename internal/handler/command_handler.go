package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/itsneyoa/bridge-rs-sub000/internal/commands"
	"github.com/itsneyoa/bridge-rs-sub000/internal/correlate"
	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
	"github.com/itsneyoa/bridge-rs-sub000/internal/sanitize"
	slackclient "github.com/itsneyoa/bridge-rs-sub000/internal/slack"
	"github.com/itsneyoa/bridge-rs-sub000/internal/store"
)

// 결과별 Slack 반응 이모지입니다.
const (
	ReactionSuccess   = "white_check_mark"
	ReactionFailure   = "x"
	ReactionTimeout   = "hourglass"
	ReactionSanitized = "warning"
)

// maxAuthorLength는 게임 채팅에 붙는 Slack 작성자 이름의 최대 길이입니다.
const maxAuthorLength = 32

// Executor는 게임 명령어를 실행하고 결과를 기다립니다.
type Executor interface {
	Execute(ctx context.Context, cmd domain.Command, match correlate.Predicate) (string, error)
}

// SlackResponder는 CommandHandler가 쓰는 Slack 기능입니다.
type SlackResponder interface {
	AddReaction(ctx context.Context, channelID, timestamp, name string) error
	RespondToCommand(ctx context.Context, responseURL, text string, inChannel bool) error
	DisplayName(ctx context.Context, userID string) (string, error)
}

// AuditRecorder는 운영자 명령어 기록을 저장합니다.
type AuditRecorder interface {
	Record(ctx context.Context, entry store.AuditEntry) error
}

// CommandHandler는 Slack에서 들어온 메시지와 슬래시 명령어를 게임으로 보냅니다.
// slack.InboundHandler를 구현합니다.
type CommandHandler struct {
	executor         Executor
	session          *domain.Session
	slack            SlackResponder
	audit            AuditRecorder
	guildChannelID   string
	officerChannelID string
	operators        map[string]bool
	logger           *log.Logger
}

// CommandHandlerConfig는 CommandHandler 설정입니다.
type CommandHandlerConfig struct {
	Executor         Executor
	Session          *domain.Session
	Slack            SlackResponder
	Audit            AuditRecorder // nil이면 기록하지 않음
	GuildChannelID   string
	OfficerChannelID string
	OperatorIDs      []string // 비어있으면 모든 사용자 허용
	Logger           *log.Logger
}

var _ slackclient.InboundHandler = (*CommandHandler)(nil)

// NewCommandHandler는 새로운 CommandHandler를 생성합니다.
func NewCommandHandler(config CommandHandlerConfig) *CommandHandler {
	operators := make(map[string]bool, len(config.OperatorIDs))
	for _, id := range config.OperatorIDs {
		operators[id] = true
	}

	return &CommandHandler{
		executor:         config.Executor,
		session:          config.Session,
		slack:            config.Slack,
		audit:            config.Audit,
		guildChannelID:   config.GuildChannelID,
		officerChannelID: config.OfficerChannelID,
		operators:        operators,
		logger:           config.Logger,
	}
}

// HandleMessage는 Slack 메시지를 길드/오피서 채팅으로 보내고 결과를 반응으로 남깁니다.
func (h *CommandHandler) HandleMessage(ctx context.Context, msg slackclient.IncomingMessage) {
	kind := domain.ChatGuild
	if h.officerChannelID != "" && msg.ChannelID == h.officerChannelID {
		kind = domain.ChatOfficer
	}

	author, err := h.slack.DisplayName(ctx, msg.UserID)
	if err != nil {
		h.logger.Printf("[COMMAND] ⚠️ 표시 이름 조회 실패, 사용자 ID 사용: %v\n", err)
		author = msg.UserID
	}

	cmd, sanitized := buildChatMessage(author, msg.Text, kind)
	if sanitized {
		h.react(ctx, msg, ReactionSanitized)
	}
	if cmd.Content == "" {
		h.logger.Printf("[COMMAND] ⏭️ 정리 후 빈 메시지 스킵 (user: %s)\n", msg.UserID)
		return
	}

	_, err = h.executor.Execute(ctx, cmd, commands.Predicate(cmd, h.session))
	if ctx.Err() != nil {
		return
	}
	h.react(ctx, msg, reactionFor(err))
	if err != nil {
		h.logger.Printf("[COMMAND] ❌ 채팅 전송 실패 (%s): %v\n", kind, err)
	}
}

// buildChatMessage는 Slack 텍스트를 정리하고 한 줄 제한에 맞춘 채팅 명령어를 만듭니다.
// bool은 본문이 바뀌었는지 여부이며, 작성자 이름 정리는 포함하지 않습니다.
func buildChatMessage(author, text string, kind domain.ChatKind) (domain.ChatMessage, bool) {
	cleanAuthor, _ := sanitize.Fit(author, maxAuthorLength)
	if cleanAuthor == "" {
		cleanAuthor = "slack"
	}

	cmd := domain.ChatMessage{Author: cleanAuthor, Kind: kind}
	budget := domain.MaxLineLength - utf8.RuneCountInString(cmd.Line())

	content, contentChanged := sanitize.Fit(text, budget)
	cmd.Content = content

	return cmd, contentChanged
}

// HandleCommand는 슬래시 명령어를 실행하고 결과를 응답합니다.
func (h *CommandHandler) HandleCommand(ctx context.Context, in slackclient.IncomingCommand) {
	if len(h.operators) > 0 && !h.operators[in.UserID] {
		h.logger.Printf("[COMMAND] 🚫 권한 없는 사용자: %s (%s)\n", in.UserName, in.UserID)
		h.respond(ctx, in, "🚫 이 명령어를 사용할 권한이 없습니다.", false)
		return
	}

	cmd, err := commands.Parse(in.Name, in.Text)
	if err != nil {
		h.respond(ctx, in, "⚠️ "+err.Error(), false)
		return
	}

	line := domain.Serialize(cmd)
	id := uuid.NewString()
	h.logger.Printf("[COMMAND] ⌨️ [%s] %s 실행: %s\n", id, in.UserName, line)

	detail, err := h.executor.Execute(correlate.WithRequestID(ctx, id), cmd, commands.Predicate(cmd, h.session))
	if ctx.Err() != nil {
		return
	}
	status := correlate.StatusOf(err)

	h.record(ctx, id, in, line, status, detail, err)
	h.respond(ctx, in, formatResult(line, detail, err), status == correlate.StatusSuccess)
}

// formatResult는 명령어 실행 결과를 Slack 응답 문장으로 만듭니다.
func formatResult(line, detail string, err error) string {
	var rejected *commands.RejectedError
	switch {
	case err == nil:
		if detail == "" {
			return fmt.Sprintf("✅ `%s` 완료", line)
		}
		return fmt.Sprintf("✅ `%s`\n%s", line, escapeSlackText(detail))
	case errors.Is(err, correlate.ErrTimeout):
		return fmt.Sprintf("⌛ `%s`: 게임 응답이 없습니다 (시간 초과)", line)
	case errors.As(err, &rejected):
		return fmt.Sprintf("❌ `%s`: %s", line, escapeSlackText(rejected.Message))
	default:
		return fmt.Sprintf("❌ `%s`: %v", line, err)
	}
}

func reactionFor(err error) string {
	switch correlate.StatusOf(err) {
	case correlate.StatusSuccess:
		return ReactionSuccess
	case correlate.StatusTimeout:
		return ReactionTimeout
	default:
		return ReactionFailure
	}
}

func (h *CommandHandler) record(ctx context.Context, id string, in slackclient.IncomingCommand, line string, status correlate.Status, detail string, err error) {
	if h.audit == nil {
		return
	}
	if err != nil {
		detail = err.Error()
	}

	entry := store.AuditEntry{
		ID:       id,
		Operator: fmt.Sprintf("%s (%s)", in.UserName, in.UserID),
		Command:  line,
		Status:   status.String(),
		Detail:   detail,
	}
	if recErr := h.audit.Record(ctx, entry); recErr != nil {
		h.logger.Printf("[AUDIT] ❌ 기록 실패: %v\n", recErr)
	}
}

func (h *CommandHandler) react(ctx context.Context, msg slackclient.IncomingMessage, name string) {
	if err := h.slack.AddReaction(ctx, msg.ChannelID, msg.Timestamp, name); err != nil {
		h.logger.Printf("[COMMAND] ⚠️ 반응 추가 실패 (%s): %v\n", name, err)
	}
}

func (h *CommandHandler) respond(ctx context.Context, in slackclient.IncomingCommand, text string, inChannel bool) {
	if in.ResponseURL == "" {
		return
	}
	if err := h.slack.RespondToCommand(ctx, in.ResponseURL, text, inChannel); err != nil {
		h.logger.Printf("[COMMAND] ❌ 명령어 응답 실패: %v\n", err)
	}
}
