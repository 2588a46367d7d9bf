package slack

import (
	"context"
	"fmt"
	"sync"

	"github.com/slack-go/slack"
)

// Identity는 봇 토큰의 Slack 신원입니다.
type Identity struct {
	UserID string
	BotID  string
	Team   string
}

// Client는 Slack API와 상호작용하는 인터페이스입니다.
// 테스트 시 모킹이 가능하도록 인터페이스로 정의합니다.
type Client interface {
	// PostMessage는 채널에 메시지를 전송합니다.
	// blocks를 사용하여 Block Kit 형식의 메시지를 보낼 수 있습니다.
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) error

	// AddReaction은 메시지에 이모지 반응을 추가합니다.
	AddReaction(ctx context.Context, channelID, timestamp, name string) error

	// RespondToCommand는 슬래시 명령어의 response_url로 응답합니다.
	// inChannel이 false면 명령어를 실행한 사용자에게만 보입니다.
	RespondToCommand(ctx context.Context, responseURL, text string, inChannel bool) error

	// DisplayName은 사용자의 표시 이름을 조회합니다.
	DisplayName(ctx context.Context, userID string) (string, error)
}

// SlackClient는 실제 Slack API 클라이언트를 래핑합니다.
type SlackClient struct {
	api *slack.Client

	mu    sync.RWMutex
	names map[string]string
}

// NewSlackClient는 새로운 SlackClient를 생성합니다.
// Socket Mode를 쓰려면 slack.OptionAppLevelToken을 함께 넘깁니다.
func NewSlackClient(token string, options ...slack.Option) *SlackClient {
	return &SlackClient{
		api:   slack.New(token, options...),
		names: make(map[string]string),
	}
}

// API는 내부 slack-go 클라이언트를 반환합니다 (Socket Mode 연결용).
func (c *SlackClient) API() *slack.Client {
	return c.api
}

// AuthTest는 봇 토큰을 검증하고 봇의 신원을 반환합니다.
func (c *SlackClient) AuthTest(ctx context.Context) (*Identity, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("Slack 인증 확인 실패: %w", err)
	}
	return &Identity{UserID: resp.UserID, BotID: resp.BotID, Team: resp.Team}, nil
}

// PostMessage는 채널에 Block Kit 형식의 메시지를 전송합니다.
// text는 Block을 지원하지 않는 클라이언트를 위한 폴백 텍스트입니다.
func (c *SlackClient) PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) error {
	options := []slack.MsgOption{
		slack.MsgOptionText(text, false),
	}

	if len(blocks) > 0 {
		options = append(options, slack.MsgOptionBlocks(blocks...))
	}

	_, _, err := c.api.PostMessageContext(ctx, channelID, options...)
	return err
}

// AddReaction은 메시지에 이모지 반응을 추가합니다.
func (c *SlackClient) AddReaction(ctx context.Context, channelID, timestamp, name string) error {
	return c.api.AddReactionContext(ctx, name, slack.NewRefToMessage(channelID, timestamp))
}

// RespondToCommand는 슬래시 명령어의 response_url로 응답합니다.
func (c *SlackClient) RespondToCommand(ctx context.Context, responseURL, text string, inChannel bool) error {
	responseType := slack.ResponseTypeEphemeral
	if inChannel {
		responseType = slack.ResponseTypeInChannel
	}
	return slack.PostWebhookContext(ctx, responseURL, &slack.WebhookMessage{
		Text:         text,
		ResponseType: responseType,
	})
}

// DisplayName은 사용자의 표시 이름을 조회합니다.
// 표시 이름 → 실명 → 사용자 이름 순으로 비어있지 않은 값을 쓰며, 결과는 캐시합니다.
func (c *SlackClient) DisplayName(ctx context.Context, userID string) (string, error) {
	c.mu.RLock()
	name, ok := c.names[userID]
	c.mu.RUnlock()
	if ok {
		return name, nil
	}

	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("사용자 정보 조회 실패 (%s): %w", userID, err)
	}

	name = pickName(user.Profile.DisplayName, user.RealName, user.Name, userID)

	c.mu.Lock()
	c.names[userID] = name
	c.mu.Unlock()

	return name, nil
}

func pickName(candidates ...string) string {
	for _, n := range candidates {
		if n != "" {
			return n
		}
	}
	return ""
}
