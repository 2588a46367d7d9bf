package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config는 브리지 전체 설정입니다. 환경변수에서 읽습니다.
type Config struct {
	// Slack
	SlackBotToken         string   `env:"SLACK_BOT_TOKEN,required"`
	SlackAppToken         string   `env:"SLACK_APP_TOKEN,required"`
	SlackGuildChannelID   string   `env:"SLACK_GUILD_CHANNEL_ID,required"`
	SlackOfficerChannelID string   `env:"SLACK_OFFICER_CHANNEL_ID"`
	SlackOperatorIDs      []string `env:"SLACK_OPERATOR_IDS" envSeparator:","`
	SlackStatusNotices    bool     `env:"SLACK_STATUS_NOTICES" envDefault:"true"`

	// 게임 게이트웨이
	GameGatewayURL   string `env:"GAME_GATEWAY_URL,required"`
	GameGatewayToken string `env:"GAME_GATEWAY_TOKEN"`

	// 명령어 실행
	CommandTimeout        time.Duration `env:"COMMAND_TIMEOUT" envDefault:"10s"`
	DispatchTick          time.Duration `env:"DISPATCH_TICK" envDefault:"50ms"`
	DispatchCooldownTicks int           `env:"DISPATCH_COOLDOWN_TICKS" envDefault:"10"`

	// 재연결
	BackoffFloor   time.Duration `env:"BACKOFF_FLOOR" envDefault:"5s"`
	BackoffCeiling time.Duration `env:"BACKOFF_CEILING" envDefault:"5m"`

	// 부가 기능
	StatusPort         int    `env:"STATUS_PORT" envDefault:"8090"`
	AuditDBPath        string `env:"AUDIT_DB_PATH" envDefault:"audit.db"`
	AuditRetentionDays int    `env:"AUDIT_RETENTION_DAYS" envDefault:"30"`
	LogFile            string `env:"LOG_FILE" envDefault:"bridge.log"`
}

// Load는 프로세스 환경변수에서 설정을 읽고 검증합니다.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom은 주어진 키/값에서 설정을 읽습니다. 프로세스 환경변수는 보지 않습니다.
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("설정 파싱 실패: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate는 값 사이의 관계를 검증합니다.
func (c *Config) Validate() error {
	switch {
	case c.CommandTimeout <= 0:
		return fmt.Errorf("COMMAND_TIMEOUT은 0보다 커야 합니다: %v", c.CommandTimeout)
	case c.DispatchTick <= 0:
		return fmt.Errorf("DISPATCH_TICK은 0보다 커야 합니다: %v", c.DispatchTick)
	case c.DispatchCooldownTicks < 0:
		return fmt.Errorf("DISPATCH_COOLDOWN_TICKS는 음수일 수 없습니다: %d", c.DispatchCooldownTicks)
	case c.BackoffFloor <= 0 || c.BackoffCeiling < c.BackoffFloor:
		return fmt.Errorf("BACKOFF_FLOOR/CEILING 값이 올바르지 않습니다: %v / %v", c.BackoffFloor, c.BackoffCeiling)
	case c.StatusPort < 0 || c.StatusPort > 65535:
		return fmt.Errorf("STATUS_PORT 범위 초과: %d", c.StatusPort)
	case c.SlackOfficerChannelID != "" && c.SlackOfficerChannelID == c.SlackGuildChannelID:
		return fmt.Errorf("길드 채널과 오피서 채널은 달라야 합니다: %s", c.SlackGuildChannelID)
	}
	return nil
}

// StatusEnabled는 상태 서버를 띄울지 여부입니다.
func (c *Config) StatusEnabled() bool {
	return c.StatusPort > 0
}

// Channels는 중계 대상 Slack 채널 목록입니다.
func (c *Config) Channels() []string {
	if c.SlackOfficerChannelID == "" {
		return []string{c.SlackGuildChannelID}
	}
	return []string{c.SlackGuildChannelID, c.SlackOfficerChannelID}
}
