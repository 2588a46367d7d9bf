package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLineLength는 게임 서버가 받아들이는 채팅 한 줄의 최대 길이입니다.
const MaxLineLength = 256

// MuteUnit은 채팅 금지 기간 단위입니다.
type MuteUnit string

const (
	UnitMinute MuteUnit = "m"
	UnitHour   MuteUnit = "h"
	UnitDay    MuteUnit = "d"
)

// everyoneTarget은 길드 채팅 전체를 지정하는 게임 명령어 대상입니다.
const everyoneTarget = "everyone"

var usernamePattern = regexp.MustCompile(`^\w{2,16}$`)

// ValidUsername은 게임 닉네임 형식(영문/숫자/_ 2~16자)인지 확인합니다.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// ParseMuteUnit은 문자열을 MuteUnit으로 변환합니다.
func ParseMuteUnit(s string) (MuteUnit, error) {
	switch MuteUnit(strings.ToLower(s)) {
	case UnitMinute:
		return UnitMinute, nil
	case UnitHour:
		return UnitHour, nil
	case UnitDay:
		return UnitDay, nil
	}
	return "", fmt.Errorf("알 수 없는 기간 단위: %q", s)
}

// ValidateMuteLength는 기간이 1분 ~ 30일 범위인지 확인합니다.
func ValidateMuteLength(length int, unit MuteUnit) error {
	limit := map[MuteUnit]int{UnitMinute: 30 * 24 * 60, UnitHour: 30 * 24, UnitDay: 30}[unit]
	if limit == 0 {
		return fmt.Errorf("알 수 없는 기간 단위: %q", unit)
	}
	if length < 1 || length > limit {
		return fmt.Errorf("기간은 1%s 이상 30일 이하여야 합니다: %d%s", unit, length, unit)
	}
	return nil
}

// Command는 게임에 보낼 명령어입니다.
// Line은 항상 같은 입력에 대해 같은 한 줄을 만들어야 합니다.
type Command interface {
	Line() string
}

// ChatMessage는 Slack 메시지를 길드/오피서 채팅으로 보냅니다.
type ChatMessage struct {
	Author  string
	Content string
	Kind    ChatKind
}

func (c ChatMessage) Line() string {
	prefix := "/gc"
	if c.Kind == ChatOfficer {
		prefix = "/oc"
	}
	return fmt.Sprintf("%s %s: %s", prefix, c.Author, c.Content)
}

// MuteCommand는 플레이어(빈 값이면 길드 전체)를 채팅 금지합니다.
type MuteCommand struct {
	Player string
	Length int
	Unit   MuteUnit
}

func (c MuteCommand) Line() string {
	return fmt.Sprintf("/g mute %s %d%s", targetOrEveryone(c.Player), c.Length, c.Unit)
}

// UnmuteCommand는 채팅 금지를 해제합니다.
type UnmuteCommand struct {
	Player string
}

func (c UnmuteCommand) Line() string {
	return "/g unmute " + targetOrEveryone(c.Player)
}

// InviteCommand는 플레이어를 길드에 초대합니다.
type InviteCommand struct {
	Player string
}

func (c InviteCommand) Line() string { return "/g invite " + c.Player }

// KickCommand는 플레이어를 길드에서 추방합니다.
type KickCommand struct {
	Player string
	Reason string
}

func (c KickCommand) Line() string {
	return strings.TrimSpace(fmt.Sprintf("/g kick %s %s", c.Player, c.Reason))
}

// PromoteCommand는 플레이어를 한 단계 승급합니다.
type PromoteCommand struct {
	Player string
}

func (c PromoteCommand) Line() string { return "/g promote " + c.Player }

// DemoteCommand는 플레이어를 한 단계 강등합니다.
type DemoteCommand struct {
	Player string
}

func (c DemoteCommand) Line() string { return "/g demote " + c.Player }

// SetRankCommand는 플레이어의 등급을 지정합니다.
type SetRankCommand struct {
	Player string
	Rank   string
}

func (c SetRankCommand) Line() string { return fmt.Sprintf("/g setrank %s %s", c.Player, c.Rank) }

// ExecuteCommand는 임의의 게임 명령어를 실행합니다.
type ExecuteCommand struct {
	Command string
}

func (c ExecuteCommand) Line() string {
	cmd := strings.TrimSpace(c.Command)
	if !strings.HasPrefix(cmd, "/") {
		cmd = "/" + cmd
	}
	return cmd
}

// Serialize는 명령어를 전송할 한 줄로 변환합니다.
// 길이 제한을 넘는 줄은 호출자의 정제 실수이므로 panic 합니다.
func Serialize(cmd Command) string {
	line := cmd.Line()
	if n := utf8.RuneCountInString(line); n > MaxLineLength {
		panic(fmt.Sprintf("명령어 길이 초과 (%d > %d): %q", n, MaxLineLength, line))
	}
	return line
}

func targetOrEveryone(player string) string {
	if player == "" {
		return everyoneTarget
	}
	return player
}
