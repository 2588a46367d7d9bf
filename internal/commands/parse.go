// Package commands는 Slack 운영자 명령어를 게임 명령어로 변환하고
// 각 명령어의 결과 이벤트를 판별하는 규칙을 제공합니다.
package commands

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
	"github.com/itsneyoa/bridge-rs-sub000/internal/sanitize"
)

// everyone은 길드 채팅 전체를 뜻하는 운영자 입력입니다.
const everyone = "everyone"

// Spec은 슬래시 명령어 하나의 정의입니다.
type Spec struct {
	Name        string // 슬래시 명령어 (예: "/mute")
	Usage       string
	Description string
	parse       func(args []string) (domain.Command, error)
}

const (
	usageMute    = "/mute <player|everyone> <기간 예: 10m, 2h, 7d>"
	usageUnmute  = "/unmute <player|everyone>"
	usageInvite  = "/invite <player>"
	usageKick    = "/kick <player> <사유>"
	usagePromote = "/promote <player>"
	usageDemote  = "/demote <player>"
	usageSetrank = "/setrank <player> <등급>"
	usageExecute = "/execute <게임 명령어>"
)

var durationPattern = regexp.MustCompile(`^(\d+)([a-zA-Z])$`)

var catalogue = []Spec{
	{
		Name:        "/mute",
		Usage:       usageMute,
		Description: "플레이어 또는 길드 채팅 전체를 채팅 금지합니다",
		parse: func(args []string) (domain.Command, error) {
			if len(args) != 2 {
				return nil, errUsage(usageMute, "")
			}
			player, err := target(args[0], true)
			if err != nil {
				return nil, errUsage(usageMute, err.Error())
			}
			m := durationPattern.FindStringSubmatch(args[1])
			if m == nil {
				return nil, errUsage(usageMute, fmt.Sprintf("잘못된 기간: %q", args[1]))
			}
			length, _ := strconv.Atoi(m[1])
			unit, err := domain.ParseMuteUnit(m[2])
			if err != nil {
				return nil, errUsage(usageMute, err.Error())
			}
			if err := domain.ValidateMuteLength(length, unit); err != nil {
				return nil, errUsage(usageMute, err.Error())
			}
			return domain.MuteCommand{Player: player, Length: length, Unit: unit}, nil
		},
	},
	{
		Name:        "/unmute",
		Usage:       usageUnmute,
		Description: "채팅 금지를 해제합니다",
		parse: func(args []string) (domain.Command, error) {
			if len(args) != 1 {
				return nil, errUsage(usageUnmute, "")
			}
			player, err := target(args[0], true)
			if err != nil {
				return nil, errUsage(usageUnmute, err.Error())
			}
			return domain.UnmuteCommand{Player: player}, nil
		},
	},
	{
		Name:        "/invite",
		Usage:       usageInvite,
		Description: "플레이어를 길드에 초대합니다",
		parse: singlePlayer(usageInvite, func(p string) domain.Command {
			return domain.InviteCommand{Player: p}
		}),
	},
	{
		Name:        "/kick",
		Usage:       usageKick,
		Description: "플레이어를 길드에서 추방합니다",
		parse: func(args []string) (domain.Command, error) {
			if len(args) < 2 {
				return nil, errUsage(usageKick, "추방 사유가 필요합니다")
			}
			player, err := target(args[0], false)
			if err != nil {
				return nil, errUsage(usageKick, err.Error())
			}
			reason, err := freeText(args[1:])
			if err != nil {
				return nil, errUsage(usageKick, "추방 사유가 필요합니다")
			}
			return domain.KickCommand{Player: player, Reason: reason}, nil
		},
	},
	{
		Name:        "/promote",
		Usage:       usagePromote,
		Description: "플레이어를 한 단계 승급합니다",
		parse: singlePlayer(usagePromote, func(p string) domain.Command {
			return domain.PromoteCommand{Player: p}
		}),
	},
	{
		Name:        "/demote",
		Usage:       usageDemote,
		Description: "플레이어를 한 단계 강등합니다",
		parse: singlePlayer(usageDemote, func(p string) domain.Command {
			return domain.DemoteCommand{Player: p}
		}),
	},
	{
		Name:        "/setrank",
		Usage:       usageSetrank,
		Description: "플레이어의 길드 등급을 지정합니다",
		parse: func(args []string) (domain.Command, error) {
			if len(args) < 2 {
				return nil, errUsage(usageSetrank, "")
			}
			player, err := target(args[0], false)
			if err != nil {
				return nil, errUsage(usageSetrank, err.Error())
			}
			rank, err := freeText(args[1:])
			if err != nil {
				return nil, errUsage(usageSetrank, err.Error())
			}
			return domain.SetRankCommand{Player: player, Rank: rank}, nil
		},
	},
	{
		Name:        "/execute",
		Usage:       usageExecute,
		Description: "임의의 게임 명령어를 실행하고 첫 응답을 돌려줍니다",
		parse: func(args []string) (domain.Command, error) {
			if len(args) == 0 {
				return nil, errUsage(usageExecute, "")
			}
			command, err := freeText(args)
			if err != nil {
				return nil, errUsage(usageExecute, err.Error())
			}
			return domain.ExecuteCommand{Command: command}, nil
		},
	},
}

// Catalogue는 지원하는 슬래시 명령어 목록을 반환합니다.
func Catalogue() []Spec {
	out := make([]Spec, len(catalogue))
	copy(out, catalogue)
	return out
}

// Names는 지원하는 슬래시 명령어 이름을 반환합니다.
func Names() []string {
	names := make([]string, len(catalogue))
	for i, s := range catalogue {
		names[i] = s.Name
	}
	return names
}

// Parse는 슬래시 명령어와 인자 문자열을 게임 명령어로 변환합니다.
// 변환된 명령어는 항상 domain.MaxLineLength 이하의 한 줄로 직렬화됩니다.
func Parse(name, text string) (domain.Command, error) {
	spec, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	if strings.ContainsAny(text, "\r\n") {
		return nil, errUsage(spec.Usage, "명령어는 한 줄이어야 합니다")
	}

	cmd, err := spec.parse(strings.Fields(text))
	if err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(cmd.Line()); n > domain.MaxLineLength {
		return nil, fmt.Errorf("%w: %d자 (최대 %d자)", ErrTooLong, n, domain.MaxLineLength)
	}
	return cmd, nil
}

func lookup(name string) (Spec, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	for _, s := range catalogue {
		if s.Name == strings.ToLower(name) {
			return s, true
		}
	}
	return Spec{}, false
}

func singlePlayer(usage string, build func(player string) domain.Command) func([]string) (domain.Command, error) {
	return func(args []string) (domain.Command, error) {
		if len(args) != 1 {
			return nil, errUsage(usage, "")
		}
		player, err := target(args[0], false)
		if err != nil {
			return nil, errUsage(usage, err.Error())
		}
		return build(player), nil
	}
}

// target은 플레이어 인자를 검증합니다. allowEveryone이면 "everyone"을 빈 대상으로 바꿉니다.
func target(arg string, allowEveryone bool) (string, error) {
	if allowEveryone && strings.EqualFold(arg, everyone) {
		return "", nil
	}
	if !domain.ValidUsername(arg) {
		return "", fmt.Errorf("잘못된 플레이어 이름: %q", arg)
	}
	return arg, nil
}

// freeText는 자유 문장 인자를 합친 뒤 게임이 받지 않는 문자를 제거합니다.
func freeText(args []string) (string, error) {
	text, _ := sanitize.Clean(strings.Join(args, " "))
	if text == "" {
		return "", errors.New("사용할 수 없는 문자만 입력되었습니다")
	}
	return text, nil
}

func errUsage(usage, reason string) error {
	return &UsageError{Usage: usage, Reason: reason}
}
