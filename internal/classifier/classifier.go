// Package classifier는 게임 채팅 한 줄을 구조화된 domain.Event로 분류합니다.
//
// 규칙은 정해진 순서대로 시도하며 처음으로 줄 전체에 매칭되는 규칙이 이깁니다.
// 일부 패턴은 서로 겹치므로 순서를 바꾸면 분류 결과가 달라집니다.
package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
)

const (
	rankPrefix = `(?:\[[^\]]+\] )?`
	rankSuffix = `(?: \[[^\]]+\])?`
	name       = `(\w{2,16})`
	player     = rankPrefix + name + rankSuffix
)

// Rule은 패턴과 추출기의 쌍입니다.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Extract func(groups []string) domain.Event
}

// rules는 분류 순서 그 자체입니다. 순서 변경은 동작 변경입니다.
var rules = []Rule{
	{
		Name:    "message",
		Pattern: regexp.MustCompile(`^(Guild|Officer) > ` + player + `: (.+)$`),
		Extract: func(g []string) domain.Event {
			kind := domain.ChatGuild
			if g[1] == "Officer" {
				kind = domain.ChatOfficer
			}
			return domain.Message{Author: g[2], Content: g[3], Kind: kind}
		},
	},
	{
		Name:    "toggle",
		Pattern: regexp.MustCompile(`^Guild > ` + name + ` (joined|left)\.$`),
		Extract: func(g []string) domain.Event {
			return domain.Toggle{Member: g[1], Online: g[2] == "joined"}
		},
	},
	{
		Name:    "join",
		Pattern: regexp.MustCompile(`^` + player + ` joined the guild!$`),
		Extract: func(g []string) domain.Event { return domain.Join{Member: g[1]} },
	},
	{
		Name:    "leave",
		Pattern: regexp.MustCompile(`^` + player + ` left the guild!$`),
		Extract: func(g []string) domain.Event { return domain.Leave{Member: g[1]} },
	},
	{
		Name:    "kick",
		Pattern: regexp.MustCompile(`^` + player + ` was kicked from the guild by ` + player + `!$`),
		Extract: func(g []string) domain.Event { return domain.Kick{Member: g[1], By: g[2]} },
	},
	{
		Name:    "promotion",
		Pattern: regexp.MustCompile(`^` + player + ` was promoted from (.+?) to (.+)$`),
		Extract: func(g []string) domain.Event {
			return domain.Promotion{Member: g[1], OldRank: g[2], NewRank: g[3]}
		},
	},
	{
		Name:    "demotion",
		Pattern: regexp.MustCompile(`^` + player + ` was demoted from (.+?) to (.+)$`),
		Extract: func(g []string) domain.Event {
			return domain.Demotion{Member: g[1], OldRank: g[2], NewRank: g[3]}
		},
	},
	// 길드 채팅 전체 뮤트는 멤버 뮤트보다 먼저 시도해야 합니다
	{
		Name:    "mute_everyone",
		Pattern: regexp.MustCompile(`^` + player + ` has muted the guild chat for (\d+)([mhd])$`),
		Extract: func(g []string) domain.Event {
			return domain.Mute{By: g[1], Length: atoi(g[2]), Unit: domain.MuteUnit(g[3])}
		},
	},
	{
		Name:    "mute_member",
		Pattern: regexp.MustCompile(`^` + player + ` has muted ` + player + ` for (\d+)([mhd])$`),
		Extract: func(g []string) domain.Event {
			return domain.Mute{Member: g[2], By: g[1], Length: atoi(g[3]), Unit: domain.MuteUnit(g[4])}
		},
	},
	{
		Name:    "unmute_everyone",
		Pattern: regexp.MustCompile(`^` + player + ` has unmuted the guild chat!$`),
		Extract: func(g []string) domain.Event { return domain.Unmute{By: g[1]} },
	},
	{
		Name:    "unmute_member",
		Pattern: regexp.MustCompile(`^` + player + ` has unmuted ` + player + `$`),
		Extract: func(g []string) domain.Event { return domain.Unmute{Member: g[2], By: g[1]} },
	},
	{
		Name:    "not_in_guild",
		Pattern: regexp.MustCompile(`^` + player + ` is not in your guild!$`),
		Extract: func(g []string) domain.Event { return domain.NotInGuild{User: g[1]} },
	},
	{
		Name:    "no_permission",
		Pattern: regexp.MustCompile(`^(?:You do not have permission to use this command!|You must be the Guild Master to use that command!)$`),
		Extract: func(g []string) domain.Event { return domain.NoPermission{} },
	},
	{
		Name:    "player_not_found",
		Pattern: regexp.MustCompile(`^Can't find a player by the name of '(\w+)'$`),
		Extract: func(g []string) domain.Event { return domain.PlayerNotFound{User: g[1]} },
	},
	{
		Name:    "command_disabled",
		Pattern: regexp.MustCompile(`^This command is currently disabled\.$`),
		Extract: func(g []string) domain.Event { return domain.CommandDisabled{} },
	},
	{
		Name:    "bot_not_in_guild",
		Pattern: regexp.MustCompile(`^You must be in a guild to use this command!$`),
		Extract: func(g []string) domain.Event { return domain.BotNotInGuild{} },
	},
}

// RuleNames는 규칙 이름을 시도 순서대로 반환합니다.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

// Classify는 채팅 한 줄을 이벤트로 분류합니다.
// 빈 줄이나 구분선은 ok=false를 반환하며 어디에도 전달되지 않아야 합니다.
// 그 외의 줄은 항상 정확히 하나의 이벤트가 됩니다.
func Classify(line string) (domain.Event, bool) {
	line = Normalize(line)
	if line == "" || IsDivider(line) {
		return nil, false
	}

	for _, r := range rules {
		if groups := r.Pattern.FindStringSubmatch(line); groups != nil {
			return r.Extract(groups), true
		}
	}
	return domain.Unknown{Raw: line}, true
}

// Split은 여러 줄로 된 채팅 페이로드를 줄 단위로 나눕니다.
// 게임 서버는 명령어 응답을 구분선 사이에 끼워 한 번에 보내기도 합니다.
func Split(payload string) []string {
	payload = strings.ReplaceAll(payload, "\r\n", "\n")
	return strings.Split(payload, "\n")
}

var formattingCode = regexp.MustCompile(`§.`)

// Normalize는 서식 코드(§x)와 앞뒤 공백을 제거합니다.
func Normalize(line string) string {
	return strings.TrimSpace(formattingCode.ReplaceAllString(line, ""))
}

const separators = "-=▬_*~"

// IsDivider는 줄 전체가 한 종류의 구분 문자로만 이루어졌는지 확인합니다.
func IsDivider(line string) bool {
	var first rune
	for i, c := range line {
		if i == 0 {
			if !strings.ContainsRune(separators, c) {
				return false
			}
			first = c
			continue
		}
		if c != first {
			return false
		}
	}
	return first != 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
