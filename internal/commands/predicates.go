package commands

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/itsneyoa/bridge-rs-sub000/internal/correlate"
	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
)

// rankedName은 등급 태그가 붙을 수 있는 특정 플레이어 이름 패턴입니다.
func rankedName(name string) string {
	return `(?:\[[^\]]+\] )?(?i:` + regexp.QuoteMeta(name) + `)(?: \[[^\]]+\])?`
}

// line은 줄 전체에 매칭되는 패턴을 만듭니다. %s 자리에는 플레이어 이름 패턴이 들어갑니다.
func line(format string, names ...string) *regexp.Regexp {
	args := make([]interface{}, len(names))
	for i, n := range names {
		args[i] = rankedName(n)
	}
	return regexp.MustCompile(`^` + fmt.Sprintf(format, args...) + `$`)
}

// literal은 고정 문장에 매칭되는 패턴을 만듭니다.
func literal(text string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(text) + `$`)
}

// matcher는 명령어 하나의 성공/실패 판정 규칙입니다.
type matcher struct {
	// player는 대상 플레이어입니다. 비어있으면 플레이어 관련 실패 응답을 보지 않습니다.
	player     string
	success    func(ev domain.Event) (string, bool)
	accepted   []*regexp.Regexp
	rejections []*regexp.Regexp
}

func (m matcher) predicate() correlate.Predicate {
	return func(ev domain.Event) (correlate.Reply, bool) {
		if m.success != nil {
			if detail, ok := m.success(ev); ok {
				return correlate.Reply{Detail: detail}, true
			}
		}
		if err := knownFailure(ev, m.player); err != nil {
			return correlate.Reply{Err: err}, true
		}

		u, ok := ev.(domain.Unknown)
		if !ok {
			return correlate.Reply{}, false
		}
		for _, re := range m.accepted {
			if re.MatchString(u.Raw) {
				return correlate.Reply{Detail: u.Raw}, true
			}
		}
		for _, re := range m.rejections {
			if re.MatchString(u.Raw) {
				return correlate.Reply{Err: &RejectedError{Message: u.Raw}}, true
			}
		}
		return correlate.Reply{}, false
	}
}

// knownFailure는 명령어 종류와 무관한 거절 응답을 에러로 변환합니다.
// 해당하지 않으면 nil을 반환합니다.
func knownFailure(ev domain.Event, player string) error {
	switch e := ev.(type) {
	case domain.NoPermission:
		return ErrNoPermission
	case domain.CommandDisabled:
		return ErrCommandDisabled
	case domain.BotNotInGuild:
		return ErrBotNotInGuild
	case domain.NotInGuild:
		if player != "" && strings.EqualFold(e.User, player) {
			return fmt.Errorf("%w: %s", ErrNotInGuild, e.User)
		}
	case domain.PlayerNotFound:
		if player != "" && strings.EqualFold(e.User, player) {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, e.User)
		}
	}
	return nil
}

// Predicate는 명령어의 결과 이벤트를 판별하는 correlate.Predicate를 반환합니다.
// 봇 닉네임은 판별 시점에 session에서 읽습니다.
func Predicate(cmd domain.Command, session *domain.Session) correlate.Predicate {
	bot := func(name string) bool {
		return strings.EqualFold(name, session.Username())
	}

	switch c := cmd.(type) {
	case domain.ChatMessage:
		return chatMatcher(c, bot).predicate()
	case domain.MuteCommand:
		return muteMatcher(c, bot).predicate()
	case domain.UnmuteCommand:
		return unmuteMatcher(c, bot).predicate()
	case domain.InviteCommand:
		return inviteMatcher(c).predicate()
	case domain.KickCommand:
		return kickMatcher(c).predicate()
	case domain.PromoteCommand:
		return promoteMatcher(c).predicate()
	case domain.DemoteCommand:
		return demoteMatcher(c).predicate()
	case domain.SetRankCommand:
		return setRankMatcher(c).predicate()
	case domain.ExecuteCommand:
		return executePredicate(bot)
	}
	return func(domain.Event) (correlate.Reply, bool) { return correlate.Reply{}, false }
}

func chatMatcher(c domain.ChatMessage, bot func(string) bool) matcher {
	want := c.Author + ": " + c.Content
	return matcher{
		success: func(ev domain.Event) (string, bool) {
			m, ok := ev.(domain.Message)
			return "", ok && m.Kind == c.Kind && bot(m.Author) && m.Content == want
		},
		rejections: []*regexp.Regexp{
			literal("You cannot say the same message twice!"),
			literal("You don't have access to the officer chat!"),
			regexp.MustCompile(`^You're currently guild muted for .+!$`),
			regexp.MustCompile(`^The guild chat is currently muted`),
		},
	}
}

func muteMatcher(c domain.MuteCommand, bot func(string) bool) matcher {
	return matcher{
		player: c.Player,
		success: func(ev domain.Event) (string, bool) {
			m, ok := ev.(domain.Mute)
			if !ok || !bot(m.By) || !strings.EqualFold(m.Member, c.Player) {
				return "", false
			}
			if m.Everyone() {
				return fmt.Sprintf("길드 채팅 전체를 %d%s 동안 채팅 금지했습니다", m.Length, m.Unit), true
			}
			return fmt.Sprintf("%s님을 %d%s 동안 채팅 금지했습니다", m.Member, m.Length, m.Unit), true
		},
		rejections: []*regexp.Regexp{
			literal("This player is already muted!"),
			literal("The guild chat is already muted!"),
			literal("You cannot mute yourself from the guild!"),
			literal("You cannot mute a guild member with a higher guild rank!"),
			literal("You cannot mute someone for more than one month"),
			literal("You cannot mute someone for less than a minute"),
		},
	}
}

func unmuteMatcher(c domain.UnmuteCommand, bot func(string) bool) matcher {
	return matcher{
		player: c.Player,
		success: func(ev domain.Event) (string, bool) {
			u, ok := ev.(domain.Unmute)
			if !ok || !bot(u.By) || !strings.EqualFold(u.Member, c.Player) {
				return "", false
			}
			if u.Everyone() {
				return "길드 채팅 금지를 해제했습니다", true
			}
			return fmt.Sprintf("%s님의 채팅 금지를 해제했습니다", u.Member), true
		},
		rejections: []*regexp.Regexp{
			literal("This player is not muted!"),
			literal("The guild chat is not muted!"),
		},
	}
}

func inviteMatcher(c domain.InviteCommand) matcher {
	return matcher{
		player: c.Player,
		accepted: []*regexp.Regexp{
			line(`You invited %s to your guild\. They have 5 minutes to accept\.`, c.Player),
			line(`You sent an offline invite to %s! They will have 5 minutes to accept once they come online!`, c.Player),
		},
		rejections: []*regexp.Regexp{
			line(`%s is already in (?:another|your) guild!`, c.Player),
			line(`You've already invited %s to your guild! Wait for them to accept!`, c.Player),
			literal("You cannot invite this player to your guild!"),
			literal("Your guild is full!"),
		},
	}
}

func kickMatcher(c domain.KickCommand) matcher {
	return matcher{
		player: c.Player,
		success: func(ev domain.Event) (string, bool) {
			k, ok := ev.(domain.Kick)
			if !ok || !strings.EqualFold(k.Member, c.Player) {
				return "", false
			}
			return fmt.Sprintf("%s님을 길드에서 추방했습니다", k.Member), true
		},
		rejections: []*regexp.Regexp{
			literal("You cannot kick yourself from the guild!"),
			literal("You cannot kick this player!"),
			regexp.MustCompile(`^You can only kick players with a lower rank`),
		},
	}
}

func promoteMatcher(c domain.PromoteCommand) matcher {
	return matcher{
		player: c.Player,
		success: func(ev domain.Event) (string, bool) {
			p, ok := ev.(domain.Promotion)
			if !ok || !strings.EqualFold(p.Member, c.Player) {
				return "", false
			}
			return fmt.Sprintf("%s님을 %s에서 %s(으)로 승급했습니다", p.Member, p.OldRank, p.NewRank), true
		},
		rejections: []*regexp.Regexp{
			line(`%s is already the highest rank you've created!`, c.Player),
			regexp.MustCompile(`^You can only promote up to your own rank!$`),
		},
	}
}

func demoteMatcher(c domain.DemoteCommand) matcher {
	return matcher{
		player: c.Player,
		success: func(ev domain.Event) (string, bool) {
			d, ok := ev.(domain.Demotion)
			if !ok || !strings.EqualFold(d.Member, c.Player) {
				return "", false
			}
			return fmt.Sprintf("%s님을 %s에서 %s(으)로 강등했습니다", d.Member, d.OldRank, d.NewRank), true
		},
		rejections: []*regexp.Regexp{
			line(`%s is already the lowest rank you've created!`, c.Player),
			regexp.MustCompile(`^You can only demote up to your own rank!$`),
		},
	}
}

func setRankMatcher(c domain.SetRankCommand) matcher {
	return matcher{
		player: c.Player,
		success: func(ev domain.Event) (string, bool) {
			var member, oldRank, newRank string
			switch e := ev.(type) {
			case domain.Promotion:
				member, oldRank, newRank = e.Member, e.OldRank, e.NewRank
			case domain.Demotion:
				member, oldRank, newRank = e.Member, e.OldRank, e.NewRank
			default:
				return "", false
			}
			if !strings.EqualFold(member, c.Player) || !strings.EqualFold(newRank, c.Rank) {
				return "", false
			}
			return fmt.Sprintf("%s님의 등급을 %s에서 %s(으)로 변경했습니다", member, oldRank, newRank), true
		},
		rejections: []*regexp.Regexp{
			regexp.MustCompile(`^I couldn't find a rank by the name of '.+'!$`),
			literal("They already have that rank!"),
			regexp.MustCompile(`^You can only (?:promote|demote) up to your own rank!$`),
		},
	}
}

// executePredicate는 임의 명령어의 결과로 전송 후 처음 도착한 응답성 이벤트를 받아들입니다.
// 다른 플레이어의 채팅과 접속 알림은 결과가 아니므로 계속 기다립니다.
func executePredicate(bot func(string) bool) correlate.Predicate {
	return func(ev domain.Event) (correlate.Reply, bool) {
		switch e := ev.(type) {
		case domain.Message:
			if !bot(e.Author) {
				return correlate.Reply{}, false
			}
		case domain.Toggle:
			return correlate.Reply{}, false
		}
		return correlate.Reply{Detail: domain.Describe(ev)}, true
	}
}
