package domain

import "fmt"

// Describe는 이벤트를 사람이 읽을 수 있는 한 줄로 변환합니다.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case Message:
		return fmt.Sprintf("%s > %s: %s", e.Kind, e.Author, e.Content)
	case Toggle:
		if e.Online {
			return e.Member + " joined."
		}
		return e.Member + " left."
	case Join:
		return e.Member + " joined the guild!"
	case Leave:
		return e.Member + " left the guild!"
	case Kick:
		return fmt.Sprintf("%s was kicked from the guild by %s!", e.Member, e.By)
	case Promotion:
		return fmt.Sprintf("%s was promoted from %s to %s", e.Member, e.OldRank, e.NewRank)
	case Demotion:
		return fmt.Sprintf("%s was demoted from %s to %s", e.Member, e.OldRank, e.NewRank)
	case Mute:
		if e.Everyone() {
			return fmt.Sprintf("%s has muted the guild chat for %d%s", e.By, e.Length, e.Unit)
		}
		return fmt.Sprintf("%s has muted %s for %d%s", e.By, e.Member, e.Length, e.Unit)
	case Unmute:
		if e.Everyone() {
			return e.By + " has unmuted the guild chat!"
		}
		return fmt.Sprintf("%s has unmuted %s", e.By, e.Member)
	case NotInGuild:
		return e.User + " is not in your guild!"
	case NoPermission:
		return "You do not have permission to use this command!"
	case PlayerNotFound:
		return fmt.Sprintf("Can't find a player by the name of '%s'", e.User)
	case CommandDisabled:
		return "This command is currently disabled."
	case BotNotInGuild:
		return "You must be in a guild to use this command!"
	case Unknown:
		return e.Raw
	default:
		return ""
	}
}

// IsCommandResponse는 명령어 응답 계열 이벤트인지 확인합니다.
// 이런 이벤트는 명령어 상관용이며 채팅으로 중계하지 않습니다.
func IsCommandResponse(ev Event) bool {
	switch ev.(type) {
	case NotInGuild, NoPermission, PlayerNotFound, CommandDisabled, BotNotInGuild:
		return true
	}
	return false
}
