package domain

// ChatKind는 게임 내 길드 채팅 채널 종류입니다.
type ChatKind int

const (
	// ChatGuild는 일반 길드 채팅입니다 (Guild >)
	ChatGuild ChatKind = iota
	// ChatOfficer는 오피서 채팅입니다 (Officer >)
	ChatOfficer
)

// String은 채널 이름을 반환합니다.
func (k ChatKind) String() string {
	switch k {
	case ChatGuild:
		return "Guild"
	case ChatOfficer:
		return "Officer"
	default:
		return "Unknown"
	}
}

// Event는 분류기가 채팅 한 줄에서 만들어낸 구조화된 이벤트입니다.
// 아래 변형 타입만 구현할 수 있으며 생성 후 변경되지 않습니다.
type Event interface {
	isEvent()
}

// Message는 길드/오피서 채널에 올라온 채팅입니다.
type Message struct {
	Author  string
	Content string
	Kind    ChatKind
}

// Toggle은 멤버의 접속/퇴장 알림입니다.
type Toggle struct {
	Member string
	Online bool
}

// Join은 멤버의 길드 가입입니다.
type Join struct {
	Member string
}

// Leave는 멤버의 길드 탈퇴입니다.
type Leave struct {
	Member string
}

// Kick은 멤버 추방입니다.
type Kick struct {
	Member string
	By     string
}

// Promotion은 멤버 승급입니다.
type Promotion struct {
	Member  string
	OldRank string
	NewRank string
}

// Demotion은 멤버 강등입니다.
type Demotion struct {
	Member  string
	OldRank string
	NewRank string
}

// Mute는 채팅 금지입니다. Member가 비어있으면 길드 채팅 전체가 대상입니다.
type Mute struct {
	Member string
	By     string
	Length int
	Unit   MuteUnit
}

// Everyone은 길드 채팅 전체 대상인지 확인합니다.
func (m Mute) Everyone() bool { return m.Member == "" }

// Unmute는 채팅 금지 해제입니다. Member가 비어있으면 길드 채팅 전체가 대상입니다.
type Unmute struct {
	Member string
	By     string
}

// Everyone은 길드 채팅 전체 대상인지 확인합니다.
func (u Unmute) Everyone() bool { return u.Member == "" }

// NotInGuild는 대상 플레이어가 길드에 없다는 응답입니다.
type NotInGuild struct {
	User string
}

// NoPermission은 봇에게 권한이 없다는 응답입니다.
type NoPermission struct{}

// PlayerNotFound는 해당 이름의 플레이어가 없다는 응답입니다.
type PlayerNotFound struct {
	User string
}

// CommandDisabled는 명령어가 비활성화되었다는 응답입니다.
type CommandDisabled struct{}

// BotNotInGuild는 봇 자신이 길드에 속해있지 않다는 응답입니다.
type BotNotInGuild struct{}

// Unknown은 어떤 규칙에도 맞지 않는 줄입니다. 원문을 그대로 담습니다.
type Unknown struct {
	Raw string
}

func (Message) isEvent()         {}
func (Toggle) isEvent()          {}
func (Join) isEvent()            {}
func (Leave) isEvent()           {}
func (Kick) isEvent()            {}
func (Promotion) isEvent()       {}
func (Demotion) isEvent()        {}
func (Mute) isEvent()            {}
func (Unmute) isEvent()          {}
func (NotInGuild) isEvent()      {}
func (NoPermission) isEvent()    {}
func (PlayerNotFound) isEvent()  {}
func (CommandDisabled) isEvent() {}
func (BotNotInGuild) isEvent()   {}
func (Unknown) isEvent()         {}
