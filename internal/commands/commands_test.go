package commands

import (
	"errors"
	"strings"
	"testing"

	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
)

// TestParse는 슬래시 명령어 변환을 테스트합니다.
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		command string
		text    string
		want    domain.Command
	}{
		{"채팅 금지", "/mute", "neyoa 10m", domain.MuteCommand{Player: "neyoa", Length: 10, Unit: domain.UnitMinute}},
		{"길드 전체 채팅 금지", "/mute", "everyone 2h", domain.MuteCommand{Length: 2, Unit: domain.UnitHour}},
		{"대문자 단위", "/mute", "neyoa 7D", domain.MuteCommand{Player: "neyoa", Length: 7, Unit: domain.UnitDay}},
		{"채팅 금지 해제", "/unmute", "neyoa", domain.UnmuteCommand{Player: "neyoa"}},
		{"길드 전체 해제", "/unmute", "Everyone", domain.UnmuteCommand{}},
		{"초대", "/invite", "neyoa", domain.InviteCommand{Player: "neyoa"}},
		{"추방", "/kick", "neyoa spamming in chat", domain.KickCommand{Player: "neyoa", Reason: "spamming in chat"}},
		{"승급", "/promote", "neyoa", domain.PromoteCommand{Player: "neyoa"}},
		{"강등", "/demote", "neyoa", domain.DemoteCommand{Player: "neyoa"}},
		{"등급 지정", "/setrank", "neyoa Senior Staff", domain.SetRankCommand{Player: "neyoa", Rank: "Senior Staff"}},
		{"임의 명령어", "/execute", "g online", domain.ExecuteCommand{Command: "g online"}},
		{"슬래시 없는 이름", "invite", "neyoa", domain.InviteCommand{Player: "neyoa"}},
		{"여분 공백", "/invite", "  neyoa  ", domain.InviteCommand{Player: "neyoa"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.command, tt.text)
			if err != nil {
				t.Fatalf("변환 실패: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

// TestParse_Invalid는 잘못된 입력 거부를 테스트합니다.
func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		command string
		text    string
	}{
		{"인자 없음", "/invite", ""},
		{"인자 과다", "/promote", "a_b c_d"},
		{"잘못된 이름", "/invite", "ne-yoa"},
		{"너무 긴 이름", "/invite", "abcdefghijklmnopq"},
		{"everyone 초대 불가", "/invite", "everyone!"},
		{"기간 없음", "/mute", "neyoa"},
		{"잘못된 기간", "/mute", "neyoa ten"},
		{"잘못된 단위", "/mute", "neyoa 10s"},
		{"기간 0", "/mute", "neyoa 0m"},
		{"기간 초과", "/mute", "neyoa 31d"},
		{"사유 없는 추방", "/kick", "neyoa"},
		{"등급 없음", "/setrank", "neyoa"},
		{"빈 명령어", "/execute", "   "},
		{"여러 줄", "/execute", "g online\ng list"},
		{"제어 문자만 있는 사유", "/kick", "neyoa \x07§"},
		{"이모지만 있는 등급", "/setrank", "neyoa 😀"},
		{"이모지만 있는 명령어", "/execute", "😀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.command, tt.text)
			var usage *UsageError
			if !errors.As(err, &usage) {
				t.Fatalf("UsageError여야 함: %v", err)
			}
			if !strings.HasPrefix(usage.Usage, tt.command) {
				t.Errorf("사용법 불일치: %q", usage.Usage)
			}
		})
	}
}

// TestParse_UnknownCommand는 모르는 명령어를 테스트합니다.
func TestParse_UnknownCommand(t *testing.T) {
	if _, err := Parse("/ban", "neyoa"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("ErrUnknownCommand여야 함: %v", err)
	}
}

// TestParse_TooLong은 직렬화 길이 제한을 넘는 입력이 panic 대신 에러가 되는지 테스트합니다.
func TestParse_TooLong(t *testing.T) {
	reason := strings.Repeat("x", domain.MaxLineLength)
	if _, err := Parse("/kick", "neyoa "+reason); !errors.Is(err, ErrTooLong) {
		t.Errorf("ErrTooLong이어야 함: %v", err)
	}
}

// TestParse_CleansFreeText는 자유 문장 인자에서 게임이 받지 않는 문자가 제거되는지 테스트합니다.
func TestParse_CleansFreeText(t *testing.T) {
	tests := []struct {
		name    string
		command string
		text    string
		want    domain.Command
	}{
		{"추방 사유의 서식 문자", "/kick", "neyoa bad§ guy", domain.KickCommand{Player: "neyoa", Reason: "bad guy"}},
		{"등급의 제어 문자", "/setrank", "neyoa Sta\x01ff", domain.SetRankCommand{Player: "neyoa", Rank: "Staff"}},
		{"명령어의 이모지", "/execute", "g online 😀", domain.ExecuteCommand{Command: "g online"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given/When: 허용되지 않는 문자가 섞인 입력 변환
			got, err := Parse(tt.command, tt.text)

			// Then: 정리된 인자만 남음
			if err != nil {
				t.Fatalf("변환 실패: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

// TestNames는 카탈로그 이름 목록을 테스트합니다.
func TestNames(t *testing.T) {
	want := []string{"/mute", "/unmute", "/invite", "/kick", "/promote", "/demote", "/setrank", "/execute"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("개수 불일치: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%d: got %s, want %s", i, got[i], want[i])
		}
	}
	for _, spec := range Catalogue() {
		if spec.Usage == "" || spec.Description == "" {
			t.Errorf("%s: 사용법/설명이 비어있음", spec.Name)
		}
	}
}

// TestUsageError_Message는 에러 메시지 형식을 테스트합니다.
func TestUsageError_Message(t *testing.T) {
	if got := (&UsageError{Usage: "/invite <player>"}).Error(); got != "사용법: /invite <player>" {
		t.Errorf("메시지 불일치: %q", got)
	}
	got := (&UsageError{Usage: "/invite <player>", Reason: "잘못된 이름"}).Error()
	if !strings.Contains(got, "잘못된 이름") || !strings.Contains(got, "/invite <player>") {
		t.Errorf("메시지 불일치: %q", got)
	}
}
