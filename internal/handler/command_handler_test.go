package handler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/itsneyoa/bridge-rs-sub000/internal/commands"
	"github.com/itsneyoa/bridge-rs-sub000/internal/correlate"
	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
	slackclient "github.com/itsneyoa/bridge-rs-sub000/internal/slack"
	"github.com/itsneyoa/bridge-rs-sub000/internal/store"
)

// fakeExecutor는 실행된 명령어를 기록하고 정해진 결과를 반환합니다.
type fakeExecutor struct {
	mu     sync.Mutex
	cmds   []domain.Command
	ids    []string
	detail string
	err    error
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd domain.Command, match correlate.Predicate) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	f.ids = append(f.ids, correlate.RequestID(ctx))
	return f.detail, f.err
}

type fakeResponse struct {
	url       string
	text      string
	inChannel bool
}

// fakeResponder는 Slack 반응과 명령어 응답을 기록합니다.
type fakeResponder struct {
	mu        sync.Mutex
	names     map[string]string
	nameErr   error
	reactions []string
	responses []fakeResponse
}

func (f *fakeResponder) AddReaction(ctx context.Context, channelID, timestamp, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, name)
	return nil
}

func (f *fakeResponder) RespondToCommand(ctx context.Context, responseURL, text string, inChannel bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{url: responseURL, text: text, inChannel: inChannel})
	return nil
}

func (f *fakeResponder) DisplayName(ctx context.Context, userID string) (string, error) {
	if f.nameErr != nil {
		return "", f.nameErr
	}
	return f.names[userID], nil
}

// fakeAudit는 감사 기록을 메모리에 보관합니다.
type fakeAudit struct {
	entries []store.AuditEntry
}

func (f *fakeAudit) Record(ctx context.Context, entry store.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func newTestCommandHandler(exec *fakeExecutor, resp *fakeResponder, audit *fakeAudit, operators []string) (*CommandHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	session := domain.NewSession()
	session.Login("BridgeBot")

	config := CommandHandlerConfig{
		Executor:         exec,
		Session:          session,
		Slack:            resp,
		GuildChannelID:   "CGUILD",
		OfficerChannelID: "COFFICER",
		OperatorIDs:      operators,
		Logger:           log.New(&buf, "", 0),
	}
	if audit != nil {
		config.Audit = audit
	}
	return NewCommandHandler(config), &buf
}

func slash(name, text string) slackclient.IncomingCommand {
	return slackclient.IncomingCommand{
		Name:        name,
		Text:        text,
		UserID:      "U1",
		UserName:    "alice",
		ChannelID:   "CGUILD",
		ResponseURL: "https://hooks.example/respond",
	}
}

// TestCommandHandler_HandleMessage는 Slack 메시지 중계와 반응을 테스트합니다.
func TestCommandHandler_HandleMessage(t *testing.T) {
	tests := []struct {
		name          string
		channelID     string
		text          string
		execErr       error
		wantLine      string
		wantReactions []string
	}{
		{
			name:          "길드 채널 성공",
			channelID:     "CGUILD",
			text:          "hello",
			wantLine:      "/gc alice: hello",
			wantReactions: []string{ReactionSuccess},
		},
		{
			name:          "오피서 채널",
			channelID:     "COFFICER",
			text:          "secret",
			wantLine:      "/oc alice: secret",
			wantReactions: []string{ReactionSuccess},
		},
		{
			name:          "정리된 본문은 경고 반응 추가",
			channelID:     "CGUILD",
			text:          "hi 👋",
			wantLine:      "/gc alice: hi",
			wantReactions: []string{ReactionSanitized, ReactionSuccess},
		},
		{
			name:          "시간 초과",
			channelID:     "CGUILD",
			text:          "hello",
			execErr:       correlate.ErrTimeout,
			wantLine:      "/gc alice: hello",
			wantReactions: []string{ReactionTimeout},
		},
		{
			name:          "게임 거절",
			channelID:     "CGUILD",
			text:          "hello",
			execErr:       commands.ErrNoPermission,
			wantLine:      "/gc alice: hello",
			wantReactions: []string{ReactionFailure},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			exec := &fakeExecutor{err: tt.execErr}
			resp := &fakeResponder{names: map[string]string{"U1": "alice"}}
			h, _ := newTestCommandHandler(exec, resp, nil, nil)

			// When
			h.HandleMessage(context.Background(), slackclient.IncomingMessage{
				ChannelID: tt.channelID, UserID: "U1", Text: tt.text, Timestamp: "1.0",
			})

			// Then
			if len(exec.cmds) != 1 {
				t.Fatalf("명령어 1개가 실행되어야 함: %d", len(exec.cmds))
			}
			if got := domain.Serialize(exec.cmds[0]); got != tt.wantLine {
				t.Errorf("게임 줄 불일치: got %q, want %q", got, tt.wantLine)
			}
			if strings.Join(resp.reactions, ",") != strings.Join(tt.wantReactions, ",") {
				t.Errorf("반응 불일치: got %v, want %v", resp.reactions, tt.wantReactions)
			}
		})
	}
}

// TestCommandHandler_HandleMessage_EmptyAfterSanitize는 정리 후 빈 메시지를 보내지 않는지 테스트합니다.
func TestCommandHandler_HandleMessage_EmptyAfterSanitize(t *testing.T) {
	exec := &fakeExecutor{}
	resp := &fakeResponder{names: map[string]string{"U1": "alice"}}
	h, _ := newTestCommandHandler(exec, resp, nil, nil)

	h.HandleMessage(context.Background(), slackclient.IncomingMessage{
		ChannelID: "CGUILD", UserID: "U1", Text: "👋🎉", Timestamp: "1.0",
	})

	if len(exec.cmds) != 0 {
		t.Errorf("실행되면 안 됨: %v", exec.cmds)
	}
	if len(resp.reactions) != 1 || resp.reactions[0] != ReactionSanitized {
		t.Errorf("경고 반응만 있어야 함: %v", resp.reactions)
	}
}

// TestCommandHandler_HandleMessage_NameFallback은 이름 조회 실패 시 사용자 ID를 쓰는지 테스트합니다.
func TestCommandHandler_HandleMessage_NameFallback(t *testing.T) {
	exec := &fakeExecutor{}
	resp := &fakeResponder{nameErr: errors.New("users.info 실패")}
	h, buf := newTestCommandHandler(exec, resp, nil, nil)

	h.HandleMessage(context.Background(), slackclient.IncomingMessage{
		ChannelID: "CGUILD", UserID: "U1", Text: "hello", Timestamp: "1.0",
	})

	if got := domain.Serialize(exec.cmds[0]); got != "/gc U1: hello" {
		t.Errorf("사용자 ID가 작성자여야 함: %q", got)
	}
	if !strings.Contains(buf.String(), "표시 이름 조회 실패") {
		t.Errorf("경고 로그가 없음: %s", buf.String())
	}
}

// TestBuildChatMessage는 한 줄 길이 제한 안에 메시지를 맞추는지 테스트합니다.
func TestBuildChatMessage(t *testing.T) {
	t.Run("긴 본문은 줄 제한에 맞춰 잘림", func(t *testing.T) {
		cmd, changed := buildChatMessage("alice", strings.Repeat("a", 400), domain.ChatGuild)

		if !changed {
			t.Error("잘린 본문은 변경으로 표시되어야 함")
		}
		if n := utf8.RuneCountInString(cmd.Line()); n != domain.MaxLineLength {
			t.Errorf("줄 길이가 최대값이어야 함: %d", n)
		}
	})

	t.Run("긴 작성자 이름 제한", func(t *testing.T) {
		cmd, _ := buildChatMessage(strings.Repeat("b", 50), "hi", domain.ChatGuild)

		if n := utf8.RuneCountInString(cmd.Author); n > maxAuthorLength {
			t.Errorf("작성자 길이 초과: %d", n)
		}
	})

	t.Run("빈 작성자는 기본값 사용", func(t *testing.T) {
		cmd, changed := buildChatMessage("🎉", "hi", domain.ChatOfficer)

		if cmd.Author != "slack" {
			t.Errorf("기본 작성자여야 함: %q", cmd.Author)
		}
		if changed {
			t.Error("본문은 바뀌지 않았음")
		}
	})
}

// TestCommandHandler_HandleCommand는 슬래시 명령어 실행과 응답을 테스트합니다.
func TestCommandHandler_HandleCommand(t *testing.T) {
	tests := []struct {
		name          string
		command       string
		text          string
		detail        string
		execErr       error
		wantExecuted  bool
		wantInChannel bool
		wantParts     []string
		wantStatus    string
	}{
		{
			name:          "성공",
			command:       "/invite",
			text:          "neyoa",
			detail:        "neyoa님을 초대했습니다.",
			wantExecuted:  true,
			wantInChannel: true,
			wantParts:     []string{"✅", "/g invite neyoa", "초대했습니다"},
			wantStatus:    correlate.StatusSuccess.String(),
		},
		{
			name:         "시간 초과",
			command:      "/promote",
			text:         "neyoa",
			execErr:      correlate.ErrTimeout,
			wantExecuted: true,
			wantParts:    []string{"⌛", "/g promote neyoa", "시간 초과"},
			wantStatus:   correlate.StatusTimeout.String(),
		},
		{
			name:         "게임 거절",
			command:      "/kick",
			text:         "neyoa spam",
			execErr:      &commands.RejectedError{Message: "You cannot kick this player!"},
			wantExecuted: true,
			wantParts:    []string{"❌", "/g kick neyoa spam", "You cannot kick this player!"},
			wantStatus:   correlate.StatusFailure.String(),
		},
		{
			name:         "알려진 실패",
			command:      "/demote",
			text:         "neyoa",
			execErr:      commands.ErrNotInGuild,
			wantExecuted: true,
			wantParts:    []string{"❌", "/g demote neyoa", commands.ErrNotInGuild.Error()},
			wantStatus:   correlate.StatusFailure.String(),
		},
		{
			name:      "잘못된 사용법",
			command:   "/kick",
			text:      "neyoa",
			wantParts: []string{"⚠️", "사용법"},
		},
		{
			name:      "알 수 없는 명령어",
			command:   "/ban",
			text:      "neyoa",
			wantParts: []string{"⚠️", commands.ErrUnknownCommand.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			exec := &fakeExecutor{detail: tt.detail, err: tt.execErr}
			resp := &fakeResponder{}
			audit := &fakeAudit{}
			h, _ := newTestCommandHandler(exec, resp, audit, nil)

			// When
			h.HandleCommand(context.Background(), slash(tt.command, tt.text))

			// Then: 실행 여부
			if executed := len(exec.cmds) == 1; executed != tt.wantExecuted {
				t.Fatalf("실행 여부 불일치: got %v, want %v", executed, tt.wantExecuted)
			}

			// Then: 응답
			if len(resp.responses) != 1 {
				t.Fatalf("응답 1개가 있어야 함: %+v", resp.responses)
			}
			got := resp.responses[0]
			if got.inChannel != tt.wantInChannel {
				t.Errorf("inChannel 불일치: got %v, want %v", got.inChannel, tt.wantInChannel)
			}
			for _, part := range tt.wantParts {
				if !strings.Contains(got.text, part) {
					t.Errorf("응답에 '%s'가 없음: %s", part, got.text)
				}
			}

			// Then: 감사 기록은 실행된 명령어만
			if !tt.wantExecuted {
				if len(audit.entries) != 0 {
					t.Errorf("기록되면 안 됨: %+v", audit.entries)
				}
				return
			}
			if len(audit.entries) != 1 {
				t.Fatalf("기록 1개가 있어야 함: %+v", audit.entries)
			}
			entry := audit.entries[0]
			if entry.Status != tt.wantStatus {
				t.Errorf("상태 불일치: got %s, want %s", entry.Status, tt.wantStatus)
			}
			if entry.Operator != "alice (U1)" {
				t.Errorf("운영자 불일치: %s", entry.Operator)
			}
			if entry.Command != domain.Serialize(exec.cmds[0]) {
				t.Errorf("명령어 불일치: %s", entry.Command)
			}
			if entry.ID == "" || entry.ID != exec.ids[0] {
				t.Errorf("기록 ID가 실행 요청 ID와 같아야 함: %q != %q", entry.ID, exec.ids[0])
			}
		})
	}
}

// TestCommandHandler_HandleCommand_Operators는 운영자 허용 목록을 테스트합니다.
func TestCommandHandler_HandleCommand_Operators(t *testing.T) {
	t.Run("허용 목록에 없는 사용자", func(t *testing.T) {
		exec := &fakeExecutor{}
		resp := &fakeResponder{}
		h, buf := newTestCommandHandler(exec, resp, nil, []string{"U2"})

		h.HandleCommand(context.Background(), slash("/invite", "neyoa"))

		if len(exec.cmds) != 0 {
			t.Error("권한 없는 사용자의 명령어가 실행됨")
		}
		if len(resp.responses) != 1 || resp.responses[0].inChannel {
			t.Errorf("본인에게만 거절 응답이 가야 함: %+v", resp.responses)
		}
		if !strings.Contains(buf.String(), "권한 없는 사용자") {
			t.Errorf("로그가 없음: %s", buf.String())
		}
	})

	t.Run("허용 목록에 있는 사용자", func(t *testing.T) {
		exec := &fakeExecutor{}
		resp := &fakeResponder{}
		h, _ := newTestCommandHandler(exec, resp, nil, []string{"U1"})

		h.HandleCommand(context.Background(), slash("/invite", "neyoa"))

		if len(exec.cmds) != 1 {
			t.Error("허용된 사용자의 명령어가 실행되어야 함")
		}
	})
}

// TestCommandHandler_HandleCommand_Canceled는 종료 중에는 응답하지 않는지 테스트합니다.
func TestCommandHandler_HandleCommand_Canceled(t *testing.T) {
	exec := &fakeExecutor{err: context.Canceled}
	resp := &fakeResponder{}
	audit := &fakeAudit{}
	h, _ := newTestCommandHandler(exec, resp, audit, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.HandleCommand(ctx, slash("/invite", "neyoa"))

	if len(resp.responses) != 0 || len(audit.entries) != 0 {
		t.Errorf("취소 후에는 응답/기록하지 않아야 함: %+v %+v", resp.responses, audit.entries)
	}
}

// TestFormatResult는 결과 문장을 테스트합니다.
func TestFormatResult(t *testing.T) {
	if got := formatResult("/g invite neyoa", "", nil); got != "✅ `/g invite neyoa` 완료" {
		t.Errorf("빈 상세 결과 불일치: %q", got)
	}
	if got := formatResult("/g kick a b", "", &commands.RejectedError{Message: "<nope>"}); !strings.Contains(got, "&lt;nope&gt;") {
		t.Errorf("거절 메시지는 이스케이프되어야 함: %q", got)
	}
}
