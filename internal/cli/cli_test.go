package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/itsneyoa/bridge-rs-sub000/internal/statusserver"
	"github.com/itsneyoa/bridge-rs-sub000/internal/supervisor"
)

func testInfo() AppInfo {
	return AppInfo{
		Name:        "Bridge",
		Description: "게임 길드 ↔ Slack 브리지",
		Version:     "1.2.3",
		ConfigFile:  "config.ini",
		Commands:    []string{"/invite <player>", "/kick <player> <reason>"},
	}
}

// TestParseArgs는 옵션별 처리 여부와 출력을 테스트합니다.
func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantHandled bool
		wantParts   []string
	}{
		{"인자 없음", []string{"bridge"}, false, nil},
		{"알 수 없는 인자", []string{"bridge", "--foo"}, false, nil},
		{"도움말", []string{"bridge", "--help"}, true, []string{"Bridge", "--status", "config.ini", "/kick <player> <reason>"}},
		{"짧은 도움말", []string{"bridge", "-h"}, true, []string{"사용법"}},
		{"버전", []string{"bridge", "-v"}, true, []string{"Bridge v1.2.3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			handled, err := ParseArgs(testInfo(), tt.args, &out)

			if err != nil {
				t.Fatalf("에러가 없어야 함: %v", err)
			}
			if handled != tt.wantHandled {
				t.Errorf("handled 불일치: got %v, want %v", handled, tt.wantHandled)
			}
			for _, part := range tt.wantParts {
				if !strings.Contains(out.String(), part) {
					t.Errorf("출력에 '%s'가 없음: %s", part, out.String())
				}
			}
		})
	}
}

// TestParseArgs_Status는 상태 서버 조회를 테스트합니다.
func TestParseArgs_Status(t *testing.T) {
	// Given: 연결된 상태를 반환하는 상태 서버
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(statusserver.Status{
			Connection:  supervisor.Snapshot{State: "connected", Username: "BridgeBot"},
			QueueLength: 2,
			Uptime:      "1m0s",
			Audit:       &statusserver.AuditStatus{Count: 7},
		})
	}))
	defer server.Close()

	info := testInfo()
	info.StatusURL = server.URL + "/status"

	// When
	var out bytes.Buffer
	handled, err := ParseArgs(info, []string{"bridge", "--status"}, &out)

	// Then
	if !handled || err != nil {
		t.Fatalf("처리되어야 함: handled=%v err=%v", handled, err)
	}
	for _, part := range []string{"connected", "BridgeBot", "전송 대기: 2개", "감사 기록: 7개"} {
		if !strings.Contains(out.String(), part) {
			t.Errorf("출력에 '%s'가 없음: %s", part, out.String())
		}
	}
}

// TestParseArgs_StatusErrors는 상태 조회 실패를 테스트합니다.
func TestParseArgs_StatusErrors(t *testing.T) {
	t.Run("상태 서버 꺼짐", func(t *testing.T) {
		_, err := ParseArgs(testInfo(), []string{"bridge", "--status"}, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "STATUS_PORT") {
			t.Errorf("상태 서버 꺼짐 에러여야 함: %v", err)
		}
	})

	t.Run("HTTP 오류", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		info := testInfo()
		info.StatusURL = server.URL
		_, err := ParseArgs(info, []string{"bridge", "--status"}, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "500") {
			t.Errorf("HTTP 500 에러여야 함: %v", err)
		}
	})
}

// TestParseArgs_Check는 설정 검증 옵션을 테스트합니다.
func TestParseArgs_Check(t *testing.T) {
	t.Run("성공", func(t *testing.T) {
		info := testInfo()
		info.Check = func() error { return nil }

		var out bytes.Buffer
		handled, err := ParseArgs(info, []string{"bridge", "--check"}, &out)
		if !handled || err != nil {
			t.Fatalf("성공해야 함: handled=%v err=%v", handled, err)
		}
		if !strings.Contains(out.String(), "올바릅니다") {
			t.Errorf("성공 메시지가 없음: %s", out.String())
		}
	})

	t.Run("실패", func(t *testing.T) {
		info := testInfo()
		info.Check = func() error { return errors.New("SLACK_BOT_TOKEN 누락") }

		var out bytes.Buffer
		_, err := ParseArgs(info, []string{"bridge", "--check"}, &out)
		if err == nil {
			t.Fatal("에러가 반환되어야 함")
		}
		if !strings.Contains(out.String(), "SLACK_BOT_TOKEN 누락") {
			t.Errorf("에러 메시지가 없음: %s", out.String())
		}
	})
}

// TestGetVersion은 버전 기본값을 테스트합니다.
func TestGetVersion(t *testing.T) {
	if v := GetVersion(); v == "" {
		t.Error("버전이 비어있으면 안 됨")
	}
}
