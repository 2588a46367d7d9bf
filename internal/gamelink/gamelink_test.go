package gamelink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/itsneyoa/bridge-rs-sub000/internal/supervisor"
)

var upgrader = websocket.Upgrader{}

// newGateway는 테스트용 게이트웨이 서버를 생성합니다.
// handle은 업그레이드된 연결을 받아 시나리오를 수행합니다.
func newGateway(t *testing.T, token string, handle func(ws *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		handle(ws)
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextFrame(t *testing.T, conn supervisor.Conn) supervisor.Frame {
	t.Helper()
	select {
	case f, ok := <-conn.Frames():
		if !ok {
			t.Fatal("프레임 채널이 닫힘")
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("프레임 수신 시간 초과")
	}
	return supervisor.Frame{}
}

// TestConnector_Frames는 수신 프레임 변환을 테스트합니다.
func TestConnector_Frames(t *testing.T) {
	// Given: 로그인, 채팅, 알 수 없는 프레임, 끊김을 보내는 게이트웨이
	_, url := newGateway(t, "secret", func(ws *websocket.Conn) {
		ws.WriteJSON(wireFrame{Type: "login", Username: "BridgeBot"})
		ws.WriteJSON(wireFrame{Type: "chat", Text: "Guild > neyoa: hi"})
		ws.WriteMessage(websocket.TextMessage, []byte("not json"))
		ws.WriteJSON(wireFrame{Type: "weather"})
		ws.WriteJSON(wireFrame{Type: "disconnect", Reason: "server restart"})
		time.Sleep(100 * time.Millisecond)
	})

	c := NewConnector(Config{URL: url, Token: "secret"})

	// When
	conn, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("연결 실패: %v", err)
	}
	defer conn.Close()

	// Then
	want := []supervisor.Frame{
		{Kind: supervisor.FrameLogin, Text: "BridgeBot"},
		{Kind: supervisor.FrameChat, Text: "Guild > neyoa: hi"},
		{Kind: supervisor.FrameDisconnect, Text: "server restart"},
	}
	for i, w := range want {
		if got := nextFrame(t, conn); got != w {
			t.Errorf("%d번째 프레임 불일치: got %+v, want %+v", i, got, w)
		}
	}
}

// TestConnector_SendLine은 송신 프레임 형식을 테스트합니다.
func TestConnector_SendLine(t *testing.T) {
	received := make(chan wireFrame, 1)
	_, url := newGateway(t, "", func(ws *websocket.Conn) {
		var wf wireFrame
		if err := ws.ReadJSON(&wf); err == nil {
			received <- wf
		}
	})

	conn, err := NewConnector(Config{URL: url}).Connect(context.Background())
	if err != nil {
		t.Fatalf("연결 실패: %v", err)
	}
	defer conn.Close()

	if err := conn.SendLine("/gc hello"); err != nil {
		t.Fatalf("전송 실패: %v", err)
	}

	select {
	case wf := <-received:
		if wf.Type != "send" || wf.Text != "/gc hello" {
			t.Errorf("송신 프레임 불일치: %+v", wf)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("게이트웨이가 프레임을 받지 못함")
	}
}

// TestConnector_Unauthorized는 인증 거부가 복구 불가능한 오류인지 테스트합니다.
func TestConnector_Unauthorized(t *testing.T) {
	_, url := newGateway(t, "secret", func(ws *websocket.Conn) {})

	_, err := NewConnector(Config{URL: url, Token: "wrong"}).Connect(context.Background())

	if !errors.Is(err, supervisor.ErrFatal) {
		t.Errorf("ErrFatal이어야 함: %v", err)
	}
}

// TestConnector_Unreachable은 접속 불가가 재시도 가능한 오류인지 테스트합니다.
func TestConnector_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := NewConnector(Config{URL: url}).Connect(context.Background())

	if err == nil {
		t.Fatal("에러가 발생해야 함")
	}
	if errors.Is(err, supervisor.ErrFatal) {
		t.Errorf("재시도 가능한 오류여야 함: %v", err)
	}
}

// TestConn_ClosedByServer는 서버가 연결을 끊으면 끊김 프레임 후 채널이 닫히는지 테스트합니다.
func TestConn_ClosedByServer(t *testing.T) {
	_, url := newGateway(t, "", func(ws *websocket.Conn) {
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "maintenance"))
	})

	conn, err := NewConnector(Config{URL: url}).Connect(context.Background())
	if err != nil {
		t.Fatalf("연결 실패: %v", err)
	}
	defer conn.Close()

	f := nextFrame(t, conn)
	if f.Kind != supervisor.FrameDisconnect || f.Text != "maintenance" {
		t.Errorf("끊김 프레임 불일치: %+v", f)
	}

	select {
	case _, ok := <-conn.Frames():
		if ok {
			t.Error("채널이 닫혀야 함")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("채널이 닫히지 않음")
	}
}

// TestConn_CloseIdempotent는 Close를 여러 번 호출해도 안전한지 테스트합니다.
func TestConn_CloseIdempotent(t *testing.T) {
	_, url := newGateway(t, "", func(ws *websocket.Conn) {
		ws.ReadMessage()
	})

	conn, err := NewConnector(Config{URL: url}).Connect(context.Background())
	if err != nil {
		t.Fatalf("연결 실패: %v", err)
	}

	conn.Close()
	conn.Close()
}

// TestDecodeFrame은 프레임 디코딩을 테스트합니다.
func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name   string
		in     wireFrame
		want   supervisor.Frame
		wantOK bool
	}{
		{"로그인", wireFrame{Type: "login", Username: "Bot"}, supervisor.Frame{Kind: supervisor.FrameLogin, Text: "Bot"}, true},
		{"채팅", wireFrame{Type: "chat", Text: "a\nb"}, supervisor.Frame{Kind: supervisor.FrameChat, Text: "a\nb"}, true},
		{"끊김", wireFrame{Type: "disconnect", Reason: "x"}, supervisor.Frame{Kind: supervisor.FrameDisconnect, Text: "x"}, true},
		{"치명적", wireFrame{Type: "fatal", Reason: "bad"}, supervisor.Frame{Kind: supervisor.FrameFatal, Text: "bad"}, true},
		{"알 수 없음", wireFrame{Type: "ping"}, supervisor.Frame{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _ := json.Marshal(tt.in)
			got, ok := decodeFrame(data)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("got %+v/%v, want %+v/%v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
