// Package gamelink는 게임 게이트웨이와 웹소켓으로 통신하는 supervisor.Connector 구현입니다.
//
// 게이트웨이는 JSON 프레임을 주고받습니다.
//
//	수신: {"type":"login","username":"..."} {"type":"chat","text":"..."}
//	      {"type":"disconnect","reason":"..."} {"type":"fatal","reason":"..."}
//	송신: {"type":"send","text":"..."}
package gamelink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/itsneyoa/bridge-rs-sub000/internal/supervisor"
)

const (
	// DefaultHandshakeTimeout은 웹소켓 핸드셰이크 제한 시간입니다.
	DefaultHandshakeTimeout = 15 * time.Second
	writeTimeout            = 10 * time.Second
	frameBuffer             = 64
)

// wireFrame은 게이트웨이 JSON 프레임입니다.
type wireFrame struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Config는 게이트웨이 접속 설정입니다.
type Config struct {
	URL              string        // ws:// 또는 wss:// 주소
	Token            string        // Bearer 토큰 (선택)
	HandshakeTimeout time.Duration // 핸드셰이크 제한 시간 (기본: 15초)
}

// Connector는 게이트웨이에 웹소켓 연결을 엽니다.
type Connector struct {
	config Config
	dialer *websocket.Dialer
	logger *log.Logger
}

// NewConnector는 새 Connector를 생성합니다.
func NewConnector(config Config) *Connector {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}

	return &Connector{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
		},
	}
}

// SetLogger는 로거를 설정합니다.
func (c *Connector) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// Connect는 게이트웨이에 연결합니다.
// 인증이 거부되면(401/403) supervisor.ErrFatal을 감싸서 반환합니다.
func (c *Connector) Connect(ctx context.Context) (supervisor.Conn, error) {
	header := http.Header{}
	if c.config.Token != "" {
		header.Set("Authorization", "Bearer "+c.config.Token)
	}

	ws, resp, err := c.dialer.DialContext(ctx, c.config.URL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: 게이트웨이 인증 거부 (HTTP %d)", supervisor.ErrFatal, resp.StatusCode)
		}
		return nil, fmt.Errorf("게이트웨이 연결 실패: %w", err)
	}

	conn := &Conn{
		ws:     ws,
		frames: make(chan supervisor.Frame, frameBuffer),
		done:   make(chan struct{}),
		logger: c.logger,
	}
	go conn.readLoop()

	return conn, nil
}

// Conn은 열린 게이트웨이 연결입니다.
type Conn struct {
	ws     *websocket.Conn
	frames chan supervisor.Frame
	done   chan struct{}
	logger *log.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Frames는 수신 프레임 채널을 반환합니다. 연결이 끝나면 닫힙니다.
func (c *Conn) Frames() <-chan supervisor.Frame {
	return c.frames
}

// SendLine은 채팅 한 줄을 전송합니다.
func (c *Conn) SendLine(text string) error {
	data, err := json.Marshal(wireFrame{Type: "send", Text: text})
	if err != nil {
		return fmt.Errorf("프레임 인코딩 실패: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("게이트웨이 전송 실패: %w", err)
	}
	return nil
}

// Close는 연결을 닫습니다. 여러 번 호출해도 안전합니다.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.ws.Close()
	})
	return err
}

func (c *Conn) readLoop() {
	defer close(c.frames)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			reason := "게이트웨이 연결 종료"
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Text != "" {
				reason = closeErr.Text
			}
			c.emit(supervisor.Frame{Kind: supervisor.FrameDisconnect, Text: reason})
			return
		}

		frame, ok := decodeFrame(data)
		if !ok {
			c.logf("[GAMELINK] ⚠️ 알 수 없는 프레임 무시: %s", truncate(string(data), 120))
			continue
		}
		if !c.emit(frame) {
			return
		}
	}
}

// emit은 프레임을 전달합니다. 연결이 닫혔으면 false를 반환합니다.
func (c *Conn) emit(frame supervisor.Frame) bool {
	select {
	case c.frames <- frame:
		return true
	case <-c.done:
		return false
	}
}

func (c *Conn) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// decodeFrame은 게이트웨이 JSON 프레임을 supervisor.Frame으로 변환합니다.
func decodeFrame(data []byte) (supervisor.Frame, bool) {
	var wf wireFrame
	if err := json.Unmarshal(data, &wf); err != nil {
		return supervisor.Frame{}, false
	}

	switch wf.Type {
	case "login":
		return supervisor.Frame{Kind: supervisor.FrameLogin, Text: wf.Username}, true
	case "chat":
		return supervisor.Frame{Kind: supervisor.FrameChat, Text: wf.Text}, true
	case "disconnect":
		return supervisor.Frame{Kind: supervisor.FrameDisconnect, Text: wf.Reason}, true
	case "fatal":
		return supervisor.Frame{Kind: supervisor.FrameFatal, Text: wf.Reason}, true
	default:
		return supervisor.Frame{}, false
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
