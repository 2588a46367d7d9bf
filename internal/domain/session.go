package domain

import "sync/atomic"

// Session은 게임 접속 세션 상태입니다.
// 로그인할 때마다 supervisor가 갱신하고 나머지는 읽기만 합니다.
type Session struct {
	username atomic.Pointer[string]
}

// NewSession은 빈 세션을 생성합니다.
func NewSession() *Session {
	return &Session{}
}

// Login은 로그인한 봇의 닉네임을 기록합니다.
func (s *Session) Login(username string) {
	s.username.Store(&username)
}

// Username은 현재 봇 닉네임을 반환합니다. 로그인 전이면 빈 문자열입니다.
func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	if p := s.username.Load(); p != nil {
		return *p
	}
	return ""
}
