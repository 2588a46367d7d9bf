package commands

import (
	"errors"
	"fmt"
)

// 게임 서버가 명령어를 거절했을 때의 알려진 실패입니다.
var (
	ErrNoPermission    = errors.New("봇에게 해당 명령어 권한이 없습니다")
	ErrCommandDisabled = errors.New("명령어가 비활성화되어 있습니다")
	ErrBotNotInGuild   = errors.New("봇이 길드에 속해있지 않습니다")
	ErrNotInGuild      = errors.New("대상 플레이어가 길드에 없습니다")
	ErrPlayerNotFound  = errors.New("플레이어를 찾을 수 없습니다")
)

// 명령어 입력 검증 실패입니다.
var (
	ErrUnknownCommand = errors.New("알 수 없는 명령어")
	ErrTooLong        = errors.New("명령어가 너무 깁니다")
)

// RejectedError는 정해진 이벤트 형태가 없는 자유 문장 거절 응답입니다.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "게임 서버가 거절함: " + e.Message
}

// UsageError는 슬래시 명령어 인자가 잘못되었을 때 반환됩니다.
type UsageError struct {
	Usage  string
	Reason string
}

func (e *UsageError) Error() string {
	if e.Reason == "" {
		return "사용법: " + e.Usage
	}
	return fmt.Sprintf("%s (사용법: %s)", e.Reason, e.Usage)
}
