// Package logging은 표준 출력과 회전 로그 파일에 함께 쓰는 로거를 만듭니다.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config는 로그 파일 회전 설정입니다.
type Config struct {
	Path       string // 비어있으면 표준 출력에만 씁니다
	MaxSizeMB  int    // 파일 하나의 최대 크기 (기본값: 10MB)
	MaxBackups int    // 보관할 이전 파일 수 (기본값: 5)
	MaxAgeDays int    // 이전 파일 보관 기간 (기본값: 28일)
}

// DefaultConfig는 기본 회전 설정을 반환합니다.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 28,
	}
}

// New는 로거와 파일을 닫는 io.Closer를 반환합니다.
func New(config Config) (*log.Logger, io.Closer) {
	return newWithStdout(config, os.Stdout)
}

func newWithStdout(config Config, stdout io.Writer) (*log.Logger, io.Closer) {
	if config.Path == "" {
		return log.New(stdout, "", log.LstdFlags), nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAgeDays,
		LocalTime:  true,
	}
	return log.New(io.MultiWriter(stdout, file), "", log.LstdFlags), file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
