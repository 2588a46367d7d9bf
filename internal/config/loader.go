// Package config는 설정 파일 로드와 환경변수 기반 설정 파싱을 담당합니다.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName은 바이너리 옆에 두는 설정 파일 이름입니다.
const FileName = "config.ini"

// GetExecutableDir은 실행 바이너리가 있는 디렉토리 경로를 반환합니다.
func GetExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	// 심볼릭 링크 해결
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath는 바이너리 옆의 config.ini 경로를 반환합니다.
// 실행 파일 위치를 알 수 없으면 현재 디렉토리 기준입니다.
func DefaultPath() string {
	dir, err := GetExecutableDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, FileName)
}

// LoadEnvFile은 KEY=VALUE 형식의 설정 파일을 환경변수로 로드합니다.
// 파일이 없으면 무시하며, 이미 설정된 환경변수는 덮어쓰지 않습니다.
// 반환값은 새로 설정한 키 개수입니다.
func LoadEnvFile(filePath string) (int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil // 파일 없으면 무시
		}
		return 0, fmt.Errorf("설정 파일 열기 실패: %w", err)
	}
	defer file.Close()

	applied := 0
	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return applied, fmt.Errorf("%s:%d 환경변수 설정 실패: %w", filePath, lineNo, err)
		}
		applied++
	}

	if err := scanner.Err(); err != nil {
		return applied, fmt.Errorf("설정 파일 읽기 실패: %w", err)
	}
	return applied, nil
}

// parseLine은 한 줄을 키/값으로 나눕니다. 빈 줄, 주석, 섹션 헤더는 ok=false입니다.
func parseLine(raw string) (key, value string, ok bool) {
	line := strings.TrimSpace(raw)

	// 빈 줄, 주석, [섹션] 무시
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "[") {
		return "", "", false
	}

	line = strings.TrimPrefix(line, "export ")

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}

	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return "", "", false
	}

	// 따옴표가 없으면 뒤쪽 인라인 주석 제거
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	} else if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}

	return key, value, true
}
