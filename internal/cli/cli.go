// Package cli는 브리지 바이너리의 명령줄 옵션을 처리합니다.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/itsneyoa/bridge-rs-sub000/internal/statusserver"
)

// DefaultVersion은 VERSION 파일이 없을 때 쓰는 버전입니다.
const DefaultVersion = "0.1.0"

// AppInfo는 애플리케이션 정보입니다.
type AppInfo struct {
	Name        string
	Description string
	Version     string
	ConfigFile  string
	Commands    []string // 도움말에 표시할 슬래시 명령어 사용법
	StatusURL   string   // --status가 조회할 주소 (비어있으면 상태 서버 꺼짐)
	Check       func() error
}

// ParseArgs는 명령줄 인자를 처리합니다.
// --help, -h, --version, -v, --status, --check 옵션을 처리합니다.
// 이 옵션들이 사용되면 결과를 out에 출력하고 handled=true를 반환하며,
// 이때 err는 종료 코드를 결정합니다.
func ParseArgs(info AppInfo, args []string, out io.Writer) (handled bool, err error) {
	if len(args) < 2 {
		return false, nil
	}

	switch args[1] {
	case "-h", "--help":
		printHelp(info, out)
		return true, nil
	case "-v", "--version":
		fmt.Fprintf(out, "%s v%s\n", info.Name, info.Version)
		return true, nil
	case "--status":
		return true, showStatus(info, out)
	case "--check":
		return true, checkConfig(info, out)
	}

	return false, nil
}

func printHelp(info AppInfo, out io.Writer) {
	fmt.Fprintf(out, "%s - %s\n\n", info.Name, info.Description)
	fmt.Fprintf(out, "버전: %s\n\n", info.Version)
	fmt.Fprintln(out, "사용법:")
	fmt.Fprintf(out, "  %s [옵션]\n\n", strings.ToLower(info.Name))
	fmt.Fprintln(out, "옵션:")
	fmt.Fprintln(out, "  -h, --help      도움말 표시")
	fmt.Fprintln(out, "  -v, --version   버전 정보 표시")
	fmt.Fprintln(out, "  --status        실행 중인 브리지 상태 조회")
	fmt.Fprintln(out, "  --check         설정 검증 후 종료")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "설정 파일:")
	fmt.Fprintf(out, "  %s (바이너리와 같은 디렉토리)\n", info.ConfigFile)
	if len(info.Commands) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Slack 명령어:")
		for _, usage := range info.Commands {
			fmt.Fprintf(out, "  %s\n", usage)
		}
	}
}

// showStatus는 상태 서버에 접속해 연결 상태를 출력합니다.
func showStatus(info AppInfo, out io.Writer) error {
	if info.StatusURL == "" {
		return fmt.Errorf("상태 서버가 꺼져 있습니다 (STATUS_PORT=0)")
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(info.StatusURL)
	if err != nil {
		return fmt.Errorf("%s가 실행 중이 아니거나 응답하지 않습니다: %w", info.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("상태 조회 실패: HTTP %d", resp.StatusCode)
	}

	var status statusserver.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("상태 응답 파싱 실패: %w", err)
	}

	fmt.Fprintf(out, "✅ %s가 실행 중입니다. (가동 %s)\n", info.Name, status.Uptime)
	fmt.Fprintf(out, "   게임 연결: %s", status.Connection.State)
	if status.Connection.Username != "" {
		fmt.Fprintf(out, " (%s)", status.Connection.Username)
	}
	fmt.Fprintln(out)
	if status.Connection.LastReason != "" {
		fmt.Fprintf(out, "   마지막 끊김 사유: %s\n", status.Connection.LastReason)
	}
	fmt.Fprintf(out, "   전송 대기: %d개\n", status.QueueLength)
	if status.Audit != nil {
		fmt.Fprintf(out, "   감사 기록: %d개\n", status.Audit.Count)
	}
	return nil
}

func checkConfig(info AppInfo, out io.Writer) error {
	if info.Check == nil {
		return nil
	}
	if err := info.Check(); err != nil {
		fmt.Fprintf(out, "❌ 설정 오류: %v\n", err)
		return err
	}
	fmt.Fprintln(out, "✅ 설정이 올바릅니다.")
	return nil
}

// GetVersion은 VERSION 파일에서 버전을 읽습니다.
func GetVersion() string {
	paths := []string{"VERSION"}
	if exePath, err := os.Executable(); err == nil {
		paths = append([]string{filepath.Join(filepath.Dir(exePath), "VERSION")}, paths...)
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err == nil {
			if v := strings.TrimSpace(string(data)); v != "" {
				return v
			}
		}
	}

	return DefaultVersion
}
