package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"

	"github.com/itsneyoa/bridge-rs-sub000/internal/bus"
	"github.com/itsneyoa/bridge-rs-sub000/internal/cli"
	"github.com/itsneyoa/bridge-rs-sub000/internal/commands"
	"github.com/itsneyoa/bridge-rs-sub000/internal/config"
	"github.com/itsneyoa/bridge-rs-sub000/internal/correlate"
	"github.com/itsneyoa/bridge-rs-sub000/internal/dispatch"
	"github.com/itsneyoa/bridge-rs-sub000/internal/domain"
	"github.com/itsneyoa/bridge-rs-sub000/internal/gamelink"
	"github.com/itsneyoa/bridge-rs-sub000/internal/handler"
	"github.com/itsneyoa/bridge-rs-sub000/internal/logging"
	"github.com/itsneyoa/bridge-rs-sub000/internal/relay"
	slackclient "github.com/itsneyoa/bridge-rs-sub000/internal/slack"
	"github.com/itsneyoa/bridge-rs-sub000/internal/statusserver"
	"github.com/itsneyoa/bridge-rs-sub000/internal/store"
	"github.com/itsneyoa/bridge-rs-sub000/internal/supervisor"
)

// auditCleanupInterval은 감사 기록 정리 주기입니다.
const auditCleanupInterval = 24 * time.Hour

func main() {
	// 설정 로드 전에는 표준 출력에만 기록
	bootLogger := log.New(os.Stdout, "", log.LstdFlags)

	// 실행 파일 디렉토리 가져오기
	exeDir, err := config.GetExecutableDir()
	if err != nil {
		bootLogger.Printf("[WARN] ⚠️ 실행 파일 디렉토리 조회 실패: %v\n", err)
		exeDir = "." // 현재 디렉토리 사용
	}

	// config.ini 파일 로드 (바이너리와 같은 위치)
	configPath := filepath.Join(exeDir, config.FileName)
	if applied, err := config.LoadEnvFile(configPath); err != nil {
		bootLogger.Printf("[WARN] ⚠️ %s 로드 실패: %v\n", config.FileName, err)
	} else if applied > 0 {
		bootLogger.Printf("[CONFIG] 설정 파일: %s (%d개 적용)\n", configPath, applied)
	}

	// 옵션 처리 (--help, --version, --status, --check)
	handled, err := cli.ParseArgs(appInfo(configPath), os.Args, os.Stdout)
	if handled {
		if err != nil {
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Fatalf("[ERROR] ❌ %v\n   설정 파일을 확인하세요: %s", err, configPath)
	}

	logger, logCloser := logging.New(logging.DefaultConfig(resolvePath(exeDir, cfg.LogFile)))
	defer logCloser.Close()

	logger.Println("====================================")
	logger.Println("   게임 길드 ↔ Slack 브리지")
	logger.Println("====================================")
	logger.Printf("[CONFIG] 실행 디렉토리: %s\n", exeDir)
	logger.Printf("[CONFIG] 게이트웨이: %s\n", cfg.GameGatewayURL)
	logger.Printf("[CONFIG] 길드 채널: %s\n", cfg.SlackGuildChannelID)
	if cfg.SlackOfficerChannelID != "" {
		logger.Printf("[CONFIG] 오피서 채널: %s\n", cfg.SlackOfficerChannelID)
	} else {
		logger.Println("[CONFIG] 오피서 채널: ❌ 비활성화")
	}
	if len(cfg.SlackOperatorIDs) > 0 {
		logger.Printf("[CONFIG] 운영자: %v\n", cfg.SlackOperatorIDs)
	} else {
		logger.Println("[CONFIG] 운영자: 제한 없음")
	}
	logger.Printf("[CONFIG] 명령어 타임아웃: %v\n", cfg.CommandTimeout)
	logger.Printf("[CONFIG] 전송 간격: %v x %d\n", cfg.DispatchTick, cfg.DispatchCooldownTicks)
	logger.Printf("[CONFIG] 재연결 대기: %v ~ %v\n", cfg.BackoffFloor, cfg.BackoffCeiling)
	logger.Println("------------------------------------")

	// 시그널 핸들링 (Ctrl+C, SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Printf("[INFO] 🛑 %v 시그널 수신, 종료 중...\n", sig)
		cancel()
	}()

	// Slack 클라이언트 생성 및 봇 확인
	slackClient := slackclient.NewSlackClient(cfg.SlackBotToken, slack.OptionAppLevelToken(cfg.SlackAppToken))
	identity, err := slackClient.AuthTest(ctx)
	if err != nil {
		logger.Fatalf("[ERROR] ❌ Slack 인증 실패: %v", err)
	}
	logger.Printf("[SLACK] 🤖 봇 사용자: %s (팀: %s)\n", identity.UserID, identity.Team)

	session := domain.NewSession()
	events := bus.New()

	// 게임 연결
	connector := gamelink.NewConnector(gamelink.Config{
		URL:   cfg.GameGatewayURL,
		Token: cfg.GameGatewayToken,
	})
	connector.SetLogger(logger)

	sup := supervisor.New(supervisor.Config{
		BackoffFloor:   cfg.BackoffFloor,
		BackoffCeiling: cfg.BackoffCeiling,
	}, connector, events, session)
	sup.SetLogger(logger)
	if cfg.SlackStatusNotices {
		sup.SetNotifier(handler.NewSlackStatusNotifier(slackClient, cfg.SlackGuildChannelID, logger))
	}

	// 명령어 전송 큐와 상관 엔진
	queue := dispatch.NewQueue(dispatch.Config{
		Tick:          cfg.DispatchTick,
		CooldownTicks: cfg.DispatchCooldownTicks,
	}, sup)
	queue.SetLogger(logger)

	engine := correlate.NewEngine(correlate.Config{Timeout: cfg.CommandTimeout}, events, queue)
	engine.SetLogger(logger)

	// 감사 기록 저장소 (실패해도 브리지는 동작)
	auditStore, err := store.NewSQLiteAuditStore(resolvePath(exeDir, cfg.AuditDBPath))
	if err != nil {
		logger.Printf("[WARN] ⚠️ 감사 기록 저장소 생성 실패, 기록 없이 진행: %v\n", err)
	} else {
		defer auditStore.Close()
	}

	commandConfig := handler.CommandHandlerConfig{
		Executor:         engine,
		Session:          session,
		Slack:            slackClient,
		GuildChannelID:   cfg.SlackGuildChannelID,
		OfficerChannelID: cfg.SlackOfficerChannelID,
		OperatorIDs:      cfg.SlackOperatorIDs,
		Logger:           logger,
	}
	if auditStore != nil {
		commandConfig.Audit = auditStore
	}
	commandHandler := handler.NewCommandHandler(commandConfig)

	listener := slackclient.NewSocketListener(slackclient.SocketListenerConfig{
		API:       slackClient.API(),
		Handler:   commandHandler,
		Channels:  cfg.Channels(),
		Commands:  commands.Names(),
		BotUserID: identity.UserID,
		Logger:    logger,
	})

	// 수동 중계 (로그 -> Slack)
	relayHandler := handler.NewChainHandler(
		handler.NewLogHandler(logger),
		handler.NewSlackRelayHandler(handler.SlackRelayHandlerConfig{
			Client:           slackClient,
			GuildChannelID:   cfg.SlackGuildChannelID,
			OfficerChannelID: cfg.SlackOfficerChannelID,
			Session:          session,
			Logger:           logger,
			Enabled:          true,
		}),
	)
	relayService := relay.NewService(relay.Config{}, events, relayHandler, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sup.Run(gctx) })
	g.Go(func() error { return queue.Run(gctx) })
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error { return relayService.Start(gctx) })

	if cfg.StatusEnabled() {
		var auditReader statusserver.AuditReader
		if auditStore != nil {
			auditReader = auditStore
		}
		statusServer := statusserver.NewServer(statusserver.ServerConfig{Port: cfg.StatusPort}, sup, queue, auditReader)
		statusServer.SetLogger(logger)
		g.Go(func() error { return statusServer.Start(gctx) })
	}

	if auditStore != nil && cfg.AuditRetentionDays > 0 {
		g.Go(func() error {
			runAuditCleanup(gctx, auditStore, cfg.AuditRetentionDays, logger)
			return nil
		})
	}

	logger.Println("[INFO] 🚀 브리지 시작")

	err = g.Wait()
	events.Close()

	switch {
	case errors.Is(err, supervisor.ErrFatal):
		logger.Printf("[ERROR] ❌ 복구 불가능한 게임 연결 오류로 종료: %v\n", err)
		os.Exit(1)
	case err != nil && !errors.Is(err, context.Canceled):
		logger.Printf("[ERROR] ❌ 서비스 에러: %v\n", err)
		os.Exit(1)
	}

	logger.Println("[INFO] 👋 브리지가 정상 종료되었습니다")
}

// appInfo는 명령줄 옵션 처리에 쓸 정보를 만듭니다.
func appInfo(configPath string) cli.AppInfo {
	var usages []string
	for _, spec := range commands.Catalogue() {
		usages = append(usages, fmt.Sprintf("%-40s %s", spec.Usage, spec.Description))
	}

	return cli.AppInfo{
		Name:        "Bridge",
		Description: "게임 길드 채팅 ↔ Slack 브리지",
		Version:     cli.GetVersion(),
		ConfigFile:  config.FileName,
		Commands:    usages,
		StatusURL:   statusURL(os.Getenv("STATUS_PORT")),
		Check: func() error {
			_, err := config.Load()
			return err
		},
	}
}

// statusURL은 STATUS_PORT 값으로 로컬 상태 서버 주소를 만듭니다.
func statusURL(port string) string {
	if port == "" {
		port = "8090"
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 {
		return ""
	}
	return "http://127.0.0.1:" + port + "/status"
}

// runAuditCleanup은 시작 시 한 번, 이후 주기적으로 오래된 감사 기록을 정리합니다.
func runAuditCleanup(ctx context.Context, auditStore *store.SQLiteAuditStore, retentionDays int, logger *log.Logger) {
	cleanup := func() {
		deleted, err := auditStore.Cleanup(retentionDays)
		if err != nil {
			logger.Printf("[AUDIT] ❌ 정리 실패: %v\n", err)
			return
		}
		if deleted > 0 {
			logger.Printf("[AUDIT] 🧹 %d일 지난 기록 %d개 정리\n", retentionDays, deleted)
		}
	}

	cleanup()

	ticker := time.NewTicker(auditCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanup()
		}
	}
}

// resolvePath는 상대 경로를 실행 디렉토리 기준으로 바꿉니다.
func resolvePath(baseDir, path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
