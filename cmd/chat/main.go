package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"ai-chat/chat"
	"ai-chat/cmd/chat/ui"
	"ai-chat/config"
	"ai-chat/logger"
	"ai-chat/transport/httptransport"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()

	// stdout 은 화면 그리기에 쓰므로 로그는 파일로 보낸다.
	logPath := os.Getenv("CHAT_LOG_FILE")
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "ai-chat.log")
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger.InitWithWriter(logFile, "CHAT_LOG_LEVEL", cfg.Logging.Level, "chat")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := chat.NewClient(httptransport.New(cfg.Chat), chat.ConfigFrom(cfg))
	p := tea.NewProgram(ui.New(ctx, client), tea.WithContext(ctx))

	// 전이는 Update 안에서도 일어나므로 p.Send 가 이벤트 루프를 막지 않도록 고루틴으로 넘긴다.
	// 순서가 섞인 알림은 ui 가 Version 으로 거른다.
	unsubscribe := client.Subscribe(func(s chat.State) {
		go p.Send(ui.StateMsg(s))
	})
	defer unsubscribe()

	logger.InfoWithFields("chat client started", logger.Fields{"backend": cfg.Chat.BackendBaseURL})
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		logger.ErrorWithFields("chat client stopped", logger.Fields{"error": err.Error()})
		fmt.Fprintf(os.Stderr, "chat client stopped: %v\n", err)
		os.Exit(1)
	}
}
