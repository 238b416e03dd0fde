package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-chat/cmd/devserver/assistant"
	"ai-chat/cmd/devserver/router"
	"ai-chat/cmd/devserver/services"
	"ai-chat/config"
	"ai-chat/logger"
)

// devserver 는 채팅 클라이언트를 로컬에서 끝까지 돌려 보기 위한 인메모리 백엔드다.
// GEMINI_API_KEY 가 있으면 Gemini 로, 없으면 echo 로 응답한다.
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init("LOG_LEVEL", cfg.Logging.Level, "devserver")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var a assistant.Assistant = assistant.Echo{}
	if os.Getenv("GEMINI_API_KEY") != "" {
		g, err := assistant.NewGemini(ctx, cfg.DevServer.GeminiModel)
		if err != nil {
			logger.Log.Errorf("gemini assistant unavailable, falling back to echo: %v", err)
		} else {
			a = g
		}
	}

	chatSvc := services.NewChatService(a, cfg.DevServer.ReplyDelay.Std())
	handler := router.WithCORS(router.New(chatSvc), cfg.DevServer.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.DevServer.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("devserver shutdown failed: %v", err)
		}
	}()

	logger.InfoWithFields("devserver listening", logger.Fields{
		"addr":      cfg.DevServer.Addr,
		"assistant": a.Name(),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Errorf("devserver stopped: %v", err)
		os.Exit(1)
	}
}
