package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"ai-chat/cmd/devserver/handlers"
	"ai-chat/cmd/devserver/middleware"
	"ai-chat/cmd/devserver/services"
)

// New 는 채팅 백엔드 와이어 계약을 그대로 따르는 gin 엔진을 만든다.
// 경로 끝 슬래시가 계약의 일부이므로 리다이렉트 없이 정확히 매칭한다.
func New(chatSvc *services.ChatService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())
	r.RedirectTrailingSlash = false

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "assistant": chatSvc.AssistantName()})
	})

	api := r.Group("/api/chat")
	{
		api.GET("/sessions/", handlers.ListSessionsHandler(chatSvc))
		api.POST("/sessions/", handlers.CreateSessionHandler(chatSvc))
		api.DELETE("/sessions/:id/", handlers.DeleteSessionHandler(chatSvc))
		api.GET("/sessions/:id/messages/", handlers.ListMessagesHandler(chatSvc))
		api.POST("/chat/", handlers.ChatHandler(chatSvc))
	}

	return r
}

// WithCORS 는 브라우저 프런트엔드가 쿠키와 함께 호출할 수 있도록 CORS 를 붙인다.
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id", "X-Span-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Span-Id"},
		AllowCredentials: true,
	}).Handler(h)
}
