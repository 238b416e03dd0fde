package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ai-chat/cmd/devserver/dto"
	"ai-chat/cmd/devserver/services"
	"ai-chat/logger"
	"ai-chat/trace"
)

// ChatHandler 는 POST /chat/chat/ 이다. 사용자 메시지를 저장하고 어시스턴트 응답을 돌려준다.
func ChatHandler(chatSvc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ChatRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			c.JSON(http.StatusBadRequest, dto.Fail("message and session_id are required"))
			return
		}

		ctx := c.Request.Context()
		fields := logger.Fields{
			"request_id": trace.RequestIDFromContext(ctx),
			"session_id": req.SessionID,
			"assistant":  chatSvc.AssistantName(),
		}
		logger.InfoWithFields("sending message to AI", fields)

		userMsg, aiMsg, err := chatSvc.Chat(ctx, req.SessionID, req.Message)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, dto.OK(dto.ChatResponseDTO{UserMessage: userMsg, AIMessage: aiMsg}))
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, dto.Fail(err.Error()))
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			fields["error"] = err.Error()
			logger.ErrorWithFields("AI service timeout", fields)
			c.JSON(http.StatusGatewayTimeout, dto.Fail("AI service timeout"))
		default:
			fields["error"] = err.Error()
			logger.ErrorWithFields("Connection error to AI service", fields)
			c.JSON(http.StatusBadGateway, dto.Fail("AI service is unavailable"))
		}
	}
}
