package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-chat/cmd/devserver/dto"
	"ai-chat/cmd/devserver/services"
	"ai-chat/logger"
	"ai-chat/trace"
)

// ListSessionsHandler 는 GET /chat/sessions/ 이다. 최근 갱신 순 목록을 돌려준다.
func ListSessionsHandler(chatSvc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.OK(chatSvc.ListSessions()))
	}
}

// CreateSessionHandler 는 POST /chat/sessions/ 이다. 본문이 없으면 기본 제목을 쓴다.
func CreateSessionHandler(chatSvc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateSessionRequestDTO
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
				return
			}
		}

		session := chatSvc.CreateSession(req.Title)
		logger.InfoWithFields("created chat session", logger.Fields{
			"request_id": trace.RequestIDFromContext(c.Request.Context()),
			"session_id": session.ID,
		})
		c.JSON(http.StatusCreated, dto.OK(session))
	}
}

// DeleteSessionHandler 는 DELETE /chat/sessions/:id/ 이다.
func DeleteSessionHandler(chatSvc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := chatSvc.DeleteSession(c.Param("id")); err != nil {
			writeServiceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListMessagesHandler 는 GET /chat/sessions/:id/messages/ 이다.
func ListMessagesHandler(chatSvc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		messages, err := chatSvc.ListMessages(c.Param("id"))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.OK(messages))
	}
}

func writeServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, dto.Fail(err.Error()))
		return
	}
	c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
}
