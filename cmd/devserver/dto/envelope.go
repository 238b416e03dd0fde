package dto

import "ai-chat/models"

// Envelope 는 모든 응답을 감싸는 공통 형식이다.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func OK(data any) Envelope { return Envelope{Success: true, Data: data} }

func Fail(message string) Envelope { return Envelope{Success: false, Message: message} }

type CreateSessionRequestDTO struct {
	Title string `json:"title"`
}

type ChatRequestDTO struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

type ChatResponseDTO struct {
	UserMessage models.Message `json:"user_message"`
	AIMessage   models.Message `json:"ai_message"`
}
