// Package transport 는 채팅 코어가 백엔드와 주고받는 호출의 계약을 정의한다.
// 실제 와이어 포맷은 구현체(httptransport)가 소유한다.
package transport

import (
	"context"
	"errors"
	"fmt"

	"ai-chat/models"
)

// Transport 는 세션 CRUD 와 채팅 호출을 수행한다.
// 인증 정보(세션 쿠키 등)는 구현체가 관리하며 코어에는 보이지 않는다.
type Transport interface {
	ListSessions(ctx context.Context) ([]models.Session, error)
	CreateSession(ctx context.Context, title string) (models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// ListMessages 는 응답이 성공 envelope + 배열이 아니면 ErrMalformedPayload 를 돌려준다.
	ListMessages(ctx context.Context, sessionID string) ([]models.Message, error)
	// SendMessage 는 오래 걸릴 수 있다. 타임아웃은 호출자가 ctx 로 정한다.
	SendMessage(ctx context.Context, message, sessionID string) (models.AssistantReply, error)
}

// ErrMalformedPayload 는 응답 본문이 기대한 형태가 아닐 때 쓰인다.
var ErrMalformedPayload = errors.New("malformed payload")

// Error 는 백엔드가 실패를 돌려준 경우다.
// Message 는 백엔드가 준 사람이 읽을 수 있는 상세 메시지이며 없을 수 있다.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Body       string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed: status=%d message=%s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: status=%d body=%s", e.Op, e.StatusCode, e.Body)
}

// Detail 은 err 체인에서 백엔드 상세 메시지를 찾는다. 없으면 빈 문자열이다.
func Detail(err error) string {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.Message
	}
	return ""
}
