package models

import "time"

// Role 은 메시지 작성 주체다.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem 은 클라이언트가 로컬에서 합성한 오류 안내 메시지다. 서버에 저장되지 않는다.
	RoleSystem Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message 는 타임라인의 한 항목이다. 위치 외의 별도 식별자는 없다.
type Message struct {
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(role Role, content string, at time.Time) Message {
	return Message{Content: content, Role: role, CreatedAt: at}
}

// AssistantReply 는 채팅 호출이 성공했을 때 돌려받는 어시스턴트 응답이다.
type AssistantReply struct {
	Content string `json:"content"`
}
