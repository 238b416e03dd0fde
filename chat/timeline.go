package chat

import (
	"slices"

	"ai-chat/models"
)

// Timeline 은 활성 세션의 메시지 목록이다. 한 세션 안에서는 뒤에 붙이기만 한다.
type Timeline struct {
	messages []models.Message
}

// Replace 는 목록을 통째로 바꾼다. nil 이면 빈 목록이 된다.
func (t *Timeline) Replace(messages []models.Message) {
	t.messages = slices.Clone(messages)
}

// AppendLocal 은 낙관적 사용자 메시지나 로컬 시스템 안내를 붙인다.
func (t *Timeline) AppendLocal(message models.Message) {
	t.messages = append(t.messages, message)
}

// AppendRemote 는 전송 성공 후 확정된 어시스턴트 응답을 붙인다.
func (t *Timeline) AppendRemote(message models.Message) {
	t.messages = append(t.messages, message)
}

func (t *Timeline) Clear() { t.messages = nil }

func (t *Timeline) Len() int { return len(t.messages) }

func (t *Timeline) Messages() []models.Message {
	out := slices.Clone(t.messages)
	if out == nil {
		out = []models.Message{}
	}
	return out
}
