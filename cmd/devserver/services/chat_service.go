package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-chat/cmd/devserver/assistant"
	"ai-chat/models"
)

var ErrSessionNotFound = errors.New("session not found")

const defaultSessionTitle = "New chat"

type sessionRecord struct {
	session  models.Session
	messages []models.Message
}

// ChatService 는 프로세스 메모리에만 세션과 메시지를 보관하는 개발용 백엔드다.
type ChatService struct {
	mu         sync.Mutex
	sessions   map[string]*sessionRecord
	assistant  assistant.Assistant
	replyDelay time.Duration
	now        func() time.Time
}

func NewChatService(a assistant.Assistant, replyDelay time.Duration) *ChatService {
	return &ChatService{
		sessions:   map[string]*sessionRecord{},
		assistant:  a,
		replyDelay: replyDelay,
		now:        time.Now,
	}
}

// ListSessions 는 최근 갱신 순으로 세션을 돌려준다.
func (s *ChatService) ListSessions() []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Session, 0, len(s.sessions))
	for _, rec := range s.sessions {
		out = append(out, rec.session)
	}
	slices.SortFunc(out, func(a, b models.Session) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

func (s *ChatService) CreateSession(title string) models.Session {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultSessionTitle
	}
	now := s.now()
	session := models.Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionRecord{session: session}
	s.mu.Unlock()
	return session
}

func (s *ChatService) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *ChatService) ListMessages(id string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := slices.Clone(rec.messages)
	if out == nil {
		out = []models.Message{}
	}
	return out, nil
}

// Chat 은 사용자 메시지를 저장하고 어시스턴트 응답을 만들어 저장한다.
// 응답 생성 중에는 잠금을 잡지 않는다.
func (s *ChatService) Chat(ctx context.Context, sessionID, message string) (models.Message, models.Message, error) {
	s.mu.Lock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return models.Message{}, models.Message{}, ErrSessionNotFound
	}
	history := slices.Clone(rec.messages)
	userMsg := models.NewMessage(models.RoleUser, message, s.now())
	rec.messages = append(rec.messages, userMsg)
	rec.session.UpdatedAt = userMsg.CreatedAt
	s.mu.Unlock()

	if s.replyDelay > 0 {
		select {
		case <-time.After(s.replyDelay):
		case <-ctx.Done():
			return models.Message{}, models.Message{}, ctx.Err()
		}
	}

	content, err := s.assistant.Reply(ctx, history, message)
	if err != nil {
		return models.Message{}, models.Message{}, err
	}
	aiMsg := models.NewMessage(models.RoleAssistant, content, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok = s.sessions[sessionID]
	if !ok {
		return models.Message{}, models.Message{}, ErrSessionNotFound
	}
	rec.messages = append(rec.messages, aiMsg)
	rec.session.UpdatedAt = aiMsg.CreatedAt
	return userMsg, aiMsg, nil
}

func (s *ChatService) AssistantName() string {
	return s.assistant.Name()
}
