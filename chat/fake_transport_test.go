package chat

import (
	"context"
	"sync"

	"ai-chat/models"
)

// fakeTransport 는 호출을 기록하고, 각 호출의 결과를 테스트가 정하게 한다.
type fakeTransport struct {
	mu    sync.Mutex
	calls []string

	sessions     []models.Session
	listErr      error
	created      models.Session
	createErr    error
	createTitles []string
	deleteErr    error
	messages     map[string][]models.Message
	messagesErr  error
	reply        models.AssistantReply
	sendErr      error
	sent         []sentMessage

	// sendStarted 가 있으면 SendMessage 진입 시 신호를 보내고 sendRelease 가 닫힐 때까지 기다린다.
	sendStarted chan struct{}
	sendRelease chan struct{}
}

type sentMessage struct {
	Message   string
	SessionID string
}

func (f *fakeTransport) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTransport) ListSessions(ctx context.Context) ([]models.Session, error) {
	f.record("ListSessions")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sessions, nil
}

func (f *fakeTransport) CreateSession(ctx context.Context, title string) (models.Session, error) {
	f.record("CreateSession")
	f.mu.Lock()
	f.createTitles = append(f.createTitles, title)
	f.mu.Unlock()
	if f.createErr != nil {
		return models.Session{}, f.createErr
	}
	session := f.created
	session.Title = title
	return session, nil
}

func (f *fakeTransport) DeleteSession(ctx context.Context, id string) error {
	f.record("DeleteSession")
	return f.deleteErr
}

func (f *fakeTransport) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	f.record("ListMessages")
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	return f.messages[sessionID], nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, message, sessionID string) (models.AssistantReply, error) {
	f.record("SendMessage")
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{Message: message, SessionID: sessionID})
	f.mu.Unlock()

	if f.sendStarted != nil {
		f.sendStarted <- struct{}{}
		select {
		case <-f.sendRelease:
		case <-ctx.Done():
			return models.AssistantReply{}, ctx.Err()
		}
	}
	if f.sendErr != nil {
		return models.AssistantReply{}, f.sendErr
	}
	return f.reply, nil
}
