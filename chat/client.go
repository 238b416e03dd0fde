// Package chat 은 채팅 세션 목록, 활성 세션의 메시지 타임라인, 그리고 메시지 전송 프로토콜을 관리한다.
//
// Client 가 모든 상태를 소유하며, 표시 계층은 Client 의 메서드로 사용자 의도(선택, 삭제, 새 채팅, 전송)를
// 전달하고 Subscribe 로 상태 변경을 받아 다시 그린다.
//
// 상태 변경은 뮤텍스 안에서만 일어나고 백엔드 호출 동안에는 잠금을 풀어 둔다.
// 겹치는 전송은 in-flight 플래그 하나로만 막는다.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"ai-chat/logger"
	"ai-chat/models"
	"ai-chat/trace"
	"ai-chat/transport"
)

// State 는 표시 계층에 넘겨주는 상태 스냅샷이다. 슬라이스는 복사본이다.
type State struct {
	Sessions        []models.Session
	ActiveSessionID string
	Messages        []models.Message
	Draft           string
	Sending         bool
	Banner          string

	// Version 은 스냅샷을 찍은 순서다. 서로 다른 고루틴의 전이는 전달 순서가 뒤바뀔 수 있으므로
	// 구독자는 이미 본 것보다 작은 Version 을 버린다.
	Version uint64
}

// ActiveSession 은 활성 세션을 찾는다. 활성 세션이 없으면 false 다.
func (s State) ActiveSession() (models.Session, bool) {
	if s.ActiveSessionID == "" {
		return models.Session{}, false
	}
	for _, session := range s.Sessions {
		if session.ID == s.ActiveSessionID {
			return session, true
		}
	}
	return models.Session{}, false
}

type Client struct {
	transport transport.Transport
	cfg       Config

	mu       sync.Mutex
	sessions SessionStore
	timeline Timeline
	draft    string
	sending  bool
	banner   string

	subscribers map[int]func(State)
	nextSubID   int
	version     uint64
}

func NewClient(t transport.Transport, cfg Config) *Client {
	return &Client{
		transport:   t,
		cfg:         cfg.withDefaults(),
		subscribers: map[int]func(State){},
	}
}

// State 는 현재 상태의 스냅샷을 돌려준다.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Client) snapshotLocked() State {
	return State{
		Sessions:        c.sessions.Sessions(),
		ActiveSessionID: c.sessions.ActiveID(),
		Messages:        c.timeline.Messages(),
		Draft:           c.draft,
		Sending:         c.sending,
		Banner:          c.banner,
		Version:         c.version,
	}
}

// Subscribe 는 상태가 바뀔 때마다 fn 을 호출하도록 등록한다.
// fn 은 잠금 밖에서 호출되므로 Client 메서드를 다시 불러도 된다.
// 동시에 일어난 전이의 스냅샷은 순서가 섞여 도착할 수 있다. State.Version 으로 오래된 것을 거른다.
func (c *Client) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Client) publish() {
	c.mu.Lock()
	c.version++
	state := c.snapshotLocked()
	subs := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// update 는 잠금 안에서 fn 을 실행한 뒤 구독자에게 알린다.
func (c *Client) update(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
	c.publish()
}

// SetDraft 는 입력창 내용을 바꾼다.
func (c *Client) SetDraft(text string) {
	c.update(func() { c.draft = text })
}

func (c *Client) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Client) Banner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

func (c *Client) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// LoadSessions 는 세션 목록을 통째로 다시 받아온다.
// 실패하면 기존 목록은 그대로 두고 배너를 띄운다.
func (c *Client) LoadSessions(ctx context.Context) error {
	ctx = trace.Ensure(ctx)
	sessions, err := c.transport.ListSessions(ctx)
	if err != nil {
		detail := c.cfg.Messages.SessionListLoadFailed
		logger.ErrorWithFields("failed to load chat sessions", logger.Fields{
			"request_id": trace.RequestIDFromContext(ctx),
			"error":      err.Error(),
		})
		c.update(func() { c.banner = detail })
		return newError(KindSessionListLoad, detail, err)
	}

	c.update(func() { c.sessions.Replace(sessions) })
	logger.DebugWithFields("loaded chat sessions", logger.Fields{
		"request_id": trace.RequestIDFromContext(ctx),
		"count":      len(sessions),
	})
	return nil
}

// SelectSession 은 활성 세션을 바꾸고 그 세션의 메시지를 다시 읽는다.
// 이전 세션의 메시지는 즉시 비워져 두 세션의 메시지가 섞이지 않는다.
func (c *Client) SelectSession(ctx context.Context, id string) error {
	c.mu.Lock()
	if !c.sessions.Contains(id) {
		c.mu.Unlock()
		return ErrUnknownSession
	}
	c.sessions.SetActive(id)
	c.timeline.Clear()
	c.mu.Unlock()
	c.publish()

	return c.LoadMessages(ctx, id)
}

// StartNewChat 은 활성 세션 없음 상태로 돌아간다. 백엔드 세션은 첫 메시지를 보낼 때 만든다.
func (c *Client) StartNewChat() {
	c.update(func() {
		c.sessions.ClearActive()
		c.timeline.Clear()
		c.draft = ""
	})
}

// DeleteSession 은 백엔드 삭제가 성공한 뒤에만 목록에서 지운다.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	ctx = trace.Ensure(ctx)
	if err := c.transport.DeleteSession(ctx, id); err != nil {
		detail := c.cfg.Messages.SessionDeleteFailed
		logger.ErrorWithFields("failed to delete chat session", logger.Fields{
			"request_id": trace.RequestIDFromContext(ctx),
			"session_id": id,
			"error":      err.Error(),
		})
		c.update(func() { c.banner = detail })
		return newError(KindSessionDelete, detail, err)
	}

	c.update(func() {
		if c.sessions.Remove(id) {
			c.sessions.ClearActive()
			c.timeline.Clear()
		}
	})
	logger.InfoWithFields("deleted chat session", logger.Fields{
		"request_id": trace.RequestIDFromContext(ctx),
		"session_id": id,
	})
	return nil
}

// LoadMessages 는 sessionID 의 메시지로 타임라인을 교체한다.
// payload 가 비정상이면 에러 없이 빈 타임라인이 된다. 호출 실패 시에도 비우고 배너를 띄운다.
// 응답이 왔을 때 sessionID 가 더 이상 활성 세션이 아니면 결과를 버린다.
func (c *Client) LoadMessages(ctx context.Context, sessionID string) error {
	ctx = trace.Ensure(ctx)
	messages, err := c.transport.ListMessages(ctx, sessionID)

	c.mu.Lock()
	if c.sessions.ActiveID() != sessionID {
		c.mu.Unlock()
		logger.DebugWithFields("discarded messages of inactive session", logger.Fields{
			"request_id": trace.RequestIDFromContext(ctx),
			"session_id": sessionID,
		})
		return nil
	}

	var loadErr error
	switch {
	case err == nil:
		c.timeline.Replace(messages)
	case errors.Is(err, transport.ErrMalformedPayload):
		c.timeline.Replace(nil)
		logger.WarnWithFields("malformed message payload", logger.Fields{
			"request_id": trace.RequestIDFromContext(ctx),
			"session_id": sessionID,
			"error":      err.Error(),
		})
	default:
		c.timeline.Replace(nil)
		c.banner = c.cfg.Messages.MessageLoadFailed
		loadErr = newError(KindMessageLoad, c.banner, err)
		logger.ErrorWithFields("failed to load chat messages", logger.Fields{
			"request_id": trace.RequestIDFromContext(ctx),
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
	c.mu.Unlock()
	c.publish()

	return loadErr
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
