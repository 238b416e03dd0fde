package chat

import (
	"context"
	"errors"

	"ai-chat/logger"
	"ai-chat/models"
	"ai-chat/trace"
	"ai-chat/transport"
)

// Send 는 입력창 내용을 활성 세션으로 보낸다.
//
// 입력이 공백뿐이거나 이미 전송 중이면 아무 일도 하지 않고 nil 을 돌려준다.
// 활성 세션이 없으면 먼저 세션을 만들고, 실패하면 타임라인과 입력창을 건드리지 않은 채 중단한다.
// 사용자 메시지는 응답을 기다리기 전에 타임라인에 붙고 입력창은 비워진다.
// 전송이 실패해도 사용자 메시지는 남기고 시스템 안내 메시지 하나를 덧붙인다.
func (c *Client) Send(ctx context.Context) error {
	c.mu.Lock()
	text := c.draft
	if isBlank(text) || c.sending {
		c.mu.Unlock()
		return nil
	}
	c.sending = true
	sessionID := c.sessions.ActiveID()
	c.mu.Unlock()
	c.publish()

	ctx = trace.Ensure(ctx)
	sentAt := c.cfg.Now()

	if sessionID == "" {
		session, err := c.createSessionImplicit(ctx, text)
		if err != nil {
			c.update(func() { c.sending = false })
			return err
		}
		sessionID = session.ID
	}

	c.update(func() {
		c.timeline.AppendLocal(models.NewMessage(models.RoleUser, text, sentAt))
		c.draft = ""
		c.banner = ""
	})

	logger.InfoWithFields("sending message to AI", logger.Fields{
		"request_id": trace.RequestIDFromContext(ctx),
		"session_id": sessionID,
		"length":     len(text),
	})

	sendCtx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	defer cancel()
	reply, err := c.transport.SendMessage(sendCtx, text, sessionID)
	if err != nil {
		return c.failSend(ctx, sessionID, err)
	}

	// 전송 중 다른 세션으로 바뀌었다면 응답은 그때 활성인 타임라인에 붙는다.
	c.update(func() {
		c.timeline.AppendRemote(models.NewMessage(models.RoleAssistant, reply.Content, c.cfg.Now()))
		c.banner = ""
		c.sending = false
	})
	return nil
}

func (c *Client) failSend(ctx context.Context, sessionID string, err error) error {
	detail := transport.Detail(err)
	if detail == "" {
		detail = c.cfg.Messages.SendFailed
	}

	fields := logger.Fields{
		"request_id": trace.RequestIDFromContext(ctx),
		"session_id": sessionID,
		"error":      err.Error(),
	}
	if errors.Is(err, context.DeadlineExceeded) {
		logger.ErrorWithFields("AI service timeout", fields)
	} else {
		logger.ErrorWithFields("Connection error to AI service", fields)
	}

	c.update(func() {
		c.timeline.AppendLocal(models.NewMessage(models.RoleSystem, c.cfg.Messages.SendFailedNotice, c.cfg.Now()))
		c.banner = detail
		c.sending = false
	})
	return newError(KindSend, detail, err)
}

// createSessionImplicit 은 활성 세션이 없을 때 Send 에서만 호출된다.
// 첫 메시지를 잘라 제목으로 쓰고, 만든 세션을 목록 맨 앞에 넣고 활성화한다.
func (c *Client) createSessionImplicit(ctx context.Context, firstMessage string) (models.Session, error) {
	title := TruncateTitle(firstMessage, c.cfg.TitleMaxLength)
	session, err := c.transport.CreateSession(ctx, title)
	if err != nil {
		detail := c.cfg.Messages.SessionCreateFailed
		logger.ErrorWithFields("failed to create chat session", logger.Fields{
			"request_id": trace.RequestIDFromContext(ctx),
			"error":      err.Error(),
		})
		c.update(func() { c.banner = detail })
		return models.Session{}, newError(KindSessionCreate, detail, err)
	}

	c.update(func() {
		c.sessions.InsertHead(session)
		c.sessions.SetActive(session.ID)
	})
	logger.InfoWithFields("created chat session", logger.Fields{
		"request_id": trace.RequestIDFromContext(ctx),
		"session_id": session.ID,
		"title":      session.Title,
	})
	return session, nil
}
