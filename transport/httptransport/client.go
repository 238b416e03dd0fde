// Package httptransport 는 채팅 백엔드 HTTP API 를 호출하는 transport.Transport 구현이다.
//
// 모든 응답은 {"success": bool, "data": ..., "message": string} envelope 으로 감싸져 있다.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"

	"ai-chat/config"
	"ai-chat/httpclient"
	"ai-chat/models"
	"ai-chat/transport"
)

const maxBodySize = 5 * 1024 * 1024

type Client struct {
	base *httpclient.BaseClient
	// chat 은 어시스턴트 응답을 기다리는 긴 타임아웃 전용 클라이언트다.
	chat *httpclient.BaseClient
}

var _ transport.Transport = (*Client)(nil)

// -------------------- DTOs --------------------

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	AIMessage *models.AssistantReply `json:"ai_message"`
}

// New 는 설정의 백엔드 주소와 타임아웃으로 클라이언트를 만든다.
// 두 내부 클라이언트는 쿠키 jar 를 공유한다.
func New(cfg config.ChatConfig) *Client {
	jar, _ := cookiejar.New(nil)
	requestTimeout := cfg.RequestTimeout.Std()
	if requestTimeout <= 0 {
		requestTimeout = config.DefaultRequestTimeout
	}
	sendTimeout := cfg.SendTimeout.Std()
	if sendTimeout <= 0 {
		sendTimeout = config.DefaultSendTimeout
	}

	base := httpclient.New(httpclient.Config{Timeout: requestTimeout, Cookie: cfg.SessionCookie, Jar: jar})
	chat := httpclient.New(httpclient.Config{Timeout: sendTimeout, Cookie: cfg.SessionCookie, Jar: jar})
	return NewWithClients(base, chat, cfg.BackendBaseURL)
}

func NewWithClients(base, chat *http.Client, baseURL string) *Client {
	return &Client{
		base: httpclient.NewBaseClientWithClient(base, baseURL),
		chat: httpclient.NewBaseClientWithClient(chat, baseURL),
	}
}

// ListSessions 는 GET /chat/sessions/ 를 호출한다. data 가 비어 있으면 빈 목록이다.
func (c *Client) ListSessions(ctx context.Context) ([]models.Session, error) {
	env, err := c.call(ctx, c.base, "list sessions", http.MethodGet, "/chat/sessions/", nil, false)
	if err != nil {
		return nil, err
	}

	sessions := []models.Session{}
	if isEmptyData(env.Data) {
		return sessions, nil
	}
	if err := json.Unmarshal(env.Data, &sessions); err != nil {
		return nil, fmt.Errorf("list sessions: %w: %v", transport.ErrMalformedPayload, err)
	}
	return sessions, nil
}

// CreateSession 은 POST /chat/sessions/ 를 호출한다.
func (c *Client) CreateSession(ctx context.Context, title string) (models.Session, error) {
	env, err := c.call(ctx, c.base, "create session", http.MethodPost, "/chat/sessions/", CreateSessionRequest{Title: title}, true)
	if err != nil {
		return models.Session{}, err
	}

	var session models.Session
	if isEmptyData(env.Data) {
		return models.Session{}, fmt.Errorf("create session: %w: missing data", transport.ErrMalformedPayload)
	}
	if err := json.Unmarshal(env.Data, &session); err != nil {
		return models.Session{}, fmt.Errorf("create session: %w: %v", transport.ErrMalformedPayload, err)
	}
	if session.ID == "" {
		return models.Session{}, fmt.Errorf("create session: %w: missing id", transport.ErrMalformedPayload)
	}
	return session, nil
}

// DeleteSession 은 DELETE /chat/sessions/{id}/ 를 호출한다.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	relPath := path.Join("/chat/sessions", url.PathEscape(id)) + "/"
	_, err := c.call(ctx, c.base, "delete session", http.MethodDelete, relPath, nil, true)
	return err
}

// ListMessages 는 GET /chat/sessions/{id}/messages/ 를 호출한다.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	relPath := path.Join("/chat/sessions", url.PathEscape(sessionID), "messages") + "/"
	env, err := c.call(ctx, c.base, "list messages", http.MethodGet, relPath, nil, false)
	if err != nil {
		return nil, err
	}
	if !env.Success || isEmptyData(env.Data) {
		return nil, fmt.Errorf("list messages: %w", transport.ErrMalformedPayload)
	}

	var messages []models.Message
	if err := json.Unmarshal(env.Data, &messages); err != nil {
		return nil, fmt.Errorf("list messages: %w: %v", transport.ErrMalformedPayload, err)
	}
	return messages, nil
}

// SendMessage 는 POST /chat/chat/ 를 긴 타임아웃 클라이언트로 호출한다.
func (c *Client) SendMessage(ctx context.Context, message, sessionID string) (models.AssistantReply, error) {
	env, err := c.call(ctx, c.chat, "chat", http.MethodPost, "/chat/chat/", ChatRequest{Message: message, SessionID: sessionID}, true)
	if err != nil {
		return models.AssistantReply{}, err
	}

	var out ChatResponse
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return models.AssistantReply{}, fmt.Errorf("chat: %w: %v", transport.ErrMalformedPayload, err)
	}
	if out.AIMessage == nil {
		return models.AssistantReply{}, fmt.Errorf("chat: %w: missing ai_message", transport.ErrMalformedPayload)
	}
	return *out.AIMessage, nil
}

// call 은 요청을 보내고 envelope 을 디코드한다.
// 2xx 가 아니면 *transport.Error 를 돌려준다. requireSuccess 이면 success=false 도 실패다.
func (c *Client) call(ctx context.Context, bc *httpclient.BaseClient, op, method, relPath string, payload any, requireSuccess bool) (envelope, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return envelope{}, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := bc.NewRequest(ctx, method, relPath, nil, body)
	if err != nil {
		return envelope{}, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := bc.Do(req)
	if err != nil {
		return envelope{}, err
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if readErr != nil {
		return envelope{}, fmt.Errorf("%s response read failed: %w", op, readErr)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		tErr := &transport.Error{Op: op, StatusCode: resp.StatusCode, Body: snippet(raw)}
		if decodeErr == nil {
			tErr.Message = env.Message
		}
		return envelope{}, tErr
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return envelope{Success: true}, nil
	}
	if decodeErr != nil {
		return envelope{}, fmt.Errorf("%s: %w: %v", op, transport.ErrMalformedPayload, decodeErr)
	}
	if requireSuccess && !env.Success {
		return envelope{}, &transport.Error{Op: op, StatusCode: resp.StatusCode, Message: env.Message, Body: snippet(raw)}
	}
	return env, nil
}

func isEmptyData(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func snippet(raw []byte) string {
	const maxSnippet = 2048
	if len(raw) > maxSnippet {
		return string(raw[:maxSnippet])
	}
	return string(raw)
}
