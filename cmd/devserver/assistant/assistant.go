package assistant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"ai-chat/models"
)

// Assistant 는 대화 이력과 새 사용자 메시지로 응답을 만든다.
type Assistant interface {
	Reply(ctx context.Context, history []models.Message, message string) (string, error)
	Name() string
}

// Echo 는 외부 호출 없이 받은 메시지를 되돌려 주는 어시스턴트다.
type Echo struct{}

func (Echo) Name() string { return "echo" }

func (Echo) Reply(ctx context.Context, history []models.Message, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "You said: " + message, nil
}

const SYSTEM_INSTRUCTION = `
You are a helpful assistant in a chat application.
Answer in the language the user writes in.
Markdown is rendered by the client, so you may use lists, tables and code blocks.
`

// Gemini 는 google.golang.org/genai 로 응답을 생성한다.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini 는 GEMINI_API_KEY 가 없으면 에러를 돌려준다.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

func (g *Gemini) Reply(ctx context.Context, history []models.Message, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role, ok := geminiRole(m.Role)
		if !ok || strings.TrimSpace(m.Content) == "" {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: message}}})

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SYSTEM_INSTRUCTION}}},
	})
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", errors.New("empty response from gemini")
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("empty response from gemini")
	}
	return text, nil
}

// geminiRole 은 시스템 안내 메시지를 대화 이력에서 뺀다.
func geminiRole(role models.Role) (string, bool) {
	switch role {
	case models.RoleUser:
		return "user", true
	case models.RoleAssistant:
		return "model", true
	}
	return "", false
}
