package chat

import (
	"time"

	"ai-chat/config"
)

const titleEllipsis = "..."

// Config 는 Client 의 정책 값이다. 0 값은 기본값으로 채워진다.
type Config struct {
	// SendTimeout 은 채팅 호출 하나를 기다리는 최대 시간이다.
	SendTimeout    time.Duration
	TitleMaxLength int
	Messages       config.MessagesConfig
	// Now 는 메시지 생성 시각에 쓰인다. 테스트에서 고정할 수 있다.
	Now func() time.Time
}

var defaultMessages = config.MessagesConfig{
	SessionListLoadFailed: "Failed to load chats",
	SessionCreateFailed:   "Failed to create a new chat",
	SessionDeleteFailed:   "Failed to delete the chat",
	MessageLoadFailed:     "Failed to load messages",
	SendFailed:            "Sending the message failed",
	SendFailedNotice:      "Sorry, something went wrong while sending your message. Please try again.",
}

// ConfigFrom 은 애플리케이션 설정에서 Client 설정을 만든다.
func ConfigFrom(app config.AppConfig) Config {
	return Config{
		SendTimeout:    app.Chat.SendTimeout.Std(),
		TitleMaxLength: app.Chat.TitleMaxLength,
		Messages:       app.Messages,
	}
}

func (c Config) withDefaults() Config {
	if c.SendTimeout <= 0 {
		c.SendTimeout = config.DefaultSendTimeout
	}
	if c.TitleMaxLength <= 0 {
		c.TitleMaxLength = config.DefaultTitleMaxLength
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	m := &c.Messages
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.SessionListLoadFailed, defaultMessages.SessionListLoadFailed)
	fill(&m.SessionCreateFailed, defaultMessages.SessionCreateFailed)
	fill(&m.SessionDeleteFailed, defaultMessages.SessionDeleteFailed)
	fill(&m.MessageLoadFailed, defaultMessages.MessageLoadFailed)
	fill(&m.SendFailed, defaultMessages.SendFailed)
	fill(&m.SendFailedNotice, defaultMessages.SendFailedNotice)
	return c
}

// TruncateTitle 은 첫 메시지로 세션 제목을 만든다.
// maxLen 글자(코드 포인트)를 넘으면 앞 maxLen 글자에 "..." 을 붙인다.
func TruncateTitle(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + titleEllipsis
}
