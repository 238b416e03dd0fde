package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ai-chat/models"
)

const helpText = "enter send · tab chats · ctrl+n new chat · ctrl+c quit"
const sessionsHelpText = "↑/↓ move · enter open · n new · d delete · r reload · tab back"

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("AI Chat"))
	b.WriteString("\n\n")
	b.WriteString(m.sessionsView())
	b.WriteString("\n")

	for _, msg := range m.state.Messages {
		b.WriteString(roleStyle(msg.Role).Render(FormatMessage(msg)))
		b.WriteString("\n")
	}
	if m.state.Sending {
		b.WriteString(m.spinner.View() + " assistant is typing...\n")
	}
	if m.state.Banner != "" {
		b.WriteString(errorStyle.Render("! " + m.state.Banner))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(errorStyle.Render("! " + m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch m.focus {
	case focusConfirmDelete:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %q? (y/N)", m.pending.Title)))
	case focusSessions:
		b.WriteString(helpStyle.Render(sessionsHelpText))
	default:
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(helpText))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) sessionsView() string {
	var b strings.Builder
	b.WriteString(subHeaderStyle.Render("Chats"))
	b.WriteString("\n")
	if len(m.state.Sessions) == 0 {
		b.WriteString(helpStyle.Render("no chats yet"))
		b.WriteString("\n")
		return b.String()
	}

	for i, s := range m.state.Sessions {
		cursor := "  "
		if m.focus != focusInput && i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%d. %s", i+1, s.Title)
		if !s.UpdatedAt.IsZero() {
			line += "  " + helpStyle.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		if s.ID == m.state.ActiveSessionID {
			line = activeStyle.Render("* ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(cursor + line + "\n")
	}
	return b.String()
}

func roleStyle(role models.Role) lipgloss.Style {
	switch role {
	case models.RoleUser:
		return userStyle
	case models.RoleAssistant:
		return assistantStyle
	default:
		return systemStyle
	}
}

// FormatMessage 는 타임라인 한 줄을 만든다.
func FormatMessage(m models.Message) string {
	stamp := ""
	if !m.CreatedAt.IsZero() {
		stamp = m.CreatedAt.Local().Format("15:04") + " "
	}
	switch m.Role {
	case models.RoleUser:
		return stamp + "you: " + m.Content
	case models.RoleAssistant:
		return stamp + "assistant: " + m.Content
	default:
		return stamp + "[" + string(m.Role) + "] " + m.Content
	}
}
