// Package ui 는 chat.Client 를 위한 bubbletea 터미널 화면이다.
//
// 화면은 상태를 소유하지 않는다. 키 입력을 Client 호출로 바꾸고, StateMsg 가 오면 Client 의 현재 상태를 다시 읽어 그린다.
// 백엔드를 부르는 동작(전송, 선택, 삭제, 목록 갱신)은 tea.Cmd 로 돌기 때문에 전송 중에도 입력과 세션 전환이 가능하다.
package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ai-chat/chat"
	"ai-chat/models"
)

type focus int

const (
	focusInput focus = iota
	focusSessions
	focusConfirmDelete
)

// StateMsg 는 Client.Subscribe 로 받은 상태 변경 알림이다.
// 순서가 섞여 도착할 수 있으므로 이미 그린 것보다 오래된 Version 은 버린다.
type StateMsg chat.State

// opDoneMsg 는 백엔드를 부르는 동작 하나가 끝났다는 알림이다.
type opDoneMsg struct {
	op  string
	err error
}

type Model struct {
	ctx    context.Context
	client *chat.Client

	input   textinput.Model
	spinner spinner.Model

	state   chat.State
	focus   focus
	cursor  int
	pending models.Session // 삭제 확인 중인 세션
	notice  string
}

func New(ctx context.Context, client *chat.Client) Model {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "Type a message"
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = spinnerStyle

	return Model{
		ctx:     ctx,
		client:  client,
		input:   in,
		spinner: sp,
		state:   client.State(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.loadSessions())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		if msg.Version < m.state.Version {
			return m, nil
		}
		m.refresh()
		return m, nil

	case opDoneMsg:
		m.notice = ""
		// chat.Error 는 이미 배너로 상태에 반영되어 있다.
		var chatErr *chat.Error
		if msg.err != nil && !errors.As(msg.err, &chatErr) {
			m.notice = msg.op + ": " + msg.err.Error()
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.focus {
	case focusConfirmDelete:
		m.focus = focusSessions
		target := m.pending
		m.pending = models.Session{}
		if k := msg.String(); k == "y" || k == "Y" {
			return m, m.deleteSession(target.ID)
		}
		return m, nil
	case focusSessions:
		return m.handleSessionKey(msg)
	}

	switch msg.String() {
	case "tab":
		m.focus = focusSessions
		m.input.Blur()
		return m, nil
	case "ctrl+n":
		m.startNewChat()
		return m, nil
	case "enter":
		m.client.SetDraft(m.input.Value())
		return m, m.send()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.client.SetDraft(m.input.Value())
	m.refresh()
	return m, cmd
}

func (m Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "esc":
		m.focus = focusInput
		return m, m.input.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.state.Sessions)-1 {
			m.cursor++
		}
	case "n", "ctrl+n":
		m.startNewChat()
	case "r":
		return m, m.loadSessions()
	case "enter":
		if s, ok := m.selected(); ok {
			m.focus = focusInput
			m.input.Focus()
			return m, m.selectSession(s.ID)
		}
	case "d", "delete":
		if s, ok := m.selected(); ok {
			m.pending = s
			m.focus = focusConfirmDelete
		}
	}
	return m, nil
}

func (m *Model) startNewChat() {
	m.client.StartNewChat()
	m.focus = focusInput
	m.input.Focus()
	m.notice = ""
	m.refresh()
}

func (m Model) selected() (models.Session, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Sessions) {
		return models.Session{}, false
	}
	return m.state.Sessions[m.cursor], true
}

// refresh 는 Client 의 현재 상태를 다시 읽는다.
// Client 가 입력창을 비웠으면(전송 시작, 새 채팅) 입력 필드도 따라 비운다.
func (m *Model) refresh() {
	m.state = m.client.State()
	if m.state.Draft != m.input.Value() {
		m.input.SetValue(m.state.Draft)
	}
	if m.cursor >= len(m.state.Sessions) {
		m.cursor = max(len(m.state.Sessions)-1, 0)
	}
}

func (m Model) loadSessions() tea.Cmd {
	return m.run("load sessions", m.client.LoadSessions)
}

func (m Model) send() tea.Cmd {
	return m.run("send", m.client.Send)
}

func (m Model) selectSession(id string) tea.Cmd {
	client := m.client
	return m.run("select session", func(ctx context.Context) error {
		return client.SelectSession(ctx, id)
	})
}

func (m Model) deleteSession(id string) tea.Cmd {
	client := m.client
	return m.run("delete session", func(ctx context.Context) error {
		return client.DeleteSession(ctx, id)
	})
}

func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}
