package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chat/models"
	"ai-chat/transport"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(ft *fakeTransport) *Client {
	return NewClient(ft, Config{Now: func() time.Time { return fixedNow }})
}

func session(id, title string) models.Session {
	return models.Session{ID: id, Title: title, UpdatedAt: fixedNow}
}

// withActiveSession 은 sessions 를 불러오고 activeID 를 선택한 상태의 클라이언트를 만든다.
func withActiveSession(t *testing.T, ft *fakeTransport, activeID string) *Client {
	t.Helper()
	c := newTestClient(ft)
	require.NoError(t, c.LoadSessions(context.Background()))
	require.NoError(t, c.SelectSession(context.Background(), activeID))
	return c
}

func roles(messages []models.Message) []models.Role {
	out := make([]models.Role, len(messages))
	for i, m := range messages {
		out[i] = m.Role
	}
	return out
}

func TestLoadSessionsReplacesWholesale(t *testing.T) {
	ft := &fakeTransport{sessions: []models.Session{session("s2", "b"), session("s1", "a")}}
	c := newTestClient(ft)

	require.NoError(t, c.LoadSessions(context.Background()))
	assert.Len(t, c.State().Sessions, 2)

	ft.sessions = []models.Session{session("s3", "c")}
	require.NoError(t, c.LoadSessions(context.Background()))

	state := c.State()
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, "s3", state.Sessions[0].ID)
}

func TestLoadSessionsFailureKeepsPriorState(t *testing.T) {
	ft := &fakeTransport{sessions: []models.Session{session("s1", "a")}}
	c := newTestClient(ft)
	require.NoError(t, c.LoadSessions(context.Background()))

	ft.listErr = errors.New("connection refused")
	err := c.LoadSessions(context.Background())

	assert.ErrorIs(t, err, ErrSessionListLoad)
	state := c.State()
	assert.Len(t, state.Sessions, 1)
	assert.Equal(t, defaultMessages.SessionListLoadFailed, state.Banner)
}

func TestSelectSessionLoadsMessages(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s1", "a"), session("s2", "b")},
		messages: map[string][]models.Message{
			"s1": {{Content: "one", Role: models.RoleUser}},
			"s2": {{Content: "two", Role: models.RoleUser}, {Content: "three", Role: models.RoleAssistant}},
		},
	}
	c := withActiveSession(t, ft, "s1")
	assert.Len(t, c.State().Messages, 1)

	require.NoError(t, c.SelectSession(context.Background(), "s2"))
	state := c.State()
	assert.Equal(t, "s2", state.ActiveSessionID)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "two", state.Messages[0].Content)
}

func TestSelectUnknownSession(t *testing.T) {
	ft := &fakeTransport{sessions: []models.Session{session("s1", "a")}}
	c := newTestClient(ft)
	require.NoError(t, c.LoadSessions(context.Background()))

	err := c.SelectSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.Empty(t, c.State().ActiveSessionID)
	assert.NotContains(t, ft.Calls(), "ListMessages")
}

func TestStartNewChatClearsActiveAndTimeline(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s1", "a")},
		messages: map[string][]models.Message{"s1": {{Content: "one", Role: models.RoleUser}}},
	}
	c := withActiveSession(t, ft, "s1")
	c.SetDraft("half typed")

	c.StartNewChat()

	state := c.State()
	assert.Empty(t, state.ActiveSessionID)
	assert.Empty(t, state.Messages)
	assert.Empty(t, state.Draft)
	assert.Len(t, state.Sessions, 1)
	assert.NotContains(t, ft.Calls(), "CreateSession")
}

func TestSendWhileSendingIsNoop(t *testing.T) {
	ft := &fakeTransport{
		sessions:    []models.Session{session("s1", "a")},
		messages:    map[string][]models.Message{},
		reply:       models.AssistantReply{Content: "done"},
		sendStarted: make(chan struct{}),
		sendRelease: make(chan struct{}),
	}
	c := withActiveSession(t, ft, "s1")
	c.SetDraft("first")

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = c.Send(context.Background())
	}()
	<-ft.sendStarted

	before := c.State()
	assert.True(t, before.Sending)
	c.SetDraft("second")
	assert.NoError(t, c.Send(context.Background()))

	after := c.State()
	assert.Len(t, after.Messages, len(before.Messages))
	assert.Equal(t, before.ActiveSessionID, after.ActiveSessionID)
	assert.Equal(t, "second", after.Draft)

	close(ft.sendRelease)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Len(t, ft.sent, 1)
	assert.False(t, c.State().Sending)
}

func TestSendWhitespaceIsNoop(t *testing.T) {
	for _, draft := range []string{"", "   ", "\n\t "} {
		ft := &fakeTransport{}
		c := newTestClient(ft)
		c.SetDraft(draft)

		assert.NoError(t, c.Send(context.Background()))
		assert.Empty(t, ft.Calls())
		assert.Empty(t, c.State().Messages)
		assert.Equal(t, draft, c.Draft())
	}
}

func TestSendWithoutSessionCreatesOneWithTitle(t *testing.T) {
	sixty := strings.Repeat("abcdef", 10)

	testCases := []struct {
		name      string
		text      string
		wantTitle string
	}{
		{name: "short message", text: "hello", wantTitle: "hello"},
		{name: "sixty characters", text: sixty, wantTitle: sixty[:50] + "..."},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ft := &fakeTransport{created: models.Session{ID: "s1"}, reply: models.AssistantReply{Content: "ok"}}
			c := newTestClient(ft)
			c.SetDraft(testCase.text)

			require.NoError(t, c.Send(context.Background()))

			assert.Equal(t, []string{testCase.wantTitle}, ft.createTitles)
			assert.Equal(t, []string{"CreateSession", "SendMessage"}, ft.Calls())
			state := c.State()
			assert.Equal(t, "s1", state.ActiveSessionID)
			require.Len(t, state.Sessions, 1)
			assert.Equal(t, testCase.wantTitle, state.Sessions[0].Title)
			assert.Equal(t, testCase.text, state.Messages[0].Content)
		})
	}
}

func TestImplicitSessionGoesToHeadAndDeduplicates(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s2", "b"), session("s1", "a")},
		created:  models.Session{ID: "s1"},
		reply:    models.AssistantReply{Content: "ok"},
	}
	c := newTestClient(ft)
	require.NoError(t, c.LoadSessions(context.Background()))
	c.SetDraft("again")

	require.NoError(t, c.Send(context.Background()))

	state := c.State()
	require.Len(t, state.Sessions, 2)
	assert.Equal(t, "s1", state.Sessions[0].ID)
	assert.Equal(t, "again", state.Sessions[0].Title)
	assert.Equal(t, "s2", state.Sessions[1].ID)
}

func TestSessionCreateFailureAbortsSend(t *testing.T) {
	ft := &fakeTransport{createErr: &transport.Error{Op: "create session", StatusCode: 500}}
	c := newTestClient(ft)
	c.SetDraft("hello")

	err := c.Send(context.Background())

	assert.ErrorIs(t, err, ErrSessionCreate)
	var chatErr *Error
	require.ErrorAs(t, err, &chatErr)
	assert.Equal(t, KindSessionCreate, chatErr.Kind)

	state := c.State()
	assert.Empty(t, state.Messages)
	assert.Empty(t, state.ActiveSessionID)
	assert.Empty(t, state.Sessions)
	assert.Equal(t, "hello", state.Draft)
	assert.False(t, state.Sending)
	assert.Equal(t, defaultMessages.SessionCreateFailed, state.Banner)
	assert.NotContains(t, ft.Calls(), "SendMessage")
}

func TestSendFailureKeepsUserMessageAndAppendsOneSystemNotice(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s1", "a")},
		messages: map[string][]models.Message{"s1": {}},
		sendErr:  &transport.Error{Op: "chat", StatusCode: 503, Message: "AI service is busy"},
	}
	c := withActiveSession(t, ft, "s1")
	c.SetDraft("Hi")

	err := c.Send(context.Background())

	assert.ErrorIs(t, err, ErrSend)
	state := c.State()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, models.Message{Content: "Hi", Role: models.RoleUser, CreatedAt: fixedNow}, state.Messages[0])
	assert.Equal(t, models.RoleSystem, state.Messages[1].Role)
	assert.Equal(t, defaultMessages.SendFailedNotice, state.Messages[1].Content)
	assert.Equal(t, "AI service is busy", state.Banner)
	assert.Empty(t, state.Draft)
	assert.False(t, state.Sending)
}

func TestSendFailureWithoutDetailUsesDefaultBanner(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s1", "a")},
		sendErr:  errors.New("connection reset"),
	}
	c := withActiveSession(t, ft, "s1")
	c.SetDraft("Hi")

	require.Error(t, c.Send(context.Background()))
	assert.Equal(t, defaultMessages.SendFailed, c.Banner())
}

func TestSendSuccessClearsPreviousBanner(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s1", "a")},
		sendErr:  errors.New("boom"),
	}
	c := withActiveSession(t, ft, "s1")
	c.SetDraft("first")
	require.Error(t, c.Send(context.Background()))
	require.NotEmpty(t, c.Banner())

	ft.sendErr = nil
	ft.reply = models.AssistantReply{Content: "fine"}
	c.SetDraft("second")
	require.NoError(t, c.Send(context.Background()))

	state := c.State()
	assert.Empty(t, state.Banner)
	assert.Equal(t,
		[]models.Role{models.RoleUser, models.RoleSystem, models.RoleUser, models.RoleAssistant},
		roles(state.Messages))
}

func TestDeleteSession(t *testing.T) {
	t.Run("active session", func(t *testing.T) {
		ft := &fakeTransport{
			sessions: []models.Session{session("s1", "a"), session("s2", "b")},
			messages: map[string][]models.Message{"s1": {{Content: "x", Role: models.RoleUser}}},
		}
		c := withActiveSession(t, ft, "s1")

		require.NoError(t, c.DeleteSession(context.Background(), "s1"))

		state := c.State()
		assert.Empty(t, state.ActiveSessionID)
		assert.Empty(t, state.Messages)
		require.Len(t, state.Sessions, 1)
		assert.Equal(t, "s2", state.Sessions[0].ID)
	})

	t.Run("inactive session", func(t *testing.T) {
		ft := &fakeTransport{
			sessions: []models.Session{session("s1", "a"), session("s2", "b")},
			messages: map[string][]models.Message{"s1": {{Content: "x", Role: models.RoleUser}}},
		}
		c := withActiveSession(t, ft, "s1")
		before := c.State().Messages

		require.NoError(t, c.DeleteSession(context.Background(), "s2"))

		state := c.State()
		assert.Equal(t, "s1", state.ActiveSessionID)
		assert.Equal(t, before, state.Messages)
	})
}

func TestDeleteSessionFailureLeavesListUnchanged(t *testing.T) {
	ft := &fakeTransport{
		sessions:  []models.Session{session("s1", "a")},
		deleteErr: &transport.Error{Op: "delete session", StatusCode: 500},
	}
	c := withActiveSession(t, ft, "s1")

	err := c.DeleteSession(context.Background(), "s1")

	assert.ErrorIs(t, err, ErrSessionDelete)
	state := c.State()
	assert.Len(t, state.Sessions, 1)
	assert.Equal(t, "s1", state.ActiveSessionID)
	assert.Equal(t, defaultMessages.SessionDeleteFailed, state.Banner)
}

func TestLoadMessagesZeroMessages(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s1", "a")},
		messages: map[string][]models.Message{"s1": {}},
	}
	c := newTestClient(ft)
	require.NoError(t, c.LoadSessions(context.Background()))

	assert.NoError(t, c.SelectSession(context.Background(), "s1"))
	state := c.State()
	assert.Empty(t, state.Messages)
	assert.Empty(t, state.Banner)
}

func TestLoadMessagesMalformedResetsWithoutError(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s1", "a")},
		messages: map[string][]models.Message{"s1": {{Content: "x", Role: models.RoleUser}}},
	}
	c := withActiveSession(t, ft, "s1")
	require.Len(t, c.State().Messages, 1)

	ft.messagesErr = transport.ErrMalformedPayload
	assert.NoError(t, c.LoadMessages(context.Background(), "s1"))
	assert.Empty(t, c.State().Messages)
	assert.Empty(t, c.Banner())
}

func TestLoadMessagesFailureResetsAndSetsBanner(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s1", "a")},
		messages: map[string][]models.Message{"s1": {{Content: "x", Role: models.RoleUser}}},
	}
	c := withActiveSession(t, ft, "s1")

	ft.messagesErr = errors.New("timeout")
	err := c.LoadMessages(context.Background(), "s1")

	assert.ErrorIs(t, err, ErrMessageLoad)
	assert.Empty(t, c.State().Messages)
	assert.Equal(t, defaultMessages.MessageLoadFailed, c.Banner())
}

func TestLoadMessagesForInactiveSessionIsDiscarded(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("s1", "a"), session("s2", "b")},
		messages: map[string][]models.Message{
			"s1": {{Content: "mine", Role: models.RoleUser}},
			"s2": {{Content: "other", Role: models.RoleUser}},
		},
	}
	c := withActiveSession(t, ft, "s1")

	require.NoError(t, c.LoadMessages(context.Background(), "s2"))
	state := c.State()
	require.Len(t, state.Messages, 1)
	assert.Equal(t, "mine", state.Messages[0].Content)
}

func TestSendTimeout(t *testing.T) {
	ft := &fakeTransport{
		sessions:    []models.Session{session("s1", "a")},
		sendStarted: make(chan struct{}, 1),
		sendRelease: make(chan struct{}),
	}
	c := NewClient(ft, Config{SendTimeout: 20 * time.Millisecond, Now: func() time.Time { return fixedNow }})
	require.NoError(t, c.LoadSessions(context.Background()))
	require.NoError(t, c.SelectSession(context.Background(), "s1"))
	c.SetDraft("slow?")

	err := c.Send(context.Background())

	assert.ErrorIs(t, err, ErrSend)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []models.Role{models.RoleUser, models.RoleSystem}, roles(c.State().Messages))
}

func TestReplyAfterSessionSwitchLandsInCurrentTimeline(t *testing.T) {
	ft := &fakeTransport{
		sessions:    []models.Session{session("s1", "a"), session("s2", "b")},
		messages:    map[string][]models.Message{"s2": {{Content: "s2 history", Role: models.RoleUser}}},
		reply:       models.AssistantReply{Content: "late reply"},
		sendStarted: make(chan struct{}),
		sendRelease: make(chan struct{}),
	}
	c := withActiveSession(t, ft, "s1")
	c.SetDraft("question")

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background()) }()
	<-ft.sendStarted

	require.NoError(t, c.SelectSession(context.Background(), "s2"))
	close(ft.sendRelease)
	require.NoError(t, <-done)

	state := c.State()
	assert.Equal(t, "s2", state.ActiveSessionID)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "s2 history", state.Messages[0].Content)
	assert.Equal(t, "late reply", state.Messages[1].Content)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	ft := &fakeTransport{created: models.Session{ID: "s1"}, reply: models.AssistantReply{Content: "Hello!"}}
	c := newTestClient(ft)

	var mu sync.Mutex
	var states []State
	unsubscribe := c.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	c.SetDraft("Hi")
	require.NoError(t, c.Send(context.Background()))

	mu.Lock()
	require.NotEmpty(t, states)
	last := states[len(states)-1]
	sawSending := false
	for _, s := range states {
		if s.Sending {
			sawSending = true
		}
	}
	count := len(states)
	mu.Unlock()

	assert.True(t, sawSending)
	assert.False(t, last.Sending)
	assert.Len(t, last.Messages, 2)

	unsubscribe()
	c.SetDraft("ignored")
	mu.Lock()
	assert.Len(t, states, count)
	mu.Unlock()
}

func TestSnapshotVersionsAreUniqueAndOrdered(t *testing.T) {
	c := newTestClient(&fakeTransport{})

	var mu sync.Mutex
	var versions []uint64
	c.Subscribe(func(s State) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})

	c.SetDraft("a")
	c.SetDraft("b")
	c.StartNewChat()
	mu.Lock()
	assert.Equal(t, []uint64{1, 2, 3}, versions)
	versions = nil
	mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SetDraft("x")
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	seen := map[uint64]bool{}
	var highest uint64
	for _, v := range versions {
		assert.False(t, seen[v], "version %d delivered twice", v)
		seen[v] = true
		highest = max(highest, v)
	}
	assert.Len(t, seen, 20)
	assert.Equal(t, c.State().Version, highest)
}

// 새 채팅의 첫 메시지는 세션을 만들고 응답까지 한 번에 이어진다.
func TestFirstMessageInNewChatCreatesSessionAndGetsReply(t *testing.T) {
	ft := &fakeTransport{created: models.Session{ID: "S1"}, reply: models.AssistantReply{Content: "Hello!"}}
	c := newTestClient(ft)

	c.StartNewChat()
	c.SetDraft("Hi")
	require.NoError(t, c.Send(context.Background()))

	state := c.State()
	assert.Equal(t, []models.Message{
		{Content: "Hi", Role: models.RoleUser, CreatedAt: fixedNow},
		{Content: "Hello!", Role: models.RoleAssistant, CreatedAt: fixedNow},
	}, state.Messages)
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, "S1", state.Sessions[0].ID)
	assert.Equal(t, []sentMessage{{Message: "Hi", SessionID: "S1"}}, ft.sent)
}

// 기존 대화에서 타임아웃이 나도 이전 기록과 사용자 메시지는 남는다.
func TestSendTimeoutKeepsHistoryOfExistingSession(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("S1", "a")},
		messages: map[string][]models.Message{"S1": {
			{Content: "q", Role: models.RoleUser},
			{Content: "a", Role: models.RoleAssistant},
		}},
		sendErr: context.DeadlineExceeded,
	}
	c := withActiveSession(t, ft, "S1")
	sessionsBefore := c.State().Sessions
	c.SetDraft("again")

	require.Error(t, c.Send(context.Background()))

	state := c.State()
	assert.Equal(t,
		[]models.Role{models.RoleUser, models.RoleAssistant, models.RoleUser, models.RoleSystem},
		roles(state.Messages))
	assert.Equal(t, "again", state.Messages[2].Content)
	assert.Equal(t, sessionsBefore, state.Sessions)
}

func TestDeletingInactiveSessionKeepsActiveTimeline(t *testing.T) {
	ft := &fakeTransport{
		sessions: []models.Session{session("S1", "a"), session("S2", "b")},
		messages: map[string][]models.Message{"S2": {{Content: "kept", Role: models.RoleUser}}},
	}
	c := withActiveSession(t, ft, "S2")
	before := c.State().Messages

	require.NoError(t, c.DeleteSession(context.Background(), "S1"))

	state := c.State()
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, "S2", state.Sessions[0].ID)
	assert.Equal(t, "S2", state.ActiveSessionID)
	assert.Equal(t, before, state.Messages)
}
