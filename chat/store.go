package chat

import (
	"slices"

	"ai-chat/models"
)

// SessionStore 는 세션 목록(최근 갱신 순)과 활성 세션 ID 를 가진다.
// activeID 가 빈 문자열이면 "새 채팅, 아직 생성 전" 상태다.
// 잠금은 소유자인 Client 가 담당한다.
type SessionStore struct {
	sessions []models.Session
	activeID string
}

// Replace 는 목록을 통째로 교체한다. 활성 세션 참조는 건드리지 않는다.
func (s *SessionStore) Replace(sessions []models.Session) {
	s.sessions = slices.Clone(sessions)
	if s.sessions == nil {
		s.sessions = []models.Session{}
	}
}

func (s *SessionStore) Sessions() []models.Session {
	out := slices.Clone(s.sessions)
	if out == nil {
		out = []models.Session{}
	}
	return out
}

func (s *SessionStore) Len() int { return len(s.sessions) }

func (s *SessionStore) index(id string) int {
	return slices.IndexFunc(s.sessions, func(session models.Session) bool { return session.ID == id })
}

func (s *SessionStore) Contains(id string) bool {
	return id != "" && s.index(id) >= 0
}

func (s *SessionStore) Get(id string) (models.Session, bool) {
	i := s.index(id)
	if i < 0 {
		return models.Session{}, false
	}
	return s.sessions[i], true
}

func (s *SessionStore) ActiveID() string { return s.activeID }

func (s *SessionStore) Active() (models.Session, bool) {
	if s.activeID == "" {
		return models.Session{}, false
	}
	return s.Get(s.activeID)
}

func (s *SessionStore) SetActive(id string) { s.activeID = id }

func (s *SessionStore) ClearActive() { s.activeID = "" }

// InsertHead 는 세션을 맨 앞에 넣는다. 같은 ID 가 이미 있으면 그 항목을 지운다.
func (s *SessionStore) InsertHead(session models.Session) {
	rest := slices.DeleteFunc(slices.Clone(s.sessions), func(existing models.Session) bool {
		return existing.ID == session.ID
	})
	s.sessions = append([]models.Session{session}, rest...)
}

// Remove 는 세션을 목록에서 지우고, 지운 세션이 활성 세션이었는지 돌려준다.
func (s *SessionStore) Remove(id string) (wasActive bool) {
	s.sessions = slices.DeleteFunc(s.sessions, func(session models.Session) bool { return session.ID == id })
	return id != "" && id == s.activeID
}
