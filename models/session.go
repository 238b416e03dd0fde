package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Session 은 백엔드가 관리하는 대화 스레드다. ID 가 식별자다.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnmarshalJSON 은 id 를 불투명한 문자열로 읽는다.
// 정수 기본 키를 쓰는 백엔드는 "id": 7 처럼 숫자를 보내므로 숫자도 그대로 문자열로 받는다.
func (s *Session) UnmarshalJSON(data []byte) error {
	type alias Session
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := parseID(aux.ID)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
		return id, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("session id must be a string or number: %s", raw)
	}
	return n.String(), nil
}
