package chat

import (
	"errors"
	"fmt"
)

// ErrorKind 는 코어가 드러내는 실패의 종류다. 모두 복구 가능하다.
type ErrorKind string

const (
	KindSessionListLoad ErrorKind = "session_list_load"
	KindSessionCreate   ErrorKind = "session_create"
	KindSessionDelete   ErrorKind = "session_delete"
	KindMessageLoad     ErrorKind = "message_load"
	KindSend            ErrorKind = "send"
)

var (
	ErrSessionListLoad = errors.New("session list load failed")
	ErrSessionCreate   = errors.New("session create failed")
	ErrSessionDelete   = errors.New("session delete failed")
	ErrMessageLoad     = errors.New("message load failed")
	// ErrSend 는 전송 실패와 타임아웃을 모두 포함한다.
	ErrSend = errors.New("send failed")

	// ErrUnknownSession 은 목록에 없는 세션을 선택하려 할 때 쓰인다.
	ErrUnknownSession = errors.New("unknown session")
)

var sentinels = map[ErrorKind]error{
	KindSessionListLoad: ErrSessionListLoad,
	KindSessionCreate:   ErrSessionCreate,
	KindSessionDelete:   ErrSessionDelete,
	KindMessageLoad:     ErrMessageLoad,
	KindSend:            ErrSend,
}

// Error 는 코어 연산의 실패다. Detail 은 배너에 보여준 문구다.
// errors.Is 로 종류별 sentinel 과 transport 원인 모두에 매칭된다.
type Error struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

func newError(kind ErrorKind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
