package trace

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

type ctxKey string

const ctxKeyTrace ctxKey = "trace_info"

const (
	HeaderRequestID = "X-Request-Id"
	HeaderSpanID    = "X-Span-Id"
)

// Info 는 하나의 사용자 동작(세션 선택, 메시지 전송 등)에 대한 트레이싱 정보다.
// 같은 RequestID 안에서 백엔드 호출마다 spanSeq 가 1,2,3,... 으로 증가한다.
type Info struct {
	RequestID string
	spanSeq   int64
}

// GenerateID 는 트레이싱용 랜덤 ID 를 만든다.
func GenerateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithRequestAndSpan 은 Request ID 와 초기 span 값을 담은 컨텍스트를 돌려준다.
func WithRequestAndSpan(ctx context.Context, requestID string, initialSpan int64) context.Context {
	info := &Info{RequestID: requestID, spanSeq: initialSpan}
	return context.WithValue(ctx, ctxKeyTrace, info)
}

// Ensure 는 컨텍스트에 트레이싱 정보가 없으면 새 Request ID 로 채운다.
func Ensure(ctx context.Context) context.Context {
	if infoFromContext(ctx) != nil {
		return ctx
	}
	return WithRequestAndSpan(ctx, GenerateID(), 0)
}

func infoFromContext(ctx context.Context) *Info {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(ctxKeyTrace).(*Info)
	return v
}

func RequestIDFromContext(ctx context.Context) string {
	info := infoFromContext(ctx)
	if info == nil {
		return ""
	}
	return info.RequestID
}

// CurrentSpanID 는 현재 span 값을 증가시키지 않고 돌려준다.
func CurrentSpanID(ctx context.Context) string {
	info := infoFromContext(ctx)
	if info == nil {
		return "0"
	}
	val := atomic.LoadInt64(&info.spanSeq)
	if val <= 0 {
		return "0"
	}
	return strconv.FormatInt(val, 10)
}

// NextSpanID 는 spanSeq 를 1 증가시키고 (requestID, spanID) 를 돌려준다.
func NextSpanID(ctx context.Context) (string, string) {
	info := infoFromContext(ctx)
	if info == nil {
		return GenerateID(), "1"
	}
	val := atomic.AddInt64(&info.spanSeq, 1)
	if val <= 0 {
		val = 1
	}
	return info.RequestID, strconv.FormatInt(val, 10)
}
