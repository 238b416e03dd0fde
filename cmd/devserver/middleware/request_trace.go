package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"ai-chat/logger"
	"ai-chat/trace"
)

// RequestTrace 는 인바운드 요청마다 Request ID 를 보장하고 완료 로그를 남긴다.
// 클라이언트가 보낸 X-Request-Id 가 있으면 그대로 이어 쓴다.
func RequestTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		requestID := req.Header.Get(trace.HeaderRequestID)
		if requestID == "" {
			requestID = trace.GenerateID()
		}
		spanID := req.Header.Get(trace.HeaderSpanID)
		if spanID == "" {
			spanID = "0"
		}

		c.Request = req.WithContext(trace.WithRequestAndSpan(req.Context(), requestID, 0))
		c.Writer.Header().Set(trace.HeaderRequestID, requestID)
		c.Writer.Header().Set(trace.HeaderSpanID, spanID)

		c.Next()

		logger.InfoWithFields("completed request", logger.Fields{
			"method":     req.Method,
			"path":       req.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"request_id": requestID,
			"span_id":    spanID,
		})
	}
}
