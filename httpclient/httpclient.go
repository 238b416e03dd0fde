package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"ai-chat/logger"
	"ai-chat/trace"
)

const maxBodyLog = 1024

// Config 는 채팅 백엔드 호출에 쓰는 HTTP 클라이언트 공통 설정이다.
type Config struct {
	Timeout time.Duration
	// Cookie 가 있으면 모든 요청에 Cookie 헤더로 붙는다. (예: "sessionid=...")
	Cookie string
	// Jar 는 응답의 Set-Cookie 를 보관한다. nil 이면 새 jar 를 만든다.
	Jar http.CookieJar
}

// loggingRoundTripper 는 아웃바운드 호출마다 X-Request-Id/X-Span-Id 를 붙이고 결과를 로깅한다.
type loggingRoundTripper struct {
	inner  http.RoundTripper
	cookie string
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID, spanID := trace.NextSpanID(req.Context())
	req.Header.Set(trace.HeaderRequestID, requestID)
	req.Header.Set(trace.HeaderSpanID, spanID)
	if l.cookie != "" && req.Header.Get("Cookie") == "" {
		req.Header.Set("Cookie", l.cookie)
	}

	var bodySnippet string
	if req.Body != nil {
		if bodyBytes, err := io.ReadAll(req.Body); err == nil {
			if len(bodyBytes) > maxBodyLog {
				bodySnippet = string(bodyBytes[:maxBodyLog])
			} else {
				bodySnippet = string(bodyBytes)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}
	}

	fields := logger.Fields{
		"method":     req.Method,
		"url":        req.URL.String(),
		"request_id": requestID,
		"span_id":    spanID,
	}
	if bodySnippet != "" {
		fields["body"] = bodySnippet
	}

	resp, err := l.inner.RoundTrip(req)
	fields["duration"] = time.Since(start).String()
	if err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("httpclient request failed", fields)
		return nil, err
	}

	fields["status"] = resp.StatusCode
	logger.DebugWithFields("httpclient request success", fields)
	return resp, nil
}

// BaseClient 는 http.Client 와 baseURL 을 묶어 요청 생성을 돕는다.
type BaseClient struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewBaseClient(baseURL string) *BaseClient {
	return &BaseClient{
		HTTPClient: NewDefault(),
		BaseURL:    baseURL,
	}
}

// NewBaseClientWithClient 는 이미 만든 http.Client 를 쓰는 BaseClient 를 만든다.
// httpClient 가 nil 이면 기본 클라이언트를 쓴다.
func NewBaseClientWithClient(httpClient *http.Client, baseURL string) *BaseClient {
	if httpClient == nil {
		httpClient = NewDefault()
	}
	return &BaseClient{
		HTTPClient: httpClient,
		BaseURL:    baseURL,
	}
}

// NewRequest 는 baseURL 에 relPath 를 이어 붙인 요청을 만든다.
// 백엔드 경로는 끝 슬래시가 의미가 있으므로 relPath 가 "/" 로 끝나면 그대로 유지한다.
// 쿼리는 반드시 query 인자로 넘겨야 한다.
func (c *BaseClient) NewRequest(ctx context.Context, method, relPath string, query url.Values, body io.Reader) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.Contains(relPath, "?") {
		return nil, fmt.Errorf("httpclient: relPath must not contain query string (use query parameter instead): %s", relPath)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	if relPath != "" {
		joined := path.Join(base.Path, relPath)
		if strings.HasSuffix(relPath, "/") && !strings.HasSuffix(joined, "/") {
			joined += "/"
		}
		base.Path = joined
	}
	if query != nil {
		base.RawQuery = query.Encode()
	}
	return http.NewRequestWithContext(ctx, method, base.String(), body)
}

func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	return c.HTTPClient.Do(req)
}

// New 는 주어진 설정으로 http.Client 를 만든다. Timeout 이 0 이면 10초를 쓴다.
func New(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	jar := cfg.Jar
	if jar == nil {
		// cookiejar.New 는 nil 옵션에서 에러를 돌려주지 않는다.
		jar, _ = cookiejar.New(nil)
	}

	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: &loggingRoundTripper{inner: http.DefaultTransport, cookie: cfg.Cookie},
	}
}

func NewDefault() *http.Client {
	return New(Config{})
}
