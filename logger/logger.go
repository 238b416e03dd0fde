package logger

import (
	"io"
	"os"
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Logger 는 채팅 클라이언트와 개발용 백엔드가 공유하는 최소 로거 인터페이스다.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Fields 는 구조화 로그 필드다.
type Fields map[string]any

// Log 는 전역 로거다. Init 이 호출되지 않아도 info 레벨로 동작한다.
var Log Logger = NewLogger("info")

// serviceName 은 모든 구조화 로그에 붙는 service_name 값이다.
var serviceName string

// Init 은 envKey 환경변수가 있으면 그 값을, 없으면 fallback 레벨을 사용해 전역 로거를 다시 만든다.
// service 는 SERVICE_NAME 환경변수가 비어 있을 때 service_name 필드로 쓰인다.
func Init(envKey, fallback, service string) {
	serviceName = service
	Log = NewLogger(resolveLevel(envKey, fallback))
}

// InitWithWriter 는 Init 과 같지만 콘솔 대신 w 로 출력한다.
// 터미널 UI 처럼 stdout 을 화면 그리기에 쓰는 프로세스용이다.
func InitWithWriter(w io.Writer, envKey, fallback, service string) {
	serviceName = service
	Log = NewWriterLogger(w, resolveLevel(envKey, fallback))
}

func resolveLevel(envKey, fallback string) string {
	level := strings.ToLower(os.Getenv(envKey))
	if level == "" {
		level = strings.ToLower(fallback)
	}
	if level == "" {
		level = "info"
	}
	return level
}

// NewLogger 는 주어진 레벨 이상을 JSON 으로 콘솔에 출력하는 gookit/slog 로거를 만든다.
func NewLogger(level string) Logger {
	h := handler.NewConsoleHandler(levelsUpTo(level))
	h.SetFormatter(newJSONFormatter())
	return slog.NewWithHandlers(h)
}

func NewWriterLogger(w io.Writer, level string) Logger {
	h := handler.NewIOWriterHandler(w, levelsUpTo(level))
	h.SetFormatter(newJSONFormatter())
	return slog.NewWithHandlers(h)
}

func levelsUpTo(level string) slog.Levels {
	logLevel := slog.LevelByName(level)

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}
	return levels
}

func newJSONFormatter() *slog.JSONFormatter {
	return slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
		f.Fields = []string{
			slog.FieldKeyDatetime,
			slog.FieldKeyLevel,
			slog.FieldKeyMessage,
		}
		f.Aliases = slog.StringMap{
			slog.FieldKeyDatetime: "datetime",
			slog.FieldKeyLevel:    "level",
			slog.FieldKeyMessage:  "message",
		}
		f.TimeFormat = "2006-01-02T15:04:05"
	})
}

func withServiceName(fields Fields) Fields {
	out := make(Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	if _, ok := out["service_name"]; ok {
		return out
	}
	if sn := os.Getenv("SERVICE_NAME"); sn != "" {
		out["service_name"] = sn
	} else if serviceName != "" {
		out["service_name"] = serviceName
	}
	return out
}

func logWithFields(level slog.Level, msg string, fields Fields) {
	fields = withServiceName(fields)
	if lg, ok := Log.(*slog.Logger); ok {
		r := lg.WithFields(slog.M(fields))
		switch level {
		case slog.DebugLevel:
			r.Debug(msg)
		case slog.WarnLevel:
			r.Warn(msg)
		case slog.ErrorLevel:
			r.Error(msg)
		default:
			r.Info(msg)
		}
		return
	}
	switch level {
	case slog.DebugLevel:
		Log.Debug(msg)
	case slog.WarnLevel:
		Log.Warn(msg)
	case slog.ErrorLevel:
		Log.Error(msg)
	default:
		Log.Info(msg)
	}
}

func DebugWithFields(msg string, fields Fields) { logWithFields(slog.DebugLevel, msg, fields) }

func InfoWithFields(msg string, fields Fields) { logWithFields(slog.InfoLevel, msg, fields) }

func WarnWithFields(msg string, fields Fields) { logWithFields(slog.WarnLevel, msg, fields) }

func ErrorWithFields(msg string, fields Fields) { logWithFields(slog.ErrorLevel, msg, fields) }
