package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

const (
	DefaultSendTimeout    = 300 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultTitleMaxLength = 50
	DefaultBackendBaseURL = "http://localhost:8000/api"
	DefaultDevServerAddr  = ":8000"
)

type AppConfig struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Chat      ChatConfig      `yaml:"chat"`
	Messages  MessagesConfig  `yaml:"messages"`
	DevServer DevServerConfig `yaml:"devserver"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChatConfig 는 채팅 클라이언트 코어와 HTTP 트랜스포트 설정이다.
type ChatConfig struct {
	// SendTimeout 은 어시스턴트 응답을 기다리는 최대 시간이다.
	// 생성 지연이 길게 늘어질 수 있어 기본값은 300초다.
	SendTimeout Duration `yaml:"send_timeout"`

	// RequestTimeout 은 세션 목록/생성/삭제, 메시지 목록 호출의 타임아웃이다.
	RequestTimeout Duration `yaml:"request_timeout"`

	// TitleMaxLength 는 첫 메시지로 만드는 세션 제목의 최대 글자 수다.
	TitleMaxLength int `yaml:"title_max_length"`

	BackendBaseURL string `yaml:"backend_base_url"`
	SessionCookie  string `yaml:"session_cookie"`
}

// MessagesConfig 는 사용자에게 보이는 배너/안내 문구다. 비어 있으면 영어 기본값을 쓴다.
type MessagesConfig struct {
	SessionListLoadFailed string `yaml:"session_list_load_failed"`
	SessionCreateFailed   string `yaml:"session_create_failed"`
	SessionDeleteFailed   string `yaml:"session_delete_failed"`
	MessageLoadFailed     string `yaml:"message_load_failed"`
	SendFailed            string `yaml:"send_failed"`
	SendFailedNotice      string `yaml:"send_failed_notice"`
}

// DevServerConfig 는 cmd/devserver 개발용 백엔드 설정이다.
type DevServerConfig struct {
	Addr           string   `yaml:"addr"`
	GeminiModel    string   `yaml:"gemini_model"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// ReplyDelay 는 응답 전에 인위적으로 기다리는 시간이다. 타임아웃 경로 확인용.
	ReplyDelay Duration `yaml:"reply_delay"`
}

// Duration 은 "300s", "5m" 같은 YAML 문자열을 time.Duration 으로 읽는다.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	c := Default()
	// load configuration file (optional; defaults apply when absent)
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err == nil {
		c, err = Parse(data)
		if err != nil {
			panic(err)
		}
	} else if !os.IsNotExist(err) {
		panic(err)
	}

	applyEnv(&c)
	config = &c
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

// Parse 는 YAML 설정을 읽고 빠진 값을 기본값으로 채운다.
func Parse(data []byte) (AppConfig, error) {
	var c AppConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return AppConfig{}, err
	}
	c.applyDefaults()
	if c.Chat.TitleMaxLength < 0 {
		return AppConfig{}, fmt.Errorf("chat.title_max_length must not be negative: %d", c.Chat.TitleMaxLength)
	}
	return c, nil
}

func Default() AppConfig {
	var c AppConfig
	c.applyDefaults()
	return c
}

func (c *AppConfig) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Chat.SendTimeout <= 0 {
		c.Chat.SendTimeout = Duration(DefaultSendTimeout)
	}
	if c.Chat.RequestTimeout <= 0 {
		c.Chat.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if c.Chat.TitleMaxLength == 0 {
		c.Chat.TitleMaxLength = DefaultTitleMaxLength
	}
	if c.Chat.BackendBaseURL == "" {
		c.Chat.BackendBaseURL = DefaultBackendBaseURL
	}
	if c.DevServer.Addr == "" {
		c.DevServer.Addr = DefaultDevServerAddr
	}
	if c.DevServer.GeminiModel == "" {
		c.DevServer.GeminiModel = "gemini-2.5-flash"
	}
}

// applyEnv 는 배포 환경마다 달라지는 값을 환경변수로 덮어쓴다.
func applyEnv(c *AppConfig) {
	if v := os.Getenv("CHAT_BACKEND_BASE_URL"); v != "" {
		c.Chat.BackendBaseURL = v
	}
	if v := os.Getenv("CHAT_SESSION_COOKIE"); v != "" {
		c.Chat.SessionCookie = v
	}
	if v := os.Getenv("DEVSERVER_ADDR"); v != "" {
		c.DevServer.Addr = v
	}
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
