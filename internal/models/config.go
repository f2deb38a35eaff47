package models

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	SMS      SMSConfig      `json:"sms"`
	AI       AIConfig       `json:"ai"`
	Database DatabaseConfig `json:"database"`
	Owner    OwnerConfig    `json:"owner"`
	Dispatch DispatchConfig `json:"dispatch"`
	Tracing  TracingConfig  `json:"tracing"`
	LogLevel string         `json:"log_level"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string `json:"port"`
	ReadTimeoutSec  int    `json:"readTimeoutSec"`
	WriteTimeoutSec int    `json:"writeTimeoutSec"`
	IdleTimeoutSec  int    `json:"idleTimeoutSec"`
}

// SMSConfig holds SMS connector settings. AccountSID and AuthToken come from
// the environment, never the config file.
type SMSConfig struct {
	APIBaseURL string `json:"api_base_url"`
	AccountSID string `json:"-"`
	AuthToken  string `json:"-"`
	FromNumber string `json:"from_number"`
	TimeoutSec int    `json:"timeoutSec"`
}

// AIConfig holds classifier/drafter settings. The API key comes from the
// environment.
type AIConfig struct {
	APIBaseURL string `json:"api_base_url"`
	APIKey     string `json:"-"`
	Model      string `json:"model"`
	MaxTokens  int    `json:"maxTokens"`
	TimeoutSec int    `json:"timeoutSec"`
}

// DatabaseConfig holds database related configurations.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// OwnerConfig identifies the supervising operator.
type OwnerConfig struct {
	PhoneNumber string `json:"phone_number"`
}

// DispatchConfig holds outbound dispatch settings. SendingEnabled is the
// global kill switch: immutable after process start, consulted on every pass.
type DispatchConfig struct {
	SendingEnabled  bool `json:"sendingEnabled"`
	PollIntervalSec int  `json:"pollIntervalSec"`
	SendTimeoutSec  int  `json:"sendTimeoutSec"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	UseStdout      bool    `json:"use_stdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
