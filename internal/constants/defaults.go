package constants

// Server defaults
const (
	DefaultServerPort          = "8085"
	DefaultReadTimeoutSec      = 15
	DefaultWriteTimeoutSec     = 15
	DefaultIdleTimeoutSec      = 60
	DefaultGracefulShutdownSec = 30
	ServerErrorChannelSize     = 1
)

// Dispatch loop defaults
const (
	DefaultDispatchIntervalSec = 15
	DefaultSendTimeoutSec      = 30
)

// AI capability defaults
const (
	DefaultAIModel      = "gpt-4o-mini"
	DefaultAIMaxTokens  = 150
	DefaultAITimeoutSec = 10
	DefaultAIBaseURL    = "https://api.openai.com"
)

// SMS connector defaults
const (
	DefaultSMSBaseURL    = "https://api.twilio.com"
	DefaultSMSTimeoutSec = 15
	DefaultSMSAPIVersion = "2010-04-01"
	MaxSMSBodyLength     = 1600
)

// Guardrail thresholds and alert bounds
const (
	LanguageConfidenceThreshold = 0.75
	DraftPreviewMaxChars        = 100
	BodySnippetMaxChars         = 50
)

// Database defaults
const (
	DefaultDatabaseRetryAttempts = 3
	DefaultRetryBackoffMs        = 100
	DefaultMaxBackoffMs          = 5000
)
