package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"replygate/internal/constants"
	"replygate/internal/models"
	"replygate/internal/security"
)

var (
	ErrMissingSMSFromNumber = models.ConfigError{Message: "missing SMS from number"}
	ErrMissingOwnerNumber   = models.ConfigError{Message: "missing owner phone number"}
	ErrMissingDBPath        = models.ConfigError{Message: "missing database path"}
)

func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.SMS.FromNumber == "" {
		return ErrMissingSMSFromNumber
	}
	if c.Owner.PhoneNumber == "" {
		return ErrMissingOwnerNumber
	}
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Owner.PhoneNumber == c.SMS.FromNumber {
		return models.ConfigError{Message: "owner phone number must differ from the SMS from number"}
	}

	if c.Server.Port == "" {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultIdleTimeoutSec
	}

	if c.SMS.APIBaseURL == "" {
		c.SMS.APIBaseURL = constants.DefaultSMSBaseURL
	}
	if c.SMS.TimeoutSec <= 0 {
		c.SMS.TimeoutSec = constants.DefaultSMSTimeoutSec
	}

	if c.AI.APIBaseURL == "" {
		c.AI.APIBaseURL = constants.DefaultAIBaseURL
	}
	if c.AI.Model == "" {
		c.AI.Model = constants.DefaultAIModel
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = constants.DefaultAIMaxTokens
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = constants.DefaultAITimeoutSec
	}

	if c.Dispatch.PollIntervalSec <= 0 {
		c.Dispatch.PollIntervalSec = constants.DefaultDispatchIntervalSec
	}
	if c.Dispatch.SendTimeoutSec <= 0 {
		c.Dispatch.SendTimeoutSec = constants.DefaultSendTimeoutSec
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "replygate"
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	// SECURITY: credentials are only ever read from the environment
	if sid := os.Getenv("REPLYGATE_SMS_ACCOUNT_SID"); sid != "" {
		c.SMS.AccountSID = sid
	}
	if token := os.Getenv("REPLYGATE_SMS_AUTH_TOKEN"); token != "" {
		c.SMS.AuthToken = token
	}
	if key := os.Getenv("REPLYGATE_AI_API_KEY"); key != "" {
		c.AI.APIKey = key
	}

	if owner := os.Getenv("OWNER_PHONE_NUMBER"); owner != "" {
		c.Owner.PhoneNumber = owner
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}

	// The kill switch defaults to off; sending must be enabled explicitly.
	if enabled := os.Getenv("REPLYGATE_SENDING_ENABLED"); enabled != "" {
		c.Dispatch.SendingEnabled = strings.EqualFold(enabled, "true")
	}
}
