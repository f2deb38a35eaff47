package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const validConfig = `{
	"sms": {"from_number": "+15550001111"},
	"owner": {"phone_number": "+15559998888"},
	"database": {"path": "data/replygate.db"}
}`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "+15550001111", cfg.SMS.FromNumber)
	assert.Equal(t, "+15559998888", cfg.Owner.PhoneNumber)
	assert.Equal(t, "data/replygate.db", cfg.Database.Path)

	// Defaults applied
	assert.Equal(t, "8085", cfg.Server.Port)
	assert.Equal(t, "https://api.twilio.com", cfg.SMS.APIBaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 150, cfg.AI.MaxTokens)
	assert.Equal(t, 10, cfg.AI.TimeoutSec)
	assert.Equal(t, 15, cfg.Dispatch.PollIntervalSec)
	assert.Equal(t, "replygate", cfg.Tracing.ServiceName)

	// Kill switch defaults to disabled
	assert.False(t, cfg.Dispatch.SendingEnabled)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidPath(t *testing.T) {
	_, err := LoadConfig("../../../etc/replygate.json")
	assert.Error(t, err)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "{not json"))
	assert.Error(t, err)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing from number",
			content: `{"owner": {"phone_number": "+15559998888"}, "database": {"path": "x.db"}}`,
			wantErr: ErrMissingSMSFromNumber,
		},
		{
			name:    "missing owner number",
			content: `{"sms": {"from_number": "+15550001111"}, "database": {"path": "x.db"}}`,
			wantErr: ErrMissingOwnerNumber,
		},
		{
			name:    "missing database path",
			content: `{"sms": {"from_number": "+15550001111"}, "owner": {"phone_number": "+15559998888"}}`,
			wantErr: ErrMissingDBPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigOwnerEqualsFromNumber(t *testing.T) {
	content := `{
		"sms": {"from_number": "+15550001111"},
		"owner": {"phone_number": "+15550001111"},
		"database": {"path": "x.db"}
	}`
	_, err := LoadConfig(writeConfig(t, content))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("REPLYGATE_SMS_ACCOUNT_SID", "ACtest123")
	t.Setenv("REPLYGATE_SMS_AUTH_TOKEN", "secret-token")
	t.Setenv("REPLYGATE_AI_API_KEY", "sk-test")
	t.Setenv("OWNER_PHONE_NUMBER", "+15557776666")
	t.Setenv("DB_PATH", "override.db")
	t.Setenv("REPLYGATE_SENDING_ENABLED", "true")

	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "ACtest123", cfg.SMS.AccountSID)
	assert.Equal(t, "secret-token", cfg.SMS.AuthToken)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "+15557776666", cfg.Owner.PhoneNumber)
	assert.Equal(t, "override.db", cfg.Database.Path)
	assert.True(t, cfg.Dispatch.SendingEnabled)
}

func TestSendingEnabledOverrideRejectsNonTrue(t *testing.T) {
	t.Setenv("REPLYGATE_SENDING_ENABLED", "yes")

	content := `{
		"sms": {"from_number": "+15550001111"},
		"owner": {"phone_number": "+15559998888"},
		"database": {"path": "x.db"},
		"dispatch": {"sendingEnabled": true}
	}`
	cfg, err := LoadConfig(writeConfig(t, content))
	require.NoError(t, err)

	// Anything other than "true" disables sending.
	assert.False(t, cfg.Dispatch.SendingEnabled)
}

func TestCredentialsNeverReadFromFile(t *testing.T) {
	content := `{
		"sms": {"from_number": "+15550001111", "AccountSID": "ACfromfile", "AuthToken": "tokfromfile"},
		"ai": {"APIKey": "sk-fromfile"},
		"owner": {"phone_number": "+15559998888"},
		"database": {"path": "x.db"}
	}`
	cfg, err := LoadConfig(writeConfig(t, content))
	require.NoError(t, err)

	assert.Empty(t, cfg.SMS.AccountSID)
	assert.Empty(t, cfg.SMS.AuthToken)
	assert.Empty(t, cfg.AI.APIKey)
}
