package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"replygate/internal/constants"
	"replygate/internal/privacy"
	"replygate/pkg/sms/types"

	"github.com/sirupsen/logrus"
)

// Client sends outbound SMS messages.
type Client interface {
	Send(ctx context.Context, to, body string) (string, error)
}

type TwilioClient struct {
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	client     *http.Client
	logger     *logrus.Logger
}

// NewClient creates a Twilio REST client. A nil httpClient gets a default
// with the given timeout.
func NewClient(baseURL, accountSID, authToken, fromNumber string, timeoutSec int, httpClient *http.Client, logger *logrus.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(timeoutSec) * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &TwilioClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		client:     httpClient,
		logger:     logger,
	}
}

// Send delivers an SMS and returns the provider message SID.
func (c *TwilioClient) Send(ctx context.Context, to, body string) (string, error) {
	if c.accountSID == "" || c.authToken == "" {
		return "", fmt.Errorf("sms client not configured: missing credentials")
	}
	if n := utf8.RuneCountInString(body); n > constants.MaxSMSBodyLength {
		return "", fmt.Errorf("body length %d exceeds maximum of %d", n, constants.MaxSMSBodyLength)
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/%s/Accounts/%s/Messages.json", c.baseURL, constants.DefaultSMSAPIVersion, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("send failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var sendResp types.SendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if sendResp.Sid == "" {
		return "", fmt.Errorf("send response missing sid")
	}

	c.logger.WithFields(logrus.Fields{
		"sid": sendResp.Sid,
		"to":  privacy.MaskPhoneNumber(to),
	}).Info("SMS sent")

	return sendResp.Sid, nil
}
