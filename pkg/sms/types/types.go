package types

import (
	"fmt"
	"net/url"
	"strconv"
)

// InboundPayload is the form-encoded webhook body posted by the SMS provider
// for an inbound message.
type InboundPayload struct {
	MessageSid string
	From       string
	To         string
	Body       string
	NumMedia   int
	MediaURL   string
}

// ParsePayload extracts the provider fields from a webhook form body.
func ParsePayload(values url.Values) (*InboundPayload, error) {
	sid := values.Get("MessageSid")
	if sid == "" {
		return nil, fmt.Errorf("missing MessageSid")
	}
	from := values.Get("From")
	if from == "" {
		return nil, fmt.Errorf("missing From")
	}

	numMedia := 0
	if raw := values.Get("NumMedia"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid NumMedia %q: %w", raw, err)
		}
		numMedia = parsed
	}

	return &InboundPayload{
		MessageSid: sid,
		From:       from,
		To:         values.Get("To"),
		Body:       values.Get("Body"),
		NumMedia:   numMedia,
		MediaURL:   values.Get("MediaUrl0"),
	}, nil
}

// SendResponse is the provider response for an outbound message.
type SendResponse struct {
	Sid          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}
