package reddit

import (
	"fmt"
	"strings"
)

// ConfigError is returned when provider credentials are missing. It is a
// deployment problem, not a request problem, and maps to a 500.
type ConfigError struct {
	Missing []string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("reddit client is not configured: missing %s", strings.Join(e.Missing, ", "))
}

// ExchangeError is returned when the token endpoint answers with an HTTP
// failure or a JSON body carrying an error field. It preserves the
// upstream code and description.
type ExchangeError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e ExchangeError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("token exchange failed (%d): %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("token exchange failed (%d): %s", e.StatusCode, e.Code)
}

// ProtocolError is returned when the provider answers with something other
// than JSON, typically an HTML error page from an intermediary.
type ProtocolError struct {
	StatusCode  int
	ContentType string
}

func (e ProtocolError) Error() string {
	return fmt.Sprintf("unexpected response from reddit: status %d, content-type %q", e.StatusCode, e.ContentType)
}

// ParseError is returned when a response labeled as JSON fails to decode.
// Distinct from ProtocolError: the provider claimed JSON and broke it.
type ParseError struct {
	Err error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("failed to parse reddit response: %v", e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// InvalidResponseError is returned when a 2xx token response is missing the
// access token field.
type InvalidResponseError struct {
	Field string
}

func (e InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid token response from reddit: missing %s", e.Field)
}

// UpstreamError is returned when a public API call fails at the HTTP level.
type UpstreamError struct {
	StatusCode int
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("reddit API error: status %d", e.StatusCode)
}
