package metadomain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrTokenExpired = errors.New("meta access token expired")

// ErrorResponse is the Graph API error envelope
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

type ErrorDetails struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	FBTraceID    string `json:"fbtrace_id"`
}

// Graph error codes that signal throttling
var rateLimitCodes = map[int]struct{}{
	4:     {},
	17:    {},
	32:    {},
	613:   {},
	80004: {},
}

var rateLimitMessages = []string{
	"user request limit reached",
	"too many calls",
	"80004",
}

// IsTokenExpired reports code 190 or an OAuthException with an expiry subcode
func (e *ErrorResponse) IsTokenExpired() bool {
	return e.Error.Code == 190 ||
		(e.Error.Type == "OAuthException" && (e.Error.ErrorSubcode == 460 || e.Error.ErrorSubcode == 463 || e.Error.ErrorSubcode == 467))
}

// GraphError is returned for every non-200 Graph response
type GraphError struct {
	StatusCode int
	Details    ErrorDetails
	Body       string
}

func (e *GraphError) Error() string {
	if e.Details.Message != "" {
		return fmt.Sprintf("graph api error: status %d code %d: %s", e.StatusCode, e.Details.Code, e.Details.Message)
	}
	return fmt.Sprintf("graph api error: status %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets callers match ErrTokenExpired with errors.Is
func (e *GraphError) Unwrap() error {
	resp := ErrorResponse{Error: e.Details}
	if resp.IsTokenExpired() {
		return ErrTokenExpired
	}
	return nil
}

// IsRateLimited reports whether the error carries one of the throttling signatures
func (e *GraphError) IsRateLimited() bool {
	if _, ok := rateLimitCodes[e.Details.Code]; ok {
		return true
	}
	return IsRateLimitMessage(e.Details.Message) || IsRateLimitMessage(e.Body)
}

// IsRateLimitMessage matches the throttling texts Graph puts in error messages
func IsRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, signature := range rateLimitMessages {
		if strings.Contains(msg, signature) {
			return true
		}
	}
	return false
}
