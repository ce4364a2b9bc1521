package twilio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a failure reported by the provider's REST API.
// It carries the upstream error payload so handler logs can be correlated
// with provider-side logs.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	MoreInfo   string `json:"more_info,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("twilio: %s (code %d, http %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("twilio: %s (http %d)", e.Message, e.StatusCode)
}

// AsAPIError unwraps err into an *APIError if one is present.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// decodeError turns a non-2xx provider response into an *APIError.
// Twilio error bodies are JSON {code, message, more_info, status}; anything
// else is kept as raw text.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = string(body)
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}
