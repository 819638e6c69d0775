package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ApiError is the single failure shape of the notes api client.
// Status is the HTTP status code, 0 when no response was received at all.
type ApiError struct {
	Status  int
	Message string
}

func (e *ApiError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("notes api: %s", e.Message)
	}
	return fmt.Sprintf("notes api [%d]: %s", e.Status, e.Message)
}

// ErrorMessage returns the human readable part of err: the server-provided
// message for an *ApiError, err.Error() otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func ErrorStatus(err error) int {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return ErrorStatus(err) == http.StatusNotFound
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Msg string `json:"msg"`
}

// newApiErrorFromResponse builds the error for a non-2xx response from its body.
// A string detail is used as is, a list of validation issues is joined,
// anything else falls back to the status text.
func newApiErrorFromResponse(status int, statusLine string, body []byte) *ApiError {
	apiErr := &ApiError{
		Status:  status,
		Message: statusText(status, statusLine),
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || len(errResp.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
		if detail != "" {
			apiErr.Message = detail
		}
		return apiErr
	}

	var issues []validationIssue
	if err := json.Unmarshal(errResp.Detail, &issues); err == nil {
		var msgs []string
		for _, issue := range issues {
			if issue.Msg != "" {
				msgs = append(msgs, issue.Msg)
			}
		}
		if len(msgs) > 0 {
			apiErr.Message = strings.Join(msgs, "; ")
		}
	}

	return apiErr
}

// statusText prefers the reason phrase the server sent ("404 Not Found" -> "Not Found").
func statusText(status int, statusLine string) string {
	prefix := fmt.Sprintf("%d ", status)
	if reason := strings.TrimPrefix(statusLine, prefix); reason != statusLine && reason != "" {
		return reason
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}
