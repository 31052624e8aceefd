package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"

	"github.com/sashabaranov/go-openai"
)

// ErrorCode classifies a failed call to the LLM endpoint.
type ErrorCode string

const (
	CodeConnectionRefused ErrorCode = "CONNECTION_REFUSED"
	CodeTimeout           ErrorCode = "TIMEOUT"
	CodeAPIError          ErrorCode = "API_ERROR"
	CodeNetworkError      ErrorCode = "NETWORK_ERROR"
	CodeUnknownError      ErrorCode = "UNKNOWN_ERROR"
)

// Error is the single error type returned by the gateway. StatusCode is set only for
// CodeAPIError and holds the upstream HTTP status.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// AsError extracts a gateway error from err's chain.
func AsError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// normalizeError maps any failure from the transport layer onto the gateway taxonomy.
// Checks run in a fixed order: refused connection, upstream status, timeout, other
// transport failures, everything else.
func normalizeError(err error) *Error {
	if err == nil {
		return nil
	}
	if gwErr, ok := AsError(err); ok {
		return gwErr
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{
			Code:    CodeConnectionRefused,
			Message: "Cannot connect to LM Studio. Please ensure LM Studio is running.",
			Cause:   err,
		}
	}

	if status, ok := upstreamStatus(err); ok {
		return &Error{
			Code:       CodeAPIError,
			Message:    fmt.Sprintf("LM Studio API error: %s", http.StatusText(status)),
			StatusCode: status,
			Cause:      err,
		}
	}

	if isTimeout(err) {
		return &Error{
			Code:    CodeTimeout,
			Message: "Request to LM Studio timed out",
			Cause:   err,
		}
	}

	if isTransport(err) {
		return &Error{
			Code:    CodeNetworkError,
			Message: fmt.Sprintf("Network error: %v", err),
			Cause:   err,
		}
	}

	return &Error{
		Code:    CodeUnknownError,
		Message: err.Error(),
		Cause:   err,
	}
}

func upstreamStatus(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}

// isTimeout covers connect and read deadlines as well as aborted requests.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTransport(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
