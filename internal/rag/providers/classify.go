// Package providers maps errors from the embedding and llm SDKs onto ragErrors.ProviderError.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusError is a non-2xx answer from a provider called over plain REST.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Body)
}

// Wrap classifies err and returns it as a *ragErrors.ProviderError. nil stays nil.
func Wrap(provider string, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ragErrors.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return ragErrors.NewProviderError(provider, op, Retryable(err), err)
}

// Retryable reports whether a later identical call could succeed: rate limits,
// server side failures, timeouts and dropped connections.
func Retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return retryableStatus(openaiErr.StatusCode)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= http.StatusInternalServerError
}
