// Package upstream talks to the OpenAI-compatible chat providers and the
// web-search provider.
package upstream

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/af-corp/nova-gateway/internal/types"
)

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 4096

const publicationMarker = "Free model publication"

// Error is a non-success response from a chat provider. Message is safe to
// show to the caller; StatusCode is propagated unchanged.
type Error struct {
	Provider   types.Provider
	StatusCode int
	Message    string
	Body       string
}

func (e *Error) Error() string {
	return e.Message
}

// Retryable reports whether the failure is worth another attempt.
func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// chatError maps a chat-completion failure to a caller-facing message.
func chatError(provider types.Provider, status int, body, settingsURL string) *Error {
	body = truncate(body, maxErrorBody)

	var msg string
	switch {
	case status == http.StatusTooManyRequests:
		msg = "Rate limit exceeded. Please try again later."
	case status == http.StatusPaymentRequired:
		msg = "Payment required. Please add credits to continue."
	case status == http.StatusUnauthorized:
		msg = "Invalid API key. Please check your API key in settings."
	case status == http.StatusBadRequest:
		detail := body
		if detail == "" {
			detail = "Invalid model or parameters"
		}
		msg = "Bad request: " + detail
	case status == http.StatusNotFound && strings.Contains(body, publicationMarker):
		msg = publicationMessage(settingsURL)
	default:
		msg = "AI gateway error: " + body
	}

	return &Error{Provider: provider, StatusCode: status, Message: msg, Body: body}
}

// imageError reports a failed image-generation call with the raw body.
func imageError(status int, body string) *Error {
	body = truncate(body, maxErrorBody)
	return &Error{
		Provider:   types.ProviderGateway,
		StatusCode: status,
		Message:    "Image generation failed: " + body,
		Body:       body,
	}
}

func publicationMessage(settingsURL string) string {
	if settingsURL == "" {
		return "Provider privacy settings need configuration. Enable 'Free model publication' in your provider account settings."
	}
	return fmt.Sprintf("Provider privacy settings need configuration. Go to %s and enable 'Free model publication'.", settingsURL)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
