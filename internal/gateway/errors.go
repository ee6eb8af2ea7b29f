package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/af-corp/nova-gateway/internal/filter"
	"github.com/af-corp/nova-gateway/internal/upstream"
)

// InvalidRequestMessage is returned for every malformed or out-of-range body.
const InvalidRequestMessage = "Invalid request parameters"

// ValidationError reports a request that failed field validation.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return InvalidRequestMessage
	}
	return InvalidRequestMessage + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConfigurationError reports a gateway that cannot serve requests at all.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// FilterBlockedError reports a request stopped by a content filter.
type FilterBlockedError struct {
	Result filter.Result
}

func (e *FilterBlockedError) Error() string {
	if e.Result.Message == "" {
		return "Request blocked by content filter " + e.Result.FilterName
	}
	return e.Result.Message
}

// StatusFor maps a pipeline error to the HTTP status and caller-facing
// message written in the error body.
func StatusFor(err error) (int, string) {
	var (
		ve *ValidationError
		ce *ConfigurationError
		fe *FilterBlockedError
		ue *upstream.Error
	)
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &ve):
		return http.StatusBadRequest, InvalidRequestMessage
	case errors.As(err, &ce):
		return http.StatusInternalServerError, ce.Message
	case errors.As(err, &fe):
		return http.StatusUnavailableForLegalReasons, fe.Error()
	case errors.As(err, &ue):
		return ue.StatusCode, ue.Message
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
