package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/joelanford/ngsi-client-go/api"
	"github.com/joelanford/ngsi-client-go/codec"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrMissingURL is returned when no broker URL is configured.
	ErrMissingURL = errors.New("broker URL is required")

	// ErrMissingID is returned when an entity operation is called with an empty id.
	ErrMissingID = errors.New("entity id is required")

	// ErrUnexpectedStatus is matched by every *StatusError.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrUnauthorized is matched by a 401 *StatusError.
	ErrUnauthorized = errors.New("invalid or missing auth token")

	// ErrNotFound is matched by broker errors carrying a 404 code.
	ErrNotFound = errors.New("context element not found")

	// ErrInvalidResponse is returned when a 200 response body is not the
	// expected JSON document.
	ErrInvalidResponse = errors.New("invalid broker response")

	// ErrDecode is matched by errors from stored values that cannot be decoded.
	ErrDecode = codec.ErrDecode
)

// StatusError is returned when the broker answers with an HTTP status other than 200.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Unexpected Status Code: %d", e.StatusCode)
}

// Is implements errors.Is for sentinel error matching.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnexpectedStatus:
		return true
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// BrokerError carries the status block of a broker response whose embedded
// code is not 200. Its message is the broker's reason phrase.
type BrokerError struct {
	Code         api.Code
	ReasonPhrase string
	Details      string
}

func newBrokerError(s api.StatusCode) *BrokerError {
	return &BrokerError{Code: s.Code, ReasonPhrase: s.ReasonPhrase, Details: s.Details}
}

func (e *BrokerError) Error() string {
	if e.ReasonPhrase != "" {
		return e.ReasonPhrase
	}
	if e.Code == "" {
		return "broker error: missing status code"
	}
	return fmt.Sprintf("broker error %s", e.Code)
}

// Is implements errors.Is for sentinel error matching.
func (e *BrokerError) Is(target error) bool {
	return target == ErrNotFound && e.Code == api.CodeNotFound
}
