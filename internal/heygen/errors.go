package heygen

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means the API key or streaming token was rejected.
	ErrAuth = errors.New("heygen: credential rejected")
	// ErrSessionCreate means the provider refused the avatar/voice pairing,
	// ran out of quota, or timed out creating the session.
	ErrSessionCreate = errors.New("heygen: session create failed")
	// ErrSessionInactive means the referenced session is closed or expired.
	ErrSessionInactive = errors.New("heygen: session inactive")
	// ErrInvalidArgument is returned before any network call for bad input.
	ErrInvalidArgument = errors.New("heygen: invalid argument")
)

// APIError carries the provider's application-level error envelope.
type APIError struct {
	Operation  string
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("heygen %s: http %d code %d: %s", e.Operation, e.HTTPStatus, e.Code, e.Message)
}

// Unwrap maps provider codes onto the sentinel taxonomy so callers can use
// errors.Is without knowing wire codes.
func (e *APIError) Unwrap() error {
	if e.HTTPStatus == 401 || e.HTTPStatus == 403 {
		return ErrAuth
	}
	switch e.Code {
	case codeInvalidAvatar, codeInvalidVoice, codeQuotaExceeded:
		return ErrSessionCreate
	case codeSessionGone, codeSessionBusy:
		return ErrSessionInactive
	}
	return nil
}

// Provider application codes observed on the streaming API.
const (
	codeOK            = 100
	codeSessionGone   = 10002
	codeInvalidAvatar = 10003
	codeSessionBusy   = 10007
	codeQuotaExceeded = 10008
	codeInvalidVoice  = 40002
)
