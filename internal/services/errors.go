package services

import (
	"errors"
	"fmt"
)

var (
	ErrIntentNotFound     = errors.New("intent not found")
	ErrListingNotFound    = errors.New("listing not found")
	ErrNotOwner           = errors.New("intent not owned by caller")
	ErrInvalidStatus      = errors.New("invalid intent status")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")

	ErrAlreadyListed      = errors.New("intent already has an available marketplace listing")
	ErrSelfPurchase       = errors.New("cannot purchase your own intent")
	ErrListingUnavailable = errors.New("listing is no longer available")
)

// GatewayError is a transport-level failure of the model endpoint: timeout,
// non-2xx status or an unreadable body. StatusCode is 0 when the request
// never produced a response.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("ark gateway: %s", e.Message)
	}
	return fmt.Sprintf("ark gateway http %d: %s", e.StatusCode, e.Message)
}

// MalformedReplyError means the endpoint answered but the content did not
// satisfy the strict-JSON contract. Raw keeps the offending text for
// diagnostics; it is never silently replaced with a default.
type MalformedReplyError struct {
	Raw string
	Err error
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("malformed model reply: %v; raw=%s", e.Err, e.Raw)
}

func (e *MalformedReplyError) Unwrap() error { return e.Err }
