package ecocito

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by any call made after Logout.
var ErrSessionClosed = errors.New("ecocito: session closed")

// ProtocolError is an unexpected HTTP status returned by the portal.
type ProtocolError struct {
	Op     string
	Status int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ecocito: %s: invalid HTTP response: %d", e.Op, e.Status)
}

// AuthenticationError is a login rejected by the portal, Message is the
// portal's own validation text.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// PortalError is an html error page returned in place of JSON data.
type PortalError struct {
	Message string
}

func (e *PortalError) Error() string {
	return e.Message
}

// ParseError is a response body that is neither the expected JSON nor a
// recognizable error page.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ecocito: %s: parse response: %s", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
