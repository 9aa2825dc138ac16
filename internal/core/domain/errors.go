package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownTarget      = errors.New("unknown signaling target")
	ErrPeerIDTaken        = errors.New("peer id already in use")
	ErrStaleConnection    = errors.New("connection is gone")
	ErrGlare              = errors.New("offer collides with an outstanding offer")
	ErrNotMember          = errors.New("not a member of the channel")
	ErrNotAuthenticated   = errors.New("login required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("user already exists")
	ErrNotFound           = errors.New("not found")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedMessage, fmt.Sprintf(format, args...))
}
