package paradox

import "errors"

var (
	ErrMalformedFrame         = errors.New("paradox: malformed frame")
	ErrUnknownFrame           = errors.New("paradox: unknown frame")
	ErrTimeout                = errors.New("paradox: no reply before timeout")
	ErrAuthenticationRejected = errors.New("paradox: authentication rejected")
	ErrUnexpectedReply        = errors.New("paradox: unexpected reply")
	ErrRegistryMiss           = errors.New("paradox: message kind not defined")
	ErrFieldRange             = errors.New("paradox: field out of range")
	ErrNotConnected           = errors.New("paradox: not connected")
)
