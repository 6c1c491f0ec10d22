package protocol

import (
	"errors"
	"fmt"
)

// ErrMalformed marks a message that cannot be represented in the receiver's
// schema: unknown tag, wrong shape, or an out-of-range field. It is a decode
// failure and never a ProtocolError.
var ErrMalformed = errors.New("protocol: malformed message")

// MalformedError describes why a message was rejected.
type MalformedError struct {
	Schema      string
	MessageType uint32
	Reason      string
	Err         error
}

func (e *MalformedError) Error() string {
	msg := fmt.Sprintf("protocol: malformed %s message_type=%#04x: %s", e.Schema, e.MessageType, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformed}
	}
	return []error{ErrMalformed, e.Err}
}

// Malformed builds a MalformedError. err may be nil.
func Malformed(schema string, messageType uint32, reason string, err error) error {
	return &MalformedError{Schema: schema, MessageType: messageType, Reason: reason, Err: err}
}
