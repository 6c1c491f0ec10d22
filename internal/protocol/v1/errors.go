package v1

import (
	"fmt"
	"strings"
)

// ErrorCode is the wire tag of a ProtocolError variant.
type ErrorCode uint32

const (
	CodeLoginFailed  ErrorCode = ErrorCode(MsgLoginFailed)
	CodeForbidden    ErrorCode = ErrorCode(MsgForbidden)
	CodeUnknownToken ErrorCode = ErrorCode(MsgUnknownToken)
	CodeUserExist    ErrorCode = ErrorCode(MsgUserExist)
	CodeUnknown      ErrorCode = ErrorCode(MsgUnknown)
)

var messages = map[ErrorCode]string{
	CodeLoginFailed:  "Неверный логин или пароль",
	CodeForbidden:    "Недостаточно прав",
	CodeUnknownToken: "Войдите снова",
	CodeUserExist:    "Пользователь уже существует",
	CodeUnknown:      "Неизвестная ошибка",
}

var labels = map[ErrorCode]string{
	CodeLoginFailed:  "login_failed",
	CodeForbidden:    "forbidden",
	CodeUnknownToken: "unknown_token",
	CodeUserExist:    "user_exist",
	CodeUnknown:      "unknown",
}

// Valid reports whether c names a v1 error variant.
func (c ErrorCode) Valid() bool {
	_, ok := messages[c]
	return ok
}

// Label is the metrics/log name of the variant.
func (c ErrorCode) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return fmt.Sprintf("code_%#04x", uint32(c))
}

// ProtocolError is the closed set of failures a v1 request can produce.
// Detail is only carried by CodeUnknown.
type ProtocolError struct {
	Code   ErrorCode
	Detail string
}

var (
	ErrLoginFailed  = &ProtocolError{Code: CodeLoginFailed}
	ErrForbidden    = &ProtocolError{Code: CodeForbidden}
	ErrUnknownToken = &ProtocolError{Code: CodeUnknownToken}
	ErrUserExist    = &ProtocolError{Code: CodeUserExist}
	// ErrUnknown matches every Unknown error regardless of detail.
	ErrUnknown = &ProtocolError{Code: CodeUnknown}
)

// Unknown builds the catch-all error carrying detail.
func Unknown(detail string) *ProtocolError {
	return &ProtocolError{Code: CodeUnknown, Detail: strings.ToValidUTF8(detail, "\uFFFD")}
}

// Error returns the localized message, ready for display.
func (e *ProtocolError) Error() string {
	msg, ok := messages[e.Code]
	if !ok {
		return fmt.Sprintf("v1: invalid error code %#04x", uint32(e.Code))
	}
	if e.Code == CodeUnknown {
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// Is matches by code so errors.Is(err, ErrLoginFailed) works on decoded values.
func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	return ok && t.Code == e.Code
}

func (e *ProtocolError) MessageType() uint32 {
	return uint32(e.Code)
}
