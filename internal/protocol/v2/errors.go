package v2

import "fmt"

type ErrorCode uint32

const (
	CodeLoginFailed  ErrorCode = ErrorCode(MsgLoginFailed)
	CodeForbidden    ErrorCode = ErrorCode(MsgForbidden)
	CodeUnknownToken ErrorCode = ErrorCode(MsgUnknownToken)
	CodeUnknown      ErrorCode = ErrorCode(MsgUnknown)
)

var errorText = map[ErrorCode]struct{ message, label string }{
	CodeLoginFailed:  {"Неверный логин или пароль", "login_failed"},
	CodeForbidden:    {"Недостаточно прав", "forbidden"},
	CodeUnknownToken: {"Войдите снова", "unknown_token"},
	CodeUnknown:      {"Неизвестная ошибка", "unknown"},
}

func (c ErrorCode) Valid() bool {
	_, ok := errorText[c]
	return ok
}

func (c ErrorCode) Label() string {
	if t, ok := errorText[c]; ok {
		return t.label
	}
	return fmt.Sprintf("code_%#04x", uint32(c))
}

// ProtocolError is the closed set of v2 failures. None of them carry data.
type ProtocolError struct {
	Code ErrorCode
}

var (
	ErrLoginFailed  = &ProtocolError{Code: CodeLoginFailed}
	ErrForbidden    = &ProtocolError{Code: CodeForbidden}
	ErrUnknownToken = &ProtocolError{Code: CodeUnknownToken}
	ErrUnknown      = &ProtocolError{Code: CodeUnknown}
)

func (e *ProtocolError) Error() string {
	if t, ok := errorText[e.Code]; ok {
		return t.message
	}
	return fmt.Sprintf("v2: invalid error code %#04x", uint32(e.Code))
}

func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	return ok && t.Code == e.Code
}

func (e *ProtocolError) MessageType() uint32 {
	return uint32(e.Code)
}
