package protocol

import "fmt"

// Error is reported by the client when a reply cannot be matched to its call.
// The server never puts it on the wire.
type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

const (
	ErrorCodeOK                 = 0
	ErrorCodeUnknown            = 2
	ErrorCodeInvalidArgument    = 3
	ErrorCodeDeadlineExceeded   = 4
	ErrorCodeUnexpectedResponse = 10
	ErrorCodeMalformedResponse  = 11
	ErrorCodeUnavailable        = 14
)

func NewError(code int32, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}
