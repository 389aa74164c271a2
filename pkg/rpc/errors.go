package rpc

import (
	"errors"
	"fmt"
)

// ErrUnexpectedResult is returned when the backend answers with something
// other than an object.
var ErrUnexpectedResult = errors.New("rpc: result is not an object")

// Error is the error object of a JSON-RPC response.
type Error struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    ErrorData `json:"data"`
}

// ErrorData carries the server-side exception details.
type ErrorData struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Debug   string `json:"debug,omitempty"`
}

func (e *Error) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("rpc: %s (%d): %s", e.Message, e.Code, e.Data.Message)
	}
	return fmt.Sprintf("rpc: %s (%d)", e.Message, e.Code)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rpc: remote error %d: %s", e.Code, e.Body)
}
