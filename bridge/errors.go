package bridge

import (
	"fmt"

	"github.com/team-rocos/rclbridge/rcl"
)

// Error is the failure surfaced to bridge callers. It carries the native
// return code and a message that includes the native diagnostic text.
type Error struct {
	code rcl.RetCode
	msg  string
}

// Error implements the error interface
func (e Error) Error() string {
	return fmt.Sprintf("%s (code: %d)", e.msg, int32(e.code))
}

// Code returns the native return code.
func (e Error) Code() rcl.RetCode {
	return e.code
}

// Message returns the error message without the code
func (e Error) Message() string {
	return e.msg
}

// Is reports whether target is an Error with the same code.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if ok {
		return e.code == t.code
	}
	return false
}

func newError(code rcl.RetCode, format string, args ...interface{}) Error {
	return Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// nativeError turns a failed native call into an Error whose message is
// prefix followed by the native diagnostic text.
func nativeError(err error, prefix string) Error {
	code := rcl.CodeOf(err)
	if code == rcl.RetOK {
		code = rcl.RetError
	}
	return Error{code: code, msg: prefix + ": " + rcl.TextOf(err)}
}

// Sentinel errors, matched by code with errors.Is.
var (
	ErrInvalidArgument = newError(rcl.RetInvalidArgument, "invalid argument")
	ErrNodeInvalid     = newError(rcl.RetNodeInvalid, "node invalid")
	ErrError           = newError(rcl.RetError, "error")
)
