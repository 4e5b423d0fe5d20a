//go:build rcl

package native

/*
#cgo LDFLAGS: -lrcl -lrcl_action -lrcutils -lrmw -laction_msgs__rosidl_generator_c
#include <stdlib.h>
#include <rcl/rcl.h>
#include <rcl/error_handling.h>
#include <rcl_action/rcl_action.h>
*/
import "C"

import (
	"unsafe"

	"github.com/team-rocos/rclbridge/rcl"
)

// Message is a buffer holding a native ROS message.
type Message interface {
	ROSMessage() unsafe.Pointer
}

// MessageType is the rosidl_message_type_support_t of a message.
type MessageType interface {
	rcl.TypeSupport
	MessageTypeSupport() unsafe.Pointer
}

// ServiceType is the rosidl_service_type_support_t of a service.
type ServiceType interface {
	rcl.TypeSupport
	ServiceTypeSupport() unsafe.Pointer
}

// ActionType is the rosidl_action_type_support_t of an action.
type ActionType interface {
	rcl.TypeSupport
	ActionTypeSupport() unsafe.Pointer
}

// Library calls the ROS 2 C libraries. The zero value is ready to use.
type Library struct{}

var _ rcl.Library = Library{}

// New returns the native library.
func New() Library {
	return Library{}
}

// errorsCast turns a failed return code into an *rcl.Error carrying the
// thread-local rcl error string, which is reset afterwards.
func errorsCast(rc C.rcl_ret_t) error {
	if rc == C.RCL_RET_OK {
		return nil
	}
	state := C.rcl_get_error_string()
	text := C.GoString(&state.str[0])
	C.rcl_reset_error()
	return &rcl.Error{Code: rcl.RetCode(rc), Text: text}
}

func invalid(format string, args ...interface{}) error {
	return rcl.Errorf(rcl.RetInvalidArgument, format, args...)
}

func cast[T any](p rcl.Pointer, what string) (*T, error) {
	t, ok := p.(*T)
	if !ok || t == nil {
		return nil, invalid("%s is not a native %s", what, what)
	}
	return t, nil
}

func message(buf rcl.Buffer) (unsafe.Pointer, error) {
	m, ok := buf.(Message)
	if !ok {
		return nil, invalid("buffer %T is not a native message", buf)
	}
	p := m.ROSMessage()
	if p == nil {
		return nil, invalid("native message already destroyed")
	}
	return p, nil
}

// alloc returns zeroed C memory for one T. It is released with free.
func alloc[T any]() *T {
	var zero T
	return (*T)(C.calloc(1, C.size_t(unsafe.Sizeof(zero))))
}

func free[T any](p *T) {
	C.free(unsafe.Pointer(p))
}

func toRequestID(header *C.rmw_request_id_t, id *rcl.RequestID) {
	id.SequenceNumber = int64(header.sequence_number)
	for i := range id.WriterGUID {
		id.WriterGUID[i] = int8(header.writer_guid[i])
	}
}

func fromRequestID(id *rcl.RequestID) C.rmw_request_id_t {
	var header C.rmw_request_id_t
	header.sequence_number = C.int64_t(id.SequenceNumber)
	for i, b := range id.WriterGUID {
		header.writer_guid[i] = C.int8_t(b)
	}
	return header
}
