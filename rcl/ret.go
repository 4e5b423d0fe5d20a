package rcl

import (
	"fmt"

	"github.com/pkg/errors"
)

// RetCode is an rcl_ret_t / rmw_ret_t value.
type RetCode int32

// Return codes shared by rcl, rmw and rcl_action. Values follow
// rcl/types.h and rcl_action/types.h.
const (
	RetOK                 RetCode = 0
	RetError              RetCode = 1
	RetTimeout            RetCode = 2
	RetUnsupported        RetCode = 3
	RetBadAlloc           RetCode = 10
	RetInvalidArgument    RetCode = 11
	RetAlreadyInit        RetCode = 100
	RetNotInit            RetCode = 101
	RetTopicNameInvalid   RetCode = 103
	RetServiceNameInvalid RetCode = 104
	RetAlreadyShutdown    RetCode = 106

	RetNodeInvalid            RetCode = 200
	RetNodeInvalidName        RetCode = 201
	RetPublisherInvalid       RetCode = 300
	RetSubscriptionInvalid    RetCode = 400
	RetSubscriptionTakeFailed RetCode = 401
	RetClientInvalid          RetCode = 500
	RetClientTakeFailed       RetCode = 501
	RetServiceInvalid         RetCode = 600
	RetServiceTakeFailed      RetCode = 601
	RetTimerInvalid           RetCode = 800
	RetTimerCanceled          RetCode = 801
	RetWaitSetInvalid         RetCode = 900
	RetWaitSetEmpty           RetCode = 901
	RetWaitSetFull            RetCode = 902

	RetActionNameInvalid       RetCode = 2000
	RetActionGoalAccepted      RetCode = 2100
	RetActionGoalRejected      RetCode = 2101
	RetActionClientInvalid     RetCode = 2102
	RetActionClientTakeFailed  RetCode = 2103
	RetActionServerInvalid     RetCode = 2200
	RetActionServerTakeFailed  RetCode = 2201
	RetActionGoalHandleInvalid RetCode = 2300
	RetActionGoalEventInvalid  RetCode = 2301
)

var retNames = map[RetCode]string{
	RetOK:                      "RCL_RET_OK",
	RetError:                   "RCL_RET_ERROR",
	RetTimeout:                 "RCL_RET_TIMEOUT",
	RetUnsupported:             "RCL_RET_UNSUPPORTED",
	RetBadAlloc:                "RCL_RET_BAD_ALLOC",
	RetInvalidArgument:         "RCL_RET_INVALID_ARGUMENT",
	RetAlreadyInit:             "RCL_RET_ALREADY_INIT",
	RetNotInit:                 "RCL_RET_NOT_INIT",
	RetTopicNameInvalid:        "RCL_RET_TOPIC_NAME_INVALID",
	RetServiceNameInvalid:      "RCL_RET_SERVICE_NAME_INVALID",
	RetAlreadyShutdown:         "RCL_RET_ALREADY_SHUTDOWN",
	RetNodeInvalid:             "RCL_RET_NODE_INVALID",
	RetNodeInvalidName:         "RCL_RET_NODE_INVALID_NAME",
	RetPublisherInvalid:        "RCL_RET_PUBLISHER_INVALID",
	RetSubscriptionInvalid:     "RCL_RET_SUBSCRIPTION_INVALID",
	RetSubscriptionTakeFailed:  "RCL_RET_SUBSCRIPTION_TAKE_FAILED",
	RetClientInvalid:           "RCL_RET_CLIENT_INVALID",
	RetClientTakeFailed:        "RCL_RET_CLIENT_TAKE_FAILED",
	RetServiceInvalid:          "RCL_RET_SERVICE_INVALID",
	RetServiceTakeFailed:       "RCL_RET_SERVICE_TAKE_FAILED",
	RetTimerInvalid:            "RCL_RET_TIMER_INVALID",
	RetTimerCanceled:           "RCL_RET_TIMER_CANCELED",
	RetWaitSetInvalid:          "RCL_RET_WAIT_SET_INVALID",
	RetWaitSetEmpty:            "RCL_RET_WAIT_SET_EMPTY",
	RetWaitSetFull:             "RCL_RET_WAIT_SET_FULL",
	RetActionNameInvalid:       "RCL_RET_ACTION_NAME_INVALID",
	RetActionGoalAccepted:      "RCL_RET_ACTION_GOAL_ACCEPTED",
	RetActionGoalRejected:      "RCL_RET_ACTION_GOAL_REJECTED",
	RetActionClientInvalid:     "RCL_RET_ACTION_CLIENT_INVALID",
	RetActionClientTakeFailed:  "RCL_RET_ACTION_CLIENT_TAKE_FAILED",
	RetActionServerInvalid:     "RCL_RET_ACTION_SERVER_INVALID",
	RetActionServerTakeFailed:  "RCL_RET_ACTION_SERVER_TAKE_FAILED",
	RetActionGoalHandleInvalid: "RCL_RET_ACTION_GOAL_HANDLE_INVALID",
	RetActionGoalEventInvalid:  "RCL_RET_ACTION_GOAL_EVENT_INVALID",
}

func (c RetCode) String() string {
	if name, ok := retNames[c]; ok {
		return name
	}
	return fmt.Sprintf("RCL_RET(%d)", int32(c))
}

// Error is the failure value of a native call. It carries the return code
// together with the error text the library produced for that call, so no
// global error state needs to be read or reset afterwards.
type Error struct {
	Code RetCode
	Text string
}

func (e *Error) Error() string {
	if e.Text == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s, at %s", e.Text, e.Code)
}

// Errorf builds a native error with a formatted text.
func Errorf(code RetCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Text: fmt.Sprintf(format, args...)}
}

// CodeOf returns the return code carried by err or any error it wraps. A nil
// error is RetOK and an error without an *Error in its chain is RetError.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetError
}

// TextOf returns the native diagnostic text of err.
func TextOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Text
	}
	return err.Error()
}
