//go:build rcl

package native

/*
#include <stdlib.h>
#include <rcl/rcl.h>
#include <rcl_action/rcl_action.h>
#include <action_msgs/srv/cancel_goal.h>
*/
import "C"

import (
	"unsafe"

	"github.com/team-rocos/rclbridge/rcl"
)

func (Library) ActionServerInit(n, k rcl.Pointer, ts rcl.TypeSupport, name string, opts rcl.ActionServerOptions) (rcl.Pointer, error) {
	node, err := cast[C.rcl_node_t](n, "node")
	if err != nil {
		return nil, err
	}
	clock, err := cast[C.rcl_clock_t](k, "clock")
	if err != nil {
		return nil, err
	}
	at, ok := ts.(ActionType)
	if !ok {
		return nil, invalid("%s has no native action type support", ts.TypeName())
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	server := alloc[C.rcl_action_server_t]()
	*server = C.rcl_action_get_zero_initialized_server()
	cOpts := C.rcl_action_server_get_default_options()
	cOpts.result_timeout.nanoseconds = C.rcl_duration_value_t(opts.ResultTimeout.Nanoseconds())
	rc := C.rcl_action_server_init(server, node, clock, (*C.rosidl_action_type_support_t)(at.ActionTypeSupport()), cName, &cOpts)
	if err := errorsCast(rc); err != nil {
		free(server)
		return nil, err
	}
	return server, nil
}

func (Library) ActionServerFini(s, n rcl.Pointer) error {
	server, err := cast[C.rcl_action_server_t](s, "action server")
	if err != nil {
		return err
	}
	node, err := cast[C.rcl_node_t](n, "node")
	if err != nil {
		return err
	}
	if err := errorsCast(C.rcl_action_server_fini(server, node)); err != nil {
		return err
	}
	free(server)
	return nil
}

func (Library) ActionServerWaitSetGetNumEntities(s rcl.Pointer) (rcl.EntityCounts, error) {
	server, err := cast[C.rcl_action_server_t](s, "action server")
	if err != nil {
		return rcl.EntityCounts{}, err
	}
	var subs, gcs, timers, clients, services C.size_t
	rc := C.rcl_action_server_wait_set_get_num_entities(server, &subs, &gcs, &timers, &clients, &services)
	if err := errorsCast(rc); err != nil {
		return rcl.EntityCounts{}, err
	}
	return rcl.EntityCounts{
		Subscriptions:   int(subs),
		GuardConditions: int(gcs),
		Timers:          int(timers),
		Clients:         int(clients),
		Services:        int(services),
	}, nil
}

func (Library) ActionServerWaitSetGetEntitiesReady(w, s rcl.Pointer) (rcl.ActionServerReady, error) {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return rcl.ActionServerReady{}, err
	}
	server, err := cast[C.rcl_action_server_t](s, "action server")
	if err != nil {
		return rcl.ActionServerReady{}, err
	}
	var goal, cancel, result, expired C.bool
	rc := C.rcl_action_server_wait_set_get_entities_ready(ws, server, &goal, &cancel, &result, &expired)
	if err := errorsCast(rc); err != nil {
		return rcl.ActionServerReady{}, err
	}
	return rcl.ActionServerReady{
		GoalRequest:   bool(goal),
		CancelRequest: bool(cancel),
		ResultRequest: bool(result),
		GoalExpired:   bool(expired),
	}, nil
}

type actionTake func(*C.rcl_action_server_t, *C.rmw_request_id_t, unsafe.Pointer) C.rcl_ret_t

type actionSend func(*C.rcl_action_server_t, *C.rmw_request_id_t, unsafe.Pointer) C.rcl_ret_t

func take(s rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer, fn actionTake) error {
	server, err := cast[C.rcl_action_server_t](s, "action server")
	if err != nil {
		return err
	}
	msg, err := message(buf)
	if err != nil {
		return err
	}
	var header C.rmw_request_id_t
	if err := errorsCast(fn(server, &header, msg)); err != nil {
		return err
	}
	toRequestID(&header, id)
	return nil
}

func send(s rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer, fn actionSend) error {
	server, err := cast[C.rcl_action_server_t](s, "action server")
	if err != nil {
		return err
	}
	msg, err := message(buf)
	if err != nil {
		return err
	}
	header := fromRequestID(id)
	return errorsCast(fn(server, &header, msg))
}

func (Library) ActionTakeGoalRequest(s rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer) error {
	return take(s, id, buf, func(server *C.rcl_action_server_t, header *C.rmw_request_id_t, msg unsafe.Pointer) C.rcl_ret_t {
		return C.rcl_action_take_goal_request(server, header, msg)
	})
}

func (Library) ActionTakeCancelRequest(s rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer) error {
	return take(s, id, buf, func(server *C.rcl_action_server_t, header *C.rmw_request_id_t, msg unsafe.Pointer) C.rcl_ret_t {
		return C.rcl_action_take_cancel_request(server, header, msg)
	})
}

func (Library) ActionTakeResultRequest(s rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer) error {
	return take(s, id, buf, func(server *C.rcl_action_server_t, header *C.rmw_request_id_t, msg unsafe.Pointer) C.rcl_ret_t {
		return C.rcl_action_take_result_request(server, header, msg)
	})
}

func (Library) ActionSendGoalResponse(s rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer) error {
	return send(s, id, buf, func(server *C.rcl_action_server_t, header *C.rmw_request_id_t, msg unsafe.Pointer) C.rcl_ret_t {
		return C.rcl_action_send_goal_response(server, header, msg)
	})
}

func (Library) ActionSendCancelResponse(s rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer) error {
	return send(s, id, buf, func(server *C.rcl_action_server_t, header *C.rmw_request_id_t, msg unsafe.Pointer) C.rcl_ret_t {
		return C.rcl_action_send_cancel_response(server, header, msg)
	})
}

func (Library) ActionSendResultResponse(s rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer) error {
	return send(s, id, buf, func(server *C.rcl_action_server_t, header *C.rmw_request_id_t, msg unsafe.Pointer) C.rcl_ret_t {
		return C.rcl_action_send_result_response(server, header, msg)
	})
}

// ActionProcessCancelRequest runs the rcl cancel policy and copies the
// resulting goal list into response, which must hold an
// action_msgs/srv/CancelGoal response.
func (Library) ActionProcessCancelRequest(s rcl.Pointer, request, response rcl.Buffer) error {
	server, err := cast[C.rcl_action_server_t](s, "action server")
	if err != nil {
		return err
	}
	req, err := message(request)
	if err != nil {
		return err
	}
	out, err := message(response)
	if err != nil {
		return err
	}
	resp := C.rcl_action_get_zero_initialized_cancel_response()
	rc := C.rcl_action_process_cancel_request(server, (*C.rcl_action_cancel_request_t)(req), &resp)
	if err := errorsCast(rc); err != nil {
		return err
	}
	defer C.rcl_action_cancel_response_fini(&resp)
	if !C.action_msgs__srv__CancelGoal_Response__copy(&resp.msg, (*C.action_msgs__srv__CancelGoal_Response)(out)) {
		return rcl.Errorf(rcl.RetBadAlloc, "failed to copy cancel response")
	}
	return nil
}

func (Library) ActionAcceptNewGoal(s rcl.Pointer, goalInfo rcl.Buffer) (rcl.Pointer, error) {
	server, err := cast[C.rcl_action_server_t](s, "action server")
	if err != nil {
		return nil, err
	}
	info, err := message(goalInfo)
	if err != nil {
		return nil, err
	}
	goal := C.rcl_action_accept_new_goal(server, (*C.rcl_action_goal_info_t)(info))
	if goal == nil {
		return nil, errorsCast(C.RCL_RET_ERROR)
	}
	return goal, nil
}

// ActionGoalHandleFini finalizes the goal handle. Its memory stays owned by
// the action server.
func (Library) ActionGoalHandleFini(p rcl.Pointer) error {
	goal, err := cast[C.rcl_action_goal_handle_t](p, "goal handle")
	if err != nil {
		return err
	}
	return errorsCast(C.rcl_action_goal_handle_fini(goal))
}

func (Library) ActionUpdateGoalState(p rcl.Pointer, event rcl.GoalEvent) error {
	goal, err := cast[C.rcl_action_goal_handle_t](p, "goal handle")
	if err != nil {
		return err
	}
	var e C.rcl_action_goal_event_t
	switch event {
	case rcl.GoalEventExecute:
		e = C.GOAL_EVENT_EXECUTE
	case rcl.GoalEventCancelGoal:
		e = C.GOAL_EVENT_CANCEL_GOAL
	case rcl.GoalEventSucceed:
		e = C.GOAL_EVENT_SUCCEED
	case rcl.GoalEventAbort:
		e = C.GOAL_EVENT_ABORT
	case rcl.GoalEventCanceled:
		e = C.GOAL_EVENT_CANCELED
	default:
		return invalid("unknown goal event %d", event)
	}
	return errorsCast(C.rcl_action_update_goal_state(goal, e))
}

func (Library) ActionGoalHandleGetStatus(p rcl.Pointer) (rcl.GoalState, error) {
	goal, err := cast[C.rcl_action_goal_handle_t](p, "goal handle")
	if err != nil {
		return rcl.GoalStateUnknown, err
	}
	var state C.rcl_action_goal_state_t
	if err := errorsCast(C.rcl_action_goal_handle_get_status(goal, &state)); err != nil {
		return rcl.GoalStateUnknown, err
	}
	return rcl.GoalState(state), nil
}

func (Library) ActionExpireGoals(s rcl.Pointer, capacity int) ([]rcl.GoalUUID, error) {
	server, err := cast[C.rcl_action_server_t](s, "action server")
	if err != nil {
		return nil, err
	}
	if capacity <= 0 {
		var handles **C.rcl_action_goal_handle_t
		var n C.size_t
		if err := errorsCast(C.rcl_action_server_get_goal_handles(server, &handles, &n)); err != nil {
			return nil, err
		}
		capacity = int(n)
	}
	if capacity == 0 {
		return nil, nil
	}
	infos := (*C.rcl_action_goal_info_t)(C.calloc(C.size_t(capacity), C.sizeof_rcl_action_goal_info_t))
	defer C.free(unsafe.Pointer(infos))
	var expired C.size_t
	if err := errorsCast(C.rcl_action_expire_goals(server, infos, C.size_t(capacity), &expired)); err != nil {
		return nil, err
	}
	ids := make([]rcl.GoalUUID, int(expired))
	for i, info := range unsafe.Slice(infos, int(expired)) {
		for j := range ids[i] {
			ids[i][j] = uint8(info.goal_id.uuid[j])
		}
	}
	return ids, nil
}

func (Library) ActionNotifyGoalDone(s rcl.Pointer) error {
	server, err := cast[C.rcl_action_server_t](s, "action server")
	if err != nil {
		return err
	}
	return errorsCast(C.rcl_action_notify_goal_done(server))
}
