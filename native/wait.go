//go:build rcl

package native

/*
#include <rcl/wait.h>
#include <rcl_action/wait.h>
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/team-rocos/rclbridge/rcl"
)

func (Library) WaitSetZero() rcl.Pointer {
	ws := alloc[C.rcl_wait_set_t]()
	*ws = C.rcl_get_zero_initialized_wait_set()
	return ws
}

func (Library) WaitSetInit(w, c rcl.Pointer, sizes rcl.WaitSetSizes) error {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return err
	}
	ctx, err := cast[C.rcl_context_t](c, "context")
	if err != nil {
		return err
	}
	return errorsCast(C.rcl_wait_set_init(
		ws,
		C.size_t(sizes.Subscriptions),
		C.size_t(sizes.GuardConditions),
		C.size_t(sizes.Timers),
		C.size_t(sizes.Clients),
		C.size_t(sizes.Services),
		C.size_t(sizes.Events),
		ctx,
		C.rcl_get_default_allocator(),
	))
}

// WaitSetFini finalizes ws and releases its memory. A zero initialized wait
// set is accepted.
func (Library) WaitSetFini(w rcl.Pointer) error {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return err
	}
	if err := errorsCast(C.rcl_wait_set_fini(ws)); err != nil {
		return err
	}
	free(ws)
	return nil
}

func (Library) WaitSetClear(w rcl.Pointer) error {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return err
	}
	return errorsCast(C.rcl_wait_set_clear(ws))
}

func (Library) WaitSetAddSubscription(w, p rcl.Pointer) (int, error) {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return 0, err
	}
	sub, err := cast[C.rcl_subscription_t](p, "subscription")
	if err != nil {
		return 0, err
	}
	var index C.size_t
	if err := errorsCast(C.rcl_wait_set_add_subscription(ws, sub, &index)); err != nil {
		return 0, err
	}
	return int(index), nil
}

func (Library) WaitSetAddGuardCondition(w, p rcl.Pointer) (int, error) {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return 0, err
	}
	gc, err := cast[C.rcl_guard_condition_t](p, "guard condition")
	if err != nil {
		return 0, err
	}
	var index C.size_t
	if err := errorsCast(C.rcl_wait_set_add_guard_condition(ws, gc, &index)); err != nil {
		return 0, err
	}
	return int(index), nil
}

func (Library) WaitSetAddTimer(w, p rcl.Pointer) (int, error) {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return 0, err
	}
	timer, err := cast[C.rcl_timer_t](p, "timer")
	if err != nil {
		return 0, err
	}
	var index C.size_t
	if err := errorsCast(C.rcl_wait_set_add_timer(ws, timer, &index)); err != nil {
		return 0, err
	}
	return int(index), nil
}

func (Library) WaitSetAddClient(w, p rcl.Pointer) (int, error) {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return 0, err
	}
	client, err := cast[C.rcl_client_t](p, "client")
	if err != nil {
		return 0, err
	}
	var index C.size_t
	if err := errorsCast(C.rcl_wait_set_add_client(ws, client, &index)); err != nil {
		return 0, err
	}
	return int(index), nil
}

func (Library) WaitSetAddService(w, p rcl.Pointer) (int, error) {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return 0, err
	}
	service, err := cast[C.rcl_service_t](p, "service")
	if err != nil {
		return 0, err
	}
	var index C.size_t
	if err := errorsCast(C.rcl_wait_set_add_service(ws, service, &index)); err != nil {
		return 0, err
	}
	return int(index), nil
}

func (Library) WaitSetAddActionServer(w, p rcl.Pointer) error {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return err
	}
	server, err := cast[C.rcl_action_server_t](p, "action server")
	if err != nil {
		return err
	}
	return errorsCast(C.rcl_action_wait_set_add_action_server(ws, server, nil))
}

func (Library) Wait(w rcl.Pointer, timeout time.Duration) error {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return err
	}
	ns := C.int64_t(-1)
	if timeout >= 0 {
		ns = C.int64_t(timeout.Nanoseconds())
	}
	return errorsCast(C.rcl_wait(ws, ns))
}

func (Library) WaitSetIsReady(w rcl.Pointer, kind rcl.EntityKind, index int) (bool, error) {
	ws, err := cast[C.rcl_wait_set_t](w, "wait set")
	if err != nil {
		return false, err
	}
	var slots []unsafe.Pointer
	switch kind {
	case rcl.EntitySubscription:
		slots = unsafe.Slice((*unsafe.Pointer)(unsafe.Pointer(ws.subscriptions)), int(ws.size_of_subscriptions))
	case rcl.EntityGuardCondition:
		slots = unsafe.Slice((*unsafe.Pointer)(unsafe.Pointer(ws.guard_conditions)), int(ws.size_of_guard_conditions))
	case rcl.EntityTimer:
		slots = unsafe.Slice((*unsafe.Pointer)(unsafe.Pointer(ws.timers)), int(ws.size_of_timers))
	case rcl.EntityClient:
		slots = unsafe.Slice((*unsafe.Pointer)(unsafe.Pointer(ws.clients)), int(ws.size_of_clients))
	case rcl.EntityService:
		slots = unsafe.Slice((*unsafe.Pointer)(unsafe.Pointer(ws.services)), int(ws.size_of_services))
	case rcl.EntityEvent:
		slots = unsafe.Slice((*unsafe.Pointer)(unsafe.Pointer(ws.events)), int(ws.size_of_events))
	default:
		return false, invalid("unknown entity kind %d", kind)
	}
	if index < 0 || index >= len(slots) {
		return false, invalid("%s index %d out of range [0, %d)", kind, index, len(slots))
	}
	return slots[index] != nil, nil
}
