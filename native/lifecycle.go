//go:build rcl

package native

/*
#include <stdlib.h>
#include <rcl/rcl.h>
#include <rcl/error_handling.h>
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/team-rocos/rclbridge/rcl"
)

func (Library) ContextInit() (rcl.Pointer, error) {
	opts := C.rcl_get_zero_initialized_init_options()
	if err := errorsCast(C.rcl_init_options_init(&opts, C.rcl_get_default_allocator())); err != nil {
		return nil, err
	}
	defer C.rcl_init_options_fini(&opts)

	ctx := alloc[C.rcl_context_t]()
	*ctx = C.rcl_get_zero_initialized_context()
	if err := errorsCast(C.rcl_init(0, nil, &opts, ctx)); err != nil {
		free(ctx)
		return nil, err
	}
	return ctx, nil
}

func (Library) ContextFini(p rcl.Pointer) error {
	ctx, err := cast[C.rcl_context_t](p, "context")
	if err != nil {
		return err
	}
	if C.rcl_context_is_valid(ctx) {
		if err := errorsCast(C.rcl_shutdown(ctx)); err != nil {
			return err
		}
	}
	if err := errorsCast(C.rcl_context_fini(ctx)); err != nil {
		return err
	}
	free(ctx)
	return nil
}

func (Library) NodeInit(p rcl.Pointer, name, namespace string) (rcl.Pointer, error) {
	ctx, err := cast[C.rcl_context_t](p, "context")
	if err != nil {
		return nil, err
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	cNamespace := C.CString(namespace)
	defer C.free(unsafe.Pointer(cNamespace))

	node := alloc[C.rcl_node_t]()
	*node = C.rcl_get_zero_initialized_node()
	opts := C.rcl_node_get_default_options()
	defer C.rcl_node_options_fini(&opts)
	if err := errorsCast(C.rcl_node_init(node, cName, cNamespace, ctx, &opts)); err != nil {
		free(node)
		return nil, err
	}
	return node, nil
}

func (Library) NodeFini(p rcl.Pointer) error {
	node, err := cast[C.rcl_node_t](p, "node")
	if err != nil {
		return err
	}
	if err := errorsCast(C.rcl_node_fini(node)); err != nil {
		return err
	}
	free(node)
	return nil
}

func (Library) ClockInit(kind rcl.ClockType) (rcl.Pointer, error) {
	var clockType C.rcl_clock_type_t
	switch kind {
	case rcl.ClockROSTime:
		clockType = C.RCL_ROS_TIME
	case rcl.ClockSystemTime:
		clockType = C.RCL_SYSTEM_TIME
	case rcl.ClockSteadyTime:
		clockType = C.RCL_STEADY_TIME
	default:
		return nil, invalid("unsupported clock type %d", kind)
	}
	clock := alloc[C.rcl_clock_t]()
	allocator := C.rcl_get_default_allocator()
	if err := errorsCast(C.rcl_clock_init(clockType, clock, &allocator)); err != nil {
		free(clock)
		return nil, err
	}
	return clock, nil
}

func (Library) ClockFini(p rcl.Pointer) error {
	clock, err := cast[C.rcl_clock_t](p, "clock")
	if err != nil {
		return err
	}
	if err := errorsCast(C.rcl_clock_fini(clock)); err != nil {
		return err
	}
	free(clock)
	return nil
}

func (Library) ServiceInit(p rcl.Pointer, ts rcl.TypeSupport, name string) (rcl.Pointer, error) {
	node, err := cast[C.rcl_node_t](p, "node")
	if err != nil {
		return nil, err
	}
	st, ok := ts.(ServiceType)
	if !ok {
		return nil, invalid("%s has no native service type support", ts.TypeName())
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	service := alloc[C.rcl_service_t]()
	*service = C.rcl_get_zero_initialized_service()
	opts := C.rcl_service_get_default_options()
	rc := C.rcl_service_init(service, node, (*C.rosidl_service_type_support_t)(st.ServiceTypeSupport()), cName, &opts)
	if err := errorsCast(rc); err != nil {
		free(service)
		return nil, err
	}
	return service, nil
}

func (Library) ServiceFini(s, n rcl.Pointer) error {
	service, err := cast[C.rcl_service_t](s, "service")
	if err != nil {
		return err
	}
	node, err := cast[C.rcl_node_t](n, "node")
	if err != nil {
		return err
	}
	if err := errorsCast(C.rcl_service_fini(service, node)); err != nil {
		return err
	}
	free(service)
	return nil
}

func (Library) ClientInit(p rcl.Pointer, ts rcl.TypeSupport, name string) (rcl.Pointer, error) {
	node, err := cast[C.rcl_node_t](p, "node")
	if err != nil {
		return nil, err
	}
	st, ok := ts.(ServiceType)
	if !ok {
		return nil, invalid("%s has no native service type support", ts.TypeName())
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	client := alloc[C.rcl_client_t]()
	*client = C.rcl_get_zero_initialized_client()
	opts := C.rcl_client_get_default_options()
	rc := C.rcl_client_init(client, node, (*C.rosidl_service_type_support_t)(st.ServiceTypeSupport()), cName, &opts)
	if err := errorsCast(rc); err != nil {
		free(client)
		return nil, err
	}
	return client, nil
}

func (Library) ClientFini(c, n rcl.Pointer) error {
	client, err := cast[C.rcl_client_t](c, "client")
	if err != nil {
		return err
	}
	node, err := cast[C.rcl_node_t](n, "node")
	if err != nil {
		return err
	}
	if err := errorsCast(C.rcl_client_fini(client, node)); err != nil {
		return err
	}
	free(client)
	return nil
}

func (Library) SubscriptionInit(p rcl.Pointer, ts rcl.TypeSupport, topic string) (rcl.Pointer, error) {
	node, err := cast[C.rcl_node_t](p, "node")
	if err != nil {
		return nil, err
	}
	mt, ok := ts.(MessageType)
	if !ok {
		return nil, invalid("%s has no native message type support", ts.TypeName())
	}
	cTopic := C.CString(topic)
	defer C.free(unsafe.Pointer(cTopic))

	sub := alloc[C.rcl_subscription_t]()
	*sub = C.rcl_get_zero_initialized_subscription()
	opts := C.rcl_subscription_get_default_options()
	rc := C.rcl_subscription_init(sub, node, (*C.rosidl_message_type_support_t)(mt.MessageTypeSupport()), cTopic, &opts)
	if err := errorsCast(rc); err != nil {
		free(sub)
		return nil, err
	}
	return sub, nil
}

func (Library) SubscriptionFini(s, n rcl.Pointer) error {
	sub, err := cast[C.rcl_subscription_t](s, "subscription")
	if err != nil {
		return err
	}
	node, err := cast[C.rcl_node_t](n, "node")
	if err != nil {
		return err
	}
	if err := errorsCast(C.rcl_subscription_fini(sub, node)); err != nil {
		return err
	}
	free(sub)
	return nil
}

func (Library) TimerInit(c, k rcl.Pointer, period time.Duration) (rcl.Pointer, error) {
	ctx, err := cast[C.rcl_context_t](c, "context")
	if err != nil {
		return nil, err
	}
	clock, err := cast[C.rcl_clock_t](k, "clock")
	if err != nil {
		return nil, err
	}
	timer := alloc[C.rcl_timer_t]()
	*timer = C.rcl_get_zero_initialized_timer()
	rc := C.rcl_timer_init(timer, clock, ctx, C.int64_t(period.Nanoseconds()), nil, C.rcl_get_default_allocator())
	if err := errorsCast(rc); err != nil {
		free(timer)
		return nil, err
	}
	return timer, nil
}

func (Library) TimerFini(p rcl.Pointer) error {
	timer, err := cast[C.rcl_timer_t](p, "timer")
	if err != nil {
		return err
	}
	if err := errorsCast(C.rcl_timer_fini(timer)); err != nil {
		return err
	}
	free(timer)
	return nil
}

func (Library) TimerCall(p rcl.Pointer) error {
	timer, err := cast[C.rcl_timer_t](p, "timer")
	if err != nil {
		return err
	}
	return errorsCast(C.rcl_timer_call(timer))
}

func (Library) GuardConditionInit(p rcl.Pointer) (rcl.Pointer, error) {
	ctx, err := cast[C.rcl_context_t](p, "context")
	if err != nil {
		return nil, err
	}
	gc := alloc[C.rcl_guard_condition_t]()
	*gc = C.rcl_get_zero_initialized_guard_condition()
	if err := errorsCast(C.rcl_guard_condition_init(gc, ctx, C.rcl_guard_condition_get_default_options())); err != nil {
		free(gc)
		return nil, err
	}
	return gc, nil
}

func (Library) GuardConditionFini(p rcl.Pointer) error {
	gc, err := cast[C.rcl_guard_condition_t](p, "guard condition")
	if err != nil {
		return err
	}
	if err := errorsCast(C.rcl_guard_condition_fini(gc)); err != nil {
		return err
	}
	free(gc)
	return nil
}

func (Library) GuardConditionTrigger(p rcl.Pointer) error {
	gc, err := cast[C.rcl_guard_condition_t](p, "guard condition")
	if err != nil {
		return err
	}
	return errorsCast(C.rcl_trigger_guard_condition(gc))
}
