package rcl

import "time"

// Pointer is an opaque reference to an object owned by the native library.
// Only the Library that produced a Pointer may interpret it.
type Pointer interface{}

// Buffer is a type-erased native message. Its concrete type is known only to
// the converter that produced it and to the Library that fills it.
type Buffer interface{}

// TypeSupport identifies a rosidl message, service or action type.
type TypeSupport interface {
	TypeName() string
}

// GUIDSize is the size of an rmw writer GUID, see rmw/types.h.
const GUIDSize = 16

// RequestID is the native rmw_request_id_t record.
type RequestID struct {
	SequenceNumber int64
	WriterGUID     [GUIDSize]int8
}

// GoalUUID is the unique_identifier_msgs/UUID of a goal.
type GoalUUID [16]uint8

// ClockType selects the time source of a clock.
type ClockType uint8

const (
	ClockUninitialized ClockType = iota
	ClockROSTime
	ClockSystemTime
	ClockSteadyTime
)

// EntityKind selects a slot array of a wait set.
type EntityKind uint8

const (
	EntitySubscription EntityKind = iota
	EntityGuardCondition
	EntityTimer
	EntityClient
	EntityService
	EntityEvent
)

func (k EntityKind) String() string {
	switch k {
	case EntitySubscription:
		return "subscription"
	case EntityGuardCondition:
		return "guard condition"
	case EntityTimer:
		return "timer"
	case EntityClient:
		return "client"
	case EntityService:
		return "service"
	case EntityEvent:
		return "event"
	default:
		return "unknown"
	}
}

// WaitSetSizes is the capacity of each slot array of a wait set.
type WaitSetSizes struct {
	Subscriptions   int
	GuardConditions int
	Timers          int
	Clients         int
	Services        int
	Events          int
}

// Add returns the element-wise sum of s and o.
func (s WaitSetSizes) Add(o WaitSetSizes) WaitSetSizes {
	return WaitSetSizes{
		Subscriptions:   s.Subscriptions + o.Subscriptions,
		GuardConditions: s.GuardConditions + o.GuardConditions,
		Timers:          s.Timers + o.Timers,
		Clients:         s.Clients + o.Clients,
		Services:        s.Services + o.Services,
		Events:          s.Events + o.Events,
	}
}

// EntityCounts is the number of wait set entities an action server needs.
type EntityCounts struct {
	Subscriptions   int
	GuardConditions int
	Timers          int
	Clients         int
	Services        int
}

// WaitSetSizes converts the counts into wait set capacities.
func (c EntityCounts) WaitSetSizes() WaitSetSizes {
	return WaitSetSizes{
		Subscriptions:   c.Subscriptions,
		GuardConditions: c.GuardConditions,
		Timers:          c.Timers,
		Clients:         c.Clients,
		Services:        c.Services,
	}
}

// ActionServerReady reports which parts of an action server have work after
// a wait.
type ActionServerReady struct {
	GoalRequest   bool
	CancelRequest bool
	ResultRequest bool
	GoalExpired   bool
}

// Any reports whether at least one entity is ready.
func (r ActionServerReady) Any() bool {
	return r.GoalRequest || r.CancelRequest || r.ResultRequest || r.GoalExpired
}

// GoalEvent drives the native goal state machine.
type GoalEvent uint8

const (
	GoalEventExecute GoalEvent = iota
	GoalEventCancelGoal
	GoalEventSucceed
	GoalEventAbort
	GoalEventCanceled
)

func (e GoalEvent) String() string {
	switch e {
	case GoalEventExecute:
		return "EXECUTE"
	case GoalEventCancelGoal:
		return "CANCEL_GOAL"
	case GoalEventSucceed:
		return "SUCCEED"
	case GoalEventAbort:
		return "ABORT"
	case GoalEventCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// GoalState mirrors action_msgs/GoalStatus.
type GoalState int8

const (
	GoalStateUnknown GoalState = iota
	GoalStateAccepted
	GoalStateExecuting
	GoalStateCanceling
	GoalStateSucceeded
	GoalStateCanceled
	GoalStateAborted
)

// Terminal reports whether no further events are accepted in state s.
func (s GoalState) Terminal() bool {
	return s == GoalStateSucceeded || s == GoalStateCanceled || s == GoalStateAborted
}

// ActionServerOptions mirrors rcl_action_server_options_t.
type ActionServerOptions struct {
	ResultTimeout time.Duration
}

// DefaultActionServerOptions returns rcl_action_server_get_default_options().
func DefaultActionServerOptions() ActionServerOptions {
	return ActionServerOptions{ResultTimeout: 15 * time.Minute}
}
