// Package rcl describes the native ROS 2 client library as a Go interface.
//
// Every method corresponds to one rcl or rcl_action C function. Failures are
// returned as *Error values carrying the return code and the diagnostic text
// of that one call.
package rcl

import "time"

// Library is the complete native surface used by the bridge.
type Library interface {
	Lifecycle
	Transport
	Actions
	WaitSets
}

// Lifecycle creates and finalizes native resources.
type Lifecycle interface {
	ContextInit() (Pointer, error)
	ContextFini(ctx Pointer) error

	NodeInit(ctx Pointer, name, namespace string) (Pointer, error)
	NodeFini(node Pointer) error

	ClockInit(kind ClockType) (Pointer, error)
	ClockFini(clock Pointer) error

	ServiceInit(node Pointer, ts TypeSupport, name string) (Pointer, error)
	ServiceFini(service, node Pointer) error

	ClientInit(node Pointer, ts TypeSupport, name string) (Pointer, error)
	ClientFini(client, node Pointer) error

	SubscriptionInit(node Pointer, ts TypeSupport, topic string) (Pointer, error)
	SubscriptionFini(subscription, node Pointer) error

	TimerInit(ctx, clock Pointer, period time.Duration) (Pointer, error)
	TimerFini(timer Pointer) error
	TimerCall(timer Pointer) error

	GuardConditionInit(ctx Pointer) (Pointer, error)
	GuardConditionFini(gc Pointer) error
	GuardConditionTrigger(gc Pointer) error
}

// Transport moves messages, requests and responses. Take calls never block;
// when nothing is pending they fail with the take-failed code of the entity.
type Transport interface {
	Take(subscription Pointer, msg Buffer) error
	TakeRequest(service Pointer, header *RequestID, request Buffer) error
	SendResponse(service Pointer, header *RequestID, response Buffer) error
	SendRequest(client Pointer, request Buffer) (int64, error)
	TakeResponse(client Pointer, header *RequestID, response Buffer) error
}

// Actions is the rcl_action server surface.
type Actions interface {
	ActionServerInit(node, clock Pointer, ts TypeSupport, name string, opts ActionServerOptions) (Pointer, error)
	ActionServerFini(server, node Pointer) error
	ActionServerWaitSetGetNumEntities(server Pointer) (EntityCounts, error)
	ActionServerWaitSetGetEntitiesReady(ws, server Pointer) (ActionServerReady, error)

	ActionTakeGoalRequest(server Pointer, header *RequestID, request Buffer) error
	ActionTakeCancelRequest(server Pointer, header *RequestID, request Buffer) error
	ActionTakeResultRequest(server Pointer, header *RequestID, request Buffer) error
	ActionSendGoalResponse(server Pointer, header *RequestID, response Buffer) error
	ActionSendCancelResponse(server Pointer, header *RequestID, response Buffer) error
	ActionSendResultResponse(server Pointer, header *RequestID, response Buffer) error

	// ActionProcessCancelRequest fills response with the goals the
	// cancel request applies to.
	ActionProcessCancelRequest(server Pointer, request, response Buffer) error

	// ActionAcceptNewGoal returns a nil Pointer when the goal cannot be
	// accepted.
	ActionAcceptNewGoal(server Pointer, goalInfo Buffer) (Pointer, error)
	ActionGoalHandleFini(goal Pointer) error
	ActionUpdateGoalState(goal Pointer, event GoalEvent) error
	ActionGoalHandleGetStatus(goal Pointer) (GoalState, error)
	// ActionExpireGoals finalizes at most capacity expired goals, all of
	// them if capacity is zero, and returns their ids.
	ActionExpireGoals(server Pointer, capacity int) ([]GoalUUID, error)
	ActionNotifyGoalDone(server Pointer) error
}

// WaitSets is the rcl wait set surface. Add calls return the slot index the
// entity was stored at.
type WaitSets interface {
	WaitSetZero() Pointer
	WaitSetInit(ws, ctx Pointer, sizes WaitSetSizes) error
	WaitSetFini(ws Pointer) error
	WaitSetClear(ws Pointer) error
	WaitSetAddSubscription(ws, subscription Pointer) (int, error)
	WaitSetAddGuardCondition(ws, gc Pointer) (int, error)
	WaitSetAddTimer(ws, timer Pointer) (int, error)
	WaitSetAddClient(ws, client Pointer) (int, error)
	WaitSetAddService(ws, service Pointer) (int, error)
	WaitSetAddActionServer(ws, server Pointer) error
	// Wait blocks until an entity is ready or the timeout elapses. A
	// negative timeout blocks indefinitely. Timing out fails with RetTimeout.
	Wait(ws Pointer, timeout time.Duration) error
	WaitSetIsReady(ws Pointer, kind EntityKind, index int) (bool, error)
}
