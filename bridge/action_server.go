package bridge

import (
	"github.com/team-rocos/rclbridge/rcl"
)

// CreateActionServer creates an action server named name on node, using
// clock for goal stamps and expiry.
func (b *Bridge) CreateActionServer(node, clock Handle, ts rcl.TypeSupport, name string) (Handle, error) {
	return b.CreateActionServerWithOptions(node, clock, ts, name, rcl.DefaultActionServerOptions())
}

// CreateActionServerWithOptions is CreateActionServer with explicit options.
func (b *Bridge) CreateActionServerWithOptions(node, clock Handle, ts rcl.TypeSupport, name string,
	opts rcl.ActionServerOptions) (Handle, error) {

	nodePtr, err := b.ownerWithTypeSupport(node, ts, name)
	if err != nil {
		return 0, err
	}
	clockPtr, err := b.handles.lookup(clock, KindClock)
	if err != nil {
		return 0, err
	}
	p, err := b.lib.ActionServerInit(nodePtr, clockPtr, ts, name, opts)
	if err != nil {
		return 0, b.fail(err, "Failed to create action server")
	}
	h := b.handles.register(KindActionServer, p)
	b.trace("create action server "+name, h)
	return h, nil
}

// DisposeActionServer finalizes server. A zero server is a no-op; a zero
// node with a live server is an error.
func (b *Bridge) DisposeActionServer(node, server Handle) error {
	return b.disposeOwned(node, server, KindActionServer, "action server", b.lib.ActionServerFini)
}

// ActionServerEntityCounts returns how many wait set entities server needs.
func (b *Bridge) ActionServerEntityCounts(server Handle) (rcl.EntityCounts, error) {
	p, err := b.handles.lookup(server, KindActionServer)
	if err != nil {
		return rcl.EntityCounts{}, err
	}
	counts, err := b.lib.ActionServerWaitSetGetNumEntities(p)
	if err != nil {
		return rcl.EntityCounts{}, b.fail(err, "Failed to get number of entities for an action server")
	}
	return counts, nil
}

// NumberOfSubscriptions returns the subscription count of server.
func (b *Bridge) NumberOfSubscriptions(server Handle) (int, error) {
	c, err := b.ActionServerEntityCounts(server)
	return c.Subscriptions, err
}

// NumberOfTimers returns the timer count of server.
func (b *Bridge) NumberOfTimers(server Handle) (int, error) {
	c, err := b.ActionServerEntityCounts(server)
	return c.Timers, err
}

// NumberOfClients returns the client count of server.
func (b *Bridge) NumberOfClients(server Handle) (int, error) {
	c, err := b.ActionServerEntityCounts(server)
	return c.Clients, err
}

// NumberOfServices returns the service count of server.
func (b *Bridge) NumberOfServices(server Handle) (int, error) {
	c, err := b.ActionServerEntityCounts(server)
	return c.Services, err
}

// ActionServerReadyEntities reports which parts of server became ready in the
// last wait on ws.
func (b *Bridge) ActionServerReadyEntities(server, ws Handle) (rcl.ActionServerReady, error) {
	serverPtr, err := b.handles.lookup(server, KindActionServer)
	if err != nil {
		return rcl.ActionServerReady{}, err
	}
	wsPtr, err := b.handles.lookup(ws, KindWaitSet)
	if err != nil {
		return rcl.ActionServerReady{}, err
	}
	ready, err := b.lib.ActionServerWaitSetGetEntitiesReady(wsPtr, serverPtr)
	if err != nil {
		return rcl.ActionServerReady{}, b.fail(err, "Failed to get ready entities for action server")
	}
	return ready, nil
}

// TakeGoalRequest takes a pending goal request into msg. It returns nil and
// no error when no goal request is pending.
func (b *Bridge) TakeGoalRequest(server Handle, conv Converter, msg Message) (*RMWRequestID, error) {
	return b.takeWithHeader("goal request", server, KindActionServer, rcl.RetActionServerTakeFailed,
		conv, msg, b.lib.ActionTakeGoalRequest)
}

// TakeCancelRequest takes a pending cancel request into msg.
func (b *Bridge) TakeCancelRequest(server Handle, conv Converter, msg Message) (*RMWRequestID, error) {
	return b.takeWithHeader("cancel request", server, KindActionServer, rcl.RetActionServerTakeFailed,
		conv, msg, b.lib.ActionTakeCancelRequest)
}

// TakeResultRequest takes a pending result request into msg.
func (b *Bridge) TakeResultRequest(server Handle, conv Converter, msg Message) (*RMWRequestID, error) {
	return b.takeWithHeader("result request", server, KindActionServer, rcl.RetActionServerTakeFailed,
		conv, msg, b.lib.ActionTakeResultRequest)
}

// SendGoalResponse answers the goal request identified by id.
func (b *Bridge) SendGoalResponse(server Handle, id *RMWRequestID, conv Converter, msg Message) error {
	return b.sendWithHeader("goal response", server, KindActionServer, id, conv, msg, b.lib.ActionSendGoalResponse)
}

// SendCancelResponse answers the cancel request identified by id.
func (b *Bridge) SendCancelResponse(server Handle, id *RMWRequestID, conv Converter, msg Message) error {
	return b.sendWithHeader("cancel response", server, KindActionServer, id, conv, msg, b.lib.ActionSendCancelResponse)
}

// SendResultResponse answers the result request identified by id.
func (b *Bridge) SendResultResponse(server Handle, id *RMWRequestID, conv Converter, msg Message) error {
	return b.sendWithHeader("result response", server, KindActionServer, id, conv, msg, b.lib.ActionSendResultResponse)
}

// ProcessCancelRequest lets the native library decide which goals request
// applies to and writes the outcome into response.
func (b *Bridge) ProcessCancelRequest(server Handle, reqConv, respConv Converter, request, response Message) error {
	p, err := b.handles.lookup(server, KindActionServer)
	if err != nil {
		return err
	}
	if err := checkConverter(reqConv, request); err != nil {
		return err
	}
	if err := checkConverter(respConv, response); err != nil {
		return err
	}

	var scope bufferScope
	defer scope.close()

	reqBuf, err := scope.fromManaged(reqConv, request)
	if err != nil {
		return err
	}
	respBuf, err := scope.fromManaged(respConv, response)
	if err != nil {
		return err
	}
	err = b.lib.ActionProcessCancelRequest(p, reqBuf, respBuf)
	scope.destroy(reqBuf)
	if err != nil {
		return b.fail(err, "Failed to process cancel request")
	}
	return toManaged(respConv, respBuf, response)
}
