package ros

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

type defaultActionServer struct {
	node             *Node
	action           string
	actionType       msgs.ActionType
	handle           bridge.Handle
	now              func() time.Time
	goalCallback     GoalCallback
	cancelCallback   CancelCallback
	acceptedCallback AcceptedCallback
	// mutex serializes native calls on the server and guards the maps below.
	mutex          sync.Mutex
	handlers       map[msgs.UUID]*serverGoalHandler
	pendingResults map[msgs.UUID][]*bridge.RMWRequestID
}

func newDefaultActionServer(node *Node, action string, actionType msgs.ActionType, goalCb GoalCallback,
	cancelCb CancelCallback, acceptedCb AcceptedCallback, opts ...ActionServerOption) (*defaultActionServer, error) {

	o := actionServerOptions{native: rcl.DefaultActionServerOptions(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	handle, err := node.bridge.CreateActionServerWithOptions(node.node, node.clock, actionType, action, o.native)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create action server %s", action)
	}

	as := &defaultActionServer{
		node:             node,
		action:           action,
		actionType:       actionType,
		handle:           handle,
		now:              o.now,
		goalCallback:     goalCb,
		cancelCallback:   cancelCb,
		acceptedCallback: acceptedCb,
		handlers:         map[msgs.UUID]*serverGoalHandler{},
		pendingResults:   map[msgs.UUID][]*bridge.RMWRequestID{},
	}

	logger := *node.logger
	logger.WithFields(logrus.Fields{"action": action, "type": actionType.TypeName()}).Info("action server started")
	return as, nil
}

func (as *defaultActionServer) Name() string {
	return as.action
}

func (as *defaultActionServer) Handle() bridge.Handle {
	as.mutex.Lock()
	defer as.mutex.Unlock()
	return as.handle
}

func (as *defaultActionServer) Execute(ready rcl.ActionServerReady) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if ready.GoalRequest {
		keep(as.executeGoalRequest())
	}
	if ready.CancelRequest {
		keep(as.executeCancelRequest())
	}
	if ready.ResultRequest {
		keep(as.executeResultRequest())
	}
	if ready.GoalExpired {
		_, err := as.ExpireGoals()
		keep(err)
	}
	return firstErr
}

func (as *defaultActionServer) converter(msg msgs.Serializable) (bridge.Converter, error) {
	conv, err := as.node.converter(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "action %s", as.action)
	}
	return conv, nil
}

// executeGoalRequest takes one goal request, asks the goal callback about it
// and answers the client. Accepted goals get a native goal handle before the
// response is sent.
func (as *defaultActionServer) executeGoalRequest() error {
	logger := *as.node.logger
	b := as.node.bridge

	req := as.actionType.NewGoalRequest()
	reqConv, err := as.converter(req)
	if err != nil {
		return err
	}
	as.mutex.Lock()
	id, err := b.TakeGoalRequest(as.handle, reqConv, req)
	as.mutex.Unlock()
	if err != nil {
		return errors.Wrap(err, "failed to take goal request")
	}
	if id == nil {
		return nil
	}

	decision := GoalReject
	if as.goalCallback != nil {
		decision = as.goalCallback(req)
	}
	stamp := msgs.NewTime(as.now())
	logger.WithFields(logrus.Fields{
		"action":   as.action,
		"goal_id":  req.GetGoalID().String(),
		"accepted": decision != GoalReject,
	}).Debug("Action server has received a new goal request")

	resp := as.actionType.NewGoalResponse()
	respConv, err := as.converter(resp)
	if err != nil {
		return err
	}

	as.mutex.Lock()
	var gh *serverGoalHandler
	var acceptErr error
	if decision != GoalReject {
		info := &msgs.GoalInfo{GoalID: req.GetGoalID(), Stamp: stamp}
		gh, acceptErr = as.acceptGoal(info, req)
		if acceptErr != nil {
			decision = GoalReject
		}
	}
	resp.SetAccepted(decision != GoalReject)
	resp.SetStamp(stamp)
	err = b.SendGoalResponse(as.handle, id, respConv, resp)
	as.mutex.Unlock()

	if acceptErr != nil {
		return errors.Wrap(acceptErr, "failed to accept goal")
	}
	if err != nil {
		return errors.Wrap(err, "failed to send goal response")
	}
	if gh == nil {
		return nil
	}
	if decision == GoalAcceptAndExecute {
		if err := gh.Execute(); err != nil {
			return err
		}
	}
	if as.acceptedCallback != nil {
		as.acceptedCallback(gh)
	}
	return nil
}

// acceptGoal must be called with as.mutex held.
func (as *defaultActionServer) acceptGoal(info *msgs.GoalInfo, req msgs.GoalRequest) (*serverGoalHandler, error) {
	conv, err := as.converter(info)
	if err != nil {
		return nil, err
	}
	handle, err := as.node.bridge.AcceptNewGoal(as.handle, conv, info)
	if err != nil {
		return nil, err
	}
	gh := newServerGoalHandler(as, handle, *info, req)
	as.handlers[info.GoalID] = gh
	return gh, nil
}

// executeCancelRequest lets the native server pick the goals a cancel
// request matches, then keeps those the cancel callback agrees to cancel.
func (as *defaultActionServer) executeCancelRequest() error {
	logger := *as.node.logger
	b := as.node.bridge

	req := &msgs.CancelGoalRequest{}
	resp := &msgs.CancelGoalResponse{}
	reqConv, err := as.converter(req)
	if err != nil {
		return err
	}
	respConv, err := as.converter(resp)
	if err != nil {
		return err
	}

	as.mutex.Lock()
	id, err := b.TakeCancelRequest(as.handle, reqConv, req)
	if err != nil || id == nil {
		as.mutex.Unlock()
		return errors.Wrap(err, "failed to take cancel request")
	}
	processErr := b.ProcessCancelRequest(as.handle, reqConv, respConv, req, resp)
	candidates := make([]*serverGoalHandler, len(resp.GoalsCanceling))
	for i, info := range resp.GoalsCanceling {
		candidates[i] = as.handlers[info.GoalID]
	}
	as.mutex.Unlock()

	if processErr != nil {
		logger.Errorf("failed to process cancel request: %v", processErr)
		resp = &msgs.CancelGoalResponse{ReturnCode: msgs.CancelErrorRejected}
	} else {
		canceling := resp.GoalsCanceling[:0]
		for i, info := range resp.GoalsCanceling {
			gh := candidates[i]
			if gh == nil || as.cancelCallback == nil || as.cancelCallback(gh) != CancelAccept {
				continue
			}
			if err := gh.cancel(); err != nil {
				logger.Errorf("failed to cancel goal %s: %v", info.GoalID, err)
				continue
			}
			canceling = append(canceling, info)
		}
		if len(canceling) == 0 && resp.ReturnCode == msgs.CancelErrorNone {
			resp.ReturnCode = msgs.CancelErrorRejected
		}
		resp.GoalsCanceling = canceling
	}
	logger.WithFields(logrus.Fields{
		"action":      as.action,
		"return_code": resp.ReturnCode,
		"canceling":   len(resp.GoalsCanceling),
	}).Debug("Action server has received a new cancel request")

	as.mutex.Lock()
	err = b.SendCancelResponse(as.handle, id, respConv, resp)
	as.mutex.Unlock()
	if err != nil {
		return errors.Wrap(err, "failed to send cancel response")
	}
	return errors.Wrap(processErr, "failed to process cancel request")
}

// executeResultRequest answers a result request at once when the goal is
// finished or unknown, and otherwise parks it until the goal finishes.
func (as *defaultActionServer) executeResultRequest() error {
	b := as.node.bridge

	req := as.actionType.NewResultRequest()
	reqConv, err := as.converter(req)
	if err != nil {
		return err
	}

	as.mutex.Lock()
	defer as.mutex.Unlock()
	id, err := b.TakeResultRequest(as.handle, reqConv, req)
	if err != nil {
		return errors.Wrap(err, "failed to take result request")
	}
	if id == nil {
		return nil
	}

	goalID := req.GetGoalID()
	gh, ok := as.handlers[goalID]
	switch {
	case !ok:
		resp := as.actionType.NewResultResponse()
		resp.SetStatus(msgs.StatusUnknown)
		return as.sendResult(id, resp)
	case gh.result != nil:
		return as.sendResult(id, gh.result)
	default:
		as.pendingResults[goalID] = append(as.pendingResults[goalID], id)
		return nil
	}
}

// sendResult must be called with as.mutex held.
func (as *defaultActionServer) sendResult(id *bridge.RMWRequestID, resp msgs.ResultResponse) error {
	conv, err := as.converter(resp)
	if err != nil {
		return err
	}
	if err := as.node.bridge.SendResultResponse(as.handle, id, conv, resp); err != nil {
		return errors.Wrap(err, "failed to send result response")
	}
	return nil
}

// publishResult answers every parked result request of gh. It must be
// called with as.mutex held.
func (as *defaultActionServer) publishResult(gh *serverGoalHandler) error {
	var firstErr error
	for _, id := range as.pendingResults[gh.info.GoalID] {
		if err := as.sendResult(id, gh.result); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	delete(as.pendingResults, gh.info.GoalID)
	return firstErr
}

func (as *defaultActionServer) ExpireGoals() (int, error) {
	as.mutex.Lock()
	defer as.mutex.Unlock()

	expired, err := as.node.bridge.ExpireGoals(as.handle, 0)
	if err != nil {
		return 0, errors.Wrap(err, "failed to expire goals")
	}
	logger := *as.node.logger
	for _, uuid := range expired {
		goalID := msgs.UUID(uuid)
		if gh, ok := as.handlers[goalID]; ok {
			if err := as.node.bridge.DisposeGoalHandle(gh.handle); err != nil {
				logger.Errorf("failed to dispose expired goal %s: %v", goalID, err)
			}
			gh.handle = 0
			delete(as.handlers, goalID)
		}
		delete(as.pendingResults, goalID)
		logger.WithField("goal_id", goalID.String()).Debug("goal expired")
	}
	return len(expired), nil
}

func (as *defaultActionServer) Goals() []ServerGoalHandler {
	as.mutex.Lock()
	defer as.mutex.Unlock()
	goals := make([]ServerGoalHandler, 0, len(as.handlers))
	for _, gh := range as.handlers {
		goals = append(goals, gh)
	}
	return goals
}

// Dispose finalizes every goal handle and then the server. Calling it again
// is a no-op.
func (as *defaultActionServer) Dispose() error {
	as.mutex.Lock()
	defer as.mutex.Unlock()

	b := as.node.bridge
	var firstErr error
	for id, gh := range as.handlers {
		if err := b.DisposeGoalHandle(gh.handle); err != nil && firstErr == nil {
			firstErr = err
		}
		gh.handle = 0
		delete(as.handlers, id)
	}
	as.pendingResults = map[msgs.UUID][]*bridge.RMWRequestID{}
	if err := b.DisposeActionServer(as.node.node, as.handle); err != nil && firstErr == nil {
		firstErr = err
	}
	as.handle = 0
	return firstErr
}
