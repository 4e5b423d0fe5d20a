package ros

import (
	"github.com/pkg/errors"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

type serverGoalHandler struct {
	as     *defaultActionServer
	handle bridge.Handle
	info   msgs.GoalInfo
	goal   msgs.GoalRequest
	// result is set once the goal reached a terminal state.
	result msgs.ResultResponse
}

func newServerGoalHandler(as *defaultActionServer, handle bridge.Handle, info msgs.GoalInfo, goal msgs.GoalRequest) *serverGoalHandler {
	return &serverGoalHandler{
		as:     as,
		handle: handle,
		info:   info,
		goal:   goal,
	}
}

func (gh *serverGoalHandler) GetGoalID() msgs.UUID {
	return gh.info.GoalID
}

func (gh *serverGoalHandler) GetGoalInfo() msgs.GoalInfo {
	return gh.info
}

func (gh *serverGoalHandler) GetGoal() msgs.GoalRequest {
	return gh.goal
}

func (gh *serverGoalHandler) GetStatus() (rcl.GoalState, error) {
	gh.as.mutex.Lock()
	defer gh.as.mutex.Unlock()
	if gh.result != nil {
		return terminalState(gh.result.GetStatus()), nil
	}
	state, err := gh.as.node.bridge.GoalStatus(gh.handle)
	if err != nil {
		return rcl.GoalStateUnknown, errors.Wrapf(err, "goal %s", gh.info.GoalID)
	}
	return state, nil
}

func (gh *serverGoalHandler) IsCanceling() bool {
	state, err := gh.GetStatus()
	return err == nil && state == rcl.GoalStateCanceling
}

func (gh *serverGoalHandler) Execute() error {
	gh.as.mutex.Lock()
	defer gh.as.mutex.Unlock()
	if err := gh.as.node.bridge.UpdateGoalState(gh.handle, rcl.GoalEventExecute); err != nil {
		return errors.Wrapf(err, "failed to execute goal %s", gh.info.GoalID)
	}
	return nil
}

func (gh *serverGoalHandler) cancel() error {
	gh.as.mutex.Lock()
	defer gh.as.mutex.Unlock()
	return gh.as.node.bridge.UpdateGoalState(gh.handle, rcl.GoalEventCancelGoal)
}

func (gh *serverGoalHandler) SetSucceeded(result interface{}) error {
	return gh.finish(rcl.GoalEventSucceed, msgs.StatusSucceeded, result)
}

func (gh *serverGoalHandler) SetAborted(result interface{}) error {
	return gh.finish(rcl.GoalEventAbort, msgs.StatusAborted, result)
}

func (gh *serverGoalHandler) SetCanceled(result interface{}) error {
	return gh.finish(rcl.GoalEventCanceled, msgs.StatusCanceled, result)
}

// finish moves the goal to a terminal state, stores its result and answers
// any parked result requests.
func (gh *serverGoalHandler) finish(event rcl.GoalEvent, status int8, result interface{}) error {
	resp := gh.as.actionType.NewResultResponse()
	if result != nil {
		if err := resp.SetResult(result); err != nil {
			return errors.Wrapf(err, "goal %s", gh.info.GoalID)
		}
	}
	resp.SetStatus(status)

	gh.as.mutex.Lock()
	defer gh.as.mutex.Unlock()
	b := gh.as.node.bridge
	if err := b.UpdateGoalState(gh.handle, event); err != nil {
		return errors.Wrapf(err, "failed to %s goal %s", event, gh.info.GoalID)
	}
	gh.result = resp
	if err := b.NotifyGoalDone(gh.as.handle); err != nil {
		return errors.Wrap(err, "failed to notify goal done")
	}
	return gh.as.publishResult(gh)
}

func (gh *serverGoalHandler) Dispose() error {
	gh.as.mutex.Lock()
	defer gh.as.mutex.Unlock()
	err := gh.as.node.bridge.DisposeGoalHandle(gh.handle)
	delete(gh.as.handlers, gh.info.GoalID)
	delete(gh.as.pendingResults, gh.info.GoalID)
	gh.handle = 0
	return err
}

func terminalState(status int8) rcl.GoalState {
	switch status {
	case msgs.StatusSucceeded:
		return rcl.GoalStateSucceeded
	case msgs.StatusCanceled:
		return rcl.GoalStateCanceled
	case msgs.StatusAborted:
		return rcl.GoalStateAborted
	default:
		return rcl.GoalStateUnknown
	}
}
