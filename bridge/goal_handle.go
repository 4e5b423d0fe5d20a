package bridge

import (
	"github.com/team-rocos/rclbridge/rcl"
)

// AcceptNewGoal registers an accepted goal described by goalInfo with the
// server and returns its goal handle.
func (b *Bridge) AcceptNewGoal(server Handle, conv Converter, goalInfo Message) (Handle, error) {
	p, err := b.handles.lookup(server, KindActionServer)
	if err != nil {
		return 0, err
	}
	if err := checkConverter(conv, goalInfo); err != nil {
		return 0, err
	}

	var scope bufferScope
	defer scope.close()

	buf, err := scope.fromManaged(conv, goalInfo)
	if err != nil {
		return 0, err
	}
	goal, err := b.lib.ActionAcceptNewGoal(p, buf)
	scope.destroy(buf)
	if err != nil || goal == nil {
		if err == nil {
			err = rcl.Errorf(rcl.RetError, "goal handle is null")
		}
		return 0, b.fail(err, "Failed to accept new goal")
	}
	h := b.handles.register(KindGoalHandle, goal)
	b.trace("accept new goal", h)
	return h, nil
}

// UpdateGoalState feeds event to the native goal state machine.
func (b *Bridge) UpdateGoalState(goal Handle, event rcl.GoalEvent) error {
	p, err := b.handles.lookup(goal, KindGoalHandle)
	if err != nil {
		return err
	}
	if err := b.lib.ActionUpdateGoalState(p, event); err != nil {
		return b.fail(err, "Failed to update goal state with event "+event.String())
	}
	return nil
}

// GoalStatus returns the native state of goal.
func (b *Bridge) GoalStatus(goal Handle) (rcl.GoalState, error) {
	p, err := b.handles.lookup(goal, KindGoalHandle)
	if err != nil {
		return rcl.GoalStateUnknown, err
	}
	state, err := b.lib.ActionGoalHandleGetStatus(p)
	if err != nil {
		return rcl.GoalStateUnknown, b.fail(err, "Failed to get goal status")
	}
	return state, nil
}

// DisposeGoalHandle finalizes goal. A zero handle is a no-op.
func (b *Bridge) DisposeGoalHandle(goal Handle) error {
	return b.dispose(goal, KindGoalHandle, "goal handle", b.lib.ActionGoalHandleFini)
}

// ExpireGoals drops terminal goals whose result timeout elapsed and returns
// the ids of at most capacity of them; zero means no limit. Goal handles of
// expired goals are invalid and only DisposeGoalHandle may be called on them.
func (b *Bridge) ExpireGoals(server Handle, capacity int) ([]rcl.GoalUUID, error) {
	p, err := b.handles.lookup(server, KindActionServer)
	if err != nil {
		return nil, err
	}
	expired, err := b.lib.ActionExpireGoals(p, capacity)
	if err != nil {
		return nil, b.fail(err, "Failed to expire goals")
	}
	if len(expired) > 0 {
		b.trace("expire goals", server)
	}
	return expired, nil
}

// NotifyGoalDone tells the server a goal reached a terminal state so its
// expiry timer is rearmed.
func (b *Bridge) NotifyGoalDone(server Handle) error {
	p, err := b.handles.lookup(server, KindActionServer)
	if err != nil {
		return err
	}
	if err := b.lib.ActionNotifyGoalDone(p); err != nil {
		return b.fail(err, "Failed to notify goal done")
	}
	return nil
}
