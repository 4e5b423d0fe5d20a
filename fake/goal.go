package fake

import (
	"time"

	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

// GoalHandle is a goal accepted by an ActionServer.
type GoalHandle struct {
	server     *ActionServer
	info       msgs.GoalInfo
	state      rcl.GoalState
	terminalAt time.Time
	valid      bool
	// released is set when the server expired the goal.
	released bool
}

func (g *GoalHandle) expired(now time.Time, timeout time.Duration) bool {
	return g.state.Terminal() && !now.Before(g.terminalAt.Add(timeout))
}

// transitions is the rcl_action goal state machine.
var transitions = map[rcl.GoalState]map[rcl.GoalEvent]rcl.GoalState{
	rcl.GoalStateAccepted: {
		rcl.GoalEventExecute:    rcl.GoalStateExecuting,
		rcl.GoalEventCancelGoal: rcl.GoalStateCanceling,
	},
	rcl.GoalStateExecuting: {
		rcl.GoalEventCancelGoal: rcl.GoalStateCanceling,
		rcl.GoalEventSucceed:    rcl.GoalStateSucceeded,
		rcl.GoalEventAbort:      rcl.GoalStateAborted,
	},
	rcl.GoalStateCanceling: {
		rcl.GoalEventSucceed:  rcl.GoalStateSucceeded,
		rcl.GoalEventAbort:    rcl.GoalStateAborted,
		rcl.GoalEventCanceled: rcl.GoalStateCanceled,
	},
}

func (l *Library) ActionAcceptNewGoal(server rcl.Pointer, goalInfo rcl.Buffer) (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionAcceptNewGoal"); err != nil {
		return nil, err
	}
	s, err := l.actionServer(server)
	if err != nil {
		return nil, err
	}
	buf, err := wireBuffer(goalInfo)
	if err != nil {
		return nil, err
	}
	var info msgs.GoalInfo
	if err := info.Deserialize(buf.Reader()); err != nil {
		return nil, rcl.Errorf(rcl.RetInvalidArgument, "goal info: %v", err)
	}
	for _, g := range s.goals {
		if g.info.GoalID == info.GoalID {
			return nil, rcl.Errorf(rcl.RetError, "goal ID %s already exists", info.GoalID)
		}
	}
	g := &GoalHandle{server: s, info: info, state: rcl.GoalStateAccepted, valid: true}
	s.goals = append(s.goals, g)
	l.live++
	return g, nil
}

func (l *Library) ActionGoalHandleFini(goal rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionGoalHandleFini"); err != nil {
		return err
	}
	g, ok := goal.(*GoalHandle)
	if ok && g.released {
		return nil
	}
	if !ok || !g.valid {
		return rcl.Errorf(rcl.RetActionGoalHandleInvalid, "goal handle is invalid")
	}
	g.valid = false
	s := g.server
	for i := range s.goals {
		if s.goals[i] == g {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			break
		}
	}
	l.live--
	return nil
}

func (l *Library) goalHandle(goal rcl.Pointer) (*GoalHandle, error) {
	g, ok := goal.(*GoalHandle)
	if !ok || !g.valid {
		return nil, rcl.Errorf(rcl.RetActionGoalHandleInvalid, "goal handle is invalid")
	}
	return g, nil
}

func (l *Library) ActionUpdateGoalState(goal rcl.Pointer, event rcl.GoalEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionUpdateGoalState"); err != nil {
		return err
	}
	g, err := l.goalHandle(goal)
	if err != nil {
		return err
	}
	next, ok := transitions[g.state][event]
	if !ok {
		return rcl.Errorf(rcl.RetActionGoalEventInvalid, "goal event %s is invalid in state %d", event, g.state)
	}
	g.state = next
	if next.Terminal() {
		g.terminalAt = l.now()
		l.notify()
	}
	return nil
}

func (l *Library) ActionGoalHandleGetStatus(goal rcl.Pointer) (rcl.GoalState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionGoalHandleGetStatus"); err != nil {
		return rcl.GoalStateUnknown, err
	}
	g, err := l.goalHandle(goal)
	if err != nil {
		return rcl.GoalStateUnknown, err
	}
	return g.state, nil
}
