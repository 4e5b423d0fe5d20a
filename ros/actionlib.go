package ros

import (
	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

// NewActionServer creates an action server called action on node.
func NewActionServer(node *Node, action string, actionType msgs.ActionType, goalCb GoalCallback,
	cancelCb CancelCallback, acceptedCb AcceptedCallback, opts ...ActionServerOption) (ActionServer, error) {
	return newDefaultActionServer(node, action, actionType, goalCb, cancelCb, acceptedCb, opts...)
}

type ActionServer interface {
	Name() string
	Handle() bridge.Handle
	// Execute services whichever parts of the server ready reports.
	Execute(ready rcl.ActionServerReady) error
	// ExpireGoals drops terminal goals whose result timeout has passed.
	ExpireGoals() (int, error)
	Goals() []ServerGoalHandler
	Dispose() error
}

type ServerGoalHandler interface {
	GetGoalID() msgs.UUID
	GetGoalInfo() msgs.GoalInfo
	GetGoal() msgs.GoalRequest
	GetStatus() (rcl.GoalState, error)
	IsCanceling() bool
	Execute() error
	SetSucceeded(result interface{}) error
	SetAborted(result interface{}) error
	SetCanceled(result interface{}) error
	Dispose() error
}

// GoalResponse is the decision of a GoalCallback.
type GoalResponse uint8

const (
	GoalReject GoalResponse = iota
	GoalAcceptAndExecute
	GoalAcceptAndDefer
)

// CancelResponse is the decision of a CancelCallback.
type CancelResponse uint8

const (
	CancelReject CancelResponse = iota
	CancelAccept
)

// GoalCallback decides whether a new goal is accepted.
type GoalCallback func(goal msgs.GoalRequest) GoalResponse

// CancelCallback decides whether an accepted goal may be canceled.
type CancelCallback func(goal ServerGoalHandler) CancelResponse

// AcceptedCallback is called once an accepted goal has been answered.
type AcceptedCallback func(goal ServerGoalHandler)
