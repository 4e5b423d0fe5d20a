package ros

import (
	"context"
	"sync"

	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/team-rocos/rclbridge/msgs"
)

// SimpleExecuteCallback runs one goal to completion. It is expected to end
// the goal with SetSucceeded, SetAborted or SetPreempted; goals left active
// are aborted.
type SimpleExecuteCallback func(goal msgs.GoalRequest)

// SimpleActionServer executes one goal at a time. A newer goal preempts the
// one being executed.
type SimpleActionServer interface {
	ActionServer() ActionServer
	// Start runs the goal executor until ctx is done.
	Start(ctx context.Context)
	IsNewGoalAvailable() bool
	IsPreemptRequested() bool
	IsActive() bool
	SetSucceeded(result interface{}) error
	SetAborted(result interface{}) error
	SetPreempted(result interface{}) error
	Dispose() error
}

// NewSimpleActionServer creates the underlying action server. Goals are
// executed once Start is called.
func NewSimpleActionServer(node *Node, action string, actionType msgs.ActionType, executeCb SimpleExecuteCallback,
	opts ...ActionServerOption) (SimpleActionServer, error) {
	return newSimpleActionServer(node, action, actionType, executeCb, opts...)
}

type simpleActionServer struct {
	actionServer *defaultActionServer
	executeCb    SimpleExecuteCallback
	logger       *modular.ModuleLogger
	executorCh   chan struct{}

	goalMutex   sync.Mutex
	currentGoal *serverGoalHandler
	nextGoal    *serverGoalHandler
}

func newSimpleActionServer(node *Node, action string, actionType msgs.ActionType, executeCb SimpleExecuteCallback,
	opts ...ActionServerOption) (*simpleActionServer, error) {
	if executeCb == nil {
		return nil, errors.New("execute callback must not be nil")
	}
	s := &simpleActionServer{
		executeCb:  executeCb,
		logger:     node.logger,
		executorCh: make(chan struct{}, 1),
	}
	as, err := newDefaultActionServer(node, action, actionType,
		s.internalGoalCallback, s.internalCancelCallback, s.internalAcceptedCallback, opts...)
	if err != nil {
		return nil, err
	}
	s.actionServer = as
	return s, nil
}

func (s *simpleActionServer) ActionServer() ActionServer {
	return s.actionServer
}

func (s *simpleActionServer) internalGoalCallback(goal msgs.GoalRequest) GoalResponse {
	return GoalAcceptAndDefer
}

// internalCancelCallback accepts cancellation of the current or the pending
// goal only.
func (s *simpleActionServer) internalCancelCallback(gh ServerGoalHandler) CancelResponse {
	s.goalMutex.Lock()
	defer s.goalMutex.Unlock()
	if s.isCurrent(gh) || (s.nextGoal != nil && s.nextGoal == gh) {
		return CancelAccept
	}
	return CancelReject
}

func (s *simpleActionServer) isCurrent(gh ServerGoalHandler) bool {
	return s.currentGoal != nil && s.currentGoal == gh
}

// internalAcceptedCallback queues gh as the next goal. A goal still waiting
// to be executed is canceled in its favor.
func (s *simpleActionServer) internalAcceptedCallback(gh ServerGoalHandler) {
	logger := *s.logger
	handler, ok := gh.(*serverGoalHandler)
	if !ok {
		logger.Errorf("unexpected goal handler %T", gh)
		return
	}

	s.goalMutex.Lock()
	replaced := s.nextGoal
	s.nextGoal = handler
	s.goalMutex.Unlock()

	if replaced != nil {
		if err := s.preempt(replaced); err != nil {
			logger.WithField("goal_id", replaced.GetGoalID().String()).Errorf("failed to preempt pending goal: %v", err)
		}
	}
	logger.WithField("goal_id", handler.GetGoalID().String()).Debug("new goal available")

	select {
	case s.executorCh <- struct{}{}:
	default:
	}
}

// preempt moves gh through canceling to canceled with the default result.
func (s *simpleActionServer) preempt(gh *serverGoalHandler) error {
	if !gh.IsCanceling() {
		if err := gh.cancel(); err != nil {
			return err
		}
	}
	return gh.SetCanceled(s.defaultResult())
}

func (s *simpleActionServer) defaultResult() interface{} {
	return s.actionServer.actionType.NewResultResponse().GetResult()
}

func (s *simpleActionServer) IsNewGoalAvailable() bool {
	s.goalMutex.Lock()
	defer s.goalMutex.Unlock()
	return s.nextGoal != nil
}

// IsPreemptRequested reports whether the current goal was canceled by a
// client or a newer goal is waiting.
func (s *simpleActionServer) IsPreemptRequested() bool {
	s.goalMutex.Lock()
	current, next := s.currentGoal, s.nextGoal
	s.goalMutex.Unlock()
	if current == nil {
		return false
	}
	return next != nil || current.IsCanceling()
}

func (s *simpleActionServer) IsActive() bool {
	s.goalMutex.Lock()
	current := s.currentGoal
	s.goalMutex.Unlock()
	if current == nil {
		return false
	}
	state, err := current.GetStatus()
	if err != nil {
		return false
	}
	return !state.Terminal()
}

func (s *simpleActionServer) current() (*serverGoalHandler, error) {
	s.goalMutex.Lock()
	defer s.goalMutex.Unlock()
	if s.currentGoal == nil {
		return nil, errors.New("no goal is being executed")
	}
	return s.currentGoal, nil
}

func (s *simpleActionServer) resultOrDefault(result interface{}) interface{} {
	if result == nil {
		return s.defaultResult()
	}
	return result
}

func (s *simpleActionServer) SetSucceeded(result interface{}) error {
	gh, err := s.current()
	if err != nil {
		return err
	}
	return gh.SetSucceeded(s.resultOrDefault(result))
}

func (s *simpleActionServer) SetAborted(result interface{}) error {
	gh, err := s.current()
	if err != nil {
		return err
	}
	return gh.SetAborted(s.resultOrDefault(result))
}

func (s *simpleActionServer) SetPreempted(result interface{}) error {
	gh, err := s.current()
	if err != nil {
		return err
	}
	if !gh.IsCanceling() {
		if err := gh.cancel(); err != nil {
			return errors.Wrapf(err, "failed to cancel goal %s", gh.GetGoalID())
		}
	}
	return gh.SetCanceled(s.resultOrDefault(result))
}

func (s *simpleActionServer) Start(ctx context.Context) {
	logger := *s.logger
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.executorCh:
			if err := s.execute(); err != nil {
				logger.Error(err)
			}
		}
	}
}

// execute starts the next goal and runs the execute callback on it.
func (s *simpleActionServer) execute() error {
	logger := *s.logger
	s.goalMutex.Lock()
	gh := s.nextGoal
	s.nextGoal = nil
	if gh != nil {
		s.currentGoal = gh
	}
	s.goalMutex.Unlock()
	if gh == nil {
		return nil
	}

	if gh.IsCanceling() {
		return s.SetPreempted(nil)
	}
	if err := gh.Execute(); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"action": s.actionServer.action, "goal_id": gh.GetGoalID().String()}).Debug("executing goal")
	s.executeCb(gh.GetGoal())

	if s.IsActive() {
		logger.Warn("execute callback did not set the goal to a terminal status, aborting it")
		if err := s.SetAborted(nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *simpleActionServer) Dispose() error {
	return s.actionServer.Dispose()
}
