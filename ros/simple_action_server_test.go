package ros

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/fake"
	"github.com/team-rocos/rclbridge/msgs"
)

type simpleFixture struct {
	lib      *fake.Library
	node     *Node
	server   SimpleActionServer
	executor *Executor
	client   *fake.ActionClient
	cancel   context.CancelFunc
	spinDone chan error
}

func newSimpleFixture(t *testing.T, executeCb func(s SimpleActionServer, goal msgs.GoalRequest)) *simpleFixture {
	t.Helper()
	lib := fake.New()
	node, err := NewNode(bridge.New(lib), "simple_node", "/")
	require.NoError(t, err)

	f := &simpleFixture{lib: lib, node: node, spinDone: make(chan error, 1)}
	f.server, err = NewSimpleActionServer(node, "fibonacci", msgs.FibonacciAction, func(goal msgs.GoalRequest) {
		executeCb(f.server, goal)
	})
	require.NoError(t, err)
	f.executor, err = NewExecutor(node)
	require.NoError(t, err)
	f.executor.AddActionServer(f.server.ActionServer())
	f.client = lib.NewActionClient("fibonacci")

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go func() { f.spinDone <- f.executor.Spin(ctx, 20*time.Millisecond) }()
	go f.server.Start(ctx)
	return f
}

func (f *simpleFixture) close(t *testing.T) {
	t.Helper()
	f.cancel()
	require.NoError(t, <-f.spinDone)
	require.NoError(t, f.executor.Dispose())
	require.NoError(t, f.server.Dispose())
	require.NoError(t, f.node.Dispose())
	assert.Equal(t, 0, f.lib.LiveObjects())
}

func (f *simpleFixture) sendGoal(t *testing.T, id msgs.UUID, order int32) {
	t.Helper()
	_, err := f.client.SendGoalRequest(&msgs.FibonacciSendGoalRequest{GoalID: id, Goal: msgs.FibonacciGoal{Order: order}})
	require.NoError(t, err)
}

// result waits for the goal to finish and returns its result response.
func (f *simpleFixture) result(t *testing.T, id msgs.UUID) msgs.FibonacciGetResultResponse {
	t.Helper()
	seq, err := f.client.SendResultRequest(&msgs.FibonacciGetResultRequest{GoalID: id})
	require.NoError(t, err)
	var resp msgs.FibonacciGetResultResponse
	require.Eventually(t, func() bool {
		ok, err := f.client.ResultResponse(seq, &resp)
		require.NoError(t, err)
		return ok
	}, 5*time.Second, 5*time.Millisecond)
	return resp
}

func TestSimpleActionServer_Succeed(t *testing.T) {
	f := newSimpleFixture(t, func(s SimpleActionServer, goal msgs.GoalRequest) {
		order := goal.GetGoal().(msgs.FibonacciGoal).Order
		assert.True(t, s.IsActive())
		assert.False(t, s.IsPreemptRequested())
		assert.NoError(t, s.SetSucceeded(msgs.FibonacciResult{Sequence: msgs.Fibonacci(order)}))
	})
	defer f.close(t)

	f.sendGoal(t, msgs.UUID{1}, 4)
	resp := f.result(t, msgs.UUID{1})
	assert.Equal(t, msgs.StatusSucceeded, resp.Status)
	assert.Equal(t, []int32{0, 1, 1, 2, 3}, resp.Result.Sequence)
}

func TestSimpleActionServer_AbortsUnfinishedGoal(t *testing.T) {
	f := newSimpleFixture(t, func(SimpleActionServer, msgs.GoalRequest) {})
	defer f.close(t)

	f.sendGoal(t, msgs.UUID{2}, 3)
	resp := f.result(t, msgs.UUID{2})
	assert.Equal(t, msgs.StatusAborted, resp.Status)
	assert.Empty(t, resp.Result.Sequence)
}

func TestSimpleActionServer_NewGoalPreempts(t *testing.T) {
	started := make(chan msgs.UUID, 2)
	f := newSimpleFixture(t, func(s SimpleActionServer, goal msgs.GoalRequest) {
		started <- goal.GetGoalID()
		if goal.GetGoal().(msgs.FibonacciGoal).Order == 1 {
			deadline := time.Now().Add(5 * time.Second)
			for !s.IsPreemptRequested() && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			assert.NoError(t, s.SetPreempted(nil))
			return
		}
		assert.NoError(t, s.SetSucceeded(msgs.FibonacciResult{Sequence: []int32{0, 1, 1}}))
	})
	defer f.close(t)

	first, second := msgs.UUID{3}, msgs.UUID{4}
	f.sendGoal(t, first, 1)
	select {
	case id := <-started:
		require.Equal(t, first, id)
	case <-time.After(5 * time.Second):
		t.Fatal("first goal never started")
	}
	f.sendGoal(t, second, 2)

	assert.Equal(t, msgs.StatusCanceled, f.result(t, first).Status)
	resp := f.result(t, second)
	assert.Equal(t, msgs.StatusSucceeded, resp.Status)
	assert.Equal(t, []int32{0, 1, 1}, resp.Result.Sequence)
}

func TestSimpleActionServer_RequiresCallback(t *testing.T) {
	lib := fake.New()
	node, err := NewNode(bridge.New(lib), "simple_node", "/")
	require.NoError(t, err)
	defer node.Dispose()

	_, err = NewSimpleActionServer(node, "fibonacci", msgs.FibonacciAction, nil)
	assert.Error(t, err)
}
