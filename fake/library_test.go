package fake

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
	"github.com/team-rocos/rclbridge/wire"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	lib    *Library
	clock  *manualClock
	ctx    rcl.Pointer
	node   rcl.Pointer
	server rcl.Pointer
}

func newFixture(t *testing.T, resultTimeout time.Duration) *fixture {
	clock := &manualClock{now: time.Unix(1000, 0)}
	lib := New(WithClock(clock.Now))
	ctx, err := lib.ContextInit()
	require.NoError(t, err)
	node, err := lib.NodeInit(ctx, "fake_test", "/")
	require.NoError(t, err)
	steady, err := lib.ClockInit(rcl.ClockSteadyTime)
	require.NoError(t, err)
	server, err := lib.ActionServerInit(node, steady, msgs.FibonacciAction, "fibonacci",
		rcl.ActionServerOptions{ResultTimeout: resultTimeout})
	require.NoError(t, err)
	return &fixture{lib: lib, clock: clock, ctx: ctx, node: node, server: server}
}

func buffer(msg msgs.Serializable) *wire.Message {
	var buf bytes.Buffer
	msg.Serialize(&buf)
	return wire.NewMessage(msg.TypeName(), buf.Bytes())
}

func (f *fixture) accept(t *testing.T, id byte, sec int32) rcl.Pointer {
	goal, err := f.lib.ActionAcceptNewGoal(f.server, buffer(&msgs.GoalInfo{GoalID: msgs.UUID{id}, Stamp: msgs.Time{Sec: sec}}))
	require.NoError(t, err)
	return goal
}

func (f *fixture) cancel(t *testing.T, info msgs.GoalInfo) *msgs.CancelGoalResponse {
	resp := wire.NewMessage("action_msgs/srv/CancelGoal_Response", nil)
	require.NoError(t, f.lib.ActionProcessCancelRequest(f.server, buffer(&msgs.CancelGoalRequest{GoalInfo: info}), resp))
	var out msgs.CancelGoalResponse
	require.NoError(t, out.Deserialize(resp.Reader()))
	return &out
}

func goalIDs(resp *msgs.CancelGoalResponse) []msgs.UUID {
	var ids []msgs.UUID
	for _, info := range resp.GoalsCanceling {
		ids = append(ids, info.GoalID)
	}
	return ids
}

func TestProcessCancelRequest(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.accept(t, 1, 1)
	executing := f.accept(t, 2, 5)
	require.NoError(t, f.lib.ActionUpdateGoalState(executing, rcl.GoalEventExecute))
	done := f.accept(t, 3, 9)
	require.NoError(t, f.lib.ActionUpdateGoalState(done, rcl.GoalEventExecute))
	require.NoError(t, f.lib.ActionUpdateGoalState(done, rcl.GoalEventSucceed))

	all := f.cancel(t, msgs.GoalInfo{})
	assert.Equal(t, msgs.CancelErrorNone, all.ReturnCode)
	assert.Equal(t, []msgs.UUID{{1}, {2}}, goalIDs(all))

	byStamp := f.cancel(t, msgs.GoalInfo{Stamp: msgs.Time{Sec: 4}})
	assert.Equal(t, []msgs.UUID{{1}}, goalIDs(byStamp))

	byID := f.cancel(t, msgs.GoalInfo{GoalID: msgs.UUID{2}})
	assert.Equal(t, []msgs.UUID{{2}}, goalIDs(byID))

	unknown := f.cancel(t, msgs.GoalInfo{GoalID: msgs.UUID{42}})
	assert.Equal(t, msgs.CancelErrorUnknownGoalID, unknown.ReturnCode)
	assert.Empty(t, unknown.GoalsCanceling)

	terminated := f.cancel(t, msgs.GoalInfo{GoalID: msgs.UUID{3}})
	assert.Equal(t, msgs.CancelErrorGoalTerminated, terminated.ReturnCode)

	tooEarly := f.cancel(t, msgs.GoalInfo{Stamp: msgs.Time{Sec: 0, Nanosec: 1}})
	assert.Equal(t, msgs.CancelErrorRejected, tooEarly.ReturnCode)
}

func TestGoalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		events []rcl.GoalEvent
		want   rcl.GoalState
		fails  bool
	}{
		{"accepted", nil, rcl.GoalStateAccepted, false},
		{"execute", []rcl.GoalEvent{rcl.GoalEventExecute}, rcl.GoalStateExecuting, false},
		{"succeed", []rcl.GoalEvent{rcl.GoalEventExecute, rcl.GoalEventSucceed}, rcl.GoalStateSucceeded, false},
		{"abort", []rcl.GoalEvent{rcl.GoalEventExecute, rcl.GoalEventAbort}, rcl.GoalStateAborted, false},
		{"cancel before execute", []rcl.GoalEvent{rcl.GoalEventCancelGoal, rcl.GoalEventCanceled}, rcl.GoalStateCanceled, false},
		{"succeed while canceling", []rcl.GoalEvent{rcl.GoalEventExecute, rcl.GoalEventCancelGoal, rcl.GoalEventSucceed}, rcl.GoalStateSucceeded, false},
		{"succeed before execute", []rcl.GoalEvent{rcl.GoalEventSucceed}, rcl.GoalStateAccepted, true},
		{"canceled without cancel", []rcl.GoalEvent{rcl.GoalEventExecute, rcl.GoalEventCanceled}, rcl.GoalStateExecuting, true},
		{"event after terminal", []rcl.GoalEvent{rcl.GoalEventExecute, rcl.GoalEventAbort, rcl.GoalEventExecute}, rcl.GoalStateAborted, true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, time.Minute)
			goal := f.accept(t, byte(i+1), 1)
			var err error
			for _, e := range tt.events {
				if err = f.lib.ActionUpdateGoalState(goal, e); err != nil {
					break
				}
			}
			if tt.fails {
				assert.Equal(t, rcl.RetActionGoalEventInvalid, rcl.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
			state, err := f.lib.ActionGoalHandleGetStatus(goal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestAcceptDuplicateGoal(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.accept(t, 7, 1)
	_, err := f.lib.ActionAcceptNewGoal(f.server, buffer(&msgs.GoalInfo{GoalID: msgs.UUID{7}}))
	assert.Equal(t, rcl.RetError, rcl.CodeOf(err))
}

func TestExpireGoals(t *testing.T) {
	f := newFixture(t, 10*time.Second)
	first := f.accept(t, 1, 1)
	second := f.accept(t, 2, 1)
	f.accept(t, 3, 1)
	for _, g := range []rcl.Pointer{first, second} {
		require.NoError(t, f.lib.ActionUpdateGoalState(g, rcl.GoalEventExecute))
		require.NoError(t, f.lib.ActionUpdateGoalState(g, rcl.GoalEventSucceed))
	}
	live := f.lib.LiveObjects()

	f.clock.Advance(5 * time.Second)
	expired, err := f.lib.ActionExpireGoals(f.server, 0)
	require.NoError(t, err)
	assert.Empty(t, expired)

	f.clock.Advance(6 * time.Second)
	expired, err = f.lib.ActionExpireGoals(f.server, 1)
	require.NoError(t, err)
	assert.Equal(t, []rcl.GoalUUID{{1}}, expired)

	expired, err = f.lib.ActionExpireGoals(f.server, 0)
	require.NoError(t, err)
	assert.Equal(t, []rcl.GoalUUID{{2}}, expired)
	assert.Equal(t, live-2, f.lib.LiveObjects())

	// Expired handles are already released.
	assert.NoError(t, f.lib.ActionGoalHandleFini(first))
	_, err = f.lib.ActionGoalHandleGetStatus(first)
	assert.Equal(t, rcl.RetActionGoalHandleInvalid, rcl.CodeOf(err))
}

func TestWaitGuardCondition(t *testing.T) {
	f := newFixture(t, time.Minute)
	ws := f.lib.WaitSetZero()
	require.NoError(t, f.lib.WaitSetInit(ws, f.ctx, rcl.WaitSetSizes{GuardConditions: 1}))
	defer f.lib.WaitSetFini(ws)

	err := f.lib.Wait(ws, 0)
	assert.Equal(t, rcl.RetWaitSetEmpty, rcl.CodeOf(err))

	gc, err := f.lib.GuardConditionInit(f.ctx)
	require.NoError(t, err)
	index, err := f.lib.WaitSetAddGuardCondition(ws, gc)
	require.NoError(t, err)
	_, err = f.lib.WaitSetAddGuardCondition(ws, gc)
	assert.Equal(t, rcl.RetWaitSetFull, rcl.CodeOf(err))

	err = f.lib.Wait(ws, 10*time.Millisecond)
	assert.Equal(t, rcl.RetTimeout, rcl.CodeOf(err))

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = f.lib.GuardConditionTrigger(gc)
	}()
	require.NoError(t, f.lib.Wait(ws, -1))
	ready, err := f.lib.WaitSetIsReady(ws, rcl.EntityGuardCondition, index)
	require.NoError(t, err)
	assert.True(t, ready)

	// The trigger is consumed by the wait that reported it.
	err = f.lib.Wait(ws, 0)
	assert.Equal(t, rcl.RetTimeout, rcl.CodeOf(err))
}

func TestWaitActionServerReady(t *testing.T) {
	f := newFixture(t, time.Minute)
	counts, err := f.lib.ActionServerWaitSetGetNumEntities(f.server)
	require.NoError(t, err)
	ws := f.lib.WaitSetZero()
	require.NoError(t, f.lib.WaitSetInit(ws, f.ctx, counts.WaitSetSizes()))
	require.NoError(t, f.lib.WaitSetAddActionServer(ws, f.server))

	client := f.lib.NewActionClient("fibonacci")
	_, err = client.SendResultRequest(&msgs.FibonacciGetResultRequest{GoalID: msgs.UUID{1}})
	require.NoError(t, err)

	require.NoError(t, f.lib.Wait(ws, time.Second))
	ready, err := f.lib.ActionServerWaitSetGetEntitiesReady(ws, f.server)
	require.NoError(t, err)
	assert.Equal(t, rcl.ActionServerReady{ResultRequest: true}, ready)
}

func TestServiceLoopback(t *testing.T) {
	f := newFixture(t, time.Minute)
	service, err := f.lib.ServiceInit(f.node, msgs.AddTwoIntsService, "add_two_ints")
	require.NoError(t, err)
	client, err := f.lib.ClientInit(f.node, msgs.AddTwoIntsService, "add_two_ints")
	require.NoError(t, err)

	seq, err := f.lib.SendRequest(client, buffer(&msgs.AddTwoIntsRequest{A: 2, B: 3}))
	require.NoError(t, err)

	var id rcl.RequestID
	reqBuf := wire.NewMessage("example_interfaces/srv/AddTwoInts_Request", nil)
	require.NoError(t, f.lib.TakeRequest(service, &id, reqBuf))
	assert.Equal(t, seq, id.SequenceNumber)

	err = f.lib.TakeRequest(service, &id, wire.NewMessage("example_interfaces/srv/AddTwoInts_Request", nil))
	assert.Equal(t, rcl.RetServiceTakeFailed, rcl.CodeOf(err))

	require.NoError(t, f.lib.SendResponse(service, &id, buffer(&msgs.AddTwoIntsResponse{Sum: 5})))
	var respID rcl.RequestID
	respBuf := wire.NewMessage("example_interfaces/srv/AddTwoInts_Response", nil)
	require.NoError(t, f.lib.TakeResponse(client, &respID, respBuf))
	assert.Equal(t, id, respID)
	var resp msgs.AddTwoIntsResponse
	require.NoError(t, resp.Deserialize(respBuf.Reader()))
	assert.Equal(t, int64(5), resp.Sum)
}

func TestFailNext(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.lib.FailNext("NodeInit", rcl.RetBadAlloc, "out of memory")
	_, err := f.lib.NodeInit(f.ctx, "other", "/")
	assert.Equal(t, rcl.RetBadAlloc, rcl.CodeOf(err))
	assert.Equal(t, "out of memory", rcl.TextOf(err))

	_, err = f.lib.NodeInit(f.ctx, "other", "/")
	assert.NoError(t, err)
}
