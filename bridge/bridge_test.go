package bridge_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/fake"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
	"github.com/team-rocos/rclbridge/wire"
)

// hygieneConverter wraps a msgs converter and keeps every buffer it hands
// out so tests can check that each one was freed.
type hygieneConverter struct {
	msgs.Converter
	buffers   []*wire.Message
	destroyed int
}

func newHygieneConverter(msg msgs.Serializable) *hygieneConverter {
	return &hygieneConverter{Converter: msgs.ConverterFor(msg)}
}

func (c *hygieneConverter) FromManaged(msg bridge.Message) (rcl.Buffer, error) {
	buf, err := c.Converter.FromManaged(msg)
	if err == nil {
		c.buffers = append(c.buffers, buf.(*wire.Message))
	}
	return buf, err
}

func (c *hygieneConverter) Destroy(buf rcl.Buffer) {
	c.destroyed++
	c.Converter.Destroy(buf)
}

func (c *hygieneConverter) requireClean(t *testing.T) {
	t.Helper()
	require.Equal(t, len(c.buffers), c.destroyed, "%s: buffers allocated vs destroyed", c.TypeName())
	for i, buf := range c.buffers {
		require.True(t, buf.Freed(), "%s: buffer %d not freed", c.TypeName(), i)
	}
}

type fixture struct {
	lib   *fake.Library
	b     *bridge.Bridge
	ctx   bridge.Handle
	node  bridge.Handle
	clock bridge.Handle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lib := fake.New()
	b := bridge.New(lib)
	f := &fixture{lib: lib, b: b}
	var err error
	f.ctx, err = b.CreateContext()
	require.NoError(t, err)
	f.node, err = b.CreateNode(f.ctx, "test_node", "/")
	require.NoError(t, err)
	f.clock, err = b.CreateClock(rcl.ClockSteadyTime)
	require.NoError(t, err)
	return f
}

func (f *fixture) actionServer(t *testing.T) bridge.Handle {
	t.Helper()
	server, err := f.b.CreateActionServer(f.node, f.clock, msgs.FibonacciAction, "test_action")
	require.NoError(t, err)
	return server
}

func (f *fixture) waitSetFor(t *testing.T, server bridge.Handle) bridge.Handle {
	t.Helper()
	counts, err := f.b.ActionServerEntityCounts(server)
	require.NoError(t, err)
	ws := f.b.NewWaitSet()
	require.NoError(t, f.b.WaitSetInit(ws, f.ctx, counts.WaitSetSizes()))
	require.NoError(t, f.b.WaitSetAddActionServer(ws, server))
	return ws
}

func TestActionServer_EntityCounts(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)

	subs, err := f.b.NumberOfSubscriptions(server)
	require.NoError(t, err)
	timers, err := f.b.NumberOfTimers(server)
	require.NoError(t, err)
	clients, err := f.b.NumberOfClients(server)
	require.NoError(t, err)
	services, err := f.b.NumberOfServices(server)
	require.NoError(t, err)

	assert.Equal(t, 0, subs)
	assert.Equal(t, 1, timers)
	assert.Equal(t, 0, clients)
	assert.Equal(t, 3, services)
}

func TestActionServer_CreateFailureCarriesNativeText(t *testing.T) {
	f := newFixture(t)
	_, err := f.b.CreateActionServer(f.node, f.clock, msgs.FibonacciAction, "not a name")
	require.Error(t, err)
	var berr bridge.Error
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, rcl.RetActionNameInvalid, berr.Code())
	assert.Equal(t, `Failed to create action server: action name "not a name" is invalid`, berr.Message())
}

func TestActionServer_TakeGoalRequestAbsent(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)
	conv := newHygieneConverter(&msgs.FibonacciSendGoalRequest{})

	var req msgs.FibonacciSendGoalRequest
	id, err := f.b.TakeGoalRequest(server, conv, &req)
	require.NoError(t, err)
	assert.Nil(t, id)
	conv.requireClean(t)
}

func TestActionServer_GoalRoundTrip(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)
	client := f.lib.NewActionClient("test_action")

	goalID, err := msgs.ParseUUID("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	seq, err := client.SendGoalRequest(&msgs.FibonacciSendGoalRequest{GoalID: goalID, Goal: msgs.FibonacciGoal{Order: 5}})
	require.NoError(t, err)

	ws := f.waitSetFor(t, server)
	ready, err := f.b.Wait(ws, time.Second)
	require.NoError(t, err)
	require.True(t, ready)
	entities, err := f.b.ActionServerReadyEntities(server, ws)
	require.NoError(t, err)
	assert.Equal(t, rcl.ActionServerReady{GoalRequest: true}, entities)

	reqConv := newHygieneConverter(&msgs.FibonacciSendGoalRequest{})
	var req msgs.FibonacciSendGoalRequest
	id, err := f.b.TakeGoalRequest(server, reqConv, &req)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, seq, id.SequenceNumber)
	guid := client.GUID()
	for i := range guid {
		assert.Equal(t, byte(guid[i]), id.WriterGUID[i])
	}
	assert.Equal(t, goalID, req.GoalID)
	assert.Equal(t, int32(5), req.Goal.Order)

	respConv := newHygieneConverter(&msgs.FibonacciSendGoalResponse{})
	stamp := msgs.Time{Sec: 10, Nanosec: 20}
	require.NoError(t, f.b.SendGoalResponse(server, id, respConv, &msgs.FibonacciSendGoalResponse{Accepted: true, Stamp: stamp}))

	var resp msgs.FibonacciSendGoalResponse
	ok, err := client.GoalResponse(seq, &resp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, resp.Accepted)
	assert.Equal(t, stamp, resp.Stamp)

	reqConv.requireClean(t)
	respConv.requireClean(t)
	require.NoError(t, f.b.DisposeWaitSet(ws))
}

func TestActionServer_TakeErrorCarriesNativeText(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)
	f.lib.FailNext("ActionTakeGoalRequest", rcl.RetError, "middleware exploded")
	conv := newHygieneConverter(&msgs.FibonacciSendGoalRequest{})

	id, err := f.b.TakeGoalRequest(server, conv, &msgs.FibonacciSendGoalRequest{})
	assert.Nil(t, id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bridge.ErrError))
	assert.Contains(t, err.Error(), "Failed to take goal request: middleware exploded")
	conv.requireClean(t)
}

func TestActionServer_SendResponseErrorsFreeBuffers(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)
	conv := newHygieneConverter(&msgs.CancelGoalResponse{})

	badID := &bridge.RMWRequestID{SequenceNumber: 1, WriterGUID: make([]byte, 15)}
	err := f.b.SendCancelResponse(server, badID, conv, &msgs.CancelGoalResponse{})
	assert.True(t, errors.Is(err, bridge.ErrInvalidArgument), "%v", err)

	goodID := &bridge.RMWRequestID{SequenceNumber: 1, WriterGUID: make([]byte, rcl.GUIDSize)}
	f.lib.FailNext("ActionSendCancelResponse", rcl.RetError, "publisher gone")
	err = f.b.SendCancelResponse(server, goodID, conv, &msgs.CancelGoalResponse{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to send cancel response: publisher gone")

	require.NoError(t, f.b.SendCancelResponse(server, goodID, conv, &msgs.CancelGoalResponse{}))
	assert.Len(t, conv.buffers, 3)
	conv.requireClean(t)
}

func TestActionServer_ConverterMismatch(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)
	conv := newHygieneConverter(&msgs.FibonacciSendGoalResponse{})

	_, err := f.b.TakeGoalRequest(server, conv, &msgs.FibonacciSendGoalRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to convert")
	conv.requireClean(t)
}

func TestActionServer_GoalLifecycleAndCancel(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)
	infoConv := newHygieneConverter(&msgs.GoalInfo{})

	var goals []bridge.Handle
	for i := 1; i <= 2; i++ {
		info := &msgs.GoalInfo{GoalID: msgs.UUID{byte(i)}, Stamp: msgs.Time{Sec: int32(i)}}
		goal, err := f.b.AcceptNewGoal(server, infoConv, info)
		require.NoError(t, err)
		goals = append(goals, goal)
	}
	_, err := f.b.AcceptNewGoal(server, infoConv, &msgs.GoalInfo{GoalID: msgs.UUID{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to accept new goal")
	infoConv.requireClean(t)

	require.NoError(t, f.b.UpdateGoalState(goals[0], rcl.GoalEventExecute))
	status, err := f.b.GoalStatus(goals[0])
	require.NoError(t, err)
	assert.Equal(t, rcl.GoalStateExecuting, status)

	err = f.b.UpdateGoalState(goals[1], rcl.GoalEventSucceed)
	var berr bridge.Error
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, rcl.RetActionGoalEventInvalid, berr.Code())

	reqConv := newHygieneConverter(&msgs.CancelGoalRequest{})
	respConv := newHygieneConverter(&msgs.CancelGoalResponse{})
	var resp msgs.CancelGoalResponse
	require.NoError(t, f.b.ProcessCancelRequest(server, reqConv, respConv, &msgs.CancelGoalRequest{}, &resp))
	assert.Equal(t, msgs.CancelErrorNone, resp.ReturnCode)
	require.Len(t, resp.GoalsCanceling, 2)

	resp = msgs.CancelGoalResponse{}
	unknown := &msgs.CancelGoalRequest{GoalInfo: msgs.GoalInfo{GoalID: msgs.UUID{9}}}
	require.NoError(t, f.b.ProcessCancelRequest(server, reqConv, respConv, unknown, &resp))
	assert.Equal(t, msgs.CancelErrorUnknownGoalID, resp.ReturnCode)
	assert.Empty(t, resp.GoalsCanceling)
	reqConv.requireClean(t)
	respConv.requireClean(t)

	for _, goal := range goals {
		require.NoError(t, f.b.DisposeGoalHandle(goal))
		require.NoError(t, f.b.DisposeGoalHandle(goal))
	}
}

func TestProcessCancelRequest_FailureSkipsBackConversion(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)
	reqConv := newHygieneConverter(&msgs.CancelGoalRequest{})
	respConv := newHygieneConverter(&msgs.CancelGoalResponse{})
	f.lib.FailNext("ActionProcessCancelRequest", rcl.RetError, "no goals")

	resp := msgs.CancelGoalResponse{ReturnCode: 7}
	err := f.b.ProcessCancelRequest(server, reqConv, respConv, &msgs.CancelGoalRequest{}, &resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to process cancel request: no goals")
	assert.Equal(t, int8(7), resp.ReturnCode)
	reqConv.requireClean(t)
	respConv.requireClean(t)
}

func TestDispose_Semantics(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)

	assert.NoError(t, f.b.DisposeActionServer(f.node, 0))
	err := f.b.DisposeActionServer(0, server)
	assert.True(t, errors.Is(err, bridge.ErrNodeInvalid), "%v", err)

	require.NoError(t, f.b.DisposeActionServer(f.node, server))
	require.NoError(t, f.b.DisposeActionServer(f.node, server))
	require.NoError(t, f.b.DisposeActionServer(0, server))

	_, err = f.b.TakeGoalRequest(server, msgs.NewConverter("test_msgs/action/Fibonacci_SendGoal_Request"), &msgs.FibonacciSendGoalRequest{})
	assert.True(t, errors.Is(err, bridge.ErrInvalidArgument), "%v", err)

	_, err = f.b.NumberOfServices(f.node)
	assert.True(t, errors.Is(err, bridge.ErrInvalidArgument), "%v", err)
}

func TestDispose_ReleasesEverything(t *testing.T) {
	f := newFixture(t)
	server := f.actionServer(t)
	ws := f.waitSetFor(t, server)

	require.NoError(t, f.b.DisposeWaitSet(ws))
	require.NoError(t, f.b.DisposeActionServer(f.node, server))
	require.NoError(t, f.b.DisposeClock(f.clock))
	require.NoError(t, f.b.DisposeNode(f.node))
	require.NoError(t, f.b.DisposeContext(f.ctx))
	assert.Equal(t, 0, f.b.LiveHandles())
	assert.Equal(t, 0, f.lib.LiveObjects())
}

func TestDispose_FiniFailureStillReleasesHandle(t *testing.T) {
	f := newFixture(t)
	f.lib.FailNext("ClockFini", rcl.RetError, "clock busy")
	err := f.b.DisposeClock(f.clock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to destroy clock: clock busy")
	assert.NoError(t, f.b.DisposeClock(f.clock))
}

func TestWait_TimeoutAndGuardCondition(t *testing.T) {
	f := newFixture(t)
	gc, err := f.b.CreateGuardCondition(f.ctx)
	require.NoError(t, err)
	ws := f.b.NewWaitSet()
	require.NoError(t, f.b.WaitSetInit(ws, f.ctx, rcl.WaitSetSizes{GuardConditions: 1}))
	index, err := f.b.WaitSetAddGuardCondition(ws, gc)
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	_, err = f.b.WaitSetAddGuardCondition(ws, gc)
	var berr bridge.Error
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, rcl.RetWaitSetFull, berr.Code())

	ready, err := f.b.Wait(ws, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ready)

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = f.b.TriggerGuardCondition(gc)
	}()
	ready, err = f.b.Wait(ws, -1)
	require.NoError(t, err)
	require.True(t, ready)
	isReady, err := f.b.WaitSetIsReady(ws, rcl.EntityGuardCondition, 0)
	require.NoError(t, err)
	assert.True(t, isReady)

	_, err = f.b.WaitSetIsReady(ws, rcl.EntityGuardCondition, 1)
	assert.Error(t, err)

	require.NoError(t, f.b.WaitSetClear(ws))
	_, err = f.b.Wait(ws, 0)
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, rcl.RetWaitSetEmpty, berr.Code())
}

func TestWait_Timer(t *testing.T) {
	f := newFixture(t)
	timer, err := f.b.CreateTimer(f.ctx, f.clock, 5*time.Millisecond)
	require.NoError(t, err)
	ws := f.b.NewWaitSet()
	require.NoError(t, f.b.WaitSetInit(ws, f.ctx, rcl.WaitSetSizes{Timers: 1}))
	_, err = f.b.WaitSetAddTimer(ws, timer)
	require.NoError(t, err)

	ready, err := f.b.Wait(ws, time.Second)
	require.NoError(t, err)
	require.True(t, ready)
	isReady, err := f.b.WaitSetIsReady(ws, rcl.EntityTimer, 0)
	require.NoError(t, err)
	assert.True(t, isReady)
	require.NoError(t, f.b.CallTimer(timer))
	require.NoError(t, f.b.DisposeTimer(timer))
}

func TestService_RequestResponseLoopback(t *testing.T) {
	f := newFixture(t)
	service, err := f.b.CreateService(f.node, msgs.AddTwoIntsService, "add_two_ints")
	require.NoError(t, err)
	client, err := f.b.CreateClient(f.node, msgs.AddTwoIntsService, "add_two_ints")
	require.NoError(t, err)

	reqConv := newHygieneConverter(&msgs.AddTwoIntsRequest{})
	respConv := newHygieneConverter(&msgs.AddTwoIntsResponse{})

	seq, err := f.b.SendRequest(client, reqConv, &msgs.AddTwoIntsRequest{A: 2, B: 3})
	require.NoError(t, err)

	var req msgs.AddTwoIntsRequest
	id, err := f.b.TakeRequest(service, reqConv, &req)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, seq, id.SequenceNumber)

	require.NoError(t, f.b.SendResponse(service, id, respConv, &msgs.AddTwoIntsResponse{Sum: req.A + req.B}))

	var resp msgs.AddTwoIntsResponse
	respID, err := f.b.TakeResponse(client, respConv, &resp)
	require.NoError(t, err)
	assert.True(t, id.Equal(respID))
	assert.Equal(t, int64(5), resp.Sum)

	absent, err := f.b.TakeResponse(client, respConv, &resp)
	require.NoError(t, err)
	assert.Nil(t, absent)

	reqConv.requireClean(t)
	respConv.requireClean(t)
	require.NoError(t, f.b.DisposeClient(f.node, client))
	require.NoError(t, f.b.DisposeService(f.node, service))
}

func TestSubscription_Take(t *testing.T) {
	f := newFixture(t)
	sub, err := f.b.CreateSubscription(f.node, msgs.TypeSupport("std_msgs/msg/String"), "/chatter")
	require.NoError(t, err)
	conv := newHygieneConverter(&msgs.String{})

	var msg msgs.String
	ok, err := f.b.Take(sub, conv, &msg)
	require.NoError(t, err)
	assert.False(t, ok)

	out := &msgs.String{Data: "hello"}
	buf, err := conv.Converter.FromManaged(out)
	require.NoError(t, err)
	assert.Equal(t, 1, f.lib.Publish("/chatter", buf.(*wire.Message).Bytes()))
	conv.Converter.Destroy(buf)

	ok, err = f.b.Take(sub, conv, &msg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", msg.Data)
	conv.requireClean(t)
}

func TestWait_MarksOnlyTheReadyService(t *testing.T) {
	f := newFixture(t)
	first, err := f.b.CreateService(f.node, msgs.AddTwoIntsService, "add_a")
	require.NoError(t, err)
	second, err := f.b.CreateService(f.node, msgs.AddTwoIntsService, "add_b")
	require.NoError(t, err)
	sub, err := f.b.CreateSubscription(f.node, msgs.TypeSupport("std_msgs/msg/String"), "/chatter")
	require.NoError(t, err)
	client, err := f.b.CreateClient(f.node, msgs.AddTwoIntsService, "add_b")
	require.NoError(t, err)

	ws := f.b.NewWaitSet()
	require.NoError(t, f.b.WaitSetInit(ws, f.ctx, rcl.WaitSetSizes{Services: 2, Subscriptions: 1}))
	firstSlot, err := f.b.WaitSetAddService(ws, first)
	require.NoError(t, err)
	secondSlot, err := f.b.WaitSetAddService(ws, second)
	require.NoError(t, err)
	subSlot, err := f.b.WaitSetAddSubscription(ws, sub)
	require.NoError(t, err)

	_, err = f.b.SendRequest(client, msgs.ConverterFor(&msgs.AddTwoIntsRequest{}), &msgs.AddTwoIntsRequest{A: 1, B: 1})
	require.NoError(t, err)

	start := time.Now()
	ready, err := f.b.Wait(ws, 5*time.Second)
	require.NoError(t, err)
	require.True(t, ready)
	assert.Less(t, time.Since(start), time.Second, "wait did not return early")

	isReady, err := f.b.WaitSetIsReady(ws, rcl.EntityService, firstSlot)
	require.NoError(t, err)
	assert.False(t, isReady, "idle service marked ready")
	isReady, err = f.b.WaitSetIsReady(ws, rcl.EntityService, secondSlot)
	require.NoError(t, err)
	assert.True(t, isReady, "service with a request not marked ready")
	isReady, err = f.b.WaitSetIsReady(ws, rcl.EntitySubscription, subSlot)
	require.NoError(t, err)
	assert.False(t, isReady, "idle subscription marked ready")

	require.NoError(t, f.b.DisposeWaitSet(ws))
	require.NoError(t, f.b.DisposeClient(f.node, client))
	require.NoError(t, f.b.DisposeSubscription(f.node, sub))
	require.NoError(t, f.b.DisposeService(f.node, second))
	require.NoError(t, f.b.DisposeService(f.node, first))
}

func TestSubscription_TakeErrorFreesBuffer(t *testing.T) {
	f := newFixture(t)
	sub, err := f.b.CreateSubscription(f.node, msgs.TypeSupport("std_msgs/msg/String"), "/chatter")
	require.NoError(t, err)
	conv := newHygieneConverter(&msgs.String{})

	f.lib.FailNext("Take", rcl.RetError, "rmw take failed")
	var msg msgs.String
	ok, err := f.b.Take(sub, conv, &msg)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, bridge.ErrError))
	assert.Contains(t, err.Error(), "rmw take failed")
	conv.requireClean(t)
}

func TestClient_SendRequestErrorFreesBuffer(t *testing.T) {
	f := newFixture(t)
	client, err := f.b.CreateClient(f.node, msgs.AddTwoIntsService, "add_two_ints")
	require.NoError(t, err)
	conv := newHygieneConverter(&msgs.AddTwoIntsRequest{})

	f.lib.FailNext("SendRequest", rcl.RetClientInvalid, "client is gone")
	seq, err := f.b.SendRequest(client, conv, &msgs.AddTwoIntsRequest{A: 2, B: 3})
	require.Error(t, err)
	assert.Zero(t, seq)
	var bridgeErr bridge.Error
	require.True(t, errors.As(err, &bridgeErr))
	assert.Equal(t, rcl.RetClientInvalid, bridgeErr.Code())
	assert.Contains(t, err.Error(), "client is gone")
	conv.requireClean(t)
}
