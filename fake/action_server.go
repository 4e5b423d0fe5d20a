package fake

import (
	"bytes"
	"time"

	"github.com/eapache/queue"

	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

// ActionServer is a native action server. It owns three services (goal,
// cancel, result) and the goal expiry timer.
type ActionServer struct {
	node           *Node
	clock          *Clock
	typeName       string
	name           string
	opts           rcl.ActionServerOptions
	goalRequests   *queue.Queue
	cancelRequests *queue.Queue
	resultRequests *queue.Queue
	goals          []*GoalHandle
	goalsDone      int
	valid          bool
}

var actionServerCounts = rcl.EntityCounts{Services: 3, Timers: 1}

func (l *Library) ActionServerInit(node, clock rcl.Pointer, ts rcl.TypeSupport, name string,
	opts rcl.ActionServerOptions) (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionServerInit"); err != nil {
		return nil, err
	}
	n, err := l.node(node)
	if err != nil {
		return nil, err
	}
	c, err := l.clock(clock)
	if err != nil {
		return nil, err
	}
	if !topicRE.MatchString(name) {
		return nil, rcl.Errorf(rcl.RetActionNameInvalid, "action name %q is invalid", name)
	}
	if _, ok := l.actionServers[name]; ok {
		return nil, rcl.Errorf(rcl.RetError, "action server %q already exists", name)
	}
	s := &ActionServer{
		node:           n,
		clock:          c,
		typeName:       ts.TypeName(),
		name:           name,
		opts:           opts,
		goalRequests:   queue.New(),
		cancelRequests: queue.New(),
		resultRequests: queue.New(),
		valid:          true,
	}
	l.actionServers[name] = s
	l.live++
	return s, nil
}

func (l *Library) ActionServerFini(server, node rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionServerFini"); err != nil {
		return err
	}
	s, err := l.actionServer(server)
	if err != nil {
		return err
	}
	if _, err := l.node(node); err != nil {
		return err
	}
	s.valid = false
	for _, g := range s.goals {
		g.valid = false
		g.released = true
		l.live--
	}
	s.goals = nil
	delete(l.actionServers, s.name)
	l.live--
	return nil
}

func (l *Library) actionServer(server rcl.Pointer) (*ActionServer, error) {
	s, ok := server.(*ActionServer)
	if !ok || !s.valid {
		return nil, rcl.Errorf(rcl.RetActionServerInvalid, "action server is invalid")
	}
	return s, nil
}

func (l *Library) ActionServerWaitSetGetNumEntities(server rcl.Pointer) (rcl.EntityCounts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionServerWaitSetGetNumEntities"); err != nil {
		return rcl.EntityCounts{}, err
	}
	if _, err := l.actionServer(server); err != nil {
		return rcl.EntityCounts{}, err
	}
	return actionServerCounts, nil
}

func (l *Library) ActionServerWaitSetGetEntitiesReady(ws, server rcl.Pointer) (rcl.ActionServerReady, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionServerWaitSetGetEntitiesReady"); err != nil {
		return rcl.ActionServerReady{}, err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return rcl.ActionServerReady{}, err
	}
	s, err := l.actionServer(server)
	if err != nil {
		return rcl.ActionServerReady{}, err
	}
	ready, ok := w.serverReady[s]
	if !ok {
		for _, added := range w.actionServers {
			if added == s {
				return rcl.ActionServerReady{}, nil
			}
		}
		return rcl.ActionServerReady{}, rcl.Errorf(rcl.RetInvalidArgument, "action server %q is not in the wait set", s.name)
	}
	return ready, nil
}

func (l *Library) ActionTakeGoalRequest(server rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer) error {
	return l.actionTake("ActionTakeGoalRequest", server, id, msg, func(s *ActionServer) *queue.Queue {
		return s.goalRequests
	}, "goal request")
}

func (l *Library) ActionTakeCancelRequest(server rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer) error {
	return l.actionTake("ActionTakeCancelRequest", server, id, msg, func(s *ActionServer) *queue.Queue {
		return s.cancelRequests
	}, "cancel request")
}

func (l *Library) ActionTakeResultRequest(server rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer) error {
	return l.actionTake("ActionTakeResultRequest", server, id, msg, func(s *ActionServer) *queue.Queue {
		return s.resultRequests
	}, "result request")
}

func (l *Library) actionTake(method string, server rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer,
	pending func(*ActionServer) *queue.Queue, what string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected(method); err != nil {
		return err
	}
	s, err := l.actionServer(server)
	if err != nil {
		return err
	}
	m, err := wireBuffer(msg)
	if err != nil {
		return err
	}
	return takeQueued(pending(s), id, m.Set, rcl.RetActionServerTakeFailed, what)
}

func (l *Library) ActionSendGoalResponse(server rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer) error {
	return l.actionSend("ActionSendGoalResponse", server, id, msg, func(c *ActionClient) map[int64][]byte {
		return c.goalResponses
	})
}

func (l *Library) ActionSendCancelResponse(server rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer) error {
	return l.actionSend("ActionSendCancelResponse", server, id, msg, func(c *ActionClient) map[int64][]byte {
		return c.cancelResponses
	})
}

func (l *Library) ActionSendResultResponse(server rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer) error {
	return l.actionSend("ActionSendResultResponse", server, id, msg, func(c *ActionClient) map[int64][]byte {
		return c.resultResponses
	})
}

func (l *Library) actionSend(method string, server rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer,
	responses func(*ActionClient) map[int64][]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected(method); err != nil {
		return err
	}
	if _, err := l.actionServer(server); err != nil {
		return err
	}
	m, err := wireBuffer(msg)
	if err != nil {
		return err
	}
	if id == nil {
		return rcl.Errorf(rcl.RetInvalidArgument, "request header is null")
	}
	if c, ok := l.actionClients[id.WriterGUID]; ok {
		responses(c)[id.SequenceNumber] = append([]byte(nil), m.Bytes()...)
	}
	return nil
}

// ActionProcessCancelRequest selects the goals a cancel request applies to
// and writes an action_msgs/srv/CancelGoal_Response into response.
func (l *Library) ActionProcessCancelRequest(server rcl.Pointer, request, response rcl.Buffer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionProcessCancelRequest"); err != nil {
		return err
	}
	s, err := l.actionServer(server)
	if err != nil {
		return err
	}
	reqBuf, err := wireBuffer(request)
	if err != nil {
		return err
	}
	respBuf, err := wireBuffer(response)
	if err != nil {
		return err
	}
	var req msgs.CancelGoalRequest
	if err := req.Deserialize(reqBuf.Reader()); err != nil {
		return rcl.Errorf(rcl.RetInvalidArgument, "cancel request: %v", err)
	}
	resp := s.cancelGoals(req.GoalInfo)
	var out bytes.Buffer
	resp.Serialize(&out)
	if err := respBuf.Set(out.Bytes()); err != nil {
		return rcl.Errorf(rcl.RetError, "%v", err)
	}
	return nil
}

// cancelGoals follows rcl_action_process_cancel_request: a zero id and zero
// stamp match every goal, a stamp matches goals accepted at or before it, an
// id matches that goal.
func (s *ActionServer) cancelGoals(info msgs.GoalInfo) *msgs.CancelGoalResponse {
	resp := &msgs.CancelGoalResponse{ReturnCode: msgs.CancelErrorNone}
	all := info.GoalID.IsZero() && info.Stamp.IsZero()
	found, terminal := false, false
	for _, g := range s.goals {
		byID := !info.GoalID.IsZero() && g.info.GoalID == info.GoalID
		byStamp := !info.Stamp.IsZero() && !info.Stamp.Before(g.info.Stamp)
		if !all && !byID && !byStamp {
			continue
		}
		if byID {
			found = true
		}
		if g.state.Terminal() {
			if byID {
				terminal = true
			}
			continue
		}
		if g.state == rcl.GoalStateAccepted || g.state == rcl.GoalStateExecuting {
			resp.GoalsCanceling = append(resp.GoalsCanceling, g.info)
		}
	}
	if len(resp.GoalsCanceling) == 0 {
		switch {
		case !info.GoalID.IsZero() && !found:
			resp.ReturnCode = msgs.CancelErrorUnknownGoalID
		case terminal:
			resp.ReturnCode = msgs.CancelErrorGoalTerminated
		default:
			resp.ReturnCode = msgs.CancelErrorRejected
		}
	}
	return resp
}

func (l *Library) ActionExpireGoals(server rcl.Pointer, capacity int) ([]rcl.GoalUUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionExpireGoals"); err != nil {
		return nil, err
	}
	s, err := l.actionServer(server)
	if err != nil {
		return nil, err
	}
	now := l.now()
	var expired []rcl.GoalUUID
	kept := s.goals[:0]
	for _, g := range s.goals {
		if (capacity <= 0 || len(expired) < capacity) && g.expired(now, s.opts.ResultTimeout) {
			g.valid = false
			g.released = true
			l.live--
			expired = append(expired, rcl.GoalUUID(g.info.GoalID))
			continue
		}
		kept = append(kept, g)
	}
	s.goals = kept
	return expired, nil
}

func (l *Library) ActionNotifyGoalDone(server rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ActionNotifyGoalDone"); err != nil {
		return err
	}
	s, err := l.actionServer(server)
	if err != nil {
		return err
	}
	s.goalsDone++
	l.notify()
	return nil
}

func (s *ActionServer) ready(now time.Time) rcl.ActionServerReady {
	r := rcl.ActionServerReady{
		GoalRequest:   s.goalRequests.Length() > 0,
		CancelRequest: s.cancelRequests.Length() > 0,
		ResultRequest: s.resultRequests.Length() > 0,
	}
	for _, g := range s.goals {
		if g.expired(now, s.opts.ResultTimeout) {
			r.GoalExpired = true
			break
		}
	}
	return r
}

// nextExpiry returns when the earliest terminal goal expires.
func (s *ActionServer) nextExpiry() (time.Time, bool) {
	var next time.Time
	ok := false
	for _, g := range s.goals {
		if !g.state.Terminal() {
			continue
		}
		at := g.terminalAt.Add(s.opts.ResultTimeout)
		if !ok || at.Before(next) {
			next, ok = at, true
		}
	}
	return next, ok
}
