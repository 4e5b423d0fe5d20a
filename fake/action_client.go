package fake

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

// ActionClient plays the client side of an action for tests and demos. It
// writes requests straight into the queues of the action server with the
// same name and collects the responses addressed to it.
type ActionClient struct {
	lib             *Library
	name            string
	guid            [rcl.GUIDSize]int8
	seq             int64
	goalResponses   map[int64][]byte
	cancelResponses map[int64][]byte
	resultResponses map[int64][]byte
}

// NewActionClient returns a client of the action called name.
func (l *Library) NewActionClient(name string) *ActionClient {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := &ActionClient{
		lib:             l,
		name:            name,
		guid:            l.newGUID(),
		goalResponses:   make(map[int64][]byte),
		cancelResponses: make(map[int64][]byte),
		resultResponses: make(map[int64][]byte),
	}
	l.actionClients[c.guid] = c
	return c
}

// GUID returns the writer GUID stamped on the client's requests.
func (c *ActionClient) GUID() [rcl.GUIDSize]int8 {
	return c.guid
}

// SendGoalRequest queues a SendGoal request and returns its sequence number.
func (c *ActionClient) SendGoalRequest(msg msgs.Serializable) (int64, error) {
	return c.send(msg, func(s *ActionServer) { s.goalRequests.Add(c.request(msg)) })
}

// SendCancelRequest queues a CancelGoal request.
func (c *ActionClient) SendCancelRequest(msg *msgs.CancelGoalRequest) (int64, error) {
	return c.send(msg, func(s *ActionServer) { s.cancelRequests.Add(c.request(msg)) })
}

// SendResultRequest queues a GetResult request.
func (c *ActionClient) SendResultRequest(msg msgs.Serializable) (int64, error) {
	return c.send(msg, func(s *ActionServer) { s.resultRequests.Add(c.request(msg)) })
}

func (c *ActionClient) send(msg msgs.Serializable, push func(*ActionServer)) (int64, error) {
	c.lib.mu.Lock()
	defer c.lib.mu.Unlock()
	s, ok := c.lib.actionServers[c.name]
	if !ok {
		return 0, errors.Errorf("no action server named %s", c.name)
	}
	c.seq++
	push(s)
	c.lib.notify()
	return c.seq, nil
}

func (c *ActionClient) request(msg msgs.Serializable) request {
	var buf bytes.Buffer
	msg.Serialize(&buf)
	return request{
		id:   rcl.RequestID{SequenceNumber: c.seq, WriterGUID: c.guid},
		data: buf.Bytes(),
	}
}

// GoalResponse decodes the response to goal request seq into msg. It
// reports false if no response has arrived yet.
func (c *ActionClient) GoalResponse(seq int64, msg msgs.Serializable) (bool, error) {
	return c.response(c.goalResponses, seq, msg)
}

// CancelResponse decodes the response to cancel request seq into msg.
func (c *ActionClient) CancelResponse(seq int64, msg *msgs.CancelGoalResponse) (bool, error) {
	return c.response(c.cancelResponses, seq, msg)
}

// ResultResponse decodes the response to result request seq into msg.
func (c *ActionClient) ResultResponse(seq int64, msg msgs.Serializable) (bool, error) {
	return c.response(c.resultResponses, seq, msg)
}

func (c *ActionClient) response(responses map[int64][]byte, seq int64, msg msgs.Serializable) (bool, error) {
	c.lib.mu.Lock()
	data, ok := responses[seq]
	c.lib.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, errors.Wrap(msg.Deserialize(bytes.NewReader(data)), msg.TypeName())
}
