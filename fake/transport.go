package fake

import (
	"github.com/eapache/queue"

	"github.com/team-rocos/rclbridge/rcl"
)

// Service is a native service server.
type Service struct {
	node     *Node
	typeName string
	name     string
	requests *queue.Queue
	valid    bool
}

// Client is a native service client. Requests go to the services of the
// same name in the library; responses come back by writer GUID.
type Client struct {
	node      *Node
	typeName  string
	name      string
	guid      [rcl.GUIDSize]int8
	seq       int64
	responses *queue.Queue
	valid     bool
}

// Subscription is a native subscription fed by Publish.
type Subscription struct {
	node     *Node
	typeName string
	topic    string
	messages *queue.Queue
	valid    bool
}

func (l *Library) service(service rcl.Pointer) (*Service, error) {
	s, ok := service.(*Service)
	if !ok || !s.valid {
		return nil, rcl.Errorf(rcl.RetServiceInvalid, "service is invalid")
	}
	return s, nil
}

func (l *Library) client(client rcl.Pointer) (*Client, error) {
	c, ok := client.(*Client)
	if !ok || !c.valid {
		return nil, rcl.Errorf(rcl.RetClientInvalid, "client is invalid")
	}
	return c, nil
}

func (l *Library) subscription(subscription rcl.Pointer) (*Subscription, error) {
	s, ok := subscription.(*Subscription)
	if !ok || !s.valid {
		return nil, rcl.Errorf(rcl.RetSubscriptionInvalid, "subscription is invalid")
	}
	return s, nil
}

// Publish delivers a serialized message to every subscription on topic and
// returns how many received it.
func (l *Library) Publish(topic string, data []byte) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	subs := l.subscriptions[topic]
	for _, s := range subs {
		s.messages.Add(append([]byte(nil), data...))
	}
	if len(subs) > 0 {
		l.notify()
	}
	return len(subs)
}

func (l *Library) Take(subscription rcl.Pointer, msg rcl.Buffer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("Take"); err != nil {
		return err
	}
	s, err := l.subscription(subscription)
	if err != nil {
		return err
	}
	m, err := wireBuffer(msg)
	if err != nil {
		return err
	}
	if s.messages.Length() == 0 {
		return rcl.Errorf(rcl.RetSubscriptionTakeFailed, "no message available on %s", s.topic)
	}
	return m.Set(s.messages.Remove().([]byte))
}

func (l *Library) TakeRequest(service rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("TakeRequest"); err != nil {
		return err
	}
	s, err := l.service(service)
	if err != nil {
		return err
	}
	m, err := wireBuffer(msg)
	if err != nil {
		return err
	}
	return takeQueued(s.requests, id, m.Set, rcl.RetServiceTakeFailed, "service request")
}

func (l *Library) SendResponse(service rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("SendResponse"); err != nil {
		return err
	}
	if _, err := l.service(service); err != nil {
		return err
	}
	m, err := wireBuffer(msg)
	if err != nil {
		return err
	}
	if id == nil {
		return rcl.Errorf(rcl.RetInvalidArgument, "request header is null")
	}
	// A response for a client that went away is dropped, as in rmw.
	if c, ok := l.clients[id.WriterGUID]; ok {
		c.responses.Add(request{id: *id, data: append([]byte(nil), m.Bytes()...)})
		l.notify()
	}
	return nil
}

func (l *Library) SendRequest(client rcl.Pointer, msg rcl.Buffer) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("SendRequest"); err != nil {
		return 0, err
	}
	c, err := l.client(client)
	if err != nil {
		return 0, err
	}
	m, err := wireBuffer(msg)
	if err != nil {
		return 0, err
	}
	c.seq++
	id := rcl.RequestID{SequenceNumber: c.seq, WriterGUID: c.guid}
	for _, s := range l.services[c.name] {
		s.requests.Add(request{id: id, data: append([]byte(nil), m.Bytes()...)})
	}
	l.notify()
	return c.seq, nil
}

func (l *Library) TakeResponse(client rcl.Pointer, id *rcl.RequestID, msg rcl.Buffer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("TakeResponse"); err != nil {
		return err
	}
	c, err := l.client(client)
	if err != nil {
		return err
	}
	m, err := wireBuffer(msg)
	if err != nil {
		return err
	}
	return takeQueued(c.responses, id, m.Set, rcl.RetClientTakeFailed, "service response")
}

// takeQueued pops the next request of q into id and set.
func takeQueued(q *queue.Queue, id *rcl.RequestID, set func([]byte) error, empty rcl.RetCode, what string) error {
	if id == nil {
		return rcl.Errorf(rcl.RetInvalidArgument, "request header is null")
	}
	if q.Length() == 0 {
		return rcl.Errorf(empty, "no %s available", what)
	}
	r := q.Remove().(request)
	if err := set(r.data); err != nil {
		return rcl.Errorf(rcl.RetError, "%v", err)
	}
	*id = r.id
	return nil
}
