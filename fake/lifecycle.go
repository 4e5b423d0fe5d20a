package fake

import (
	"time"

	"github.com/eapache/queue"

	"github.com/team-rocos/rclbridge/rcl"
)

// Context is a native context.
type Context struct {
	valid bool
}

// Node is a native node.
type Node struct {
	ctx       *Context
	name      string
	namespace string
	valid     bool
}

// Clock is a native clock.
type Clock struct {
	kind  rcl.ClockType
	valid bool
}

// Timer is a native timer.
type Timer struct {
	period   time.Duration
	lastCall time.Time
	valid    bool
}

// GuardCondition is a native guard condition.
type GuardCondition struct {
	triggered bool
	valid     bool
}

func (l *Library) ContextInit() (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ContextInit"); err != nil {
		return nil, err
	}
	l.live++
	return &Context{valid: true}, nil
}

func (l *Library) ContextFini(ctx rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ContextFini"); err != nil {
		return err
	}
	c, ok := ctx.(*Context)
	if !ok || !c.valid {
		return rcl.Errorf(rcl.RetInvalidArgument, "context is invalid")
	}
	c.valid = false
	l.live--
	return nil
}

func (l *Library) context(ctx rcl.Pointer) (*Context, error) {
	c, ok := ctx.(*Context)
	if !ok || !c.valid {
		return nil, rcl.Errorf(rcl.RetNotInit, "context is not initialized")
	}
	return c, nil
}

func (l *Library) NodeInit(ctx rcl.Pointer, name, namespace string) (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("NodeInit"); err != nil {
		return nil, err
	}
	c, err := l.context(ctx)
	if err != nil {
		return nil, err
	}
	if !nameRE.MatchString(name) {
		return nil, rcl.Errorf(rcl.RetNodeInvalidName, "node name %q is invalid", name)
	}
	l.live++
	return &Node{ctx: c, name: name, namespace: namespace, valid: true}, nil
}

func (l *Library) NodeFini(node rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("NodeFini"); err != nil {
		return err
	}
	n, err := l.node(node)
	if err != nil {
		return err
	}
	n.valid = false
	l.live--
	return nil
}

func (l *Library) node(node rcl.Pointer) (*Node, error) {
	n, ok := node.(*Node)
	if !ok || !n.valid {
		return nil, rcl.Errorf(rcl.RetNodeInvalid, "node is invalid")
	}
	if !n.ctx.valid {
		return nil, rcl.Errorf(rcl.RetNodeInvalid, "node context is invalid")
	}
	return n, nil
}

func (l *Library) ClockInit(kind rcl.ClockType) (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ClockInit"); err != nil {
		return nil, err
	}
	if kind == rcl.ClockUninitialized {
		return nil, rcl.Errorf(rcl.RetInvalidArgument, "clock type is uninitialized")
	}
	l.live++
	return &Clock{kind: kind, valid: true}, nil
}

func (l *Library) ClockFini(clock rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ClockFini"); err != nil {
		return err
	}
	c, err := l.clock(clock)
	if err != nil {
		return err
	}
	c.valid = false
	l.live--
	return nil
}

func (l *Library) clock(clock rcl.Pointer) (*Clock, error) {
	c, ok := clock.(*Clock)
	if !ok || !c.valid {
		return nil, rcl.Errorf(rcl.RetInvalidArgument, "clock is invalid")
	}
	return c, nil
}

func (l *Library) ServiceInit(node rcl.Pointer, ts rcl.TypeSupport, name string) (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ServiceInit"); err != nil {
		return nil, err
	}
	n, err := l.node(node)
	if err != nil {
		return nil, err
	}
	if !topicRE.MatchString(name) {
		return nil, rcl.Errorf(rcl.RetServiceNameInvalid, "service name %q is invalid", name)
	}
	s := &Service{node: n, typeName: ts.TypeName(), name: name, requests: queue.New(), valid: true}
	l.services[name] = append(l.services[name], s)
	l.live++
	return s, nil
}

func (l *Library) ServiceFini(service, node rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ServiceFini"); err != nil {
		return err
	}
	if _, err := l.node(node); err != nil {
		return err
	}
	s, err := l.service(service)
	if err != nil {
		return err
	}
	s.valid = false
	list := l.services[s.name]
	for i := range list {
		if list[i] == s {
			l.services[s.name] = append(list[:i], list[i+1:]...)
			break
		}
	}
	l.live--
	return nil
}

func (l *Library) ClientInit(node rcl.Pointer, ts rcl.TypeSupport, name string) (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ClientInit"); err != nil {
		return nil, err
	}
	n, err := l.node(node)
	if err != nil {
		return nil, err
	}
	if !topicRE.MatchString(name) {
		return nil, rcl.Errorf(rcl.RetServiceNameInvalid, "service name %q is invalid", name)
	}
	c := &Client{node: n, typeName: ts.TypeName(), name: name, guid: l.newGUID(), responses: queue.New(), valid: true}
	l.clients[c.guid] = c
	l.live++
	return c, nil
}

func (l *Library) ClientFini(client, node rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("ClientFini"); err != nil {
		return err
	}
	if _, err := l.node(node); err != nil {
		return err
	}
	c, err := l.client(client)
	if err != nil {
		return err
	}
	c.valid = false
	delete(l.clients, c.guid)
	l.live--
	return nil
}

func (l *Library) SubscriptionInit(node rcl.Pointer, ts rcl.TypeSupport, topic string) (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("SubscriptionInit"); err != nil {
		return nil, err
	}
	n, err := l.node(node)
	if err != nil {
		return nil, err
	}
	if !topicRE.MatchString(topic) {
		return nil, rcl.Errorf(rcl.RetTopicNameInvalid, "topic name %q is invalid", topic)
	}
	s := &Subscription{node: n, typeName: ts.TypeName(), topic: topic, messages: queue.New(), valid: true}
	l.subscriptions[topic] = append(l.subscriptions[topic], s)
	l.live++
	return s, nil
}

func (l *Library) SubscriptionFini(subscription, node rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("SubscriptionFini"); err != nil {
		return err
	}
	if _, err := l.node(node); err != nil {
		return err
	}
	s, err := l.subscription(subscription)
	if err != nil {
		return err
	}
	s.valid = false
	list := l.subscriptions[s.topic]
	for i := range list {
		if list[i] == s {
			l.subscriptions[s.topic] = append(list[:i], list[i+1:]...)
			break
		}
	}
	l.live--
	return nil
}

func (l *Library) TimerInit(ctx, clock rcl.Pointer, period time.Duration) (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("TimerInit"); err != nil {
		return nil, err
	}
	if _, err := l.context(ctx); err != nil {
		return nil, err
	}
	if _, err := l.clock(clock); err != nil {
		return nil, err
	}
	if period < 0 {
		return nil, rcl.Errorf(rcl.RetInvalidArgument, "period must be non-negative")
	}
	l.live++
	return &Timer{period: period, lastCall: l.now(), valid: true}, nil
}

func (l *Library) TimerFini(timer rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("TimerFini"); err != nil {
		return err
	}
	t, err := l.timer(timer)
	if err != nil {
		return err
	}
	t.valid = false
	l.live--
	return nil
}

func (l *Library) TimerCall(timer rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("TimerCall"); err != nil {
		return err
	}
	t, err := l.timer(timer)
	if err != nil {
		return err
	}
	t.lastCall = l.now()
	return nil
}

func (l *Library) timer(timer rcl.Pointer) (*Timer, error) {
	t, ok := timer.(*Timer)
	if !ok || !t.valid {
		return nil, rcl.Errorf(rcl.RetTimerInvalid, "timer is invalid")
	}
	return t, nil
}

func (t *Timer) ready(now time.Time) bool {
	return !now.Before(t.lastCall.Add(t.period))
}

func (l *Library) GuardConditionInit(ctx rcl.Pointer) (rcl.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("GuardConditionInit"); err != nil {
		return nil, err
	}
	if _, err := l.context(ctx); err != nil {
		return nil, err
	}
	l.live++
	return &GuardCondition{valid: true}, nil
}

func (l *Library) GuardConditionFini(gc rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("GuardConditionFini"); err != nil {
		return err
	}
	g, err := l.guardCondition(gc)
	if err != nil {
		return err
	}
	g.valid = false
	l.live--
	return nil
}

func (l *Library) GuardConditionTrigger(gc rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("GuardConditionTrigger"); err != nil {
		return err
	}
	g, err := l.guardCondition(gc)
	if err != nil {
		return err
	}
	g.triggered = true
	l.notify()
	return nil
}

func (l *Library) guardCondition(gc rcl.Pointer) (*GuardCondition, error) {
	g, ok := gc.(*GuardCondition)
	if !ok || !g.valid {
		return nil, rcl.Errorf(rcl.RetInvalidArgument, "guard condition is invalid")
	}
	return g, nil
}
