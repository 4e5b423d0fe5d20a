package bridge

import (
	"time"

	"github.com/team-rocos/rclbridge/rcl"
)

// CreateContext initializes a native context.
func (b *Bridge) CreateContext() (Handle, error) {
	p, err := b.lib.ContextInit()
	if err != nil {
		return 0, b.fail(err, "Failed to initialize context")
	}
	h := b.handles.register(KindContext, p)
	b.trace("create context", h)
	return h, nil
}

// DisposeContext shuts down and finalizes a context.
func (b *Bridge) DisposeContext(ctx Handle) error {
	return b.dispose(ctx, KindContext, "context", b.lib.ContextFini)
}

// CreateNode creates a node in ctx.
func (b *Bridge) CreateNode(ctx Handle, name, namespace string) (Handle, error) {
	ctxPtr, err := b.handles.lookup(ctx, KindContext)
	if err != nil {
		return 0, err
	}
	p, err := b.lib.NodeInit(ctxPtr, name, namespace)
	if err != nil {
		return 0, b.fail(err, "Failed to create node")
	}
	h := b.handles.register(KindNode, p)
	b.trace("create node", h)
	return h, nil
}

// DisposeNode finalizes a node.
func (b *Bridge) DisposeNode(node Handle) error {
	return b.dispose(node, KindNode, "node", b.lib.NodeFini)
}

// CreateClock creates a clock of the given type.
func (b *Bridge) CreateClock(kind rcl.ClockType) (Handle, error) {
	p, err := b.lib.ClockInit(kind)
	if err != nil {
		return 0, b.fail(err, "Failed to create clock")
	}
	h := b.handles.register(KindClock, p)
	b.trace("create clock", h)
	return h, nil
}

// DisposeClock finalizes a clock.
func (b *Bridge) DisposeClock(clock Handle) error {
	return b.dispose(clock, KindClock, "clock", b.lib.ClockFini)
}

// CreateService creates a service server owned by node.
func (b *Bridge) CreateService(node Handle, ts rcl.TypeSupport, name string) (Handle, error) {
	nodePtr, err := b.ownerWithTypeSupport(node, ts, name)
	if err != nil {
		return 0, err
	}
	p, err := b.lib.ServiceInit(nodePtr, ts, name)
	if err != nil {
		return 0, b.fail(err, "Failed to create service")
	}
	h := b.handles.register(KindService, p)
	b.trace("create service", h)
	return h, nil
}

// DisposeService finalizes a service. node must be the owning node.
func (b *Bridge) DisposeService(node, service Handle) error {
	return b.disposeOwned(node, service, KindService, "service", b.lib.ServiceFini)
}

// CreateClient creates a service client owned by node.
func (b *Bridge) CreateClient(node Handle, ts rcl.TypeSupport, name string) (Handle, error) {
	nodePtr, err := b.ownerWithTypeSupport(node, ts, name)
	if err != nil {
		return 0, err
	}
	p, err := b.lib.ClientInit(nodePtr, ts, name)
	if err != nil {
		return 0, b.fail(err, "Failed to create client")
	}
	h := b.handles.register(KindClient, p)
	b.trace("create client", h)
	return h, nil
}

// DisposeClient finalizes a client. node must be the owning node.
func (b *Bridge) DisposeClient(node, client Handle) error {
	return b.disposeOwned(node, client, KindClient, "client", b.lib.ClientFini)
}

// CreateSubscription creates a subscription owned by node.
func (b *Bridge) CreateSubscription(node Handle, ts rcl.TypeSupport, topic string) (Handle, error) {
	nodePtr, err := b.ownerWithTypeSupport(node, ts, topic)
	if err != nil {
		return 0, err
	}
	p, err := b.lib.SubscriptionInit(nodePtr, ts, topic)
	if err != nil {
		return 0, b.fail(err, "Failed to create subscription")
	}
	h := b.handles.register(KindSubscription, p)
	b.trace("create subscription", h)
	return h, nil
}

// DisposeSubscription finalizes a subscription. node must be the owning node.
func (b *Bridge) DisposeSubscription(node, subscription Handle) error {
	return b.disposeOwned(node, subscription, KindSubscription, "subscription", b.lib.SubscriptionFini)
}

// CreateTimer creates a timer driven by clock.
func (b *Bridge) CreateTimer(ctx, clock Handle, period time.Duration) (Handle, error) {
	ctxPtr, err := b.handles.lookup(ctx, KindContext)
	if err != nil {
		return 0, err
	}
	clockPtr, err := b.handles.lookup(clock, KindClock)
	if err != nil {
		return 0, err
	}
	p, err := b.lib.TimerInit(ctxPtr, clockPtr, period)
	if err != nil {
		return 0, b.fail(err, "Failed to create timer")
	}
	h := b.handles.register(KindTimer, p)
	b.trace("create timer", h)
	return h, nil
}

// CallTimer marks a ready timer as handled.
func (b *Bridge) CallTimer(timer Handle) error {
	p, err := b.handles.lookup(timer, KindTimer)
	if err != nil {
		return err
	}
	if err := b.lib.TimerCall(p); err != nil {
		return b.fail(err, "Failed to call timer")
	}
	return nil
}

// DisposeTimer finalizes a timer.
func (b *Bridge) DisposeTimer(timer Handle) error {
	return b.dispose(timer, KindTimer, "timer", b.lib.TimerFini)
}

// CreateGuardCondition creates a guard condition in ctx.
func (b *Bridge) CreateGuardCondition(ctx Handle) (Handle, error) {
	ctxPtr, err := b.handles.lookup(ctx, KindContext)
	if err != nil {
		return 0, err
	}
	p, err := b.lib.GuardConditionInit(ctxPtr)
	if err != nil {
		return 0, b.fail(err, "Failed to create guard condition")
	}
	h := b.handles.register(KindGuardCondition, p)
	b.trace("create guard condition", h)
	return h, nil
}

// TriggerGuardCondition wakes up waits on gc.
func (b *Bridge) TriggerGuardCondition(gc Handle) error {
	p, err := b.handles.lookup(gc, KindGuardCondition)
	if err != nil {
		return err
	}
	if err := b.lib.GuardConditionTrigger(p); err != nil {
		return b.fail(err, "Failed to trigger guard condition")
	}
	return nil
}

// DisposeGuardCondition finalizes a guard condition.
func (b *Bridge) DisposeGuardCondition(gc Handle) error {
	return b.dispose(gc, KindGuardCondition, "guard condition", b.lib.GuardConditionFini)
}

func (b *Bridge) ownerWithTypeSupport(node Handle, ts rcl.TypeSupport, name string) (rcl.Pointer, error) {
	nodePtr, err := b.handles.lookup(node, KindNode)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, newError(rcl.RetInvalidArgument, "type support is nil")
	}
	if name == "" {
		return nil, newError(rcl.RetInvalidArgument, "name is empty")
	}
	return nodePtr, nil
}

// disposeOwned finalizes a resource that needs its owning node for fini. A
// zero node with a live resource is a caller error: silently returning would
// leak the resource.
func (b *Bridge) disposeOwned(node, h Handle, kind Kind, what string, fini func(p, node rcl.Pointer) error) error {
	if h.IsZero() {
		return nil
	}
	if h.Kind() == kind && b.handles.state(h) == handleReleased {
		b.trace("dispose "+what+" (already disposed)", h)
		return nil
	}
	if node.IsZero() {
		return newError(rcl.RetNodeInvalid, "Failed to destroy %s: owning node handle is zero", what)
	}
	nodePtr, err := b.handles.lookup(node, KindNode)
	if err != nil {
		return err
	}
	return b.dispose(h, kind, what, func(p rcl.Pointer) error {
		return fini(p, nodePtr)
	})
}
