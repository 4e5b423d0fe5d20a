package bridge

import (
	"time"

	"github.com/team-rocos/rclbridge/rcl"
)

// NewWaitSet returns a handle to a zero-initialized wait set. It must be
// initialized with WaitSetInit before entities are added.
func (b *Bridge) NewWaitSet() Handle {
	h := b.handles.register(KindWaitSet, b.lib.WaitSetZero())
	b.trace("zero-initialize wait set", h)
	return h
}

// WaitSetInit allocates the slot arrays of ws.
func (b *Bridge) WaitSetInit(ws, ctx Handle, sizes rcl.WaitSetSizes) error {
	wsPtr, err := b.handles.lookup(ws, KindWaitSet)
	if err != nil {
		return err
	}
	ctxPtr, err := b.handles.lookup(ctx, KindContext)
	if err != nil {
		return err
	}
	if err := b.lib.WaitSetInit(wsPtr, ctxPtr, sizes); err != nil {
		return b.fail(err, "Failed to initialize wait set")
	}
	return nil
}

// DisposeWaitSet finalizes ws. A zero handle is a no-op.
func (b *Bridge) DisposeWaitSet(ws Handle) error {
	return b.dispose(ws, KindWaitSet, "wait set", b.lib.WaitSetFini)
}

// WaitSetClear empties every slot of ws.
func (b *Bridge) WaitSetClear(ws Handle) error {
	p, err := b.handles.lookup(ws, KindWaitSet)
	if err != nil {
		return err
	}
	if err := b.lib.WaitSetClear(p); err != nil {
		return b.fail(err, "Failed to clear wait set")
	}
	return nil
}

func (b *Bridge) waitSetAdd(ws, entity Handle, kind Kind, add func(ws, p rcl.Pointer) (int, error)) (int, error) {
	wsPtr, err := b.handles.lookup(ws, KindWaitSet)
	if err != nil {
		return 0, err
	}
	p, err := b.handles.lookup(entity, kind)
	if err != nil {
		return 0, err
	}
	index, err := add(wsPtr, p)
	if err != nil {
		return 0, b.fail(err, "Failed to add "+kind.String()+" to wait set")
	}
	return index, nil
}

// WaitSetAddSubscription adds subscription to ws and returns its slot.
func (b *Bridge) WaitSetAddSubscription(ws, subscription Handle) (int, error) {
	return b.waitSetAdd(ws, subscription, KindSubscription, b.lib.WaitSetAddSubscription)
}

// WaitSetAddGuardCondition adds gc to ws and returns its slot.
func (b *Bridge) WaitSetAddGuardCondition(ws, gc Handle) (int, error) {
	return b.waitSetAdd(ws, gc, KindGuardCondition, b.lib.WaitSetAddGuardCondition)
}

// WaitSetAddTimer adds timer to ws and returns its slot.
func (b *Bridge) WaitSetAddTimer(ws, timer Handle) (int, error) {
	return b.waitSetAdd(ws, timer, KindTimer, b.lib.WaitSetAddTimer)
}

// WaitSetAddClient adds client to ws and returns its slot.
func (b *Bridge) WaitSetAddClient(ws, client Handle) (int, error) {
	return b.waitSetAdd(ws, client, KindClient, b.lib.WaitSetAddClient)
}

// WaitSetAddService adds service to ws and returns its slot.
func (b *Bridge) WaitSetAddService(ws, service Handle) (int, error) {
	return b.waitSetAdd(ws, service, KindService, b.lib.WaitSetAddService)
}

// WaitSetAddActionServer adds all entities of server to ws.
func (b *Bridge) WaitSetAddActionServer(ws, server Handle) error {
	_, err := b.waitSetAdd(ws, server, KindActionServer, func(ws, p rcl.Pointer) (int, error) {
		return 0, b.lib.WaitSetAddActionServer(ws, p)
	})
	return err
}

// Wait blocks until an entity in ws is ready or timeout elapses. It reports
// false with no error on timeout. A negative timeout waits forever.
func (b *Bridge) Wait(ws Handle, timeout time.Duration) (bool, error) {
	p, err := b.handles.lookup(ws, KindWaitSet)
	if err != nil {
		return false, err
	}
	if err := b.lib.Wait(p, timeout); err != nil {
		if rcl.CodeOf(err) == rcl.RetTimeout {
			return false, nil
		}
		return false, b.fail(err, "Failed to wait on wait set")
	}
	return true, nil
}

// WaitSetIsReady reports whether slot index of the kind array was ready
// after the last Wait.
func (b *Bridge) WaitSetIsReady(ws Handle, kind rcl.EntityKind, index int) (bool, error) {
	p, err := b.handles.lookup(ws, KindWaitSet)
	if err != nil {
		return false, err
	}
	ready, err := b.lib.WaitSetIsReady(p, kind, index)
	if err != nil {
		return false, b.fail(err, "Failed to query "+kind.String()+" readiness")
	}
	return ready, nil
}
