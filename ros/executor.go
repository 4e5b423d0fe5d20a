package ros

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/rcl"
)

// Executor waits on the entities registered with it and dispatches the ready
// ones. It rebuilds its wait set on every spin.
type Executor struct {
	node     *Node
	mutex    sync.Mutex
	servers  []ActionServer
	services []*Service
	subs     []*Subscription
	wake     bridge.Handle
	waitSet  bridge.Handle
}

// NewExecutor returns an executor for entities of node.
func NewExecutor(node *Node) (*Executor, error) {
	wake, err := node.bridge.CreateGuardCondition(node.context)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create executor guard condition")
	}
	return &Executor{node: node, wake: wake}, nil
}

// AddActionServer registers as with the executor.
func (e *Executor) AddActionServer(as ActionServer) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.servers = append(e.servers, as)
}

// AddService registers s with the executor.
func (e *Executor) AddService(s *Service) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.services = append(e.services, s)
}

// AddSubscription registers s with the executor.
func (e *Executor) AddSubscription(s *Subscription) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.subs = append(e.subs, s)
}

// Wake interrupts a blocked SpinOnce.
func (e *Executor) Wake() error {
	return e.node.bridge.TriggerGuardCondition(e.wake)
}

// SpinOnce waits at most timeout for work and handles whatever is ready. A
// negative timeout waits until something is ready.
func (e *Executor) SpinOnce(timeout time.Duration) error {
	e.mutex.Lock()
	servers := append([]ActionServer(nil), e.servers...)
	services := append([]*Service(nil), e.services...)
	subs := append([]*Subscription(nil), e.subs...)
	e.mutex.Unlock()

	b := e.node.bridge
	if err := b.DisposeWaitSet(e.waitSet); err != nil {
		return errors.Wrap(err, "failed to dispose wait set")
	}
	e.waitSet = b.NewWaitSet()

	sizes := rcl.WaitSetSizes{GuardConditions: 1, Services: len(services), Subscriptions: len(subs)}
	for _, as := range servers {
		counts, err := b.ActionServerEntityCounts(as.Handle())
		if err != nil {
			return errors.Wrapf(err, "action server %s", as.Name())
		}
		sizes = sizes.Add(counts.WaitSetSizes())
	}
	if err := b.WaitSetInit(e.waitSet, e.node.context, sizes); err != nil {
		return err
	}
	if _, err := b.WaitSetAddGuardCondition(e.waitSet, e.wake); err != nil {
		return err
	}
	for _, as := range servers {
		if err := b.WaitSetAddActionServer(e.waitSet, as.Handle()); err != nil {
			return errors.Wrapf(err, "action server %s", as.Name())
		}
	}
	slots := make([]int, len(services))
	for i, s := range services {
		index, err := b.WaitSetAddService(e.waitSet, s.Handle())
		if err != nil {
			return errors.Wrapf(err, "service %s", s.Name())
		}
		slots[i] = index
	}
	subSlots := make([]int, len(subs))
	for i, s := range subs {
		index, err := b.WaitSetAddSubscription(e.waitSet, s.Handle())
		if err != nil {
			return errors.Wrapf(err, "subscription %s", s.Topic())
		}
		subSlots[i] = index
	}

	ready, err := b.Wait(e.waitSet, timeout)
	if err != nil || !ready {
		return err
	}

	for _, as := range servers {
		entities, err := b.ActionServerReadyEntities(as.Handle(), e.waitSet)
		if err != nil {
			return errors.Wrapf(err, "action server %s", as.Name())
		}
		if entities.Any() {
			if err := as.Execute(entities); err != nil {
				return err
			}
		}
	}
	for i, s := range services {
		isReady, err := b.WaitSetIsReady(e.waitSet, rcl.EntityService, slots[i])
		if err != nil {
			return err
		}
		if isReady {
			if err := s.Execute(); err != nil {
				return err
			}
		}
	}
	for i, s := range subs {
		isReady, err := b.WaitSetIsReady(e.waitSet, rcl.EntitySubscription, subSlots[i])
		if err != nil {
			return err
		}
		if isReady {
			if err := s.Execute(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Spin runs SpinOnce until ctx is done or a spin fails.
func (e *Executor) Spin(ctx context.Context, timeout time.Duration) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = e.Wake()
		case <-stop:
		}
	}()
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := e.SpinOnce(timeout); err != nil {
			return err
		}
	}
}

// Dispose finalizes the wait set and guard condition of the executor. The
// registered entities are left to their owners.
func (e *Executor) Dispose() error {
	b := e.node.bridge
	err := b.DisposeWaitSet(e.waitSet)
	if gcErr := b.DisposeGuardCondition(e.wake); err == nil {
		err = gcErr
	}
	e.waitSet, e.wake = 0, 0
	return err
}
