package bridge

import (
	"fmt"
	"sync"

	"github.com/team-rocos/rclbridge/rcl"
)

// Kind tags a Handle with the type of native resource it refers to.
type Kind uint8

const (
	KindNone Kind = iota
	KindContext
	KindNode
	KindClock
	KindService
	KindClient
	KindSubscription
	KindTimer
	KindGuardCondition
	KindWaitSet
	KindActionServer
	KindGoalHandle
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindContext:
		return "context"
	case KindNode:
		return "node"
	case KindClock:
		return "clock"
	case KindService:
		return "service"
	case KindClient:
		return "client"
	case KindSubscription:
		return "subscription"
	case KindTimer:
		return "timer"
	case KindGuardCondition:
		return "guard condition"
	case KindWaitSet:
		return "wait set"
	case KindActionServer:
		return "action server"
	case KindGoalHandle:
		return "goal handle"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

const (
	kindShift = 56
	idMask    = 1<<kindShift - 1
)

// Handle is the fixed-width token callers hold for a native resource. The
// top byte carries the resource Kind and the rest a registry id. The zero
// Handle refers to nothing.
type Handle uint64

func newHandle(kind Kind, id uint64) Handle {
	return Handle(uint64(kind)<<kindShift | id&idMask)
}

// Kind returns the resource kind h was issued for.
func (h Handle) Kind() Kind {
	return Kind(uint64(h) >> kindShift)
}

// IsZero reports whether h is the absent handle.
func (h Handle) IsZero() bool {
	return h == 0
}

func (h Handle) id() uint64 {
	return uint64(h) & idMask
}

func (h Handle) String() string {
	if h.IsZero() {
		return "handle(0)"
	}
	return fmt.Sprintf("%s#%d", h.Kind(), h.id())
}

type handleState int

const (
	handleUnknown handleState = iota
	handleLive
	handleReleased
)

// registry boxes native pointers into handles. Ids are never reused, which
// lets a released handle be told apart from one that was never issued.
type registry struct {
	mu      sync.RWMutex
	objects map[Handle]rcl.Pointer
	nextID  uint64
}

func newRegistry() *registry {
	return &registry{
		objects: make(map[Handle]rcl.Pointer),
		nextID:  1,
	}
}

func (r *registry) register(kind Kind, p rcl.Pointer) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := newHandle(kind, r.nextID)
	r.nextID++
	r.objects[h] = p
	return h
}

func (r *registry) state(h Handle) handleState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.objects[h]; ok {
		return handleLive
	}
	if h.id() != 0 && h.id() < r.nextID {
		return handleReleased
	}
	return handleUnknown
}

func (r *registry) lookup(h Handle, kind Kind) (rcl.Pointer, error) {
	if h.IsZero() {
		return nil, newError(rcl.RetInvalidArgument, "%s handle is zero", kind)
	}
	if h.Kind() != kind {
		return nil, newError(rcl.RetInvalidArgument, "%s passed where a %s handle is required", h, kind)
	}
	r.mu.RLock()
	p, ok := r.objects[h]
	r.mu.RUnlock()
	if !ok {
		return nil, newError(rcl.RetInvalidArgument, "%s is not a live handle", h)
	}
	return p, nil
}

func (r *registry) release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, h)
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}
