// Package fake is an in-memory rcl.Library. It keeps native objects as Go
// values, routes service and action traffic between entities of the same
// library, and lets tests inject native failures.
package fake

import (
	"regexp"
	"sync"
	"time"

	"github.com/team-rocos/rclbridge/rcl"
	"github.com/team-rocos/rclbridge/wire"
)

// Library implements rcl.Library in process memory. It is safe for
// concurrent use; Wait releases the lock while it blocks.
type Library struct {
	mu       sync.Mutex
	changed  chan struct{}
	failures map[string]*rcl.Error
	now      func() time.Time
	nextGUID int8
	live     int

	services      map[string][]*Service
	clients       map[[rcl.GUIDSize]int8]*Client
	subscriptions map[string][]*Subscription
	actionServers map[string]*ActionServer
	actionClients map[[rcl.GUIDSize]int8]*ActionClient
}

var _ rcl.Library = (*Library)(nil)

// Option configures a Library.
type Option func(*Library)

// WithClock makes the library read time from now.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		l.now = now
	}
}

// New returns an empty library.
func New(opts ...Option) *Library {
	l := &Library{
		changed:       make(chan struct{}),
		failures:      make(map[string]*rcl.Error),
		now:           time.Now,
		services:      make(map[string][]*Service),
		clients:       make(map[[rcl.GUIDSize]int8]*Client),
		subscriptions: make(map[string][]*Subscription),
		actionServers: make(map[string]*ActionServer),
		actionClients: make(map[[rcl.GUIDSize]int8]*ActionClient),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FailNext makes the next call of the named Library method fail with code
// and text. Names are the method names of rcl.Library, e.g.
// "ActionTakeGoalRequest".
func (l *Library) FailNext(method string, code rcl.RetCode, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[method] = rcl.Errorf(code, "%s", text)
}

// LiveObjects returns the number of initialized, not yet finalized objects.
func (l *Library) LiveObjects() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// injected returns and clears a failure registered with FailNext. Must be
// called with l.mu held.
func (l *Library) injected(method string) error {
	if err, ok := l.failures[method]; ok {
		delete(l.failures, method)
		return err
	}
	return nil
}

// notify wakes every blocked Wait. Must be called with l.mu held.
func (l *Library) notify() {
	close(l.changed)
	l.changed = make(chan struct{})
}

// newGUID hands out writer GUIDs for request routing. Must be called with
// l.mu held.
func (l *Library) newGUID() [rcl.GUIDSize]int8 {
	l.nextGUID++
	var guid [rcl.GUIDSize]int8
	for i := range guid {
		guid[i] = l.nextGUID
	}
	return guid
}

func wireBuffer(buf rcl.Buffer) (*wire.Message, error) {
	m, ok := buf.(*wire.Message)
	if !ok || m == nil {
		return nil, rcl.Errorf(rcl.RetInvalidArgument, "buffer %T is not a wire message", buf)
	}
	if m.Freed() {
		return nil, rcl.Errorf(rcl.RetInvalidArgument, "buffer of %s already freed", m.TypeName())
	}
	return m, nil
}

var nameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var topicRE = regexp.MustCompile(`^~?/?[A-Za-z_][A-Za-z0-9_]*(/[A-Za-z_][A-Za-z0-9_]*)*$`)

// request is a pending request or response together with its header.
type request struct {
	id   rcl.RequestID
	data []byte
}
