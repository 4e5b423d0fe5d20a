// Package bridge is the boundary between Go callers and the native ROS 2
// client library.
//
// Native resources are handed out as typed Handles. Messages cross the
// boundary through per-type Converters, and every native buffer a call
// acquires is destroyed before that call returns. Request identifiers are
// copied field by field in both directions.
//
// The bridge adds no locking around native resources: a resource must be
// used from one goroutine at a time, and wait-then-take sequences have to be
// serialized by the caller. Only the handle table is safe for concurrent use.
package bridge

import (
	modular "github.com/edwinhayes/logrus-modular"
	"github.com/sirupsen/logrus"

	"github.com/team-rocos/rclbridge/rcl"
)

// Bridge translates handle-based calls into native library calls.
type Bridge struct {
	lib     rcl.Library
	handles *registry
	logger  *modular.ModuleLogger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for call tracing and failures.
func WithLogger(log *modular.ModuleLogger) Option {
	return func(b *Bridge) {
		b.logger = log
	}
}

// New returns a bridge over lib.
func New(lib rcl.Library, opts ...Option) *Bridge {
	b := &Bridge{
		lib:     lib,
		handles: newRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		rootLogger := modular.NewRootLogger(logrus.New())
		logger := rootLogger.GetModuleLogger()
		logger.SetLevel(logrus.InfoLevel)
		b.logger = &logger
	}
	return b
}

// Library returns the native library the bridge calls into.
func (b *Bridge) Library() rcl.Library {
	return b.lib
}

// Logger returns the bridge logger.
func (b *Bridge) Logger() *modular.ModuleLogger {
	return b.logger
}

// LiveHandles returns the number of handles not yet disposed.
func (b *Bridge) LiveHandles() int {
	return b.handles.len()
}

// Pointer returns the native object behind h. It is meant for Library
// extensions that need to reach objects created through the bridge.
func (b *Bridge) Pointer(h Handle, kind Kind) (rcl.Pointer, error) {
	return b.handles.lookup(h, kind)
}

func (b *Bridge) trace(op string, h Handle) {
	logger := *b.logger
	logger.WithFields(logrus.Fields{"op": op, "handle": h.String()}).Debug("native call")
}

// fail logs and builds the error for a failed native call.
func (b *Bridge) fail(err error, prefix string) error {
	e := nativeError(err, prefix)
	logger := *b.logger
	logger.WithFields(logrus.Fields{"code": e.Code().String()}).Error(e.Message())
	return e
}

// dispose runs fini for a handle of the given kind. Zero and already
// released handles are no-ops.
func (b *Bridge) dispose(h Handle, kind Kind, what string, fini func(p rcl.Pointer) error) error {
	if h.IsZero() {
		return nil
	}
	if h.Kind() == kind && b.handles.state(h) == handleReleased {
		b.trace("dispose "+what+" (already disposed)", h)
		return nil
	}
	p, err := b.handles.lookup(h, kind)
	if err != nil {
		return err
	}
	b.trace("dispose "+what, h)
	// The handle is invalid after fini whatever the outcome.
	b.handles.release(h)
	if err := fini(p); err != nil {
		return b.fail(err, "Failed to destroy "+what)
	}
	return nil
}
