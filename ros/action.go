package ros

import (
	"time"

	"github.com/team-rocos/rclbridge/rcl"
)

// ActionServerOption configures an action server.
type ActionServerOption func(*actionServerOptions)

type actionServerOptions struct {
	native rcl.ActionServerOptions
	now    func() time.Time
}

// WithResultTimeout sets how long results of finished goals are kept.
func WithResultTimeout(d time.Duration) ActionServerOption {
	return func(o *actionServerOptions) {
		o.native.ResultTimeout = d
	}
}

// WithNow sets the time source used to stamp accepted goals.
func WithNow(now func() time.Time) ActionServerOption {
	return func(o *actionServerOptions) {
		o.now = now
	}
}
