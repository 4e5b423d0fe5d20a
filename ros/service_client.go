package ros

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

// callPollInterval bounds each wait of a pending call so context
// cancellation is noticed.
const callPollInterval = 50 * time.Millisecond

// ServiceClient calls a service. Calls are serialized.
type ServiceClient struct {
	node    *Node
	service string
	mutex   sync.Mutex
	handle  bridge.Handle
	waitSet bridge.Handle
}

// NewServiceClient creates a client of the service called name.
func NewServiceClient(node *Node, srvType rcl.TypeSupport, name string) (*ServiceClient, error) {
	handle, err := node.bridge.CreateClient(node.node, srvType, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create client of %s", name)
	}
	return &ServiceClient{node: node, service: name, handle: handle, waitSet: node.bridge.NewWaitSet()}, nil
}

// Call sends req and blocks until the matching response is stored in resp or
// ctx is done. Responses to abandoned calls are discarded.
func (c *ServiceClient) Call(ctx context.Context, req, resp msgs.Serializable) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	logger := *c.node.logger
	b := c.node.bridge

	reqConv, err := c.node.converter(req)
	if err != nil {
		return err
	}
	respConv, err := c.node.converter(resp)
	if err != nil {
		return err
	}
	if err := c.resetWaitSet(); err != nil {
		return err
	}
	seq, err := b.SendRequest(c.handle, reqConv, req)
	if err != nil {
		return errors.Wrapf(err, "service %s", c.service)
	}
	logger.WithFields(logrus.Fields{"service": c.service, "sequence_number": seq}).Debug("request sent")

	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "call of %s abandoned", c.service)
		}
		timeout := callPollInterval
		if deadline, ok := ctx.Deadline(); ok {
			if left := time.Until(deadline); left < timeout {
				timeout = left
			}
		}
		if timeout < 0 {
			timeout = 0
		}
		if err := c.armWaitSet(); err != nil {
			return err
		}
		ready, err := b.Wait(c.waitSet, timeout)
		if err != nil {
			return errors.Wrapf(err, "service %s", c.service)
		}
		if !ready {
			continue
		}
		id, err := b.TakeResponse(c.handle, respConv, resp)
		if err != nil {
			return errors.Wrapf(err, "service %s", c.service)
		}
		if id != nil && id.SequenceNumber == seq {
			return nil
		}
		if id != nil {
			logger.WithFields(logrus.Fields{"service": c.service, "sequence_number": id.SequenceNumber}).
				Debug("discarding stale response")
		}
	}
}

// resetWaitSet rebuilds the wait set with room for the client only.
func (c *ServiceClient) resetWaitSet() error {
	b := c.node.bridge
	if err := b.DisposeWaitSet(c.waitSet); err != nil {
		return err
	}
	c.waitSet = b.NewWaitSet()
	return b.WaitSetInit(c.waitSet, c.node.context, rcl.WaitSetSizes{Clients: 1})
}

// armWaitSet puts the client back in its slot. A wait empties the slots of
// entities that were not ready.
func (c *ServiceClient) armWaitSet() error {
	b := c.node.bridge
	if err := b.WaitSetClear(c.waitSet); err != nil {
		return err
	}
	_, err := b.WaitSetAddClient(c.waitSet, c.handle)
	return err
}

// Dispose finalizes the client. Calling it again is a no-op.
func (c *ServiceClient) Dispose() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	b := c.node.bridge
	err := b.DisposeWaitSet(c.waitSet)
	if clientErr := b.DisposeClient(c.node.node, c.handle); err == nil {
		err = clientErr
	}
	c.waitSet, c.handle = 0, 0
	return err
}
