package ros

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

// ServiceCallback fills resp for req.
type ServiceCallback func(req, resp msgs.Serializable) error

// Service answers requests of one service type.
type Service struct {
	node        *Node
	name        string
	handle      bridge.Handle
	newRequest  func() msgs.Serializable
	newResponse func() msgs.Serializable
	callback    ServiceCallback
}

// NewService creates a service called name on node.
func NewService(node *Node, srvType rcl.TypeSupport, name string, newRequest, newResponse func() msgs.Serializable,
	callback ServiceCallback) (*Service, error) {
	handle, err := node.bridge.CreateService(node.node, srvType, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create service %s", name)
	}
	return &Service{
		node:        node,
		name:        name,
		handle:      handle,
		newRequest:  newRequest,
		newResponse: newResponse,
		callback:    callback,
	}, nil
}

// Name returns the service name.
func (s *Service) Name() string {
	return s.name
}

// Handle returns the bridge handle of the service.
func (s *Service) Handle() bridge.Handle {
	return s.handle
}

// Execute takes one pending request, if any, and sends the response.
func (s *Service) Execute() error {
	b := s.node.bridge
	req := s.newRequest()
	reqConv, err := s.node.converter(req)
	if err != nil {
		return err
	}
	id, err := b.TakeRequest(s.handle, reqConv, req)
	if err != nil {
		return errors.Wrapf(err, "service %s", s.name)
	}
	if id == nil {
		return nil
	}

	resp := s.newResponse()
	if err := s.callback(req, resp); err != nil {
		logger := *s.node.logger
		logger.WithFields(logrus.Fields{"service": s.name, "sequence_number": id.SequenceNumber}).
			Errorf("service callback failed: %v", err)
		return errors.Wrapf(err, "service %s callback", s.name)
	}
	respConv, err := s.node.converter(resp)
	if err != nil {
		return err
	}
	return errors.Wrapf(b.SendResponse(s.handle, id, respConv, resp), "service %s", s.name)
}

// Dispose finalizes the service. Calling it again is a no-op.
func (s *Service) Dispose() error {
	err := s.node.bridge.DisposeService(s.node.node, s.handle)
	s.handle = 0
	return err
}
