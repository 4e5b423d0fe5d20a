package ros

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

// MessageCallback receives one message taken from a subscription.
type MessageCallback func(msg msgs.Serializable)

// Subscription delivers messages of one topic to a callback.
type Subscription struct {
	node     *Node
	topic    string
	handle   bridge.Handle
	newMsg   func() msgs.Serializable
	callback MessageCallback
}

// NewSubscription subscribes node to topic.
func NewSubscription(node *Node, msgType rcl.TypeSupport, topic string, newMsg func() msgs.Serializable,
	callback MessageCallback) (*Subscription, error) {
	handle, err := node.bridge.CreateSubscription(node.node, msgType, topic)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to subscribe to %s", topic)
	}
	return &Subscription{node: node, topic: topic, handle: handle, newMsg: newMsg, callback: callback}, nil
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string {
	return s.topic
}

// Handle returns the bridge handle of the subscription.
func (s *Subscription) Handle() bridge.Handle {
	return s.handle
}

// Execute takes one message, if any, and hands it to the callback.
func (s *Subscription) Execute() error {
	msg := s.newMsg()
	conv, err := s.node.converter(msg)
	if err != nil {
		return err
	}
	ok, err := s.node.bridge.Take(s.handle, conv, msg)
	if err != nil {
		return errors.Wrapf(err, "subscription %s", s.topic)
	}
	if !ok {
		return nil
	}
	logger := *s.node.logger
	logger.WithFields(logrus.Fields{"topic": s.topic, "type": msg.TypeName()}).Debug("message received")
	s.callback(msg)
	return nil
}

// Dispose finalizes the subscription. Calling it again is a no-op.
func (s *Subscription) Dispose() error {
	err := s.node.bridge.DisposeSubscription(s.node.node, s.handle)
	s.handle = 0
	return err
}
