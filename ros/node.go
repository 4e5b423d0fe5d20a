package ros

import (
	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
)

// Node owns a native context, node and steady clock, and the converters used
// by every entity created on it.
type Node struct {
	name       string
	bridge     *bridge.Bridge
	converters *bridge.ConverterRegistry
	context    bridge.Handle
	node       bridge.Handle
	clock      bridge.Handle
	logger     *modular.ModuleLogger
}

// NewNode initializes a context and a node named name in namespace.
func NewNode(b *bridge.Bridge, name, namespace string) (*Node, error) {
	converters := bridge.NewConverterRegistry()
	if err := msgs.Register(converters); err != nil {
		return nil, errors.Wrap(err, "failed to register message converters")
	}
	n := &Node{
		name:       name,
		bridge:     b,
		converters: converters,
		logger:     b.Logger(),
	}

	var err error
	if n.context, err = b.CreateContext(); err != nil {
		return nil, errors.Wrap(err, "failed to create context")
	}
	if n.node, err = b.CreateNode(n.context, name, namespace); err != nil {
		n.Dispose()
		return nil, errors.Wrapf(err, "failed to create node %s", name)
	}
	if n.clock, err = b.CreateClock(rcl.ClockSteadyTime); err != nil {
		n.Dispose()
		return nil, errors.Wrap(err, "failed to create clock")
	}

	logger := *n.logger
	logger.WithFields(logrus.Fields{"node": name, "namespace": namespace}).Debug("node created")
	return n, nil
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// Bridge returns the bridge the node was created on.
func (n *Node) Bridge() *bridge.Bridge {
	return n.bridge
}

// Converters returns the converter registry of the node.
func (n *Node) Converters() *bridge.ConverterRegistry {
	return n.converters
}

// Logger returns the node logger.
func (n *Node) Logger() *modular.ModuleLogger {
	return n.logger
}

func (n *Node) converter(msg msgs.Serializable) (bridge.Converter, error) {
	return n.converters.For(msg)
}

// Dispose finalizes the clock, node and context. Entities created on the node
// must be disposed first.
func (n *Node) Dispose() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(n.bridge.DisposeClock(n.clock))
	keep(n.bridge.DisposeNode(n.node))
	keep(n.bridge.DisposeContext(n.context))
	n.clock, n.node, n.context = 0, 0, 0
	return firstErr
}
