package ros

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/fake"
	"github.com/team-rocos/rclbridge/msgs"
)

// unregisteredMessage has no converter in the node registry.
type unregisteredMessage struct{}

func (unregisteredMessage) TypeName() string                { return "test_msgs/msg/Unregistered" }
func (unregisteredMessage) Serialize(*bytes.Buffer)         {}
func (unregisteredMessage) Deserialize(*bytes.Reader) error { return nil }

func publishString(lib *fake.Library, topic, data string) int {
	var buf bytes.Buffer
	(&msgs.String{Data: data}).Serialize(&buf)
	return lib.Publish(topic, buf.Bytes())
}

func TestSubscription_Execute(t *testing.T) {
	lib := fake.New()
	node, err := NewNode(bridge.New(lib), "listener", "/")
	require.NoError(t, err)

	var received []string
	sub, err := NewSubscription(node, msgs.TypeSupport("std_msgs/msg/String"), "chatter",
		func() msgs.Serializable { return &msgs.String{} },
		func(msg msgs.Serializable) { received = append(received, msg.(*msgs.String).Data) })
	require.NoError(t, err)
	assert.Equal(t, "chatter", sub.Topic())

	executor, err := NewExecutor(node)
	require.NoError(t, err)
	executor.AddSubscription(sub)

	require.NoError(t, executor.SpinOnce(0))
	assert.Empty(t, received)

	assert.Equal(t, 1, publishString(lib, "chatter", "hello"))
	assert.Equal(t, 0, publishString(lib, "other", "ignored"))
	assert.Equal(t, 1, publishString(lib, "chatter", "world"))
	require.NoError(t, executor.SpinOnce(time.Second))
	require.NoError(t, executor.SpinOnce(time.Second))
	assert.Equal(t, []string{"hello", "world"}, received)

	require.NoError(t, sub.Execute(), "take on an empty subscription is not an error")

	require.NoError(t, executor.Dispose())
	require.NoError(t, sub.Dispose())
	require.NoError(t, sub.Dispose())
	require.NoError(t, node.Dispose())
	assert.Equal(t, 0, lib.LiveObjects())
}

func TestSubscription_InvalidTopic(t *testing.T) {
	lib := fake.New()
	node, err := NewNode(bridge.New(lib), "listener", "/")
	require.NoError(t, err)
	defer node.Dispose()

	_, err = NewSubscription(node, msgs.TypeSupport("std_msgs/msg/String"), "bad topic!",
		func() msgs.Serializable { return &msgs.String{} }, func(msgs.Serializable) {})
	assert.Error(t, err)
}
