package ros

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/fake"
	"github.com/team-rocos/rclbridge/msgs"
)

func newAddTwoIntsService(t *testing.T, node *Node, fail bool) *Service {
	t.Helper()
	s, err := NewService(node, msgs.AddTwoIntsService, "add_two_ints",
		func() msgs.Serializable { return &msgs.AddTwoIntsRequest{} },
		func() msgs.Serializable { return &msgs.AddTwoIntsResponse{} },
		func(req, resp msgs.Serializable) error {
			if fail {
				return errors.New("refused")
			}
			r := req.(*msgs.AddTwoIntsRequest)
			resp.(*msgs.AddTwoIntsResponse).Sum = r.A + r.B
			return nil
		})
	require.NoError(t, err)
	return s
}

func TestService_Execute(t *testing.T) {
	lib := fake.New()
	b := bridge.New(lib)
	node, err := NewNode(b, "service_node", "/")
	require.NoError(t, err)
	service := newAddTwoIntsService(t, node, false)
	executor, err := NewExecutor(node)
	require.NoError(t, err)
	executor.AddService(service)

	client, err := b.CreateClient(node.node, msgs.AddTwoIntsService, "add_two_ints")
	require.NoError(t, err)
	reqConv, err := node.Converters().For(&msgs.AddTwoIntsRequest{})
	require.NoError(t, err)
	respConv, err := node.Converters().For(&msgs.AddTwoIntsResponse{})
	require.NoError(t, err)

	seq, err := b.SendRequest(client, reqConv, &msgs.AddTwoIntsRequest{A: 40, B: 2})
	require.NoError(t, err)
	require.NoError(t, executor.SpinOnce(time.Second))

	var resp msgs.AddTwoIntsResponse
	id, err := b.TakeResponse(client, respConv, &resp)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, seq, id.SequenceNumber)
	assert.Equal(t, int64(42), resp.Sum)

	require.NoError(t, b.DisposeClient(node.node, client))
	require.NoError(t, executor.Dispose())
	require.NoError(t, service.Dispose())
	require.NoError(t, service.Dispose())
	require.NoError(t, node.Dispose())
	assert.Equal(t, 0, lib.LiveObjects())
}

func TestService_CallbackError(t *testing.T) {
	lib := fake.New()
	b := bridge.New(lib)
	node, err := NewNode(b, "service_node", "/")
	require.NoError(t, err)
	service := newAddTwoIntsService(t, node, true)

	client, err := b.CreateClient(node.node, msgs.AddTwoIntsService, "add_two_ints")
	require.NoError(t, err)
	reqConv, err := node.Converters().For(&msgs.AddTwoIntsRequest{})
	require.NoError(t, err)
	_, err = b.SendRequest(client, reqConv, &msgs.AddTwoIntsRequest{A: 1, B: 2})
	require.NoError(t, err)

	err = service.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	require.NoError(t, service.Execute(), "empty queue is not an error")
}

func TestNode_InvalidName(t *testing.T) {
	lib := fake.New()
	_, err := NewNode(bridge.New(lib), "bad name", "/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create node bad name")
	assert.Equal(t, 0, lib.LiveObjects())
}
