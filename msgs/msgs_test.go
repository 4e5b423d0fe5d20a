package msgs

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/wire"
)

func TestUUIDStringAndParse(t *testing.T) {
	u := UUID{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef, 0, 1, 2, 3, 4, 5, 6, 7}
	s := u.String()
	assert.Equal(t, "01234567-89ab-cdef-0001-020304050607", s)

	parsed, err := ParseUUID(s)
	require.NoError(t, err)
	assert.Equal(t, u, parsed)

	parsed, err = ParseUUID("0123456789abcdef0001020304050607")
	require.NoError(t, err)
	assert.Equal(t, u, parsed)

	_, err = ParseUUID("0123")
	assert.Error(t, err)
	_, err = ParseUUID("zz23456789abcdef0001020304050607")
	assert.Error(t, err)
}

func TestUUIDUnmarshalJSON(t *testing.T) {
	var ids []UUID
	input := `["01234567-89ab-cdef-0001-020304050607", [1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16]]`
	require.NoError(t, json.Unmarshal([]byte(input), &ids))
	require.Len(t, ids, 2)
	assert.Equal(t, uint8(0x01), ids[0][0])
	assert.Equal(t, UUID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, ids[1])

	bad := []string{
		`[1,2,3]`,
		`[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17]`,
		`[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,256]`,
		`["a",2,3,4,5,6,7,8,9,10,11,12,13,14,15,16]`,
		`"not-a-uuid"`,
		`42`,
	}
	for _, in := range bad {
		var u UUID
		assert.Error(t, json.Unmarshal([]byte(in), &u), in)
	}
}

func TestTimeOrdering(t *testing.T) {
	a := Time{Sec: 1, Nanosec: 5}
	b := Time{Sec: 1, Nanosec: 6}
	c := Time{Sec: 2}
	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.False(t, c.Before(a))
	assert.False(t, a.Before(a))
	assert.True(t, Time{}.IsZero())

	now := time.Unix(1700000000, 42)
	assert.Equal(t, Time{Sec: 1700000000, Nanosec: 42}, NewTime(now))
}

func TestFibonacci(t *testing.T) {
	assert.Equal(t, []int32{0}, Fibonacci(0))
	assert.Equal(t, []int32{0}, Fibonacci(-3))
	assert.Equal(t, []int32{0, 1, 1, 2, 3, 5}, Fibonacci(5))
}

func TestConverterRoundTrip(t *testing.T) {
	in := &CancelGoalResponse{
		ReturnCode: CancelErrorNone,
		GoalsCanceling: []GoalInfo{
			{GoalID: UUID{1}, Stamp: Time{Sec: 3}},
			{GoalID: UUID{2}, Stamp: Time{Sec: 4, Nanosec: 9}},
		},
	}
	conv := ConverterFor(in)
	buf, err := conv.FromManaged(in)
	require.NoError(t, err)
	defer conv.Destroy(buf)

	out := &CancelGoalResponse{}
	require.NoError(t, conv.ToManaged(buf, out))
	assert.Equal(t, in, out)
}

func TestConverterRejectsMismatch(t *testing.T) {
	conv := NewConverter("test_msgs/action/Fibonacci_SendGoal_Request")
	_, err := conv.FromManaged(&String{Data: "x"})
	assert.Error(t, err)

	buf := wire.NewMessage("std_msgs/msg/String", nil)
	assert.Error(t, conv.ToManaged(buf, &FibonacciSendGoalRequest{}))
	assert.Error(t, conv.ToManaged("not a buffer", &FibonacciSendGoalRequest{}))

	conv.Destroy(buf)
	assert.True(t, buf.Freed())
}

func TestConverterDoubleDestroyPanics(t *testing.T) {
	conv := ConverterFor(&String{})
	buf, err := conv.FromManaged(&String{Data: "x"})
	require.NoError(t, err)
	conv.Destroy(buf)
	assert.PanicsWithError(t, "std_msgs/msg/String: double free of std_msgs/msg/String buffer", func() {
		conv.Destroy(buf)
	})
}

func TestCancelResponseLengthGuard(t *testing.T) {
	var buf bytes.Buffer
	enc.EncodeInt8(&buf, CancelErrorNone)
	enc.EncodeUint32(&buf, 1000)
	var resp CancelGoalResponse
	assert.Error(t, resp.Deserialize(bytes.NewReader(buf.Bytes())))
}

func TestSetResult(t *testing.T) {
	var resp FibonacciGetResultResponse
	require.NoError(t, resp.SetResult(FibonacciResult{Sequence: []int32{0, 1}}))
	require.NoError(t, resp.SetResult(&FibonacciResult{Sequence: []int32{0}}))
	assert.Equal(t, []int32{0}, resp.Result.Sequence)
	assert.Error(t, resp.SetResult((*FibonacciResult)(nil)))
	assert.Error(t, resp.SetResult("sequence"))
}

func TestRegister(t *testing.T) {
	r := bridge.NewConverterRegistry()
	require.NoError(t, Register(r))
	conv, err := r.For(&AddTwoIntsRequest{})
	require.NoError(t, err)
	assert.Equal(t, (&AddTwoIntsRequest{}).TypeName(), conv.TypeName())
	assert.Error(t, Register(r), "registering twice must fail")
}
