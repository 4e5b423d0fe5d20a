package bridge

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-rocos/rclbridge/rcl"
)

func testGUID() [rcl.GUIDSize]int8 {
	var guid [rcl.GUIDSize]int8
	for i := range guid {
		guid[i] = int8(i*17 - 128)
	}
	return guid
}

func TestRequestID_RoundTrip(t *testing.T) {
	native := &rcl.RequestID{SequenceNumber: 42, WriterGUID: testGUID()}

	managed := EncodeRequestID(native)
	require.Len(t, managed.WriterGUID, rcl.GUIDSize)
	assert.Equal(t, int64(42), managed.SequenceNumber)
	assert.Equal(t, byte(0x80), managed.WriterGUID[0])

	back, err := DecodeRequestID(managed)
	require.NoError(t, err)
	assert.Equal(t, *native, *back)
}

func TestRequestID_EncodeCopies(t *testing.T) {
	native := &rcl.RequestID{SequenceNumber: 7, WriterGUID: testGUID()}
	managed := EncodeRequestID(native)
	native.WriterGUID[0] = 1
	native.SequenceNumber = 8
	assert.Equal(t, int64(7), managed.SequenceNumber)
	assert.Equal(t, byte(0x80), managed.WriterGUID[0])
}

func TestDecodeRequestID_RejectsBadGUID(t *testing.T) {
	for _, n := range []int{0, 15, 17} {
		_, err := DecodeRequestID(&RMWRequestID{SequenceNumber: 1, WriterGUID: make([]byte, n)})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("guid of %d bytes: expected invalid argument, got %v", n, err)
		}
	}
	_, err := DecodeRequestID(nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestRequestID_Equal(t *testing.T) {
	a := EncodeRequestID(&rcl.RequestID{SequenceNumber: 3, WriterGUID: testGUID()})
	b := EncodeRequestID(&rcl.RequestID{SequenceNumber: 3, WriterGUID: testGUID()})
	assert.True(t, a.Equal(b))
	b.WriterGUID[15] ^= 1
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}

func TestRequestID_JSON(t *testing.T) {
	id := &RMWRequestID{SequenceNumber: -5, WriterGUID: []byte{0, 1, 255}}
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sequence_number":-5,"writer_guid":[0,1,255]}`, string(data))

	var back RMWRequestID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, id.Equal(&back))
}

func TestRequestID_UnmarshalJSONErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing sequence number", `{"writer_guid":[1,2]}`},
		{"sequence number not a number", `{"sequence_number":"1","writer_guid":[]}`},
		{"guid not an array", `{"sequence_number":1,"writer_guid":"abc"}`},
		{"guid element too large", `{"sequence_number":1,"writer_guid":[256]}`},
		{"guid element negative", `{"sequence_number":1,"writer_guid":[-1]}`},
		{"not an object", `[1,2,3]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var id RMWRequestID
			assert.Error(t, id.UnmarshalJSON([]byte(tc.data)))
		})
	}
}
