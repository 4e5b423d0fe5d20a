package bridge

import (
	"bytes"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"

	"github.com/team-rocos/rclbridge/rcl"
)

// RMWRequestID is the caller-side form of a request identifier. It links a
// response to the request it answers.
type RMWRequestID struct {
	SequenceNumber int64
	WriterGUID     []byte
}

// Equal reports whether both fields match byte for byte.
func (r *RMWRequestID) Equal(o *RMWRequestID) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.SequenceNumber == o.SequenceNumber && bytes.Equal(r.WriterGUID, o.WriterGUID)
}

// EncodeRequestID copies a native request id into a new RMWRequestID.
func EncodeRequestID(id *rcl.RequestID) *RMWRequestID {
	guid := make([]byte, rcl.GUIDSize)
	for i, b := range id.WriterGUID {
		guid[i] = byte(b)
	}
	return &RMWRequestID{
		SequenceNumber: id.SequenceNumber,
		WriterGUID:     guid,
	}
}

// DecodeRequestID builds a native request id from r. The writer GUID must be
// exactly rcl.GUIDSize bytes long.
func DecodeRequestID(r *RMWRequestID) (*rcl.RequestID, error) {
	if r == nil {
		return nil, newError(rcl.RetInvalidArgument, "request id is nil")
	}
	if len(r.WriterGUID) != rcl.GUIDSize {
		return nil, newError(rcl.RetInvalidArgument,
			"request id writer GUID has %d bytes, want %d", len(r.WriterGUID), rcl.GUIDSize)
	}
	id := &rcl.RequestID{SequenceNumber: r.SequenceNumber}
	for i, b := range r.WriterGUID {
		id.WriterGUID[i] = int8(b)
	}
	return id, nil
}

// MarshalJSON writes {"sequence_number":N,"writer_guid":[b0,...]}.
func (r *RMWRequestID) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"sequence_number":`)
	buf.WriteString(strconv.FormatInt(r.SequenceNumber, 10))
	buf.WriteString(`,"writer_guid":[`)
	for i, b := range r.WriterGUID {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(b)))
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *RMWRequestID) UnmarshalJSON(data []byte) error {
	var seq int64
	var guid []byte
	var seen bool
	err := jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		switch string(key) {
		case "sequence_number":
			if dataType != jsonparser.Number {
				return errors.New("sequence_number is not a number")
			}
			n, err := jsonparser.ParseInt(value)
			if err != nil {
				return errors.Wrap(err, "sequence_number")
			}
			seq = n
			seen = true
		case "writer_guid":
			if dataType != jsonparser.Array {
				return errors.New("writer_guid is not an array")
			}
			var inner error
			_, err := jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
				if inner != nil {
					return
				}
				n, err := jsonparser.ParseInt(v)
				if err != nil || t != jsonparser.Number || n < 0 || n > 255 {
					inner = errors.Errorf("writer_guid element %q is not a byte", v)
					return
				}
				guid = append(guid, byte(n))
			})
			if err != nil {
				return errors.Wrap(err, "writer_guid")
			}
			if inner != nil {
				return inner
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !seen {
		return errors.New("request id is missing sequence_number")
	}
	r.SequenceNumber = seq
	r.WriterGUID = guid
	return nil
}
