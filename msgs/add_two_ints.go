package msgs

import (
	"bytes"
)

// AddTwoIntsService is the type support of example_interfaces/srv/AddTwoInts.
const AddTwoIntsService = TypeSupport("example_interfaces/srv/AddTwoInts")

// AddTwoIntsRequest is example_interfaces/srv/AddTwoInts_Request.
type AddTwoIntsRequest struct {
	A int64
	B int64
}

func (r *AddTwoIntsRequest) TypeName() string { return "example_interfaces/srv/AddTwoInts_Request" }

func (r *AddTwoIntsRequest) Serialize(buf *bytes.Buffer) {
	enc.EncodeInt64(buf, r.A)
	enc.EncodeInt64(buf, r.B)
}

func (r *AddTwoIntsRequest) Deserialize(buf *bytes.Reader) error {
	var err error
	if r.A, err = dec.DecodeInt64(buf); err != nil {
		return err
	}
	r.B, err = dec.DecodeInt64(buf)
	return err
}

// AddTwoIntsResponse is example_interfaces/srv/AddTwoInts_Response.
type AddTwoIntsResponse struct {
	Sum int64
}

func (r *AddTwoIntsResponse) TypeName() string { return "example_interfaces/srv/AddTwoInts_Response" }

func (r *AddTwoIntsResponse) Serialize(buf *bytes.Buffer) {
	enc.EncodeInt64(buf, r.Sum)
}

func (r *AddTwoIntsResponse) Deserialize(buf *bytes.Reader) error {
	var err error
	r.Sum, err = dec.DecodeInt64(buf)
	return err
}
