package msgs

import (
	"bytes"

	"github.com/pkg/errors"
)

// FibonacciAction is the type support of test_msgs/action/Fibonacci.
var FibonacciAction ActionType = fibonacciAction{}

type fibonacciAction struct{}

func (fibonacciAction) TypeName() string { return "test_msgs/action/Fibonacci" }

func (fibonacciAction) NewGoalRequest() GoalRequest { return &FibonacciSendGoalRequest{} }

func (fibonacciAction) NewGoalResponse() GoalResponse { return &FibonacciSendGoalResponse{} }

func (fibonacciAction) NewResultRequest() ResultRequest { return &FibonacciGetResultRequest{} }

func (fibonacciAction) NewResultResponse() ResultResponse { return &FibonacciGetResultResponse{} }

// FibonacciGoal is test_msgs/action/Fibonacci_Goal.
type FibonacciGoal struct {
	Order int32
}

// FibonacciResult is test_msgs/action/Fibonacci_Result.
type FibonacciResult struct {
	Sequence []int32
}

// FibonacciFeedback is test_msgs/action/Fibonacci_Feedback.
type FibonacciFeedback struct {
	Sequence []int32
}

func (f *FibonacciFeedback) TypeName() string { return "test_msgs/action/Fibonacci_Feedback" }

func (f *FibonacciFeedback) Serialize(buf *bytes.Buffer) {
	encodeSequence(buf, f.Sequence)
}

func (f *FibonacciFeedback) Deserialize(buf *bytes.Reader) error {
	var err error
	f.Sequence, err = decodeSequence(buf)
	return err
}

// FibonacciSendGoalRequest is test_msgs/action/Fibonacci_SendGoal_Request.
type FibonacciSendGoalRequest struct {
	GoalID UUID
	Goal   FibonacciGoal
}

func (r *FibonacciSendGoalRequest) TypeName() string {
	return "test_msgs/action/Fibonacci_SendGoal_Request"
}

func (r *FibonacciSendGoalRequest) GetGoalID() UUID { return r.GoalID }

func (r *FibonacciSendGoalRequest) SetGoalID(id UUID) { r.GoalID = id }

func (r *FibonacciSendGoalRequest) GetGoal() interface{} { return r.Goal }

func (r *FibonacciSendGoalRequest) Serialize(buf *bytes.Buffer) {
	r.GoalID.Serialize(buf)
	enc.EncodeInt32(buf, r.Goal.Order)
}

func (r *FibonacciSendGoalRequest) Deserialize(buf *bytes.Reader) error {
	if err := r.GoalID.Deserialize(buf); err != nil {
		return err
	}
	var err error
	r.Goal.Order, err = dec.DecodeInt32(buf)
	return err
}

// FibonacciSendGoalResponse is test_msgs/action/Fibonacci_SendGoal_Response.
type FibonacciSendGoalResponse struct {
	Accepted bool
	Stamp    Time
}

func (r *FibonacciSendGoalResponse) TypeName() string {
	return "test_msgs/action/Fibonacci_SendGoal_Response"
}

func (r *FibonacciSendGoalResponse) IsAccepted() bool { return r.Accepted }

func (r *FibonacciSendGoalResponse) SetAccepted(accepted bool) { r.Accepted = accepted }

func (r *FibonacciSendGoalResponse) SetStamp(stamp Time) { r.Stamp = stamp }

func (r *FibonacciSendGoalResponse) Serialize(buf *bytes.Buffer) {
	enc.EncodeBool(buf, r.Accepted)
	r.Stamp.Serialize(buf)
}

func (r *FibonacciSendGoalResponse) Deserialize(buf *bytes.Reader) error {
	var err error
	if r.Accepted, err = dec.DecodeBool(buf); err != nil {
		return err
	}
	return r.Stamp.Deserialize(buf)
}

// FibonacciGetResultRequest is test_msgs/action/Fibonacci_GetResult_Request.
type FibonacciGetResultRequest struct {
	GoalID UUID
}

func (r *FibonacciGetResultRequest) TypeName() string {
	return "test_msgs/action/Fibonacci_GetResult_Request"
}

func (r *FibonacciGetResultRequest) GetGoalID() UUID { return r.GoalID }

func (r *FibonacciGetResultRequest) SetGoalID(id UUID) { r.GoalID = id }

func (r *FibonacciGetResultRequest) Serialize(buf *bytes.Buffer) {
	r.GoalID.Serialize(buf)
}

func (r *FibonacciGetResultRequest) Deserialize(buf *bytes.Reader) error {
	return r.GoalID.Deserialize(buf)
}

// FibonacciGetResultResponse is test_msgs/action/Fibonacci_GetResult_Response.
type FibonacciGetResultResponse struct {
	Status int8
	Result FibonacciResult
}

func (r *FibonacciGetResultResponse) TypeName() string {
	return "test_msgs/action/Fibonacci_GetResult_Response"
}

func (r *FibonacciGetResultResponse) GetStatus() int8 { return r.Status }

func (r *FibonacciGetResultResponse) SetStatus(status int8) { r.Status = status }

func (r *FibonacciGetResultResponse) GetResult() interface{} { return r.Result }

// SetResult accepts a FibonacciResult or a pointer to one.
func (r *FibonacciGetResultResponse) SetResult(result interface{}) error {
	switch v := result.(type) {
	case FibonacciResult:
		r.Result = v
	case *FibonacciResult:
		if v == nil {
			return errors.New("nil Fibonacci result")
		}
		r.Result = *v
	default:
		return errors.Errorf("%T is not a Fibonacci result", result)
	}
	return nil
}

func (r *FibonacciGetResultResponse) Serialize(buf *bytes.Buffer) {
	enc.EncodeInt8(buf, r.Status)
	encodeSequence(buf, r.Result.Sequence)
}

func (r *FibonacciGetResultResponse) Deserialize(buf *bytes.Reader) error {
	var err error
	if r.Status, err = dec.DecodeInt8(buf); err != nil {
		return err
	}
	r.Result.Sequence, err = decodeSequence(buf)
	return err
}

// Fibonacci returns the first order+1 Fibonacci numbers.
func Fibonacci(order int32) []int32 {
	seq := []int32{0, 1}
	for i := int32(1); i < order; i++ {
		seq = append(seq, seq[i]+seq[i-1])
	}
	if order < 1 {
		return seq[:1]
	}
	return seq
}

func encodeSequence(buf *bytes.Buffer, v []int32) {
	enc.EncodeUint32(buf, uint32(len(v)))
	enc.EncodeInt32Array(buf, v)
}

func decodeSequence(buf *bytes.Reader) ([]int32, error) {
	n, err := dec.DecodeUint32(buf)
	if err != nil {
		return nil, err
	}
	if int(n)*4 > buf.Len() {
		return nil, errors.Errorf("sequence length %d exceeds buffer", n)
	}
	return dec.DecodeInt32Array(buf, int(n))
}
