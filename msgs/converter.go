// Package msgs holds the message types the bridge ships with and their
// converters to and from serialized native buffers.
package msgs

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/rcl"
	"github.com/team-rocos/rclbridge/wire"
)

var (
	enc = wire.LEByteEncoder{}
	dec = wire.LEByteDecoder{}
)

// Serializable is implemented by every message in this package.
type Serializable interface {
	TypeName() string
	Serialize(buf *bytes.Buffer)
	Deserialize(buf *bytes.Reader) error
}

// Converter moves a Serializable message to and from a *wire.Message.
type Converter struct {
	typeName string
}

var _ bridge.Converter = Converter{}

// NewConverter returns the converter for typeName.
func NewConverter(typeName string) Converter {
	return Converter{typeName: typeName}
}

func (c Converter) TypeName() string {
	return c.typeName
}

func (c Converter) FromManaged(msg bridge.Message) (rcl.Buffer, error) {
	s, err := c.serializable(msg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	s.Serialize(&buf)
	return wire.NewMessage(c.typeName, buf.Bytes()), nil
}

func (c Converter) ToManaged(buf rcl.Buffer, msg bridge.Message) error {
	s, err := c.serializable(msg)
	if err != nil {
		return err
	}
	m, ok := buf.(*wire.Message)
	if !ok {
		return errors.Errorf("buffer %T is not a wire message", buf)
	}
	if m.TypeName() != c.typeName {
		return errors.Errorf("buffer holds %s, want %s", m.TypeName(), c.typeName)
	}
	return errors.Wrap(s.Deserialize(m.Reader()), c.typeName)
}

// Destroy frees buf. Destroying a buffer twice is a bug in the caller and
// panics.
func (c Converter) Destroy(buf rcl.Buffer) {
	if m, ok := buf.(*wire.Message); ok {
		if err := m.Free(); err != nil {
			panic(errors.Wrap(err, c.typeName))
		}
	}
}

func (c Converter) serializable(msg bridge.Message) (Serializable, error) {
	s, ok := msg.(Serializable)
	if !ok {
		return nil, errors.Errorf("%T is not a serializable message", msg)
	}
	if s.TypeName() != c.typeName {
		return nil, errors.Errorf("%s passed to the %s converter", s.TypeName(), c.typeName)
	}
	return s, nil
}

// ConverterFor returns the converter for msg's type.
func ConverterFor(msg Serializable) Converter {
	return NewConverter(msg.TypeName())
}

// TypeSupport names a message, service or action type.
type TypeSupport string

func (t TypeSupport) TypeName() string {
	return string(t)
}

// Register adds converters for every message type in this package to r.
func Register(r *bridge.ConverterRegistry) error {
	for _, msg := range []Serializable{
		&Time{}, &UUID{}, &GoalInfo{}, &GoalStatus{},
		&CancelGoalRequest{}, &CancelGoalResponse{},
		&FibonacciSendGoalRequest{}, &FibonacciSendGoalResponse{},
		&FibonacciGetResultRequest{}, &FibonacciGetResultResponse{},
		&FibonacciFeedback{},
		&AddTwoIntsRequest{}, &AddTwoIntsResponse{},
		&String{},
	} {
		if err := r.Register(ConverterFor(msg)); err != nil {
			return err
		}
	}
	return nil
}
