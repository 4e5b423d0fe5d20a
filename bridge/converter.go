package bridge

import (
	"sync"

	"github.com/team-rocos/rclbridge/rcl"
)

// Message is a caller-side message object of any generated type.
type Message interface{}

// TypedMessage is implemented by messages that know their ROS type name.
type TypedMessage interface {
	TypeName() string
}

// Converter moves one message type across the boundary. FromManaged
// allocates a native buffer that the bridge later releases with Destroy;
// ToManaged writes a native buffer back into a caller-side message. Buffers
// must be comparable values, in practice pointers.
type Converter interface {
	TypeName() string
	FromManaged(msg Message) (rcl.Buffer, error)
	ToManaged(buf rcl.Buffer, msg Message) error
	Destroy(buf rcl.Buffer)
}

// ConverterRegistry resolves converters by message type name.
type ConverterRegistry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

func NewConverterRegistry() *ConverterRegistry {
	return &ConverterRegistry{converters: make(map[string]Converter)}
}

// Register adds c. Registering a second converter for a type is an error.
func (r *ConverterRegistry) Register(c Converter) error {
	if c == nil {
		return newError(rcl.RetInvalidArgument, "converter is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.converters[c.TypeName()]; ok {
		return newError(rcl.RetInvalidArgument, "converter for %s already registered", c.TypeName())
	}
	r.converters[c.TypeName()] = c
	return nil
}

// Lookup returns the converter registered for typeName.
func (r *ConverterRegistry) Lookup(typeName string) (Converter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[typeName]
	if !ok {
		return nil, newError(rcl.RetInvalidArgument, "no converter registered for %s", typeName)
	}
	return c, nil
}

// For returns the converter for the type of msg.
func (r *ConverterRegistry) For(msg Message) (Converter, error) {
	typed, ok := msg.(TypedMessage)
	if !ok {
		return nil, newError(rcl.RetInvalidArgument, "message %T does not name its type", msg)
	}
	return r.Lookup(typed.TypeName())
}

// bufferScope owns every native buffer acquired during one bridge call.
// close destroys whatever is still held, so each exit path of the call
// releases its buffers exactly once.
type bufferScope struct {
	held []scopedBuffer
}

type scopedBuffer struct {
	conv Converter
	buf  rcl.Buffer
	done bool
}

func (s *bufferScope) fromManaged(conv Converter, msg Message) (rcl.Buffer, error) {
	buf, err := conv.FromManaged(msg)
	if err != nil {
		return nil, newError(rcl.RetError, "Failed to convert %s to native: %v", conv.TypeName(), err)
	}
	s.held = append(s.held, scopedBuffer{conv: conv, buf: buf})
	return buf, nil
}

// destroy releases buf before the end of the scope.
func (s *bufferScope) destroy(buf rcl.Buffer) {
	for i := range s.held {
		if !s.held[i].done && s.held[i].buf == buf {
			s.held[i].done = true
			s.held[i].conv.Destroy(buf)
			return
		}
	}
}

func (s *bufferScope) close() {
	for i := len(s.held) - 1; i >= 0; i-- {
		if !s.held[i].done {
			s.held[i].done = true
			s.held[i].conv.Destroy(s.held[i].buf)
		}
	}
	s.held = nil
}

func toManaged(conv Converter, buf rcl.Buffer, msg Message) error {
	if err := conv.ToManaged(buf, msg); err != nil {
		return newError(rcl.RetError, "Failed to convert %s from native: %v", conv.TypeName(), err)
	}
	return nil
}

func checkConverter(conv Converter, msg Message) error {
	if conv == nil {
		return newError(rcl.RetInvalidArgument, "converter is nil")
	}
	if msg == nil {
		return newError(rcl.RetInvalidArgument, "%s message is nil", conv.TypeName())
	}
	return nil
}
