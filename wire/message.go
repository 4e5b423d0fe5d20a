// Package wire holds serialized messages as they live in native memory of the
// in-process library, and the little-endian codec used to fill them.
package wire

import (
	"bytes"

	"github.com/pkg/errors"
)

// Message is a serialized message buffer. It stands in for the C struct a
// rosidl generated from-converter would allocate.
type Message struct {
	typeName string
	data     []byte
	freed    bool
}

// NewMessage allocates a message buffer of the given type.
func NewMessage(typeName string, data []byte) *Message {
	return &Message{typeName: typeName, data: data}
}

// TypeName returns the message type the buffer was allocated for.
func (m *Message) TypeName() string {
	return m.typeName
}

// Bytes returns the serialized payload.
func (m *Message) Bytes() []byte {
	return m.data
}

// Reader returns a reader over the payload.
func (m *Message) Reader() *bytes.Reader {
	return bytes.NewReader(m.data)
}

// Set replaces the payload. Writing a freed buffer is an error.
func (m *Message) Set(data []byte) error {
	if m.freed {
		return errors.Errorf("write to freed %s buffer", m.typeName)
	}
	m.data = data
	return nil
}

// Free releases the payload. Freeing twice is an error.
func (m *Message) Free() error {
	if m.freed {
		return errors.Errorf("double free of %s buffer", m.typeName)
	}
	m.freed = true
	m.data = nil
	return nil
}

// Freed reports whether Free has been called.
func (m *Message) Freed() bool {
	return m.freed
}
