package wire

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// ByteDecoder decodes primitive fields from a serialized message.
type ByteDecoder interface {
	DecodeBool(buf *bytes.Reader) (bool, error)
	DecodeInt8(buf *bytes.Reader) (int8, error)
	DecodeUint8(buf *bytes.Reader) (uint8, error)
	DecodeInt16(buf *bytes.Reader) (int16, error)
	DecodeUint16(buf *bytes.Reader) (uint16, error)
	DecodeInt32(buf *bytes.Reader) (int32, error)
	DecodeUint32(buf *bytes.Reader) (uint32, error)
	DecodeInt64(buf *bytes.Reader) (int64, error)
	DecodeUint64(buf *bytes.Reader) (uint64, error)
	DecodeFloat32(buf *bytes.Reader) (float32, error)
	DecodeFloat64(buf *bytes.Reader) (float64, error)
	DecodeString(buf *bytes.Reader) (string, error)
	DecodeUint8Array(buf *bytes.Reader, size int) ([]uint8, error)
	DecodeInt32Array(buf *bytes.Reader, size int) ([]int32, error)
}

// LEByteDecoder is a little-endian byte decoder, implements the ByteDecoder interface.
type LEByteDecoder struct{}

var _ ByteDecoder = LEByteDecoder{}

// DecodeUint8Array decodes an array of uint8 values.
func (d LEByteDecoder) DecodeUint8Array(buf *bytes.Reader, size int) ([]uint8, error) {
	slice := make([]uint8, size)
	if size == 0 {
		return slice, nil
	}
	n, err := buf.Read(slice)
	if n != size || err != nil {
		return slice, errors.New("Did not read entire uint8 buffer")
	}
	return slice, nil
}

// DecodeInt32Array decodes an array of int32 values.
func (d LEByteDecoder) DecodeInt32Array(buf *bytes.Reader, size int) ([]int32, error) {
	var arr [4]byte
	slice := make([]int32, size)
	for i := 0; i < size; i++ {
		if n, err := buf.Read(arr[:]); n != 4 || err != nil {
			return slice, errors.New("Could not read 4 bytes from buffer")
		}
		slice[i] = int32(binary.LittleEndian.Uint32(arr[:]))
	}
	return slice, nil
}

// DecodeBool decodes a boolean.
func (d LEByteDecoder) DecodeBool(buf *bytes.Reader) (bool, error) {
	raw, err := d.DecodeUint8(buf)
	return (raw != 0x00), err
}

// DecodeInt8 decodes a int8.
func (d LEByteDecoder) DecodeInt8(buf *bytes.Reader) (int8, error) {
	raw, err := d.DecodeUint8(buf)
	return int8(raw), err
}

// DecodeUint8 decodes a uint8.
func (d LEByteDecoder) DecodeUint8(buf *bytes.Reader) (uint8, error) {
	var arr [1]byte

	if n, err := buf.Read(arr[:]); n != 1 || err != nil {
		return 0, errors.New("Could not read 1 byte from buffer")
	}

	return arr[0], nil
}

// DecodeInt16 decodes a int16.
func (d LEByteDecoder) DecodeInt16(buf *bytes.Reader) (int16, error) {
	raw, err := d.DecodeUint16(buf)
	return int16(raw), err
}

// DecodeUint16 decodes a uint16.
func (d LEByteDecoder) DecodeUint16(buf *bytes.Reader) (uint16, error) {
	var arr [2]byte

	if n, err := buf.Read(arr[:]); n != 2 || err != nil {
		return 0, errors.New("Could not read 2 bytes from buffer")
	}

	return binary.LittleEndian.Uint16(arr[:]), nil
}

// DecodeInt32 decodes a int32.
func (d LEByteDecoder) DecodeInt32(buf *bytes.Reader) (int32, error) {
	raw, err := d.DecodeUint32(buf)
	return int32(raw), err
}

// DecodeUint32 decodes a uint32.
func (d LEByteDecoder) DecodeUint32(buf *bytes.Reader) (uint32, error) {
	var arr [4]byte

	if n, err := buf.Read(arr[:]); n != 4 || err != nil {
		return 0, errors.New("Could not read 4 bytes from buffer")
	}

	return binary.LittleEndian.Uint32(arr[:]), nil
}

// DecodeFloat32 decodes a float32.
func (d LEByteDecoder) DecodeFloat32(buf *bytes.Reader) (float32, error) {
	raw, err := d.DecodeUint32(buf)
	return math.Float32frombits(raw), err
}

// DecodeInt64 decodes a int64.
func (d LEByteDecoder) DecodeInt64(buf *bytes.Reader) (int64, error) {
	raw, err := d.DecodeUint64(buf)
	return int64(raw), err
}

// DecodeUint64 decodes a uint64.
func (d LEByteDecoder) DecodeUint64(buf *bytes.Reader) (uint64, error) {
	var arr [8]byte

	if n, err := buf.Read(arr[:]); n != 8 || err != nil {
		return 0, errors.New("Could not read 8 bytes from buffer")
	}

	return binary.LittleEndian.Uint64(arr[:]), nil
}

// DecodeFloat64 decodes a float64.
func (d LEByteDecoder) DecodeFloat64(buf *bytes.Reader) (float64, error) {
	raw, err := d.DecodeUint64(buf)
	return math.Float64frombits(raw), err
}

// DecodeString decodes a string.
func (d LEByteDecoder) DecodeString(buf *bytes.Reader) (string, error) {
	var err error
	var strSize uint32
	// String format is: [size|string] where size is a u32.
	if strSize, err = d.DecodeUint32(buf); err != nil {
		return "", err
	}
	if int64(strSize) > int64(buf.Len()) {
		return "", errors.Errorf("string length %d exceeds remaining %d bytes", strSize, buf.Len())
	}
	var value []uint8
	if value, err = d.DecodeUint8Array(buf, int(strSize)); err != nil {
		return "", err
	}
	return string(value), nil
}
