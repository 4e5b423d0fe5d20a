package wire

import (
	"bytes"
	"encoding/binary"
	"math"
)

// LEByteEncoder is the little-endian counterpart of LEByteDecoder.
type LEByteEncoder struct{}

func (e LEByteEncoder) EncodeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(0x01)
	} else {
		buf.WriteByte(0x00)
	}
}

func (e LEByteEncoder) EncodeInt8(buf *bytes.Buffer, v int8) {
	buf.WriteByte(byte(v))
}

func (e LEByteEncoder) EncodeUint8(buf *bytes.Buffer, v uint8) {
	buf.WriteByte(v)
}

func (e LEByteEncoder) EncodeInt16(buf *bytes.Buffer, v int16) {
	e.EncodeUint16(buf, uint16(v))
}

func (e LEByteEncoder) EncodeUint16(buf *bytes.Buffer, v uint16) {
	var arr [2]byte
	binary.LittleEndian.PutUint16(arr[:], v)
	buf.Write(arr[:])
}

func (e LEByteEncoder) EncodeInt32(buf *bytes.Buffer, v int32) {
	e.EncodeUint32(buf, uint32(v))
}

func (e LEByteEncoder) EncodeUint32(buf *bytes.Buffer, v uint32) {
	var arr [4]byte
	binary.LittleEndian.PutUint32(arr[:], v)
	buf.Write(arr[:])
}

func (e LEByteEncoder) EncodeInt64(buf *bytes.Buffer, v int64) {
	e.EncodeUint64(buf, uint64(v))
}

func (e LEByteEncoder) EncodeUint64(buf *bytes.Buffer, v uint64) {
	var arr [8]byte
	binary.LittleEndian.PutUint64(arr[:], v)
	buf.Write(arr[:])
}

func (e LEByteEncoder) EncodeFloat32(buf *bytes.Buffer, v float32) {
	e.EncodeUint32(buf, math.Float32bits(v))
}

func (e LEByteEncoder) EncodeFloat64(buf *bytes.Buffer, v float64) {
	e.EncodeUint64(buf, math.Float64bits(v))
}

// EncodeString writes [size|string] where size is a u32.
func (e LEByteEncoder) EncodeString(buf *bytes.Buffer, v string) {
	e.EncodeUint32(buf, uint32(len(v)))
	buf.WriteString(v)
}

func (e LEByteEncoder) EncodeInt32Array(buf *bytes.Buffer, v []int32) {
	for _, x := range v {
		e.EncodeInt32(buf, x)
	}
}
