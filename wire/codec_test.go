package wire

import (
	"bytes"
	"math"
	"reflect"
	"testing"
)

func TestLECodecRoundTrip(t *testing.T) {
	enc := LEByteEncoder{}
	dec := LEByteDecoder{}

	var buf bytes.Buffer
	enc.EncodeBool(&buf, true)
	enc.EncodeInt8(&buf, -7)
	enc.EncodeUint8(&buf, 200)
	enc.EncodeInt16(&buf, -3000)
	enc.EncodeUint16(&buf, 60000)
	enc.EncodeInt32(&buf, math.MinInt32)
	enc.EncodeUint32(&buf, math.MaxUint32)
	enc.EncodeInt64(&buf, -1)
	enc.EncodeUint64(&buf, math.MaxUint64)
	enc.EncodeFloat32(&buf, 1.5)
	enc.EncodeFloat64(&buf, -2.25)
	enc.EncodeString(&buf, "fibonacci")
	enc.EncodeInt32Array(&buf, []int32{0, 1, 1, 2})

	r := bytes.NewReader(buf.Bytes())
	if v, err := dec.DecodeBool(r); err != nil || !v {
		t.Fatalf("bool: %v %v", v, err)
	}
	if v, err := dec.DecodeInt8(r); err != nil || v != -7 {
		t.Fatalf("int8: %v %v", v, err)
	}
	if v, err := dec.DecodeUint8(r); err != nil || v != 200 {
		t.Fatalf("uint8: %v %v", v, err)
	}
	if v, err := dec.DecodeInt16(r); err != nil || v != -3000 {
		t.Fatalf("int16: %v %v", v, err)
	}
	if v, err := dec.DecodeUint16(r); err != nil || v != 60000 {
		t.Fatalf("uint16: %v %v", v, err)
	}
	if v, err := dec.DecodeInt32(r); err != nil || v != math.MinInt32 {
		t.Fatalf("int32: %v %v", v, err)
	}
	if v, err := dec.DecodeUint32(r); err != nil || v != math.MaxUint32 {
		t.Fatalf("uint32: %v %v", v, err)
	}
	if v, err := dec.DecodeInt64(r); err != nil || v != -1 {
		t.Fatalf("int64: %v %v", v, err)
	}
	if v, err := dec.DecodeUint64(r); err != nil || v != math.MaxUint64 {
		t.Fatalf("uint64: %v %v", v, err)
	}
	if v, err := dec.DecodeFloat32(r); err != nil || v != 1.5 {
		t.Fatalf("float32: %v %v", v, err)
	}
	if v, err := dec.DecodeFloat64(r); err != nil || v != -2.25 {
		t.Fatalf("float64: %v %v", v, err)
	}
	if v, err := dec.DecodeString(r); err != nil || v != "fibonacci" {
		t.Fatalf("string: %q %v", v, err)
	}
	if v, err := dec.DecodeInt32Array(r, 4); err != nil || !reflect.DeepEqual(v, []int32{0, 1, 1, 2}) {
		t.Fatalf("int32 array: %v %v", v, err)
	}
	if r.Len() != 0 {
		t.Fatalf("%d trailing bytes", r.Len())
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	dec := LEByteDecoder{}
	if _, err := dec.DecodeUint32(bytes.NewReader([]byte{1, 2})); err == nil {
		t.Error("expected error decoding uint32 from 2 bytes")
	}
	if _, err := dec.DecodeInt32Array(bytes.NewReader([]byte{1, 2, 3, 4, 5}), 2); err == nil {
		t.Error("expected error decoding 2 int32 from 5 bytes")
	}
	if _, err := dec.DecodeUint8Array(bytes.NewReader([]byte{1}), 3); err == nil {
		t.Error("expected error decoding 3 bytes from 1")
	}
}

func TestDecodeStringLengthGuard(t *testing.T) {
	var buf bytes.Buffer
	LEByteEncoder{}.EncodeUint32(&buf, 1<<30)
	buf.WriteString("short")
	if _, err := (LEByteDecoder{}).DecodeString(bytes.NewReader(buf.Bytes())); err == nil {
		t.Fatal("expected error for string length beyond buffer")
	}
}

func TestMessageFree(t *testing.T) {
	m := NewMessage("std_msgs/msg/String", []byte{1, 2, 3})
	if m.TypeName() != "std_msgs/msg/String" || m.Reader().Len() != 3 {
		t.Fatalf("unexpected message %s with %d bytes", m.TypeName(), m.Reader().Len())
	}
	if err := m.Set([]byte{4}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(m.Bytes(), []byte{4}) {
		t.Fatalf("Set did not replace payload: %v", m.Bytes())
	}
	if err := m.Free(); err != nil {
		t.Fatal(err)
	}
	if !m.Freed() || m.Bytes() != nil {
		t.Fatal("freed message still holds data")
	}
	if err := m.Free(); err == nil {
		t.Fatal("expected double free error")
	}
	if err := m.Set([]byte{5}); err == nil {
		t.Fatal("expected error writing freed message")
	}
}
