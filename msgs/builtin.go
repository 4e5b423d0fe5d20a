package msgs

import (
	"bytes"
	"encoding/hex"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
)

// Time is builtin_interfaces/msg/Time.
type Time struct {
	Sec     int32
	Nanosec uint32
}

// NewTime converts t.
func NewTime(t time.Time) Time {
	return Time{Sec: int32(t.Unix()), Nanosec: uint32(t.Nanosecond())}
}

func (t *Time) TypeName() string { return "builtin_interfaces/msg/Time" }

// IsZero reports whether both fields are zero.
func (t Time) IsZero() bool {
	return t.Sec == 0 && t.Nanosec == 0
}

// Before reports whether t is strictly earlier than o.
func (t Time) Before(o Time) bool {
	if t.Sec != o.Sec {
		return t.Sec < o.Sec
	}
	return t.Nanosec < o.Nanosec
}

func (t *Time) Serialize(buf *bytes.Buffer) {
	enc.EncodeInt32(buf, t.Sec)
	enc.EncodeUint32(buf, t.Nanosec)
}

func (t *Time) Deserialize(buf *bytes.Reader) error {
	var err error
	if t.Sec, err = dec.DecodeInt32(buf); err != nil {
		return err
	}
	t.Nanosec, err = dec.DecodeUint32(buf)
	return err
}

// UUID is unique_identifier_msgs/msg/UUID.
type UUID [16]uint8

func (u *UUID) TypeName() string { return "unique_identifier_msgs/msg/UUID" }

// IsZero reports whether every byte is zero.
func (u UUID) IsZero() bool {
	return u == UUID{}
}

func (u UUID) String() string {
	s := hex.EncodeToString(u[:])
	return s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:]
}

func (u *UUID) Serialize(buf *bytes.Buffer) {
	buf.Write(u[:])
}

func (u *UUID) Deserialize(buf *bytes.Reader) error {
	raw, err := dec.DecodeUint8Array(buf, len(u))
	if err != nil {
		return err
	}
	copy(u[:], raw)
	return nil
}

// ParseUUID accepts the canonical 8-4-4-4-12 form or 32 hex digits.
func ParseUUID(s string) (UUID, error) {
	var u UUID
	raw, err := hex.DecodeString(strings.Replace(s, "-", "", -1))
	if err != nil {
		return u, errors.Wrapf(err, "invalid uuid %q", s)
	}
	if len(raw) != len(u) {
		return u, errors.Errorf("invalid uuid %q: %d bytes", s, len(raw))
	}
	copy(u[:], raw)
	return u, nil
}

// UnmarshalJSON accepts a string in a form ParseUUID understands or an
// array of 16 byte values.
func (u *UUID) UnmarshalJSON(data []byte) error {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return errors.Wrap(err, "uuid")
	}
	switch dataType {
	case jsonparser.String:
		parsed, err := ParseUUID(string(value))
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	case jsonparser.Array:
		var parsed UUID
		i := 0
		var inner error
		_, err := jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
			if inner != nil {
				return
			}
			n, err := jsonparser.ParseInt(v)
			if err != nil || t != jsonparser.Number || n < 0 || n > 255 || i >= len(parsed) {
				inner = errors.Errorf("uuid element %d (%s) is not a byte", i, v)
				return
			}
			parsed[i] = uint8(n)
			i++
		})
		if err != nil {
			return errors.Wrap(err, "uuid")
		}
		if inner != nil {
			return inner
		}
		if i != len(parsed) {
			return errors.Errorf("uuid has %d bytes, want %d", i, len(parsed))
		}
		*u = parsed
		return nil
	default:
		return errors.Errorf("uuid must be a string or an array, got %s", dataType)
	}
}

// String is std_msgs/msg/String.
type String struct {
	Data string
}

func (s *String) TypeName() string { return "std_msgs/msg/String" }

func (s *String) Serialize(buf *bytes.Buffer) {
	enc.EncodeString(buf, s.Data)
}

func (s *String) Deserialize(buf *bytes.Reader) error {
	var err error
	s.Data, err = dec.DecodeString(buf)
	return err
}
