package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// Marshal writes v as compact JSON, keeping object members in the order
// they are held. Use Text for the canonical form.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Text returns the canonical serialization of v: recursively key-sorted,
// no incidental whitespace.
func Text(v Value) (string, error) {
	out, err := Marshal(Canonicalize(v))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch value := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		if value {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		if !validNumber(string(value)) {
			return fmt.Errorf("%w: %q", ErrInvalidNumber, string(value))
		}
		buf.WriteString(string(value))
	case String:
		writeString(buf, string(value))
	case Array:
		buf.WriteByte('[')
		for i, item := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, m.Key)
			buf.WriteByte(':')
			if err := writeValue(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
	return nil
}

// writeString escapes only what JSON requires. HTML characters and
// non-ASCII text are written as-is so signer and verifier agree byte for
// byte.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				buf.WriteString(`\"`)
			case '\\':
				buf.WriteString(`\\`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			default:
				if c < 0x20 {
					buf.WriteString(`\u00`)
					buf.WriteByte(hexDigits[c>>4])
					buf.WriteByte(hexDigits[c&0xf])
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		buf.WriteRune(r)
		i += size
	}
	buf.WriteByte('"')
}

func validNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] != '-' && (s[0] < '0' || s[0] > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

func (v Null) MarshalJSON() ([]byte, error)   { return Marshal(v) }
func (v Bool) MarshalJSON() ([]byte, error)   { return Marshal(v) }
func (v Number) MarshalJSON() ([]byte, error) { return Marshal(v) }
func (v String) MarshalJSON() ([]byte, error) { return Marshal(v) }
func (v Array) MarshalJSON() ([]byte, error)  { return Marshal(v) }
func (v Object) MarshalJSON() ([]byte, error) { return Marshal(v) }
