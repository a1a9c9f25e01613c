package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"
)

var (
	ErrInvalidJSON     = errors.New("invalid json")
	ErrInvalidNumber   = errors.New("invalid number literal")
	ErrUnsupportedType = errors.New("unsupported type for canonicalization")
)

// Parse decodes a single JSON document. Object members keep their source
// order and number literals are kept verbatim. Input must be valid UTF-8.
func Parse(data []byte) (Value, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrInvalidJSON)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after document", ErrInvalidJSON)
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func parseObject(dec *json.Decoder) (Value, error) {
	obj := Object{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		value, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		obj = append(obj, Member{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder) (Value, error) {
	arr := Array{}
	for dec.More() {
		value, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// FromAny converts decoded Go values into a Value. Maps become objects
// with sorted members since Go map order carries no meaning.
func FromAny(v any) (Value, error) {
	switch value := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return value, nil
	case bool:
		return Bool(value), nil
	case string:
		return String(value), nil
	case json.Number:
		if !validNumber(string(value)) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, string(value))
		}
		return Number(value), nil
	case int:
		return Number(strconv.FormatInt(int64(value), 10)), nil
	case int32:
		return Number(strconv.FormatInt(int64(value), 10)), nil
	case int64:
		return Number(strconv.FormatInt(value, 10)), nil
	case uint:
		return Number(strconv.FormatUint(uint64(value), 10)), nil
	case uint32:
		return Number(strconv.FormatUint(uint64(value), 10)), nil
	case uint64:
		return Number(strconv.FormatUint(value, 10)), nil
	case float64:
		return fromFloat(value)
	case float32:
		return fromFloat(float64(value))
	case []any:
		arr := make(Array, 0, len(value))
		for _, item := range value {
			converted, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, converted)
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(Object, 0, len(keys))
		for _, k := range keys {
			converted, err := FromAny(value[k])
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Key: k, Value: converted})
		}
		return obj, nil
	case map[string]string:
		generic := make(map[string]any, len(value))
		for k, s := range value {
			generic[k] = s
		}
		return FromAny(generic)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func fromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, f)
	}
	encoded, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return Number(encoded), nil
}
