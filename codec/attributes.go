package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-logr/logr"

	"github.com/joelanford/ngsi-client-go/api"
)

// Codec maps entity data to attributes and back. The zero value is ready to
// use and discards its diagnostics.
type Codec struct {
	// Log receives V(1) messages about values that were dropped.
	Log logr.Logger
}

// ToAttributes encodes data with a zero Codec.
func ToAttributes(data map[string]any) []api.Attribute {
	return Codec{}.ToAttributes(data)
}

// FromAttributes decodes attrs with a zero Codec.
func FromAttributes(attrs []api.Attribute) (map[string]any, error) {
	return Codec{}.FromAttributes(attrs)
}

// KindOf classifies v into one of the four attribute types. The second result
// is false for values that have no attribute encoding, such as slices.
func KindOf(v any) (api.AttributeType, bool) {
	switch v.(type) {
	case nil:
		return api.TypeObject, true
	case string:
		return api.TypeString, true
	case bool:
		return api.TypeBoolean, true
	case json.Number:
		return api.TypeNumber, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return api.TypeString, true
	case reflect.Bool:
		return api.TypeBoolean, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return api.TypeNumber, true
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return api.TypeObject, true
		}
	case reflect.Struct:
		return api.TypeObject, true
	case reflect.Pointer:
		if rv.IsNil() {
			return api.TypeObject, true
		}
		if kind, ok := KindOf(rv.Elem().Interface()); ok && kind == api.TypeObject {
			return kind, true
		}
	}
	return "", false
}

// ToAttributes encodes every supported value of data, in key order. Values
// without an attribute encoding are logged and left out.
func (c Codec) ToAttributes(data map[string]any) []api.Attribute {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]api.Attribute, 0, len(names))
	for _, name := range names {
		attr, err := toAttribute(name, data[name])
		if err != nil {
			c.log().V(1).Info("dropping attribute", "name", name, "reason", err.Error())
			continue
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

// FromAttributes rebuilds entity data from attrs. Attributes with an unknown
// type tag are left out; a value that cannot be decoded fails the whole call.
func (c Codec) FromAttributes(attrs []api.Attribute) (map[string]any, error) {
	data := make(map[string]any, len(attrs))
	for _, a := range attrs {
		switch a.Type {
		case api.TypeString, api.TypeObject:
			v, err := Decode(a.Value)
			if err != nil {
				var decErr *DecodeError
				if errors.As(err, &decErr) {
					return nil, &DecodeError{Attribute: a.Name, Err: decErr.Err}
				}
				return nil, err
			}
			data[a.Name] = v
		case api.TypeNumber:
			f, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				return nil, &DecodeError{Attribute: a.Name, Err: err}
			}
			data[a.Name] = f
		case api.TypeBoolean:
			data[a.Name] = a.Value == "true"
		default:
			c.log().V(1).Info("ignoring attribute", "name", a.Name, "type", a.Type)
		}
	}
	return data, nil
}

func (c Codec) log() logr.Logger {
	if c.Log.GetSink() == nil {
		return logr.Discard()
	}
	return c.Log
}

func toAttribute(name string, v any) (api.Attribute, error) {
	kind, ok := KindOf(v)
	if !ok {
		return api.Attribute{}, fmt.Errorf("unsupported value type %T", v)
	}

	attr := api.Attribute{Name: name, Type: kind}
	switch kind {
	case api.TypeString, api.TypeObject:
		if !validUTF8(reflect.ValueOf(v), 0) {
			return api.Attribute{}, errors.New("value contains invalid UTF-8")
		}
		enc, err := Encode(v)
		if err != nil {
			return api.Attribute{}, err
		}
		attr.Value = enc
	case api.TypeNumber:
		attr.Value = formatNumber(v)
	case api.TypeBoolean:
		attr.Value = strconv.FormatBool(reflect.ValueOf(v).Bool())
	default:
		return api.Attribute{}, fmt.Errorf("unhandled attribute type %q", kind)
	}
	return attr, nil
}

// formatNumber renders v in its shortest decimal form, using the literal
// spelling JSON-native readers expect. Integral values below 1e21 never use an
// exponent; infinities are Infinity and -Infinity.
func formatNumber(v any) string {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	default:
		return formatFloat(rv.Float(), 64)
	}
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return trimExponent(strconv.FormatFloat(f, 'g', -1, bitSize))
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

// trimExponent drops the zero padding of an exponent: 1e-07 becomes 1e-7.
func trimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 >= len(s) {
		return s
	}
	digits := strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return s[:i+2] + digits
}

// maxUTF8Depth bounds the walk over self-referencing values; encoding/json
// reports those cycles itself.
const maxUTF8Depth = 1000

// validUTF8 reports whether every string reachable from v, map keys included,
// is valid UTF-8. encoding/json rewrites invalid bytes to U+FFFD.
func validUTF8(v reflect.Value, depth int) bool {
	if depth > maxUTF8Depth {
		return true
	}
	switch v.Kind() {
	case reflect.String:
		return utf8.ValidString(v.String())
	case reflect.Interface, reflect.Pointer:
		return v.IsNil() || validUTF8(v.Elem(), depth+1)
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if !validUTF8(iter.Key(), depth+1) || !validUTF8(iter.Value(), depth+1) {
				return false
			}
		}
	case reflect.Slice, reflect.Array:
		// byte slices are encoded as base64
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return true
		}
		for i := 0; i < v.Len(); i++ {
			if !validUTF8(v.Index(i), depth+1) {
				return false
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if (!f.IsExported() && !f.Anonymous) || f.Tag.Get("json") == "-" {
				continue
			}
			if !validUTF8(v.Field(i), depth+1) {
				return false
			}
		}
	}
	return true
}
