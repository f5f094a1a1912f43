package codec

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelanford/ngsi-client-go/api"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "string", value: "hi", expected: "22686922"},
		{name: "empty object", value: map[string]any{}, expected: "7b7d"},
		{name: "null", value: nil, expected: "6e756c6c"},
		{name: "html is not escaped", value: "<a>", expected: "223c613e22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecode(t *testing.T) {
	v, err := Decode("7b2261223a317d")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, v)

	v, err = Decode("6e756c6c")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "odd length", value: "abc"},
		{name: "not hex", value: "zz"},
		{name: "not json", value: "7b"},
		{name: "empty", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))

			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr))
			assert.Empty(t, decErr.Attribute)
		})
	}
}

func TestKindOf(t *testing.T) {
	type point struct{ X, Y int }
	type label string

	tests := []struct {
		name  string
		value any
		kind  api.AttributeType
		ok    bool
	}{
		{name: "string", value: "x", kind: api.TypeString, ok: true},
		{name: "named string", value: label("x"), kind: api.TypeString, ok: true},
		{name: "int", value: 3, kind: api.TypeNumber, ok: true},
		{name: "uint8", value: uint8(3), kind: api.TypeNumber, ok: true},
		{name: "float32", value: float32(1.5), kind: api.TypeNumber, ok: true},
		{name: "json number", value: json.Number("12"), kind: api.TypeNumber, ok: true},
		{name: "bool", value: false, kind: api.TypeBoolean, ok: true},
		{name: "nil", value: nil, kind: api.TypeObject, ok: true},
		{name: "map", value: map[string]any{"a": 1}, kind: api.TypeObject, ok: true},
		{name: "struct", value: point{1, 2}, kind: api.TypeObject, ok: true},
		{name: "struct pointer", value: &point{1, 2}, kind: api.TypeObject, ok: true},
		{name: "slice", value: []any{1, 2}, ok: false},
		{name: "array", value: [2]int{1, 2}, ok: false},
		{name: "int keyed map", value: map[int]string{1: "a"}, ok: false},
		{name: "func", value: func() {}, ok: false},
		{name: "string pointer", value: new(string), ok: false},
		{name: "complex", value: complex(1, 2), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindOf(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestToAttributes(t *testing.T) {
	attrs := ToAttributes(map[string]any{
		"name":    "hi",
		"count":   5,
		"ratio":   0.25,
		"big":     1e21,
		"active":  true,
		"meta":    map[string]any{},
		"tags":    []string{"a"},
		"handler": func() {},
	})

	assert.Equal(t, []api.Attribute{
		{Name: "active", Type: api.TypeBoolean, Value: "true"},
		{Name: "big", Type: api.TypeNumber, Value: "1e+21"},
		{Name: "count", Type: api.TypeNumber, Value: "5"},
		{Name: "meta", Type: api.TypeObject, Value: "7b7d"},
		{Name: "name", Type: api.TypeString, Value: "22686922"},
		{Name: "ratio", Type: api.TypeNumber, Value: "0.25"},
	}, attrs)
}

func TestToAttributes_Empty(t *testing.T) {
	assert.Empty(t, ToAttributes(nil))
	assert.Empty(t, ToAttributes(map[string]any{}))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{value: 123456789, expected: "123456789"},
		{value: float64(123456789), expected: "123456789"},
		{value: -7.5, expected: "-7.5"},
		{value: float32(0.1), expected: "0.1"},
		{value: uint64(math.MaxUint64), expected: "18446744073709551615"},
		{value: 1e-7, expected: "1e-7"},
		{value: -1.5e-10, expected: "-1.5e-10"},
		{value: 1e21, expected: "1e+21"},
		{value: 2.5e300, expected: "2.5e+300"},
		{value: math.Inf(1), expected: "Infinity"},
		{value: math.Inf(-1), expected: "-Infinity"},
		{value: float32(math.Inf(1)), expected: "Infinity"},
		{value: math.NaN(), expected: "NaN"},
		{value: json.Number("3.14"), expected: "3.14"},
		{value: float64(0), expected: "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatNumber(tt.value))
	}
}

func TestFromAttributes(t *testing.T) {
	data, err := FromAttributes([]api.Attribute{
		{Name: "n", Type: api.TypeNumber, Value: "5"},
		{Name: "s", Type: api.TypeString, Value: "22686922"},
		{Name: "b", Type: api.TypeBoolean, Value: "true"},
		{Name: "f", Type: api.TypeBoolean, Value: "yes"},
		{Name: "o", Type: api.TypeObject, Value: "7b2261223a317d"},
		{Name: "x", Type: "geo:point", Value: "1, 2"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"n": float64(5),
		"s": "hi",
		"b": true,
		"f": false,
		"o": map[string]any{"a": float64(1)},
	}, data)
}

func TestFromAttributes_DecodeFailure(t *testing.T) {
	tests := []struct {
		name string
		attr api.Attribute
	}{
		{name: "string", attr: api.Attribute{Name: "bad", Type: api.TypeString, Value: "nothex"}},
		{name: "object", attr: api.Attribute{Name: "bad", Type: api.TypeObject, Value: "7b"}},
		{name: "number", attr: api.Attribute{Name: "bad", Type: api.TypeNumber, Value: "five"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAttributes([]api.Attribute{tt.attr})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)

			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, "bad", decErr.Attribute)
			assert.Contains(t, err.Error(), `"bad"`)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	data := map[string]any{
		"title":   "héllo, wörld: <tag> & \"quotes\"",
		"empty":   "",
		"count":   float64(42),
		"neg":     -0.5,
		"huge":    1e300,
		"enabled": false,
		"none":    nil,
		"nested": map[string]any{
			"list":  []any{"a", float64(1), true},
			"inner": map[string]any{"k": "v"},
		},
	}

	got, err := FromAttributes(ToAttributes(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRoundTrip_DropsUnsupported(t *testing.T) {
	data := map[string]any{
		"keep":  "yes",
		"items": []any{"a", "b"},
	}

	got, err := FromAttributes(ToAttributes(data))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"keep": "yes"}, got)
	assert.NotContains(t, got, "items")
}

func TestRoundTrip_Infinity(t *testing.T) {
	data := map[string]any{"up": math.Inf(1), "down": math.Inf(-1), "tiny": 1e-7}

	attrs := ToAttributes(data)
	assert.Equal(t, []api.Attribute{
		{Name: "down", Type: api.TypeNumber, Value: "-Infinity"},
		{Name: "tiny", Type: api.TypeNumber, Value: "1e-7"},
		{Name: "up", Type: api.TypeNumber, Value: "Infinity"},
	}, attrs)

	got, err := FromAttributes(attrs)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

type labels struct {
	Name   string
	Hidden string `json:"-"`
	note   string
}

func TestToAttributes_InvalidUTF8(t *testing.T) {
	data := map[string]any{
		"ok":      "plain",
		"raw":     "a\xffb",
		"nested":  map[string]any{"k": "\xff"},
		"key":     map[string]any{"\xfe": "v"},
		"deep":    map[string]any{"list": []any{"fine", []any{"\xc3"}}},
		"pointer": &labels{Name: "\xff"},
		"hidden":  labels{Name: "x", Hidden: "\xff", note: "\xff"},
		"unicode": "héllo ☃",
		"bytes":   map[string]any{"b": []byte("\xff")},
		"nilPtr":  (*labels)(nil),
	}

	attrs := ToAttributes(data)
	names := make([]string, 0, len(attrs))
	for _, a := range attrs {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"bytes", "hidden", "nilPtr", "ok", "unicode"}, names)

	got, err := FromAttributes(attrs)
	require.NoError(t, err)
	assert.Equal(t, "plain", got["ok"])
	assert.Equal(t, "héllo ☃", got["unicode"])
	for _, v := range got {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, "\uFFFD")
		}
	}
}

func captureLogs(lines *[]string) logr.Logger {
	return funcr.New(func(prefix, args string) {
		*lines = append(*lines, args)
	}, funcr.Options{Verbosity: 1})
}

func hasLogLine(lines []string, parts ...string) bool {
	for _, line := range lines {
		matched := true
		for _, p := range parts {
			if !strings.Contains(line, p) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func TestCodec_LogsDroppedAttributes(t *testing.T) {
	var lines []string
	c := Codec{Log: captureLogs(&lines)}

	attrs := c.ToAttributes(map[string]any{
		"x":   []int{1, 2},
		"raw": "a\xffb",
		"ok":  "y",
	})
	require.Len(t, attrs, 1)
	assert.Equal(t, "ok", attrs[0].Name)

	assert.True(t, hasLogLine(lines, `"msg"="dropping attribute"`, `"name"="x"`), lines)
	assert.True(t, hasLogLine(lines, `"msg"="dropping attribute"`, `"name"="raw"`, "invalid UTF-8"), lines)
	assert.False(t, hasLogLine(lines, `"name"="ok"`), lines)
}

func TestCodec_LogsIgnoredAttributes(t *testing.T) {
	var lines []string
	c := Codec{Log: captureLogs(&lines)}

	data, err := c.FromAttributes([]api.Attribute{
		{Name: "where", Type: "geo:point", Value: "1, 2"},
		{Name: "n", Type: api.TypeNumber, Value: "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(1)}, data)

	assert.True(t, hasLogLine(lines, `"msg"="ignoring attribute"`, `"name"="where"`, "geo:point"), lines)
	assert.False(t, hasLogLine(lines, `"name"="n"`), lines)
}

func TestCodec_QuietAtDefaultVerbosity(t *testing.T) {
	var lines []string
	c := Codec{Log: funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})}

	c.ToAttributes(map[string]any{"x": []int{1}})
	_, err := c.FromAttributes([]api.Attribute{{Name: "where", Type: "geo:point"}})
	require.NoError(t, err)
	assert.Empty(t, lines)
}
