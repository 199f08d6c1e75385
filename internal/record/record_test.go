package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/TwigBush/kmpolicy/internal/errs"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		outcome Outcome
		keys    []string
		wantErr error
	}{
		{name: "empty", text: "", outcome: OutcomeNoInput},
		{name: "whitespace", text: " \n\t", outcome: OutcomeNoInput},
		{name: "null literal", text: "null", outcome: OutcomeNull},
		{name: "empty object", text: "{}", outcome: OutcomeObject, keys: []string{}},
		{name: "object", text: `{"b":1,"a":"x"}`, outcome: OutcomeObject, keys: []string{"a", "b"}},
		{name: "syntax error", text: `{"a":`, wantErr: errs.ErrMalformedInput},
		{name: "array", text: `["a"]`, wantErr: errs.ErrMalformedInput},
		{name: "scalar", text: `"abc"`, wantErr: errs.ErrMalformedInput},
		{name: "trailing data", text: `{"a":1} {"b":2}`, wantErr: errs.ErrMalformedInput},
		{name: "not json", text: "client_id=abc", wantErr: errs.ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, outcome, err := Parse(tt.text)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, outcome)
			if tt.keys == nil {
				assert.Nil(t, r)
				return
			}
			assert.Equal(t, tt.keys, r.Keys())
		})
	}
}

func TestParse_KeepsIntegerLiterals(t *testing.T) {
	r, _, err := Parse(`{"big":9007199254740993,"nested":{"list":[1,"two",true,null]}}`)
	require.NoError(t, err)

	big, ok := r.Get("big")
	require.True(t, ok)
	assert.Equal(t, KindNumber, big.Kind())
	n, err := big.AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), n)

	nested, ok := r.Get("nested")
	require.True(t, ok)
	inner, err := nested.AsRecord()
	require.NoError(t, err)
	list, ok := inner.Get("list")
	require.True(t, ok)
	assert.Equal(t, "[1, two, true, ]", list.Text())
}

func TestValue_AsInt64(t *testing.T) {
	tests := []struct {
		name    string
		v       Value
		want    int64
		wantErr bool
	}{
		{name: "decimal string", v: String("3600"), want: 3600},
		{name: "negative string", v: String("-5"), want: -5},
		{name: "integer number", v: Int(42), want: 42},
		{name: "fraction", v: Number("1.5"), wantErr: true},
		{name: "hex string", v: String("0x10"), wantErr: true},
		{name: "padded string", v: String(" 10"), wantErr: true},
		{name: "word", v: String("forever"), wantErr: true},
		{name: "bool", v: Bool(true), wantErr: true},
		{name: "null", v: Null(), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.v.AsInt64()
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrInvalidNumericField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_AsStrings(t *testing.T) {
	got, err := Strings("read", "write").AsStrings()
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "write"}, got)

	_, err = List(String("read"), Int(1)).AsStrings()
	require.ErrorIs(t, err, errs.ErrInvalidFieldType)
	field, ok := errs.FieldOf(err)
	require.True(t, ok)
	assert.Equal(t, "[1]", field)

	_, err = String("read").AsStrings()
	assert.ErrorIs(t, err, errs.ErrInvalidFieldType)
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "read:data", String("read:data").Text())
	assert.Equal(t, "3600", Int(3600).Text())
	assert.Equal(t, "false", Bool(false).Text())
	assert.Equal(t, "[a, b]", Strings("a", "b").Text())
	assert.Equal(t, `{"k":"v"}`, Object(Record{"k": String("v")}).Text())
	assert.Equal(t, "", Null().Text())
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"s": "x",
		"i": 7,
		"f": 2.5,
		"l": []any{"a", int64(1)},
		"n": nil,
	})
	require.NoError(t, err)
	r, err := v.AsRecord()
	require.NoError(t, err)

	assert.Equal(t, "x", r["s"].Text())
	assert.Equal(t, "7", r["i"].Text())
	assert.Equal(t, "2.5", r["f"].Text())
	assert.Equal(t, "[a, 1]", r["l"].Text())
	assert.True(t, r["n"].IsNull())

	_, ok := r.Lookup("n")
	assert.False(t, ok)

	_, err = FromAny(struct{}{})
	assert.ErrorIs(t, err, errs.ErrInvalidFieldType)
}

func TestRecord_MarshalRoundTripsShapes(t *testing.T) {
	r := Record{
		"client_id": String("abc"),
		"validity":  Int(3600),
		"scopes":    Strings("read"),
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"client_id":"abc","validity":3600,"scopes":["read"]}`, string(b))

	y, err := yaml.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(y), "validity: 3600")
	assert.Contains(t, string(y), "client_id: abc")
}

func TestRecord_Merge(t *testing.T) {
	dst := Record{"a": String("old"), "keep": Bool(true)}
	dst.Merge(Record{"a": String("new"), "b": Int(1)})
	assert.Equal(t, []string{"a", "b", "keep"}, dst.Keys())
	assert.Equal(t, "new", dst["a"].Text())
}
