package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwigBush/kmpolicy/internal/errs"
)

func TestParameters_Bool(t *testing.T) {
	tests := []struct {
		name    string
		params  Parameters
		want    bool
		wantOK  bool
		wantErr bool
	}{
		{name: "absent", params: Parameters{}, want: false, wantOK: false},
		{name: "nil value", params: Parameters{"validation_enable": nil}, want: false, wantOK: false},
		{name: "bool", params: Parameters{"validation_enable": true}, want: true, wantOK: true},
		{name: "string true", params: Parameters{"validation_enable": "true"}, want: true, wantOK: true},
		{name: "string false", params: Parameters{"validation_enable": "false"}, want: false, wantOK: true},
		{name: "garbage", params: Parameters{"validation_enable": "sometimes"}, wantOK: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := tt.params.Bool("validation_enable")
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrInvalidParameter)
				field, _ := errs.FieldOf(err)
				assert.Equal(t, "validation_enable", field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParameters_String(t *testing.T) {
	p := Parameters{
		"validation_type":  "regex",
		"validation_value": map[string]any{"body": map[string]any{}},
	}

	s, ok, err := p.String("validation_type")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "regex", s)

	_, ok, err = p.String("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = p.String("validation_value")
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestParameters_NestedStringMap(t *testing.T) {
	p := Parameters{
		// YAML v2 style maps decode with interface keys
		"validation_value": map[any]any{
			"body": map[string]any{"scope": "read.*", "azp": "client-1"},
		},
		"flat":       "nope",
		"deep_value": map[string]any{"body": map[string]any{"scope": []any{"a"}}},
	}

	m, ok, err := p.NestedStringMap("validation_value")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]map[string]string{
		"body": {"scope": "read.*", "azp": "client-1"},
	}, m)

	_, _, err = p.NestedStringMap("flat")
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	_, _, err = p.NestedStringMap("deep_value")
	require.ErrorIs(t, err, errs.ErrInvalidParameter)
	field, _ := errs.FieldOf(err)
	assert.Equal(t, "deep_value.body", field)
}

func TestParameters_StringMap(t *testing.T) {
	p := Parameters{"claims": map[string]any{"scope": "read", "n": 3}}
	m, ok, err := p.StringMap("claims")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"scope": "read", "n": "3"}, m)
}

func TestParameters_Keys(t *testing.T) {
	p := Parameters{"b": 1, "a": 2, "c": nil}
	assert.Equal(t, []string{"a", "b", "c"}, p.Keys())
	assert.False(t, p.Has("c"))
}
