package token

import (
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwigBush/kmpolicy/internal/errs"
)

func mint(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestParseClaims(t *testing.T) {
	tok := mint(t, jwt.MapClaims{
		"sub":   "alice",
		"scope": "read:data",
		"exp":   1700000000,
		"aud":   []string{"rs-1", "rs-2"},
		"azp":   nil,
	})

	claims, err := ParseClaims(tok)
	require.NoError(t, err)

	scope, ok := claims.Get("scope")
	require.True(t, ok)
	assert.Equal(t, "read:data", scope.Text())

	exp, ok := claims.Get("exp")
	require.True(t, ok)
	assert.Equal(t, "1700000000", exp.Text())

	aud, ok := claims.Get("aud")
	require.True(t, ok)
	assert.Equal(t, "[rs-1, rs-2]", aud.Text())

	_, ok = claims.Get("azp")
	assert.False(t, ok, "null claim counts as absent")

	_, ok = claims.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"aud", "azp", "exp", "scope", "sub"}, claims.Names())
}

func TestParseClaims_Malformed(t *testing.T) {
	b64 := base64.RawURLEncoding.EncodeToString
	header := b64([]byte(`{"alg":"HS256","typ":"JWT"}`))

	tests := []struct {
		name string
		tok  string
	}{
		{name: "two segments", tok: "abc.def"},
		{name: "four segments", tok: "a.b.c.d"},
		{name: "garbage segments", tok: "not.a.jwt"},
		{name: "payload not json", tok: header + "." + b64([]byte("hello")) + ".sig"},
		{name: "payload is array", tok: header + "." + b64([]byte(`["a"]`)) + ".sig"},
		{name: "payload is null", tok: header + "." + b64([]byte(`null`)) + ".sig"},
		{name: "alg none", tok: b64([]byte(`{"alg":"none"}`)) + "." + b64([]byte(`{"scope":"read:data"}`)) + "."},
		{name: "alg none with signature", tok: b64([]byte(`{"alg":"none","typ":"JWT"}`)) + "." + b64([]byte(`{"scope":"read:data"}`)) + ".sig"},
		{name: "no alg", tok: b64([]byte(`{"typ":"JWT"}`)) + "." + b64([]byte(`{"scope":"read:data"}`)) + ".sig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClaims(tt.tok)
			assert.ErrorIs(t, err, errs.ErrClaimsParse)
		})
	}
}

func TestLooksCompact(t *testing.T) {
	assert.True(t, LooksCompact("a.b.c"))
	assert.True(t, LooksCompact("."))
	assert.False(t, LooksCompact("opaque-token-value"))
	assert.False(t, LooksCompact(""))
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "", Fingerprint(""))
	fp := Fingerprint("secret-token")
	assert.Len(t, fp, 12)
	assert.Equal(t, fp, Fingerprint("secret-token"))
	assert.NotEqual(t, fp, Fingerprint("secret-token2"))
	assert.NotContains(t, fp, "secret")
}
