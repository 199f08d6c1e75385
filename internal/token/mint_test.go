package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint_ES384RoundTrip(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tok, err := Mint(map[string]any{"scope": "read:data", "aud": []string{"rs-1"}}, MintOptions{
		TTL: time.Hour,
		Now: func() time.Time { return fixed },
	})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(tok, "."))

	claims, err := ParseClaims(tok)
	require.NoError(t, err)

	scope, _ := claims.Get("scope")
	assert.Equal(t, "read:data", scope.Text())
	iat, _ := claims.Get("iat")
	assert.Equal(t, "1767323045", iat.Text())
	exp, _ := claims.Get("exp")
	assert.Equal(t, "1767326645", exp.Text())
	_, ok := claims.Get("jti")
	assert.True(t, ok)
}

func TestMint_HS256KeepsCallerClaims(t *testing.T) {
	tok, err := Mint(map[string]any{"jti": "fixed", "iat": 1}, MintOptions{Secret: []byte("s3cret")})
	require.NoError(t, err)

	claims, err := ParseClaims(tok)
	require.NoError(t, err)
	jti, _ := claims.Get("jti")
	assert.Equal(t, "fixed", jti.Text())
	iat, _ := claims.Get("iat")
	assert.Equal(t, "1", iat.Text())
	_, ok := claims.Get("exp")
	assert.False(t, ok)
}

func TestNewOpaque(t *testing.T) {
	a, err := NewOpaque()
	require.NoError(t, err)
	b, err := NewOpaque()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.False(t, LooksCompact(a))
}
