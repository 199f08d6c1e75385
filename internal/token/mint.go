package token

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

// MintOptions controls Mint. The zero value signs with a throwaway ES384 key
// and sets no expiry.
type MintOptions struct {
	// Secret switches to HS256 with this key.
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// Mint signs claims into a compact JWS for exercising a token policy. iat and
// jti are added unless already present, exp only when TTL is set.
func Mint(claims map[string]any, opts MintOptions) (string, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	t := now().UTC()

	payload := make(map[string]any, len(claims)+3)
	maps.Copy(payload, claims)
	if _, ok := payload["iat"]; !ok {
		payload["iat"] = t.Unix()
	}
	if _, ok := payload["jti"]; !ok {
		payload["jti"] = uuid.NewString()
	}
	if _, ok := payload["exp"]; !ok && opts.TTL > 0 {
		payload["exp"] = t.Add(opts.TTL).Unix()
	}

	pb, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	withKey, err := signingKey(opts.Secret)
	if err != nil {
		return "", err
	}
	signed, err := jws.Sign(pb, withKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

func signingKey(secret []byte) (jws.SignOption, error) {
	if len(secret) > 0 {
		return jws.WithKey(jwa.HS256(), secret), nil
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	privKey, err := jwk.Import(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to import private key: %w", err)
	}
	return jws.WithKey(jwa.ES384(), privKey), nil
}
