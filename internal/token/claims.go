package token

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jws"

	"github.com/TwigBush/kmpolicy/internal/errs"
	"github.com/TwigBush/kmpolicy/internal/record"
)

// Claims is the payload of a signed token. It is read-only for callers.
type Claims record.Record

// Get returns the named claim; JSON null counts as absent.
func (c Claims) Get(name string) (record.Value, bool) {
	return record.Record(c).Lookup(name)
}

func (c Claims) Names() []string { return record.Record(c).Keys() }

// LooksCompact is the cheap pre-check used before attempting a parse.
func LooksCompact(tok string) bool {
	return strings.Contains(tok, ".")
}

// ParseClaims parses tok as a compact serialized JWS and returns its claim
// set. The signature is not verified and expiry is not checked.
func ParseClaims(tok string) (Claims, error) {
	if strings.Count(tok, ".") != 2 {
		return nil, fmt.Errorf("%w: want 3 segments, got %d", errs.ErrClaimsParse, strings.Count(tok, ".")+1)
	}
	msg, err := jws.Parse([]byte(tok))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrClaimsParse, err)
	}
	if err := checkSigned(msg); err != nil {
		return nil, err
	}
	payload, outcome, err := record.ParseBytes(msg.Payload())
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", errs.ErrClaimsParse, err)
	}
	if outcome != record.OutcomeObject {
		return nil, fmt.Errorf("%w: payload is not a claim set", errs.ErrClaimsParse)
	}
	return Claims(payload), nil
}

// checkSigned rejects unsecured tokens: a protected header without alg, or
// with alg "none".
func checkSigned(msg *jws.Message) error {
	sigs := msg.Signatures()
	if len(sigs) == 0 || sigs[0].ProtectedHeaders() == nil {
		return fmt.Errorf("%w: not a JWS header", errs.ErrClaimsParse)
	}
	alg, ok := sigs[0].ProtectedHeaders().Algorithm()
	if !ok || alg.String() == "" {
		return fmt.Errorf("%w: missing alg", errs.ErrClaimsParse)
	}
	if strings.EqualFold(alg.String(), "none") {
		return fmt.Errorf("%w: unsecured token (alg none)", errs.ErrClaimsParse)
	}
	return nil
}

// Fingerprint is a short, non-reversible label for a token, safe to log.
func Fingerprint(tok string) string {
	if tok == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(tok))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:12]
}
