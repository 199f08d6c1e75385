package oauth

import "github.com/TwigBush/kmpolicy/internal/record"

// Well-known JSON members and app-info parameters.
const (
	KeyClientID         = "client_id"
	KeyClientSecret     = "client_secret"
	KeyValidityPeriod   = "validity_period"
	ParamTokenScope     = "tokenScope"
	ParamValidityPeriod = "validityPeriod"
)

// TokenRequest accumulates the parameters sent to a key manager to obtain a
// token. Nil fields have not been supplied by any source yet.
type TokenRequest struct {
	ClientID       *string  `json:"clientId,omitempty"       yaml:"clientId,omitempty"`
	ClientSecret   *string  `json:"clientSecret,omitempty"   yaml:"clientSecret,omitempty"`
	ValidityPeriod *int64   `json:"validityPeriod,omitempty" yaml:"validityPeriod,omitempty"`
	Scopes         []string `json:"scopes,omitempty"         yaml:"scopes,omitempty"`
}

const redacted = "***redacted***"

// Redacted returns a copy safe to print, with the client secret masked.
func (r TokenRequest) Redacted() TokenRequest {
	if r.ClientSecret != nil {
		r.ClientSecret = strPtr(redacted)
	}
	return r
}

// AppInfo is an OAuth application as known to a key manager. Parameters holds
// every member ever merged in, including client_id and client_secret.
type AppInfo struct {
	ClientID     *string       `json:"clientId,omitempty"     yaml:"clientId,omitempty"`
	ClientSecret *string       `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	Parameters   record.Record `json:"parameters,omitempty"   yaml:"parameters,omitempty"`
}

// Parameter returns the named parameter; JSON null counts as absent.
func (a *AppInfo) Parameter(name string) (record.Value, bool) {
	return a.Parameters.Lookup(name)
}

// Redacted returns a copy safe to print. The client secret is masked both as
// a field and as a parameter; a's own Parameters are left alone.
func (a AppInfo) Redacted() AppInfo {
	if a.ClientSecret != nil {
		a.ClientSecret = strPtr(redacted)
	}
	if _, ok := a.Parameters[KeyClientSecret]; ok {
		params := make(record.Record, len(a.Parameters))
		params.Merge(a.Parameters)
		params[KeyClientSecret] = record.String(redacted)
		a.Parameters = params
	}
	return a
}

// SetParameter stores v under name, allocating Parameters when needed.
func (a *AppInfo) SetParameter(name string, v record.Value) {
	if a.Parameters == nil {
		a.Parameters = record.Record{}
	}
	a.Parameters[name] = v
}

// Outcome distinguishes the successful paths of a build.
type Outcome uint8

const (
	// Passthrough means there was nothing to merge; Value is the accumulator
	// as supplied (or a fresh one).
	Passthrough Outcome = iota
	// Built means input was merged into Value.
	Built
	// NoResult means the input parsed to null or an empty object and no
	// value could be derived. Value is nil.
	NoResult
)

func (o Outcome) String() string {
	switch o {
	case Passthrough:
		return "passthrough"
	case Built:
		return "built"
	case NoResult:
		return "no_result"
	default:
		return "unknown"
	}
}

// Result pairs a built value with how it was produced.
type Result[T any] struct {
	Value   T
	Outcome Outcome
}

// Ok reports whether a value was produced.
func (r Result[T]) Ok() bool { return r.Outcome != NoResult }

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }
