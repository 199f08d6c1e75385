package policy

import (
	"github.com/rs/zerolog"

	"github.com/TwigBush/kmpolicy/internal/token"
)

type Reason string

const (
	ReasonValidationDisabled Reason = "validation_disabled"
	ReasonPatternMatched     Reason = "pattern_matched"
	ReasonPatternNotMatched  Reason = "pattern_not_matched"
	ReasonNoPattern          Reason = "no_pattern"
	ReasonClaimMatched       Reason = "claim_matched"
	ReasonClaimMissing       Reason = "claim_missing"
	ReasonNoClaimMatched     Reason = "no_claim_matched"
	ReasonNotCompact         Reason = "not_compact"
	ReasonUnknownMode        Reason = "unknown_mode"
)

// Decision says whether this key manager should go on to validate a token.
// Claim names the rule that decided a JWT-mode evaluation.
type Decision struct {
	Handle bool   `json:"handle" yaml:"handle"`
	Reason Reason `json:"reason" yaml:"reason"`
	Claim  string `json:"claim,omitempty" yaml:"claim,omitempty"`
}

// Checker is what callers need before attempting remote validation.
type Checker interface {
	CanHandle(tok string) (bool, error)
}

// Policy evaluates a ValidationConfig. It is safe for concurrent use.
type Policy struct {
	cfg ValidationConfig
	log zerolog.Logger
}

var _ Checker = (*Policy)(nil)

func New(cfg ValidationConfig, logger zerolog.Logger) *Policy {
	return &Policy{cfg: cfg, log: logger.With().Str("component", "token_policy").Logger()}
}

func (p *Policy) Config() ValidationConfig { return p.cfg }

// WithLogger returns a copy of p that logs to logger, e.g. one tagged with a
// trace id. The compiled config is shared.
func (p *Policy) WithLogger(logger zerolog.Logger) *Policy {
	return &Policy{cfg: p.cfg, log: logger.With().Str("component", "token_policy").Logger()}
}

// CanHandle reports whether tok should be validated by this key manager.
// The only error is errs.ErrClaimsParse, for a dotted token in JWT mode that
// does not parse.
func (p *Policy) CanHandle(tok string) (bool, error) {
	d, err := p.Evaluate(tok)
	return d.Handle, err
}

// Evaluate is CanHandle with the reason attached.
//
// Disabled validation accepts everything. Regex mode searches the token for
// the pattern anywhere. JWT mode walks the body rules in order: a missing
// claim declines at once, the first matching claim accepts.
func (p *Policy) Evaluate(tok string) (Decision, error) {
	d, err := p.evaluate(tok)
	if err != nil {
		p.log.Warn().Err(err).Str("token_fp", token.Fingerprint(tok)).Msg("token could not be parsed for claim matching")
		return Decision{}, err
	}
	p.log.Debug().
		Str("token_fp", token.Fingerprint(tok)).
		Bool("handle", d.Handle).
		Str("reason", string(d.Reason)).
		Str("claim", d.Claim).
		Msg("token handling decision")
	return d, nil
}

func (p *Policy) evaluate(tok string) (Decision, error) {
	if !p.cfg.Enabled {
		return Decision{Handle: true, Reason: ReasonValidationDisabled}, nil
	}

	switch {
	case p.cfg.Mode == ModeRegex:
		if p.cfg.Pattern == nil || p.cfg.Pattern.String() == "" {
			return Decision{Reason: ReasonNoPattern}, nil
		}
		if p.cfg.Pattern.MatchString(tok) {
			return Decision{Handle: true, Reason: ReasonPatternMatched}, nil
		}
		return Decision{Reason: ReasonPatternNotMatched}, nil

	case p.cfg.Mode == ModeJWTClaims && token.LooksCompact(tok):
		claims, err := token.ParseClaims(tok)
		if err != nil {
			return Decision{}, err
		}
		return p.matchClaims(claims), nil

	case p.cfg.Mode == ModeJWTClaims:
		return Decision{Reason: ReasonNotCompact}, nil
	}
	return Decision{Reason: ReasonUnknownMode}, nil
}

// matchClaims is first-match-wins across the body rules, not all-must-match.
func (p *Policy) matchClaims(claims token.Claims) Decision {
	for _, section := range p.cfg.Sections {
		if section.Name != SectionJWTBody {
			continue
		}
		for _, rule := range section.Rules {
			v, ok := claims.Get(rule.Claim)
			if !ok {
				return Decision{Reason: ReasonClaimMissing, Claim: rule.Claim}
			}
			if rule.Pattern.MatchString(v.Text()) {
				return Decision{Handle: true, Reason: ReasonClaimMatched, Claim: rule.Claim}
			}
		}
	}
	return Decision{Reason: ReasonNoClaimMatched}
}
