package policy

import (
	"fmt"
	"regexp"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"

	"github.com/TwigBush/kmpolicy/internal/config"
	"github.com/TwigBush/kmpolicy/internal/errs"
)

// Key-manager configuration parameters read by FromParameters.
const (
	ParamEnable = "validation_enable"
	ParamType   = "validation_type"
	ParamValue  = "validation_value"

	// SectionJWTBody is the rule section matched against the token payload.
	SectionJWTBody = "body"
)

type Mode string

const (
	ModeDisabled  Mode = ""
	ModeRegex     Mode = "regex"
	ModeJWTClaims Mode = "jwt"
)

// ClaimRule matches one claim of the token payload.
type ClaimRule struct {
	Claim   string
	Pattern *regexp.Regexp
}

// RuleSection groups claim rules under a name such as "body".
type RuleSection struct {
	Name  string
	Rules []ClaimRule
}

// ValidationConfig decides which tokens a key manager claims. It is built
// once and never mutated.
type ValidationConfig struct {
	Enabled  bool           `json:"enabled"`
	Mode     Mode           `json:"mode"`
	Pattern  *regexp.Regexp `json:"pattern"`
	Sections []RuleSection  `json:"sections"`
}

// FromParameters reads validation_enable, validation_type and
// validation_value. When validation is disabled the other keys are ignored.
// Patterns are compiled here, so a bad pattern never reaches CanHandle.
func FromParameters(p config.Parameters) (ValidationConfig, error) {
	enabled, _, err := p.Bool(ParamEnable)
	if err != nil {
		return ValidationConfig{}, err
	}
	if !enabled {
		return ValidationConfig{}, nil
	}

	typ, _, err := p.String(ParamType)
	if err != nil {
		return ValidationConfig{}, err
	}
	cfg := ValidationConfig{Enabled: true, Mode: Mode(typ)}

	switch cfg.Mode {
	case ModeRegex:
		expr, _, err := p.String(ParamValue)
		if err != nil {
			return ValidationConfig{}, err
		}
		if expr != "" {
			re, err := compile(ParamValue, expr)
			if err != nil {
				return ValidationConfig{}, err
			}
			cfg.Pattern = re
		}
	case ModeJWTClaims:
		rules, _, err := p.NestedStringMap(ParamValue)
		if err != nil {
			return ValidationConfig{}, err
		}
		sections, err := compileSections(rules)
		if err != nil {
			return ValidationConfig{}, err
		}
		cfg.Sections = sections
	}
	return cfg, nil
}

// NewRegex is a shorthand for an enabled regex-mode config.
func NewRegex(expr string) (ValidationConfig, error) {
	return FromParameters(config.Parameters{
		ParamEnable: true,
		ParamType:   string(ModeRegex),
		ParamValue:  expr,
	})
}

// NewJWTClaims is a shorthand for an enabled JWT-claims config with a single
// body section.
func NewJWTClaims(body map[string]string) (ValidationConfig, error) {
	return FromParameters(config.Parameters{
		ParamEnable: true,
		ParamType:   string(ModeJWTClaims),
		ParamValue:  map[string]any{SectionJWTBody: lo.MapValues(body, func(v string, _ string) any { return v })},
	})
}

// Section returns the named rule section.
func (c ValidationConfig) Section(name string) (RuleSection, bool) {
	return lo.Find(c.Sections, func(s RuleSection) bool { return s.Name == name })
}

// Validate reports configurations that can never claim a token: an unknown
// mode, regex mode without a pattern, or JWT mode without body rules.
func (c ValidationConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Mode,
			validation.When(c.Enabled, validation.Required, validation.In(ModeRegex, ModeJWTClaims).Error("must be one of regex, jwt")),
		),
		validation.Field(&c.Pattern,
			validation.When(c.Enabled && c.Mode == ModeRegex, validation.Required.Error("is required in regex mode")),
		),
		validation.Field(&c.Sections,
			validation.When(c.Enabled && c.Mode == ModeJWTClaims,
				validation.By(func(any) error {
					if s, ok := c.Section(SectionJWTBody); !ok || len(s.Rules) == 0 {
						return fmt.Errorf("needs at least one %q rule in jwt mode", SectionJWTBody)
					}
					return nil
				}),
			),
		),
	)
}

// Describe renders the config as plain values for printing.
func (c ValidationConfig) Describe() map[string]any {
	out := map[string]any{"enabled": c.Enabled}
	if !c.Enabled {
		return out
	}
	out["mode"] = string(c.Mode)
	if c.Pattern != nil {
		out["pattern"] = c.Pattern.String()
	}
	if len(c.Sections) > 0 {
		sections := make(map[string]any, len(c.Sections))
		for _, s := range c.Sections {
			rules := make(map[string]string, len(s.Rules))
			for _, r := range s.Rules {
				rules[r.Claim] = r.Pattern.String()
			}
			sections[s.Name] = rules
		}
		out["rules"] = sections
	}
	return out
}

// compileSections orders sections and claims by name so the evaluation
// order, which decides short-circuits, is stable.
func compileSections(raw map[string]map[string]string) ([]RuleSection, error) {
	names := lo.Keys(raw)
	slices.Sort(names)

	sections := make([]RuleSection, 0, len(names))
	for _, name := range names {
		claims := lo.Keys(raw[name])
		slices.Sort(claims)

		section := RuleSection{Name: name, Rules: make([]ClaimRule, 0, len(claims))}
		for _, claim := range claims {
			re, err := compile(ParamValue+"."+name+"."+claim, raw[name][claim])
			if err != nil {
				return nil, err
			}
			section.Rules = append(section.Rules, ClaimRule{Claim: claim, Pattern: re})
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func compile(field, expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errs.Field(field, fmt.Errorf("%w: %v", errs.ErrInvalidPattern, err))
	}
	return re, nil
}
