package oauth

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/TwigBush/kmpolicy/internal/errs"
	"github.com/TwigBush/kmpolicy/internal/record"
)

// TokenRequestBuilder fills a TokenRequest from JSON text or from an OAuth
// application. It keeps no state between calls.
type TokenRequestBuilder struct {
	log zerolog.Logger
}

func NewTokenRequestBuilder(logger zerolog.Logger) *TokenRequestBuilder {
	return &TokenRequestBuilder{log: logger.With().Str("component", "token_request_builder").Logger()}
}

// FromJSON merges client_id, client_secret and validity_period from text into
// req (a new request when req is nil).
//
// Empty text passes req through. A non-empty object always yields the request,
// even if none of the known members were present. null or {} yields NoResult.
func (b *TokenRequestBuilder) FromJSON(text string, req *TokenRequest) (Result[*TokenRequest], error) {
	if req == nil {
		b.log.Debug().Msg("input request is nil, creating a new request")
		req = &TokenRequest{}
	}

	params, outcome, err := record.Parse(text)
	if err != nil {
		b.log.Error().Err(err).Msg("error occurred while parsing token request JSON")
		return Result[*TokenRequest]{}, err
	}
	if outcome == record.OutcomeNoInput {
		b.log.Debug().Msg("token request JSON is empty")
		return Result[*TokenRequest]{Value: req, Outcome: Passthrough}, nil
	}
	if outcome == record.OutcomeNull || len(params) == 0 {
		return Result[*TokenRequest]{Outcome: NoResult}, nil
	}

	if err := applyCredentials(params, &req.ClientID, &req.ClientSecret); err != nil {
		return Result[*TokenRequest]{}, err
	}
	if v, key, ok := lookupFirst(params, KeyValidityPeriod, ParamValidityPeriod); ok {
		n, err := v.AsInt64()
		if err != nil {
			return Result[*TokenRequest]{}, errs.Field(key, err)
		}
		req.ValidityPeriod = int64Ptr(n)
	}

	return Result[*TokenRequest]{Value: req, Outcome: Built}, nil
}

// FromAppInfo copies the application's credentials, token scopes and
// validity period into req (a new request when req is nil).
//
// The tokenScope parameter of app is rewritten in place to its "[a, b]"
// string form, so the caller observes the change on its own AppInfo.
func (b *TokenRequestBuilder) FromAppInfo(app *AppInfo, req *TokenRequest) (Result[*TokenRequest], error) {
	if app == nil {
		return Result[*TokenRequest]{Value: req, Outcome: Passthrough}, nil
	}
	if app.ClientID == nil || app.ClientSecret == nil {
		return Result[*TokenRequest]{}, errs.ErrMissingCredentials
	}
	if req == nil {
		req = &TokenRequest{}
	}

	req.ClientID = strPtr(*app.ClientID)
	req.ClientSecret = strPtr(*app.ClientSecret)

	if v, ok := app.Parameter(ParamTokenScope); ok {
		scopes, err := scopesOf(v)
		if err != nil {
			return Result[*TokenRequest]{}, errs.Field(ParamTokenScope, err)
		}
		req.Scopes = scopes
		app.SetParameter(ParamTokenScope, record.String(record.JoinList(scopes)))
	}

	if v, key, ok := lookupFirst(app.Parameters, ParamValidityPeriod, KeyValidityPeriod); ok {
		n, err := v.AsInt64()
		if err != nil {
			return Result[*TokenRequest]{}, errs.Field(key, err)
		}
		req.ValidityPeriod = int64Ptr(n)
	}

	b.log.Debug().
		Str("client_id", *req.ClientID).
		Int("scopes", len(req.Scopes)).
		Msg("built token request from oauth application")

	return Result[*TokenRequest]{Value: req, Outcome: Built}, nil
}

// scopesOf accepts a list of strings, or the "[a, b]" string a previous call
// left behind. The string form is split on ", " only, the separator JoinList
// writes, so scopes containing spaces or bare commas survive a second call.
// A scope that itself contains ", " cannot round-trip.
func scopesOf(v record.Value) ([]string, error) {
	switch v.Kind() {
	case record.KindList:
		return v.AsStrings()
	case record.KindString:
		s, _ := v.AsString()
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		if s == "" {
			return []string{}, nil
		}
		return strings.Split(s, ", "), nil
	default:
		return nil, fmt.Errorf("%w: want list of strings, got %s", errs.ErrInvalidFieldType, v.Kind())
	}
}

// applyCredentials copies client_id / client_secret members when present.
func applyCredentials(params record.Record, id, secret **string) error {
	if v, ok := params.Lookup(KeyClientID); ok {
		s, err := v.AsString()
		if err != nil {
			return errs.Field(KeyClientID, err)
		}
		*id = strPtr(s)
	}
	if v, ok := params.Lookup(KeyClientSecret); ok {
		s, err := v.AsString()
		if err != nil {
			return errs.Field(KeyClientSecret, err)
		}
		*secret = strPtr(s)
	}
	return nil
}

// lookupFirst returns the first non-null member among keys.
func lookupFirst(r record.Record, keys ...string) (record.Value, string, bool) {
	for _, k := range keys {
		if v, ok := r.Lookup(k); ok {
			return v, k, true
		}
	}
	return record.Value{}, "", false
}
