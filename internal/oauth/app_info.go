package oauth

import (
	"github.com/rs/zerolog"

	"github.com/TwigBush/kmpolicy/internal/record"
)

// AppInfoBuilder merges JSON into a caller-owned AppInfo.
type AppInfoBuilder struct {
	log zerolog.Logger
}

func NewAppInfoBuilder(logger zerolog.Logger) *AppInfoBuilder {
	return &AppInfoBuilder{log: logger.With().Str("component", "app_info_builder").Logger()}
}

// FromJSON copies client_id and client_secret from text into app and merges
// every member of text into app.Parameters, overwriting existing entries.
// app is mutated and returned as-is; no new AppInfo is ever allocated.
func (b *AppInfoBuilder) FromJSON(app *AppInfo, text string) (Result[*AppInfo], error) {
	params, outcome, err := record.Parse(text)
	if err != nil {
		b.log.Error().Err(err).Msg("error occurred while parsing oauth application JSON")
		return Result[*AppInfo]{}, err
	}

	switch {
	case outcome == record.OutcomeNoInput:
		return Result[*AppInfo]{Value: app, Outcome: Passthrough}, nil
	case outcome == record.OutcomeNull:
		return Result[*AppInfo]{Outcome: NoResult}, nil
	case app == nil:
		b.log.Debug().Msg("no oauth application supplied, nothing to merge into")
		return Result[*AppInfo]{Outcome: Passthrough}, nil
	}

	if err := applyCredentials(params, &app.ClientID, &app.ClientSecret); err != nil {
		return Result[*AppInfo]{}, err
	}
	if app.Parameters == nil {
		app.Parameters = make(record.Record, len(params))
	}
	app.Parameters.Merge(params)

	b.log.Debug().Strs("keys", params.Keys()).Msg("merged oauth application parameters")
	return Result[*AppInfo]{Value: app, Outcome: Built}, nil
}
