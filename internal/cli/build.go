package cli

import (
	"github.com/spf13/cobra"

	"github.com/TwigBush/kmpolicy/internal/oauth"
	"github.com/TwigBush/kmpolicy/internal/record"
)

type tokenRequestOutput struct {
	Outcome string              `json:"outcome"           yaml:"outcome"`
	Request *oauth.TokenRequest `json:"request,omitempty" yaml:"request,omitempty"`
	App     *oauth.AppInfo      `json:"app,omitempty"     yaml:"app,omitempty"`
}

type appInfoOutput struct {
	Outcome string         `json:"outcome"       yaml:"outcome"`
	App     *oauth.AppInfo `json:"app,omitempty" yaml:"app,omitempty"`
}

func cmdBuild() *cobra.Command {
	c := &cobra.Command{
		Use:   "build",
		Short: "Normalize OAuth JSON into token requests and application records",
	}
	c.AddCommand(cmdBuildTokenRequest(), cmdBuildAppInfo())
	return c
}

func cmdBuildTokenRequest() *cobra.Command {
	var file, appFile string
	var showSecrets bool

	c := &cobra.Command{
		Use:   "token-request",
		Short: "Build a token request from JSON, optionally seeded from an application",
		Example: `  kmpolicy build token-request -f req.json
  kmpolicy build token-request --app app.json -f overrides.json -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cfgPath)
			if err != nil {
				return err
			}
			log := newLogger(s)
			builder := oauth.NewTokenRequestBuilder(log)

			var req *oauth.TokenRequest
			var app *oauth.AppInfo
			if appFile != "" {
				text, err := readText(appFile)
				if err != nil {
					return err
				}
				app = &oauth.AppInfo{Parameters: record.Record{}}
				if _, err := oauth.NewAppInfoBuilder(log).FromJSON(app, text); err != nil {
					return err
				}
				res, err := builder.FromAppInfo(app, nil)
				if err != nil {
					return err
				}
				req = res.Value
			}

			text, err := readText(file)
			if err != nil {
				return err
			}
			res, err := builder.FromJSON(text, req)
			if err != nil {
				return err
			}

			out := tokenRequestOutput{Outcome: res.Outcome.String(), Request: res.Value, App: app}
			if !showSecrets {
				if out.Request != nil {
					r := out.Request.Redacted()
					out.Request = &r
				}
				if out.App != nil {
					a := out.App.Redacted()
					out.App = &a
				}
			}
			return render(cmd.OutOrStdout(), out)
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "", "token request JSON, - for stdin")
	c.Flags().StringVar(&appFile, "app", "", "OAuth application JSON to seed the request from")
	c.Flags().BoolVar(&showSecrets, "show-secrets", false, "print client secrets instead of masking them")
	return c
}

func cmdBuildAppInfo() *cobra.Command {
	var file string
	var showSecrets bool

	c := &cobra.Command{
		Use:   "app-info",
		Short: "Build an OAuth application record from JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cfgPath)
			if err != nil {
				return err
			}
			text, err := readText(file)
			if err != nil {
				return err
			}
			res, err := oauth.NewAppInfoBuilder(newLogger(s)).FromJSON(&oauth.AppInfo{Parameters: record.Record{}}, text)
			if err != nil {
				return err
			}

			out := appInfoOutput{Outcome: res.Outcome.String(), App: res.Value}
			if out.App != nil && !showSecrets {
				a := out.App.Redacted()
				out.App = &a
			}
			return render(cmd.OutOrStdout(), out)
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "", "application JSON, - for stdin")
	c.Flags().BoolVar(&showSecrets, "show-secrets", false, "print client secrets instead of masking them")
	return c
}

// readText treats an empty path as empty input, which the builders pass
// through.
func readText(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := readInput(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
