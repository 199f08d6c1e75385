package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/TwigBush/kmpolicy/internal/config"
	"github.com/TwigBush/kmpolicy/internal/policy"
)

type configView struct {
	File       string         `json:"file"       yaml:"file"`
	KeyManager string         `json:"key_manager" yaml:"key_manager"`
	LogLevel   string         `json:"log_level"  yaml:"log_level"`
	Validation map[string]any `json:"validation" yaml:"validation"`
}

func cmdConfig() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create the key manager config",
	}
	c.AddCommand(cmdConfigShow(), cmdConfigCheck(), cmdConfigInit())
	return c
}

func cmdConfigShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective validation config",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, p, _, err := loadPolicy()
			if err != nil {
				return err
			}
			file := s.source
			if file == "" {
				file = "(none, defaults)"
			}
			return render(cmd.OutOrStdout(), configView{
				File:       file,
				KeyManager: s.KeyManager.Name,
				LogLevel:   s.LogLevel,
				Validation: p.Config().Describe(),
			})
		},
	}
}

func cmdConfigCheck() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fail when the validation config can never claim a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, _, err := loadPolicy()
			if err != nil {
				return err
			}
			if err := p.Config().Validate(); err != nil {
				return fmt.Errorf("validation config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func cmdConfigInit() *cobra.Command {
	var name, mode, value string
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(cfgPath); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", cfgPath)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			params := config.Parameters{policy.ParamEnable: mode != ""}
			switch policy.Mode(mode) {
			case policy.ModeDisabled:
			case policy.ModeRegex:
				params[policy.ParamType] = mode
				params[policy.ParamValue] = value
			case policy.ModeJWTClaims:
				params[policy.ParamType] = mode
				params[policy.ParamValue] = map[string]any{policy.SectionJWTBody: map[string]any{"scope": value}}
			default:
				return fmt.Errorf("unknown mode %q (want regex or jwt)", mode)
			}
			if _, err := policy.FromParameters(params); err != nil {
				return err
			}

			s := &Settings{KeyManager: KeyManager{Name: name, Parameters: params}, LogLevel: "info"}
			if err := saveSettings(cfgPath, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote config: %s\n", cfgPath)
			return nil
		},
	}
	c.Flags().StringVar(&name, "name", "default", "key manager name")
	c.Flags().StringVar(&mode, "mode", "", "validation mode: regex|jwt, empty to accept every token")
	c.Flags().StringVar(&value, "value", "", "regex pattern, or the scope claim pattern in jwt mode")
	c.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return c
}
