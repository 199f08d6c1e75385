package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	output   string
	cfgPath  string
	logJSON  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "kmpolicy",
	Short: "Key manager token policy and OAuth request tooling",
}

func Execute() error { return rootCmd.Execute() }

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kmpolicy", "config.yaml")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "output format: json|yaml")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON instead of console text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides log_level from the config file")

	rootCmd.AddCommand(cmdCheck(), cmdBuild(), cmdConfig(), cmdToken(), cmdVersion())

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:   "help",
		Short: "Show help",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Root().Help()
		},
	})
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		fmt.Println("Use -h for help, for example: kmpolicy check --token eyJhbGciOi...")
	}
}
