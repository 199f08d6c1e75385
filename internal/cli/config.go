package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/TwigBush/kmpolicy/internal/config"
	"github.com/TwigBush/kmpolicy/internal/logging"
	"github.com/TwigBush/kmpolicy/internal/policy"
)

const envPrefix = "KMPOLICY"

type KeyManager struct {
	Name       string            `yaml:"name"       mapstructure:"name"`
	Parameters config.Parameters `yaml:"parameters" mapstructure:"parameters"`
}

type Settings struct {
	KeyManager KeyManager `yaml:"key_manager" mapstructure:"key_manager"`
	LogLevel   string     `yaml:"log_level"   mapstructure:"log_level"`

	// path the settings were read from; empty when no file existed
	source string
}

func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.KeyManager),
		validation.Field(&s.LogLevel, validation.In("trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled")),
	)
}

func (k KeyManager) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.Name, validation.Required),
	)
}

// envParams are the parameters that can be overridden from the environment,
// e.g. KMPOLICY_KEY_MANAGER_PARAMETERS_VALIDATION_ENABLE=false. A JSON object
// is accepted for validation_value.
var envParams = []string{policy.ParamEnable, policy.ParamType, policy.ParamValue}

func loadSettings(path string) (*Settings, error) {
	if path == "" {
		path = defaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("key_manager.name", "default")
	v.SetDefault("log_level", "info")

	// Env overrides: KMPOLICY_LOG_LEVEL, KMPOLICY_KEY_MANAGER_NAME, ...
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, p := range envParams {
		_ = v.BindEnv("key_manager.parameters." + p)
	}

	found := true
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		found = false
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	// viper folds map keys to lower case, which would break claim names, so
	// parameters come straight from the file.
	s.KeyManager.Parameters = config.Parameters{}
	if found {
		s.source = path
		raw, err := rawParameters(path)
		if err != nil {
			return nil, err
		}
		s.KeyManager.Parameters = raw
	}
	for _, p := range envParams {
		if _, ok := os.LookupEnv(envKey("key_manager.parameters." + p)); ok {
			s.KeyManager.Parameters[p] = v.Get("key_manager.parameters." + p)
		}
	}
	return &s, nil
}

func rawParameters(path string) (config.Parameters, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		KeyManager struct {
			Parameters map[string]any `yaml:"parameters"`
		} `yaml:"key_manager"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if doc.KeyManager.Parameters == nil {
		return config.Parameters{}, nil
	}
	return config.Parameters(doc.KeyManager.Parameters), nil
}

func envKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func saveSettings(path string, s *Settings) error {
	if path == "" {
		path = defaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return writeFile(path, b, 0o600)
}

// loadPolicy reads the config file and compiles the key manager's
// validation parameters.
func loadPolicy() (*Settings, *policy.Policy, zerolog.Logger, error) {
	s, err := loadSettings(cfgPath)
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	log := newLogger(s)
	if err := s.Validate(); err != nil {
		return nil, nil, log, fmt.Errorf("invalid config: %w", err)
	}
	vc, err := policy.FromParameters(s.KeyManager.Parameters)
	if err != nil {
		return nil, nil, log, fmt.Errorf("key manager %q: %w", s.KeyManager.Name, err)
	}
	log = log.With().Str("key_manager", s.KeyManager.Name).Logger()
	return s, policy.New(vc, log), log, nil
}

// newLogger honours --log-level over the file's log_level.
func newLogger(s *Settings) zerolog.Logger {
	level := logLevel
	if level == "" && s != nil {
		level = s.LogLevel
	}
	return logging.New(logging.Options{JSON: logJSON, Level: level})
}
