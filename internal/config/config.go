package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL    = "http://localhost:8787/api"
	DefaultTimeout    = 120 * time.Second
	DefaultAPITimeout = 30 * time.Second
)

// Config holds runtime configuration values.
type Config struct {
	BaseURL    string
	Project    string
	Timeout    time.Duration
	APITimeout time.Duration
	Verbose    bool
	Quiet      bool
	JSON       bool
	ShowDebug  bool
	NoResume   bool
	LogFile    string
}

type rawConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Project    string `mapstructure:"project"`
	Timeout    string `mapstructure:"timeout"`
	APITimeout string `mapstructure:"api_timeout"`
	Verbose    bool   `mapstructure:"verbose"`
	Quiet      bool   `mapstructure:"quiet"`
	JSON       bool   `mapstructure:"json"`
	ShowDebug  bool   `mapstructure:"show_debug"`
	NoResume   bool   `mapstructure:"no_resume"`
	LogFile    string `mapstructure:"log_file"`
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("project", "")
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("api_timeout", DefaultAPITimeout.String())
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("json", false)
	v.SetDefault("show_debug", false)
	v.SetDefault("no_resume", false)
	v.SetDefault("log_file", "")

	if cmd != nil {
		_ = v.BindPFlag("base_url", cmd.Flags().Lookup("base-url"))
		_ = v.BindPFlag("project", cmd.Flags().Lookup("project"))
		_ = v.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
		_ = v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
		_ = v.BindPFlag("quiet", cmd.Flags().Lookup("quiet"))
		_ = v.BindPFlag("json", cmd.Flags().Lookup("json"))
		_ = v.BindPFlag("show_debug", cmd.Flags().Lookup("show-debug"))
		_ = v.BindPFlag("no_resume", cmd.Flags().Lookup("no-resume"))
		_ = v.BindPFlag("log_file", cmd.Flags().Lookup("log-file"))
	}

	// BP_TIMEOUT_SECONDS is a legacy spelling; an explicit --timeout flag
	// still wins, keeping flags at the top of the precedence chain.
	if seconds := os.Getenv("BP_TIMEOUT_SECONDS"); seconds != "" {
		if cmd == nil || !cmd.Flags().Changed("timeout") {
			v.Set("timeout", seconds+"s")
		}
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", Result: &raw})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	timeout := DefaultTimeout
	if raw.Timeout != "" {
		parsed, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		timeout = parsed
	}
	apiTimeout := DefaultAPITimeout
	if raw.APITimeout != "" {
		parsed, err := time.ParseDuration(raw.APITimeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid api_timeout duration: %w", err)
		}
		apiTimeout = parsed
	}

	cfg := Config{
		BaseURL:    raw.BaseURL,
		Project:    raw.Project,
		Timeout:    timeout,
		APITimeout: apiTimeout,
		Verbose:    raw.Verbose,
		Quiet:      raw.Quiet,
		JSON:       raw.JSON,
		ShowDebug:  raw.ShowDebug,
		NoResume:   raw.NoResume,
		LogFile:    raw.LogFile,
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.APITimeout <= 0 {
		cfg.APITimeout = DefaultAPITimeout
	}

	return cfg, nil
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "bp-cli")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}
