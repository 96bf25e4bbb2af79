package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/datasense-cli/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const dirName = ".datasense"

// Global configuration structure.
type Global struct {
	ServiceURL string `mapstructure:"service_url" yaml:"service_url"`
	UploadPath string `mapstructure:"upload_path" yaml:"upload_path"`
	QueryPath  string `mapstructure:"query_path" yaml:"query_path"`
	// 0 leaves request lifetime to the transport defaults
	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	// reject | queue
	QueryPolicy string `mapstructure:"query_policy" yaml:"query_policy"`

	// Diagnostics
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// Local stub service
	StubAddr string `mapstructure:"stub_addr" yaml:"stub_addr"`
}

// DefaultPath returns ~/.datasense/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datasense/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; a .env file in the working
// directory feeds the environment without overriding variables already set.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DATASENSE")
	v.AutomaticEnv()

	v.SetDefault("service_url", "http://127.0.0.1:8000")
	v.SetDefault("upload_path", "/upload")
	v.SetDefault("query_path", "/query")
	v.SetDefault("http_timeout_sec", 0)
	v.SetDefault("query_policy", "reject")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("stub_addr", "127.0.0.1:8000")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.HTTPTimeoutSec < 0 {
		return nil, fmt.Errorf("invalid http_timeout_sec: %d", c.HTTPTimeoutSec)
	}
	return &c, nil
}
