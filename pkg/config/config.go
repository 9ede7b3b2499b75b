package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all settings.
type Config struct {
	Source  SourceConfig  `mapstructure:"source" yaml:"source"`
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
	Decrypt DecryptConfig `mapstructure:"decrypt" yaml:"decrypt"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// SourceConfig says where archives live.
type SourceConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider"` // local, aws, qiniu, aliyun
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

// ExtractConfig controls extraction.
type ExtractConfig struct {
	Dir      string   `mapstructure:"dir" yaml:"dir"`           // destination directory
	Includes []string `mapstructure:"includes" yaml:"includes"` // include patterns
	Excludes []string `mapstructure:"excludes" yaml:"excludes"` // exclude patterns
}

// DecryptConfig controls container decryption.
type DecryptConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Password string `mapstructure:"password" yaml:"password"` // derives the keys
	KeyFile  string `mapstructure:"key_file" yaml:"key_file"` // or use a key file directly
}

// DisplayConfig controls terminal output.
type DisplayConfig struct {
	Progress bool `mapstructure:"progress" yaml:"progress"`
}

// LoadConfig loads settings from the env file, the config file and the
// environment, in rising precedence.
func LoadConfig(configPath, envPath string) (*Config, error) {
	if err := loadEnvFile(envPath); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".untar")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.AddConfigPath("$HOME/.config/untar")
	}

	// A missing config file is fine, defaults apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("UNTAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Progress defaults on; a bool zero value cannot express that after
	// unmarshalling, so it is set on the viper layer.
	v.SetDefault("display.progress", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&cfg)

	return &cfg, nil
}

// loadEnvFile loads envPath, or probes the default locations.
func loadEnvFile(envPath string) error {
	if envPath != "" {
		return godotenv.Load(envPath)
	}

	paths := []string{
		".untar.env",
		filepath.Join(os.Getenv("HOME"), ".untar.env"),
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return godotenv.Load(path)
		}
	}

	return nil
}

// setDefaults fills unset fields.
func setDefaults(cfg *Config) {
	if cfg.Source.Provider == "" {
		cfg.Source.Provider = "local"
	}
	if cfg.Source.Region == "" {
		cfg.Source.Region = "us-east-1"
	}

	if cfg.Extract.Dir == "" {
		cfg.Extract.Dir = "."
	}
}

// GetAccessKey returns the access key, config over environment.
func (c *Config) GetAccessKey() string {
	if c.Source.AccessKey != "" {
		return c.Source.AccessKey
	}
	return os.Getenv("UNTAR_ACCESS_KEY")
}

// GetSecretKey returns the secret key, config over environment.
func (c *Config) GetSecretKey() string {
	if c.Source.SecretKey != "" {
		return c.Source.SecretKey
	}
	return os.Getenv("UNTAR_SECRET_KEY")
}

// GetPassword returns the decryption password, config over environment.
func (c *Config) GetPassword() string {
	if c.Decrypt.Password != "" {
		return c.Decrypt.Password
	}
	return os.Getenv("UNTAR_PASSWORD")
}

// Validate checks the configuration for contradictions. Credentials are
// not required here: local archives need none, and remote sources check
// them when constructed.
func (c *Config) Validate() error {
	switch c.Source.Provider {
	case "local", "aws", "qiniu", "aliyun":
	default:
		return fmt.Errorf("unknown source provider: %s", c.Source.Provider)
	}

	if c.Decrypt.Enabled {
		if c.GetPassword() == "" && c.Decrypt.KeyFile == "" {
			return fmt.Errorf("decrypt password or key_file is required when decryption is enabled")
		}
	}

	return nil
}

// SaveConfig writes cfg to configPath. The file must not already exist.
func SaveConfig(cfg *Config, configPath string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("source", cfg.Source)
	v.Set("extract", cfg.Extract)
	v.Set("decrypt", cfg.Decrypt)
	v.Set("display", cfg.Display)

	if err := v.SafeWriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
