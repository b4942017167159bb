package disk

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds settings shared by the vsfs commands
type Config struct {
	DefaultInodes uint32 `mapstructure:"default_inodes" json:"default_inodes" yaml:"default_inodes"`
	LockImage     bool   `mapstructure:"lock_image" json:"lock_image" yaml:"lock_image"`
	LogLevel      string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	MountDebug    bool   `mapstructure:"mount_debug" json:"mount_debug" yaml:"mount_debug"`
	AllowOther    bool   `mapstructure:"allow_other" json:"allow_other" yaml:"allow_other"`
	Output        string `mapstructure:"output" json:"output" yaml:"output"`
}

// NewConfigLoader returns a viper instance with the vsfs search paths,
// defaults and environment binding applied.
func NewConfigLoader() *viper.Viper {
	v := viper.New()
	v.SetConfigName("vsfs-config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.vsfs")
	v.AddConfigPath("/etc/vsfs")

	v.SetDefault("default_inodes", 0)
	v.SetDefault("lock_image", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("mount_debug", false)
	v.SetDefault("allow_other", false)
	v.SetDefault("output", "table")

	v.SetEnvPrefix("VSFS")
	v.AutomaticEnv()

	return v
}

// LoadConfig reads the configuration file, if any, and unmarshals v into a Config.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Defaults apply without a config file
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
