package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// ScheduleConfig defines scheduling specific configuration.
type ScheduleConfig struct {
	// Timezone is the IANA zone all "today" decisions are made in. Missed
	// detection and cycle boundaries use this zone's local calendar day.
	Timezone string `mapstructure:"timezone"`
	// SweepSpec is the cron expression for the nightly reconcile/archive
	// sweep.
	SweepSpec string `mapstructure:"sweep_spec"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variables override the file, with nested keys mapped as
	// schedule.timezone -> SCHEDULE_TIMEZONE.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "adaptive_fitness")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("schedule.timezone", "UTC")
	// Shortly after midnight so sessions that became "missed" at the day
	// boundary are swept before the first morning app load.
	viper.SetDefault("schedule.sweep_spec", "0 10 0 * * *")

	err = viper.ReadInConfig()
	// A missing config file is fine; defaults and env vars cover every key.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
