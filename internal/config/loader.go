// Package config loads service settings from the environment, an optional
// .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "RESERVATIONS"

// Config captures the settings of the reservation service.
type Config struct {
	HTTPPort          int
	DatabaseDriver    string
	DatabaseDSN       string
	MigrationsEnabled bool

	OpenHour  int
	CloseHour int
	Timezone  string
	Location  *time.Location
	SpanMode  string

	LockBackend string
	RedisAddr   string
	LockTTL     time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel slog.Level
}

// EventsEnabled reports whether reservation events are published to Kafka.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 8080)
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "reservations.db")
	v.SetDefault("migrations_enabled", true)
	v.SetDefault("open_hour", 7)
	v.SetDefault("close_hour", 22)
	v.SetDefault("timezone", "Asia/Seoul")
	v.SetDefault("span_mode", "slot")
	v.SetDefault("lock_backend", "local")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("lock_ttl", "5s")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "reservation-events")
	v.SetDefault("log_level", "info")
	v.SetDefault("config_file", "")
}

// Load reads ./.env when present and then the process environment.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom loads the given dotenv files, skipping missing ones, and parses
// the resulting environment. Variables already set in the process win over
// dotenv values. RESERVATIONS_CONFIG_FILE may name a YAML, TOML or JSON file
// whose keys sit below environment variables in precedence.
func LoadFrom(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if file := strings.TrimSpace(v.GetString("config_file")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return parse(v)
}

func parse(v *viper.Viper) (Config, error) {
	var invalid []string
	key := func(name string) string {
		return EnvPrefix + "_" + strings.ToUpper(name)
	}
	intValue := func(name string, min, max int) int {
		value, err := strconv.Atoi(strings.TrimSpace(v.GetString(name)))
		if err != nil || value < min || value > max {
			invalid = append(invalid, key(name))
		}
		return value
	}
	boolValue := func(name string) bool {
		value, err := strconv.ParseBool(strings.TrimSpace(v.GetString(name)))
		if err != nil {
			invalid = append(invalid, key(name))
		}
		return value
	}
	oneOf := func(name string, allowed ...string) string {
		value := strings.ToLower(strings.TrimSpace(v.GetString(name)))
		for _, candidate := range allowed {
			if value == candidate {
				return value
			}
		}
		invalid = append(invalid, key(name))
		return value
	}

	cfg := Config{
		HTTPPort:          intValue("http_port", 1, 65535),
		DatabaseDriver:    oneOf("db_driver", "sqlite", "postgres"),
		DatabaseDSN:       strings.TrimSpace(v.GetString("db_dsn")),
		MigrationsEnabled: boolValue("migrations_enabled"),
		OpenHour:          intValue("open_hour", 0, 23),
		CloseHour:         intValue("close_hour", 0, 23),
		Timezone:          strings.TrimSpace(v.GetString("timezone")),
		SpanMode:          oneOf("span_mode", "slot", "range"),
		LockBackend:       oneOf("lock_backend", "local", "redis"),
		RedisAddr:         strings.TrimSpace(v.GetString("redis_addr")),
		KafkaTopic:        strings.TrimSpace(v.GetString("kafka_topic")),
	}

	if cfg.DatabaseDSN == "" {
		invalid = append(invalid, key("db_dsn"))
	}
	if cfg.OpenHour > cfg.CloseHour {
		invalid = append(invalid, key("open_hour"))
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		invalid = append(invalid, key("timezone"))
	}
	cfg.Location = location

	ttl, err := time.ParseDuration(strings.TrimSpace(v.GetString("lock_ttl")))
	if err != nil || ttl <= 0 {
		invalid = append(invalid, key("lock_ttl"))
	}
	cfg.LockTTL = ttl

	if cfg.LockBackend == "redis" && cfg.RedisAddr == "" {
		invalid = append(invalid, key("redis_addr"))
	}

	for _, broker := range strings.Split(v.GetString("kafka_brokers"), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
		}
	}
	if cfg.EventsEnabled() && cfg.KafkaTopic == "" {
		invalid = append(invalid, key("kafka_topic"))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v.GetString("log_level")))); err != nil {
		invalid = append(invalid, key("log_level"))
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}
