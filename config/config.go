package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host           string `mapstructure:"host"`
		Port           string `mapstructure:"port"`
		User           string `mapstructure:"user"`
		Password       string `mapstructure:"password"`
		Name           string `mapstructure:"name"`
		SSLMode        string `mapstructure:"sslmode"`
		MaxOpenConns   int    `mapstructure:"max_open_conns"`
		MaxIdleConns   int    `mapstructure:"max_idle_conns"`
		AutoMigrate    bool   `mapstructure:"auto_migrate"`
		MigrationsPath string `mapstructure:"migrations_path"`
	} `mapstructure:"database"`
	Server struct {
		Port            string        `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"jwt"`
	Redis struct {
		Enabled  bool   `mapstructure:"enabled"`
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Cache struct {
		AccountsTTL time.Duration `mapstructure:"accounts_ttl"`
	} `mapstructure:"cache"`
	Ledger struct {
		MaxRetries           uint          `mapstructure:"max_retries"`
		RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
	} `mapstructure:"ledger"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.migrations_path", "file://db/migrations")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("cache.accounts_ttl", time.Minute)
	v.SetDefault("ledger.max_retries", 3)
	v.SetDefault("ledger.retry_initial_interval", 50*time.Millisecond)
	v.SetDefault("log.level", "info")
}

// Load reads config.yml from path into a fresh Config. Environment variables
// override file values, e.g. DATABASE_HOST for database.host.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Error loading config, %s", err)
	}
	AppConfig = cfg
}
