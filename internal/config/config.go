package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type XeroConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AuthorizeURL string `mapstructure:"authorize_url"`
	TokenURL     string `mapstructure:"token_url"`
	APIBaseURL   string `mapstructure:"api_base_url"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	Scopes       string `mapstructure:"scopes"`
}

type LakeConfig struct {
	Bucket         string `mapstructure:"bucket"`
	Prefix         string `mapstructure:"prefix"`
	CredentialsKey string `mapstructure:"credentials_key"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	TemporalHostPort  string        `mapstructure:"temporal_host_port"`
	TemporalNamespace string        `mapstructure:"temporal_namespace"`
	SyncTimeout       time.Duration `mapstructure:"sync_timeout"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
}

type Config struct {
	DatabaseURL string       `mapstructure:"database_url"`
	ServerPort  string       `mapstructure:"server_port"`
	JWTSecret   string       `mapstructure:"jwt_secret"`
	Xero        XeroConfig   `mapstructure:"xero"`
	Lake        LakeConfig   `mapstructure:"lake"`
	Redis       RedisConfig  `mapstructure:"redis"`
	Worker      WorkerConfig `mapstructure:"worker"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	if config.Xero.AuthorizeURL == "" {
		config.Xero.AuthorizeURL = "https://login.xero.com/identity/connect/authorize"
	}
	if config.Xero.TokenURL == "" {
		config.Xero.TokenURL = "https://identity.xero.com/connect/token"
	}
	if config.Xero.APIBaseURL == "" {
		config.Xero.APIBaseURL = "https://api.xero.com/api.xro/2.0"
	}
	if config.Xero.Scopes == "" {
		config.Xero.Scopes = "offline_access accounting.settings.read accounting.contacts.read accounting.transactions.read accounting.journals.read"
	}

	if config.Worker.TemporalHostPort == "" {
		config.Worker.TemporalHostPort = "localhost:7233"
	}
	if config.Worker.TemporalNamespace == "" {
		config.Worker.TemporalNamespace = "default"
	}
	if config.Worker.SyncTimeout == 0 {
		config.Worker.SyncTimeout = 30 * time.Minute
	}
	if config.Worker.LockTTL == 0 {
		config.Worker.LockTTL = 10 * time.Minute
	}

	return &config
}
