package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTL      string `yaml:"token_ttl"`
		CoachEmail    string `yaml:"coach_email"`
		CoachPassword string `yaml:"coach_password"`
	} `yaml:"auth"`
	Questions struct {
		TTL string `yaml:"ttl"`
	} `yaml:"questions"`
	Training struct {
		Retention string `yaml:"retention"`
	} `yaml:"training"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets deployments inject secrets and connection strings.
func applyEnv(cfg *Config) {
	override(&cfg.Server.Port, "PORT")
	override(&cfg.Mongo.URI, "MONGO_URI")
	override(&cfg.Postgres.URL, "POSTGRES_URL")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Redis.Password, "REDIS_PASSWORD")
	override(&cfg.RabbitMQ.URL, "RABBITMQ_URL")
	override(&cfg.Auth.JWTSecret, "JWT_SECRET")
	override(&cfg.Auth.CoachEmail, "COACH_EMAIL")
	override(&cfg.Auth.CoachPassword, "COACH_PASSWORD")
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "mindcoach"
	}
}

func override(field *string, env string) {
	if v := os.Getenv(env); v != "" {
		*field = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
