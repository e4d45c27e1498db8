package configs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"restaurant-service/internal/shared/validate"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	DB        DBConfig        `koanf:"db"`
	Redis     RedisConfig     `koanf:"redis"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	S3        S3Config        `koanf:"s3"`
	JWT       JWTConfig       `koanf:"jwt"`
	Log       LogConfig       `koanf:"log"`
	OTEL      OTELConfig      `koanf:"otel"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

type AppConfig struct {
	Port        string `koanf:"port" validate:"required"`
	Env         string `koanf:"env"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

type DBConfig struct {
	Driver       string        `koanf:"driver" validate:"oneof=postgres sqlite"`
	Host         string        `koanf:"host"`
	Port         string        `koanf:"port"`
	User         string        `koanf:"user"`
	Password     string        `koanf:"password"`
	Name         string        `koanf:"name"`
	Path         string        `koanf:"path"`
	Replicas     string        `koanf:"replicas"` // comma separated DSNs
	MaxOpenConns int           `koanf:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnLifetime time.Duration `koanf:"conn_lifetime"`
}

type RedisConfig struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
	DB   int    `koanf:"db"`
}

type KafkaConfig struct {
	BootstrapServers string `koanf:"bootstrap_servers"`
	RelationsTopic   string `koanf:"relations_topic"`
	RequiredAcks     string `koanf:"required_acks" validate:"oneof=none one all"`
}

type S3Config struct {
	Endpoint   string        `koanf:"endpoint"`
	AccessKey  string        `koanf:"access_key"`
	SecretKey  string        `koanf:"secret_key"`
	UseSSL     bool          `koanf:"use_ssl"`
	Bucket     string        `koanf:"bucket"`
	PresignTTL time.Duration `koanf:"presign_ttl"`
}

type JWTConfig struct {
	Secret string `koanf:"secret"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type OTELConfig struct {
	ExporterOTLPEndpoint string  `koanf:"exporter_otlp_endpoint"`
	ServiceName          string  `koanf:"service_name"`
	TracesSamplerArg     float64 `koanf:"traces_sampler_arg" validate:"gte=0,lte=1"`
	Disabled             bool    `koanf:"disabled"`
}

type RateLimitConfig struct {
	Toggles int64         `koanf:"toggles" validate:"gte=0"`
	Window  time.Duration `koanf:"window"`
}

func defaults() *Config {
	return &Config{
		App: AppConfig{Port: ":8087", Env: "local"},
		DB: DBConfig{
			Driver:       "postgres",
			Host:         "restaurant-db",
			Port:         "5432",
			User:         "restaurant",
			Password:     "restaurantpass",
			Name:         "restaurant_db",
			Path:         "restaurant.db",
			MaxOpenConns: 40,
			MaxIdleConns: 10,
			ConnLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{Host: "redis-restaurant", Port: "6379"},
		Kafka: KafkaConfig{
			RelationsTopic: "relations.changed",
			RequiredAcks:   "one",
		},
		S3:        S3Config{Bucket: "restaurants", PresignTTL: time.Hour},
		Log:       LogConfig{Level: "info", Format: "json"},
		OTEL:      OTELConfig{ExporterOTLPEndpoint: "otel-collector:4318", ServiceName: "restaurant-service", TracesSamplerArg: 1},
		RateLimit: RateLimitConfig{Toggles: 30, Window: time.Minute},
	}
}

var sections = []string{"app", "db", "redis", "kafka", "s3", "jwt", "log", "otel", "ratelimit"}

// envKey maps DB_HOST to db.host and KAFKA_BOOTSTRAP_SERVERS to kafka.bootstrap_servers.
// Variables outside the known sections are ignored.
func envKey(k string) string {
	k = strings.ToLower(k)
	for _, s := range sections {
		if strings.HasPrefix(k, s+"_") {
			return s + "." + strings.TrimPrefix(k, s+"_")
		}
	}
	return ""
}

// LoadConfig layers struct defaults, an optional YAML file and the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path := configPath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	for _, p := range []string{"config.yaml", "config.yml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name,
	)
}

func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// ReplicaDSNs splits db.replicas into individual DSNs.
func (c *Config) ReplicaDSNs() []string {
	var out []string
	for _, s := range strings.Split(c.DB.Replicas, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
