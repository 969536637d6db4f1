// Package config loads service configuration from STAYS_-prefixed
// environment variables with sane local-development defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the GORM/pgx connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the database URL used by the migration runner.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig holds lock-coordination store settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds token-signing settings.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds event-broker settings.
type KafkaConfig struct {
	Brokers []string
}

// StorageConfig holds photo-storage settings.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ServiceConfig holds all configuration for the stays service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	LockBackend string // "redis" or "memory"
	GeocoderURL string
	DB          DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Kafka       KafkaConfig
	Storage     StorageConfig
}

// Load reads configuration from the environment.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("STAYS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", ":8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("lock_backend", "redis")
	v.SetDefault("geocoder_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "stays")
	v.SetDefault("db_password", "stays")
	v.SetDefault("db_name", "stays")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("storage_endpoint", "localhost:9000")
	v.SetDefault("storage_access_key", "minioadmin")
	v.SetDefault("storage_secret_key", "minioadmin")
	v.SetDefault("storage_bucket", "stays-photos")
	v.SetDefault("storage_use_ssl", false)

	cfg := &ServiceConfig{
		Port:        v.GetString("port"),
		AppEnv:      v.GetString("app_env"),
		LockBackend: v.GetString("lock_backend"),
		GeocoderURL: v.GetString("geocoder_url"),
		DB: DatabaseConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetInt("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt_secret"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(v.GetString("kafka_brokers"), ","),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("storage_endpoint"),
			AccessKey: v.GetString("storage_access_key"),
			SecretKey: v.GetString("storage_secret_key"),
			Bucket:    v.GetString("storage_bucket"),
			UseSSL:    v.GetBool("storage_use_ssl"),
		},
	}

	if cfg.AppEnv != "development" && cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("config: STAYS_JWT_SECRET is required outside development")
	}
	if cfg.LockBackend != "redis" && cfg.LockBackend != "memory" {
		return nil, fmt.Errorf("config: unknown lock backend %q", cfg.LockBackend)
	}
	return cfg, nil
}
