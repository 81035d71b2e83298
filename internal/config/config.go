package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

// AnalyticsConfig carries the tunables of the scoring engine. Every value
// has a production default; env vars exist so a deployment can recalibrate
// without a rebuild.
type AnalyticsConfig struct {
	ClusterRadiusM     float64
	BufferRadiusM      float64
	GapHighThreshold   float64
	GapMediumThreshold float64
	ViolationWeight    float64
	DefaultTopN        int
	MaxTopN            int
	MaxQueryDays       int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Analytics   AnalyticsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: splitOrigins(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Analytics: AnalyticsConfig{
			ClusterRadiusM:     v.GetFloat64("ANALYTICS_CLUSTER_RADIUS_M"),
			BufferRadiusM:      v.GetFloat64("ANALYTICS_BUFFER_RADIUS_M"),
			GapHighThreshold:   v.GetFloat64("ANALYTICS_GAP_HIGH_THRESHOLD"),
			GapMediumThreshold: v.GetFloat64("ANALYTICS_GAP_MEDIUM_THRESHOLD"),
			ViolationWeight:    v.GetFloat64("ANALYTICS_VIOLATION_WEIGHT"),
			DefaultTopN:        v.GetInt("ANALYTICS_DEFAULT_TOP_N"),
			MaxTopN:            v.GetInt("ANALYTICS_MAX_TOP_N"),
			MaxQueryDays:       v.GetInt("ANALYTICS_MAX_QUERY_DAYS"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Analytics.ClusterRadiusM == 0 {
		cfg.Analytics.ClusterRadiusM = 100
	}
	if cfg.Analytics.BufferRadiusM == 0 {
		cfg.Analytics.BufferRadiusM = 300
	}
	if cfg.Analytics.GapHighThreshold == 0 {
		cfg.Analytics.GapHighThreshold = 5
	}
	if cfg.Analytics.GapMediumThreshold == 0 {
		cfg.Analytics.GapMediumThreshold = 2
	}
	if cfg.Analytics.ViolationWeight == 0 {
		cfg.Analytics.ViolationWeight = 0.1
	}
	if cfg.Analytics.DefaultTopN == 0 {
		cfg.Analytics.DefaultTopN = 5
	}
	if cfg.Analytics.MaxTopN == 0 {
		cfg.Analytics.MaxTopN = 50
	}
	if cfg.Analytics.MaxQueryDays == 0 {
		cfg.Analytics.MaxQueryDays = 365
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Analytics.GapMediumThreshold > cfg.Analytics.GapHighThreshold {
		return fmt.Errorf("ANALYTICS_GAP_MEDIUM_THRESHOLD must not exceed ANALYTICS_GAP_HIGH_THRESHOLD")
	}
	if cfg.Analytics.DefaultTopN > cfg.Analytics.MaxTopN {
		return fmt.Errorf("ANALYTICS_DEFAULT_TOP_N must not exceed ANALYTICS_MAX_TOP_N")
	}
	return nil
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
