package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable prefix for all settings.
const envPrefix = "GALLERYSCAN_"

// LoadEnv loads dotenv files into the process environment and applies
// GALLERYSCAN_* variables onto cfg. With no files, a missing ./.env is not an
// error. Variables already set in the environment win over dotenv values.
// Flags parsed afterwards override everything set here. GALLERYSCAN_EXT and
// GALLERYSCAN_MAX win over GALLERYSCAN_PRESET but not over a --preset flag.
func LoadEnv(cfg *Config, files ...string) error {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return fmt.Errorf("load env file: %w", err)
	}

	if v := env("BASE"); v != "" {
		cfg.Base = NormalizeBase(v)
	}
	if v := env("BACKEND"); v != "" {
		if err := (&backendValue{&cfg.Backend}).Set(v); err != nil {
			return fmt.Errorf("%sBACKEND: %w", envPrefix, err)
		}
	}
	if v := env("EXT"); v != "" {
		cfg.Extensions = strings.Split(v, ",")
		cfg.envSet.ext = true
	}
	if v := env("PRESET"); v != "" {
		cfg.Preset = v
	}
	if err := envInt("MAX", &cfg.MaxIndex); err != nil {
		return err
	}
	cfg.envSet.max = env("MAX") != ""
	if err := envInt("BATCH", &cfg.BatchSize); err != nil {
		return err
	}
	if err := envInt("MAX_IN_FLIGHT", &cfg.MaxInFlight); err != nil {
		return err
	}
	if err := envBool("VERIFY", &cfg.Verify); err != nil {
		return err
	}
	if err := envDuration("TIMEOUT", &cfg.ProbeTimeout); err != nil {
		return err
	}
	if err := envInt("CACHE", &cfg.CacheSize); err != nil {
		return err
	}
	if err := envDuration("CACHE_TTL", &cfg.CacheTTL); err != nil {
		return err
	}
	if v := env("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := env("FORMAT"); v != "" {
		if err := (&formatValue{&cfg.Format}).Set(v); err != nil {
			return fmt.Errorf("%sFORMAT: %w", envPrefix, err)
		}
	}
	if v := env("OUTPUT"); v != "" {
		cfg.OutputPath = v
	}
	if v := env("SERVE"); v != "" {
		cfg.ServeAddr = v
	}
	if v := env("LOG"); v != "" {
		cfg.LogFile = v
	}

	loadS3Env(&cfg.S3)
	return nil
}

// loadS3Env reads GALLERYSCAN_S3_* with MinIO root credentials as fallback,
// so a local MinIO container works without extra variables.
func loadS3Env(s3 *S3Config) {
	s3.Endpoint = firstNonEmpty(env("S3_ENDPOINT"), s3.Endpoint)
	s3.Region = firstNonEmpty(env("S3_REGION"), s3.Region, "us-east-1")
	s3.AccessKey = firstNonEmpty(env("S3_ACCESS_KEY"), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER")), s3.AccessKey)
	s3.SecretKey = firstNonEmpty(env("S3_SECRET_KEY"), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD")), s3.SecretKey)
	if raw := env("S3_USE_SSL"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			s3.UseSSL = v
		}
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func envInt(key string, dst *int) error {
	raw := env(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s%s must be a whole number (got %q)", envPrefix, key, raw)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	raw := env(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%s%s must be true or false (got %q)", envPrefix, key, raw)
	}
	*dst = v
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	raw := env(key)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s%s must be a duration like 5s (got %q)", envPrefix, key, raw)
	}
	*dst = d
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
