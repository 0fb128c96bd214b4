package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cvforge/cvforge-api/internal/crypto"
)

const defaultJWTSecret = "dev-secret-change-in-production"

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	BlobLocal = "local"
	BlobS3    = "s3"
)

type Config struct {
	Port           string
	Env            string
	StoreDriver    string
	DatabaseDSN    string
	MigrateOnStart bool

	JWTSecret string
	JWTExpiry time.Duration
	Hash      crypto.HashParams

	BlobStore string
	UploadDir string
	S3Bucket  string
	S3Region  string
	S3Prefix  string

	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var errs []error
	def := crypto.DefaultHashParams()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		StoreDriver:    getEnv("STORE_DRIVER", StoreMySQL),
		DatabaseDSN:    getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/cvforge?parseTime=true"),
		MigrateOnStart: getBool("MIGRATE_ON_START", true, &errs),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry: getDuration("JWT_EXPIRY", crypto.DefaultTokenTTL, &errs),
		Hash: crypto.HashParams{
			Memory:      uint32(getUint("HASH_MEMORY_KB", uint64(def.Memory), 32, &errs)),
			Iterations:  uint32(getUint("HASH_ITERATIONS", uint64(def.Iterations), 32, &errs)),
			Parallelism: uint8(getUint("HASH_PARALLELISM", uint64(def.Parallelism), 8, &errs)),
			SaltLength:  def.SaltLength,
			KeyLength:   def.KeyLength,
		},

		BlobStore: getEnv("BLOB_STORE", BlobLocal),
		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		S3Bucket:  os.Getenv("S3_BUCKET"),
		S3Region:  os.Getenv("S3_REGION"),
		S3Prefix:  os.Getenv("S3_PREFIX"),

		AuthRateLimitRPS:   getFloat("AUTH_RATE_LIMIT_RPS", 5, &errs),
		AuthRateLimitBurst: int(getUint("AUTH_RATE_LIMIT_BURST", 10, 31, &errs)),
	}

	if cfg.Env == "production" && cfg.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production environment"))
	}
	if cfg.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	switch cfg.StoreDriver {
	case StoreMySQL, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMySQL, StoreMemory, cfg.StoreDriver))
	}
	switch cfg.BlobStore {
	case BlobLocal:
	case BlobS3:
		if cfg.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when BLOB_STORE=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLOB_STORE must be %q or %q, got %q", BlobLocal, BlobS3, cfg.BlobStore))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("load config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func getUint(key string, fallback uint64, bits int, errs *[]error) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: must be a positive number, got %q", key, v))
		return fallback
	}
	return f
}
