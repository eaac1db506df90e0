package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-recall/internal/constants"
)

type Config struct {
	Web      WebConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Matching MatchingConfig
	Log      LogConfig
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
	MaxUploadSize  int64    // maximum multipart body size in bytes
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// StorageBackend selects where profile images are written.
type StorageBackend string

const (
	StorageS3    StorageBackend = "s3"
	StorageLocal StorageBackend = "local"
)

type StorageConfig struct {
	Backend         StorageBackend
	Bucket          string // defaults to face-images
	Prefix          string // optional key prefix inside the bucket
	Endpoint        string // S3-compatible endpoint (MinIO, R2, Supabase storage)
	Region          string // defaults to us-east-1
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string // base URL objects are publicly reachable under
	Dir             string // root directory for the local backend
}

type MatchingConfig struct {
	Threshold    float64 // minimum cosine similarity for a match (default 0.6)
	EmbeddingDim int     // required embedding length, 0 accepts any length
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float in [-1, 1].
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= -1 && f <= 1 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	// PORT is what most hosting platforms inject; WEB_PORT wins when both are set.
	port := envInt("PORT", 8080)
	port = envInt("WEB_PORT", port)

	backend := StorageBackend(strings.ToLower(envString("STORAGE_BACKEND", string(StorageLocal))))
	if backend != StorageS3 {
		backend = StorageLocal
	}

	return &Config{
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(os.Getenv("WEB_ALLOWED_ORIGINS")),
			MaxUploadSize:  int64(envInt("MAX_UPLOAD_SIZE", constants.MaxUploadSize)),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			Backend:         backend,
			Bucket:          envString("S3_BUCKET", constants.DefaultImageBucket),
			Prefix:          os.Getenv("S3_PREFIX"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			Region:          envString("S3_REGION", "us-east-1"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PublicURL:       os.Getenv("STORAGE_PUBLIC_URL"),
			Dir:             envString("STORAGE_DIR", constants.DefaultStorageDir),
		},
		Matching: MatchingConfig{
			Threshold:    envFloat("MATCH_THRESHOLD", constants.DefaultMatchThreshold),
			EmbeddingDim: envInt("EMBEDDING_DIM", 0),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
	}
}

// GetSecretAccessKey returns the S3 secret. Kept behind a getter so the
// struct can be logged without leaking it.
func (c *StorageConfig) GetSecretAccessKey() string {
	return c.SecretAccessKey
}

// LocalPublicURL returns the base URL images are served from when the local
// backend is used and no explicit public URL is configured.
func (c *Config) LocalPublicURL() string {
	if c.Storage.PublicURL != "" {
		return c.Storage.PublicURL
	}
	host := c.Web.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return "http://" + host + ":" + strconv.Itoa(c.Web.Port) + constants.LocalImagesRoute
}
