package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	HTTPTimeout time.Duration
	MetricsAddr string

	GCPProject  string
	SplitBucket string
	DatasetID   string
	TableID     string

	StorageBackend   string // gcs|local
	LocalStorageDir  string
	WarehouseBackend string // bigquery|mysql|postgres
	MySQLDSN         string
	DatabaseURL      string
	InsertRPS        float64

	RedisAddr string
	RedisDB   int
	RedisPass string
	ClaimTTL  time.Duration

	AMQPURL      string
	AMQPExchange string

	Workers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}
	return Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		HTTPTimeout: time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 540)) * time.Second,
		MetricsAddr: env("METRICS_ADDR", ""),

		GCPProject:  env("GCP_PROJECT", ""),
		SplitBucket: env("SPLIT_FILES_BUCKET_NAME", ""),
		DatasetID:   env("DATASET_ID", ""),
		TableID:     env("TABLE_ID", ""),

		StorageBackend:   strings.ToLower(env("STORAGE_BACKEND", "gcs")),
		LocalStorageDir:  env("LOCAL_STORAGE_DIR", "./data"),
		WarehouseBackend: strings.ToLower(env("WAREHOUSE_BACKEND", "bigquery")),
		MySQLDSN:         env("MYSQL_DSN", "root:root@tcp(localhost:3306)/listings?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		DatabaseURL:      env("DATABASE_URL", ""),
		InsertRPS:        atof("WAREHOUSE_INSERT_RPS", 0),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		ClaimTTL:  time.Duration(atoi("CLAIM_TTL_SECONDS", 86400)) * time.Second,

		AMQPURL:      env("AMQP_URL", ""),
		AMQPExchange: env("AMQP_EXCHANGE", "listings.events"),

		Workers: atoi("INGEST_WORKERS", 4),
	}
}

// Validate reports the keys a pipeline ("split" or "load") needs but lacks.
func (c Config) Validate(pipeline string) error {
	var missing []string
	need := func(key, val string) {
		if val == "" {
			missing = append(missing, key)
		}
	}

	switch c.StorageBackend {
	case "gcs":
	case "local":
		need("LOCAL_STORAGE_DIR", c.LocalStorageDir)
	default:
		return fmt.Errorf("STORAGE_BACKEND %q: want gcs or local", c.StorageBackend)
	}

	switch pipeline {
	case "split":
		need("SPLIT_FILES_BUCKET_NAME", c.SplitBucket)
	case "load":
		switch c.WarehouseBackend {
		case "bigquery":
			need("GCP_PROJECT", c.GCPProject)
			need("DATASET_ID", c.DatasetID)
			need("TABLE_ID", c.TableID)
		case "mysql":
			need("MYSQL_DSN", c.MySQLDSN)
		case "postgres":
			need("DATABASE_URL", c.DatabaseURL)
		default:
			return fmt.Errorf("WAREHOUSE_BACKEND %q: want bigquery, mysql or postgres", c.WarehouseBackend)
		}
	default:
		return fmt.Errorf("unknown pipeline %q", pipeline)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%s: missing configuration %s", pipeline, strings.Join(missing, ", "))
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
