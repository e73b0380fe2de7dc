package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/kinship-backend/internal/data/db"
	"github.com/yungbote/kinship-backend/internal/platform/envutil"
	"github.com/yungbote/kinship-backend/internal/platform/gcp"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/realtime/bus"
)

type Config struct {
	Port        string
	LogMode     string
	Environment string
	CORSOrigins []string

	DB db.Config

	IdentityJWTSecret string
	IdentityJWTIssuer string

	Redis bus.RedisConfig

	Storage             gcp.StorageConfig
	CertificateFontPath string

	BadgeCatalogPath string

	MetricsEnabled  bool
	OTelEnabled     bool
	OTelEndpoint    string
	OTelHeaders     string
	OTelInsecure    bool
	OTelSampleRatio float64
	ServiceName     string

	ProgressCASAttempts int
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		Environment: envutil.String("APP_ENV", "development"),
		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", db.DriverPostgres),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "kinship"),
			SQLitePath: envutil.String("SQLITE_PATH", "kinship.db"),
		},
		IdentityJWTSecret: envutil.String("IDENTITY_JWT_SECRET", ""),
		IdentityJWTIssuer: envutil.String("IDENTITY_JWT_ISSUER", ""),
		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", bus.DefaultChannel),
		},
		Storage: gcp.StorageConfig{
			Mode:          gcp.StorageMode(envutil.String("OBJECT_STORAGE_MODE", "")),
			EmulatorHost:  envutil.String("STORAGE_EMULATOR_HOST", ""),
			Bucket:        envutil.String("CERTIFICATE_GCS_BUCKET_NAME", ""),
			CDNDomain:     envutil.String("CERTIFICATE_CDN_DOMAIN", ""),
			PublicBaseURL: envutil.String("CERTIFICATE_PUBLIC_BASE_URL", ""),
			Credentials:   envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""),
		},
		CertificateFontPath: envutil.String("CERTIFICATE_FONT_PATH", ""),
		BadgeCatalogPath:    envutil.String("BADGE_CATALOG_PATH", ""),
		MetricsEnabled:      envutil.Bool("METRICS_ENABLED", true),
		OTelEnabled:         envutil.Bool("OTEL_ENABLED", false),
		OTelEndpoint:        envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelHeaders:         envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTelInsecure:        envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OTelSampleRatio:     envutil.Float("OTEL_SAMPLE_RATIO", 1),
		ServiceName:         envutil.String("OTEL_SERVICE_NAME", "kinship-backend"),
		ProgressCASAttempts: envutil.Int("PROGRESS_CAS_ATTEMPTS", 3),
	}
	if log != nil {
		log.Info("config loaded",
			"db_driver", cfg.DB.Driver,
			"redis", cfg.Redis.Addr != "",
			"certificate_bucket", cfg.Storage.Bucket,
			"badge_catalog", cfg.BadgeCatalogPath,
			"metrics", cfg.MetricsEnabled,
			"otel", cfg.OTelEnabled,
		)
	}
	return cfg
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.IdentityJWTSecret) == "" {
		return fmt.Errorf("IDENTITY_JWT_SECRET is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case "", db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.ProgressCASAttempts < 1 {
		return fmt.Errorf("PROGRESS_CAS_ATTEMPTS must be >= 1, got %d", c.ProgressCASAttempts)
	}
	if _, err := gcp.NormalizeStorageConfig(c.Storage); err != nil {
		return err
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envLogMode() string {
	return envutil.String("LOG_MODE", "development")
}
