package app

import (
	"strings"
	"testing"

	"github.com/yungbote/kinship-backend/internal/data/db"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "REDIS_CHANNEL", "PROGRESS_CAS_ATTEMPTS", "CORS_ALLOWED_ORIGINS", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.Port != "8080" {
		t.Fatalf("port: want=8080 got=%s", cfg.Port)
	}
	if cfg.DB.Driver != db.DriverPostgres {
		t.Fatalf("driver: want=postgres got=%s", cfg.DB.Driver)
	}
	if cfg.Redis.Channel != "award-events" {
		t.Fatalf("channel: want=award-events got=%s", cfg.Redis.Channel)
	}
	if cfg.ProgressCASAttempts != 3 || !cfg.MetricsEnabled {
		t.Fatalf("defaults: got attempts=%d metrics=%v", cfg.ProgressCASAttempts, cfg.MetricsEnabled)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("cors: want none got=%v", cfg.CORSOrigins)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/k.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("CERTIFICATE_GCS_BUCKET_NAME", "certs")
	t.Setenv("PROGRESS_CAS_ATTEMPTS", "5")

	cfg := LoadConfig(logger.Nop())
	if cfg.DB.Driver != db.DriverSQLite || cfg.DB.SQLitePath != "/tmp/k.db" {
		t.Fatalf("db: got=%+v", cfg.DB)
	}
	if strings.Join(cfg.CORSOrigins, "|") != "https://a.example.com|https://b.example.com" {
		t.Fatalf("cors: got=%v", cfg.CORSOrigins)
	}
	if !cfg.Storage.Enabled() || cfg.ProgressCASAttempts != 5 {
		t.Fatalf("storage/attempts: got bucket=%q attempts=%d", cfg.Storage.Bucket, cfg.ProgressCASAttempts)
	}
}

func TestConfigValidate(t *testing.T) {
	base := Config{IdentityJWTSecret: "s", DB: db.Config{Driver: "postgres"}, ProgressCASAttempts: 3}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.IdentityJWTSecret = "" }, "IDENTITY_JWT_SECRET"},
		{"bad driver", func(c *Config) { c.DB.Driver = "mysql" }, "DB_DRIVER"},
		{"bad attempts", func(c *Config) { c.ProgressCASAttempts = 0 }, "PROGRESS_CAS_ATTEMPTS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("want nil got=%v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("want error containing %q got=%v", tt.wantErr, err)
			}
		})
	}
}
