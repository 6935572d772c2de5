package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/rental-bridge/internal/email"
	"github.com/evcraddock/rental-bridge/internal/kv"
)

// isolate points HOME and the working directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Chdir(tmp)
	return tmp
}

func TestLoadDefaults(t *testing.T) {
	tmp := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("backend = %q, want sqlite", cfg.Backend)
	}
	if cfg.Namespace != kv.DefaultNamespace {
		t.Errorf("namespace = %q", cfg.Namespace)
	}
	if cfg.MailMode != MailLog {
		t.Errorf("mail mode = %q, want log", cfg.MailMode)
	}
	if want := filepath.Join(tmp, ".rental-bridge", "rentals.db"); cfg.DBPath != want {
		t.Errorf("db path = %q, want %q", cfg.DBPath, want)
	}
	if want := filepath.Join(tmp, ".rental-bridge", "rb.log"); cfg.LogFile != want {
		t.Errorf("log file = %q, want %q", cfg.LogFile, want)
	}
	if cfg.SMTP.Port != "587" || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("smtp port %q redis addr %q", cfg.SMTP.Port, cfg.Redis.Addr)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmp := isolate(t)

	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(tmp, ".config", "rb", "config.yaml"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	saved := Config{
		Backend:  BackendRedis,
		Redis:    RedisConfig{Addr: "cache:6380", DB: 2},
		MailMode: MailSMTP,
		SMTP:     email.SMTPConfig{Host: "smtp.example.com", Port: "465", From: "rb@example.com"},
		HashCost: 12,
	}
	if err := Save(path, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendRedis || cfg.Redis.Addr != "cache:6380" || cfg.Redis.DB != 2 {
		t.Errorf("redis = %+v backend %q", cfg.Redis, cfg.Backend)
	}
	if cfg.SMTP.Port != "465" || cfg.HashCost != 12 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DBPath != "" {
		t.Errorf("db path = %q, want none for redis", cfg.DBPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "config.yaml")
	if err := Save(path, Config{Backend: BackendSQLite, DBPath: "/from/file.db"}); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RB_DB", "/from/env.db")
	t.Setenv("RB_NAMESPACE", "test_")
	t.Setenv("RB_DEV_MODE", "true")
	t.Setenv("RB_HASH_COST", "4")
	t.Setenv("RABBITMQ_URL", "amqp://rabbit/")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/from/env.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.Namespace != "test_" || !cfg.DevMode || cfg.HashCost != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.AMQPURL != "amqp://rabbit/" {
		t.Errorf("amqp url = %q", cfg.AMQPURL)
	}
}

func TestDotEnv(t *testing.T) {
	tmp := isolate(t)
	dotenv := "RB_BACKEND=memory\nRB_SMTP_FROM=dotenv@example.com\n"
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}

	// t.Setenv restores the variable after the test; godotenv only fills
	// variables that are unset.
	t.Setenv("RB_BACKEND", "")
	if err := os.Unsetenv("RB_BACKEND"); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RB_SMTP_FROM", "env@example.com")

	cfg, err := Load(filepath.Join(tmp, "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendMemory {
		t.Errorf("backend = %q, want memory from .env", cfg.Backend)
	}
	if cfg.SMTP.From != "env@example.com" {
		t.Errorf("smtp from = %q, want the environment to win", cfg.SMTP.From)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{"bad yaml", "backend: [", nil, "parsing config"},
		{"unknown backend", "backend: postgres\n", nil, "unknown backend"},
		{"unknown mail mode", "mail_mode: pigeon\n", nil, "unknown mail mode"},
		{"smtp without host", "mail_mode: smtp\n", nil, "requires smtp"},
		{"bad int env", "", map[string]string{"RB_REDIS_DB": "two"}, "RB_REDIS_DB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(tmp, "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
