package config

import (
	"os"
	"testing"
)

// clearEnv unsets all LEARN_ environment variables for a clean test.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"LEARN_CURRICULUM_PATH",
		"LEARN_PRIMARY_EXT",
		"LEARN_ALTERNATIVE_EXT",
		"LEARN_DESCRIPTION_FILE",
		"LEARN_VALIDATE_STRICT",
		"LEARN_PROGRESS_BACKEND",
		"LEARN_PROGRESS_PATH",
		"LEARN_LEARNER",
		"LEARN_DATABASE_URL",
		"LEARN_DATABASE_MAX_CONNS",
		"LEARN_DATABASE_MIN_CONNS",
		"LEARN_CACHE_URL",
		"LEARN_SERVER_PORT",
		"LEARN_SERVER_HOST",
		"LEARN_LOG_LEVEL",
		"LEARN_LOG_FORMAT",
		"LEARN_LOG_FILE",
	}
	for _, v := range envVars {
		_ = os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Curriculum.Path != "." {
		t.Errorf("Curriculum.Path = %q, want .", cfg.Curriculum.Path)
	}
	if cfg.Curriculum.PrimaryExt != ".js" || cfg.Curriculum.AlternativeExt != ".ts" {
		t.Errorf("extensions = %q/%q, want .js/.ts", cfg.Curriculum.PrimaryExt, cfg.Curriculum.AlternativeExt)
	}
	if cfg.Curriculum.DescriptionFile != "README.md" {
		t.Errorf("Curriculum.DescriptionFile = %q, want README.md", cfg.Curriculum.DescriptionFile)
	}
	if cfg.Curriculum.Strict {
		t.Error("Curriculum.Strict should default to false")
	}
	if cfg.Progress.Backend != "file" {
		t.Errorf("Progress.Backend = %q, want file", cfg.Progress.Backend)
	}
	if cfg.Progress.Path != "" {
		t.Errorf("Progress.Path = %q, want empty", cfg.Progress.Path)
	}
	if cfg.Progress.Learner != "default" {
		t.Errorf("Progress.Learner = %q, want default", cfg.Progress.Learner)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 4 || cfg.Database.MinConns != 1 {
		t.Errorf("Database conns = %d/%d, want 4/1", cfg.Database.MaxConns, cfg.Database.MinConns)
	}
	if cfg.Cache.URL != "redis://localhost:6379" {
		t.Errorf("Cache.URL = %q, want redis://localhost:6379", cfg.Cache.URL)
	}
	if cfg.Log.Format != "text" || cfg.Log.Level != "info" || cfg.Log.File != "" {
		t.Errorf("Log = %+v, want text/info/stderr", cfg.Log)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v; defaults should be valid", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("LEARN_CURRICULUM_PATH", "/srv/course")
	t.Setenv("LEARN_PRIMARY_EXT", ".py")
	t.Setenv("LEARN_ALTERNATIVE_EXT", ".pyi")
	t.Setenv("LEARN_DESCRIPTION_FILE", "index.md")
	t.Setenv("LEARN_PROGRESS_BACKEND", "WAL")
	t.Setenv("LEARN_PROGRESS_PATH", "/var/lib/coursekit")
	t.Setenv("LEARN_LEARNER", "ana")
	t.Setenv("LEARN_SERVER_PORT", "9090")
	t.Setenv("LEARN_LOG_FILE", "/tmp/coursekit.log")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Curriculum.Path != "/srv/course" {
		t.Errorf("Curriculum.Path = %q", cfg.Curriculum.Path)
	}
	if cfg.Curriculum.PrimaryExt != ".py" || cfg.Curriculum.AlternativeExt != ".pyi" {
		t.Errorf("extensions = %q/%q", cfg.Curriculum.PrimaryExt, cfg.Curriculum.AlternativeExt)
	}
	if cfg.Curriculum.DescriptionFile != "index.md" {
		t.Errorf("Curriculum.DescriptionFile = %q", cfg.Curriculum.DescriptionFile)
	}
	if cfg.Progress.Backend != "wal" {
		t.Errorf("Progress.Backend = %q, want wal", cfg.Progress.Backend)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Log.File != "/tmp/coursekit.log" {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}

	b := cfg.Backend()
	if b.Backend != "wal" || b.Path != "/var/lib/coursekit" || b.Learner != "ana" {
		t.Errorf("Backend() = %+v", b)
	}
	if b.CacheURL != cfg.Cache.URL || b.DatabaseURL != cfg.Database.URL {
		t.Errorf("Backend() did not carry connection URLs: %+v", b)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"defaults", nil, false},
		{"every backend", map[string]string{"LEARN_PROGRESS_BACKEND": "postgres"}, false},
		{"unknown backend", map[string]string{"LEARN_PROGRESS_BACKEND": "floppy"}, true},
		{"same extensions", map[string]string{"LEARN_ALTERNATIVE_EXT": ".js"}, true},
		{"bad log format", map[string]string{"LEARN_LOG_FORMAT": "xml"}, true},
		{"json log format", map[string]string{"LEARN_LOG_FORMAT": "json"}, false},
		{"min above max", map[string]string{"LEARN_DATABASE_MIN_CONNS": "9"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStrictParsing(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want bool
	}{
		{"true", "true", true},
		{"TRUE", "TRUE", true},
		{"false", "false", false},
		{"1", "1", true},
		{"0", "0", false},
		{"empty", "", false},
		{"invalid", "notabool", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.val != "" {
				t.Setenv("LEARN_VALIDATE_STRICT", tt.val)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Curriculum.Strict != tt.want {
				t.Errorf("Curriculum.Strict = %v, want %v", cfg.Curriculum.Strict, tt.want)
			}
		})
	}
}

func TestEnvInt_IgnoresGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEARN_SERVER_PORT", "eighty")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want fallback 8080", cfg.Server.Port)
	}
}
