package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestConfigGetString(t *testing.T) {
	v := viper.New()
	v.Set("name", "test")
	cfg := New(v)

	if got := cfg.GetString("name"); got != "test" {
		t.Errorf("GetString('name') = %q, want %q", got, "test")
	}
}

func TestConfigGetInt(t *testing.T) {
	v := viper.New()
	v.Set("port", 8080)
	cfg := New(v)

	if got := cfg.GetInt("port"); got != 8080 {
		t.Errorf("GetInt('port') = %d, want %d", got, 8080)
	}
}

func TestConfigGetFloat64(t *testing.T) {
	v := viper.New()
	v.Set("rate", 12.5)
	cfg := New(v)

	if got := cfg.GetFloat64("rate"); got != 12.5 {
		t.Errorf("GetFloat64('rate') = %v, want 12.5", got)
	}
}

func TestConfigGetDuration(t *testing.T) {
	v := viper.New()
	v.Set("timeout", "5s")
	cfg := New(v)

	want := 5 * time.Second
	if got := cfg.GetDuration("timeout"); got != want {
		t.Errorf("GetDuration('timeout') = %v, want %v", got, want)
	}
}

func TestConfigIsSet(t *testing.T) {
	v := viper.New()
	v.Set("exists", true)
	cfg := New(v)

	if !cfg.IsSet("exists") {
		t.Error("IsSet('exists') = false, want true")
	}
	if cfg.IsSet("missing") {
		t.Error("IsSet('missing') = true, want false")
	}
}

func TestConfigSub(t *testing.T) {
	v := viper.New()
	v.Set("server.host", "127.0.0.1")
	v.Set("server.port", 9090)
	cfg := New(v)

	sub := cfg.Sub("server")
	if sub == nil {
		t.Fatal("Sub('server') = nil")
	}
	if got := sub.GetString("host"); got != "127.0.0.1" {
		t.Errorf("sub.GetString('host') = %q, want 127.0.0.1", got)
	}
	if got := sub.GetInt("port"); got != 9090 {
		t.Errorf("sub.GetInt('port') = %d, want %d", got, 9090)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.GetString("server.host"); got != "0.0.0.0" {
		t.Errorf("server.host = %q, want 0.0.0.0", got)
	}
	if got := cfg.GetString("server.port"); got != "8080" {
		t.Errorf("server.port = %q, want 8080", got)
	}
	if got := cfg.GetFloat64("server.rate_limit"); got != 0 {
		t.Errorf("server.rate_limit = %v, want 0", got)
	}
	if got := cfg.GetDuration("server.shutdown_timeout"); got != 10*time.Second {
		t.Errorf("server.shutdown_timeout = %v, want 10s", got)
	}
	if got := cfg.GetString("storage.path"); got != "vitrine.db" {
		t.Errorf("storage.path = %q, want vitrine.db", got)
	}
	if got := cfg.GetString("uploads.dir"); got != "uploads" {
		t.Errorf("uploads.dir = %q, want uploads", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "server:\n  port: \"9999\"\nstorage:\n  path: /tmp/other.db\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.GetString("server.port"); got != "9999" {
		t.Errorf("server.port = %q, want 9999", got)
	}
	if got := cfg.GetString("storage.path"); got != "/tmp/other.db" {
		t.Errorf("storage.path = %q, want /tmp/other.db", got)
	}
	// Values absent from the file keep their defaults.
	if got := cfg.GetString("server.host"); got != "0.0.0.0" {
		t.Errorf("server.host = %q, want default 0.0.0.0", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load(missing file) = nil, want error")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VITRINE_SERVER_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.GetString("server.port"); got != "7070" {
		t.Errorf("server.port = %q, want env override 7070", got)
	}
}
