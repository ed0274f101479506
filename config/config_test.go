package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `planner:
  base_target_mw: 40
grid:
  source: "api"
  base_url: "http://grid.local"
  timeout_seconds: 3
cohorts:
  path: "cohorts.json"
store:
  type: "sqlite"
  conf:
    path: "plans.db"
audit:
  path: "audit.log"
history:
  path: "history.json"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  ack_topic: "dr/ack/+"
  use_tls: false
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "nop"
api:
  addr: ":9000"
  auth_token: "secret"
sentry:
  dsn: "https://key@sentry.local/1"
  traces_sample_rate: 0.5
logging:
  level: "warn"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"planner.base_target_mw", cfg.Planner.BaseTargetMW, 40.0},
		{"grid.source", cfg.Grid.Source, "api"},
		{"grid.timeout_seconds", cfg.Grid.TimeoutSeconds, 3},
		{"cohorts.path", cfg.Cohorts.Path, "cohorts.json"},
		{"store.type", cfg.Store.Type, "sqlite"},
		{"store.conf.path", cfg.Store.Conf["path"], "plans.db"},
		{"audit.path", cfg.Audit.Path, "audit.log"},
		{"audit.max_backups", cfg.Audit.MaxBackups, 5},
		{"history.path", cfg.History.Path, "history.json"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"ack_topic", cfg.MQTT.AckTopic, "dr/ack/+"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"api.addr", cfg.API.Addr, ":9000"},
		{"api.auth_token", cfg.API.AuthToken, "secret"},
		{"sentry.rate", cfg.Sentry.TracesSampleRate, 0.5},
		{"logging.level", cfg.Logging.Level, "warn"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("store type %q", cfg.Store.Type)
	}
	if cfg.Cohorts.Path != "data/cohorts.yaml" {
		t.Errorf("cohorts path %q", cfg.Cohorts.Path)
	}
	if cfg.API.Addr != ":8080" {
		t.Errorf("api addr %q", cfg.API.Addr)
	}
	if cfg.MQTT.Enabled() {
		t.Errorf("mqtt should be disabled without a broker")
	}
	if cfg.Planner.BalancedCapFraction != 0.3 {
		t.Errorf("planner calibration not defaulted")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  addr: \":8081\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K_API__ADDR", ":7000")
	t.Setenv("K_LOGGING__LEVEL", "debug")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.API.Addr != ":7000" {
		t.Errorf("env override ignored: %q", cfg.API.Addr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env override for absent section ignored: %q", cfg.Logging.Level)
	}
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad_level.yaml":   "logging:\n  level: loud\n",
		"bad_source.yaml":  "grid:\n  source: ftp\n",
		"bad_planner.yaml": "planner:\n  base_target_mw: -1\n",
		"bad_cohorts.yaml": "cohorts:\n  path: cohorts.csv\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "config.toml")); err == nil {
		t.Errorf("expected unsupported format error")
	}
}
