package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
mqtt:
  broker:
    host: "broker.local"
    port: 1884
    client_id: "translator-01"
  auth:
    username: "bridge"
    password: "secret"
  subscribe_qos: 1
  reconnect:
    max_attempts: 3
mapping:
  file: "/etc/translator/mapping.json"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.MQTT.Broker.Port != 1884 {
		t.Errorf("MQTT.Broker.Port = %d, want 1884", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Reconnect.MaxAttempts != 3 {
		t.Errorf("MQTT.Reconnect.MaxAttempts = %d, want 3", cfg.MQTT.Reconnect.MaxAttempts)
	}
	// Untouched keys keep their defaults
	if cfg.MQTT.Reconnect.MaxDelay != 60 {
		t.Errorf("MQTT.Reconnect.MaxDelay = %d, want default 60", cfg.MQTT.Reconnect.MaxDelay)
	}
	if cfg.Mapping.File != "/etc/translator/mapping.json" {
		t.Errorf("Mapping.File = %q, want %q", cfg.Mapping.File, "/etc/translator/mapping.json")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
mqtt:
  broker:
    client_id: ""
  auth:
    username: "bridge"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for empty client_id, got nil")
	}
	if !strings.Contains(err.Error(), "client_id") {
		t.Errorf("Load() error = %v, want mention of client_id", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.MQTT.Auth.Username = "bridge"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.MQTT.Auth.Username = "" },
			wantErr: true,
		},
		{
			name:    "invalid subscribe QoS",
			mutate:  func(c *Config) { c.MQTT.SubscribeQoS = 3 },
			wantErr: true,
		},
		{
			name:    "zero reconnect attempts",
			mutate:  func(c *Config) { c.MQTT.Reconnect.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "negative reconnect delay",
			mutate:  func(c *Config) { c.MQTT.Reconnect.InitialDelay = -1 },
			wantErr: true,
		},
		{
			name:    "missing mapping file",
			mutate:  func(c *Config) { c.Mapping.File = "" },
			wantErr: true,
		},
		{
			name: "database enabled without path",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{
			name: "database disabled without path",
			mutate: func(c *Config) {
				c.Database.Enabled = false
				c.Database.Path = ""
			},
			wantErr: false,
		},
		{
			name: "influxdb enabled without bucket",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Org = "home"
			},
			wantErr: true,
		},
		{
			name: "api enabled with bad port",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: true,
		},
		{
			name:    "negative heartbeat",
			mutate:  func(c *Config) { c.Heartbeat.Interval = -5 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.MQTT.Broker.Host = ""
	cfg.Mapping.File = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"mqtt.broker.host", "mqtt.auth.username", "mapping.file"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %q, want it to mention %q", err, want)
		}
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Heartbeat: HeartbeatConfig{Interval: 3600},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetHeartbeatInterval().Hours(); got != 1 {
		t.Errorf("GetHeartbeatInterval() = %v hours, want 1", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("TRANSLATOR_MQTT_HOST", "mqtt.example.com")
	t.Setenv("TRANSLATOR_MQTT_PORT", "8883")
	t.Setenv("TRANSLATOR_MQTT_CLIENT_ID", "translator-env")
	t.Setenv("TRANSLATOR_MQTT_USERNAME", "testuser")
	t.Setenv("TRANSLATOR_MQTT_PASSWORD", "testpass")
	t.Setenv("TRANSLATOR_MAPPING_FILE", "/custom/mapping.yaml")
	t.Setenv("TRANSLATOR_DATABASE_PATH", "/custom/path.db")
	t.Setenv("TRANSLATOR_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Broker.ClientID != "translator-env" {
		t.Errorf("MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "translator-env")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.Mapping.File != "/custom/mapping.yaml" {
		t.Errorf("Mapping.File = %q, want %q", cfg.Mapping.File, "/custom/mapping.yaml")
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("TRANSLATOR_MQTT_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want unchanged 1883", cfg.MQTT.Broker.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Reconnect.MaxAttempts != 1 {
		t.Errorf("defaultConfig MQTT.Reconnect.MaxAttempts = %d, want 1", cfg.MQTT.Reconnect.MaxAttempts)
	}
	if cfg.MQTT.SubscribeQoS != 2 {
		t.Errorf("defaultConfig MQTT.SubscribeQoS = %d, want 2", cfg.MQTT.SubscribeQoS)
	}
	if cfg.Heartbeat.Interval != 3600 {
		t.Errorf("defaultConfig Heartbeat.Interval = %d, want 3600", cfg.Heartbeat.Interval)
	}
	if cfg.Mapping.File == "" {
		t.Error("defaultConfig should have non-empty Mapping.File")
	}
}
