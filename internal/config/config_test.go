package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var cobusEnv = []string{
	"COBUS_CONFIG_FILE", "COBUS_UNIT_NAME", "COBUS_MAX_PASSENGERS", "COBUS_CLEAN_AT_STARTUP",
	"COBUS_STORE_BACKEND", "COBUS_REMOTE_BASE_URL", "COBUS_CREDENTIAL_PATH", "COBUS_REMOTE_TIMEOUT",
	"COBUS_ALERT_BACKEND", "COBUS_ALERT_COMMAND", "COBUS_REDIS_ADDR", "COBUS_REDIS_DB",
	"COBUS_LISTEN_PORT", "COBUS_ALLOWED_CIDRS", "COBUS_LOG_LEVEL", "COBUS_PRETTY_LOG",
}

// clearEnv blanks every variable Load reads; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range cobusEnv {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("COBUS_UNIT_NAME", "bus-42")

	cfg := Load("")

	if cfg.UnitName != "bus-42" {
		t.Errorf("UnitName = %q, want bus-42", cfg.UnitName)
	}
	if cfg.MaxPassengers != 5 {
		t.Errorf("MaxPassengers = %d, want 5", cfg.MaxPassengers)
	}
	if cfg.CleanAtStartup {
		t.Error("CleanAtStartup = true, want false")
	}
	if cfg.StoreBackend != BackendFirebase {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendFirebase)
	}
	if cfg.RemoteTimeout != 10*time.Second {
		t.Errorf("RemoteTimeout = %v, want 10s", cfg.RemoteTimeout)
	}
	if cfg.AlertBackend != "none" || cfg.ListenPort != "" {
		t.Errorf("AlertBackend = %q, ListenPort = %q", cfg.AlertBackend, cfg.ListenPort)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "cobus.yaml", `
unit_name: from-file
max_passengers: 12
store_backend: memory
remote_timeout: 2s
allowed_cidrs:
  - 10.0.0.0/8
log_level: debug
`)
	t.Setenv("COBUS_MAX_PASSENGERS", "30")
	t.Setenv("COBUS_ALLOWED_CIDRS", "127.0.0.1, '192.168.0.0/16'")

	cfg := Load(path)

	if cfg.UnitName != "from-file" {
		t.Errorf("UnitName = %q, want from-file", cfg.UnitName)
	}
	if cfg.MaxPassengers != 30 {
		t.Errorf("MaxPassengers = %d, env must override the file", cfg.MaxPassengers)
	}
	if cfg.StoreBackend != BackendMemory || cfg.LogLevel != "debug" {
		t.Errorf("StoreBackend = %q, LogLevel = %q", cfg.StoreBackend, cfg.LogLevel)
	}
	if cfg.RemoteTimeout != 2*time.Second {
		t.Errorf("RemoteTimeout = %v, want 2s", cfg.RemoteTimeout)
	}
	if got := strings.Join(cfg.AllowedCIDRS, ","); got != "127.0.0.1,192.168.0.0/16" {
		t.Errorf("AllowedCIDRS = %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_FileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("COBUS_CONFIG_FILE", writeFile(t, "c.yaml", "unit_name: env-file\n"))

	if got := Load("").UnitName; got != "env-file" {
		t.Errorf("UnitName = %q, want env-file", got)
	}
}

func TestLoad_BadFilePanics(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "nope.yaml")},
		{name: "malformed yaml", path: writeFile(t, "bad.yaml", "unit_name: [unterminated\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load(%q) should have panicked", tt.path)
				}
			}()
			Load(tt.path)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Defaults()
		c.UnitName = "bus"
		c.RemoteBaseURL = "https://cobus.example.com"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid firebase", mutate: func(*Config) {}},
		{name: "missing unit", mutate: func(c *Config) { c.UnitName = "" }, wantErr: "UnitName"},
		{name: "unit with fragment", mutate: func(c *Config) { c.UnitName = "bus#2" }, wantErr: "UnitName"},
		{name: "unit with path", mutate: func(c *Config) { c.UnitName = "bus/../other" }, wantErr: "UnitName"},
		{name: "unit with reserved chars", mutate: func(c *Config) { c.UnitName = "bus[$]" }, wantErr: "UnitName"},
		{name: "unit with control char", mutate: func(c *Config) { c.UnitName = "bus\n" }, wantErr: "UnitName"},
		{name: "unit with spaces", mutate: func(c *Config) { c.UnitName = "bus 7" }},
		{name: "zero capacity", mutate: func(c *Config) { c.MaxPassengers = 0 }, wantErr: "MaxPassengers"},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "sqlite" }, wantErr: "StoreBackend"},
		{name: "firebase without url", mutate: func(c *Config) { c.RemoteBaseURL = "" }, wantErr: "RemoteBaseURL"},
		{name: "malformed url", mutate: func(c *Config) { c.RemoteBaseURL = "not a url" }, wantErr: "RemoteBaseURL"},
		{
			name:   "memory needs no url",
			mutate: func(c *Config) { c.StoreBackend = BackendMemory; c.RemoteBaseURL = "" },
		},
		{
			name:    "redis without addr",
			mutate:  func(c *Config) { c.StoreBackend = BackendRedis },
			wantErr: "RedisAddr",
		},
		{
			name:   "redis with addr",
			mutate: func(c *Config) { c.StoreBackend = BackendRedis; c.RedisAddr = "localhost:6379" },
		},
		{name: "unknown alert backend", mutate: func(c *Config) { c.AlertBackend = "beep" }, wantErr: "AlertBackend"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "LogLevel"},
		{name: "bad cidr", mutate: func(c *Config) { c.AllowedCIDRS = []string{"10.0.0.0/8", "nope"} }, wantErr: "AllowedCIDRS"},
		{
			name:    "missing credential file",
			mutate:  func(c *Config) { c.CredentialPath = "/nonexistent/cobus.key" },
			wantErr: "CredentialPath",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestCredential(t *testing.T) {
	cfg := Defaults()
	if got, err := cfg.Credential(); err != nil || got != "" {
		t.Errorf("Credential() without path = %q, %v", got, err)
	}

	cfg.CredentialPath = writeFile(t, "key", "  s3cr3t\n")
	got, err := cfg.Credential()
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got != "s3cr3t" {
		t.Errorf("Credential() = %q, want s3cr3t", got)
	}

	cfg.CredentialPath = filepath.Join(t.TempDir(), "missing")
	if _, err := cfg.Credential(); err == nil {
		t.Error("Credential() with a missing file returned no error")
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "10.0.0.1", want: []string{"10.0.0.1"}},
		{name: "spaces and quotes", input: ` "10.0.0.1" , '10.0.0.0/8' ,`, want: []string{"10.0.0.1", "10.0.0.0/8"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.input)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      int
		expected int
	}{
		{name: "valid integer", value: "42", def: 1, expected: 42},
		{name: "invalid integer uses default", value: "many", def: 5, expected: 5},
		{name: "missing variable uses default", value: "", def: 7, expected: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			if got := getenvInt("TEST_INT", tt.def); got != tt.expected {
				t.Errorf("getenvInt() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", value: "true", def: false, expected: true},
		{name: "false value", value: "false", def: true, expected: false},
		{name: "invalid value uses default", value: "maybe", def: true, expected: true},
		{name: "missing variable uses default", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}
