package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/cobus/internal/store"
)

const (
	BackendFirebase = "firebase"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	// Unit
	UnitName       string `yaml:"unit_name" validate:"unit_name"`
	MaxPassengers  int    `yaml:"max_passengers" validate:"gt=0"`
	CleanAtStartup bool   `yaml:"clean_at_startup"` // wipe remote data instead of loading it

	// Remote store
	StoreBackend   string        `yaml:"store_backend" validate:"oneof=firebase redis memory"`
	RemoteBaseURL  string        `yaml:"remote_base_url" validate:"required_if=StoreBackend firebase,omitempty,url"` // ex: "https://cobus-default-rtdb.firebaseio.com"
	CredentialPath string        `yaml:"credential_path" validate:"omitempty,file"`                                  // file holding the store secret
	RemoteTimeout  time.Duration `yaml:"remote_timeout" validate:"gt=0"`

	// Alerts
	AlertBackend string `yaml:"alert_backend" validate:"oneof=none command"`
	AlertCommand string `yaml:"alert_command"` // template with {frequency} and {duration}

	// Redis
	RedisAddr           string        `yaml:"redis_addr" validate:"required_if=StoreBackend redis"` // ex: "localhost:6379"
	RedisUser           string        `yaml:"redis_username"`
	RedisDB             int           `yaml:"redis_db" validate:"gte=0"`
	RedisDT             time.Duration `yaml:"redis_dial_timeout"`
	RedisRT             time.Duration `yaml:"redis_read_timeout"`
	RedisWT             time.Duration `yaml:"redis_write_timeout"`
	RedisMaxWait        time.Duration `yaml:"redis_max_wait"`
	RedisPingTimeout    time.Duration `yaml:"redis_ping_timeout"`
	RedisConnectTimeout time.Duration `yaml:"redis_connect_timeout"`
	RedisRetryInterval  time.Duration `yaml:"redis_retry_interval"`
	RedisWarnThreshold  int           `yaml:"redis_warn_threshold" validate:"gte=0"`

	// Status server, disabled when ListenPort is empty
	ListenPort      string        `yaml:"listen_port"` // ex: ":8080"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedCIDRS    []string      `yaml:"allowed_cidrs" validate:"dive,cidr|ip"`
	TrustProxy      bool          `yaml:"trust_proxy"`

	// Logging
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	PrettyLog bool   `yaml:"pretty_log"` // true => zap dev (color), false => zap prod (JSON)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// unit_name: one remote key, see store.ValidateUnit.
	if err := v.RegisterValidation("unit_name", func(fl validator.FieldLevel) bool {
		return store.ValidateUnit(fl.Field().String()) == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// Defaults returns the configuration used when neither a file nor the
// environment set a value.
func Defaults() *Config {
	return &Config{
		MaxPassengers: 5,
		StoreBackend:  BackendFirebase,
		RemoteTimeout: 10 * time.Second,
		AlertBackend:  "none",

		RedisUser:           "default",
		RedisDT:             5 * time.Second,
		RedisRT:             3 * time.Second,
		RedisWT:             3 * time.Second,
		RedisMaxWait:        10 * time.Second,
		RedisPingTimeout:    5 * time.Second,
		RedisConnectTimeout: 30 * time.Second,
		RedisRetryInterval:  2 * time.Second,
		RedisWarnThreshold:  3,

		ShutdownTimeout: 5 * time.Second,

		LogLevel:  "info",
		PrettyLog: true,
	}
}

// Load layers the optional YAML file named by COBUS_CONFIG_FILE (or path, when
// non-empty) and the COBUS_* environment over the defaults. It panics on an
// unreadable file; call Validate once command-line overrides are applied.
func Load(path string) *Config {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("COBUS_CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
	}

	// Unit
	cfg.UnitName = getenv("COBUS_UNIT_NAME", cfg.UnitName)
	cfg.MaxPassengers = getenvInt("COBUS_MAX_PASSENGERS", cfg.MaxPassengers)
	cfg.CleanAtStartup = mustBool("COBUS_CLEAN_AT_STARTUP", cfg.CleanAtStartup)

	// Remote store
	cfg.StoreBackend = getenv("COBUS_STORE_BACKEND", cfg.StoreBackend)
	cfg.RemoteBaseURL = getenv("COBUS_REMOTE_BASE_URL", cfg.RemoteBaseURL)
	cfg.CredentialPath = getenv("COBUS_CREDENTIAL_PATH", cfg.CredentialPath)
	cfg.RemoteTimeout = mustDuration("COBUS_REMOTE_TIMEOUT", cfg.RemoteTimeout)

	// Alerts
	cfg.AlertBackend = getenv("COBUS_ALERT_BACKEND", cfg.AlertBackend)
	cfg.AlertCommand = getenv("COBUS_ALERT_COMMAND", cfg.AlertCommand)

	// Redis settings
	cfg.RedisAddr = getenv("COBUS_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisUser = getenv("COBUS_REDIS_USERNAME", cfg.RedisUser)
	cfg.RedisDB = getenvInt("COBUS_REDIS_DB", cfg.RedisDB)
	cfg.RedisDT = mustDuration("COBUS_REDIS_DIAL_TIMEOUT", cfg.RedisDT)
	cfg.RedisRT = mustDuration("COBUS_REDIS_READ_TIMEOUT", cfg.RedisRT)
	cfg.RedisWT = mustDuration("COBUS_REDIS_WRITE_TIMEOUT", cfg.RedisWT)
	cfg.RedisMaxWait = mustDuration("COBUS_REDIS_MAX_WAIT", cfg.RedisMaxWait)
	cfg.RedisPingTimeout = mustDuration("COBUS_REDIS_PING_TIMEOUT", cfg.RedisPingTimeout)
	cfg.RedisConnectTimeout = mustDuration("COBUS_REDIS_CONNECT_TIMEOUT", cfg.RedisConnectTimeout)
	cfg.RedisRetryInterval = mustDuration("COBUS_REDIS_RETRY_INTERVAL", cfg.RedisRetryInterval)
	cfg.RedisWarnThreshold = getenvInt("COBUS_REDIS_WARN_THRESHOLD", cfg.RedisWarnThreshold)

	// Status server
	cfg.ListenPort = getenv("COBUS_LISTEN_PORT", cfg.ListenPort)
	cfg.ShutdownTimeout = mustDuration("COBUS_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if v := os.Getenv("COBUS_ALLOWED_CIDRS"); v != "" {
		cfg.AllowedCIDRS = parseAllowedIPs(v)
	}
	cfg.TrustProxy = mustBool("COBUS_TRUST_PROXY", cfg.TrustProxy)

	// Logging
	cfg.LogLevel = getenv("COBUS_LOG_LEVEL", cfg.LogLevel)
	cfg.PrettyLog = mustBool("COBUS_PRETTY_LOG", cfg.PrettyLog)

	return cfg
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Credential returns the trimmed content of CredentialPath, or "" when unset.
func (c *Config) Credential() (string, error) {
	if c.CredentialPath == "" {
		return "", nil
	}
	raw, err := os.ReadFile(c.CredentialPath)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
