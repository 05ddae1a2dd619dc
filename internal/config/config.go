package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override, e.g. SHIFTS_LOG_LEVEL.
const EnvPrefix = "SHIFTS_"

// Config is the root configuration for shifts, stored in
// ~/.shifts/config.json. The file supports single-line // comments for
// documentation purposes; environment variables override file values.
type Config struct {
	// DataDir holds all documents. Empty means ~/.shifts.
	DataDir string        `json:"data_dir" env:"DATA_DIR"`
	Storage StorageConfig `json:"storage" envPrefix:"STORAGE_"`
	Lock    LockConfig    `json:"lock" envPrefix:"LOCK_"`
	Log     LogConfig     `json:"log" envPrefix:"LOG_"`
	Outlook OutlookConfig `json:"outlook" envPrefix:"OUTLOOK_"`
}

// StorageConfig selects where documents live.
type StorageConfig struct {
	// Driver is "file" (one JSON file per document) or "sqlite".
	Driver string `json:"driver" env:"DRIVER"`
	// SQLitePath is the database file. Empty means <data_dir>/shifts.db.
	SQLitePath string `json:"sqlite_path" env:"SQLITE_PATH"`
}

// LockConfig selects how read-modify-write cycles are serialised.
type LockConfig struct {
	// Driver is "local" (in-process) or "redis" (shared between processes).
	Driver        string `json:"driver" env:"DRIVER"`
	RedisAddr     string `json:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `json:"redis_password" env:"REDIS_PASSWORD"`
	TTLSeconds    int    `json:"ttl_seconds" env:"TTL_SECONDS"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `json:"level" env:"LEVEL"`
	Format string `json:"format" env:"FORMAT"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar sync settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `json:"tenant_id" env:"TENANT_ID"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `json:"client_id" env:"CLIENT_ID"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = UTC.
	Timezone string `json:"timezone" env:"TIMEZONE"`
	// DefaultTask and DefaultLocation are used for imported events.
	DefaultTask     string `json:"default_task" env:"DEFAULT_TASK"`
	DefaultLocation string `json:"default_location" env:"DEFAULT_LOCATION"`
}

const (
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration. Replace with your own registered app ID for
	// organisational or production deployments.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultTask is the task used for imported events when none is given.
	DefaultTask = "Meetings"

	StorageFile   = "file"
	StorageSQLite = "sqlite"
	LockLocal     = "local"
	LockRedis     = "redis"

	DefaultRedisAddr  = "localhost:6379"
	DefaultTTLSeconds = 30
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "console"
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	cfg := Config{}
	cfg.fillDefaults()
	return cfg
}

// fillDefaults sets every zero-valued field to its built-in default so
// callers always get a usable Config even if the file is partial.
func (c *Config) fillDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageFile
	}
	if c.Lock.Driver == "" {
		c.Lock.Driver = LockLocal
	}
	if c.Lock.RedisAddr == "" {
		c.Lock.RedisAddr = DefaultRedisAddr
	}
	if c.Lock.TTLSeconds <= 0 {
		c.Lock.TTLSeconds = DefaultTTLSeconds
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Outlook.TenantID == "" {
		c.Outlook.TenantID = DefaultTenantID
	}
	if c.Outlook.ClientID == "" {
		c.Outlook.ClientID = DefaultClientID
	}
	if c.Outlook.DefaultTask == "" {
		c.Outlook.DefaultTask = DefaultTask
	}
}

// Validate rejects unknown drivers.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q (want %q or %q)", c.Storage.Driver, StorageFile, StorageSQLite)
	}
	switch c.Lock.Driver {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unknown lock driver %q (want %q or %q)", c.Lock.Driver, LockLocal, LockRedis)
	}
	return nil
}

// ResolveDataDir returns DataDir, or ~/.shifts when it is empty.
func (c Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".shifts"), nil
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// shifts configuration – ~/.shifts/config.json
//
// All settings are optional; the built-in defaults shown below work out of
// the box. Every value can also be set through the environment, e.g.
// SHIFTS_DATA_DIR, SHIFTS_STORAGE_DRIVER or SHIFTS_LOCK_REDIS_ADDR, or in a
// .env file in the working directory.
{
  // Directory holding users.json, task_config.json, shifts/ and requests/.
  // Leave empty to use ~/.shifts.
  "data_dir": "",

  // ── Storage ──────────────────────────────────────────────────────────────
  "storage": {
    // "file"   – one JSON document per file below data_dir (default)
    // "sqlite" – the same documents inside a single SQLite database
    "driver": "file",

    // Database file for the sqlite driver. Empty = <data_dir>/shifts.db
    "sqlite_path": ""
  },

  // ── Locking ──────────────────────────────────────────────────────────────
  "lock": {
    // "local" – serialise writes within this process (default)
    // "redis" – serialise writes across processes sharing data_dir
    "driver": "local",
    "redis_addr": "localhost:6379",
    "redis_password": "",

    // Seconds after which a lock held by a crashed process expires.
    "ttl_seconds": 30
  },

  // ── Diagnostics ──────────────────────────────────────────────────────────
  "log": {
    // debug, info, warn or error
    "level": "warn",
    // "console" or "json"
    "format": "console"
  },

  // ── Microsoft Graph / Outlook calendar sync ──────────────────────────────
  "outlook": {
    // Azure AD tenant ID.
    // • "common"  – personal Microsoft accounts and any organisation (default)
    // • Your organisation's tenant GUID, e.g. "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"
    "tenant_id": "common",

    // Azure application (client) ID used for the OAuth2 device code flow.
    // The built-in value is the public Azure CLI app – no app registration needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",

    // IANA timezone for interpreting calendar event times, e.g. "Europe/Berlin".
    // Leave empty to use UTC. Can be overridden with: shifts outlook sync --timezone <tz>
    "timezone": "",

    // Task and location given to edit requests created from calendar events.
    // Can be overridden per-sync with --task and --location.
    "default_task": "Meetings",
    "default_location": ""
  }
}
`

// FilePath returns the path to ~/.shifts/config.json.
func FilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".shifts", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.shifts/config.json, creating it with annotated defaults on
// first run, and applies environment overrides.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		cfg := defaultConfig()
		return cfg, errors.Join(err, applyEnv(&cfg))
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit config path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		cfg := defaultConfig()
		if err := applyEnv(&cfg); err != nil {
			return cfg, err
		}
		return cfg, cfg.Validate()
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	if err := applyEnv(&cfg); err != nil {
		return defaultConfig(), err
	}
	cfg.fillDefaults()
	return cfg, cfg.Validate()
}

// applyEnv overwrites fields whose SHIFTS_* variable is set.
func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return fmt.Errorf("environment overrides: %w", aggErr.Errors[0])
		}
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
