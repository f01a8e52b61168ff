// Package config loads studyview configuration by layering
// defaults, a .env file, the JSON config file, environment
// variables, and CLI flags, in that order of precedence.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DBFileName is the SQLite database file inside the data dir.
const DBFileName = "studyview.db"

// Config holds all application configuration.
type Config struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	DataDir         string `json:"data_dir"`
	DBPath          string `json:"-"`
	ImportDir       string `json:"import_dir"`
	ImportCommand   string `json:"import_command,omitempty"`
	Timezone        string `json:"timezone"`
	EnableCache     bool   `json:"enable_cache"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds"`
	DefaultPeriod   int    `json:"default_period_days"`
	MaxPeriod       int    `json:"max_period_days"`

	WriteTimeout time.Duration `json:"-"`
}

// CacheTTL returns the configured base cache TTL.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".studyview")
	return Config{
		Host:            "127.0.0.1",
		Port:            8931,
		DataDir:         dataDir,
		DBPath:          filepath.Join(dataDir, DBFileName),
		ImportDir:       filepath.Join(dataDir, "records"),
		Timezone:        "UTC",
		EnableCache:     true,
		CacheTTLSeconds: 300,
		DefaultPeriod:   30,
		MaxPeriod:       365,
		WriteTimeout:    30 * time.Second,
	}, nil
}

// Load builds a Config by layering: defaults < .env < config file
// < env < flags. The provided FlagSet must already be parsed by
// the caller. Only flags that were explicitly set override the
// lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, fs)
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, dotenv, config file,
// and env, without parsing CLI flags. Use this for subcommands
// that manage their own flag sets.
func LoadMinimal() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	cfg.applyDotenv()

	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	cfg.DBPath = filepath.Join(cfg.DataDir, DBFileName)
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

// applyDotenv reads key=value pairs from .env files without
// touching the process environment, so real environment variables
// keep precedence over file-sourced ones. The working directory
// is checked first, then the data dir.
func (c *Config) applyDotenv() {
	for _, path := range []string{
		".env",
		filepath.Join(c.DataDir, ".env"),
	} {
		vars, err := godotenv.Read(path)
		if err != nil {
			continue
		}
		c.applyVars(func(key string) string { return vars[key] })
	}
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		Host            string `json:"host"`
		Port            int    `json:"port"`
		ImportDir       string `json:"import_dir"`
		ImportCommand   string `json:"import_command"`
		Timezone        string `json:"timezone"`
		EnableCache     *bool  `json:"enable_cache"`
		CacheTTLSeconds int    `json:"cache_ttl_seconds"`
		DefaultPeriod   int    `json:"default_period_days"`
		MaxPeriod       int    `json:"max_period_days"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.Host != "" {
		c.Host = file.Host
	}
	if file.Port > 0 {
		c.Port = file.Port
	}
	if file.ImportDir != "" {
		c.ImportDir = file.ImportDir
	}
	if file.ImportCommand != "" {
		c.ImportCommand = file.ImportCommand
	}
	if file.Timezone != "" {
		c.Timezone = file.Timezone
	}
	if file.EnableCache != nil {
		c.EnableCache = *file.EnableCache
	}
	if file.CacheTTLSeconds > 0 {
		c.CacheTTLSeconds = file.CacheTTLSeconds
	}
	if file.DefaultPeriod > 0 {
		c.DefaultPeriod = file.DefaultPeriod
	}
	if file.MaxPeriod > 0 {
		c.MaxPeriod = file.MaxPeriod
	}
	return nil
}

func (c *Config) loadEnv() {
	c.applyVars(os.Getenv)
}

// applyVars copies recognized STUDYVIEW_ settings from a lookup
// function into the config. Empty lookups leave the field alone.
func (c *Config) applyVars(get func(string) string) {
	if v := get("STUDYVIEW_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := get("STUDYVIEW_HOST"); v != "" {
		c.Host = v
	}
	if v := get("STUDYVIEW_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Port = n
		}
	}
	if v := get("STUDYVIEW_IMPORT_DIR"); v != "" {
		c.ImportDir = v
	}
	if v := get("STUDYVIEW_IMPORT_COMMAND"); v != "" {
		c.ImportCommand = v
	}
	if v := get("STUDYVIEW_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := get("STUDYVIEW_ENABLE_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.EnableCache = b
		}
	}
	if v := get("STUDYVIEW_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CacheTTLSeconds = n
		}
	}
	if v := get("STUDYVIEW_WRITE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.WriteTimeout = time.Duration(n) * time.Second
		}
	}
}

// RegisterServeFlags registers serve-command flags on fs.
// The caller must call fs.Parse before passing fs to Load.
func RegisterServeFlags(fs *flag.FlagSet) {
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 8931, "Port to listen on")
	fs.String("import-dir", "", "Directory of JSONL session records")
	fs.String("timezone", "UTC", "Default IANA timezone for reports")
	fs.Bool("no-cache", false, "Disable the report cache")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			// flag already validated the int; ignore parse error
			cfg.Port, _ = strconv.Atoi(f.Value.String())
		case "import-dir":
			cfg.ImportDir = f.Value.String()
		case "timezone":
			cfg.Timezone = f.Value.String()
		case "no-cache":
			cfg.EnableCache = f.Value.String() != "true"
		}
	})
}

// ResolveDataDir returns the effective data directory by applying
// defaults and environment overrides, without reading any files.
func ResolveDataDir() (string, error) {
	cfg, err := Default()
	if err != nil {
		return "", err
	}
	if v := os.Getenv("STUDYVIEW_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	return cfg.DataDir, nil
}

// SaveImportCommand persists the import command to the config
// file, preserving unrelated keys.
func (c *Config) SaveImportCommand(command string) error {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	existing := make(map[string]any)
	data, err := os.ReadFile(c.configPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf(
				"existing config is invalid, cannot update: %w",
				err,
			)
		}
	}

	existing["import_command"] = command
	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(c.configPath(), out, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	c.ImportCommand = command
	return nil
}
