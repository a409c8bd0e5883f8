// Package config loads ms configuration from JSONC files and CLI overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"go.uber.org/zap/zapcore"

	"github.com/calvinalkan/missions/internal/blob"
	"github.com/calvinalkan/missions/internal/hierarchy"
)

// Config errors.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataDirEmpty       = errors.New("data_dir cannot be empty")
	ErrKeyEmpty           = errors.New("key cannot be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrTimezoneInvalid    = errors.New("unknown timezone")
	ErrLogLevelInvalid    = errors.New("invalid log_level")
)

// FileName is the project config file looked up in the working directory.
const FileName = ".ms.json"

// Config holds all configuration options.
type Config struct {
	DataDir     string `json:"data_dir"`
	Backend     string `json:"backend"`
	Key         string `json:"key"`
	Timezone    string `json:"timezone,omitempty"`
	LogLevel    string `json:"log_level"`
	RedisAddr   string `json:"redis_addr,omitempty"`
	RedisDB     int    `json:"redis_db,omitempty"`
	RedisPrefix string `json:"redis_prefix,omitempty"`
	PostgresDSN string `json:"postgres_dsn,omitempty"`

	// Resolved (not serialized).
	EffectiveCwd string         `json:"-"`
	DataDirAbs   string         `json:"-"`
	Location     *time.Location `json:"-"`

	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string
	Project string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:     ".missions",
		Backend:     blob.BackendFile,
		Key:         hierarchy.DefaultKey,
		LogLevel:    "warn",
		RedisPrefix: blob.DefaultRedisPrefix,
	}
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride string // -C/--cwd; empty means os.Getwd()
	ConfigPath      string // -c/--config
	DataDir         string // --data-dir
	Backend         string // --backend
	Env             map[string]string
}

// Load resolves configuration with this precedence (highest wins):
//  1. Defaults
//  2. Global config ($XDG_CONFIG_HOME/ms/config.json or ~/.config/ms/config.json)
//  3. Project config (.ms.json in the working directory), or the explicit
//     file given by ConfigPath
//  4. CLI overrides
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	} else if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}

		workDir = abs
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		overlay, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = merge(cfg, overlay)
			cfg.Sources.Global = path
		}
	}

	projectFile, mustExist := filepath.Join(workDir, FileName), false

	if input.ConfigPath != "" {
		projectFile, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(projectFile) {
			projectFile = filepath.Join(workDir, projectFile)
		}
	}

	overlay, loaded, err := loadFile(projectFile, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = merge(cfg, overlay)
		cfg.Sources.Project = projectFile
	}

	if input.DataDir != "" {
		cfg.DataDir = input.DataDir
	}

	if input.Backend != "" {
		cfg.Backend = input.Backend
	}

	loc, err := validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.Location = loc
	cfg.EffectiveCwd = workDir

	cfg.DataDirAbs = cfg.DataDir
	if !filepath.IsAbs(cfg.DataDirAbs) {
		cfg.DataDirAbs = filepath.Join(workDir, cfg.DataDirAbs)
	}

	return cfg, nil
}

// BlobConfig returns the backend settings for [blob.Open]. Secrets come from
// MS_REDIS_PASSWORD and MS_POSTGRES_DSN in env, the latter overriding postgres_dsn.
func (c Config) BlobConfig(env map[string]string) blob.Config {
	dsn := c.PostgresDSN
	if v := env["MS_POSTGRES_DSN"]; v != "" {
		dsn = v
	}

	return blob.Config{
		Backend:       c.Backend,
		Dir:           c.DataDirAbs,
		RedisAddr:     c.RedisAddr,
		RedisPassword: env["MS_REDIS_PASSWORD"],
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
		PostgresDSN:   dsn,
	}
}

// Format renders the serialized fields as indented JSON.
func Format(cfg Config) (string, error) {
	if cfg.PostgresDSN != "" {
		cfg.PostgresDSN = redactDSN(cfg.PostgresDSN)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return string(data), nil
}

func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "ms", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "ms", "config.json")
	}

	return ""
}

// loadFile reads a JSONC config file. Missing optional files report loaded=false.
func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !mustExist {
			return Config{}, false, nil
		}

		if os.IsNotExist(err) {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}

		return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	// An explicit "" would silently fall back to the lower layer.
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	for field, sentinel := range map[string]error{"data_dir": ErrDataDirEmpty, "key": ErrKeyEmpty} {
		if v, ok := raw[field].(string); ok && strings.TrimSpace(v) == "" {
			return Config{}, sentinel
		}
	}

	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.DataDir != "" {
		base.DataDir = overlay.DataDir
	}

	if overlay.Backend != "" {
		base.Backend = overlay.Backend
	}

	if overlay.Key != "" {
		base.Key = overlay.Key
	}

	if overlay.Timezone != "" {
		base.Timezone = overlay.Timezone
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.RedisAddr != "" {
		base.RedisAddr = overlay.RedisAddr
	}

	if overlay.RedisDB != 0 {
		base.RedisDB = overlay.RedisDB
	}

	if overlay.RedisPrefix != "" {
		base.RedisPrefix = overlay.RedisPrefix
	}

	if overlay.PostgresDSN != "" {
		base.PostgresDSN = overlay.PostgresDSN
	}

	return base
}

func validate(cfg Config) (*time.Location, error) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, ErrDataDirEmpty
	}

	if strings.TrimSpace(cfg.Key) == "" {
		return nil, ErrKeyEmpty
	}

	if !slices.Contains(blob.Backends, cfg.Backend) {
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrBackendUnknown, cfg.Backend, strings.Join(blob.Backends, ", "))
	}

	_, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrLogLevelInvalid, cfg.LogLevel)
	}

	if cfg.Timezone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrTimezoneInvalid, cfg.Timezone, err)
	}

	return loc, nil
}

// redactDSN hides the password in a postgres URL or key=value DSN.
func redactDSN(dsn string) string {
	if scheme, rest, ok := strings.Cut(dsn, "://"); ok {
		userinfo, host, hasAt := strings.Cut(rest, "@")
		if !hasAt {
			return dsn
		}

		user, _, hasPass := strings.Cut(userinfo, ":")
		if !hasPass {
			return dsn
		}

		return scheme + "://" + user + ":xxxxx@" + host
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=xxxxx"
		}
	}

	return strings.Join(fields, " ")
}
