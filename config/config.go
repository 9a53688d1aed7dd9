package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brettbedarf/memfs/internal/pathutil"
	"github.com/brettbedarf/memfs/internal/util"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// CLI verbosity values accepted by ConfigOverride.LogLvl
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl        = util.InfoLevel
	DefaultCreateTempDir = false
)

// Environment keys read from .env files and the process environment
const (
	EnvPlatform         = "MEMFS_PLATFORM"
	EnvCaseSensitive    = "MEMFS_CASE_SENSITIVE"
	EnvCurrentDirectory = "MEMFS_CURRENT_DIRECTORY"
	EnvCreateTempDir    = "MEMFS_CREATE_TEMP_DIR"
	EnvSeedFile         = "MEMFS_SEED_FILE"
	EnvVerbose          = "MEMFS_VERBOSE"
)

// Config contains runtime configuration values for an in-memory file system.
type Config struct {
	LogLvl           util.LogLevel
	Platform         string // Path conventions to emulate: "posix" or "windows" (Default: host OS)
	CaseSensitive    bool   // Whether paths differing only in case are distinct (Default: true on posix, false on windows)
	CurrentDirectory string // Absolute path relative paths resolve against (Default: platform root)
	CreateTempDir    bool   // Create the platform temp directory on construction (Default false)
	SeedFile         string // Optional yaml/json file of initial entries
}

// PathPlatform resolves the configured Platform name
func (c *Config) PathPlatform() (pathutil.Platform, error) {
	return pathutil.ParsePlatform(c.Platform)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is a CLI style verbosity 1 (error) .. 5 (trace)
	LogLvl           *int    `yaml:"verbose,omitempty" json:"verbose,omitempty" toml:"verbose,omitempty"`
	Platform         *string `yaml:"platform,omitempty" json:"platform,omitempty" toml:"platform,omitempty"`
	CaseSensitive    *bool   `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty" toml:"case_sensitive,omitempty"`
	CurrentDirectory *string `yaml:"current_directory,omitempty" json:"current_directory,omitempty" toml:"current_directory,omitempty"`
	CreateTempDir    *bool   `yaml:"create_temp_dir,omitempty" json:"create_temp_dir,omitempty" toml:"create_temp_dir,omitempty"`
	SeedFile         *string `yaml:"seed_file,omitempty" json:"seed_file,omitempty" toml:"seed_file,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values for the
// host platform.
func NewDefaultConfig() *Config {
	p := pathutil.Host()
	return &Config{
		LogLvl:        DefaultLogLvl,
		Platform:      p.Name(),
		CaseSensitive: p.DefaultCaseSensitive(),
		CreateTempDir: DefaultCreateTempDir,
	}
}

// NewConfig returns the default Config with override applied. A nil
// override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
// Changing the platform without an explicit CaseSensitive also switches the
// case policy to the new platform's default.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = util.LevelFromVerbosity(*override.LogLvl)
	}
	if override.Platform != nil {
		c.Platform = *override.Platform
		if p, err := pathutil.ParsePlatform(c.Platform); err == nil {
			c.Platform = p.Name()
			c.CaseSensitive = p.DefaultCaseSensitive()
		}
	}
	if override.CaseSensitive != nil {
		c.CaseSensitive = *override.CaseSensitive
	}
	if override.CurrentDirectory != nil {
		c.CurrentDirectory = *override.CurrentDirectory
	}
	if override.CreateTempDir != nil {
		c.CreateTempDir = *override.CreateTempDir
	}
	if override.SeedFile != nil {
		c.SeedFile = *override.SeedFile
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports YAML (.yaml, .yml), JSON (.json), TOML (.toml) and dotenv (.env) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" && strings.HasPrefix(filepath.Base(path), ".env") {
		ext = ".env"
	}
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".env":
		env, err := godotenv.Unmarshal(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
		o, err := OverrideFromEnv(func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		})
		if err != nil {
			return nil, err
		}
		override = *o
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// OverrideFromEnv builds an override from MEMFS_* variables found through
// lookup (os.LookupEnv or a parsed .env map).
func OverrideFromEnv(lookup func(string) (string, bool)) (*ConfigOverride, error) {
	var override ConfigOverride

	str := func(key string) *string {
		if v, ok := lookup(key); ok {
			return &v
		}
		return nil
	}
	boolean := func(key string) (*bool, error) {
		v, ok := lookup(key)
		if !ok {
			return nil, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		return &b, nil
	}

	var err error
	override.Platform = str(EnvPlatform)
	override.CurrentDirectory = str(EnvCurrentDirectory)
	override.SeedFile = str(EnvSeedFile)
	if override.CaseSensitive, err = boolean(EnvCaseSensitive); err != nil {
		return nil, err
	}
	if override.CreateTempDir, err = boolean(EnvCreateTempDir); err != nil {
		return nil, err
	}
	if v, ok := lookup(EnvVerbose); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvVerbose, err)
		}
		override.LogLvl = &n
	}
	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
