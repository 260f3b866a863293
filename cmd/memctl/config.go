package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/rewind"
	"github.com/tailscale/hujson"
)

// Config holds the tunable knobs shared by memctl commands.
type Config struct {
	ScratchBytes int64  `json:"scratch_bytes,omitempty"`
	ChunkBytes   int64  `json:"chunk_bytes,omitempty"`
	ReportDir    string `json:"report_dir,omitempty"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // path to the global config if loaded, empty otherwise
	Project string // path to the project config if loaded, empty otherwise
}

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigFileRead     = errors.New("cannot read config file")
	errConfigInvalid      = errors.New("invalid config file")
	errBytesNegative      = errors.New("byte sizes must be positive")
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ScratchBytes: mem.DefaultScratchBytes,
		ChunkBytes:   rewind.DefaultChunkSize,
		ReportDir:    ".",
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".memctl.json"

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/memctl/config.json if set, otherwise
// ~/.config/memctl/config.json. Returns empty string if the home
// directory cannot be determined.
func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "memctl", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "memctl", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "memctl", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/memctl/config.json)
// 3. Project config file at default location (.memctl.json, if exists)
// 4. Explicit config file via configPath (if non-empty)
// 5. CLI overrides.
//
// Zero fields in cliOverrides mean "not set on the command line".
func LoadConfig(workDir, configPath string, cliOverrides Config, env []string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	globalCfg, globalPath, err := loadGlobalConfig(env)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	cfg = mergeConfig(cfg, cliOverrides)

	if err := validateConfig(cfg); err != nil {
		return Config{}, ConfigSources{}, err
	}

	return cfg, sources, nil
}

// loadGlobalConfig loads the global user config file if it exists.
// Returns the config, the path if loaded, and any error.
func loadGlobalConfig(env []string) (Config, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return Config{}, "", nil
	}

	globalCfg, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return globalCfg, globalCfgPath, nil
}

// loadProjectConfig loads the project config file (.memctl.json) or an
// explicit config file. Returns the config, the path if loaded, and any error.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		// Explicit config file - must exist
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, statErr := os.Stat(cfgFile); statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	fileCfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config. Returns the config, whether the file was loaded, and
// any error.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", errConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.ScratchBytes != 0 {
		base.ScratchBytes = overlay.ScratchBytes
	}

	if overlay.ChunkBytes != 0 {
		base.ChunkBytes = overlay.ChunkBytes
	}

	if overlay.ReportDir != "" {
		base.ReportDir = overlay.ReportDir
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.ScratchBytes < 0 || cfg.ChunkBytes < 0 {
		return errBytesNegative
	}

	return nil
}

// FormatConfig returns the config as formatted JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}

// loadedConfig resolves the effective config for the current invocation,
// honoring the global --config flag and the given CLI overrides.
func loadedConfig(cliOverrides Config) (Config, ConfigSources, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return Config{}, ConfigSources{}, fmt.Errorf("cannot determine working directory: %w", err)
	}

	return LoadConfig(workDir, configPath, cliOverrides, os.Environ())
}

// applyScratchSize exports the configured scratch budget so the registry
// picks it up on Initialize.
func applyScratchSize(cfg Config) {
	if cfg.ScratchBytes > 0 {
		os.Setenv("MEMKIT_SCRATCH_BYTES", fmt.Sprintf("%d", cfg.ScratchBytes))
	}
}
