package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Loader defines the interface for loading configuration.
type Loader interface {
	// Load layers defaults, the config file at path (or a default location when
	// path is empty) and environment overrides, then validates the result.
	Load(path string) (*Config, error)
	// Validate validates the configuration.
	Validate(config *Config) error
}

// FileLoader implements Loader with koanf.
type FileLoader struct {
	// EnvFile is a dotenv file merged into the process environment before
	// environment overrides are read. Missing files are ignored.
	EnvFile string
}

// NewLoader creates a new FileLoader instance.
func NewLoader() Loader {
	return &FileLoader{EnvFile: ".env"}
}

// Load loads configuration with precedence env > file > defaults.
func (l *FileLoader) Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, NewConfigErrorWithCause(ConfigInvalid, "", "failed to load defaults", err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, NewConfigErrorWithCause(ConfigInvalid, configPath, "invalid YAML syntax", err)
		}
	}

	if err := l.loadEnvFiles(configPath); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, NewConfigErrorWithCause(ConfigInvalid, configPath, "failed to load environment variables", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, NewConfigErrorWithCause(ConfigInvalid, configPath, "failed to process list fields", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, NewConfigErrorWithCause(ConfigInvalid, configPath, "failed to decode configuration", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, NewConfigErrorWithCause(ConfigInvalid, configPath, "failed to resolve paths", err)
	}

	if err := l.Validate(cfg); err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) && cfgErr.File == "" {
			cfgErr.File = configPath
		}
		return nil, err
	}

	return cfg, nil
}

// loadEnvFiles merges the dotenv file from the working directory and the
// one next to the config file. Variables already set are not overridden.
func (l *FileLoader) loadEnvFiles(configPath string) error {
	var candidates []string
	if l.EnvFile != "" {
		candidates = append(candidates, l.EnvFile)
	}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			abs = candidate
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}

		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return NewConfigErrorWithCause(ConfigInvalid, abs, "invalid dotenv file", err)
		}
	}
	return nil
}

// findConfigFile returns the explicit path (which must exist) or the first
// default location that exists. An empty result means defaults and env only.
func findConfigFile(path string) (string, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", NewConfigErrorWithCause(ConfigInvalid, path, "failed to expand path", err)
		}
		if _, err := os.Stat(expanded); err != nil {
			if os.IsNotExist(err) {
				return "", NewConfigErrorWithCause(ConfigNotFound, path, "configuration file not found", err)
			}
			return "", NewConfigErrorWithCause(ConfigInvalid, path, "failed to read configuration file", err)
		}
		return expanded, nil
	}

	candidates := append([]string{}, DefaultConfigPaths...)
	if userPath := DefaultConfigPath(); userPath != "" {
		candidates = append(candidates, userPath)
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// sliceConfigPaths are keys that may arrive from the environment as
// comma-separated strings.
var sliceConfigPaths = []string{
	"collections",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps ADDONSYNC_API__REQUESTS_PER_SECOND to api.requests_per_second.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "__", ".")
}

// ExpandPath expands ~ to home directory and evaluates relative paths.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		if path[1] == filepath.Separator {
			return filepath.Join(homeDir, path[2:]), nil
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	return absPath, nil
}
