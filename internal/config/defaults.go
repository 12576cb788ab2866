package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/tacogips/addonsync/internal/model"
)

// DefaultConfigPaths lists the config files searched, in order, when no
// explicit path is given.
var DefaultConfigPaths = []string{
	"addonsync.yaml",
	"addonsync.yml",
}

// EnvPrefix prefixes every environment override, e.g. ADDONSYNC_API__KEY.
const EnvPrefix = "ADDONSYNC_"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			WorkDir:         ".",
			Checkpoint:      model.CheckpointFile,
			Manifest:        model.ManifestFile,
			Pending:         model.PendingFile,
			Staging:         model.StagingDir,
			SteamRoot:       "/home/steam/Steam",
			ServerRoot:      "/home/steam/gmod",
			InstallManifest: true,
		},
		Collections: []string{},
		API: APIConfig{
			URL:               "https://api.steampowered.com",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 0,
			BreakerFailures:   0,
			BreakerTimeout:    30 * time.Second,
		},
		Tools: ToolsConfig{
			SteamCMD: "/usr/games/steamcmd",
			Gmad:     "/home/steam/bin/gmad_linux",
			SevenZip: "/usr/bin/7z",
			AppID:    "4000",
			Login:    "anonymous",
		},
		Manifest: ManifestConfig{
			Timezone:    "Local",
			Concurrency: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the per-user configuration file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "addonsync", "config.yaml")
}
