package config

import "time"

// Config represents the global addonsync configuration.
type Config struct {
	// Paths configures where local state and server trees live.
	Paths PathsConfig `koanf:"paths"`
	// Collections are the workshop collection ids to synchronize, in order.
	Collections []string `koanf:"collections" validate:"omitempty,dive,required,numeric"`
	// API configures the remote workshop API client.
	API APIConfig `koanf:"api"`
	// Tools configures the external binaries the fetch phases invoke.
	Tools ToolsConfig `koanf:"tools"`
	// Manifest configures manifest rendering.
	Manifest ManifestConfig `koanf:"manifest"`
	// Logging configures diagnostic output.
	Logging LoggingConfig `koanf:"logging"`
	// Metrics configures the optional run metrics export.
	Metrics MetricsConfig `koanf:"metrics"`
}

// PathsConfig represents filesystem locations. Relative file paths are
// resolved against WorkDir.
type PathsConfig struct {
	// WorkDir is the directory holding generated files and the checkpoint.
	WorkDir string `koanf:"work_dir" validate:"required"`
	// Checkpoint is the file holding the last synchronized epoch.
	Checkpoint string `koanf:"checkpoint" validate:"required"`
	// Manifest is the generated workshop.lua.
	Manifest string `koanf:"manifest" validate:"required"`
	// Pending is the list of outdated item ids.
	Pending string `koanf:"pending" validate:"required"`
	// Staging is the directory unpacked addons are extracted into.
	Staging string `koanf:"staging" validate:"required"`
	// SteamRoot is the steamcmd installation root.
	SteamRoot string `koanf:"steam_root" validate:"required"`
	// ServerRoot is the dedicated server installation root.
	ServerRoot string `koanf:"server_root" validate:"required"`
	// InstallManifest copies the manifest into the server's autorun directory after update.
	InstallManifest bool `koanf:"install_manifest"`
}

// APIConfig represents remote API settings.
type APIConfig struct {
	// URL is the Steam Web API base URL.
	URL string `koanf:"url" validate:"required,url"`
	// Key is an optional Steam Web API key.
	Key string `koanf:"key"`
	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	// RequestsPerSecond paces requests; 0 disables pacing.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`
	// BreakerFailures is the number of consecutive failures that opens the
	// circuit. Zero disables the breaker.
	BreakerFailures uint32 `koanf:"breaker_failures"`
	// BreakerTimeout is how long the circuit stays open before probing again.
	BreakerTimeout time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// ToolsConfig represents external binaries.
type ToolsConfig struct {
	// SteamCMD is the content-download client.
	SteamCMD string `koanf:"steamcmd" validate:"required"`
	// Gmad is the native container unpacking tool.
	Gmad string `koanf:"gmad" validate:"required"`
	// SevenZip is the generic decompression tool.
	SevenZip string `koanf:"seven_zip" validate:"required"`
	// AppID is the Steam application id workshop items belong to.
	AppID string `koanf:"app_id" validate:"required,numeric"`
	// Login is the steamcmd account name.
	Login string `koanf:"login" validate:"required"`
}

// ManifestConfig represents manifest rendering settings.
type ManifestConfig struct {
	// Timezone is the IANA location used for "Last Updated" times, or "Local".
	Timezone string `koanf:"timezone" validate:"required"`
	// Concurrency bounds parallel metadata fetches. Output order is unaffected.
	Concurrency int `koanf:"concurrency" validate:"gte=1,lte=16"`
}

// LoggingConfig represents diagnostic logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	// Format is console or json.
	Format string `koanf:"format" validate:"oneof=console json"`
}

// MetricsConfig represents run metrics export.
type MetricsConfig struct {
	// Textfile is a node_exporter textfile collector path; empty disables export.
	Textfile string `koanf:"textfile"`
}
