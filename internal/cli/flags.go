package cli

// Common flag names and descriptions
const (
	// Flag names
	FlagConfig   = "config"
	FlagNoColor  = "no-color"
	FlagQuiet    = "quiet"
	FlagDebug    = "debug"
	FlagUpdate   = "update"
	FlagDownload = "download"
	FlagExtract  = "extract"
	FlagCopy     = "copy"

	// Flag descriptions
	DescConfig   = "Path to config file"
	DescNoColor  = "Disable colored output"
	DescQuiet    = "Suppress non-error output"
	DescDebug    = "Enable debug logging"
	DescUpdate   = "Regenerate workshop.lua and the outdated addon list (needs the last_updated file)"
	DescDownload = "Download outdated addons; set last_updated to 0 to download all of them"
	DescExtract  = "Extract downloaded addon files into the staging directory"
	DescCopy     = "Copy extracted addons from the staging directory into the server's garrysmod directory"
)
