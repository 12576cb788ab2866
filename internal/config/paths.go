package config

import (
	"path/filepath"

	"github.com/tacogips/addonsync/internal/model"
)

// resolvePaths makes every path absolute. Work-dir relative files are joined
// onto WorkDir; roots are expanded on their own.
func (c *Config) resolvePaths() error {
	workDir, err := ExpandPath(c.Paths.WorkDir)
	if err != nil {
		return err
	}
	c.Paths.WorkDir = workDir

	for _, p := range []*string{&c.Paths.Checkpoint, &c.Paths.Manifest, &c.Paths.Pending, &c.Paths.Staging} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		if (*p)[0] == '~' {
			if *p, err = ExpandPath(*p); err != nil {
				return err
			}
			continue
		}
		*p = filepath.Join(workDir, *p)
	}

	for _, p := range []*string{&c.Paths.SteamRoot, &c.Paths.ServerRoot, &c.Metrics.Textfile} {
		if *p, err = ExpandPath(*p); err != nil {
			return err
		}
	}

	return nil
}

// WorkshopContentDir is where the download client places items, one
// subdirectory per item id.
func (c *Config) WorkshopContentDir() string {
	return filepath.Join(c.Paths.SteamRoot, "steamapps", "workshop", "content", c.Tools.AppID)
}

// ServerGameDir is the game directory inside the server root that staged
// addons are copied into.
func (c *Config) ServerGameDir() string {
	return filepath.Join(c.Paths.ServerRoot, "garrysmod")
}

// ManifestInstallPath is where the server autoloads the manifest from.
func (c *Config) ManifestInstallPath() string {
	return filepath.Join(c.ServerGameDir(), "lua", "autorun", "server", model.ManifestFile)
}
