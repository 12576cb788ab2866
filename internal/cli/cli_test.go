package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/addonsync/internal/app"
	"github.com/tacogips/addonsync/internal/build"
	"github.com/tacogips/addonsync/internal/config"
	"github.com/tacogips/addonsync/internal/fetch"
	"github.com/tacogips/addonsync/internal/fsutil"
	"github.com/tacogips/addonsync/internal/manifest"
	"github.com/tacogips/addonsync/internal/model"
)

// captureOutput redirects the print helpers for the duration of the test.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr, prevColor, prevQuiet := stdout, stderr, globalNoColor, globalQuiet
	stdout, stderr = &out, &errOut
	globalNoColor, globalQuiet = true, false
	t.Cleanup(func() {
		stdout, stderr, globalNoColor, globalQuiet = prevOut, prevErr, prevColor, prevQuiet
	})
	return &out, &errOut
}

func setPhaseFlags(t *testing.T, update, download, extract, cp bool) {
	t.Helper()
	prev := []bool{flagUpdate, flagDownload, flagExtract, flagCopy}
	flagUpdate, flagDownload, flagExtract, flagCopy = update, download, extract, cp
	t.Cleanup(func() {
		flagUpdate, flagDownload, flagExtract, flagCopy = prev[0], prev[1], prev[2], prev[3]
	})
}

// TestFormatBytes tests human-readable byte formatting
func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1073741824, "5.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatBytes(tt.bytes); got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestSelectedPhases(t *testing.T) {
	setPhaseFlags(t, false, true, false, true)

	got := selectedPhases()
	assert.Equal(t, app.Phases{Download: true, Copy: true}, got)
	assert.True(t, got.Any())
}

func TestRootWithoutPhasesPrintsHelp(t *testing.T) {
	setPhaseFlags(t, false, false, false, false)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, buf.String(), "Usage:")
	assert.Contains(t, buf.String(), "--update")
}

func TestPrintBanner(t *testing.T) {
	out, _ := captureOutput(t)

	cfg := config.DefaultConfig()
	cfg.Paths.SteamRoot = "/home/steam/Steam"
	cfg.Paths.ServerRoot = "/home/steam/gmod"
	cfg.Paths.WorkDir = "/opt/addonsync"
	cfg.Collections = []string{"111", "222"}

	printBanner(cfg)

	for _, want := range []string{
		"Steam Root:     /home/steam/Steam",
		"Server Root:    /home/steam/gmod",
		"Work Dir:       /opt/addonsync",
		"Collection IDs: [111, 222]",
	} {
		assert.Contains(t, out.String(), want)
	}
}

func TestPrintRunSummary(t *testing.T) {
	out, errOut := captureOutput(t)

	result := &app.RunResult{
		Update: &app.UpdateResult{
			Checkpoint:   1700000000,
			ManifestPath: "/work/workshop.lua",
			InstalledTo:  "/srv/garrysmod/lua/autorun/server/workshop.lua",
			Collections: []*manifest.Result{{
				Collection: "900",
				Title:      "Server Pack",
				Lines:      []string{"a", "b"},
				Outdated:   []model.ItemID{"1"},
				Failed:     []model.ItemID{"3"},
			}},
		},
		Download: &app.DownloadResult{
			Pending: []model.ItemID{"1", "2"},
			Outcomes: []fetch.Outcome{
				{ID: "1", State: fetch.StateDownloaded},
				{ID: "2", State: fetch.StateFailed, Err: errors.New("steamcmd exited 8")},
			},
		},
		Extract: &app.ExtractResult{
			OutDir: "/work/addons",
			Outcomes: []fetch.Outcome{
				{ID: "1", State: fetch.StateUnpacked, Archive: model.ArchiveNative},
				{ID: "123", State: fetch.StateManualInspection},
			},
		},
		Copy: &app.CopyResult{
			Source:      "/work/addons",
			Destination: "/srv/garrysmod",
			Stats:       fsutil.CopyStats{Files: 3, Bytes: 2048},
		},
	}

	printRunSummary(result)

	stdoutText := out.String()
	for _, want := range []string{
		"Server Pack (900): 2 addons, 1 outdated",
		"No details found for workshop ID 3",
		"Lua file generated: /work/workshop.lua",
		"Manifest installed to /srv/garrysmod/lua/autorun/server/workshop.lua",
		"1 addons outdated since 1700000000",
		"Downloaded addon 1",
		"Extracted addon 1 (native) to /work/addons",
		"check addon 123",
		"Copied 3 files (2.0 KB) from /work/addons to /srv/garrysmod",
	} {
		assert.Contains(t, stdoutText, want)
	}
	assert.Contains(t, errOut.String(), "Failed to download addon 2: steamcmd exited 8")

	headers := []string{"=== Update ===", "=== Download ===", "=== Extract ===", "=== Copy ==="}
	last := -1
	for _, h := range headers {
		i := strings.Index(stdoutText, h)
		require.GreaterOrEqual(t, i, 0, "missing %s", h)
		assert.Greater(t, i, last, "%s out of order", h)
		last = i
	}
}

func TestPrintRunSummary_NothingToDo(t *testing.T) {
	out, _ := captureOutput(t)

	printRunSummary(&app.RunResult{Download: &app.DownloadResult{Pending: []model.ItemID{}}})
	assert.Contains(t, out.String(), "No addons were outdated")
	assert.NotContains(t, out.String(), "=== Update ===")

	printRunSummary(nil)
}

func TestQuietSuppressesOutput(t *testing.T) {
	out, errOut := captureOutput(t)
	globalQuiet = true

	printInfo("info")
	printSuccess("ok")
	printWarning("warn")
	printHeader("header")
	printProgress("progress")
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())

	printErrorMsg("Failed to download addon 2")
	printError(errors.New("pending list not found"))
	assert.Contains(t, errOut.String(), "Failed to download addon 2")
	assert.Contains(t, errOut.String(), "Error: pending list not found")
	assert.Empty(t, out.String())
}

func TestRunVersion(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() {
		versionCmd.SetOut(nil)
		versionShort, versionJSON = false, false
	})

	versionShort = true
	require.NoError(t, runVersion(versionCmd, nil))
	assert.Equal(t, build.Version()+"\n", buf.String())

	buf.Reset()
	versionShort, versionJSON = false, true
	require.NoError(t, runVersion(versionCmd, nil))

	var info VersionInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, build.Version(), info.Version)
	assert.NotEmpty(t, info.GoVersion)

	buf.Reset()
	versionJSON = false
	require.NoError(t, runVersion(versionCmd, nil))
	assert.True(t, strings.HasPrefix(buf.String(), "addonsync version "))
}
