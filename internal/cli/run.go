package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tacogips/addonsync/internal/app"
	"github.com/tacogips/addonsync/internal/config"
	"github.com/tacogips/addonsync/internal/fetch"
	"github.com/tacogips/addonsync/internal/logging"
)

func runRoot(cmd *cobra.Command, args []string) error {
	phases := selectedPhases()
	if !phases.Any() {
		return cmd.Help()
	}

	cfg, err := config.NewLoader().Load(globalConfig)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		NoColor: globalNoColor,
	})

	printBanner(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg)
	logging.Debug().Str("run_id", a.RunID()).Msg("starting run")

	result, err := a.Run(ctx, phases)
	printRunSummary(result)
	return err
}

func selectedPhases() app.Phases {
	return app.Phases{
		Update:   flagUpdate,
		Download: flagDownload,
		Extract:  flagExtract,
		Copy:     flagCopy,
	}
}

// printBanner prints the configured locations before any phase runs.
func printBanner(cfg *config.Config) {
	printHeader("addonsync")
	printInfo("  Steam Root:     " + cfg.Paths.SteamRoot)
	printInfo("  Server Root:    " + cfg.Paths.ServerRoot)
	printInfo("  Work Dir:       " + cfg.Paths.WorkDir)
	printInfo("  Collection IDs: [" + strings.Join(cfg.Collections, ", ") + "]")
	printSeparator()
}

// printRunSummary prints one section per phase that ran.
func printRunSummary(result *app.RunResult) {
	if result == nil {
		return
	}
	if result.Update != nil {
		printUpdateSummary(result.Update)
	}
	if result.Download != nil {
		printDownloadSummary(result.Download)
	}
	if result.Extract != nil {
		printExtractSummary(result.Extract)
	}
	if result.Copy != nil {
		printCopySummary(result.Copy)
	}
}

func printUpdateSummary(r *app.UpdateResult) {
	printHeader("Update")
	for _, c := range r.Collections {
		printProgress(fmt.Sprintf("%s (%s): %d addons, %d outdated", c.Title, c.Collection, len(c.Lines), len(c.Outdated)))
		for _, id := range c.Failed {
			printWarning("No details found for workshop ID " + id.String())
		}
	}
	printSuccess("Lua file generated: " + r.ManifestPath)
	if r.InstalledTo != "" {
		printSuccess("Manifest installed to " + r.InstalledTo)
	}
	printInfo(fmt.Sprintf("%d addons outdated since %d", len(r.Outdated()), r.Checkpoint))
}

func printDownloadSummary(r *app.DownloadResult) {
	printHeader("Download")
	if r.NothingToDo() {
		printSuccess("No addons were outdated")
		return
	}
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		if o.OK() {
			printSuccess("Downloaded addon " + o.ID.String())
		} else {
			printErrorMsg(fmt.Sprintf("Failed to download addon %s: %v", o.ID, o.Err))
		}
	}
	if skipped := len(r.Pending) - len(r.Outcomes); skipped > 0 {
		printWarning(fmt.Sprintf("%d addons not attempted", skipped))
	}
}

func printExtractSummary(r *app.ExtractResult) {
	printHeader("Extract")
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		switch {
		case o.OK():
			printSuccess(fmt.Sprintf("Extracted addon %s (%s) to %s", o.ID, o.Archive, r.OutDir))
		case o.State == fetch.StateManualInspection:
			printWarning("No .gma or .bin file found, check addon " + o.ID.String())
		default:
			printErrorMsg(fmt.Sprintf("Failed to extract addon %s: %v", o.ID, o.Err))
		}
	}
}

func printCopySummary(r *app.CopyResult) {
	printHeader("Copy")
	printSuccess(fmt.Sprintf("Copied %d files (%s) from %s to %s",
		r.Stats.Files, formatBytes(r.Stats.Bytes), r.Source, r.Destination))
}
