package app

import (
	"context"
	"errors"

	"github.com/tacogips/addonsync/internal/checkpoint"
	"github.com/tacogips/addonsync/internal/fetch"
	"github.com/tacogips/addonsync/internal/fsutil"
	"github.com/tacogips/addonsync/internal/manifest"
	"github.com/tacogips/addonsync/internal/model"
)

// UpdateResult contains the results of the update phase.
type UpdateResult struct {
	// Checkpoint is the epoch items were compared against.
	Checkpoint int64
	// ManifestPath is the generated manifest.
	ManifestPath string
	// InstalledTo is where the manifest was copied in the server tree, if anywhere.
	InstalledTo string
	// Collections holds one result per configured collection, in order.
	Collections []*manifest.Result
}

// Outdated returns every id queued for download, in pending-list order.
func (r *UpdateResult) Outdated() []model.ItemID {
	var ids []model.ItemID
	for _, c := range r.Collections {
		ids = append(ids, c.Outdated...)
	}
	return ids
}

// Failed returns the number of items whose details could not be fetched.
func (r *UpdateResult) Failed() int {
	n := 0
	for _, c := range r.Collections {
		n += len(c.Failed)
	}
	return n
}

// Update regenerates the manifest and pending list from the configured
// collections, then installs the manifest into the server tree.
func (a *App) Update(ctx context.Context) (*UpdateResult, error) {
	paths := a.cfg.Paths

	store := checkpoint.NewStoreWithFS(a.fs, paths.Checkpoint)
	cp, err := store.Load()
	if err != nil {
		return nil, NewCheckpointLoadError("cannot determine outdated addons", err)
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return nil, NewConfigError("invalid manifest timezone", err)
	}

	a.log.Info().Int64("checkpoint", cp).Str("file", store.Path()).Int("collections", len(a.cfg.Collections)).Msg("updating manifest")

	writer := manifest.NewFileWriter(a.fs)
	gen := manifest.NewGenerator(a.api, writer, manifest.Options{
		ManifestPath: paths.Manifest,
		PendingPath:  paths.Pending,
		Checkpoint:   cp,
		Location:     loc,
		Concurrency:  a.cfg.Manifest.Concurrency,
		Logger:       &a.base,
	})

	if err := gen.Reset(); err != nil {
		return nil, NewManifestWriteError("failed to remove previous manifest", err)
	}

	result := &UpdateResult{
		Checkpoint:   cp,
		ManifestPath: paths.Manifest,
		Collections:  make([]*manifest.Result, 0, len(a.cfg.Collections)),
	}

	if len(a.cfg.Collections) == 0 {
		a.log.Warn().Msg("no collections configured")
	}

	for _, c := range a.cfg.Collections {
		collection := model.CollectionID(c)
		items := a.api.ResolveCollection(ctx, collection)

		res, err := gen.Generate(ctx, items, collection)
		if res != nil {
			a.recordUpdate(res)
			result.Collections = append(result.Collections, res)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			return result, NewManifestWriteError("failed to generate manifest for collection "+c, err)
		}
	}

	if paths.InstallManifest {
		if !writer.Exists(paths.Manifest) {
			a.log.Warn().Str("file", paths.Manifest).Msg("no manifest generated, skipping install")
			return result, nil
		}

		dst := a.cfg.ManifestInstallPath()
		if _, err := fsutil.CopyFile(a.fs, paths.Manifest, dst, 0644); err != nil {
			return result, NewCopyError("failed to install manifest", err)
		}
		result.InstalledTo = dst
		a.log.Info().Str("from", paths.Manifest).Str("to", dst).Msg("manifest installed")
	}

	return result, nil
}

func (a *App) recordUpdate(res *manifest.Result) {
	a.recorder.RecordItems(model.Outdated, res.Tally.Outdated)
	a.recorder.RecordItems(model.Current, res.Tally.Current)
	a.recorder.RecordItems(model.Unknown, res.Tally.Unknown)
	a.recorder.RecordFailures(PhaseUpdate, len(res.Failed))
}

// DownloadResult contains the results of the download phase.
type DownloadResult struct {
	// Pending is the pending list as read once at phase start.
	Pending []model.ItemID
	// Outcomes holds one outcome per attempted id.
	Outcomes []fetch.Outcome
}

// NothingToDo reports whether the pending list was empty.
func (r *DownloadResult) NothingToDo() bool {
	return len(r.Pending) == 0
}

// Failed returns the ids whose download failed.
func (r *DownloadResult) Failed() []model.ItemID {
	return failedIDs(r.Outcomes)
}

// Download runs the download client for every id in the pending list.
func (a *App) Download(ctx context.Context) (*DownloadResult, error) {
	pending, err := a.readPending()
	if err != nil {
		return nil, err
	}

	result := &DownloadResult{Pending: pending}
	if result.NothingToDo() {
		a.log.Info().Msg("no addons were outdated")
		return result, nil
	}

	a.log.Info().Int("addons", len(pending)).Msg("downloading addons")
	result.Outcomes = a.orchestrator().FetchPending(ctx, pending)
	a.recorder.RecordFailures(PhaseDownload, len(result.Failed()))

	return result, ctx.Err()
}

// ExtractResult contains the results of the extract phase.
type ExtractResult struct {
	// SearchDir is the workshop content directory archives were looked up in.
	SearchDir string
	// OutDir is the staging directory.
	OutDir string
	// Outcomes holds one outcome per attempted id.
	Outcomes []fetch.Outcome
}

// ManualInspection returns the ids with no archive in either format.
func (r *ExtractResult) ManualInspection() []model.ItemID {
	var ids []model.ItemID
	for _, o := range r.Outcomes {
		if o.State == fetch.StateManualInspection {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// Failed returns the ids whose unpacking failed.
func (r *ExtractResult) Failed() []model.ItemID {
	return failedIDs(r.Outcomes)
}

// Extract unpacks the archive of every id in the pending list into staging.
func (a *App) Extract(ctx context.Context) (*ExtractResult, error) {
	pending, err := a.readPending()
	if err != nil {
		return nil, err
	}

	result := &ExtractResult{
		SearchDir: a.cfg.WorkshopContentDir(),
		OutDir:    a.cfg.Paths.Staging,
		Outcomes:  make([]fetch.Outcome, 0, len(pending)),
	}

	if err := a.fs.MkdirAll(result.OutDir, 0755); err != nil {
		return nil, NewCopyError("failed to create staging directory", err)
	}

	a.log.Info().Int("addons", len(pending)).Str("from", result.SearchDir).Str("to", result.OutDir).Msg("extracting addon files")

	orch := a.orchestrator()
	for _, id := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Outcomes = append(result.Outcomes, orch.Unpack(ctx, id, result.SearchDir, result.OutDir))
	}

	a.recorder.RecordFailures(PhaseExtract, len(result.Failed())+len(result.ManualInspection()))
	return result, nil
}

// CopyResult contains the results of the copy phase.
type CopyResult struct {
	Source      string
	Destination string
	Stats       fsutil.CopyStats
}

// Copy copies the staging directory into the server's game directory.
func (a *App) Copy(ctx context.Context) (*CopyResult, error) {
	result := &CopyResult{
		Source:      a.cfg.Paths.Staging,
		Destination: a.cfg.ServerGameDir(),
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.log.Info().Str("from", result.Source).Str("to", result.Destination).Msg("copying files to server")

	stats, err := fsutil.CopyDir(a.fs, result.Source, result.Destination)
	result.Stats = stats
	if err != nil {
		return result, NewCopyError("failed to copy addons to server", err)
	}

	a.log.Info().Int("files", stats.Files).Int64("bytes", stats.Bytes).Msg("files copied")
	return result, nil
}

// readPending reads the pending list once; the same slice serves both the
// emptiness check and the iteration.
func (a *App) readPending() ([]model.ItemID, error) {
	ids, err := manifest.ReadPending(a.fs, a.cfg.Paths.Pending)
	if err != nil {
		msg := "failed to read pending list"
		if errors.Is(err, checkpoint.ErrMissingState) {
			msg = "pending list not found, run with --update first"
		}
		return nil, NewPendingLoadError(msg, err)
	}
	return ids, nil
}

func failedIDs(outcomes []fetch.Outcome) []model.ItemID {
	var ids []model.ItemID
	for _, o := range outcomes {
		if o.State == fetch.StateFailed {
			ids = append(ids, o.ID)
		}
	}
	return ids
}
