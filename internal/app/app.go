// Package app sequences the update, download, extract and copy phases.
package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/tacogips/addonsync/internal/config"
	"github.com/tacogips/addonsync/internal/fetch"
	"github.com/tacogips/addonsync/internal/logging"
	"github.com/tacogips/addonsync/internal/manifest"
	"github.com/tacogips/addonsync/internal/metrics"
	"github.com/tacogips/addonsync/internal/model"
	"github.com/tacogips/addonsync/internal/workshop"
)

// Phase names, as used in logs and metrics labels.
const (
	PhaseUpdate   = "update"
	PhaseDownload = "download"
	PhaseExtract  = "extract"
	PhaseCopy     = "copy"
)

// WorkshopAPI is the remote lookup surface the update phase needs.
type WorkshopAPI interface {
	manifest.MetadataSource

	// ResolveCollection returns the child ids of a collection, empty on failure.
	ResolveCollection(ctx context.Context, id model.CollectionID) []model.ItemID
}

// App runs phases against one configuration.
type App struct {
	cfg      *config.Config
	fs       afero.Fs
	api      WorkshopAPI
	runner   fetch.Runner
	recorder *metrics.Recorder
	runID    string
	base     zerolog.Logger
	log      zerolog.Logger
}

// Option customizes an App.
type Option func(*App)

// WithFs replaces the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithAPI replaces the Steam Web API client.
func WithAPI(api WorkshopAPI) Option {
	return func(a *App) { a.api = api }
}

// WithRunner replaces the os/exec process runner.
func WithRunner(r fetch.Runner) Option {
	return func(a *App) { a.runner = r }
}

// New creates an App. Collaborators not supplied through options are built
// from cfg.
func New(cfg *config.Config, opts ...Option) *App {
	runID := uuid.NewString()
	base := logging.Logger().With().Str("run_id", runID).Logger()
	a := &App{
		cfg:      cfg,
		recorder: metrics.NewRecorder(),
		runID:    runID,
		base:     base,
		log:      logging.ComponentFrom(&base, "app"),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.fs == nil {
		a.fs = afero.NewOsFs()
	}
	if a.api == nil {
		opts := workshop.OptionsFromConfig(cfg.API)
		opts.Logger = &a.base
		a.api = workshop.NewClient(opts)
	}
	if a.runner == nil {
		a.runner = fetch.NewExecRunner(nil)
	}
	a.runner = &recordingRunner{Runner: a.runner, recorder: a.recorder}

	return a
}

// RunID identifies this run in logs.
func (a *App) RunID() string {
	return a.runID
}

// Metrics returns the run's metrics recorder.
func (a *App) Metrics() *metrics.Recorder {
	return a.recorder
}

// Phases selects which phases a run executes.
type Phases struct {
	Update   bool
	Download bool
	Extract  bool
	Copy     bool
}

// Any reports whether at least one phase is selected.
func (p Phases) Any() bool {
	return p.Update || p.Download || p.Extract || p.Copy
}

// RunResult collects the result of every phase that ran.
type RunResult struct {
	RunID    string
	Update   *UpdateResult
	Download *DownloadResult
	Extract  *ExtractResult
	Copy     *CopyResult
}

// Run executes the selected phases in the fixed order update, download,
// extract, copy. A fatal phase error stops the run; the phases that already
// finished are still reported in the result.
func (a *App) Run(ctx context.Context, phases Phases) (*RunResult, error) {
	result := &RunResult{RunID: a.runID}
	defer a.finish()

	a.log.Info().
		Bool(PhaseUpdate, phases.Update).
		Bool(PhaseDownload, phases.Download).
		Bool(PhaseExtract, phases.Extract).
		Bool(PhaseCopy, phases.Copy).
		Msg("run started")

	if phases.Update {
		var err error
		if result.Update, err = timed(a, PhaseUpdate, func() (*UpdateResult, error) { return a.Update(ctx) }); err != nil {
			return result, err
		}
	}
	if phases.Download {
		var err error
		if result.Download, err = timed(a, PhaseDownload, func() (*DownloadResult, error) { return a.Download(ctx) }); err != nil {
			return result, err
		}
	}
	if phases.Extract {
		var err error
		if result.Extract, err = timed(a, PhaseExtract, func() (*ExtractResult, error) { return a.Extract(ctx) }); err != nil {
			return result, err
		}
	}
	if phases.Copy {
		var err error
		if result.Copy, err = timed(a, PhaseCopy, func() (*CopyResult, error) { return a.Copy(ctx) }); err != nil {
			return result, err
		}
	}

	return result, nil
}

func timed[T any](a *App, phase string, fn func() (T, error)) (T, error) {
	start := time.Now()
	res, err := fn()
	elapsed := time.Since(start)
	a.recorder.ObservePhase(phase, elapsed)

	ev := a.log.Info()
	if err != nil {
		ev = a.log.Error().Err(err)
	}
	ev.Str("phase", phase).Dur("elapsed", elapsed).Msg("phase finished")
	return res, err
}

func (a *App) finish() {
	a.recorder.MarkFinished(time.Now())
	if err := a.recorder.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.Warn().Err(err).Str("file", a.cfg.Metrics.Textfile).Msg("failed to write metrics textfile")
	}
}

func (a *App) orchestrator() *fetch.Orchestrator {
	opts := fetch.OptionsFromConfig(a.cfg.Tools)
	opts.Logger = &a.base
	return fetch.NewOrchestrator(a.fs, a.runner, opts)
}

// recordingRunner counts every process run in the metrics.
type recordingRunner struct {
	fetch.Runner
	recorder *metrics.Recorder
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) fetch.Result {
	res := r.Runner.Run(ctx, name, args...)
	r.recorder.RecordProcess(name, res.OK())
	return res
}
