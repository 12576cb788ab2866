// Package fetch drives the external download client and unpacking tools.
//
// Every invocation is captured in a Result; a failing process is reported on
// the item's Outcome and never stops the remaining items.
package fetch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/tacogips/addonsync/internal/config"
	"github.com/tacogips/addonsync/internal/logging"
	"github.com/tacogips/addonsync/internal/model"
)

// State is a step of one item's download or unpack.
type State int

const (
	StateStart State = iota
	StateDownloaded
	StateNativeFound
	StateNativeAbsent
	StateGenericFound
	StateGenericAbsent
	StateUnwrapped
	StateRenamed
	StateUnpacked
	StateCleanedUp
	StateManualInspection
	StateFailed
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateDownloaded:
		return "downloaded"
	case StateNativeFound:
		return "native_found"
	case StateNativeAbsent:
		return "native_absent"
	case StateGenericFound:
		return "generic_found"
	case StateGenericAbsent:
		return "generic_absent"
	case StateUnwrapped:
		return "unwrapped"
	case StateRenamed:
		return "renamed"
	case StateUnpacked:
		return "unpacked"
	case StateCleanedUp:
		return "cleaned_up"
	case StateManualInspection:
		return "manual_inspection_needed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is what happened to one item.
type Outcome struct {
	// ID is the workshop item.
	ID model.ItemID
	// State is the final state.
	State State
	// Path is the item's archive directory.
	Path string
	// Archive is the container format that was found.
	Archive model.ArchiveKind
	// Transitions lists every state entered, starting with StateStart.
	Transitions []State
	// Steps are the external processes that were run, in order.
	Steps []Result
	// Err describes the failing step when State is StateFailed.
	Err error
}

// OK reports whether the item reached a successful terminal state.
func (o *Outcome) OK() bool {
	switch o.State {
	case StateDownloaded, StateUnpacked, StateCleanedUp:
		return true
	default:
		return false
	}
}

func (o *Outcome) enter(s State) {
	o.State = s
	o.Transitions = append(o.Transitions, s)
}

func (o *Outcome) fail(err error) Outcome {
	o.Err = err
	o.enter(StateFailed)
	return *o
}

// Options names the external tools.
type Options struct {
	SteamCMD string
	Gmad     string
	SevenZip string
	AppID    string
	Login    string
	// Logger is the parent logger. Nil means the global logger.
	Logger *zerolog.Logger
}

// OptionsFromConfig maps the tools config section to orchestrator options.
func OptionsFromConfig(cfg config.ToolsConfig) Options {
	return Options{
		SteamCMD: cfg.SteamCMD,
		Gmad:     cfg.Gmad,
		SevenZip: cfg.SevenZip,
		AppID:    cfg.AppID,
		Login:    cfg.Login,
	}
}

// Orchestrator downloads and unpacks workshop items one at a time.
type Orchestrator struct {
	fs     afero.Fs
	runner Runner
	opts   Options
	log    zerolog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(fs afero.Fs, runner Runner, opts Options) *Orchestrator {
	if opts.Login == "" {
		opts.Login = "anonymous"
	}
	return &Orchestrator{
		fs:     fs,
		runner: runner,
		opts:   opts,
		log:    logging.ComponentFrom(opts.Logger, "fetch"),
	}
}

// FetchPending runs the download client once per id. It stops early only
// when ctx is done; the outcomes gathered so far are returned.
func (o *Orchestrator) FetchPending(ctx context.Context, ids []model.ItemID) []Outcome {
	outcomes := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			o.log.Warn().Err(ctx.Err()).Int("remaining", len(ids)-len(outcomes)).Msg("download interrupted")
			break
		}
		outcomes = append(outcomes, o.Download(ctx, id))
	}
	return outcomes
}

// Download runs the download client for one id.
func (o *Orchestrator) Download(ctx context.Context, id model.ItemID) Outcome {
	out := Outcome{ID: id}
	out.enter(StateStart)

	o.log.Info().Str("item", id.String()).Msg("downloading addon")
	res := o.runner.Run(ctx, o.opts.SteamCMD,
		"+login", o.opts.Login,
		"+workshop_download_item", o.opts.AppID, id.String(),
		"+quit")
	out.Steps = append(out.Steps, res)
	o.logResult(id, res)

	if !res.OK() {
		return out.fail(stepError("download", res))
	}
	out.enter(StateDownloaded)
	return out
}

// Unpack extracts the archive of one id found under searchDir/<id> into outDir.
//
// A native .gma is handed straight to the unpacking tool. Otherwise a generic
// .bin is unwrapped in place, the unwrapped file is renamed to .gma, unpacked
// and then removed. With neither present the item needs manual inspection and
// no file operation is attempted.
func (o *Orchestrator) Unpack(ctx context.Context, id model.ItemID, searchDir, outDir string) Outcome {
	dir := filepath.Join(searchDir, id.String())
	out := Outcome{ID: id, Path: dir}
	out.enter(StateStart)

	native, err := o.firstMatch(dir, model.NativeExt)
	if err != nil {
		return out.fail(err)
	}
	if native != "" {
		out.Archive = model.ArchiveNative
		out.enter(StateNativeFound)
		if err := o.gmad(ctx, &out, native, outDir); err != nil {
			return out.fail(err)
		}
		out.enter(StateUnpacked)
		return out
	}

	out.enter(StateNativeAbsent)
	o.log.Info().Str("item", id.String()).Str("dir", dir).Msg("no .gma file found, checking for .bin")

	generic, err := o.firstMatch(dir, model.GenericExt)
	if err != nil {
		return out.fail(err)
	}
	if generic == "" {
		out.enter(StateGenericAbsent)
		out.enter(StateManualInspection)
		o.log.Warn().Str("item", id.String()).Str("dir", dir).Msg("no .gma or .bin file found, check addon manually")
		return out
	}

	out.Archive = model.ArchiveGeneric
	out.enter(StateGenericFound)

	res := o.runner.Run(ctx, o.opts.SevenZip, "e", generic, "-o"+dir, "-y")
	out.Steps = append(out.Steps, res)
	o.logResult(id, res)
	if !res.OK() {
		return out.fail(stepError("unwrap", res))
	}
	out.enter(StateUnwrapped)

	unwrapped := strings.TrimSuffix(generic, model.GenericExt)
	intermediate := unwrapped + model.NativeExt
	if err := o.fs.Rename(unwrapped, intermediate); err != nil {
		return out.fail(fmt.Errorf("rename %s: %w", unwrapped, err))
	}
	out.enter(StateRenamed)

	if err := o.gmad(ctx, &out, intermediate, outDir); err != nil {
		return out.fail(err)
	}
	out.enter(StateUnpacked)

	o.log.Debug().Str("item", id.String()).Str("file", intermediate).Msg("removing generated .gma file")
	if err := o.fs.Remove(intermediate); err != nil {
		return out.fail(fmt.Errorf("remove %s: %w", intermediate, err))
	}
	out.enter(StateCleanedUp)
	return out
}

func (o *Orchestrator) gmad(ctx context.Context, out *Outcome, file, outDir string) error {
	res := o.runner.Run(ctx, o.opts.Gmad, "extract", "-file", file, "-out", outDir, "-quiet")
	out.Steps = append(out.Steps, res)
	o.logResult(out.ID, res)
	if !res.OK() {
		return stepError("unpack", res)
	}
	return nil
}

// firstMatch returns the first file in dir with the extension, in name order,
// or "" when there is none. A missing dir has no matches.
func (o *Orchestrator) firstMatch(dir, ext string) (string, error) {
	matches, err := afero.Glob(o.fs, filepath.Join(dir, "*"+ext))
	if err != nil {
		return "", fmt.Errorf("search %s for *%s: %w", dir, ext, err)
	}
	for _, m := range matches {
		if info, err := o.fs.Stat(m); err == nil && !info.IsDir() {
			return m, nil
		}
	}
	return "", nil
}

func (o *Orchestrator) logResult(id model.ItemID, res Result) {
	ev := o.log.Info()
	if !res.OK() {
		ev = o.log.Error().Err(res.Err)
	}
	ev.Str("item", id.String()).
		Str("command", res.String()).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Msg("process finished")
	if !res.OK() && res.Output != "" {
		o.log.Debug().Str("item", id.String()).Str("output", res.Output).Msg("process output")
	}
}

func stepError(step string, res Result) error {
	if res.Err != nil {
		return fmt.Errorf("%s: %s exited %d: %w", step, filepath.Base(res.Command[0]), res.ExitCode, res.Err)
	}
	return fmt.Errorf("%s: %s exited %d", step, filepath.Base(res.Command[0]), res.ExitCode)
}
