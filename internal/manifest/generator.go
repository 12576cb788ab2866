// Package manifest renders the workshop.lua load list and the pending
// download list for one update run.
package manifest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tacogips/addonsync/internal/detector"
	"github.com/tacogips/addonsync/internal/logging"
	"github.com/tacogips/addonsync/internal/model"
)

// MetadataSource looks up item and collection details.
type MetadataSource interface {
	// FetchItemDetails returns the metadata of one item, or an error that
	// skips the item.
	FetchItemDetails(ctx context.Context, id model.ItemID) (*model.ItemMetadata, error)

	// FetchCollectionTitle returns the collection's own title, never failing.
	FetchCollectionTitle(ctx context.Context, id model.CollectionID) string
}

// Options configures a Generator.
type Options struct {
	// ManifestPath is the manifest file collection blocks are appended to.
	ManifestPath string

	// PendingPath is the pending list outdated ids are appended to.
	PendingPath string

	// Checkpoint is the epoch items are compared against.
	Checkpoint int64

	// Location renders "Last Updated" times. Nil means time.Local.
	Location *time.Location

	// Concurrency bounds parallel metadata fetches. Values below 1 mean 1.
	Concurrency int

	// Logger is the parent logger. Nil means the global logger.
	Logger *zerolog.Logger
}

// Result summarizes one collection.
type Result struct {
	// Collection is the collection that was processed.
	Collection model.CollectionID

	// Title is the collection title written in the header.
	Title string

	// Lines are the rendered item lines, in collection order.
	Lines []string

	// Outdated are the ids appended to the pending list, in collection order.
	Outdated []model.ItemID

	// Failed are the ids whose metadata could not be fetched.
	Failed []model.ItemID

	// Tally counts the classifications of the fetched items.
	Tally detector.Tally
}

// Generator renders collection blocks and the pending list.
type Generator struct {
	source MetadataSource
	writer Writer
	opts   Options
	log    zerolog.Logger
}

// NewGenerator creates a new Generator.
func NewGenerator(source MetadataSource, writer Writer, opts Options) *Generator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Generator{
		source: source,
		writer: writer,
		opts:   opts,
		log:    logging.ComponentFrom(opts.Logger, "manifest"),
	}
}

// Reset deletes the manifest and pending list left by a previous run. Call it
// once per update run, before the first collection.
func (g *Generator) Reset() error {
	for _, path := range []string{g.opts.ManifestPath, g.opts.PendingPath} {
		removed, err := g.writer.Remove(path)
		if err != nil {
			return err
		}
		if removed {
			g.log.Info().Str("file", path).Msg("found and deleted existing file")
		}
	}
	return nil
}

type fetched struct {
	meta *model.ItemMetadata
	err  error
}

// Generate renders one collection block. Item metadata may be fetched in
// parallel, but results are flushed strictly in input order: the pending list
// is appended the moment an outdated item is flushed, and the whole block is
// appended to the manifest once every item has been flushed.
//
// A failed item is logged, recorded in Result.Failed and left out of the
// manifest. Only file write failures and cancellation are returned as errors.
func (g *Generator) Generate(ctx context.Context, items []model.ItemID, collection model.CollectionID) (*Result, error) {
	title := g.source.FetchCollectionTitle(ctx, collection)

	result := &Result{
		Collection: collection,
		Title:      title,
		Lines:      make([]string, 0, len(items)),
		Outdated:   []model.ItemID{},
		Failed:     []model.ItemID{},
	}

	var (
		mu      sync.Mutex
		results = make([]*fetched, len(items))
		next    int
	)

	// flush must be called with mu held.
	flush := func() error {
		for next < len(items) && results[next] != nil {
			if err := g.record(result, items[next], results[next]); err != nil {
				return err
			}
			results[next] = nil
			next++
		}
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)

	for i, id := range items {
		i, id := i, id
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			meta, err := g.source.FetchItemDetails(egCtx, id)

			mu.Lock()
			defer mu.Unlock()
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = &fetched{meta: meta, err: err}
			return flush()
		})
	}

	if err := eg.Wait(); err != nil {
		return result, err
	}

	var block strings.Builder
	block.WriteString(RenderHeader(title))
	for _, line := range result.Lines {
		block.WriteString(line)
	}
	if err := g.writer.Append(g.opts.ManifestPath, []byte(block.String())); err != nil {
		return result, err
	}

	g.log.Info().
		Str("collection", collection.String()).
		Str("file", g.opts.ManifestPath).
		Int("lines", len(result.Lines)).
		Int("outdated", len(result.Outdated)).
		Int("failed", len(result.Failed)).
		Msg("manifest generated")

	return result, nil
}

func (g *Generator) record(result *Result, id model.ItemID, f *fetched) error {
	if f.err != nil || f.meta == nil {
		g.log.Error().Err(f.err).Str("item", id.String()).Msg("no details found, skipping item")
		result.Failed = append(result.Failed, id)
		return nil
	}

	meta := *f.meta
	meta.ID = id

	class := detector.Classify(meta, g.opts.Checkpoint)
	result.Tally.Add(class)

	if class == model.Outdated {
		g.log.Info().Str("item", id.String()).Str("title", meta.Title).Msg("addon outdated")
		if err := AppendPending(g.writer, g.opts.PendingPath, id); err != nil {
			return err
		}
		result.Outdated = append(result.Outdated, id)
	}

	result.Lines = append(result.Lines, RenderLine(meta, g.opts.Location))
	return nil
}
