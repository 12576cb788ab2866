package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/addonsync/internal/checkpoint"
	"github.com/tacogips/addonsync/internal/model"
)

const (
	manifestPath = "/work/workshop.lua"
	pendingPath  = "/work/addons_to_update"
)

// fakeSource serves canned metadata.
type fakeSource struct {
	mu     sync.Mutex
	titles map[model.CollectionID]string
	items  map[model.ItemID]*model.ItemMetadata
	delays map[model.ItemID]time.Duration
	calls  []model.ItemID
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		titles: map[model.CollectionID]string{},
		items:  map[model.ItemID]*model.ItemMetadata{},
		delays: map[model.ItemID]time.Duration{},
	}
}

func (f *fakeSource) add(id model.ItemID, title string, updated *int64) {
	f.items[id] = &model.ItemMetadata{ID: id, Title: title, TimeUpdated: updated}
}

func (f *fakeSource) FetchItemDetails(ctx context.Context, id model.ItemID) (*model.ItemMetadata, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	delay := f.delays[id]
	meta, ok := f.items[id]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		return nil, errors.New("no details")
	}
	copied := *meta
	return &copied, nil
}

func (f *fakeSource) FetchCollectionTitle(ctx context.Context, id model.CollectionID) string {
	if title, ok := f.titles[id]; ok {
		return title
	}
	return "N/A"
}

func epoch(v int64) *int64 { return &v }

func newTestGenerator(fs afero.Fs, src MetadataSource, cp int64, concurrency int) *Generator {
	return NewGenerator(src, NewFileWriter(fs), Options{
		ManifestPath: manifestPath,
		PendingPath:  pendingPath,
		Checkpoint:   cp,
		Location:     time.UTC,
		Concurrency:  concurrency,
	})
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(content)
}

func TestGenerate_OutdatedScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newFakeSource()
	src.titles["900"] = "Server Pack"
	src.add("A", "Map Pack", epoch(1800000000))

	gen := newTestGenerator(fs, src, 1700000000, 1)
	result, err := gen.Generate(context.Background(), []model.ItemID{"A"}, "900")
	require.NoError(t, err)

	want := "-- Server Pack\n" +
		"resource.AddWorkshop(\"A\") -- Map Pack -- Last Updated: 01/15/2027 08:00 AM\n"
	assert.Equal(t, want, readFile(t, fs, manifestPath))
	assert.Equal(t, "A\n", readFile(t, fs, pendingPath))

	assert.Equal(t, []model.ItemID{"A"}, result.Outdated)
	assert.Equal(t, 1, result.Tally.Outdated)
	assert.Empty(t, result.Failed)
}

func TestGenerate_Classifications(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newFakeSource()
	src.titles["900"] = "Mixed"
	src.add("1", "New", epoch(200))
	src.add("2", "Old", epoch(50))
	src.add("3", "Timeless", nil)
	src.add("4", "", epoch(101))
	// "5" is unknown to the source and fails.
	src.add("6", "Equal", epoch(100))

	gen := newTestGenerator(fs, src, 100, 1)
	result, err := gen.Generate(context.Background(), []model.ItemID{"1", "2", "3", "4", "5", "6"}, "900")
	require.NoError(t, err)

	manifest := readFile(t, fs, manifestPath)
	lines := strings.Split(strings.TrimSuffix(manifest, "\n"), "\n")
	require.Len(t, lines, 6, "header plus five item lines")
	assert.Equal(t, "-- Mixed", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `resource.AddWorkshop("1") -- New -- Last Updated: `))
	assert.True(t, strings.HasPrefix(lines[2], `resource.AddWorkshop("2") -- Old -- Last Updated: `))
	assert.Equal(t, `resource.AddWorkshop("3") -- Timeless -- Last Updated: `, lines[3])
	assert.True(t, strings.HasPrefix(lines[4], `resource.AddWorkshop("4") --  -- Last Updated: `))
	assert.True(t, strings.HasPrefix(lines[5], `resource.AddWorkshop("6") -- Equal -- Last Updated: `))

	assert.Equal(t, "1\n4\n", readFile(t, fs, pendingPath))
	assert.Equal(t, []model.ItemID{"1", "4"}, result.Outdated)
	assert.Equal(t, []model.ItemID{"5"}, result.Failed)
	assert.Equal(t, 2, result.Tally.Outdated)
	assert.Equal(t, 2, result.Tally.Current)
	assert.Equal(t, 1, result.Tally.Unknown)
}

func TestGenerate_EmptyCollection(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newFakeSource()
	src.titles["900"] = "Nothing Here"

	gen := newTestGenerator(fs, src, 0, 1)
	result, err := gen.Generate(context.Background(), []model.ItemID{}, "900")
	require.NoError(t, err)

	assert.Equal(t, "-- Nothing Here\n", readFile(t, fs, manifestPath))
	exists, err := afero.Exists(fs, pendingPath)
	require.NoError(t, err)
	assert.False(t, exists, "pending list must not be created")
	assert.Empty(t, result.Lines)
}

func TestGenerate_UnknownCollectionTitle(t *testing.T) {
	fs := afero.NewMemMapFs()
	gen := newTestGenerator(fs, newFakeSource(), 0, 1)

	_, err := gen.Generate(context.Background(), nil, "404")
	require.NoError(t, err)
	assert.Equal(t, "-- N/A\n", readFile(t, fs, manifestPath))
}

func TestGenerate_MultipleCollectionsAppend(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newFakeSource()
	src.titles["1"] = "First"
	src.titles["2"] = "Second"
	src.add("a", "A", epoch(10))
	src.add("b", "B", epoch(10))

	gen := newTestGenerator(fs, src, 5, 1)
	require.NoError(t, gen.Reset())
	_, err := gen.Generate(context.Background(), []model.ItemID{"a", "b"}, "1")
	require.NoError(t, err)
	// Shared items are not deduplicated across collections.
	_, err = gen.Generate(context.Background(), []model.ItemID{"b"}, "2")
	require.NoError(t, err)

	manifest := readFile(t, fs, manifestPath)
	assert.Equal(t, 2, strings.Count(manifest, "-- First\n")+strings.Count(manifest, "-- Second\n"))
	assert.Less(t, strings.Index(manifest, "-- First"), strings.Index(manifest, "-- Second"))
	assert.Equal(t, "a\nb\nb\n", readFile(t, fs, pendingPath))
}

func TestGenerate_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newFakeSource()
	src.titles["900"] = "Pack"
	src.add("1", "One", epoch(1800000000))
	src.add("2", "Two", epoch(1600000000))
	src.add("3", "Three", nil)
	items := []model.ItemID{"1", "2", "3"}

	run := func() (string, string) {
		gen := newTestGenerator(fs, src, 1700000000, 1)
		require.NoError(t, gen.Reset())
		_, err := gen.Generate(context.Background(), items, "900")
		require.NoError(t, err)
		return readFile(t, fs, manifestPath), readFile(t, fs, pendingPath)
	}

	m1, p1 := run()
	m2, p2 := run()
	assert.Equal(t, m1, m2)
	assert.Equal(t, p1, p2)
}

func TestGenerate_PendingRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newFakeSource()
	src.titles["900"] = "Pack"
	ids := []model.ItemID{"3001", "17", "999999999", "42"}
	for _, id := range ids {
		src.add(id, "t"+id.String(), epoch(10))
	}

	gen := newTestGenerator(fs, src, 1, 1)
	result, err := gen.Generate(context.Background(), ids, "900")
	require.NoError(t, err)

	read, err := ReadPending(fs, pendingPath)
	require.NoError(t, err)
	assert.Equal(t, result.Outdated, read)
	assert.Equal(t, ids, read)
}

func TestGenerate_ConcurrentMatchesSequential(t *testing.T) {
	src := newFakeSource()
	src.titles["900"] = "Big Pack"
	var items []model.ItemID
	for i := 0; i < 24; i++ {
		id := model.ItemID(fmt.Sprintf("%d", 1000+i))
		items = append(items, id)
		if i%7 == 3 {
			continue // fails
		}
		var updated *int64
		if i%5 != 0 {
			updated = epoch(int64(100 + i*10))
		}
		src.add(id, "Item "+id.String(), updated)
		// Later items finish first.
		src.delays[id] = time.Duration(24-i) * time.Millisecond
	}

	render := func(concurrency int) (string, string, *Result) {
		fs := afero.NewMemMapFs()
		gen := newTestGenerator(fs, src, 200, concurrency)
		result, err := gen.Generate(context.Background(), items, "900")
		require.NoError(t, err)
		return readFile(t, fs, manifestPath), readFile(t, fs, pendingPath), result
	}

	seqManifest, seqPending, seqResult := render(1)
	parManifest, parPending, parResult := render(8)

	assert.Equal(t, seqManifest, parManifest)
	assert.Equal(t, seqPending, parPending)
	assert.Equal(t, seqResult.Outdated, parResult.Outdated)
	assert.Equal(t, seqResult.Failed, parResult.Failed)
	assert.Equal(t, seqResult.Tally, parResult.Tally)
}

func TestGenerate_Cancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newFakeSource()
	src.add("1", "One", epoch(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := newTestGenerator(fs, src, 0, 1)
	_, err := gen.Generate(ctx, []model.ItemID{"1"}, "900")
	require.ErrorIs(t, err, context.Canceled)

	exists, _ := afero.Exists(fs, manifestPath)
	assert.False(t, exists)
}

func TestReset(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, manifestPath, []byte("stale"), 0644))
	require.NoError(t, afero.WriteFile(fs, pendingPath, []byte("stale"), 0644))

	gen := newTestGenerator(fs, newFakeSource(), 0, 1)
	require.NoError(t, gen.Reset())

	for _, path := range []string{manifestPath, pendingPath} {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.False(t, exists, path)
	}

	// Nothing left to delete is fine.
	require.NoError(t, gen.Reset())
}

func TestReadPending(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadPending(afero.NewMemMapFs(), pendingPath)
		require.Error(t, err)
		assert.True(t, errors.Is(err, checkpoint.ErrMissingState))
	})

	t.Run("blank lines and whitespace", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, pendingPath, []byte("1\n\n  2 \r\n\n3"), 0644))

		ids, err := ReadPending(fs, pendingPath)
		require.NoError(t, err)
		assert.Equal(t, []model.ItemID{"1", "2", "3"}, ids)
	})

	t.Run("empty file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, pendingPath, nil, 0644))

		ids, err := ReadPending(fs, pendingPath)
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name  string
		epoch *int64
		loc   *time.Location
		want  string
	}{
		{name: "absent", epoch: nil, loc: time.UTC, want: ""},
		{name: "morning", epoch: epoch(1800000000), loc: time.UTC, want: "01/15/2027 08:00 AM"},
		{name: "afternoon", epoch: epoch(1700000000), loc: time.UTC, want: "11/14/2023 10:13 PM"},
		{name: "unix zero", epoch: epoch(0), loc: time.UTC, want: "01/01/1970 12:00 AM"},
		{name: "fixed offset", epoch: epoch(1800000000), loc: time.FixedZone("UTC-5", -5*3600), want: "01/15/2027 03:00 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTime(tt.epoch, tt.loc); got != tt.want {
				t.Errorf("FormatTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderLine(t *testing.T) {
	item := model.ItemMetadata{ID: "104603291", Title: "Extended Spawnmenu", TimeUpdated: epoch(1800000000)}
	want := "resource.AddWorkshop(\"104603291\") -- Extended Spawnmenu -- Last Updated: 01/15/2027 08:00 AM\n"
	if got := RenderLine(item, time.UTC); got != want {
		t.Errorf("RenderLine() = %q, want %q", got, want)
	}

	if got := RenderHeader("Server Pack"); got != "-- Server Pack\n" {
		t.Errorf("RenderHeader() = %q", got)
	}
}

func TestFileWriterAppendCreatesParents(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewFileWriter(fs)

	require.NoError(t, w.Append("/a/b/c.txt", []byte("one\n")))
	require.NoError(t, w.Append("/a/b/c.txt", []byte("two\n")))
	assert.Equal(t, "one\ntwo\n", readFile(t, fs, "/a/b/c.txt"))
	assert.True(t, w.Exists("/a/b"))

	removed, err := w.Remove("/a/b/c.txt")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = w.Remove("/a/b/c.txt")
	require.NoError(t, err)
	assert.False(t, removed)
}
