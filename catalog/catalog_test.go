package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osumap/dotosu"
)

func openTemp(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func entry(sum, creator string, mode dotosu.GameMode, objects int, at int64) Entry {
	return Entry{
		Checksum:  sum,
		Path:      sum + ".osu",
		Mode:      mode,
		Title:     "t-" + sum,
		Creator:   creator,
		Circles:   objects,
		IndexedAt: time.Unix(at, 0),
	}
}

func checksums(es []Entry) []string {
	var out []string
	for _, e := range es {
		out = append(out, e.Checksum)
	}
	return out
}

func TestPutGet(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	b := &dotosu.Beatmap{
		FormatVersion: 14,
		Mode:          dotosu.ModeTaiko,
		Metadata:      dotosu.Metadata{Title: "Song", Artist: "Band", Creator: "me", Version: "Oni"},
		Difficulty:    dotosu.Difficulty{CircleSize: 4, OverallDifficulty: 7, ApproachRate: 7, HPDrainRate: 5},
		CountCircles:  2,
		CountSpinners: 1,
		TimingPoints: []dotosu.Timing{
			{Time: 0, MsPerBeat: -100},
			{Time: 10, MsPerBeat: 500, Change: true},
		},
	}
	e := EntryFromBeatmap("maps/song.osu", "abc", b)
	assert.Equal(t, 120.0, e.BPM)
	assert.Equal(t, 3, e.Objects())
	require.NoError(t, c.Put(ctx, e))

	got, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "maps/song.osu", got.Path)
	assert.Equal(t, dotosu.ModeTaiko, got.Mode)
	assert.Equal(t, "Oni", got.Version)
	assert.Equal(t, 2, got.TimingPoints)
	assert.False(t, got.IndexedAt.IsZero())

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutSameChecksumUpdatesPath(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	e := entry("abc", "me", dotosu.ModeStandard, 1, 100)
	require.NoError(t, c.Put(ctx, e))
	e.Path = "moved.osu"
	e.IndexedAt = time.Unix(200, 0)
	require.NoError(t, c.Put(ctx, e))

	all, err := c.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "moved.osu", all[0].Path)
	assert.Equal(t, int64(200), all[0].IndexedAt.Unix())
}

func TestListFilters(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	for _, e := range []Entry{
		entry("a", "alice", dotosu.ModeStandard, 10, 100),
		entry("b", "bob", dotosu.ModeStandard, 500, 300),
		entry("c", "alice", dotosu.ModeMania, 800, 200),
	} {
		require.NoError(t, c.Put(ctx, e))
	}
	mania := dotosu.ModeMania
	std := dotosu.ModeStandard

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"b", "c", "a"}},
		{"mode", Filter{Mode: &mania}, []string{"c"}},
		{"creator", Filter{Creator: "alice"}, []string{"c", "a"}},
		{"min objects", Filter{MinObjects: 100}, []string{"b", "c"}},
		{"combined", Filter{Mode: &std, MinObjects: 5, Creator: "alice"}, []string{"a"}},
		{"limit", Filter{Limit: 1}, []string{"b"}},
		{"no match", Filter{Creator: "nobody"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, checksums(got))
		})
	}
}

func TestFailures(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	require.NoError(t, c.RecordFailure(ctx, Failure{Path: "bad.osu", Checksum: "x", Reason: "line 3: invalid"}))
	require.NoError(t, c.RecordFailure(ctx, Failure{Path: "bad.osu", Checksum: "y", Reason: "line 4: invalid"}))
	require.NoError(t, c.RecordFailure(ctx, Failure{Path: "worse.osu", Checksum: "z", Reason: "ambiguous"}))

	fs, err := c.Failures(ctx)
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, Failure{Path: "bad.osu", Checksum: "y", Reason: "line 4: invalid"}, fs[0])

	// a later successful index of the same path clears its failure
	e := entry("ok", "me", dotosu.ModeStandard, 1, 1)
	e.Path = "bad.osu"
	require.NoError(t, c.Put(ctx, e))

	fs, err = c.Failures(ctx)
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, "worse.osu", fs[0].Path)
}
