package main

import (
	"bytes"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osumap/catalog"
	"osumap/dotosu"
)

func sampleDecoded(t *testing.T) decoded {
	t.Helper()
	results := DecodeAll([]source{{path: "sample.osu", data: readSample(t)}}, 1, nil, true)
	require.NoError(t, results[0].Err)
	return results[0]
}

func TestNewSummary(t *testing.T) {
	s := NewSummary(sampleDecoded(t), Modifiers{Rate: 1})

	assert.Equal(t, 14, s.FormatVersion)
	assert.Equal(t, "osu", s.Mode)
	assert.Equal(t, "Adventure", s.Version)
	assert.Equal(t, 3, s.Circles)
	assert.Equal(t, 2, s.Sliders)
	assert.Equal(t, 1, s.Spinners)
	assert.Equal(t, 4, s.TimingPoints)
	assert.InDelta(t, 186, s.BPM, 1e-6)
	// first object to the closing circle, not to the spinner start
	assert.InDelta(t, 5200-1244, s.LengthMs, 1e-9)
	assert.Equal(t, &Extent{Min: dotosu.Vec2{X: 64, Y: 40}, Max: dotosu.Vec2{X: 320, Y: 200}}, s.Extent)
	assert.InDelta(t, ApproachRateToPreempt(9.3), s.Constants.Preempt, 1e-9)
}

func TestObjectExtent(t *testing.T) {
	assert.Nil(t, objectExtent(nil))
	assert.Nil(t, objectExtent([]dotosu.HitObject{
		{Time: 1, Type: dotosu.TypeSpinner, Data: dotosu.Spinner{}},
		{Time: 2},
	}))

	e := objectExtent([]dotosu.HitObject{
		{Time: 1, Type: dotosu.TypeSlider, Data: dotosu.Slider{Pos: dotosu.Vec2{X: 10, Y: 300}}},
		{Time: 2, Type: dotosu.TypeSpinner, Data: dotosu.Spinner{}},
		{Time: 3, Type: dotosu.TypeCircle, Data: dotosu.Circle{Pos: dotosu.Vec2{X: 500, Y: 20}}},
	})
	assert.Equal(t, &Extent{Min: dotosu.Vec2{X: 10, Y: 20}, Max: dotosu.Vec2{X: 500, Y: 300}}, e)
}

func TestWriteSummaries(t *testing.T) {
	s := NewSummary(sampleDecoded(t), Modifiers{Rate: 1})

	var text bytes.Buffer
	require.NoError(t, WriteSummaries(&text, []Summary{s}, false))
	assert.Contains(t, text.String(), "Hanatan - Kimi no Bouken [Adventure] by Sotarks (osu, v14)")
	assert.Contains(t, text.String(), "6 objects: 3 circles, 2 sliders, 1 spinners over 4 timing points")
	assert.Contains(t, text.String(), "CS 4 AR 9.3 OD 8.5 HP 5.5")

	var js bytes.Buffer
	require.NoError(t, WriteSummaries(&js, []Summary{s}, true))
	var back []Summary
	require.NoError(t, json.Unmarshal(js.Bytes(), &back))
	require.Len(t, back, 1)
	assert.Equal(t, s.Checksum, back[0].Checksum)
	assert.Equal(t, s.Difficulty, back[0].Difficulty)
	assert.Equal(t, s.Extent, back[0].Extent)
}

func TestWriteEntries(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEntries(&buf, []catalog.Entry{{
		Checksum:  "0123456789abcdef",
		Path:      "maps/a.osu",
		Mode:      dotosu.ModeMania,
		Title:     "Song",
		Artist:    "Band",
		Version:   "4K Hard",
		Creator:   "me",
		Circles:   1200,
		Sliders:   34,
		IndexedAt: time.Now().Add(-3 * time.Hour),
	}})
	require.NoError(t, err)
	assert.Equal(t, "01234567  mania  Band - Song [4K Hard] by me  1,234 objects  maps/a.osu  indexed 3 hours ago\n", buf.String())
}

func TestRunRecoversPanic(t *testing.T) {
	codes := make(chan int, 1)
	exit = func(code int) { codes <- code }
	defer func() { exit = os.Exit }()

	Run(func() { panic("boom") })
	assert.Equal(t, 1, <-codes)
}

func TestRunEachBoundsWorkers(t *testing.T) {
	var mu sync.Mutex
	var inFlight, peak int
	seen := make([]bool, 50)

	RunEach(len(seen), 3, func(i int) {
		mu.Lock()
		inFlight++
		peak = max(peak, inFlight)
		mu.Unlock()

		time.Sleep(time.Millisecond)
		seen[i] = true

		mu.Lock()
		inFlight--
		mu.Unlock()
	})

	assert.LessOrEqual(t, peak, 3)
	for i, ok := range seen {
		assert.True(t, ok, "index %d", i)
	}
}

func TestParseMode(t *testing.T) {
	m, err := parseMode("fruits")
	require.NoError(t, err)
	assert.Equal(t, dotosu.ModeCatchTheBeat, m)

	_, err = parseMode("ctb")
	assert.Error(t, err)
}
