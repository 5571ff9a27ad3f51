package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"osumap/catalog"
	"osumap/dotosu"
)

type Summary struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`

	FormatVersion int    `json:"format_version"`
	Mode          string `json:"mode"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Creator       string `json:"creator"`
	Version       string `json:"version"`

	Difficulty dotosu.Difficulty `json:"difficulty"`
	Constants  MapConstants      `json:"constants"`

	Circles      int     `json:"circles"`
	Sliders      int     `json:"sliders"`
	Spinners     int     `json:"spinners"`
	TimingPoints int     `json:"timing_points"`
	BPM          float64 `json:"bpm,omitempty"`
	LengthMs     float64 `json:"length_ms"`
	Extent       *Extent `json:"extent,omitempty"`
}

// Extent is the bounding box of the positioned objects (circles and slider
// heads) in osu!pixels.
type Extent struct {
	Min dotosu.Vec2 `json:"min"`
	Max dotosu.Vec2 `json:"max"`
}

func objectExtent(objects []dotosu.HitObject) *Extent {
	var e *Extent
	for _, o := range objects {
		p, ok := o.Pos()
		if !ok {
			continue
		}
		if e == nil {
			e = &Extent{Min: p, Max: p}
			continue
		}
		e.Min.X, e.Min.Y = min(e.Min.X, p.X), min(e.Min.Y, p.Y)
		e.Max.X, e.Max.Y = max(e.Max.X, p.X), max(e.Max.Y, p.Y)
	}
	return e
}

func NewSummary(d decoded, mods Modifiers) Summary {
	b := d.Beatmap
	entry := catalog.EntryFromBeatmap(d.Path, d.Checksum, b)

	s := Summary{
		Path:          d.Path,
		Checksum:      d.Checksum,
		FormatVersion: b.FormatVersion,
		Mode:          b.Mode.String(),
		Title:         b.Metadata.Title,
		Artist:        b.Metadata.Artist,
		Creator:       b.Metadata.Creator,
		Version:       b.Metadata.Version,
		Difficulty:    b.Difficulty,
		Constants:     GetMapConstants(b.Difficulty, mods),
		Circles:       b.CountCircles,
		Sliders:       b.CountSliders,
		Spinners:      b.CountSpinners,
		TimingPoints:  len(b.TimingPoints),
		BPM:           entry.BPM,
		Extent:        objectExtent(b.Objects),
	}
	if n := len(b.Objects); n > 1 {
		s.LengthMs = b.Objects[n-1].Time - b.Objects[0].Time
	}
	return s
}

func WriteSummaries(w io.Writer, sums []Summary, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(sums, "", "\t")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	for _, s := range sums {
		if _, err := fmt.Fprintf(w,
			"%s\n  %s - %s [%s] by %s (%s, v%d)\n"+
				"  %s objects: %s circles, %s sliders, %s spinners over %s timing points\n"+
				"  CS %s AR %s OD %s HP %s  radius %.1f  preempt %.0fms  300 ±%.1fms\n",
			s.Path,
			s.Artist, s.Title, s.Version, s.Creator, s.Mode, s.FormatVersion,
			humanize.Comma(int64(s.Circles+s.Sliders+s.Spinners)),
			humanize.Comma(int64(s.Circles)), humanize.Comma(int64(s.Sliders)), humanize.Comma(int64(s.Spinners)),
			humanize.Comma(int64(s.TimingPoints)),
			humanize.Ftoa(s.Difficulty.CircleSize), humanize.Ftoa(s.Difficulty.ApproachRate),
			humanize.Ftoa(s.Difficulty.OverallDifficulty), humanize.Ftoa(s.Difficulty.HPDrainRate),
			s.Constants.CircleRadius, s.Constants.Preempt, s.Constants.Window300,
		); err != nil {
			return err
		}
	}
	return nil
}

func WriteEntries(w io.Writer, entries []catalog.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s  %-6s %s - %s [%s] by %s  %s objects  %s  indexed %s\n",
			e.Checksum[:min(8, len(e.Checksum))], e.Mode,
			e.Artist, e.Title, e.Version, e.Creator,
			humanize.Comma(int64(e.Objects())),
			e.Path,
			humanize.Time(e.IndexedAt),
		); err != nil {
			return err
		}
	}
	return nil
}
