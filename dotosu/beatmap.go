package dotosu

import (
	"errors"
	"fmt"
)

// ---------- Beatmap model ----------

type Beatmap struct {
	FormatVersion int
	Mode          GameMode
	Metadata      Metadata
	Difficulty    Difficulty

	CountCircles  int
	CountSliders  int
	CountSpinners int

	TimingPoints []Timing
	Objects      []HitObject
}

type Metadata struct {
	Title, TitleUnicode   string
	Artist, ArtistUnicode string
	Creator               string
	Version               string // difficulty name
}

type Difficulty struct {
	CircleSize        float64
	OverallDifficulty float64
	ApproachRate      float64
	HPDrainRate       float64
	SliderMultiplier  float64 // slider velocity
	SliderTickRate    float64
}

type GameMode int

const (
	ModeStandard GameMode = iota
	ModeTaiko
	ModeCatchTheBeat
	ModeMania
)

func (m GameMode) String() string {
	switch m {
	case ModeStandard:
		return "osu"
	case ModeTaiko:
		return "taiko"
	case ModeCatchTheBeat:
		return "fruits"
	case ModeMania:
		return "mania"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Timing is one [TimingPoints] record. MsPerBeat is kept exactly as written:
// negative values mark an inherited point (slider velocity = -100/MsPerBeat).
type Timing struct {
	Time      float64
	MsPerBeat float64
	Change    bool // uninherited: starts a new base tempo
}

// BPM is only meaningful for uninherited points; inherited ones return 0.
func (t Timing) BPM() float64 {
	if !t.Change || t.MsPerBeat <= 0 {
		return 0
	}
	return 60000 / t.MsPerBeat
}

// ---------- HitObject enums & typed variants ----------

type HitObjectType int

const (
	TypeCircle   HitObjectType = 1 << iota // 1
	TypeSlider                             // 2
	TypeNewCombo                           // 4
	TypeSpinner                            // 8
)

const categoryMask = TypeCircle | TypeSlider | TypeSpinner

func (t HitObjectType) Has(flag HitObjectType) bool { return t&flag != 0 }

type ObjectKind uint8

const (
	KindNone ObjectKind = iota
	KindCircle
	KindSlider
	KindSpinner
)

func (k ObjectKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindSlider:
		return "slider"
	case KindSpinner:
		return "spinner"
	}
	return "none"
}

type Vec2 struct{ X, Y float64 }

// Payload is the category-specific part of a HitObject. The set of
// implementations is closed: Circle, Slider and Spinner.
type Payload interface {
	Kind() ObjectKind
	payload()
}

type Circle struct {
	Pos Vec2
}

type Slider struct {
	Pos         Vec2
	Repetitions int
	Distance    float64 // path length in osu!pixels
}

// Spinner carries nothing beyond the object's time.
type Spinner struct{}

func (Circle) Kind() ObjectKind  { return KindCircle }
func (Slider) Kind() ObjectKind  { return KindSlider }
func (Spinner) Kind() ObjectKind { return KindSpinner }

func (Circle) payload()  {}
func (Slider) payload()  {}
func (Spinner) payload() {}

type HitObject struct {
	Time float64
	Type HitObjectType
	Data Payload // nil when no category bit is set (e.g. mania holds)
}

func (o HitObject) Kind() ObjectKind {
	if o.Data == nil {
		return KindNone
	}
	return o.Data.Kind()
}

// Pos returns the playfield position of circles and sliders.
func (o HitObject) Pos() (Vec2, bool) {
	switch d := o.Data.(type) {
	case Circle:
		return d.Pos, true
	case Slider:
		return d.Pos, true
	}
	return Vec2{}, false
}

// ---------- optional validation ----------

func (b *Beatmap) Validate() error {
	if b.Metadata.Title == "" && b.Metadata.TitleUnicode == "" {
		return errors.New("missing title")
	}
	if b.Metadata.Artist == "" && b.Metadata.ArtistUnicode == "" {
		return errors.New("missing artist")
	}
	var circles, sliders, spinners int
	for _, o := range b.Objects {
		switch o.Kind() {
		case KindCircle:
			circles++
		case KindSlider:
			sliders++
		case KindSpinner:
			spinners++
		}
	}
	if circles != b.CountCircles || sliders != b.CountSliders || spinners != b.CountSpinners {
		return fmt.Errorf("object counts %d/%d/%d do not match objects %d/%d/%d",
			b.CountCircles, b.CountSliders, b.CountSpinners, circles, sliders, spinners)
	}
	return nil
}
