package dotosu

import (
	"strconv"
	"strings"
)

// fieldSet records which optional fields a section actually provided.
type fieldSet uint32

const (
	fieldCircleSize fieldSet = 1 << iota
	fieldOverallDifficulty
	fieldApproachRate
	fieldHPDrainRate
	fieldSliderMultiplier
	fieldSliderTickRate
)

func (s fieldSet) has(f fieldSet) bool { return s&f != 0 }

type difficultyField struct {
	bit fieldSet
	ptr func(*Difficulty) *float64
}

var difficultyFields = map[string]difficultyField{
	"CircleSize":        {fieldCircleSize, func(d *Difficulty) *float64 { return &d.CircleSize }},
	"OverallDifficulty": {fieldOverallDifficulty, func(d *Difficulty) *float64 { return &d.OverallDifficulty }},
	"ApproachRate":      {fieldApproachRate, func(d *Difficulty) *float64 { return &d.ApproachRate }},
	"HPDrainRate":       {fieldHPDrainRate, func(d *Difficulty) *float64 { return &d.HPDrainRate }},
	"SliderMultiplier":  {fieldSliderMultiplier, func(d *Difficulty) *float64 { return &d.SliderMultiplier }},
	"SliderTickRate":    {fieldSliderTickRate, func(d *Difficulty) *float64 { return &d.SliderTickRate }},
}

// difficultyFallbacks run in order once a Difficulty block is mapped. A
// fallback only fires when its field was never set.
var difficultyFallbacks = []struct {
	field fieldSet
	apply func(*Difficulty)
}{
	{fieldApproachRate, func(d *Difficulty) { d.ApproachRate = d.OverallDifficulty }},
}

func (d *decoder) mapMetadata(kv []pair) error {
	m := &d.b.Metadata
	for _, p := range kv {
		switch p.key {
		case "Title":
			m.Title = p.value
		case "TitleUnicode":
			m.TitleUnicode = p.value
		case "Artist":
			m.Artist = p.value
		case "ArtistUnicode":
			m.ArtistUnicode = p.value
		case "Creator":
			m.Creator = p.value
		case "Version":
			m.Version = p.value
		}
	}
	return nil
}

func (d *decoder) mapGeneral(kv []pair) error {
	for _, p := range kv {
		if p.key != "Mode" {
			continue
		}
		mode, err := strconv.Atoi(p.value)
		if err != nil {
			return d.syntaxErr(p.line, err)
		}
		d.b.Mode = GameMode(mode)
	}
	return nil
}

func (d *decoder) mapDifficulty(kv []pair) error {
	for _, p := range kv {
		f, ok := difficultyFields[p.key]
		if !ok {
			continue
		}
		v, err := parseFloat(p.value)
		if err != nil {
			return d.syntaxErr(p.line, err)
		}
		*f.ptr(&d.b.Difficulty) = v
		d.set |= f.bit
	}
	for _, fb := range difficultyFallbacks {
		if !d.set.has(fb.field) {
			fb.apply(&d.b.Difficulty)
		}
	}
	return nil
}

const (
	timingColumns = 8
	objectColumns = 11
)

func (d *decoder) mapTimingPoints(recs []line) error {
	for _, l := range recs {
		cols := strings.Split(l.text, ",")
		if len(cols) < 2 {
			return d.syntaxErr(l, ErrMalformedRecord)
		}
		if len(cols) > timingColumns {
			d.warn.Warn("timing point with trailing values", "line", l.num, "columns", len(cols))
		}
		t, err := parseFloat(cols[0])
		if err != nil {
			return d.syntaxErr(l, err)
		}
		msPerBeat, err := parseFloat(cols[1])
		if err != nil {
			return d.syntaxErr(l, err)
		}
		tp := Timing{Time: t, MsPerBeat: msPerBeat}
		if len(cols) >= 7 {
			tp.Change = strings.TrimSpace(cols[6]) != "0"
		}
		d.b.TimingPoints = append(d.b.TimingPoints, tp)
	}
	return nil
}

func (d *decoder) mapHitObjects(recs []line) error {
	for _, l := range recs {
		obj, err := d.hitObject(l)
		if err != nil {
			return err
		}
		switch obj.Kind() {
		case KindCircle:
			d.b.CountCircles++
		case KindSlider:
			d.b.CountSliders++
		case KindSpinner:
			d.b.CountSpinners++
		}
		d.b.Objects = append(d.b.Objects, obj)
	}
	return nil
}

// hitObject decodes "x,y,time,type,hitSound,params...,hitSample". Only the
// columns needed for difficulty work are interpreted.
func (d *decoder) hitObject(l line) (HitObject, error) {
	cols := strings.Split(l.text, ",")
	if len(cols) < 4 {
		return HitObject{}, d.syntaxErr(l, ErrMalformedRecord)
	}
	if len(cols) > objectColumns {
		d.warn.Warn("object with trailing values", "line", l.num, "columns", len(cols))
	}
	t, err := parseFloat(cols[2])
	if err != nil {
		return HitObject{}, d.syntaxErr(l, err)
	}
	typ, err := strconv.Atoi(strings.TrimSpace(cols[3]))
	if err != nil {
		return HitObject{}, d.syntaxErr(l, err)
	}
	obj := HitObject{Time: t, Type: HitObjectType(typ)}

	switch obj.Type & categoryMask {
	case 0:
		return obj, nil
	case TypeSpinner:
		obj.Data = Spinner{}
		return obj, nil
	case TypeCircle, TypeSlider:
	default:
		return HitObject{}, d.syntaxErr(l, ErrAmbiguousObjectType)
	}

	var pos Vec2
	if pos.X, err = parseFloat(cols[0]); err != nil {
		return HitObject{}, d.syntaxErr(l, err)
	}
	if pos.Y, err = parseFloat(cols[1]); err != nil {
		return HitObject{}, d.syntaxErr(l, err)
	}
	if obj.Type.Has(TypeCircle) {
		obj.Data = Circle{Pos: pos}
		return obj, nil
	}

	if len(cols) < 8 {
		return HitObject{}, d.syntaxErr(l, ErrMalformedRecord)
	}
	s := Slider{Pos: pos}
	if s.Repetitions, err = strconv.Atoi(strings.TrimSpace(cols[6])); err != nil {
		return HitObject{}, d.syntaxErr(l, err)
	}
	if s.Distance, err = parseFloat(cols[7]); err != nil {
		return HitObject{}, d.syntaxErr(l, err)
	}
	obj.Data = s
	return obj, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
