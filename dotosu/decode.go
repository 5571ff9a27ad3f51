package dotosu

import (
	"io"
	"os"
	"strconv"
	"strings"
)

// Warner receives non-fatal diagnostics, such as records with trailing values.
// *slog.Logger satisfies it.
type Warner interface {
	Warn(msg string, args ...any)
}

type WarnerFunc func(msg string, args ...any)

func (f WarnerFunc) Warn(msg string, args ...any) { f(msg, args...) }

type nopWarner struct{}

func (nopWarner) Warn(string, ...any) {}

type Option func(*decoder)

// WithWarner routes diagnostics to w. Without it they are discarded.
func WithWarner(w Warner) Option {
	return func(d *decoder) {
		if w != nil {
			d.warn = w
		}
	}
}

// ---------- Public API ----------

func DecodeFile(path string, opts ...Option) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, opts...)
}

// Decode reads a whole .osu document from r in a single pass. On error the
// partially built beatmap is discarded.
func Decode(r io.Reader, opts ...Option) (*Beatmap, error) {
	d := &decoder{
		s:    newLineScanner(r),
		warn: nopWarner{},
		b:    &Beatmap{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.b, nil
}

// ---------- section dispatch ----------

type decoder struct {
	s       *lineScanner
	warn    Warner
	b       *Beatmap
	section string
	set     fieldSet
}

type sectionReader uint8

const (
	readPairs sectionReader = iota
	readRecords
)

type sectionHandler struct {
	reader sectionReader
	pairs  func(d *decoder, kv []pair) error
	lines  func(d *decoder, recs []line) error
}

var sections = map[string]sectionHandler{
	"General":      {reader: readPairs, pairs: (*decoder).mapGeneral},
	"Metadata":     {reader: readPairs, pairs: (*decoder).mapMetadata},
	"Difficulty":   {reader: readPairs, pairs: (*decoder).mapDifficulty},
	"TimingPoints": {reader: readRecords, lines: (*decoder).mapTimingPoints},
	"HitObjects":   {reader: readRecords, lines: (*decoder).mapHitObjects},
}

func (d *decoder) run() error {
	for {
		l, ok, err := d.s.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch l.kind {
		case lineBlank:
			continue
		case lineHeader:
			d.section = l.text
			continue
		}

		h, known := sections[d.section]
		if !known {
			if err := d.unknownLine(l); err != nil {
				return err
			}
			continue
		}
		d.s.unread(l)
		if err := d.readSection(h); err != nil {
			return err
		}
	}
}

func (d *decoder) readSection(h sectionHandler) error {
	recs, err := d.s.block()
	if err != nil {
		return err
	}
	if h.reader == readRecords {
		return h.lines(d, recs)
	}
	kv, err := d.pairs(recs)
	if err != nil {
		return err
	}
	return h.pairs(d, kv)
}

const formatBanner = "file format v"

// unknownLine handles content outside the recognised sections; only the
// "osu file format vN" banner is of interest there.
func (d *decoder) unknownLine(l line) error {
	i := strings.Index(l.text, formatBanner)
	if i < 0 {
		return nil
	}
	rest := l.text[i+len(formatBanner):]
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	v, err := strconv.Atoi(rest[:n])
	if err != nil {
		return d.syntaxErr(l, err)
	}
	d.b.FormatVersion = v
	return nil
}

// ---------- block readers ----------

type pair struct {
	key, value string
	line       line
}

// pairs splits "Key: value" lines on the first colon. Pairs keep source order
// and mappers apply them in that order, so a repeated key ends up with its
// last value.
func (d *decoder) pairs(recs []line) ([]pair, error) {
	kv := make([]pair, 0, len(recs))
	for _, l := range recs {
		k, v, found := strings.Cut(l.text, ":")
		if !found {
			return nil, d.syntaxErr(l, ErrMalformedPair)
		}
		// the line is already trimmed, so this only touches the inner sides
		kv = append(kv, pair{key: strings.TrimSpace(k), value: strings.TrimSpace(v), line: l})
	}
	return kv, nil
}

func (d *decoder) syntaxErr(l line, err error) error {
	return &SyntaxError{Line: l.num, Section: d.section, Text: l.text, Err: err}
}
