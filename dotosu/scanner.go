package dotosu

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxLine = 1024 * 1024

type lineKind uint8

const (
	lineContent lineKind = iota
	lineBlank
	lineHeader
)

type line struct {
	kind lineKind
	text string // trimmed content; the section name for headers
	num  int    // 1-based line number in the source
}

// lineScanner turns raw source lines into significant lines. Comment lines are
// swallowed here, blank lines are kept because they terminate section blocks.
// One line of lookahead is available through peek and unread.
type lineScanner struct {
	sc      *bufio.Scanner
	num     int
	pending *line
}

func newLineScanner(r io.Reader) *lineScanner {
	// a leading BOM is dropped; UTF-16 files with a BOM are transcoded
	r = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return &lineScanner{sc: sc}
}

// next returns the next significant line, or ok == false at end of input.
func (s *lineScanner) next() (l line, ok bool, err error) {
	if s.pending != nil {
		l, s.pending = *s.pending, nil
		return l, true, nil
	}
	for s.sc.Scan() {
		s.num++
		raw := s.sc.Text()
		if strings.TrimSpace(raw) == "" {
			return line{kind: lineBlank, num: s.num}, true, nil
		}
		if raw[0] == ' ' || raw[0] == '_' {
			continue
		}
		text := strings.TrimSpace(raw)
		if strings.HasPrefix(text, "//") {
			continue
		}
		if strings.HasPrefix(text, "[") {
			name := strings.TrimSuffix(text[1:], "]")
			return line{kind: lineHeader, text: name, num: s.num}, true, nil
		}
		return line{kind: lineContent, text: text, num: s.num}, true, nil
	}
	if err := s.sc.Err(); err != nil {
		return line{}, false, fmt.Errorf("read line %d: %w", s.num+1, err)
	}
	return line{}, false, nil
}

func (s *lineScanner) peek() (line, bool, error) {
	l, ok, err := s.next()
	if ok {
		s.unread(l)
	}
	return l, ok, err
}

// unread pushes l back so the following next returns it. Only one line may be
// pending at a time.
func (s *lineScanner) unread(l line) {
	if s.pending != nil {
		panic("dotosu: unread with a line already pending")
	}
	s.pending = &l
}

// block collects the contiguous content lines that follow. It stops at a blank
// line (consumed), end of input, or a section header (left for the caller).
func (s *lineScanner) block() ([]line, error) {
	var out []line
	for {
		l, ok, err := s.peek()
		if err != nil {
			return nil, err
		}
		if !ok || l.kind == lineHeader {
			return out, nil
		}
		s.next()
		if l.kind == lineBlank {
			return out, nil
		}
		out = append(out, l)
	}
}
