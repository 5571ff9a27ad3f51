package dotosu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, s string) []line {
	t.Helper()
	sc := newLineScanner(strings.NewReader(s))
	var out []line
	for {
		l, ok, err := sc.next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, l)
	}
}

func TestLineScannerFiltering(t *testing.T) {
	doc := strings.Join([]string{
		"osu file format v14",
		"",
		" comment with leading space",
		"_underscore comment",
		"\t tabbed content \t",
		"// c-style",
		"   // indented c-style",
		"[General]",
		"   ",
		"Mode: 1",
	}, "\r\n")

	assert.Equal(t, []line{
		{kind: lineContent, text: "osu file format v14", num: 1},
		{kind: lineBlank, num: 2},
		{kind: lineContent, text: "tabbed content", num: 5},
		{kind: lineHeader, text: "General", num: 8},
		{kind: lineBlank, num: 9},
		{kind: lineContent, text: "Mode: 1", num: 10},
	}, scanAll(t, doc))
}

func TestLineScannerHeaders(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"[Metadata]", "Metadata"},
		{"\t[HitObjects]  ", "HitObjects"},
		{"[Unclosed", "Unclosed"},
		{"[]", ""},
		{"[Odd] tail]", "Odd] tail"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := scanAll(t, tt.raw)
			require.Len(t, got, 1)
			assert.Equal(t, lineHeader, got[0].kind)
			assert.Equal(t, tt.want, got[0].text)
		})
	}
}

func TestLineScannerPeekUnread(t *testing.T) {
	sc := newLineScanner(strings.NewReader("a\nb\n"))

	l, ok, err := sc.peek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", l.text)

	l, _, _ = sc.next()
	assert.Equal(t, "a", l.text)

	l, _, _ = sc.next()
	assert.Equal(t, "b", l.text)
	sc.unread(l)
	assert.Panics(t, func() { sc.unread(l) })

	l, _, _ = sc.next()
	assert.Equal(t, 2, l.num)

	_, ok, err = sc.peek()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLineScannerBlock(t *testing.T) {
	sc := newLineScanner(strings.NewReader("1,2\n// skip\n3,4\n[Next]\nx\n\ny\n"))

	recs, err := sc.block()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "1,2", recs[0].text)
	assert.Equal(t, "3,4", recs[1].text)

	// the header is still there for the dispatcher
	l, ok, _ := sc.next()
	require.True(t, ok)
	assert.Equal(t, line{kind: lineHeader, text: "Next", num: 4}, l)

	recs, err = sc.block()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "x", recs[0].text)

	recs, err = sc.block()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "y", recs[0].text)

	recs, err = sc.block()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLineScannerLongLine(t *testing.T) {
	long := strings.Repeat("9", 200_000)
	got := scanAll(t, "[HitObjects]\n"+long+"\n")
	require.Len(t, got, 2)
	assert.Len(t, got[1].text, 200_000)
}
