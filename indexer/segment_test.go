package indexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEmptyTextYieldsOneSegment(t *testing.T) {
	segments := Split("", 1000)
	assert.Equal(t, []string{""}, segments)
}

func TestSplitSegmentCount(t *testing.T) {
	tests := []struct {
		length int
		width  int
		want   int
	}{
		{length: 1, width: 1000, want: 1},
		{length: 999, width: 1000, want: 1},
		{length: 1000, width: 1000, want: 1},
		{length: 1001, width: 1000, want: 2},
		{length: 2500, width: 1000, want: 3},
		{length: 10, width: 3, want: 4},
	}
	for _, tt := range tests {
		text := strings.Repeat("x", tt.length)
		segments := Split(text, tt.width)
		assert.Len(t, segments, tt.want, "length %d width %d", tt.length, tt.width)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	text := strings.Repeat("the quick brown fox ", 500)
	segments := Split(text, 1000)

	for _, s := range segments {
		assert.LessOrEqual(t, len([]rune(s)), 1000)
	}
	assert.Equal(t, text, strings.Join(segments, ""))
}

func TestSplitDoesNotBreakRunes(t *testing.T) {
	text := strings.Repeat("héllо wörld ", 100)
	segments := Split(text, 7)

	for _, s := range segments {
		assert.True(t, strings.ContainsRune("héllо wörld ", []rune(s)[0]))
		assert.LessOrEqual(t, len([]rune(s)), 7)
	}
	assert.Equal(t, text, strings.Join(segments, ""))
}

func TestSplitDefaultWidth(t *testing.T) {
	text := strings.Repeat("y", DefaultSegmentWidth+1)
	assert.Len(t, Split(text, 0), 2)
}
