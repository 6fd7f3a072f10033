package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_Annotation(t *testing.T) {
	e, err := ParseLine("00:00:13: a dog runs across the yard")
	require.NoError(t, err)
	assert.Equal(t, KindAnnotation, e.Kind)
	assert.Equal(t, 13.0, e.At)
	assert.Equal(t, "a dog runs across the yard", e.Text)
}

func TestParseLine_CutMarker(t *testing.T) {
	e, err := ParseLine("00:00:02: cut")
	require.NoError(t, err)
	assert.Equal(t, KindCut, e.Kind)
	assert.Equal(t, 2.0, e.At)
	assert.Equal(t, "", e.Text)
}

func TestParseLine_CutMarkerWithReason(t *testing.T) {
	e, err := ParseLine("00:01:05: CUT: beat drop")
	require.NoError(t, err)
	assert.Equal(t, KindCut, e.Kind)
	assert.Equal(t, 65.0, e.At)
	assert.Equal(t, "beat drop", e.Text)
}

func TestParseLine_LegacyCutLine(t *testing.T) {
	// The original persisted form: no leading timestamp, marker time
	// embedded after the token.
	e, err := ParseLine("cut: 00:00:05: chorus starts")
	require.NoError(t, err)
	assert.Equal(t, KindCut, e.Kind)
	assert.Equal(t, 5.0, e.At)
	assert.Equal(t, "chorus starts", e.Text)
}

func TestParseLine_EmbeddedTimeOverridesLeading(t *testing.T) {
	e, err := ParseLine("00:00:00: cut: 00:00:30: verse ends")
	require.NoError(t, err)
	assert.Equal(t, KindCut, e.Kind)
	assert.Equal(t, 30.0, e.At)
	assert.Equal(t, "verse ends", e.Text)
}

func TestParseLine_CutPrefixWordIsAnnotation(t *testing.T) {
	e, err := ParseLine("00:00:09: cutaway shot of the crowd")
	require.NoError(t, err)
	assert.Equal(t, KindAnnotation, e.Kind)
	assert.Equal(t, "cutaway shot of the crowd", e.Text)
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	text := "00:00:01: intro\nnot a timeline line at all\n00:00:08: cut\n"
	entries := Parse(text, nil)
	require.Len(t, entries, 2)
	assert.Equal(t, KindAnnotation, entries[0].Kind)
	assert.Equal(t, KindCut, entries[1].Kind)
	assert.Equal(t, 8.0, entries[1].At)
}

func TestMarshalParse_RoundTrip(t *testing.T) {
	entries := []Entry{
		{At: 2, Kind: KindAnnotation, Text: "skater lines up"},
		{At: 8, Kind: KindCut, Text: "landing"},
		{At: 13, Kind: KindAnnotation, Text: "crowd cheers"},
	}

	got := Parse(Marshal(entries), nil)
	require.Equal(t, entries, got)
}

func TestBuild_OffsetsSecondClip(t *testing.T) {
	clips := []Clip{
		{ID: "a.mp4", Duration: 10, Frames: []Frame{{At: 2, Text: "a"}}},
		{ID: "b.mp4", Duration: 20, Frames: []Frame{{At: 3, Text: "b"}}},
	}

	entries := Build(clips)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{At: 2, Kind: KindAnnotation, Text: "a"}, entries[0])
	assert.Equal(t, Entry{At: 13, Kind: KindAnnotation, Text: "b"}, entries[1])
	assert.Equal(t, 30.0, TotalDuration(clips))
}

func TestBuild_SortsFramesStably(t *testing.T) {
	clips := []Clip{
		{ID: "a.mp4", Duration: 10, Frames: []Frame{
			{At: 7, Text: "late"},
			{At: 1, Text: "early"},
			{At: 7, Text: "late twin"},
		}},
	}

	entries := Build(clips)
	require.Len(t, entries, 3)
	assert.Equal(t, "early", entries[0].Text)
	assert.Equal(t, "late", entries[1].Text)
	assert.Equal(t, "late twin", entries[2].Text)
}

func TestBuild_Idempotent(t *testing.T) {
	clips := []Clip{
		{ID: "a.mp4", Duration: 12.5, Frames: []Frame{{At: 3, Text: "x"}, {At: 9, Text: "y"}}},
		{ID: "b.mp4", Duration: 4, Frames: []Frame{{At: 1, Text: "z"}}},
	}

	first := Marshal(Build(clips))
	second := Marshal(Build(clips))
	assert.Equal(t, first, second)
}

func TestBuild_MonotonicTimestamps(t *testing.T) {
	clips := []Clip{
		{ID: "a.mp4", Duration: 5, Frames: []Frame{{At: 4, Text: "a1"}, {At: 0, Text: "a0"}}},
		{ID: "b.mp4", Duration: 8, Frames: []Frame{{At: 2, Text: "b0"}}},
		{ID: "c.mp4", Duration: 3, Frames: []Frame{{At: 0.5, Text: "c0"}}},
	}

	entries := Build(clips)
	for i := 1; i < len(entries); i++ {
		if entries[i].At < entries[i-1].At {
			t.Fatalf("timestamps not monotonic: %v before %v", entries[i-1].At, entries[i].At)
		}
	}
}
