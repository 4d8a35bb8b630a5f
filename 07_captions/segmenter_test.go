package captions

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"shortform-pipeline/config"
)

// charWidth measures every rune as a fixed number of pixels, which
// makes wrapping arithmetic exact in tests.
type charWidth float64

func (c charWidth) Width(text string) (float64, error) {
	return float64(len([]rune(text))) * float64(c), nil
}

type failingMeasurer struct{}

func (failingMeasurer) Width(string) (float64, error) {
	return 0, fmt.Errorf("no font")
}

func tokensFromWords(words ...string) []WordToken {
	toks := make([]WordToken, len(words))
	for i, w := range words {
		toks[i] = WordToken{Text: w, Start: float64(i), End: float64(i + 1)}
	}
	return toks
}

func TestWordTokensEvenSubdivision(t *testing.T) {
	segs := []TranscribedSegment{
		{Start: 0, End: 3, Text: "one two three"},
		{Start: 3, End: 4, Text: "  four  "},
		{Start: 4, End: 5, Text: "   "},
	}
	toks := WordTokens(segs)
	if len(toks) != 4 {
		t.Fatalf("got %d tokens, want 4", len(toks))
	}
	wantStarts := []float64{0, 1, 2, 3}
	for i, tok := range toks {
		if math.Abs(tok.Start-wantStarts[i]) > 1e-9 {
			t.Errorf("token %d start = %v, want %v", i, tok.Start, wantStarts[i])
		}
		if math.Abs(tok.End-tok.Start-1) > 1e-9 {
			t.Errorf("token %d span = %v, want 1", i, tok.End-tok.Start)
		}
	}
}

func TestBuildCaptionsGroupCount(t *testing.T) {
	cases := []struct {
		words    int
		maxWords int
		want     int
	}{
		{16, 8, 2},
		{17, 8, 3},
		{3, 8, 1},
		{8, 8, 1},
		{0, 8, 0},
	}
	for _, tc := range cases {
		words := make([]string, tc.words)
		for i := range words {
			words[i] = "word"
		}
		got := BuildCaptions(tokensFromWords(words...), tc.maxWords, 10000, charWidth(10))
		if len(got) != tc.want {
			t.Errorf("%d words / max %d: got %d captions, want %d", tc.words, tc.maxWords, len(got), tc.want)
		}
	}
}

func TestBuildCaptionsTextRoundTrips(t *testing.T) {
	words := []string{"the", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog"}
	caps := BuildCaptions(tokensFromWords(words...), 8, 120, charWidth(10))

	var rebuilt []string
	for _, c := range caps {
		for _, line := range strings.Split(c.Text, "\n") {
			rebuilt = append(rebuilt, strings.Fields(line)...)
		}
	}
	if strings.Join(rebuilt, " ") != strings.Join(words, " ") {
		t.Errorf("wrapping lost or reordered words:\ngot  %v\nwant %v", rebuilt, words)
	}
}

func TestBuildCaptionsLineWidths(t *testing.T) {
	words := []string{"alpha", "beta", "gamma", "delta"}
	boxWidth := 120.0 // 12 chars at width 10
	caps := BuildCaptions(tokensFromWords(words...), 8, boxWidth, charWidth(10))
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1", len(caps))
	}
	for _, line := range strings.Split(caps[0].Text, "\n") {
		if w := float64(len(line)) * 10; w > boxWidth {
			t.Errorf("line %q is %v px wide, box is %v", line, w, boxWidth)
		}
	}
}

func TestBuildCaptionsHyphenatesOversizedWord(t *testing.T) {
	long := strings.Repeat("a", 40)
	caps := BuildCaptions(tokensFromWords(long), 8, 200, charWidth(10))
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1", len(caps))
	}
	lines := strings.Split(caps[0].Text, "\n")
	// 40 chars in 15-char chunks: two hyphenated chunks plus the rest.
	want := []string{
		strings.Repeat("a", 15) + "-",
		strings.Repeat("a", 15) + "-",
		strings.Repeat("a", 10),
	}
	if len(lines) != len(want) {
		t.Fatalf("got lines %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestBuildCaptionsTiming(t *testing.T) {
	toks := tokensFromWords("a", "b", "c", "d", "e")
	caps := BuildCaptions(toks, 2, 1000, charWidth(10))
	if len(caps) != 3 {
		t.Fatalf("got %d captions, want 3", len(caps))
	}
	if caps[0].Start != 0 || caps[0].End != 2 {
		t.Errorf("first caption spans [%v,%v], want [0,2]", caps[0].Start, caps[0].End)
	}
	if caps[2].Start != 4 || caps[2].End != 5 {
		t.Errorf("last caption spans [%v,%v], want [4,5]", caps[2].Start, caps[2].End)
	}
}

func TestBuildCaptionsMeasureFailureDropsCaption(t *testing.T) {
	caps := BuildCaptions(tokensFromWords("a", "b"), 8, 100, failingMeasurer{})
	if len(caps) != 0 {
		t.Errorf("got %d captions, want 0 when measuring fails", len(caps))
	}
}

func TestSRTTimestamp(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.042, "00:01:01,042"},
		{3723.999, "01:02:03,999"},
		{-1, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := srtTimestamp(tc.in); got != tc.want {
			t.Errorf("srtTimestamp(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAssColor(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"#FFFFFF", "&H00FFFFFF"},
		{"#FF0000", "&H000000FF"},
		{"#00FF00", "&H0000FF00"},
		{"bogus", "&H00FFFFFF"},
		{"Yellow", "&H0000FFFF"},
	}
	for _, tc := range cases {
		if got := assColor(tc.in); got != tc.want {
			t.Errorf("assColor(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	// The shipped defaults are names, not hex; the stroke must come
	// out black, not fall through to white.
	defaults := config.Default().Captions
	if got := assColor(defaults.StrokeColor); got != "&H00000000" {
		t.Errorf("default stroke color %q = %q, want black", defaults.StrokeColor, got)
	}
	if got := assColor(defaults.Color); got != "&H00FFFFFF" {
		t.Errorf("default text color %q = %q, want white", defaults.Color, got)
	}
}
