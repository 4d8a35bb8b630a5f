package captions

import (
	"log"
	"strings"

	"shortform-pipeline/types"
)

// hyphenChunkLen is the slice length used when a single word is wider
// than the caption box and has to be broken with hyphens.
const hyphenChunkLen = 15

// WordToken is a single word with an estimated time span, produced by
// evenly subdividing a transcribed segment across its words.
type WordToken struct {
	Text  string
	Start float64
	End   float64
}

// WordTokens splits each transcribed segment into word-level tokens.
// Whisper segment boundaries are accurate; word timing inside a segment
// is approximated by dividing the span evenly.
func WordTokens(segments []TranscribedSegment) []WordToken {
	var tokens []WordToken
	for _, seg := range segments {
		words := strings.Fields(seg.Text)
		if len(words) == 0 {
			continue
		}
		span := (seg.End - seg.Start) / float64(len(words))
		for i, w := range words {
			tokens = append(tokens, WordToken{
				Text:  w,
				Start: seg.Start + float64(i)*span,
				End:   seg.Start + float64(i+1)*span,
			})
		}
	}
	return tokens
}

// BuildCaptions groups word tokens into caption blocks of at most
// maxWords words, then wraps each block's text against the caption box
// width. A block whose text cannot be measured is dropped rather than
// failing the whole stage.
func BuildCaptions(tokens []WordToken, maxWords int, boxWidth float64, m Measurer) []types.Caption {
	if maxWords < 1 {
		maxWords = 1
	}

	var captions []types.Caption
	for i := 0; i < len(tokens); i += maxWords {
		end := i + maxWords
		if end > len(tokens) {
			end = len(tokens)
		}
		group := tokens[i:end]

		words := make([]string, len(group))
		for j, tok := range group {
			words[j] = tok.Text
		}
		text, err := wrapWords(words, boxWidth, m)
		if err != nil {
			log.Printf("[captions] dropping caption %q: %v", strings.Join(words, " "), err)
			continue
		}
		captions = append(captions, types.Caption{
			Start: group[0].Start,
			End:   group[len(group)-1].End,
			Text:  text,
		})
	}
	return captions
}

// wrapWords packs words greedily into lines no wider than boxWidth.
// A single word wider than the box is broken into hyphenated chunks.
func wrapWords(words []string, boxWidth float64, m Measurer) (string, error) {
	var fitted []string
	for _, w := range words {
		width, err := m.Width(w)
		if err != nil {
			return "", err
		}
		if width > boxWidth {
			fitted = append(fitted, hyphenate(w)...)
			continue
		}
		fitted = append(fitted, w)
	}

	var lines []string
	var line string
	for _, w := range fitted {
		candidate := w
		if line != "" {
			candidate = line + " " + w
		}
		width, err := m.Width(candidate)
		if err != nil {
			return "", err
		}
		if width <= boxWidth || line == "" {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = w
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// hyphenate slices an oversized word into fixed-length chunks, each but
// the last carrying a trailing hyphen.
func hyphenate(word string) []string {
	runes := []rune(word)
	var chunks []string
	for len(runes) > hyphenChunkLen {
		chunks = append(chunks, string(runes[:hyphenChunkLen])+"-")
		runes = runes[hyphenChunkLen:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
