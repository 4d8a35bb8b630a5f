package social

import (
	"strings"
)

// imageStyles maps a style name to the prompt suffix that steers the
// image generator. The enrichment model picks one per video so all the
// frames share a look.
var imageStyles = map[string]string{
	"photorealistic": "photorealistic, shot on 35mm, natural lighting, high detail",
	"cinematic":      "cinematic still, dramatic lighting, shallow depth of field, film grain",
	"illustration":   "flat vector illustration, bold shapes, vibrant palette",
	"watercolor":     "soft watercolor painting, muted tones, textured paper",
	"retro":          "retro 1980s poster art, halftone texture, saturated colors",
	"dark":           "moody low-key photograph, deep shadows, single light source",
}

const defaultStyle = "cinematic"

// StyleNames lists the selectable styles for prompt construction.
func StyleNames() []string {
	names := make([]string, 0, len(imageStyles))
	for name := range imageStyles {
		names = append(names, name)
	}
	return names
}

// styleSuffix resolves a style name to its prompt suffix, tolerating
// case and whitespace drift from the model.
func styleSuffix(name string) (string, string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if suffix, ok := imageStyles[key]; ok {
		return key, suffix
	}
	return defaultStyle, imageStyles[defaultStyle]
}

// maxPromptLen bounds prompts so the image service never truncates
// mid-sentence on its own.
const maxPromptLen = 800

// promptReplacements swaps words that trip image-service content
// filters for neutral equivalents.
var promptReplacements = map[string]string{
	"blood":   "red liquid",
	"bloody":  "red-stained",
	"corpse":  "still figure",
	"dead":    "motionless",
	"gun":     "metal object",
	"knife":   "blade silhouette",
	"naked":   "uncovered",
	"violent": "intense",
}

// SanitizePrompt flattens a raw visual prompt to a single clean line,
// swaps filter-tripping words and appends the chosen style suffix.
func SanitizePrompt(prompt, suffix string) string {
	p := strings.ReplaceAll(prompt, "\n", " ")
	p = strings.ReplaceAll(p, "\"", "")
	words := strings.Fields(p)
	for i, w := range words {
		bare := strings.ToLower(strings.Trim(w, ".,!?;:"))
		if repl, ok := promptReplacements[bare]; ok {
			words[i] = repl
		}
	}
	p = strings.Join(words, " ")
	p = strings.TrimSuffix(strings.TrimSpace(p), ",")
	if p == "" {
		return p
	}
	full := p + ", " + suffix
	if len(full) > maxPromptLen {
		full = full[:maxPromptLen]
	}
	return full
}
