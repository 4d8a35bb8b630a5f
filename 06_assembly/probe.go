package assembly

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Prober measures the duration of a media file in seconds. The
// timeline builder takes one so tests can substitute a fake.
type Prober func(path string) (float64, error)

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// MediaDuration probes the container for the accurate duration of an
// audio or video file in seconds.
func MediaDuration(path string) (float64, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w", path, err)
	}
	dur, err := probeDuration(out)
	if err != nil {
		return 0, fmt.Errorf("probe of %s: %w", path, err)
	}
	return dur, nil
}

// probeDuration extracts format.duration from ffprobe's JSON output.
func probeDuration(out string) (float64, error) {
	var pf probeFormat
	if err := json.Unmarshal([]byte(out), &pf); err != nil {
		return 0, err
	}
	dur, err := strconv.ParseFloat(pf.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("missing duration: %w", err)
	}
	return dur, nil
}
