package assembly

import (
	"strings"
	"testing"
)

func TestMusicMixFilterRunsFullBed(t *testing.T) {
	// 12.25s of raw video plus the 0.5s tail extension.
	filter := musicMixFilter(12.75, 0.09)

	if !strings.Contains(filter, "apad=whole_dur=12.750") {
		t.Errorf("narration not padded to the bed duration:\n%s", filter)
	}
	if !strings.Contains(filter, "duration=longest") {
		t.Errorf("mix would stop at the shorter input:\n%s", filter)
	}
	if !strings.Contains(filter, "atrim=0:12.750") {
		t.Errorf("bed not trimmed to the bed duration:\n%s", filter)
	}
	// The fade-out must end exactly at the bed end.
	if !strings.Contains(filter, "afade=t=out:st=11.750:d=1.00") {
		t.Errorf("fade-out not aligned with bed end:\n%s", filter)
	}
	if !strings.Contains(filter, "tpad=stop_mode=clone:stop_duration=0.50") {
		t.Errorf("video tail extension missing:\n%s", filter)
	}
	if !strings.Contains(filter, "volume=0.090") {
		t.Errorf("bed volume missing:\n%s", filter)
	}
}
