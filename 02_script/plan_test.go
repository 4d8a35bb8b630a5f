package script

import (
	"testing"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

func testPlan(length, sections, segs int) *types.Plan {
	return &types.Plan{
		Title:      "Test Topic",
		Resolution: "1080x1920",
		Structure: types.Structure{
			Length:             length,
			Sections:           sections,
			SegmentsPerSection: segs,
		},
	}
}

func TestSegmentSeconds(t *testing.T) {
	cfg := config.Default().Script

	cases := []struct {
		name string
		plan *types.Plan
		want float64
	}{
		{"even split", testPlan(48, 3, 4), 4},
		{"clamped low", testPlan(10, 3, 4), 3},
		{"clamped high", testPlan(200, 3, 4), 5},
		{"truncated to whole seconds", testPlan(43, 3, 3), 4},
		{"no length falls back to target", testPlan(0, 3, 2), 4},
	}
	for _, tc := range cases {
		if got := segmentSeconds(tc.plan, cfg); got != tc.want {
			t.Errorf("%s: segmentSeconds = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBuildSkeleton(t *testing.T) {
	cfg := config.Default().Script
	sections := buildSkeleton(testPlan(48, 3, 2), cfg)

	// 3 main sections and 2 segues between them.
	if len(sections) != 5 {
		t.Fatalf("got %d sections, want 5", len(sections))
	}

	wantNumbers := []float64{1, 1.5, 2, 2.5, 3}
	for i, sec := range sections {
		if sec.SectionNumber != wantNumbers[i] {
			t.Errorf("section %d number = %v, want %v", i, sec.SectionNumber, wantNumbers[i])
		}
	}

	for _, sec := range sections {
		if sec.IsSegue() {
			if len(sec.Segments) != 1 {
				t.Errorf("segue %v has %d segments, want 1", sec.SectionNumber, len(sec.Segments))
			}
			if sec.Segments[0].Narration.Text != "" || sec.Segments[0].Narration.Duration != 0 {
				t.Errorf("segue %v should have empty narration", sec.SectionNumber)
			}
			if sec.Segments[0].Visual.Duration != cfg.TargetSegueSegmentSec {
				t.Errorf("segue %v visual duration = %v, want %v",
					sec.SectionNumber, sec.Segments[0].Visual.Duration, cfg.TargetSegueSegmentSec)
			}
		} else {
			if len(sec.Segments) != 2 {
				t.Errorf("section %v has %d segments, want 2", sec.SectionNumber, len(sec.Segments))
			}
			for _, seg := range sec.Segments {
				if seg.Narration.Duration != 4 {
					t.Errorf("section %v segment duration = %v, want 4", sec.SectionNumber, seg.Narration.Duration)
				}
			}
		}
	}

	// The skeleton itself must satisfy the document invariants.
	doc := &types.Script{Sections: sections}
	if err := doc.Validate(); err != nil {
		t.Errorf("skeleton fails validation: %v", err)
	}
}

func TestNormalizeRepairsDrift(t *testing.T) {
	cfg := config.Default().Script
	plan := testPlan(16, 2, 2)
	skeleton := &types.Script{
		Topic:    plan.Title,
		Settings: types.Settings{VideoSize: "1080x1920", UseTransitions: true, UseBackgroundMusic: true},
		Sections: buildSkeleton(plan, cfg),
	}

	// Model output drifted: durations changed, segue narration filled,
	// top-level fields dropped.
	generated := &types.Script{Sections: buildSkeleton(plan, cfg)}
	generated.Sections[0].Segments[0].Narration.Text = " Hello there. "
	generated.Sections[0].Segments[0].Narration.Duration = 99
	generated.Sections[1].Segments[0].Narration.Text = "segues should not speak"

	normalize(generated, skeleton)

	if generated.Topic != plan.Title {
		t.Errorf("topic not backfilled, got %q", generated.Topic)
	}
	if generated.Sections[0].Segments[0].Narration.Duration != 4 {
		t.Errorf("duration not restored, got %v", generated.Sections[0].Segments[0].Narration.Duration)
	}
	if generated.Sections[0].Segments[0].Narration.Text != "Hello there." {
		t.Errorf("narration not trimmed, got %q", generated.Sections[0].Segments[0].Narration.Text)
	}
	if generated.Sections[1].Segments[0].Narration.Text != "" {
		t.Error("segue narration not blanked")
	}
	if err := generated.Validate(); err != nil {
		t.Errorf("normalized script fails validation: %v", err)
	}
}
