package script

import (
	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// segmentSeconds picks the per-segment narration length for a plan:
// the planned total split across all main segments, clamped to the
// configured range, whole seconds only. TTS pacing is predictable
// enough that whole seconds are all the precision the plan needs.
func segmentSeconds(plan *types.Plan, cfg config.ScriptConfig) float64 {
	totalSegments := plan.Structure.Sections * plan.Structure.SegmentsPerSection
	sec := cfg.TargetMainSegmentSec
	if plan.Structure.Length > 0 && totalSegments > 0 {
		sec = float64(plan.Structure.Length) / float64(totalSegments)
	}
	sec = float64(int(sec))
	if sec < cfg.MinSegmentSec {
		sec = cfg.MinSegmentSec
	}
	if sec > cfg.MaxSegmentSec {
		sec = cfg.MaxSegmentSec
	}
	return sec
}

// buildSkeleton lays out the empty section/segment structure the model
// fills in: numbered main sections with a segue section between each
// consecutive pair. Segues carry a half-integer section number and a
// single segment with no narration.
func buildSkeleton(plan *types.Plan, cfg config.ScriptConfig) []types.Section {
	mainSec := segmentSeconds(plan, cfg)

	var sections []types.Section
	for i := 1; i <= plan.Structure.Sections; i++ {
		sec := types.Section{SectionNumber: float64(i)}
		for j := 1; j <= plan.Structure.SegmentsPerSection; j++ {
			sec.Segments = append(sec.Segments, types.Segment{
				SegmentNumber: j,
				Narration:     types.Narration{Duration: mainSec},
				Visual:        types.Visual{Type: "image", Duration: mainSec},
			})
		}
		sec.SectionDuration = mainSec * float64(plan.Structure.SegmentsPerSection)
		sections = append(sections, sec)

		if i < plan.Structure.Sections {
			sections = append(sections, types.Section{
				SectionNumber:   float64(i) + 0.5,
				SectionDuration: cfg.TargetSegueSegmentSec,
				Segments: []types.Segment{{
					SegmentNumber: 1,
					Narration:     types.Narration{Duration: 0},
					Visual:        types.Visual{Type: "image", Duration: cfg.TargetSegueSegmentSec},
				}},
			})
		}
	}
	return sections
}
