package scheduler

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"shortform-pipeline/config"
)

// Planner computes the next run time from the scheduling config. The
// clock and randomness sources are injectable for tests.
type Planner struct {
	cfg  config.SchedulerConfig
	now  func() time.Time
	rand func() float64 // uniform in [0,1)
}

func NewPlanner(cfg config.SchedulerConfig) *Planner {
	return &Planner{cfg: cfg, now: time.Now, rand: rand.Float64}
}

// Next returns the next run time. In interval mode it is simply now
// plus the configured interval. In set-time mode it is the earliest
// configured wall-clock time strictly after now (today or, failing
// that, the first slot tomorrow), shifted by a uniform jitter of up to
// the configured number of minutes in either direction.
func (p *Planner) Next() (time.Time, error) {
	now := p.now()

	if p.cfg.Mode != "set_time" || len(p.cfg.SetRunTimes) == 0 {
		return now.Add(time.Duration(p.cfg.IntervalMinutes) * time.Minute), nil
	}

	slots := make([]time.Time, 0, len(p.cfg.SetRunTimes))
	for _, raw := range p.cfg.SetRunTimes {
		t, err := time.ParseInLocation("15:04", raw, now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("bad set_run_time %q: %w", raw, err)
		}
		slot := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })

	next := time.Time{}
	for _, slot := range slots {
		if slot.After(now) {
			next = slot
			break
		}
	}
	if next.IsZero() {
		next = slots[0].AddDate(0, 0, 1)
	}

	// Jitter spreads uploads so they do not land at identical clock
	// times every day.
	jitter := (p.rand()*2 - 1) * p.cfg.JitterMinutes
	return next.Add(time.Duration(jitter * float64(time.Minute))), nil
}

// Horizon is the sanity bound used to detect stale persisted run
// times: twice the interval in interval mode, a full day plus slack in
// set-time mode.
func (p *Planner) Horizon() time.Duration {
	if p.cfg.Mode == "set_time" && len(p.cfg.SetRunTimes) > 0 {
		return 25 * time.Hour
	}
	return time.Duration(p.cfg.IntervalMinutes*120) * time.Second
}
