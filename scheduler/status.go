package scheduler

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// TimeLayout is the wall-clock format used throughout the status file.
const TimeLayout = "2006-01-02 15:04:05"

// Status is the scheduler's persisted state. It survives restarts so
// run counters and the next planned run carry across process lifetimes.
type Status struct {
	RunsCompleted        int    `json:"runs_completed"`
	LastRun              string `json:"last_run"`
	LastStatus           string `json:"last_status"`
	LastTitle            string `json:"last_title"`
	NextRun              string `json:"next_run"`
	SchedulerStartedTime string `json:"scheduler_started_time"`
	FailureStreak        int    `json:"failure_streak"`
}

// LoadStatus reads the status file. A missing file yields a fresh
// status; a corrupted file is deleted and replaced rather than wedging
// the scheduler forever.
func LoadStatus(path string) *Status {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Status{}
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("[scheduler] status file corrupted, resetting: %v", err)
		os.Remove(path)
		return &Status{}
	}
	return &st
}

// Save writes the status file as indented JSON.
func (s *Status) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// NextRunTime parses the persisted next-run timestamp in local time.
func (s *Status) NextRunTime() (time.Time, bool) {
	if s.NextRun == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimeLayout, s.NextRun, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// StaleNextRun reports whether a persisted next-run time is unusable:
// absent, unparsable, further out than the given horizon, or more than
// a minute in the past. Either happens when the host was suspended or
// the clock jumped. The horizon depends on the scheduling mode.
func (s *Status) StaleNextRun(now time.Time, horizon time.Duration) bool {
	next, ok := s.NextRunTime()
	if !ok {
		return true
	}
	delta := next.Sub(now)
	if delta > horizon {
		return true
	}
	if delta < -60*time.Second {
		return true
	}
	return false
}
