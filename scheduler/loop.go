package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"shortform-pipeline/config"
	"shortform-pipeline/notify"
)

// pollInterval is how often the loop checks whether the next run is
// due. Coarser than a timer, but it survives clock adjustments.
const pollInterval = time.Second

// postRunPause keeps back-to-back runs from hammering remote services
// when the interval is very short.
const postRunPause = 5 * time.Second

// mailSender is the slice of notify.Mailer the scheduler needs.
type mailSender interface {
	SendAsync(subject, body string)
}

// Scheduler drives the pipeline on a recurring schedule, persisting
// its state between restarts and emailing run reports.
type Scheduler struct {
	cfg     *config.Config
	planner *Planner
	mailer  mailSender
}

func New(cfg *config.Config, mailer *notify.Mailer) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		planner: NewPlanner(cfg.Scheduler),
		mailer:  mailer,
	}
}

// Run executes the scheduling loop until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	logFile, err := os.OpenFile(s.cfg.Scheduler.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening scheduler log: %w", err)
	}
	defer logFile.Close()
	out := io.MultiWriter(os.Stdout, logFile)
	logger := log.New(out, "", log.LstdFlags)

	st := LoadStatus(s.cfg.Scheduler.StatusFile)
	now := time.Now()
	if st.SchedulerStartedTime == "" {
		st.SchedulerStartedTime = now.Format(TimeLayout)
	}
	if st.StaleNextRun(now, s.planner.Horizon()) {
		next, err := s.planner.Next()
		if err != nil {
			return err
		}
		logger.Printf("[scheduler] next run planned for %s", next.Format(TimeLayout))
		st.NextRun = next.Format(TimeLayout)
	}
	if err := st.Save(s.cfg.Scheduler.StatusFile); err != nil {
		return fmt.Errorf("saving status: %w", err)
	}

	logger.Printf("[scheduler] started (mode: %s), %d runs completed so far",
		s.cfg.Scheduler.Mode, st.RunsCompleted)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Println("[scheduler] shutting down")
			return ctx.Err()
		case <-ticker.C:
		}

		now = time.Now()
		next, ok := st.NextRunTime()
		if ok && now.Before(next) {
			continue
		}

		logger.Println("[scheduler] launching pipeline run")
		res := RunJob(ctx, s.cfg.Scheduler, out)
		logger.Printf("[scheduler] run finished: %s (%.0fs)", res.Status, res.Duration.Seconds())

		recordResult(st, res, time.Now())

		next, err := s.planner.Next()
		if err != nil {
			return err
		}
		st.NextRun = next.Format(TimeLayout)
		if err := st.Save(s.cfg.Scheduler.StatusFile); err != nil {
			logger.Printf("[scheduler] saving status: %v", err)
		}
		logger.Printf("[scheduler] next run planned for %s", st.NextRun)

		s.notifyAfterRun(st, res)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(postRunPause):
		}
	}
}

// recordResult folds one finished run into the status record. Every
// completed run counts toward runs_completed regardless of its exit
// status; only the failure streak distinguishes outcomes.
func recordResult(st *Status, res RunResult, finished time.Time) {
	st.LastRun = finished.Format(TimeLayout)
	st.LastStatus = res.Status
	if res.Title != "" {
		st.LastTitle = res.Title
	}
	st.RunsCompleted++
	if res.Success() {
		st.FailureStreak = 0
	} else {
		st.FailureStreak++
	}
}

// notifyAfterRun sends a summary email on success and an alert email
// exactly when the failure streak reaches the threshold, so a long
// outage produces one alert rather than one per run.
func (s *Scheduler) notifyAfterRun(st *Status, res RunResult) {
	if res.Success() {
		s.sendSummary(st, res)
	} else if st.FailureStreak == s.cfg.Scheduler.FailureAlertThreshold {
		s.sendAlert(st, res)
	}
}

func (s *Scheduler) sendSummary(st *Status, res RunResult) {
	if !s.cfg.Scheduler.EmailEnabled {
		return
	}
	subject := fmt.Sprintf("%s %s", s.cfg.Scheduler.EmailSubjectPrefix, res.Status)
	body := fmt.Sprintf(
		"Run finished at %s\nStatus: %s\nTitle: %s\nDuration: %.0fs\nTotal runs completed: %d\nNext run: %s\n",
		st.LastRun, res.Status, st.LastTitle, res.Duration.Seconds(), st.RunsCompleted, st.NextRun)
	s.mailer.SendAsync(subject, body)
}

func (s *Scheduler) sendAlert(st *Status, res RunResult) {
	if !s.cfg.Scheduler.EmailEnabled {
		return
	}
	subject := fmt.Sprintf("%s ALERT: %d consecutive failures",
		s.cfg.Scheduler.EmailSubjectPrefix, st.FailureStreak)
	body := fmt.Sprintf(
		"The pipeline has failed %d times in a row.\nLast status: %s\nLast run: %s\nCheck %s for details.\n",
		st.FailureStreak, res.Status, st.LastRun, s.cfg.Scheduler.LogFile)
	s.mailer.SendAsync(subject, body)
}
