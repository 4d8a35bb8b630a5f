package scheduler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"time"

	"shortform-pipeline/config"
)

// titleMarker is the log prefix the pipeline prints when it settles on
// a video title; the scheduler scrapes it for the status file.
const titleMarker = "Title: "

// RunResult summarizes one pipeline invocation.
type RunResult struct {
	Status   string // "Success", "Exit N", "Timeout" or "Unexpected error"
	Title    string
	Duration time.Duration
}

// Success reports whether the run completed cleanly.
func (r RunResult) Success() bool { return r.Status == "Success" }

// RunJob launches the pipeline binary as a subprocess, streams its
// merged stdout and stderr line by line into logOut, and enforces the
// configured timeout by killing the process.
func RunJob(ctx context.Context, cfg config.SchedulerConfig, logOut io.Writer) RunResult {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	cmd := exec.CommandContext(runCtx, cfg.Program, cfg.ProgramArgs...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		log.Printf("[scheduler] starting %s: %v", cfg.Program, err)
		return RunResult{Status: "Unexpected error", Duration: time.Since(started)}
	}

	title := ""
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			fmt.Fprintln(logOut, line)
			if i := strings.Index(line, titleMarker); i >= 0 {
				title = strings.TrimSpace(line[i+len(titleMarker):])
			}
		}
	}()

	err := cmd.Wait()
	pw.Close()
	<-done

	res := RunResult{Title: title, Duration: time.Since(started)}
	switch {
	case err == nil:
		res.Status = "Success"
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Status = "Timeout"
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Status = fmt.Sprintf("Exit %d", exitErr.ExitCode())
		} else {
			res.Status = "Unexpected error"
		}
	}
	return res
}
