package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsComplete(t *testing.T) {
	cfg := Default()

	if cfg.Video.Width != 1080 || cfg.Video.Height != 1920 {
		t.Errorf("video size = %dx%d, want 1080x1920", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Video.FPS != 24 {
		t.Errorf("fps = %d, want 24", cfg.Video.FPS)
	}
	if cfg.Captions.MaxWordsPerCaption != 8 {
		t.Errorf("max words = %d, want 8", cfg.Captions.MaxWordsPerCaption)
	}
	if cfg.Captions.BoxWidthFrac != 0.8 || cfg.Captions.BottomMarginFrac != 0.2 {
		t.Errorf("caption box fractions = %v/%v, want 0.8/0.2",
			cfg.Captions.BoxWidthFrac, cfg.Captions.BottomMarginFrac)
	}
	if len(cfg.Sounds.FallbackKeywords) == 0 {
		t.Error("no fallback music keywords")
	}
	if len(cfg.Sounds.BannedNames) == 0 {
		t.Error("ban list empty by default, banned tracks would be selectable")
	}
	if cfg.Scheduler.Mode != "interval" || cfg.Scheduler.IntervalMinutes != 5 {
		t.Errorf("scheduler defaults = %s/%d", cfg.Scheduler.Mode, cfg.Scheduler.IntervalMinutes)
	}
	for _, dir := range cfg.Dirs() {
		if dir == "" {
			t.Error("Dirs() contains an empty path")
		}
	}
}

func TestLoadOverridesAndFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
video:
  width: 720
  height: 1280
sounds:
  curator_user: someone_else
  banned_names:
    - Bad Track
scheduler:
  mode: set_time
  set_run_times: ["17:15"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Video.Width != 720 || cfg.Video.Height != 1280 {
		t.Errorf("video size not overridden: %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Sounds.CuratorUser != "someone_else" {
		t.Errorf("curator = %q", cfg.Sounds.CuratorUser)
	}
	if len(cfg.Sounds.BannedNames) != 1 || cfg.Sounds.BannedNames[0] != "Bad Track" {
		t.Errorf("banned names = %v", cfg.Sounds.BannedNames)
	}
	if cfg.Scheduler.Mode != "set_time" || len(cfg.Scheduler.SetRunTimes) != 1 {
		t.Errorf("scheduler mode not overridden: %+v", cfg.Scheduler)
	}

	// Unset fields still get defaults.
	if cfg.Video.FPS != 24 {
		t.Errorf("fps default missing: %d", cfg.Video.FPS)
	}
	if cfg.Captions.FontSize != 85 {
		t.Errorf("caption font size default missing: %d", cfg.Captions.FontSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("video: [not: a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
