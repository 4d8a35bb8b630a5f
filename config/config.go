package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Topic     TopicConfig     `yaml:"topic"`
	Script    ScriptConfig    `yaml:"script"`
	LLM       LLMConfig       `yaml:"llm"`
	TTS       TTSConfig       `yaml:"tts"`
	Visuals   VisualsConfig   `yaml:"visuals"`
	Video     VideoConfig     `yaml:"video"`
	Sounds    SoundsConfig    `yaml:"sounds"`
	Captions  CaptionsConfig  `yaml:"captions"`
	Overlay   OverlayConfig   `yaml:"overlay"`
	Upload    UploadConfig    `yaml:"upload"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Paths     PathsConfig     `yaml:"paths"`
}

type TopicConfig struct {
	HistoryFile           string   `yaml:"history_file"`
	PromptFile            string   `yaml:"prompt_file"`
	SimilarityThreshold   float64  `yaml:"similarity_threshold"`
	TokenOverlapThreshold int      `yaml:"token_overlap_threshold"`
	MaxAttempts           int      `yaml:"max_attempts"`
	Subreddits            []string `yaml:"subreddits"`
	TrendLookbackDays     int      `yaml:"trend_lookback_days"`
}

type ScriptConfig struct {
	TargetMainSegmentSec  float64 `yaml:"target_main_segment_sec"`
	TargetSegueSegmentSec float64 `yaml:"target_segue_segment_sec"`
	MinSegmentSec         float64 `yaml:"min_segment_sec"`
	MaxSegmentSec         float64 `yaml:"max_segment_sec"`
	MaxTokens             int     `yaml:"max_tokens"`
	Temperature           float64 `yaml:"temperature"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type TTSConfig struct {
	BaseURL  string `yaml:"base_url"`
	Speaker  string `yaml:"speaker"`
	Language string `yaml:"language"`
}

type VisualsConfig struct {
	GenerateURL   string  `yaml:"generate_url"`
	UpscaleURL    string  `yaml:"upscale_url"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Steps         int     `yaml:"steps"`
	GuidanceScale float64 `yaml:"guidance_scale"`
	PollSeconds   int     `yaml:"poll_seconds"`
	PollAttempts  int     `yaml:"poll_attempts"`
}

type VideoConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FPS        int     `yaml:"fps"`
	ZoomFactor float64 `yaml:"zoom_factor"`
}

type SoundsConfig struct {
	APIBase          string   `yaml:"api_base"`
	CuratorUser      string   `yaml:"curator_user"`
	BannedNames      []string `yaml:"banned_names"`
	FallbackKeywords []string `yaml:"fallback_keywords"`
	DefaultMusic     string   `yaml:"default_music"`
	DefaultStinger   string   `yaml:"default_stinger"`
	CacheDir         string   `yaml:"cache_dir"`
	PageSize         int      `yaml:"page_size"`
}

type CaptionsConfig struct {
	WhisperURL         string  `yaml:"whisper_url"`
	Font               string  `yaml:"font"`
	FontSize           int     `yaml:"font_size"`
	Color              string  `yaml:"color"`
	StrokeColor        string  `yaml:"stroke_color"`
	StrokeWidth        int     `yaml:"stroke_width"`
	MaxWordsPerCaption int     `yaml:"max_words_per_caption"`
	BoxWidthFrac       float64 `yaml:"box_width_frac"`
	BottomMarginFrac   float64 `yaml:"bottom_margin_frac"`
}

type OverlayConfig struct {
	StartText     string  `yaml:"start_text"`
	EndText       string  `yaml:"end_text"`
	StartDuration float64 `yaml:"start_duration"`
	EndDuration   float64 `yaml:"end_duration"`
	FontSize      int     `yaml:"font_size"`
	FadeDuration  float64 `yaml:"fade_duration"`
}

type UploadConfig struct {
	YouTubeCategoryID    string `yaml:"youtube_category_id"`
	PublishDelayMinutes  int    `yaml:"publish_delay_minutes"`
	InstagramMediaBase   string `yaml:"instagram_media_base"`
	GraphAPIVersion      string `yaml:"graph_api_version"`
	InstagramPollSeconds int    `yaml:"instagram_poll_seconds"`
	InstagramPollLimit   int    `yaml:"instagram_poll_limit"`
}

type SchedulerConfig struct {
	Mode                  string   `yaml:"mode"` // "interval" or "set_time"
	IntervalMinutes       int      `yaml:"interval_minutes"`
	SetRunTimes           []string `yaml:"set_run_times"`
	JitterMinutes         float64  `yaml:"jitter_minutes"`
	Program               string   `yaml:"program"`
	ProgramArgs           []string `yaml:"program_args"`
	TimeoutSeconds        int      `yaml:"timeout_seconds"`
	FailureAlertThreshold int      `yaml:"failure_alert_threshold"`
	StatusFile            string   `yaml:"status_file"`
	LogFile               string   `yaml:"log_file"`
	EmailEnabled          bool     `yaml:"email_enabled"`
	EmailSubjectPrefix    string   `yaml:"email_subject_prefix"`
}

type PathsConfig struct {
	Output    string `yaml:"output"`
	Scripts   string `yaml:"scripts"`
	Audio     string `yaml:"audio"`
	Visuals   string `yaml:"visuals"`
	Final     string `yaml:"final"`
	Fallbacks string `yaml:"fallbacks"`
}

// Load reads config.yaml, applies defaults and returns a Config struct
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a Config with every default applied, for use by tests
// and by callers that run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Video.Width == 0 {
		c.Video.Width = 1080
	}
	if c.Video.Height == 0 {
		c.Video.Height = 1920
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = 24
	}
	if c.Video.ZoomFactor == 0 {
		c.Video.ZoomFactor = 1.1
	}
	if c.Script.TargetMainSegmentSec == 0 {
		c.Script.TargetMainSegmentSec = 4
	}
	if c.Script.TargetSegueSegmentSec == 0 {
		c.Script.TargetSegueSegmentSec = 2
	}
	if c.Script.MinSegmentSec == 0 {
		c.Script.MinSegmentSec = 3
	}
	if c.Script.MaxSegmentSec == 0 {
		c.Script.MaxSegmentSec = 5
	}
	if c.Script.MaxTokens == 0 {
		c.Script.MaxTokens = 8000
	}
	if c.Script.Temperature == 0 {
		c.Script.Temperature = 0.9
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.3-70b-versatile"
	}
	if c.TTS.Language == "" {
		c.TTS.Language = "en"
	}
	if c.Sounds.APIBase == "" {
		c.Sounds.APIBase = "https://freesound.org/apiv2"
	}
	if c.Sounds.CuratorUser == "" {
		c.Sounds.CuratorUser = "Nancy_Sinclair"
	}
	if len(c.Sounds.BannedNames) == 0 {
		c.Sounds.BannedNames = []string{
			"Upbeat Piano and Trumpet for Joyful Moments",
			"Song Title B",
			"Suspenseful Crime Background",
			"Dramatic Atmosphere",
			"Serene and Melancholic Atmosphere for Discovery",
		}
	}
	if len(c.Sounds.FallbackKeywords) == 0 {
		c.Sounds.FallbackKeywords = []string{"calm", "cinematic", "happy", "uplifting", "emotional"}
	}
	if c.Sounds.CacheDir == "" {
		c.Sounds.CacheDir = "./sounds"
	}
	if c.Sounds.PageSize == 0 {
		c.Sounds.PageSize = 50
	}
	if c.Sounds.DefaultMusic == "" {
		c.Sounds.DefaultMusic = "./fallbacks/default_bg_music.mp3"
	}
	if c.Sounds.DefaultStinger == "" {
		c.Sounds.DefaultStinger = "./fallbacks/default_transition.mp3"
	}
	if c.Captions.Font == "" {
		c.Captions.Font = "Bangers-Regular.ttf"
	}
	if c.Captions.FontSize == 0 {
		c.Captions.FontSize = 85
	}
	if c.Captions.Color == "" {
		c.Captions.Color = "white"
	}
	if c.Captions.StrokeColor == "" {
		c.Captions.StrokeColor = "black"
	}
	if c.Captions.StrokeWidth == 0 {
		c.Captions.StrokeWidth = 1
	}
	if c.Captions.MaxWordsPerCaption == 0 {
		c.Captions.MaxWordsPerCaption = 8
	}
	if c.Captions.BoxWidthFrac == 0 {
		c.Captions.BoxWidthFrac = 0.8
	}
	if c.Captions.BottomMarginFrac == 0 {
		c.Captions.BottomMarginFrac = 0.2
	}
	if c.Topic.SimilarityThreshold == 0 {
		c.Topic.SimilarityThreshold = 0.7
	}
	if c.Topic.TokenOverlapThreshold == 0 {
		c.Topic.TokenOverlapThreshold = 3
	}
	if c.Topic.MaxAttempts == 0 {
		c.Topic.MaxAttempts = 5
	}
	if c.Topic.HistoryFile == "" {
		c.Topic.HistoryFile = "topics_history.json"
	}
	if c.Topic.PromptFile == "" {
		c.Topic.PromptFile = "topic_prompt.txt"
	}
	if c.Visuals.Width == 0 {
		c.Visuals.Width = 864
	}
	if c.Visuals.Height == 0 {
		c.Visuals.Height = 1536
	}
	if c.Visuals.Steps == 0 {
		c.Visuals.Steps = 50
	}
	if c.Visuals.GuidanceScale == 0 {
		c.Visuals.GuidanceScale = 4.5
	}
	if c.Visuals.PollSeconds == 0 {
		c.Visuals.PollSeconds = 5
	}
	if c.Visuals.PollAttempts == 0 {
		c.Visuals.PollAttempts = 60
	}
	if c.Overlay.StartDuration == 0 {
		c.Overlay.StartDuration = 3
	}
	if c.Overlay.EndDuration == 0 {
		c.Overlay.EndDuration = 4
	}
	if c.Overlay.FontSize == 0 {
		c.Overlay.FontSize = 60
	}
	if c.Overlay.FadeDuration == 0 {
		c.Overlay.FadeDuration = 0.5
	}
	if c.Upload.YouTubeCategoryID == "" {
		c.Upload.YouTubeCategoryID = "22"
	}
	if c.Upload.PublishDelayMinutes == 0 {
		c.Upload.PublishDelayMinutes = 10
	}
	if c.Upload.GraphAPIVersion == "" {
		c.Upload.GraphAPIVersion = "v21.0"
	}
	if c.Upload.InstagramPollSeconds == 0 {
		c.Upload.InstagramPollSeconds = 5
	}
	if c.Upload.InstagramPollLimit == 0 {
		c.Upload.InstagramPollLimit = 30
	}
	if c.Scheduler.Mode == "" {
		c.Scheduler.Mode = "interval"
	}
	if c.Scheduler.IntervalMinutes == 0 {
		c.Scheduler.IntervalMinutes = 5
	}
	if c.Scheduler.JitterMinutes == 0 {
		c.Scheduler.JitterMinutes = 5
	}
	if c.Scheduler.Program == "" {
		c.Scheduler.Program = "./shortform-pipeline"
	}
	if c.Scheduler.TimeoutSeconds == 0 {
		c.Scheduler.TimeoutSeconds = 180000
	}
	if c.Scheduler.FailureAlertThreshold == 0 {
		c.Scheduler.FailureAlertThreshold = 3
	}
	if c.Scheduler.StatusFile == "" {
		c.Scheduler.StatusFile = "scheduler_status.json"
	}
	if c.Scheduler.LogFile == "" {
		c.Scheduler.LogFile = "scheduler.log"
	}
	if c.Scheduler.EmailSubjectPrefix == "" {
		c.Scheduler.EmailSubjectPrefix = "[Scheduler Run Report]"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "./output"
	}
	if c.Paths.Scripts == "" {
		c.Paths.Scripts = "./output/video_scripts"
	}
	if c.Paths.Audio == "" {
		c.Paths.Audio = "./output/audio"
	}
	if c.Paths.Visuals == "" {
		c.Paths.Visuals = "./output/visuals"
	}
	if c.Paths.Final == "" {
		c.Paths.Final = "./output/final"
	}
	if c.Paths.Fallbacks == "" {
		c.Paths.Fallbacks = "./fallbacks"
	}
}

// Dirs lists every directory the pipeline expects to exist.
func (c *Config) Dirs() []string {
	return []string{
		c.Paths.Output, c.Paths.Scripts, c.Paths.Audio,
		c.Paths.Visuals, c.Paths.Final, c.Sounds.CacheDir,
	}
}
