package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	topic "shortform-pipeline/01_topic"
	script "shortform-pipeline/02_script"
	social "shortform-pipeline/03_social"
	visuals "shortform-pipeline/04_visuals"
	audio "shortform-pipeline/05_audio"
	assembly "shortform-pipeline/06_assembly"
	captions "shortform-pipeline/07_captions"
	overlay "shortform-pipeline/08_overlay"
	upload "shortform-pipeline/09_upload"
	"shortform-pipeline/config"
	"shortform-pipeline/llm"
	"shortform-pipeline/notify"
	"shortform-pipeline/types"
)

func main() {
	// .env is for local dev; deployed runs get real environment vars.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	scriptFlag := flag.String("script", "", "resume from an existing script document instead of generating one")
	noUpload := flag.Bool("no-upload", false, "stop after rendering, skip all uploads")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("[pipeline] %s not found, using defaults", *configPath)
		cfg = config.Default()
	}
	for _, dir := range cfg.Dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	ctx := context.Background()
	client := llm.New(cfg.LLM)
	mailer := notify.NewFromEnv()

	var doc *types.Script
	var docPath string

	if *scriptFlag != "" {
		log.Printf("[pipeline] Resuming from %s", *scriptFlag)
		doc, err = types.Load(*scriptFlag)
		if err != nil {
			log.Fatalf("Failed to load script document: %v", err)
		}
		docPath = *scriptFlag
	} else {
		log.Println("━━━ STAGE 1: Topic ━━━")
		planner := topic.NewPlanner(cfg, client)
		plan, err := planner.Run(ctx)
		if err != nil {
			log.Fatalf("Stage 1 Topic: %v", err)
		}

		log.Println("━━━ STAGE 2: Script ━━━")
		writer := script.New(cfg, client)
		doc, docPath, err = writer.Run(ctx, plan)
		if err != nil {
			log.Fatalf("Stage 2 Script: %v", err)
		}
	}

	// A document with a rendered final video has been through the
	// pipeline already; re-running it would re-upload the same video.
	if doc.FinalVideo != "" {
		if _, err := os.Stat(doc.FinalVideo); err == nil {
			log.Fatalf("Final video already exists for this document (%s) — refusing to reprocess", doc.FinalVideo)
		}
	}

	log.Println("━━━ STAGE 3: Enrichment ━━━")
	enricher := social.New(cfg, client)
	if err := enricher.Run(ctx, doc, docPath); err != nil {
		log.Fatalf("Stage 3 Enrichment: %v", err)
	}

	log.Println("━━━ STAGE 4: Visuals ━━━")
	fetcher := visuals.New(cfg)
	if err := fetcher.Run(ctx, doc, docPath); err != nil {
		log.Fatalf("Stage 4 Visuals: %v", err)
	}

	log.Println("━━━ STAGE 5: Audio ━━━")
	tts := audio.New(cfg)
	if err := tts.Run(ctx, doc, docPath); err != nil {
		log.Fatalf("Stage 5 Audio: %v", err)
	}

	log.Println("━━━ STAGE 6: Assembly ━━━")
	sounds := assembly.NewFetcher(cfg.Sounds, os.Getenv("FREESOUND_API_KEY"))
	asm := assembly.New(cfg, sounds)
	if err := asm.Run(ctx, doc, docPath); err != nil {
		log.Fatalf("Stage 6 Assembly: %v", err)
	}
	if _, err := os.Stat(doc.FinalVideo); err != nil {
		log.Fatalf("Stage 6 Assembly reported success but final video is missing: %v", err)
	}

	log.Println("━━━ STAGE 7: Captions ━━━")
	capGen := captions.New(cfg)
	if err := capGen.Run(ctx, doc, docPath); err != nil {
		log.Printf("Stage 7 Captions failed: %v — continuing without captions", err)
		doc.CaptionsVideo = doc.FinalVideo
	}

	log.Println("━━━ STAGE 8: Overlay ━━━")
	ov := overlay.New(cfg)
	if err := ov.Run(ctx, doc, docPath); err != nil {
		log.Printf("Stage 8 Overlay failed: %v — continuing without overlays", err)
	}

	log.Println("━━━ STAGE 9: Thumbnails ━━━")
	if err := fetcher.Thumbnails(ctx, doc, docPath); err != nil {
		log.Printf("Stage 9 Thumbnails failed: %v — continuing without thumbnails", err)
	}

	title := doc.Topic
	if doc.SocialMedia != nil && doc.SocialMedia.Title != "" {
		title = doc.SocialMedia.Title
	}
	// The scheduler scrapes this line for its status file.
	log.Printf("[pipeline] Title: %s", title)

	if *noUpload {
		log.Printf("[pipeline] Upload skipped (-no-upload). Video: %s", doc.CaptionsVideo)
		return
	}

	log.Println("━━━ STAGE 10: Upload ━━━")
	manager := upload.New(cfg)
	report := manager.Run(ctx, doc, docPath)
	for _, line := range report {
		log.Printf("[pipeline] %s", line)
	}

	// Synchronous: the process exits right after, and an async send
	// would be killed mid-dial.
	if err := mailer.Send(
		fmt.Sprintf("[Pipeline] %s", title),
		fmt.Sprintf("Video pipeline finished.\n\nTitle: %s\nDocument: %s\n\nUpload report:\n%s\n",
			title, docPath, strings.Join(report, "\n"))); err != nil {
		log.Printf("[pipeline] report email: %v", err)
	}

	log.Printf("[pipeline] Done. %s", doc.YouTubeURL)
}
