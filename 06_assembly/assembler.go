package assembly

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// Assembler renders the final video in two passes: first the visual
// track with narration and transition audio mixed additively, then the
// background-music bed underneath the result.
type Assembler struct {
	cfg     *config.Config
	fetcher *Fetcher
	probe   Prober
}

func New(cfg *config.Config, fetcher *Fetcher) *Assembler {
	return &Assembler{cfg: cfg, fetcher: fetcher, probe: MediaDuration}
}

// Run composes the raw and final videos for the script document and
// records their paths back into it.
func (a *Assembler) Run(ctx context.Context, script *types.Script, scriptPath string) error {
	tl, err := BuildTimeline(script, a.probe)
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
	if err := os.MkdirAll(a.cfg.Paths.Final, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	rawPath := filepath.Join(a.cfg.Paths.Final, stem+"_raw.mp4")
	finalPath := filepath.Join(a.cfg.Paths.Final, stem+".mp4")

	workDir, err := os.MkdirTemp("", "assembly_")
	if err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	log.Printf("[assembly] timeline: %d clips, %d narrations, %d stingers, %.2fs total",
		len(tl.Visuals), len(tl.Narrations), len(tl.Stingers), tl.Total)

	concatVideo, err := a.renderVisualTrack(tl, workDir)
	if err != nil {
		return err
	}

	if err := a.renderRaw(ctx, script, tl, concatVideo, rawPath); err != nil {
		return err
	}
	script.RawVideo = rawPath

	if err := a.addBackgroundMusic(ctx, script, rawPath, finalPath); err != nil {
		return err
	}
	script.FinalVideo = finalPath

	if err := script.Save(scriptPath); err != nil {
		return fmt.Errorf("saving script document: %w", err)
	}
	log.Printf("[assembly] final video ready: %s", finalPath)
	return nil
}

// renderVisualTrack renders every clip with a slow zoom, then joins
// them with the concat demuxer.
func (a *Assembler) renderVisualTrack(tl *Timeline, workDir string) (string, error) {
	w, h := a.cfg.Video.Width, a.cfg.Video.Height
	fps := a.cfg.Video.FPS

	var listLines []string
	for i, clip := range tl.Visuals {
		out := filepath.Join(workDir, fmt.Sprintf("clip_%03d.mp4", i))
		if err := a.renderClip(clip, out, w, h, fps); err != nil {
			return "", fmt.Errorf("rendering clip %d: %w", i, err)
		}
		listLines = append(listLines, fmt.Sprintf("file '%s'", out))
	}

	listFile := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(listFile, []byte(strings.Join(listLines, "\n")+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("writing concat list: %w", err)
	}

	concatOut := filepath.Join(workDir, "visual.mp4")
	err := ffmpeg.Input(listFile, ffmpeg.KwArgs{"f": "concat", "safe": 0}).
		Output(concatOut, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().Run()
	if err != nil {
		return "", fmt.Errorf("concatenating clips: %w", err)
	}
	return concatOut, nil
}

// renderClip turns a still image into a video segment with a linear
// zoom from 1.0 to the configured maximum, holding at the maximum for
// any remaining frames, plus a short tail fade.
func (a *Assembler) renderClip(clip VisualClip, out string, w, h, fps int) error {
	frames := int(clip.Duration * float64(fps))
	if frames < 1 {
		frames = 1
	}
	maxZoom := a.cfg.Video.ZoomFactor
	step := (maxZoom - 1.0) / float64(frames)

	// Upscale before zoompan so the pan sampling does not jitter.
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,"+
			"zoompan=z='min(zoom+%.6f,%.3f)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d,"+
			"fade=t=out:st=%.3f:d=%.2f",
		w*2, h*2, w*2, h*2,
		step, maxZoom, frames, w, h, fps,
		clip.Duration-ClipTailFade, ClipTailFade,
	)

	return ffmpeg.Input(clip.ImagePath, ffmpeg.KwArgs{"loop": 1, "framerate": fps}).
		Output(out, ffmpeg.KwArgs{
			"vf":      filter,
			"t":       fmt.Sprintf("%.3f", clip.Duration),
			"c:v":     "libx264",
			"pix_fmt": "yuv420p",
			"an":      "",
		}).
		OverWriteOutput().Run()
}

// renderRaw mixes narration and stinger audio over the concatenated
// visual track. Every audio element is delayed to its absolute start
// and the tracks are summed without normalization so narration volume
// stays constant regardless of how many stingers fire.
func (a *Assembler) renderRaw(ctx context.Context, script *types.Script, tl *Timeline, concatVideo, rawPath string) error {
	transitionVolume := script.Settings.TransitionVolume
	if transitionVolume == 0 {
		transitionVolume = 0.05
	}
	audioEnd := tl.AudioEnd

	streams := []*ffmpeg.Stream{ffmpeg.Input(concatVideo)}
	var filters []string
	var labels []string
	idx := 1

	for _, n := range tl.Narrations {
		streams = append(streams, ffmpeg.Input(n.Path))
		ms := int(n.Start * 1000)
		filters = append(filters, fmt.Sprintf("[%d:a]adelay=%d|%d[a%d]", idx, ms, ms, idx))
		labels = append(labels, fmt.Sprintf("[a%d]", idx))
		idx++
	}

	for _, st := range tl.Stingers {
		path, source := a.fetcher.Transition(ctx, st.Effect)
		dur, err := a.probe(path)
		if err != nil {
			log.Printf("[assembly] skipping stinger %q: %v", st.Effect, err)
			continue
		}
		trimLen := dur
		if trimLen > StingerMaxLen {
			trimLen = StingerMaxLen
		}
		fadeStart := trimLen - StingerFadeOut
		if fadeStart < 0 {
			fadeStart = 0
		}
		if end := st.Start + trimLen; end > audioEnd {
			audioEnd = end
		}
		log.Printf("[assembly] stinger %q at %.2fs (%s)", st.Effect, st.Start, source)

		streams = append(streams, ffmpeg.Input(path))
		ms := int(st.Start * 1000)
		filters = append(filters, fmt.Sprintf(
			"[%d:a]atrim=0:%.3f,volume=%.2f,afade=t=out:st=%.3f:d=%.2f,adelay=%d|%d[a%d]",
			idx, trimLen, transitionVolume, fadeStart, StingerFadeOut, ms, ms, idx))
		labels = append(labels, fmt.Sprintf("[a%d]", idx))
		idx++
	}

	total := tl.VisualEnd
	if end := audioEnd + EndExtension; end > total {
		total = end
	}
	tl.AudioEnd = audioEnd
	tl.Total = total

	if len(labels) == 0 {
		// Nothing to mix; promote the silent visual track directly.
		return ffmpeg.Input(concatVideo).
			Output(rawPath, ffmpeg.KwArgs{"c": "copy", "t": fmt.Sprintf("%.3f", total)}).
			OverWriteOutput().Run()
	}

	filterComplex := strings.Join(filters, ";") + ";" +
		strings.Join(labels, "") +
		fmt.Sprintf("amix=inputs=%d:duration=longest:normalize=0[mix];[mix]apad[aout]", len(labels))

	err := ffmpeg.Output(streams, rawPath, ffmpeg.KwArgs{
		"filter_complex": filterComplex,
		"map":            []string{"0:v", "[aout]"},
		"c:v":            "copy",
		"c:a":            "aac",
		"b:a":            "192k",
		"t":              fmt.Sprintf("%.3f", total),
		"movflags":       "+faststart",
	}).OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("mixing raw video: %w", err)
	}
	return nil
}

// musicMixFilter builds the pass-2 filter graph. The narration track
// is padded out to the bed duration so the mix runs the full bed: the
// tail extension and the entire fade-out are audible, not cut at the
// raw duration.
func musicMixFilter(bedDuration, volume float64) string {
	return fmt.Sprintf(
		"[0:a]apad=whole_dur=%.3f[na];"+
			"[1:a]atrim=0:%.3f,volume=%.3f,afade=t=in:st=0:d=%.2f,afade=t=out:st=%.3f:d=%.2f[bg];"+
			"[na][bg]amix=inputs=2:duration=longest:normalize=0[aout];"+
			"[0:v]tpad=stop_mode=clone:stop_duration=%.2f[vout]",
		bedDuration,
		bedDuration, volume, FadeInDuration, bedDuration-FadeOutDuration, FadeOutDuration,
		EndExtension)
}

// addBackgroundMusic lays a looped, faded music bed under the raw
// video. When the document disables background music the raw file is
// promoted to the final path unchanged.
func (a *Assembler) addBackgroundMusic(ctx context.Context, script *types.Script, rawPath, finalPath string) error {
	if !script.Settings.UseBackgroundMusic {
		log.Printf("[assembly] background music disabled")
		return os.Rename(rawPath, finalPath)
	}

	rawDur, err := a.probe(rawPath)
	if err != nil {
		return fmt.Errorf("probing raw video: %w", err)
	}
	bedDuration := rawDur + EndExtension

	musicPath, source := a.fetcher.BackgroundMusic(ctx, script.BackgroundMusicType, bedDuration)
	log.Printf("[assembly] background music: %s (%s)", filepath.Base(musicPath), source)

	musicDur, err := a.probe(musicPath)
	if err != nil {
		return fmt.Errorf("probing background music: %w", err)
	}

	volume := script.Settings.BGMusicVolume
	if volume == 0 {
		volume = 0.09
	}

	musicInput := ffmpeg.Input(musicPath)
	if musicDur < bedDuration {
		loops := int(bedDuration/musicDur) + 2
		musicInput = ffmpeg.Input(musicPath, ffmpeg.KwArgs{"stream_loop": loops})
	}

	err = ffmpeg.Output(
		[]*ffmpeg.Stream{ffmpeg.Input(rawPath), musicInput},
		finalPath,
		ffmpeg.KwArgs{
			"filter_complex": musicMixFilter(bedDuration, volume),
			"map":            []string{"[vout]", "[aout]"},
			"c:v":            "libx264",
			"pix_fmt":        "yuv420p",
			"c:a":            "aac",
			"b:a":            "192k",
			"movflags":       "+faststart",
		}).OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("mixing background music: %w", err)
	}
	return nil
}
