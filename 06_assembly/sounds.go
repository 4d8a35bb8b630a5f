package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"shortform-pipeline/config"
)

const cc0License = "http://creativecommons.org/publicdomain/zero/1.0/"

// Fetcher resolves background music and transition stingers through a
// prioritized fallback chain: exact tag match, generic keywords, a
// bundled default asset, and finally synthesized silence. It never
// fails outright; every lookup returns a playable local path plus a
// label describing how it was selected.
type Fetcher struct {
	cfg        config.SoundsConfig
	token      string
	httpClient *http.Client
	banned     map[string]bool
}

// NewFetcher creates a Fetcher. The API token comes from the caller
// rather than being read at import time.
func NewFetcher(cfg config.SoundsConfig, token string) *Fetcher {
	banned := make(map[string]bool, len(cfg.BannedNames))
	for _, name := range cfg.BannedNames {
		banned[name] = true
	}
	return &Fetcher{
		cfg:        cfg,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		banned:     banned,
	}
}

// soundInfo is one result from the remote sound search API.
type soundInfo struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	License  string  `json:"license"`
	Duration float64 `json:"duration"`
	Username string  `json:"username"`
	Previews struct {
		PreviewHQMP3 string `json:"preview-hq-mp3"`
	} `json:"previews"`
}

type searchResponse struct {
	Results []soundInfo `json:"results"`
}

// search queries the remote API. Errors are swallowed: a failed search
// is just an empty result list, and the chain moves on.
func (f *Fetcher) search(ctx context.Context, query, filter string) []soundInfo {
	full := `license:"Creative Commons 0"`
	if filter != "" {
		full = filter + " AND " + full
	}
	params := url.Values{
		"query":     {query},
		"filter":    {full},
		"sort":      {"rating_desc"},
		"fields":    {"id,name,previews,license,duration,username,tags"},
		"token":     {f.token},
		"page_size": {fmt.Sprintf("%d", f.cfg.PageSize)},
	}
	reqURL := f.cfg.APIBase + "/search/text/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		log.Printf("[sounds] search request: %v", err)
		return nil
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Printf("[sounds] search %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("[sounds] search %q: HTTP %d", query, resp.StatusCode)
		return nil
	}
	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		log.Printf("[sounds] search %q: decode: %v", query, err)
		return nil
	}
	time.Sleep(200 * time.Millisecond) // stay under the API rate limit
	return sr.Results
}

// download fetches the preview mp3 for a sound into the cache dir,
// keyed by remote ID. An already-cached file is reused without a
// network round trip. Returns "" when the sound cannot be used.
func (f *Fetcher) download(ctx context.Context, s soundInfo, dest string) string {
	if s.License != cc0License {
		return ""
	}
	if _, err := os.Stat(dest); err == nil {
		return dest
	}
	if s.Previews.PreviewHQMP3 == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, "GET", s.Previews.PreviewHQMP3, nil)
	if err != nil {
		return ""
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Printf("[sounds] download %q: %v", s.Name, err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("[sounds] download %q: HTTP %d", s.Name, resp.StatusCode)
		return ""
	}
	out, err := os.Create(dest)
	if err != nil {
		log.Printf("[sounds] download %q: %v", s.Name, err)
		return ""
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		log.Printf("[sounds] download %q: %v", s.Name, err)
		os.Remove(dest)
		return ""
	}
	return dest
}

// firstUsable filters a result list through the ban list and returns
// the path of the first sound that downloads cleanly.
func (f *Fetcher) firstUsable(ctx context.Context, results []soundInfo, prefix string) (string, string) {
	for _, s := range results {
		if f.banned[s.Name] {
			continue
		}
		dest := filepath.Join(f.cfg.CacheDir, fmt.Sprintf("%s_%d.mp3", prefix, s.ID))
		if got := f.download(ctx, s, dest); got != "" {
			return got, s.Name
		}
	}
	return "", ""
}

// BackgroundMusic resolves music for the given tag and total duration.
// The returned label records which rung of the fallback chain won:
// "exact", "fallback: <keyword>", "default" or "silence".
func (f *Fetcher) BackgroundMusic(ctx context.Context, tag string, totalDuration float64) (string, string) {
	log.Printf("[sounds] Fetching background music for %.1fs (tag: %q)", totalDuration, tag)

	if tag != "" {
		filter := fmt.Sprintf(`username:%q AND category:"Music" AND tag:%q`, f.cfg.CuratorUser, tag)
		if path, name := f.firstUsable(ctx, f.search(ctx, tag, filter), "bg"); path != "" {
			log.Printf("[sounds] Selected %q (exact match)", name)
			return path, "exact"
		}
	}

	for _, kw := range f.cfg.FallbackKeywords {
		filter := fmt.Sprintf(`username:%q AND category:"Music"`, f.cfg.CuratorUser)
		if path, name := f.firstUsable(ctx, f.search(ctx, kw, filter), "bg"); path != "" {
			log.Printf("[sounds] Selected %q (fallback: %s)", name, kw)
			return path, "fallback: " + kw
		}
	}

	if _, err := os.Stat(f.cfg.DefaultMusic); err == nil {
		log.Println("[sounds] Using bundled default background music")
		return f.cfg.DefaultMusic, "default"
	}

	log.Println("[sounds] Synthesizing silence for background")
	silencePath := filepath.Join(f.cfg.CacheDir, "default_silence_bg.wav")
	if err := WriteSilence(silencePath, totalDuration+EndExtension); err != nil {
		log.Printf("[sounds] silence synth: %v", err)
	}
	return silencePath, "silence"
}

// Transition resolves a transition stinger for the given effect tag
// through the same chain: tag search, bundled default, silence.
func (f *Fetcher) Transition(ctx context.Context, effect string) (string, string) {
	query := effect
	if query == "" {
		query = "transition"
	}
	if path, name := f.firstUsable(ctx, f.search(ctx, query, `tag:"transition"`), "tr"); path != "" {
		log.Printf("[sounds] Selected transition %q", name)
		return path, "exact"
	}
	if _, err := os.Stat(f.cfg.DefaultStinger); err == nil {
		log.Println("[sounds] Using bundled default transition sound")
		return f.cfg.DefaultStinger, "default"
	}
	log.Println("[sounds] Synthesizing silence for transition")
	silencePath := filepath.Join(f.cfg.CacheDir, "default_silence_tr.wav")
	if err := WriteSilence(silencePath, StingerMaxLen); err != nil {
		log.Printf("[sounds] silence synth: %v", err)
	}
	return silencePath, "silence"
}
