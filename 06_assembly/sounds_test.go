package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortform-pipeline/config"
)

// fakeSoundAPI serves a search endpoint whose results depend on the
// query, plus a preview download endpoint.
func fakeSoundAPI(t *testing.T, resultsFor map[string][]soundInfo) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/text/"):
			q := r.URL.Query().Get("query")
			results := resultsFor[q]
			for i := range results {
				if results[i].Previews.PreviewHQMP3 == "" {
					results[i].Previews.PreviewHQMP3 = srv.URL + fmt.Sprintf("/preview/%d.mp3", results[i].ID)
				}
			}
			json.NewEncoder(w).Encode(searchResponse{Results: results})
		case strings.HasPrefix(r.URL.Path, "/preview/"):
			w.Write([]byte("mp3-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSoundsConfig(t *testing.T, apiBase string) config.SoundsConfig {
	t.Helper()
	return config.SoundsConfig{
		APIBase:          apiBase,
		CuratorUser:      "Nancy_Sinclair",
		FallbackKeywords: []string{"calm", "cinematic"},
		CacheDir:         t.TempDir(),
		PageSize:         5,
	}
}

func TestBackgroundMusicExactMatch(t *testing.T) {
	srv := fakeSoundAPI(t, map[string][]soundInfo{
		"suspense": {{ID: 7, Name: "Dark Suspense", License: cc0License}},
	})
	f := NewFetcher(testSoundsConfig(t, srv.URL), "tok")

	path, label := f.BackgroundMusic(context.Background(), "suspense", 30)
	if label != "exact" {
		t.Fatalf("label = %q, want %q", label, "exact")
	}
	if filepath.Base(path) != "bg_7.mp3" {
		t.Errorf("path = %q, want bg_7.mp3", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
}

func TestBackgroundMusicBanListSkips(t *testing.T) {
	srv := fakeSoundAPI(t, map[string][]soundInfo{
		"suspense": {
			{ID: 1, Name: "Banned Track", License: cc0License},
			{ID: 2, Name: "Good Track", License: cc0License},
		},
	})
	cfg := testSoundsConfig(t, srv.URL)
	cfg.BannedNames = []string{"Banned Track"}
	f := NewFetcher(cfg, "tok")

	path, _ := f.BackgroundMusic(context.Background(), "suspense", 30)
	if filepath.Base(path) != "bg_2.mp3" {
		t.Errorf("path = %q, want the non-banned bg_2.mp3", path)
	}
}

func TestBackgroundMusicRejectsWrongLicense(t *testing.T) {
	srv := fakeSoundAPI(t, map[string][]soundInfo{
		"suspense": {{ID: 3, Name: "CC-BY Track", License: "http://creativecommons.org/licenses/by/4.0/"}},
		"calm":     {{ID: 4, Name: "Calm Track", License: cc0License}},
	})
	f := NewFetcher(testSoundsConfig(t, srv.URL), "tok")

	path, label := f.BackgroundMusic(context.Background(), "suspense", 30)
	if label != "fallback: calm" {
		t.Fatalf("label = %q, want %q", label, "fallback: calm")
	}
	if filepath.Base(path) != "bg_4.mp3" {
		t.Errorf("path = %q, want bg_4.mp3", path)
	}
}

func TestBackgroundMusicFallbackKeyword(t *testing.T) {
	srv := fakeSoundAPI(t, map[string][]soundInfo{
		"cinematic": {{ID: 9, Name: "Epic Bed", License: cc0License}},
	})
	f := NewFetcher(testSoundsConfig(t, srv.URL), "tok")

	_, label := f.BackgroundMusic(context.Background(), "nomatch", 30)
	if label != "fallback: cinematic" {
		t.Errorf("label = %q, want %q", label, "fallback: cinematic")
	}
}

func TestBackgroundMusicDefaultAsset(t *testing.T) {
	srv := fakeSoundAPI(t, nil)
	cfg := testSoundsConfig(t, srv.URL)
	cfg.DefaultMusic = filepath.Join(t.TempDir(), "default.mp3")
	if err := os.WriteFile(cfg.DefaultMusic, []byte("mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(cfg, "tok")

	path, label := f.BackgroundMusic(context.Background(), "anything", 30)
	if label != "default" {
		t.Fatalf("label = %q, want %q", label, "default")
	}
	if path != cfg.DefaultMusic {
		t.Errorf("path = %q, want %q", path, cfg.DefaultMusic)
	}
}

func TestBackgroundMusicSilenceLastResort(t *testing.T) {
	srv := fakeSoundAPI(t, nil)
	f := NewFetcher(testSoundsConfig(t, srv.URL), "tok")

	path, label := f.BackgroundMusic(context.Background(), "anything", 10)
	if label != "silence" {
		t.Fatalf("label = %q, want %q", label, "silence")
	}
	dur, err := MediaDuration(path)
	if err != nil {
		// ffprobe may not be installed in the test environment; parse
		// the WAV header directly instead.
		dur = wavDuration(t, path)
	}
	if dur < 10.4 || dur > 10.6 {
		t.Errorf("silence duration = %v, want ~10.5", dur)
	}
}

func TestTransitionSilenceLastResort(t *testing.T) {
	srv := fakeSoundAPI(t, nil)
	f := NewFetcher(testSoundsConfig(t, srv.URL), "tok")

	path, label := f.Transition(context.Background(), "whoosh")
	if label != "silence" {
		t.Fatalf("label = %q, want %q", label, "silence")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("silence file missing: %v", err)
	}
}

func TestBackgroundMusicAPIDown(t *testing.T) {
	// Nothing listening at the API base at all.
	cfg := testSoundsConfig(t, "http://127.0.0.1:1")
	f := NewFetcher(cfg, "tok")

	path, label := f.BackgroundMusic(context.Background(), "suspense", 5)
	if label != "silence" {
		t.Fatalf("label = %q, want %q", label, "silence")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("silence file missing: %v", err)
	}
}
