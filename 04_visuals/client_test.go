package visuals

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"shortform-pipeline/config"
)

var fakePNG = strings.Repeat("not-really-png-bytes", 10)

func testVisualsConfig(url string) config.VisualsConfig {
	cfg := config.Default().Visuals
	cfg.GenerateURL = url
	cfg.PollSeconds = 0 // poll immediately in tests
	cfg.PollAttempts = 5
	return cfg
}

func TestGenerateSynchronous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Prompt != "a fox" {
			t.Errorf("prompt = %q, want %q", req.Prompt, "a fox")
		}
		json.NewEncoder(w).Encode(generateResponse{
			Image: base64.StdEncoding.EncodeToString([]byte(fakePNG)),
		})
	}))
	defer srv.Close()

	c := NewImageClient(testVisualsConfig(srv.URL))
	out := filepath.Join(t.TempDir(), "img.png")
	if err := c.Generate(context.Background(), "a fox", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != fakePNG {
		t.Error("written image does not match the generated bytes")
	}
}

func TestGeneratePollingJob(t *testing.T) {
	polls := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST":
			json.NewEncoder(w).Encode(generateResponse{JobID: "job-1"})
		case strings.HasSuffix(r.URL.Path, "/job-1"):
			polls++
			if polls < 3 {
				json.NewEncoder(w).Encode(generateResponse{Status: "pending"})
				return
			}
			json.NewEncoder(w).Encode(generateResponse{
				Status: "done",
				Image:  base64.StdEncoding.EncodeToString([]byte(fakePNG)),
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewImageClient(testVisualsConfig(srv.URL))
	out := filepath.Join(t.TempDir(), "img.png")
	if err := c.Generate(context.Background(), "a fox", out); err != nil {
		t.Fatal(err)
	}
	if polls != 3 {
		t.Errorf("polled %d times, want 3", polls)
	}
}

func TestGenerateJobFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			json.NewEncoder(w).Encode(generateResponse{JobID: "job-2"})
			return
		}
		json.NewEncoder(w).Encode(generateResponse{Status: "failed", Error: "out of memory"})
	}))
	defer srv.Close()

	c := NewImageClient(testVisualsConfig(srv.URL))
	out := filepath.Join(t.TempDir(), "img.png")
	err := c.Generate(context.Background(), "a fox", out)
	if err == nil {
		t.Fatal("expected error from failed job")
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("error %q should carry the service message", err)
	}
}

func TestGenerateRejectsTinyImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{
			Image: base64.StdEncoding.EncodeToString([]byte("tiny")),
		})
	}))
	defer srv.Close()

	c := NewImageClient(testVisualsConfig(srv.URL))
	out := filepath.Join(t.TempDir(), "img.png")
	if err := c.Generate(context.Background(), "a fox", out); err == nil {
		t.Fatal("expected error for undersized image payload")
	}
}

func TestUpscaleReplacesFile(t *testing.T) {
	upscaled := strings.Repeat("bigger-image-bytes!", 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not a multipart request: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Write([]byte(upscaled))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, []byte(fakePNG), 0o644); err != nil {
		t.Fatal(err)
	}
	u := NewUpscaler(srv.URL)
	if err := u.Upscale(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != upscaled {
		t.Error("file was not replaced with the upscaled bytes")
	}
}

func TestUpscaleKeepsOriginalOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, []byte(fakePNG), 0o644); err != nil {
		t.Fatal(err)
	}
	u := NewUpscaler(srv.URL)
	if err := u.Upscale(context.Background(), path); err == nil {
		t.Fatal("expected error from failing service")
	}
	data, _ := os.ReadFile(path)
	if string(data) != fakePNG {
		t.Error("original image should be untouched after a failed upscale")
	}
}

func TestUpscaleUnreachableServiceReleasesUploader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, []byte(fakePNG), 0o644); err != nil {
		t.Fatal(err)
	}

	// Nothing listens on this port, so the request fails before the
	// multipart body is ever read.
	u := NewUpscaler("http://127.0.0.1:1")
	before := runtime.NumGoroutine()
	if err := u.Upscale(context.Background(), path); err == nil {
		t.Fatal("expected error from unreachable service")
	}

	// The body-writing goroutine must not stay blocked on the pipe.
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if g := runtime.NumGoroutine(); g > before {
		t.Errorf("%d goroutines still running, started with %d", g, before)
	}
}
