package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// TranscribedSegment is one phrase from the transcription service, with
// absolute start and end times in seconds.
type TranscribedSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type transcriptResponse struct {
	Segments []TranscribedSegment `json:"segments"`
}

// Transcriber turns a video's audio into timed segments. The HTTP
// implementation is replaced in tests.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string) ([]TranscribedSegment, error)
}

// WhisperClient transcribes through a self-hosted Whisper HTTP service.
type WhisperClient struct {
	URL        string
	HTTPClient *http.Client
}

func NewWhisperClient(url string) *WhisperClient {
	return &WhisperClient{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Transcribe extracts the audio track to a temporary mp3 and uploads it
// as a multipart form.
func (c *WhisperClient) Transcribe(ctx context.Context, videoPath string) ([]TranscribedSegment, error) {
	audioPath, err := extractAudio(videoPath)
	if err != nil {
		return nil, err
	}
	defer os.Remove(audioPath)

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open extracted audio: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer mw.Close()

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(audioPath)))
		h.Set("Content-Type", "audio/mp3")
		part, err := mw.CreatePart(h)
		if err != nil {
			errCh <- err
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", c.URL, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log.Printf("[captions] Transcribing %s...", filepath.Base(videoPath))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Unblock the writer goroutine; the pipe has no buffer.
		pr.CloseWithError(err)
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()
	if werr := <-errCh; werr != nil {
		return nil, fmt.Errorf("uploading audio: %w", werr)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("transcription service: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	log.Printf("[captions] Transcription returned %d segments", len(tr.Segments))
	return tr.Segments, nil
}

// extractAudio pulls the audio track from a video into a temp mp3.
func extractAudio(videoPath string) (string, error) {
	out := filepath.Join(os.TempDir(), fmt.Sprintf("captions_audio_%d.mp3", time.Now().UnixNano()))
	err := ffmpeg.Input(videoPath).
		Output(out, ffmpeg.KwArgs{"vn": "", "acodec": "libmp3lame", "q:a": 2}).
		OverWriteOutput().Run()
	if err != nil {
		return "", fmt.Errorf("extracting audio: %w", err)
	}
	return out, nil
}
