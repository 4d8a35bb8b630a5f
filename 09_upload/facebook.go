package upload

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
	"time"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// FacebookUploader posts the video to a Facebook page through the
// Graph API.
type FacebookUploader struct {
	cfg        *config.Config
	httpClient *http.Client
}

func NewFacebook(cfg *config.Config) *FacebookUploader {
	return &FacebookUploader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Minute},
	}
}

type graphResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the video file with the social description and returns
// the created post id.
func (u *FacebookUploader) Upload(ctx context.Context, videoFile string, script *types.Script) (string, error) {
	pageID := os.Getenv("FB_PAGE_ID")
	token := os.Getenv("FB_PAGE_TOKEN")
	if pageID == "" || token == "" {
		return "", fmt.Errorf("FB_PAGE_ID or FB_PAGE_TOKEN not set")
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer mw.Close()

		if err := mw.WriteField("access_token", token); err != nil {
			errCh <- err
			return
		}
		description := script.Topic
		if script.SocialMedia != nil {
			description = script.SocialMedia.Description
		}
		if err := mw.WriteField("description", description); err != nil {
			errCh <- err
			return
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="source"; filename="%s"`, filepath.Base(videoFile)))
		h.Set("Content-Type", "video/mp4")
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

	url := fmt.Sprintf("https://graph-video.facebook.com/%s/%s/videos", u.cfg.Upload.GraphAPIVersion, pageID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log.Println("[upload] Uploading to Facebook page...")
	resp, err := u.httpClient.Do(req)
	if err != nil {
		// Unblock the writer goroutine; the pipe has no buffer.
		pr.CloseWithError(err)
		return "", fmt.Errorf("facebook request: %w", err)
	}
	defer resp.Body.Close()
	if werr := <-errCh; werr != nil {
		return "", fmt.Errorf("uploading video: %w", werr)
	}

	var gr graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decoding facebook response: %w", err)
	}
	if gr.Error != nil {
		return "", fmt.Errorf("facebook: %s", gr.Error.Message)
	}
	if gr.ID == "" {
		return "", fmt.Errorf("facebook returned no post id (HTTP %d)", resp.StatusCode)
	}
	log.Printf("[upload] Facebook post created: %s", gr.ID)
	return gr.ID, nil
}
