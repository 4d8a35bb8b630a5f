package visuals

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"time"
)

// Upscaler sends rendered frames through the self-hosted upscale
// service, which returns the enlarged image bytes directly.
type Upscaler struct {
	url        string
	httpClient *http.Client
}

func NewUpscaler(url string) *Upscaler {
	return &Upscaler{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Enabled reports whether an upscale service is configured at all.
func (u *Upscaler) Enabled() bool { return u.url != "" }

// Upscale replaces the image at path with its upscaled version. The
// original is kept when anything goes wrong; upscaling is quality
// polish, not a pipeline dependency.
func (u *Upscaler) Upscale(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer mw.Close()

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(path)))
		h.Set("Content-Type", "image/png")
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

	req, err := http.NewRequestWithContext(ctx, "POST", u.url, pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		// Unblock the writer goroutine; the pipe has no buffer.
		pr.CloseWithError(err)
		return fmt.Errorf("upscale request: %w", err)
	}
	defer resp.Body.Close()
	if werr := <-errCh; werr != nil {
		return fmt.Errorf("uploading image: %w", werr)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upscale service: HTTP %d", resp.StatusCode)
	}

	tmp := path + ".up"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, resp.Body)
	out.Close()
	if err != nil || n < 100 {
		os.Remove(tmp)
		if err == nil {
			err = fmt.Errorf("upscaled image suspiciously small (%d bytes)", n)
		}
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	log.Printf("[visuals] upscaled %s", filepath.Base(path))
	return nil
}
