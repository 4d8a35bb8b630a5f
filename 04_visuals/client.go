package visuals

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"shortform-pipeline/config"
)

// ImageClient talks to the self-hosted image generation service. The
// service answers either synchronously with the image, or with a job
// id to poll.
type ImageClient struct {
	cfg        config.VisualsConfig
	httpClient *http.Client
}

func NewImageClient(cfg config.VisualsConfig) *ImageClient {
	return &ImageClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

type generateRequest struct {
	Prompt        string  `json:"prompt"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Steps         int     `json:"steps"`
	GuidanceScale float64 `json:"guidance_scale"`
}

type generateResponse struct {
	Image  string `json:"image,omitempty"`  // base64, synchronous path
	JobID  string `json:"job_id,omitempty"` // asynchronous path
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Generate renders one image and writes it to outFile, retrying
// transient failures.
func (c *ImageClient) Generate(ctx context.Context, prompt, outFile string) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = c.generateOnce(ctx, prompt, outFile)
		if err == nil {
			return nil
		}
		log.Printf("[visuals] attempt %d: %v", attempt, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 3 * time.Second):
		}
	}
	return fmt.Errorf("image generation failed after 3 attempts: %w", err)
}

func (c *ImageClient) generateOnce(ctx context.Context, prompt, outFile string) error {
	reqBody, err := json.Marshal(generateRequest{
		Prompt:        prompt,
		Width:         c.cfg.Width,
		Height:        c.cfg.Height,
		Steps:         c.cfg.Steps,
		GuidanceScale: c.cfg.GuidanceScale,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.GenerateURL, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("image service: HTTP %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return fmt.Errorf("decoding generate response: %w", err)
	}
	if gr.Error != "" {
		return fmt.Errorf("image service: %s", gr.Error)
	}

	if gr.Image != "" {
		return writeBase64Image(gr.Image, outFile)
	}
	if gr.JobID != "" {
		return c.pollJob(ctx, gr.JobID, outFile)
	}
	return fmt.Errorf("image service returned neither image nor job id")
}

// pollJob waits for an asynchronous render to finish.
func (c *ImageClient) pollJob(ctx context.Context, jobID, outFile string) error {
	interval := time.Duration(c.cfg.PollSeconds) * time.Second
	for attempt := 0; attempt < c.cfg.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.GenerateURL+"/"+jobID, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("poll request: %w", err)
		}
		var gr generateResponse
		decErr := json.NewDecoder(resp.Body).Decode(&gr)
		resp.Body.Close()
		if decErr != nil {
			return fmt.Errorf("decoding poll response: %w", decErr)
		}

		switch gr.Status {
		case "done":
			if gr.Image == "" {
				return fmt.Errorf("job %s done without image", jobID)
			}
			return writeBase64Image(gr.Image, outFile)
		case "failed":
			return fmt.Errorf("job %s failed: %s", jobID, gr.Error)
		}
	}
	return fmt.Errorf("job %s did not finish in %d polls", jobID, c.cfg.PollAttempts)
}

func writeBase64Image(data, outFile string) error {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("decoding image data: %w", err)
	}
	if len(raw) < 100 {
		return fmt.Errorf("image suspiciously small (%d bytes)", len(raw))
	}
	return os.WriteFile(outFile, raw, 0o644)
}
