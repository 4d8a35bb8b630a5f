package upload

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// YouTubeUploader uploads the video via the Data API v3, scheduled a
// few minutes out so a bad upload can still be caught.
type YouTubeUploader struct {
	cfg *config.Config
}

func NewYouTube(cfg *config.Config) *YouTubeUploader {
	return &YouTubeUploader{cfg: cfg}
}

// Upload pushes the video and its thumbnail and returns the watch URL.
func (u *YouTubeUploader) Upload(ctx context.Context, videoFile string, script *types.Script) (string, error) {
	log.Println("[upload] Authenticating with YouTube API...")
	client, err := u.oauthClient(ctx)
	if err != nil {
		return "", fmt.Errorf("youtube auth: %w", err)
	}
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("youtube service: %w", err)
	}

	sm := script.SocialMedia
	if sm == nil || sm.Title == "" {
		return "", fmt.Errorf("script has no social metadata")
	}

	publishAt := time.Now().UTC().
		Add(time.Duration(u.cfg.Upload.PublishDelayMinutes) * time.Minute).
		Format(time.RFC3339)

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       sm.Title,
			Description: sm.Description,
			Tags:        sm.Tags,
			CategoryId:  u.cfg.Upload.YouTubeCategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "private", // must be private to schedule
			PublishAt:     publishAt,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()
	if fi, err := f.Stat(); err == nil {
		log.Printf("[upload] Uploading %q (%.1f MB), publishing %s",
			sm.Title, float64(fi.Size())/1024/1024, publishAt)
	}

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f).Do()
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}

	if script.Thumbnails != nil && script.Thumbnails.YouTube != "" {
		if err := u.setThumbnail(svc, uploaded.Id, script.Thumbnails.YouTube); err != nil {
			log.Printf("[upload] thumbnail set failed: %v", err)
		}
	}

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	log.Printf("[upload] YouTube upload complete: %s", url)
	return url, nil
}

func (u *YouTubeUploader) setThumbnail(svc *youtube.Service, videoID, thumbPath string) error {
	f, err := os.Open(thumbPath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = svc.Thumbnails.Set(videoID).Media(f).Do()
	return err
}

func (u *YouTubeUploader) oauthClient(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: conf.TokenSource(ctx, token)},
	}, nil
}
