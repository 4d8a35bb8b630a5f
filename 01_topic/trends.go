package topic

import (
	"context"
	"log"
	"os"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"shortform-pipeline/config"
)

// TrendSource supplies trending phrases used to seed topic generation.
type TrendSource interface {
	Trending(ctx context.Context) []string
}

// RedditTrends pulls hot post titles from the configured subreddits.
// Trends are flavor for the prompt, so every failure degrades to an
// empty list instead of blocking topic generation.
type RedditTrends struct {
	cfg    config.TopicConfig
	client *reddit.Client
}

func NewRedditTrends(cfg config.TopicConfig) *RedditTrends {
	creds := reddit.Credentials{
		ID:       os.Getenv("REDDIT_CLIENT_ID"),
		Secret:   os.Getenv("REDDIT_CLIENT_SECRET"),
		Username: os.Getenv("REDDIT_USERNAME"),
		Password: os.Getenv("REDDIT_PASSWORD"),
	}

	var client *reddit.Client
	var err error
	if creds.ID != "" && creds.Secret != "" {
		client, err = reddit.NewClient(creds)
	} else {
		client, err = reddit.NewReadonlyClient()
	}
	if err != nil {
		log.Printf("[topic] reddit client unavailable: %v", err)
		client = nil
	}
	return &RedditTrends{cfg: cfg, client: client}
}

func (r *RedditTrends) Trending(ctx context.Context) []string {
	if r.client == nil || len(r.cfg.Subreddits) == 0 {
		return nil
	}

	var titles []string
	for _, sub := range r.cfg.Subreddits {
		posts, _, err := r.client.Subreddit.HotPosts(ctx, sub, &reddit.ListOptions{Limit: 10})
		if err != nil {
			log.Printf("[topic] r/%s: %v", sub, err)
			continue
		}
		for _, p := range posts {
			if p.Title != "" {
				titles = append(titles, p.Title)
			}
		}
	}
	log.Printf("[topic] collected %d trending titles from %d subreddits", len(titles), len(r.cfg.Subreddits))
	return titles
}
