package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"shortform-pipeline/config"
	"shortform-pipeline/llm"
	"shortform-pipeline/types"
)

const defaultPrompt = `You pick topics for a short-form video channel that makes
engaging, factual explainers. Suggest one fresh topic a general audience would
stop scrolling for. Favor concrete stories and surprising facts over broad
subjects.`

const planFormat = `Respond with ONLY valid JSON in exactly this shape:
{
  "title": "the topic as a video title",
  "resolution": "1080x1920",
  "structure": {
    "length": 45,
    "sections": 3,
    "segments_per_section": 2
  }
}
Keep "length" between 30 and 60 seconds.`

// Planner chooses the next video topic.
type Planner struct {
	cfg     *config.Config
	client  *llm.Client
	trends  TrendSource
	history *History
}

func NewPlanner(cfg *config.Config, client *llm.Client) *Planner {
	return &Planner{
		cfg:     cfg,
		client:  client,
		trends:  NewRedditTrends(cfg.Topic),
		history: LoadHistory(cfg.Topic.HistoryFile),
	}
}

// Run generates a topic plan, rejecting candidates too similar to past
// topics and retrying up to the configured attempt limit.
func (p *Planner) Run(ctx context.Context) (*types.Plan, error) {
	system := p.loadPrompt()
	trending := p.trends.Trending(ctx)

	var user strings.Builder
	if len(trending) > 0 {
		user.WriteString("Currently trending discussions, for inspiration only:\n")
		for i, title := range trending {
			if i >= 20 {
				break
			}
			user.WriteString("- " + title + "\n")
		}
		user.WriteString("\n")
	}
	if past := p.history.Topics(); len(past) > 0 {
		user.WriteString("Topics already covered, do NOT repeat or rephrase these:\n")
		for _, topic := range past {
			user.WriteString("- " + topic + "\n")
		}
		user.WriteString("\n")
	}
	user.WriteString(planFormat)

	for attempt := 1; attempt <= p.cfg.Topic.MaxAttempts; attempt++ {
		content, err := p.client.ChatJSON(ctx, system, user.String(), p.cfg.Script.Temperature, 1024)
		if err != nil {
			return nil, fmt.Errorf("topic generation: %w", err)
		}

		var plan types.Plan
		if err := json.Unmarshal([]byte(content), &plan); err != nil {
			log.Printf("[topic] attempt %d: unparsable plan: %v", attempt, err)
			continue
		}
		if plan.Title == "" || plan.Structure.Sections <= 0 || plan.Structure.SegmentsPerSection <= 0 {
			log.Printf("[topic] attempt %d: incomplete plan", attempt)
			continue
		}

		if p.history.IsDuplicate(plan.Title, p.cfg.Topic.SimilarityThreshold, p.cfg.Topic.TokenOverlapThreshold) {
			log.Printf("[topic] attempt %d: %q too close to a past topic, retrying", attempt, plan.Title)
			continue
		}

		if err := p.history.Add(plan.Title); err != nil {
			log.Printf("[topic] recording history: %v", err)
		}
		log.Printf("[topic] selected: %q (%d sections x %d segments)",
			plan.Title, plan.Structure.Sections, plan.Structure.SegmentsPerSection)
		return &plan, nil
	}
	return nil, fmt.Errorf("no fresh topic found in %d attempts", p.cfg.Topic.MaxAttempts)
}

func (p *Planner) loadPrompt() string {
	data, err := os.ReadFile(p.cfg.Topic.PromptFile)
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return defaultPrompt
	}
	return string(data)
}
