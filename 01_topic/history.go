package topic

import (
	"encoding/json"
	"os"
	"strings"
	"time"
)

// HistoryEntry records one previously produced topic.
type HistoryEntry struct {
	Topic string `json:"topic"`
	Date  string `json:"date"`
}

// History is the persisted list of past topics, used to keep the
// channel from repeating itself.
type History struct {
	path    string
	Entries []HistoryEntry
}

// LoadHistory reads the topic history file; a missing or corrupted
// file starts an empty history.
func LoadHistory(path string) *History {
	h := &History{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return h
	}
	if err := json.Unmarshal(data, &h.Entries); err != nil {
		h.Entries = nil
	}
	return h
}

// Add appends a topic with today's date and persists the file.
func (h *History) Add(topic string) error {
	h.Entries = append(h.Entries, HistoryEntry{
		Topic: topic,
		Date:  time.Now().Format("2006-01-02"),
	})
	data, err := json.MarshalIndent(h.Entries, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.path, append(data, '\n'), 0644)
}

// Topics returns just the topic strings, newest last.
func (h *History) Topics() []string {
	out := make([]string, len(h.Entries))
	for i, e := range h.Entries {
		out[i] = e.Topic
	}
	return out
}

// IsDuplicate reports whether a candidate topic is too close to any
// past topic: either high token-set similarity or several shared
// significant words.
func (h *History) IsDuplicate(candidate string, similarityThreshold float64, overlapThreshold int) bool {
	candTokens := significantTokens(candidate)
	for _, e := range h.Entries {
		pastTokens := significantTokens(e.Topic)
		if similarity(candTokens, pastTokens) >= similarityThreshold {
			return true
		}
		if overlap(candTokens, pastTokens) >= overlapThreshold {
			return true
		}
	}
	return false
}

// stopWords are ignored when comparing topics.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true,
	"on": true, "to": true, "and": true, "or": true, "for": true,
	"is": true, "are": true, "was": true, "with": true, "that": true,
	"this": true, "how": true, "why": true, "what": true, "about": true,
}

func significantTokens(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?:;\"'()-")
		if w == "" || stopWords[w] {
			continue
		}
		tokens[w] = true
	}
	return tokens
}

// similarity is the Jaccard index of the two token sets.
func similarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := overlap(a, b)
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func overlap(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}
