// Package news provides the market news feed abstraction. Transport against
// a real provider lives behind the Provider interface; a static provider
// ships for development.
package news

import (
	"context"
	"time"
)

// Article is a single news item in the feed.
type Article struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// Provider returns recent market news, newest first.
type Provider interface {
	TopStories(ctx context.Context, limit int) ([]Article, error)
}

// StaticProvider serves a fixed article list for development and tests.
type StaticProvider struct {
	articles []Article
}

// NewStaticProvider creates a StaticProvider with a small curated feed.
func NewStaticProvider() *StaticProvider {
	now := time.Now()
	return &StaticProvider{
		articles: []Article{
			{
				Title:       "Fed holds rates steady, signals patience on cuts",
				Summary:     "The Federal Reserve left its benchmark rate unchanged and reiterated a data-dependent path.",
				URL:         "https://example.com/news/fed-holds",
				Source:      "Newswire",
				PublishedAt: now.Add(-2 * time.Hour),
			},
			{
				Title:       "Broad index funds hit fresh highs",
				Summary:     "Total-market ETFs extended their rally as earnings season wound down.",
				URL:         "https://example.com/news/index-highs",
				Source:      "Newswire",
				PublishedAt: now.Add(-6 * time.Hour),
			},
			{
				Title:       "Savings account yields drift lower",
				Summary:     "High-yield savings rates continued to ease from last year's peak.",
				URL:         "https://example.com/news/savings-yields",
				Source:      "Newswire",
				PublishedAt: now.Add(-24 * time.Hour),
			},
		},
	}
}

// TopStories returns up to limit articles, newest first.
func (p *StaticProvider) TopStories(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 || limit > len(p.articles) {
		limit = len(p.articles)
	}
	out := make([]Article, limit)
	copy(out, p.articles[:limit])
	return out, nil
}
