package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/covalynce/covalynce-cli/internal/model"
)

// Competitors lists the tracked competitor accounts.
func (c *Client) Competitors(ctx context.Context, userID string) ([]model.Competitor, error) {
	var payload struct {
		Competitors []model.Competitor `json:"competitors"`
	}
	if err := c.do(ctx, http.MethodGet, "/trends/competitors", userID, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Competitors, nil
}

// AddCompetitor starts tracking a new competitor account.
func (c *Client) AddCompetitor(ctx context.Context, userID, name, platform, handle string) error {
	return c.do(ctx, http.MethodPost, "/trends/competitor/add", userID, map[string]string{
		"name":     name,
		"platform": platform,
		"handle":   handle,
	}, nil)
}

// CompetitorPosts fetches recent posts for a tracked competitor.
func (c *Client) CompetitorPosts(ctx context.Context, userID, competitorID string) ([]model.CompetitorPost, error) {
	var payload struct {
		Posts []model.CompetitorPost `json:"posts"`
	}
	if err := c.do(ctx, http.MethodGet, "/trends/competitor/"+competitorID+"/posts", userID, nil, &payload); err != nil {
		return nil, err
	}
	return model.DecodePosts(payload.Posts), nil
}

// Learn triggers the backend's silent training pass over a
// competitor's posts. Best-effort on the caller's side.
func (c *Client) Learn(ctx context.Context, userID, competitorID string) error {
	return c.do(ctx, http.MethodPost, "/trends/competitor/learn", userID, map[string]string{
		"competitor_id": competitorID,
	}, nil)
}

// Trending fetches trending content and meme templates for a location.
func (c *Client) Trending(ctx context.Context, userID, location string) ([]model.Trend, []model.MemeTemplate, error) {
	var payload struct {
		Trending []model.Trend        `json:"trending"`
		Memes    []model.MemeTemplate `json:"memes"`
	}
	path := "/trends/trending?location=" + url.QueryEscape(location)
	if err := c.do(ctx, http.MethodGet, path, userID, nil, &payload); err != nil {
		return nil, nil, err
	}
	return model.DecodeTrends(payload.Trending), payload.Memes, nil
}

// Usage fetches the daily and monthly AI usage counters.
func (c *Client) Usage(ctx context.Context, userID string) (model.UsageStats, error) {
	var stats model.UsageStats
	err := c.do(ctx, http.MethodGet, "/trends/usage", userID, nil, &stats)
	return stats, err
}

// AIPreferences fetches the stored content-generation preferences.
func (c *Client) AIPreferences(ctx context.Context, userID string) (model.AIPreferences, error) {
	var payload struct {
		Preferences *model.AIPreferences `json:"preferences"`
	}
	if err := c.do(ctx, http.MethodGet, "/trends/ai/preferences", userID, nil, &payload); err != nil {
		return model.AIPreferences{}, err
	}
	if payload.Preferences == nil {
		return model.DefaultAIPreferences(), nil
	}
	return *payload.Preferences, nil
}

// SaveAIPreferences stores updated content-generation preferences.
func (c *Client) SaveAIPreferences(ctx context.Context, userID string, prefs model.AIPreferences) error {
	return c.do(ctx, http.MethodPost, "/trends/ai/preferences", userID, prefs, nil)
}

// EditMeme composes top/bottom captions onto a template and returns
// the rendered image URL.
func (c *Client) EditMeme(ctx context.Context, userID, templateID, topText, bottomText string) (string, error) {
	var payload struct {
		ImageURL string `json:"image_url"`
	}
	err := c.do(ctx, http.MethodPost, "/trends/meme/edit", userID, map[string]string{
		"template_id": templateID,
		"top_text":    topText,
		"bottom_text": bottomText,
	}, &payload)
	return payload.ImageURL, err
}
