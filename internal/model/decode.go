package model

import (
	"encoding/json"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizer strips any markup from backend-supplied free text before it
// enters client state. The backend is trusted for structure, not for
// content: cards and trends carry text scraped from third-party
// platforms.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize removes all HTML from s.
func Sanitize(s string) string {
	return sanitizer.Sanitize(s)
}

// DecodeCards parses the /sync/github payload. The endpoint returns a
// bare JSON array; anything else (error objects, truncated bodies)
// yields an empty collection and ok=false so the caller can log it
// without treating it as an error. Individual entries missing an id or
// carrying an unknown category are dropped.
func DecodeCards(raw []byte) (cards []Card, ok bool) {
	var decoded []Card
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	cards = make([]Card, 0, len(decoded))
	for _, c := range decoded {
		if !validCard(c) {
			continue
		}
		c.Content = Sanitize(c.Content)
		c.Title = Sanitize(c.Title)
		c.Subtitle = Sanitize(c.Subtitle)
		if c.Platform == "" {
			c.Platform = PlatformLinkedIn
		}
		cards = append(cards, c)
	}
	return cards, true
}

func validCard(c Card) bool {
	if c.ID == "" {
		return false
	}
	switch c.Category {
	case CategoryMarketing, CategoryEngineering, CategoryStrategy:
		return true
	}
	// The backend also emits synthetic system cards ("limit", "setup")
	// whose category is ENG; anything else is malformed.
	return false
}

// DecodeTrends sanitizes the free-text fields of a trending payload
// in place.
func DecodeTrends(trends []Trend) []Trend {
	for i := range trends {
		trends[i].Content = Sanitize(trends[i].Content)
	}
	return trends
}

// DecodePosts sanitizes competitor post content in place.
func DecodePosts(posts []CompetitorPost) []CompetitorPost {
	for i := range posts {
		posts[i].Content = Sanitize(posts[i].Content)
	}
	return posts
}
