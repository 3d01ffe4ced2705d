// Package model defines the core data structures exchanged with the
// Covalynce backend and held in client state.
package model

// View identifies the top-level screen the client is rendering.
// Exactly one view is active at a time.
type View string

const (
	ViewLogin         View = "LOGIN"
	ViewSignup        View = "SIGNUP"
	ViewDashboard     View = "DASHBOARD"
	ViewSettings      View = "SETTINGS"
	ViewSources       View = "SOURCES"
	ViewTrends        View = "TRENDS"
	ViewHelp          View = "HELP"
	ViewNotifications View = "NOTIFICATIONS"
	ViewPrivacy       View = "PRIVACY"
	ViewHistory       View = "HISTORY"
)

// Category classifies a card into one of the three dashboard columns.
type Category string

const (
	CategoryMarketing   Category = "MKT"
	CategoryEngineering Category = "ENG"
	CategoryStrategy    Category = "STRAT"
)

// Platform is the execution target of an approved card.
type Platform string

const (
	PlatformLinkedIn Platform = "LINKEDIN"
	PlatformSlack    Platform = "SLACK"
	PlatformNone     Platform = "NONE"
)

// Action names a terminal card operation accepted by the backend.
type Action string

const (
	ActionExecute Action = "execute"
	ActionDiscard Action = "discard"
	ActionDismiss Action = "dismiss"
	ActionApprove Action = "approve"
)

// LimitCardID is the synthetic id the backend inserts when the usage
// limit is reached. Acting on it must never hit the network; it routes
// the user to the settings/upgrade screen instead.
const LimitCardID = "limit"

// Card is a unit of AI-drafted content awaiting approval, discard or
// platform execution. Presence in the client collection is the sole
// definition of "still pending".
type Card struct {
	// ID is the unique, stable identifier of the card.
	ID string `json:"id"`
	// SourceID links the card back to the originating event.
	SourceID string `json:"source_id"`
	// Category selects the dashboard column (MKT, ENG, STRAT).
	Category Category `json:"category"`
	// Type describes where the card came from ("GITHUB", "JIRA", "SYSTEM").
	Type string `json:"type"`
	// Platform is the target of the execute action.
	Platform Platform `json:"platform"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	// Content is the free-text body, sanitized at the decode boundary.
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	// Tags are ordered and may repeat; they are treated as a set for display.
	Tags      []string `json:"tags"`
	Timestamp string   `json:"timestamp"`
	// Status is only populated on history entries
	// (POSTED, DISMISSED, PENDING).
	Status string `json:"status,omitempty"`
}

// Profile holds the account plan and usage counters returned by
// GET /user/profile.
type Profile struct {
	Plan      string `json:"plan"`
	CardsUsed int    `json:"cards_used"`
	CardLimit int    `json:"card_limit"`
	// OpenAIKey is the user-supplied BYOK credential, if any.
	OpenAIKey string `json:"openai_key,omitempty"`
}

// Plan tiers.
const (
	PlanSolo = "SOLO"
	PlanPro  = "PRO"
)

// Integration is a connected external provider. Presence in the
// registry implies "connected".
type Integration struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	// Permissions is the human-readable grant list shown at consent time.
	Permissions []string `json:"permissions"`
}

// Notification is a backend-issued activity message.
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Read      bool   `json:"read"`
	ActionURL string `json:"action_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Competitor is a tracked account the backend learns from.
type Competitor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
}

// CompetitorPost is a single post fetched for a tracked competitor.
type CompetitorPost struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	ImageURL   string         `json:"image_url,omitempty"`
	Engagement PostEngagement `json:"engagement"`
}

// PostEngagement carries the engagement counters of a competitor post.
type PostEngagement struct {
	Likes int `json:"likes"`
}

// Trend is one entry of location-gated trending content.
type Trend struct {
	ID            string   `json:"id"`
	Category      string   `json:"category"`
	Content       string   `json:"content"`
	TrendingScore int      `json:"trending_score"`
	Hashtags      []string `json:"hashtags"`
}

// MemeTemplate is an editable meme image offered by the trends feed.
type MemeTemplate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// AIPreferences configures the tone of generated content.
type AIPreferences struct {
	Tone            string `json:"tone"`
	Style           string `json:"style"`
	Length          string `json:"length"`
	IncludeHashtags bool   `json:"include_hashtags"`
	IncludeEmojis   bool   `json:"include_emojis"`
}

// DefaultAIPreferences returns the preferences assumed before the
// backend has been asked.
func DefaultAIPreferences() AIPreferences {
	return AIPreferences{
		Tone:            "professional",
		Style:           "engaging",
		Length:          "medium",
		IncludeHashtags: true,
	}
}

// UsageWindow is a used/limit counter pair for one billing window.
type UsageWindow struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// UsageStats reports AI usage against the daily and monthly windows.
type UsageStats struct {
	Daily   UsageWindow `json:"daily"`
	Monthly UsageWindow `json:"monthly"`
}
