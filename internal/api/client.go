// Package api implements the typed HTTP client for the Covalynce
// backend. Every call is JSON over a configurable base URL and is
// authenticated with the x-user-id header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/model"
)

// Error is a non-2xx backend response. Detail carries the backend's
// error payload verbatim so auth forms can surface it unchanged.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// Client talks to the Covalynce backend.
type Client struct {
	httpc   *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewClient constructs a Client for the given base URL. If httpc is
// nil a default client with a 30s timeout is used.
func NewClient(baseURL string, httpc *http.Client, logger *zap.Logger) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpc: httpc, baseURL: baseURL, logger: logger}
}

// do issues one JSON request. userID may be empty for unauthenticated
// endpoints. When out is non-nil the response body is decoded into it.
func (c *Client) do(ctx context.Context, method, path, userID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("x-user-id", userID)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s: %w", path, err)
	}
	return nil
}

// decodeError extracts the backend's {"detail": ...} payload when
// present; otherwise the raw body is used.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return &Error{Status: resp.StatusCode, Detail: payload.Detail}
	}
	return &Error{Status: resp.StatusCode, Detail: string(bytes.TrimSpace(raw))}
}

// Credentials is the result of a successful credential or OAuth sign-in.
type Credentials struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// SignUp creates an account with email/password credentials.
func (c *Client) SignUp(ctx context.Context, email, password string) (Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    email,
		"password": password,
	}, &creds)
	return creds, err
}

// SignIn authenticates existing email/password credentials.
func (c *Client) SignIn(ctx context.Context, email, password string) (Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/auth/signin", "", map[string]string{
		"email":    email,
		"password": password,
	}, &creds)
	return creds, err
}

// ExchangeOAuthCode trades the provider's authorization code for a
// connected session on the backend.
func (c *Client) ExchangeOAuthCode(ctx context.Context, provider, code, userID, redirectURI string) error {
	return c.do(ctx, http.MethodPost, "/auth/"+provider+"/callback", "", map[string]string{
		"code":         code,
		"user_id":      userID,
		"redirect_uri": redirectURI,
	}, nil)
}

// Profile fetches the plan tier, usage counters and BYOK key.
func (c *Client) Profile(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, http.MethodGet, "/user/profile", userID, nil, &p)
	return p, err
}

// SyncCards fetches the current card collection. A payload that is not
// a JSON array is treated as "no cards" rather than an error, matching
// the backend's habit of answering with bare objects under failure.
func (c *Client) SyncCards(ctx context.Context, userID string) ([]model.Card, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/sync/github", userID, nil, &raw); err != nil {
		return nil, err
	}
	cards, ok := model.DecodeCards(raw)
	if !ok {
		c.logger.Warn("sync payload was not a card array, treating as empty")
		return []model.Card{}, nil
	}
	return cards, nil
}

// CardHistory fetches resolved cards with their terminal status.
func (c *Client) CardHistory(ctx context.Context, userID string) ([]model.Card, error) {
	var payload struct {
		Cards []model.Card `json:"cards"`
	}
	if err := c.do(ctx, http.MethodGet, "/cards/history", userID, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Cards, nil
}

// Apply posts a terminal card action (execute, discard, dismiss).
func (c *Client) Apply(ctx context.Context, userID string, action model.Action, cardID, content string, platform model.Platform) error {
	return c.do(ctx, http.MethodPost, "/action/"+string(action), userID, map[string]string{
		"id":       cardID,
		"content":  content,
		"platform": string(platform),
	}, nil)
}

// NotifySlack fires the secondary Slack notification for an executed
// engineering card. Callers treat failures as best-effort.
func (c *Client) NotifySlack(ctx context.Context, userID, cardID string) error {
	return c.do(ctx, http.MethodPost, "/action/slack/notify", userID, map[string]string{
		"card_id": cardID,
	}, nil)
}

// Rephrase asks the backend AI to rewrite content.
func (c *Client) Rephrase(ctx context.Context, userID, content string) (string, error) {
	var payload struct {
		RephrasedContent string `json:"rephrased_content"`
	}
	err := c.do(ctx, http.MethodPost, "/ai/rephrase", userID, map[string]string{
		"content": content,
	}, &payload)
	if err != nil {
		return "", err
	}
	if payload.RephrasedContent == "" {
		return "", fmt.Errorf("rephrase returned no content")
	}
	return payload.RephrasedContent, nil
}

// GenerateImage asks the backend to render an image for the prompt.
func (c *Client) GenerateImage(ctx context.Context, userID, prompt, cardID string) (string, error) {
	var payload struct {
		ImageURL string `json:"image_url"`
	}
	err := c.do(ctx, http.MethodPost, "/image/generate", userID, map[string]string{
		"prompt":  prompt,
		"card_id": cardID,
	}, &payload)
	if err != nil {
		return "", err
	}
	if payload.ImageURL == "" {
		return "", fmt.Errorf("image generation returned no url")
	}
	return payload.ImageURL, nil
}
