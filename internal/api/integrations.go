package api

import (
	"context"
	"net/http"

	"github.com/covalynce/covalynce-cli/internal/model"
)

// Integrations lists the providers connected for the user.
func (c *Client) Integrations(ctx context.Context, userID string) ([]model.Integration, error) {
	var payload struct {
		Integrations []model.Integration `json:"integrations"`
	}
	if err := c.do(ctx, http.MethodGet, "/integrations/list", userID, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Integrations, nil
}

// ProviderPermissions fetches the human-readable grant descriptions the
// consent dialog must show for the provider.
func (c *Client) ProviderPermissions(ctx context.Context, provider string) ([]string, error) {
	var payload struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.do(ctx, http.MethodGet, "/integrations/permissions/"+provider, "", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Permissions, nil
}

// RecordConsent stores the exact permission snapshot the user agreed to.
func (c *Client) RecordConsent(ctx context.Context, userID, provider string, permissions []string) error {
	return c.do(ctx, http.MethodPost, "/integrations/consent", userID, map[string]any{
		"provider":      provider,
		"permissions":   permissions,
		"consent_given": true,
	}, nil)
}

// DisableIntegration disconnects a provider. Callers refetch the
// registry afterwards; there is no optimistic removal here.
func (c *Client) DisableIntegration(ctx context.Context, userID, provider string) error {
	return c.do(ctx, http.MethodPost, "/integrations/"+provider+"/disable", userID, nil, nil)
}
