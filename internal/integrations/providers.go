package integrations

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"
	"golang.org/x/oauth2/slack"
)

// Provider identifiers as the backend knows them.
const (
	ProviderGitHub   = "github"
	ProviderLinkedIn = "linkedin"
	ProviderSlack    = "slack"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// providerEndpoints maps each supported provider to its authorization
// endpoint and the scopes the product requests from it.
var providerEndpoints = map[string]struct {
	endpoint oauth2.Endpoint
	scopes   []string
}{
	ProviderGitHub:   {github.Endpoint, []string{"repo"}},
	ProviderLinkedIn: {linkedin.Endpoint, []string{"w_member_social"}},
	ProviderSlack:    {slack.Endpoint, []string{"chat:write"}},
	ProviderGoogle:   {google.Endpoint, []string{"openid", "profile", "email"}},
	ProviderFacebook: {facebook.Endpoint, []string{"email", "public_profile"}},
}

// Supported reports whether the provider can be connected.
func Supported(provider string) bool {
	_, ok := providerEndpoints[provider]
	return ok
}

// AuthorizeURL builds the provider's authorization URL for the given
// client id and redirect target. The state parameter carries the
// provider name so the callback listener can route the code.
func AuthorizeURL(provider, clientID, redirectURI string) (string, bool) {
	p, ok := providerEndpoints[provider]
	if !ok {
		return "", false
	}
	cfg := oauth2.Config{
		ClientID:    clientID,
		Endpoint:    p.endpoint,
		RedirectURL: redirectURI,
		Scopes:      p.scopes,
	}
	return cfg.AuthCodeURL(provider), true
}
