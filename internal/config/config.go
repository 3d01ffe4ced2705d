// Package config loads client configuration from a yaml file with
// environment-variable overrides.
package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

// Config holds all client configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	State    StateConfig    `mapstructure:"state"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
}

// APIConfig locates the Covalynce backend.
type APIConfig struct {
	URL string `mapstructure:"url"`
}

// OAuthConfig carries per-provider client ids and the local callback
// listener address the providers redirect back to.
type OAuthConfig struct {
	GitHubClientID   string `mapstructure:"github_client_id"`
	LinkedInClientID string `mapstructure:"linkedin_client_id"`
	SlackClientID    string `mapstructure:"slack_client_id"`
	GoogleClientID   string `mapstructure:"google_client_id"`
	FacebookClientID string `mapstructure:"facebook_client_id"`
	CallbackAddr     string `mapstructure:"callback_addr"`
}

// StateConfig locates the durable local state file.
type StateConfig struct {
	File string `mapstructure:"file"`
}

// CheckoutConfig carries the payment gateway's publishable key.
type CheckoutConfig struct {
	RazorpayKeyID string `mapstructure:"razorpay_key_id"`
}

// Load reads the config file at path and applies environment
// overrides. A missing file is not fatal; defaults plus environment
// are a valid configuration on their own.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("api.url", "http://localhost:8000")
	v.SetDefault("state.file", "covalynce_state.json")
	v.SetDefault("oauth.callback_addr", "localhost:8910")

	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if u := v.GetString("COVALYNCE_API_URL"); u != "" {
		cfg.API.URL = u
	}
	if f := v.GetString("COVALYNCE_STATE_FILE"); f != "" {
		cfg.State.File = f
	}
	if id := v.GetString("GITHUB_CLIENT_ID"); id != "" {
		cfg.OAuth.GitHubClientID = id
	}
	if id := v.GetString("LINKEDIN_CLIENT_ID"); id != "" {
		cfg.OAuth.LinkedInClientID = id
	}
	if id := v.GetString("SLACK_CLIENT_ID"); id != "" {
		cfg.OAuth.SlackClientID = id
	}
	if id := v.GetString("GOOGLE_CLIENT_ID"); id != "" {
		cfg.OAuth.GoogleClientID = id
	}
	if id := v.GetString("FACEBOOK_CLIENT_ID"); id != "" {
		cfg.OAuth.FacebookClientID = id
	}
	if key := v.GetString("RAZORPAY_KEY_ID"); key != "" {
		cfg.Checkout.RazorpayKeyID = key
	}

	return &cfg, nil
}
