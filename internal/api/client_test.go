package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/model"
)

// roundTripperFunc lets a test function stand in for the transport.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func fakeClient(fn roundTripperFunc) *Client {
	return NewClient("http://backend.test", &http.Client{Transport: fn}, zap.NewNop())
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestSignInSendsCredentialsAndParsesToken(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		return jsonResponse(http.StatusOK, `{"access_token":"tok123","user_id":"u42"}`), nil
	})

	creds, err := c.SignIn(context.Background(), "a@b.test", "hunter22!")
	require.NoError(t, err)
	assert.Equal(t, "/auth/signin", gotPath)
	assert.Equal(t, "a@b.test", gotBody["email"])
	assert.Equal(t, "hunter22!", gotBody["password"])
	assert.Equal(t, "tok123", creds.AccessToken)
	assert.Equal(t, "u42", creds.UserID)
}

func TestErrorDetailSurfaced(t *testing.T) {
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"detail":"Invalid credentials"}`), nil
	})

	_, err := c.SignIn(context.Background(), "a@b.test", "wrong")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Detail)
}

func TestErrorWithoutDetailUsesBody(t *testing.T) {
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, "upstream exploded"), nil
	})

	err := c.NotifySlack(context.Background(), "u1", "c1")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream exploded", apiErr.Detail)
}

func TestUserIDHeader(t *testing.T) {
	var gotHeader string
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		gotHeader = r.Header.Get("x-user-id")
		return jsonResponse(http.StatusOK, `{"plan":"SOLO","cards_used":1,"card_limit":10}`), nil
	})

	_, err := c.Profile(context.Background(), "u42")
	require.NoError(t, err)
	assert.Equal(t, "u42", gotHeader)
}

func TestSyncCardsNonArrayPayloadIsEmpty(t *testing.T) {
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"error":"rate limited"}`), nil
	})

	cards, err := c.SyncCards(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestSyncCardsDecodesAndSanitizes(t *testing.T) {
	body := `[
		{"id":"c1","category":"MKT","content":"hello <script>alert(1)</script>world"},
		{"id":"","category":"MKT","content":"dropped, no id"},
		{"id":"c2","category":"NOPE","content":"dropped, bad category"},
		{"id":"c3","category":"ENG","content":"ship it"}
	]`
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, body), nil
	})

	cards, err := c.SyncCards(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "c1", cards[0].ID)
	assert.NotContains(t, cards[0].Content, "<script>")
	assert.Contains(t, cards[0].Content, "world")
	assert.Equal(t, model.PlatformLinkedIn, cards[1].Platform, "platform should default")
}

func TestRephraseEmptyResultIsError(t *testing.T) {
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"rephrased_content":""}`), nil
	})

	_, err := c.Rephrase(context.Background(), "u1", "text")
	assert.Error(t, err)
}

func TestApplyPostsActionPath(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	err := c.Apply(context.Background(), "u1", model.ActionExecute, "c9", "the content", model.PlatformSlack)
	require.NoError(t, err)
	assert.Equal(t, "/action/execute", gotPath)
	assert.Equal(t, "c9", gotBody["id"])
	assert.Equal(t, "SLACK", gotBody["platform"])
}

func TestTrendingEscapesLocation(t *testing.T) {
	var gotURL string
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		gotURL = r.URL.RequestURI()
		return jsonResponse(http.StatusOK, `{"trending":[],"memes":[]}`), nil
	})

	_, _, err := c.Trending(context.Background(), "u1", "New Delhi & NCR")
	require.NoError(t, err)
	assert.Equal(t, "/trends/trending?location=New+Delhi+%26+NCR", gotURL)
}

func TestAIPreferencesNullFallsBackToDefaults(t *testing.T) {
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"preferences":null}`), nil
	})

	prefs, err := c.AIPreferences(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAIPreferences(), prefs)
}

func TestTransportErrorWrapped(t *testing.T) {
	c := fakeClient(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := c.Profile(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
