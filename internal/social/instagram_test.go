package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"social-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGraph serves a minimal slice of the Graph API from a routing table
// keyed by request path.
func fakeGraph(t *testing.T, routes map[string]string) func() {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"message":"unknown path","code":100}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))

	previous := GraphBaseURL
	GraphBaseURL = srv.URL
	return func() {
		GraphBaseURL = previous
		srv.Close()
	}
}

func TestInstagramFetchAccountInfo(t *testing.T) {
	cleanup := fakeGraph(t, map[string]string{
		"/me/accounts": `{"data":[
			{"id":"page_no_ig","name":"No IG","access_token":"tok_no_ig"},
			{"id":"page_1","name":"Cafe Aroma","access_token":"tok_page_1",
			 "instagram_business_account":{"id":"ig_1"}}
		]}`,
		"/ig_1": `{"username":"cafearoma"}`,
	})
	defer cleanup()

	client := NewInstagramClient("id", "secret", "http://localhost/cb")
	info, err := client.FetchAccountInfo(context.Background(), &oauth2.Token{AccessToken: "user-token"})
	require.NoError(t, err)

	assert.Equal(t, "page_1", info.PageID)
	assert.Equal(t, "ig_1", info.AccountID)
	assert.Equal(t, "cafearoma", info.Username)
	assert.Equal(t, "tok_page_1", info.AccessToken)
}

func TestInstagramFetchAccountInfoNoBusinessAccount(t *testing.T) {
	cleanup := fakeGraph(t, map[string]string{
		"/me/accounts": `{"data":[{"id":"page_1","name":"Plain Page","access_token":"tok"}]}`,
	})
	defer cleanup()

	client := NewInstagramClient("id", "secret", "http://localhost/cb")
	_, err := client.FetchAccountInfo(context.Background(), &oauth2.Token{AccessToken: "user-token"})
	require.Error(t, err)

	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, FailureAccountNotFound, cbErr.Reason)
}

func TestInstagramFetchAccountInfoUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"something broke","code":1}}`))
	}))
	defer srv.Close()
	previous := GraphBaseURL
	GraphBaseURL = srv.URL
	defer func() { GraphBaseURL = previous }()

	client := NewInstagramClient("id", "secret", "http://localhost/cb")
	_, err := client.FetchAccountInfo(context.Background(), &oauth2.Token{AccessToken: "user-token"})
	require.Error(t, err)

	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, FailureDetailFetchFailed, cbErr.Reason)
}

func TestInstagramPublishRequiresImage(t *testing.T) {
	client := NewInstagramClient("id", "secret", "http://localhost/cb")
	conn := &model.SocialConnection{AccountID: "ig_1", AccessToken: "tok"}
	post := &model.Post{Content: "text only"}

	err := client.Publish(context.Background(), conn, post)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "require an image")
}

func TestInstagramPublishTwoStep(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/ig_1/media":
			assert.Equal(t, "https://img.example/a.jpg", r.FormValue("image_url"))
			assert.Equal(t, "hello", r.FormValue("caption"))
			w.Write([]byte(`{"id":"container_9"}`))
		case "/ig_1/media_publish":
			assert.Equal(t, "container_9", r.FormValue("creation_id"))
			w.Write([]byte(`{"id":"media_5"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	previous := GraphBaseURL
	GraphBaseURL = srv.URL
	defer func() { GraphBaseURL = previous }()

	client := NewInstagramClient("id", "secret", "http://localhost/cb")
	conn := &model.SocialConnection{AccountID: "ig_1", AccessToken: "tok"}
	post := &model.Post{Content: "hello", ImageURL: "https://img.example/a.jpg"}

	require.NoError(t, client.Publish(context.Background(), conn, post))
	assert.Equal(t, []string{"/ig_1/media", "/ig_1/media_publish"}, calls)
}

func TestIsBusinessAccountMissing(t *testing.T) {
	missing := &UpstreamError{Status: 400, Message: "No Instagram Business Account linked to this page"}
	assert.True(t, IsBusinessAccountMissing(missing))

	other := &UpstreamError{Status: 400, Message: "rate limit exceeded"}
	assert.False(t, IsBusinessAccountMissing(other))

	assert.False(t, IsBusinessAccountMissing(context.Canceled))
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewInstagramClient("id", "secret", "http://localhost/cb").IsConfigured())
	assert.False(t, NewInstagramClient("", "", "http://localhost/cb").IsConfigured())
	assert.False(t, NewFacebookClient("id", "", "http://localhost/cb").IsConfigured())
}

func TestAuthCodeURLIncludesScopesAndState(t *testing.T) {
	client := NewInstagramClient("id", "secret", "http://localhost/cb")
	raw := client.AuthCodeURL("user_abc")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user_abc", parsed.Query().Get("state"))
	assert.True(t, strings.Contains(parsed.Query().Get("scope"), "instagram_content_publish"))
}
