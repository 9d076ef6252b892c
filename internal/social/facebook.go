package social

import (
	"context"
	"net/http"
	"net/url"

	"social-service/internal/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

// facebookScopes is the fixed scope list requested on connect
var facebookScopes = []string{
	"pages_show_list",
	"pages_read_engagement",
	"pages_manage_posts",
}

// FacebookClient connects and publishes to Facebook pages
type FacebookClient struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewFacebookClient creates a Facebook client
func NewFacebookClient(clientID, clientSecret, redirectURL string) *FacebookClient {
	return &FacebookClient{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       facebookScopes,
			Endpoint:     facebook.Endpoint,
		},
		httpClient: http.DefaultClient,
	}
}

// Platform returns the platform this client serves
func (f *FacebookClient) Platform() model.Platform {
	return model.PlatformFacebook
}

// IsConfigured returns true if OAuth credentials are present
func (f *FacebookClient) IsConfigured() bool {
	return f.config.ClientID != "" && f.config.ClientSecret != ""
}

// AuthCodeURL builds the authorization URL for the consent screen
func (f *FacebookClient) AuthCodeURL(state string) string {
	return f.config.AuthCodeURL(state)
}

// Exchange trades the callback code for a user access token
func (f *FacebookClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return f.config.Exchange(ctx, code)
}

type pageList struct {
	Data []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

// FetchAccountInfo resolves the user's first managed page. No page means
// there is nothing to publish to, which surfaces as account-not-found.
func (f *FacebookClient) FetchAccountInfo(ctx context.Context, token *oauth2.Token) (*AccountInfo, error) {
	params := url.Values{}
	params.Set("access_token", token.AccessToken)
	params.Set("fields", "id,name,access_token")

	var pages pageList
	if err := graphGET(ctx, f.httpClient, "/me/accounts", params, &pages); err != nil {
		return nil, &CallbackError{Reason: FailureDetailFetchFailed, Err: err}
	}

	if len(pages.Data) == 0 {
		return nil, &CallbackError{Reason: FailureAccountNotFound}
	}

	page := pages.Data[0]
	return &AccountInfo{
		PageID:      page.ID,
		Username:    page.Name,
		AccessToken: page.AccessToken,
	}, nil
}

// Publish posts content to the connected page's feed
func (f *FacebookClient) Publish(ctx context.Context, conn *model.SocialConnection, post *model.Post) error {
	params := url.Values{}
	params.Set("access_token", conn.AccessToken)
	params.Set("message", post.Content)

	path := "/" + conn.PageID + "/feed"
	if post.ImageURL != "" {
		path = "/" + conn.PageID + "/photos"
		params.Set("url", post.ImageURL)
		params.Set("caption", post.Content)
		params.Del("message")
	}

	var result struct {
		ID string `json:"id"`
	}
	return graphPOST(ctx, f.httpClient, path, params, &result)
}
