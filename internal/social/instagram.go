package social

import (
	"context"
	"net/http"
	"net/url"

	"social-service/internal/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

// instagramScopes is the fixed scope list requested on connect. Instagram
// publishing rides on the Meta Graph API through a linked page.
var instagramScopes = []string{
	"instagram_basic",
	"instagram_content_publish",
	"pages_show_list",
	"pages_read_engagement",
}

// InstagramClient connects and publishes to Instagram business accounts
type InstagramClient struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewInstagramClient creates an Instagram client
func NewInstagramClient(clientID, clientSecret, redirectURL string) *InstagramClient {
	return &InstagramClient{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       instagramScopes,
			Endpoint:     facebook.Endpoint,
		},
		httpClient: http.DefaultClient,
	}
}

// Platform returns the platform this client serves
func (i *InstagramClient) Platform() model.Platform {
	return model.PlatformInstagram
}

// IsConfigured returns true if OAuth credentials are present
func (i *InstagramClient) IsConfigured() bool {
	return i.config.ClientID != "" && i.config.ClientSecret != ""
}

// AuthCodeURL builds the authorization URL for the consent screen
func (i *InstagramClient) AuthCodeURL(state string) string {
	return i.config.AuthCodeURL(state)
}

// Exchange trades the callback code for a user access token
func (i *InstagramClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return i.config.Exchange(ctx, code)
}

type igPageList struct {
	Data []struct {
		ID                       string `json:"id"`
		Name                     string `json:"name"`
		AccessToken              string `json:"access_token"`
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	} `json:"data"`
}

// FetchAccountInfo finds the page with a linked Instagram business account
// and resolves the account's username. A user without any linked business
// account cannot publish, which surfaces as account-not-found.
func (i *InstagramClient) FetchAccountInfo(ctx context.Context, token *oauth2.Token) (*AccountInfo, error) {
	params := url.Values{}
	params.Set("access_token", token.AccessToken)
	params.Set("fields", "id,name,access_token,instagram_business_account")

	var pages igPageList
	if err := graphGET(ctx, i.httpClient, "/me/accounts", params, &pages); err != nil {
		if IsBusinessAccountMissing(err) {
			return nil, &CallbackError{Reason: FailureAccountNotFound, Err: err}
		}
		return nil, &CallbackError{Reason: FailureDetailFetchFailed, Err: err}
	}

	for _, page := range pages.Data {
		if page.InstagramBusinessAccount == nil {
			continue
		}

		detailParams := url.Values{}
		detailParams.Set("access_token", page.AccessToken)
		detailParams.Set("fields", "username")

		var account struct {
			Username string `json:"username"`
		}
		if err := graphGET(ctx, i.httpClient, "/"+page.InstagramBusinessAccount.ID, detailParams, &account); err != nil {
			return nil, &CallbackError{Reason: FailureDetailFetchFailed, Err: err}
		}

		return &AccountInfo{
			PageID:      page.ID,
			AccountID:   page.InstagramBusinessAccount.ID,
			Username:    account.Username,
			AccessToken: page.AccessToken,
		}, nil
	}

	return nil, &CallbackError{Reason: FailureAccountNotFound}
}

// Publish creates a media container for the post and publishes it.
// Instagram requires an image; text-only content cannot be published.
func (i *InstagramClient) Publish(ctx context.Context, conn *model.SocialConnection, post *model.Post) error {
	if post.ImageURL == "" {
		return &UpstreamError{Status: http.StatusBadRequest, Message: "instagram posts require an image"}
	}

	createParams := url.Values{}
	createParams.Set("access_token", conn.AccessToken)
	createParams.Set("image_url", post.ImageURL)
	createParams.Set("caption", post.Content)

	var container struct {
		ID string `json:"id"`
	}
	if err := graphPOST(ctx, i.httpClient, "/"+conn.AccountID+"/media", createParams, &container); err != nil {
		return err
	}

	publishParams := url.Values{}
	publishParams.Set("access_token", conn.AccessToken)
	publishParams.Set("creation_id", container.ID)

	return graphPOST(ctx, i.httpClient, "/"+conn.AccountID+"/media_publish", publishParams, nil)
}
