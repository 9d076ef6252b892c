// Package social holds the OAuth and publishing clients for the supported
// platforms. Token exchange goes through golang.org/x/oauth2; the Graph API
// calls after it are plain JSON requests.
package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"social-service/internal/model"

	"golang.org/x/oauth2"
)

// GraphBaseURL is the Meta Graph API root. Overridable for tests.
var GraphBaseURL = "https://graph.facebook.com/v19.0"

// FailureReason labels a callback failure; each maps to a distinct redirect
// message on the settings page.
type FailureReason string

const (
	FailureNoCode            FailureReason = "no_code"
	FailureAuthDenied        FailureReason = "auth_denied"
	FailureNoToken           FailureReason = "no_token"
	FailureAccountNotFound   FailureReason = "account_not_found"
	FailureDetailFetchFailed FailureReason = "detail_fetch_failed"
	FailureSetupFailed       FailureReason = "setup_failed"
)

// CallbackError carries the failure reason through the connection flow
type CallbackError struct {
	Reason FailureReason
	Err    error
}

func (e *CallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// AccountInfo is what a successful connection flow learns about the account
type AccountInfo struct {
	PageID      string
	AccountID   string // instagram business account id, empty for facebook
	Username    string
	AccessToken string // page access token used for publishing
}

// Connector is the OAuth half of a platform client
type Connector interface {
	Platform() model.Platform
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchAccountInfo(ctx context.Context, token *oauth2.Token) (*AccountInfo, error)
}

// Publisher is the publishing half of a platform client
type Publisher interface {
	Publish(ctx context.Context, conn *model.SocialConnection, post *model.Post) error
}

// Client is a full platform client
type Client interface {
	Connector
	Publisher
}

// graphError is the Graph API's error envelope
type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// UpstreamError is a failure reported by the platform API, keeping the
// platform's message for translation into user-facing reasons.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("platform API error (status %d): %s", e.Status, e.Message)
}

// graphGET performs a Graph API GET and decodes the JSON response into out
func graphGET(ctx context.Context, httpClient *http.Client, path string, params url.Values, out interface{}) error {
	u := GraphBaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var ge graphError
		if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
			return &UpstreamError{Status: resp.StatusCode, Message: ge.Error.Message}
		}
		return &UpstreamError{Status: resp.StatusCode, Message: string(body)}
	}

	return json.Unmarshal(body, out)
}

// graphPOST performs a Graph API form POST and decodes the JSON response
func graphPOST(ctx context.Context, httpClient *http.Client, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, GraphBaseURL+path,
		strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var ge graphError
		if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
			return &UpstreamError{Status: resp.StatusCode, Message: ge.Error.Message}
		}
		return &UpstreamError{Status: resp.StatusCode, Message: string(body)}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// IsBusinessAccountMissing reports whether an upstream error means the
// Instagram business account is not linked to any page.
func IsBusinessAccountMissing(err error) bool {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	msg := strings.ToLower(ue.Message)
	return strings.Contains(msg, "instagram business account") ||
		strings.Contains(msg, "professional account")
}
