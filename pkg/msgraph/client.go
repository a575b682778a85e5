// Package msgraph exchanges an OAuth2 authorization code with the Microsoft
// identity platform and reads the signed-in profile from Microsoft Graph.
package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const defaultProfileURL = "https://graph.microsoft.com/v1.0/me"

// Profile is the subset of the Graph /me payload the directory needs.
type Profile struct {
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Email returns the mail claim, falling back to the user principal name.
func (p Profile) Email() string {
	if mail := strings.TrimSpace(p.Mail); mail != "" {
		return mail
	}
	return strings.TrimSpace(p.UserPrincipalName)
}

// Config groups identity provider settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Tenant       string
	// ProfileURL overrides the Graph endpoint, used in tests.
	ProfileURL string
}

// Client drives the authorization-code flow.
type Client struct {
	oauth      oauth2.Config
	profileURL string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New constructs a Graph client.
func New(cfg Config, logger zerolog.Logger) *Client {
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = "common"
	}

	profileURL := cfg.ProfileURL
	if profileURL == "" {
		profileURL = defaultProfileURL
	}

	return &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
			Scopes:       []string{"openid", "profile", "email", "User.Read"},
		},
		profileURL: profileURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With().Str("component", "msgraph").Logger(),
	}
}

// AuthCodeURL builds the provider login URL for the given CSRF state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for an access token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("authorization code exchange failed: %w", err)
	}
	return token, nil
}

// FetchProfile reads the signed-in user's directory profile.
func (c *Client) FetchProfile(ctx context.Context, token *oauth2.Token) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return Profile{}, err
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("profile request returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}

	if profile.Email() == "" {
		return Profile{}, fmt.Errorf("profile has no usable mail claim")
	}

	return profile, nil
}
