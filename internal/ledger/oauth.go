package ledger

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
)

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  c.cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.cfg.AuthURL,
			TokenURL: c.cfg.TokenURL,
		},
	}
}

// AuthCodeURL returns the URL the user visits to authorize the application.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthConfig().AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	token, err := c.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return "", &AuthError{Message: fmt.Sprintf("token exchange failed: %v", err)}
	}
	return token.AccessToken, nil
}

// CodeFromRedirect extracts the authorization code from the full callback
// URL the provider redirected the user to.
func CodeFromRedirect(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", &AuthError{Message: "invalid callback URL"}
	}
	code := parsed.Query().Get("code")
	if code == "" {
		return "", &AuthError{Message: "authorization code not found in callback URL"}
	}
	return code, nil
}
