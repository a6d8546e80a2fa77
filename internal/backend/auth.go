package backend

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// newHTTPClient picks the backend auth mode: OAuth2 client credentials when a
// token URL is configured, a static bearer token otherwise, or no auth.
func newHTTPClient(opts Options) *http.Client {
	base := &http.Client{Timeout: opts.Timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	var client *http.Client
	switch {
	case strings.TrimSpace(opts.TokenURL) != "" && opts.ClientID != "":
		cc := &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
			Scopes:       opts.Scopes,
		}
		client = cc.Client(ctx)
	case strings.TrimSpace(opts.Token) != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
		client = oauth2.NewClient(ctx, ts)
	default:
		return base
	}
	client.Timeout = opts.Timeout
	return client
}
