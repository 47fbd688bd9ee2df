// Package auth keeps the Spotify access token between runs.
//
// Obtaining the token (the implicit-grant browser redirect) happens outside
// this tool; AuthorizeURL builds the page to open, and SignIn stores the
// token copied from the redirect fragment.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/ademuri/vinylvault/internal/kv"
)

const (
	TokenKey     = "spotifyAccessToken"
	authorizeURL = "https://accounts.spotify.com/authorize"

	// DefaultScope covers the top tracks and top artists endpoints.
	DefaultScope = "user-top-read user-read-private"
)

type Credentials struct {
	store kv.Store

	mu    sync.RWMutex
	token string
}

func NewCredentials(store kv.Store) *Credentials {
	return &Credentials{store: store}
}

// Load reads the stored token, if any.
func (c *Credentials) Load(ctx context.Context) error {
	value, ok, err := c.store.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("loading access token: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.token = string(value)
	} else {
		c.token = ""
	}
	return nil
}

// AccessToken returns the current token, "" when signed out.
func (c *Credentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Credentials) SignedIn() bool {
	return c.AccessToken() != ""
}

// SignIn stores token. It accepts either the bare token or the full redirect
// URL / fragment containing access_token=.
func (c *Credentials) SignIn(ctx context.Context, token string) error {
	token = ExtractToken(token)
	if token == "" {
		return fmt.Errorf("empty access token")
	}

	if err := c.store.Set(ctx, TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

func (c *Credentials) SignOut(ctx context.Context) error {
	if err := c.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("clearing access token: %w", err)
	}

	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return nil
}

// AuthorizeURL returns the implicit-grant sign-in page for clientID.
func AuthorizeURL(clientID, redirectURI, scope string) string {
	params := url.Values{
		"client_id":     []string{clientID},
		"response_type": []string{"token"},
		"redirect_uri":  []string{redirectURI},
		"scope":         []string{scope},
		"show_dialog":   []string{"true"},
	}
	return authorizeURL + "?" + params.Encode()
}

// ExtractToken pulls access_token out of a redirect URL or fragment. Input
// without one is returned trimmed, as a bare token.
func ExtractToken(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "access_token=") {
		return s
	}
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[i+1:]
	}
	values, err := url.ParseQuery(s)
	if err != nil {
		return ""
	}
	return values.Get("access_token")
}
