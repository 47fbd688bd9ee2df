// Package catalog is a small Spotify Web API client covering the calls the
// statistics and collection features need: top tracks, top artists and album
// search for the signed-in user.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ademuri/vinylvault/internal/apperr"
)

const (
	DefaultBaseURL    = "https://api.spotify.com/v1"
	DefaultTrackLimit = 50

	// One retry at most: a transient failure gets a second attempt, then the
	// caller sees the error.
	maxAttempts = 2
)

// TokenSource supplies the current access token, "" when signed out.
type TokenSource interface {
	AccessToken() string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	retryDelay time.Duration
	log        zerolog.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 2),
		retryDelay: 500 * time.Millisecond,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TopTracks returns the user's most played tracks for window, rank 0 first.
func (c *Client) TopTracks(ctx context.Context, window TimeRange, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = DefaultTrackLimit
	}
	params := url.Values{
		"limit":      []string{strconv.Itoa(limit)},
		"time_range": []string{string(window)},
	}

	var resp itemsResponse[Track]
	if err := c.get(ctx, "me/top/tracks", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching top tracks: %w", err)
	}
	return resp.Items, nil
}

// TopArtists returns the user's most played artists for window, rank 0 first.
func (c *Client) TopArtists(ctx context.Context, window TimeRange) ([]Artist, error) {
	params := url.Values{
		"time_range": []string{string(window)},
	}

	var resp itemsResponse[Artist]
	if err := c.get(ctx, "me/top/artists", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching top artists: %w", err)
	}
	return resp.Items, nil
}

// SearchAlbums returns albums matching query. An empty query returns nothing
// without calling the API.
func (c *Client) SearchAlbums(ctx context.Context, query string) ([]Album, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	params := url.Values{
		"q":    []string{query},
		"type": []string{"album"},
	}

	var resp searchResponse
	if err := c.get(ctx, "search", params, &resp); err != nil {
		return nil, fmt.Errorf("searching albums: %w", err)
	}
	return resp.Albums.Items, nil
}

// Album looks up a single album by id.
func (c *Client) Album(ctx context.Context, id string) (Album, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Album{}, fmt.Errorf("album id is required")
	}

	var album Album
	if err := c.get(ctx, "albums/"+url.PathEscape(id), nil, &album); err != nil {
		return Album{}, fmt.Errorf("fetching album %s: %w", id, err)
	}
	return album, nil
}

type transientError struct {
	err error
}

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var t transientError
	return errors.As(err, &t)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	token := c.tokens.AccessToken()
	if token == "" {
		return apperr.ErrUnauthenticated
	}

	var body []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("waiting for rate limiter: %w", err)
			}
			var err error
			body, err = c.do(ctx, token, endpoint, params)
			return err
		},
		retry.Attempts(maxAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn().Err(err).Str("endpoint", endpoint).Uint("attempt", n+1).Msg("spotify request failed, retrying")
		}),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", apperr.ErrDecode, endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, token, endpoint string, params url.Values) ([]byte, error) {
	apiURL := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", apperr.ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrTransport, err)
		}
		return nil, transientError{fmt.Errorf("%w: sending request: %v", apperr.ErrTransport, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transientError{fmt.Errorf("%w: reading response: %v", apperr.ErrTransport, err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: spotify rejected the access token: %s", apperr.ErrUnauthenticated, resp.Status)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, endpoint)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5:
		return nil, transientError{fmt.Errorf("%w: spotify api error: %s - %s", apperr.ErrTransport, resp.Status, string(body))}
	default:
		return nil, fmt.Errorf("%w: spotify api error: %s - %s", apperr.ErrTransport, resp.Status, string(body))
	}
}
