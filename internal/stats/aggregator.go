// Package stats fetches the user's top tracks and top artists for a time
// window and derives album and genre scores from them.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ademuri/vinylvault/internal/apperr"
	"github.com/ademuri/vinylvault/internal/broadcast"
	"github.com/ademuri/vinylvault/internal/catalog"
	"github.com/ademuri/vinylvault/internal/weighting"
)

const (
	// DisplayLimit caps the track list shown to the user.
	DisplayLimit = 20

	NotSignedInMessage = "You are not signed in to Spotify."
)

// Catalog is the part of the catalog client the aggregator uses.
type Catalog interface {
	TopTracks(ctx context.Context, window catalog.TimeRange, limit int) ([]catalog.Track, error)
	TopArtists(ctx context.Context, window catalog.TimeRange) ([]catalog.Artist, error)
}

type State int

const (
	Idle State = iota
	Loading
	Ready
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is the aggregator's state at one point in time. Callers must not
// modify its slices.
type Snapshot struct {
	State      State
	Window     catalog.TimeRange
	Generation uint64

	Tracks  []catalog.Track
	Artists []catalog.Artist

	TracksErr  error
	ArtistsErr error

	// Message is a user-facing summary when something failed.
	Message string
}

// DisplayTracks returns the first DisplayLimit tracks.
func (s Snapshot) DisplayTracks() []catalog.Track {
	if len(s.Tracks) > DisplayLimit {
		return s.Tracks[:DisplayLimit]
	}
	return s.Tracks
}

func (s Snapshot) AlbumScores() []weighting.AlbumScore {
	return weighting.AlbumScores(s.Tracks)
}

func (s Snapshot) GenreScores() []weighting.GenreScore {
	return weighting.GenreScores(s.Artists)
}

// Err returns the fetch errors joined, or nil.
func (s Snapshot) Err() error {
	return errors.Join(s.TracksErr, s.ArtistsErr)
}

type Option func(*Aggregator)

// WithTrackLimit sets how many top tracks are requested.
func WithTrackLimit(n int) Option {
	return func(a *Aggregator) {
		a.trackLimit = n
	}
}

// Aggregator runs statistics fetches. Each Fetch supersedes the ones before
// it; a slow response from an older fetch is dropped rather than overwriting
// newer results.
type Aggregator struct {
	client     Catalog
	creds      catalog.TokenSource
	log        zerolog.Logger
	trackLimit int

	mu         sync.RWMutex
	generation uint64
	current    Snapshot

	listeners broadcast.Listeners[Snapshot]
}

func New(client Catalog, creds catalog.TokenSource, log zerolog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		client:     client,
		creds:      creds,
		log:        log.With().Str("component", "stats").Logger(),
		trackLimit: catalog.DefaultTrackLimit,
		current:    Snapshot{State: Idle, Window: catalog.MediumTerm},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch loads top tracks and top artists for window concurrently and waits
// for both. It returns the aggregator's state afterwards, which belongs to a
// newer fetch if one was started in the meantime.
//
// Without an access token it moves straight to Errored and makes no requests.
func (a *Aggregator) Fetch(ctx context.Context, window catalog.TimeRange) Snapshot {
	if a.creds == nil || a.creds.AccessToken() == "" {
		a.mu.Lock()
		a.generation++
		snap := Snapshot{
			State:      Errored,
			Window:     window,
			Generation: a.generation,
			TracksErr:  apperr.ErrUnauthenticated,
			ArtistsErr: apperr.ErrUnauthenticated,
			Message:    NotSignedInMessage,
		}
		a.current = snap
		a.mu.Unlock()

		a.listeners.Notify(snap)
		return snap
	}

	a.mu.Lock()
	a.generation++
	gen := a.generation
	loading := a.current
	loading.State = Loading
	loading.Window = window
	loading.Generation = gen
	a.current = loading
	a.mu.Unlock()
	a.listeners.Notify(loading)

	var (
		tracks     []catalog.Track
		artists    []catalog.Artist
		tracksErr  error
		artistsErr error
	)

	// Neither goroutine returns an error, so both always run to completion.
	var g errgroup.Group
	g.Go(func() error {
		tracks, tracksErr = a.client.TopTracks(ctx, window, a.trackLimit)
		return nil
	})
	g.Go(func() error {
		artists, artistsErr = a.client.TopArtists(ctx, window)
		return nil
	})
	g.Wait()

	result := Snapshot{
		Window:     window,
		Generation: gen,
		Tracks:     tracks,
		Artists:    artists,
		TracksErr:  tracksErr,
		ArtistsErr: artistsErr,
	}
	if tracksErr != nil {
		result.Tracks = []catalog.Track{}
		a.log.Warn().Err(tracksErr).Str("window", string(window)).Msg("fetching top tracks failed")
	}
	if artistsErr != nil {
		result.Artists = []catalog.Artist{}
		a.log.Warn().Err(artistsErr).Str("window", string(window)).Msg("fetching top artists failed")
	}

	switch {
	case tracksErr != nil && artistsErr != nil:
		result.State = Errored
		result.Message = failureMessage(tracksErr, artistsErr)
	case tracksErr != nil || artistsErr != nil:
		result.State = Ready
		result.Message = failureMessage(tracksErr, artistsErr)
	default:
		result.State = Ready
	}

	a.mu.Lock()
	if gen != a.generation {
		current := a.current
		a.mu.Unlock()
		a.log.Debug().Uint64("generation", gen).Uint64("current", current.Generation).Msg("dropping superseded statistics")
		return current
	}
	a.current = result
	a.mu.Unlock()

	a.log.Debug().
		Str("window", string(window)).
		Int("tracks", len(result.Tracks)).
		Int("artists", len(result.Artists)).
		Str("state", result.State.String()).
		Msg("statistics fetched")
	a.listeners.Notify(result)
	return result
}

// Snapshot returns the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// AlbumScores recomputes album scores from the current tracks.
func (a *Aggregator) AlbumScores() []weighting.AlbumScore {
	return a.Snapshot().AlbumScores()
}

// GenreScores recomputes genre scores from the current artists.
func (a *Aggregator) GenreScores() []weighting.GenreScore {
	return a.Snapshot().GenreScores()
}

// Subscribe registers fn to receive every state change, including the move
// to Loading. The returned func unregisters it.
func (a *Aggregator) Subscribe(fn func(Snapshot)) (cancel func()) {
	return a.listeners.Add(fn)
}

func failureMessage(tracksErr, artistsErr error) string {
	if errors.Is(tracksErr, apperr.ErrUnauthenticated) || errors.Is(artistsErr, apperr.ErrUnauthenticated) {
		return NotSignedInMessage
	}
	switch {
	case tracksErr != nil && artistsErr != nil:
		return fmt.Sprintf("Failed to load top tracks and artists: tracks: %v; artists: %v", tracksErr, artistsErr)
	case tracksErr != nil:
		return fmt.Sprintf("Failed to load top tracks: %v", tracksErr)
	default:
		return fmt.Sprintf("Failed to load top artists: %v", artistsErr)
	}
}
