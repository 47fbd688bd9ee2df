package stats

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ademuri/vinylvault/internal/apperr"
	"github.com/ademuri/vinylvault/internal/catalog"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

// fakeCatalog returns canned data per window. A window listed in block waits
// on its channel before answering.
type fakeCatalog struct {
	tracks     map[catalog.TimeRange][]catalog.Track
	artists    map[catalog.TimeRange][]catalog.Artist
	tracksErr  error
	artistsErr error
	block      map[catalog.TimeRange]chan struct{}
	started    chan catalog.TimeRange

	calls int32
}

func (f *fakeCatalog) wait(window catalog.TimeRange) {
	if f.started != nil {
		f.started <- window
	}
	if ch, ok := f.block[window]; ok {
		<-ch
	}
}

func (f *fakeCatalog) TopTracks(_ context.Context, window catalog.TimeRange, limit int) ([]catalog.Track, error) {
	atomic.AddInt32(&f.calls, 1)
	f.wait(window)
	if f.tracksErr != nil {
		return nil, f.tracksErr
	}
	return f.tracks[window], nil
}

func (f *fakeCatalog) TopArtists(_ context.Context, window catalog.TimeRange) ([]catalog.Artist, error) {
	atomic.AddInt32(&f.calls, 1)
	f.wait(window)
	if f.artistsErr != nil {
		return nil, f.artistsErr
	}
	return f.artists[window], nil
}

func tracksNamed(albumID string, n int) []catalog.Track {
	out := make([]catalog.Track, n)
	for i := range out {
		out[i] = catalog.Track{
			ID:         albumID + "-track",
			Name:       "Track",
			Album:      catalog.Album{ID: albumID, Name: "Album " + albumID},
			DurationMs: 1000,
		}
	}
	return out
}

func TestFetchWithoutTokenMakesNoRequests(t *testing.T) {
	fake := &fakeCatalog{}
	a := New(fake, staticToken(""), zerolog.Nop())

	snap := a.Fetch(context.Background(), catalog.ShortTerm)

	if snap.State != Errored {
		t.Errorf("State = %v, want errored", snap.State)
	}
	if snap.Message != NotSignedInMessage {
		t.Errorf("Message = %q", snap.Message)
	}
	if !errors.Is(snap.Err(), apperr.ErrUnauthenticated) {
		t.Errorf("Err = %v", snap.Err())
	}
	if n := atomic.LoadInt32(&fake.calls); n != 0 {
		t.Errorf("made %d catalog calls, want 0", n)
	}
}

func TestFetchReady(t *testing.T) {
	fake := &fakeCatalog{
		tracks: map[catalog.TimeRange][]catalog.Track{
			catalog.MediumTerm: tracksNamed("x", 30),
		},
		artists: map[catalog.TimeRange][]catalog.Artist{
			catalog.MediumTerm: {{ID: "a", Name: "A", Genres: []string{"rock", "pop"}}},
		},
	}
	a := New(fake, staticToken("tok"), zerolog.Nop())
	if a.Snapshot().State != Idle {
		t.Fatalf("initial state = %v", a.Snapshot().State)
	}

	var states []State
	a.Subscribe(func(s Snapshot) { states = append(states, s.State) })

	snap := a.Fetch(context.Background(), catalog.MediumTerm)
	if snap.State != Ready || snap.Message != "" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Tracks) != 30 || len(snap.DisplayTracks()) != DisplayLimit {
		t.Errorf("tracks = %d, display = %d", len(snap.Tracks), len(snap.DisplayTracks()))
	}
	if got := a.AlbumScores(); len(got) != 1 || got[0].Album.ID != "x" {
		t.Errorf("AlbumScores = %+v", got)
	}
	if got := a.GenreScores(); len(got) != 2 || got[0].Score != 1.0 || got[1].Score != 1.0 {
		t.Errorf("GenreScores = %+v", got)
	}
	if len(states) != 2 || states[0] != Loading || states[1] != Ready {
		t.Errorf("states = %v, want [loading ready]", states)
	}
}

func TestFetchOneSideFails(t *testing.T) {
	fake := &fakeCatalog{
		artists: map[catalog.TimeRange][]catalog.Artist{
			catalog.ShortTerm: {{ID: "a", Name: "A", Genres: []string{"jazz"}}},
		},
		tracksErr: apperr.ErrTransport,
	}
	a := New(fake, staticToken("tok"), zerolog.Nop())

	snap := a.Fetch(context.Background(), catalog.ShortTerm)
	if snap.State != Ready {
		t.Errorf("State = %v, want ready", snap.State)
	}
	if !errors.Is(snap.TracksErr, apperr.ErrTransport) || snap.ArtistsErr != nil {
		t.Errorf("errors = %v, %v", snap.TracksErr, snap.ArtistsErr)
	}
	if len(snap.Tracks) != 0 || len(snap.Artists) != 1 {
		t.Errorf("tracks = %d, artists = %d", len(snap.Tracks), len(snap.Artists))
	}
	if snap.Message == "" {
		t.Errorf("missing failure message")
	}
}

func TestFetchBothFail(t *testing.T) {
	fake := &fakeCatalog{tracksErr: apperr.ErrTransport, artistsErr: apperr.ErrTransport}
	a := New(fake, staticToken("tok"), zerolog.Nop())

	if snap := a.Fetch(context.Background(), catalog.LongTerm); snap.State != Errored {
		t.Errorf("State = %v, want errored", snap.State)
	}
}

func TestFetchBothFailReportsEachError(t *testing.T) {
	fake := &fakeCatalog{
		tracksErr:  errors.New("tracks timed out"),
		artistsErr: errors.New("artists returned 502"),
	}
	a := New(fake, staticToken("tok"), zerolog.Nop())

	snap := a.Fetch(context.Background(), catalog.LongTerm)
	for _, want := range []string{"tracks timed out", "artists returned 502"} {
		if !strings.Contains(snap.Message, want) {
			t.Errorf("Message = %q, missing %q", snap.Message, want)
		}
	}
}

func TestFetchReplacesPreviousResults(t *testing.T) {
	fake := &fakeCatalog{
		tracks: map[catalog.TimeRange][]catalog.Track{
			catalog.ShortTerm: tracksNamed("short", 3),
			catalog.LongTerm:  tracksNamed("long", 1),
		},
	}
	a := New(fake, staticToken("tok"), zerolog.Nop())

	a.Fetch(context.Background(), catalog.ShortTerm)
	snap := a.Fetch(context.Background(), catalog.LongTerm)
	if len(snap.Tracks) != 1 || snap.Tracks[0].Album.ID != "long" {
		t.Errorf("tracks = %+v", snap.Tracks)
	}
}

func TestSupersededFetchIsDropped(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeCatalog{
		tracks: map[catalog.TimeRange][]catalog.Track{
			catalog.ShortTerm: tracksNamed("short", 2),
			catalog.LongTerm:  tracksNamed("long", 2),
		},
		block:   map[catalog.TimeRange]chan struct{}{catalog.ShortTerm: release},
		started: make(chan catalog.TimeRange, 4),
	}
	a := New(fake, staticToken("tok"), zerolog.Nop())

	var wg sync.WaitGroup
	var slow Snapshot
	wg.Add(1)
	go func() {
		defer wg.Done()
		slow = a.Fetch(context.Background(), catalog.ShortTerm)
	}()

	// Both short-term requests are in flight before the newer fetch starts.
	for i := 0; i < 2; i++ {
		select {
		case <-fake.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("short-term fetch never started")
		}
	}

	latest := a.Fetch(context.Background(), catalog.LongTerm)
	close(release)
	wg.Wait()

	final := a.Snapshot()
	if final.Window != catalog.LongTerm || final.Generation != latest.Generation {
		t.Errorf("final snapshot = window %s generation %d, want long_term %d", final.Window, final.Generation, latest.Generation)
	}
	if len(final.Tracks) != 2 || final.Tracks[0].Album.ID != "long" {
		t.Errorf("final tracks = %+v", final.Tracks)
	}
	if slow.Window != catalog.LongTerm {
		t.Errorf("superseded Fetch returned window %s, want the newer state", slow.Window)
	}
}
