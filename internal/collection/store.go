// Package collection owns the user's collected albums and their ratings and
// notes.
//
// The album records are stored together under one key. Ratings and notes are
// stored per album under keys derived from the album id, so the album record
// itself never carries them.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ademuri/vinylvault/internal/apperr"
	"github.com/ademuri/vinylvault/internal/broadcast"
	"github.com/ademuri/vinylvault/internal/catalog"
	"github.com/ademuri/vinylvault/internal/kv"
)

const (
	StorageKey = "savedAlbums"

	// DefaultNotesDelay is how long SetNotesDebounced waits for further edits
	// before writing.
	DefaultNotesDelay = 500 * time.Millisecond
)

var (
	// ErrAlreadyAdded reports an attempt to add an album that is already in the
	// collection.
	ErrAlreadyAdded = errors.New("album is already in your collection")

	ErrAlbumNotFound = fmt.Errorf("album %w", apperr.ErrNotFound)
)

// ListPruner removes an album id from every album list. The list manager
// implements it.
type ListPruner interface {
	RemoveAlbumEverywhere(ctx context.Context, albumID string) error
}

type Option func(*Store)

// WithNotesDelay sets the quiet period for SetNotesDebounced.
func WithNotesDelay(d time.Duration) Option {
	return func(s *Store) {
		s.notesDelay = d
	}
}

type Store struct {
	kv         kv.Store
	pruner     ListPruner
	log        zerolog.Logger
	notesDelay time.Duration

	// writeMu serialises mutations; mu guards albums for readers.
	writeMu sync.Mutex
	mu      sync.RWMutex
	albums  []catalog.Album

	notesMu sync.Mutex
	pending map[string]*pendingNote

	listeners broadcast.Listeners[[]catalog.Album]
}

func New(store kv.Store, pruner ListPruner, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:         store,
		pruner:     pruner,
		log:        log.With().Str("component", "collection").Logger(),
		notesDelay: DefaultNotesDelay,
		pending:    make(map[string]*pendingNote),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the collection from the store. Undecodable data leaves the
// collection empty and returns an error wrapping apperr.ErrDecode; the store
// remains usable.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("loading collection: %w", err)
	}
	if !ok {
		s.swap(nil)
		return nil
	}

	var loaded []catalog.Album
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.swap(nil)
		s.log.Warn().Err(err).Str("key", StorageKey).Msg("stored collection is corrupt, starting empty")
		return fmt.Errorf("%w: decoding collection: %v", apperr.ErrDecode, err)
	}

	unique := make([]catalog.Album, 0, len(loaded))
	for _, album := range loaded {
		if indexOf(unique, album.ID) < 0 {
			unique = append(unique, album)
		}
	}
	s.swap(unique)
	s.log.Debug().Int("albums", len(unique)).Msg("loaded collection")
	return nil
}

// Close writes any pending debounced notes.
func (s *Store) Close() error {
	return s.Flush(context.Background())
}

// Albums returns a copy of the collection in the order albums were added.
func (s *Store) Albums() []catalog.Album {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.albums)
}

func (s *Store) Get(albumID string) (catalog.Album, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.albums, albumID); i >= 0 {
		return clone(s.albums[i]), true
	}
	return catalog.Album{}, false
}

func (s *Store) Contains(albumID string) bool {
	_, ok := s.Get(albumID)
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.albums)
}

// Add appends album and saves the collection. It returns false without
// writing anything when an album with the same id is already collected.
func (s *Store) Add(ctx context.Context, album catalog.Album) (bool, error) {
	added, err := s.addRecord(ctx, album)
	if err != nil || !added {
		return false, err
	}
	s.publish()
	return true, nil
}

func (s *Store) addRecord(ctx context.Context, album catalog.Album) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.Albums()
	if indexOf(current, album.ID) >= 0 {
		return false, nil
	}

	next := append(current, clone(album))
	if err := s.save(ctx, next); err != nil {
		return false, err
	}
	s.swap(next)
	return true, nil
}

// Delete removes the album, then removes it from every list and drops its
// rating and notes. Deleting an album that isn't collected does nothing.
func (s *Store) Delete(ctx context.Context, albumID string) error {
	removed, err := s.deleteRecord(ctx, albumID)
	if err != nil || !removed {
		return err
	}
	s.publish()

	s.cancelPendingNote(albumID)

	if s.pruner != nil {
		if err := s.pruner.RemoveAlbumEverywhere(ctx, albumID); err != nil {
			return fmt.Errorf("removing %s from lists: %w", albumID, err)
		}
	}
	if err := s.kv.Delete(ctx, RatingKey(albumID)); err != nil {
		return fmt.Errorf("deleting rating for %s: %w", albumID, err)
	}
	if err := s.kv.Delete(ctx, NotesKey(albumID)); err != nil {
		return fmt.Errorf("deleting notes for %s: %w", albumID, err)
	}
	return nil
}

func (s *Store) deleteRecord(ctx context.Context, albumID string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.Albums()
	i := indexOf(current, albumID)
	if i < 0 {
		return false, nil
	}

	next := append(current[:i], current[i+1:]...)
	if err := s.save(ctx, next); err != nil {
		return false, err
	}
	s.swap(next)
	return true, nil
}

// Save writes the whole collection under StorageKey in a single Set.
func (s *Store) Save(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.save(ctx, s.Albums())
}

// Subscribe registers fn to receive the collection after every change. The
// returned func unregisters it.
func (s *Store) Subscribe(fn func([]catalog.Album)) (cancel func()) {
	return s.listeners.Add(fn)
}

func (s *Store) save(ctx context.Context, albums []catalog.Album) error {
	if albums == nil {
		albums = []catalog.Album{}
	}
	data, err := json.Marshal(albums)
	if err != nil {
		return fmt.Errorf("encoding collection: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("saving collection: %w", err)
	}
	return nil
}

// publish sends the current collection to subscribers. Callers must not hold
// writeMu, so a subscriber may itself mutate the store.
func (s *Store) publish() {
	s.listeners.Notify(s.Albums())
}

func (s *Store) swap(albums []catalog.Album) {
	s.mu.Lock()
	s.albums = albums
	s.mu.Unlock()
}

func indexOf(albums []catalog.Album, albumID string) int {
	for i, a := range albums {
		if a.ID == albumID {
			return i
		}
	}
	return -1
}

func clone(a catalog.Album) catalog.Album {
	a.Images = append([]catalog.Image{}, a.Images...)
	if a.ExternalURLs != nil {
		urls := make(map[string]string, len(a.ExternalURLs))
		for k, v := range a.ExternalURLs {
			urls[k] = v
		}
		a.ExternalURLs = urls
	}
	return a
}

func cloneAll(albums []catalog.Album) []catalog.Album {
	out := make([]catalog.Album, len(albums))
	for i, a := range albums {
		out[i] = clone(a)
	}
	return out
}
