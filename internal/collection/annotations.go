package collection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ademuri/vinylvault/internal/apperr"
	"github.com/ademuri/vinylvault/internal/catalog"
)

const MaxRating = 5.0

var ErrInvalidRating = errors.New("rating must be between 0 and 5")

func RatingKey(albumID string) string { return "rating:" + albumID }
func NotesKey(albumID string) string  { return "notes:" + albumID }

// CollectedAlbum is an album together with the user's rating and notes.
type CollectedAlbum struct {
	catalog.Album
	Rating float64
	Notes  string
}

// Rating returns the album's rating, 0 when unrated.
func (s *Store) Rating(ctx context.Context, albumID string) (float64, error) {
	data, ok, err := s.kv.Get(ctx, RatingKey(albumID))
	if err != nil {
		return 0, fmt.Errorf("loading rating for %s: %w", albumID, err)
	}
	if !ok {
		return 0, nil
	}
	rating, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		s.log.Warn().Err(err).Str("album", albumID).Msg("stored rating is corrupt")
		return 0, fmt.Errorf("%w: rating for %s: %v", apperr.ErrDecode, albumID, err)
	}
	return rating, nil
}

// SetRating stores rating rounded to the nearest half point. A rating of 0
// clears it.
func (s *Store) SetRating(ctx context.Context, albumID string, rating float64) error {
	if math.IsNaN(rating) || rating < 0 || rating > MaxRating {
		return fmt.Errorf("%w: got %v", ErrInvalidRating, rating)
	}

	rating = math.Round(rating*2) / 2
	return s.whileCollected(albumID, func() error {
		if rating == 0 {
			if err := s.kv.Delete(ctx, RatingKey(albumID)); err != nil {
				return fmt.Errorf("clearing rating for %s: %w", albumID, err)
			}
			return nil
		}

		value := strconv.FormatFloat(rating, 'f', 1, 64)
		if err := s.kv.Set(ctx, RatingKey(albumID), []byte(value)); err != nil {
			return fmt.Errorf("saving rating for %s: %w", albumID, err)
		}
		return nil
	})
}

// whileCollected runs write with writeMu held, after checking that albumID is
// collected. Delete removes the record under the same lock before it clears
// annotation keys, so no write can land after that cleanup.
func (s *Store) whileCollected(albumID string, write func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !s.Contains(albumID) {
		return ErrAlbumNotFound
	}
	return write()
}

// Notes returns the album's notes, including an edit still waiting in the
// debounce timer.
func (s *Store) Notes(ctx context.Context, albumID string) (string, error) {
	s.notesMu.Lock()
	p, ok := s.pending[albumID]
	s.notesMu.Unlock()
	if ok {
		return p.text, nil
	}

	data, ok, err := s.kv.Get(ctx, NotesKey(albumID))
	if err != nil {
		return "", fmt.Errorf("loading notes for %s: %w", albumID, err)
	}
	if !ok {
		return "", nil
	}
	return string(data), nil
}

// SetNotes writes the album's notes now, replacing any pending debounced edit.
// Empty notes clear the entry.
func (s *Store) SetNotes(ctx context.Context, albumID, text string) error {
	s.cancelPendingNote(albumID)
	return s.writeNotes(ctx, albumID, text)
}

func (s *Store) writeNotes(ctx context.Context, albumID, text string) error {
	return s.whileCollected(albumID, func() error {
		return s.putNotes(ctx, albumID, text)
	})
}

func (s *Store) putNotes(ctx context.Context, albumID, text string) error {
	if text == "" {
		if err := s.kv.Delete(ctx, NotesKey(albumID)); err != nil {
			return fmt.Errorf("clearing notes for %s: %w", albumID, err)
		}
		return nil
	}
	if err := s.kv.Set(ctx, NotesKey(albumID), []byte(text)); err != nil {
		return fmt.Errorf("saving notes for %s: %w", albumID, err)
	}
	return nil
}

type pendingNote struct {
	text  string
	seq   uint64
	timer *time.Timer
}

// SetNotesDebounced records an edit and writes it once no further edit for
// the same album arrives within the configured delay. Each call restarts the
// timer, so a burst of edits produces a single write of the last text. It
// returns ErrAlbumNotFound for an album that isn't collected; an edit whose
// album is deleted before the write is dropped.
func (s *Store) SetNotesDebounced(albumID, text string) error {
	if !s.Contains(albumID) {
		return ErrAlbumNotFound
	}

	s.notesMu.Lock()
	defer s.notesMu.Unlock()

	p, ok := s.pending[albumID]
	if !ok {
		p = &pendingNote{}
		s.pending[albumID] = p
	} else {
		p.timer.Stop()
	}
	p.text = text
	p.seq++
	seq := p.seq
	p.timer = time.AfterFunc(s.notesDelay, func() {
		s.firePendingNote(albumID, seq)
	})
	return nil
}

func (s *Store) firePendingNote(albumID string, seq uint64) {
	s.notesMu.Lock()
	p, ok := s.pending[albumID]
	if !ok || p.seq != seq {
		s.notesMu.Unlock()
		return
	}
	delete(s.pending, albumID)
	s.notesMu.Unlock()

	err := s.writeNotes(context.Background(), albumID, p.text)
	if errors.Is(err, ErrAlbumNotFound) {
		s.log.Debug().Str("album", albumID).Msg("dropping notes for an album no longer collected")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("album", albumID).Msg("debounced notes write failed")
	}
}

func (s *Store) cancelPendingNote(albumID string) {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	if p, ok := s.pending[albumID]; ok {
		p.timer.Stop()
		delete(s.pending, albumID)
	}
}

// Flush writes every pending debounced edit immediately.
func (s *Store) Flush(ctx context.Context) error {
	s.notesMu.Lock()
	pending := s.pending
	s.pending = make(map[string]*pendingNote)
	for _, p := range pending {
		p.timer.Stop()
	}
	s.notesMu.Unlock()

	var errs []error
	for albumID, p := range pending {
		err := s.writeNotes(ctx, albumID, p.text)
		if errors.Is(err, ErrAlbumNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Collected returns every album with its rating and notes, in collection
// order.
func (s *Store) Collected(ctx context.Context) ([]CollectedAlbum, error) {
	albums := s.Albums()
	out := make([]CollectedAlbum, 0, len(albums))
	for _, album := range albums {
		rating, err := s.Rating(ctx, album.ID)
		if err != nil && !errors.Is(err, apperr.ErrDecode) {
			return nil, err
		}
		notes, err := s.Notes(ctx, album.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CollectedAlbum{Album: album, Rating: rating, Notes: notes})
	}
	return out, nil
}

// Ratings returns the rating of every collected album, unrated ones as 0.
func (s *Store) Ratings(ctx context.Context) ([]float64, error) {
	collected, err := s.Collected(ctx)
	if err != nil {
		return nil, err
	}
	ratings := make([]float64, len(collected))
	for i, c := range collected {
		ratings[i] = c.Rating
	}
	return ratings, nil
}
