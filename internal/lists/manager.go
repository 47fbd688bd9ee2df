// Package lists manages the user's named album lists. Lists hold album ids
// only; whether an album still exists is the collection's business.
package lists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ademuri/vinylvault/internal/apperr"
	"github.com/ademuri/vinylvault/internal/broadcast"
	"github.com/ademuri/vinylvault/internal/kv"
)

const StorageKey = "albumLists"

// DefaultListNames are created on first run.
var DefaultListNames = []string{"Favorites", "Chill", "Workout"}

var ErrListNotFound = fmt.Errorf("album list %w", apperr.ErrNotFound)

type AlbumList struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	AlbumIDs []string `json:"albumIds"`
}

func (l AlbumList) Contains(albumID string) bool {
	for _, id := range l.AlbumIDs {
		if id == albumID {
			return true
		}
	}
	return false
}

func (l AlbumList) clone() AlbumList {
	l.AlbumIDs = append([]string{}, l.AlbumIDs...)
	return l
}

// Manager owns the album lists. Every mutation is written to the store
// before it becomes visible to readers, and before the call returns.
type Manager struct {
	store kv.Store
	log   zerolog.Logger
	newID func() string

	// writeMu serialises mutations; mu guards lists for readers.
	writeMu sync.Mutex
	mu      sync.RWMutex
	lists   []AlbumList

	listeners broadcast.Listeners[[]AlbumList]
}

func New(store kv.Store, log zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		log:   log.With().Str("component", "lists").Logger(),
		newID: uuid.NewString,
	}
}

// Load reads the lists from the store. On first run the default lists are
// created and saved. Undecodable data leaves no lists and returns an error
// wrapping apperr.ErrDecode; the manager stays usable.
func (m *Manager) Load(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	data, ok, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("loading album lists: %w", err)
	}

	if !ok {
		seeded := make([]AlbumList, 0, len(DefaultListNames))
		for _, name := range DefaultListNames {
			seeded = append(seeded, AlbumList{ID: m.newID(), Name: name, AlbumIDs: []string{}})
		}
		if err := m.save(ctx, seeded); err != nil {
			return err
		}
		m.swap(seeded)
		m.log.Debug().Int("lists", len(seeded)).Msg("seeded default album lists")
		return nil
	}

	var loaded []AlbumList
	if err := json.Unmarshal(data, &loaded); err != nil {
		m.swap(nil)
		m.log.Warn().Err(err).Str("key", StorageKey).Msg("stored album lists are corrupt, starting empty")
		return fmt.Errorf("%w: decoding album lists: %v", apperr.ErrDecode, err)
	}

	for i := range loaded {
		loaded[i].AlbumIDs = dedupe(loaded[i].AlbumIDs)
	}
	m.swap(loaded)
	return nil
}

// Lists returns a copy of every list in order.
func (m *Manager) Lists() []AlbumList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.lists)
}

func (m *Manager) Get(listID string) (AlbumList, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.lists {
		if l.ID == listID {
			return l.clone(), true
		}
	}
	return AlbumList{}, false
}

// FindByName returns the first list whose name matches, ignoring case.
func (m *Manager) FindByName(name string) (AlbumList, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.lists {
		if strings.EqualFold(l.Name, strings.TrimSpace(name)) {
			return l.clone(), true
		}
	}
	return AlbumList{}, false
}

// AddAlbum appends albumID to the list unless it is already a member.
func (m *Manager) AddAlbum(ctx context.Context, albumID, listID string) error {
	return m.mutate(ctx, func(lists []AlbumList) (bool, error) {
		i := indexOf(lists, listID)
		if i < 0 {
			return false, ErrListNotFound
		}
		if lists[i].Contains(albumID) {
			return false, nil
		}
		lists[i].AlbumIDs = append(lists[i].AlbumIDs, albumID)
		return true, nil
	})
}

// RemoveAlbum drops albumID from one list. Missing lists and non-members are
// no-ops.
func (m *Manager) RemoveAlbum(ctx context.Context, albumID, listID string) error {
	return m.mutate(ctx, func(lists []AlbumList) (bool, error) {
		i := indexOf(lists, listID)
		if i < 0 || !lists[i].Contains(albumID) {
			return false, nil
		}
		lists[i].AlbumIDs = without(lists[i].AlbumIDs, albumID)
		return true, nil
	})
}

// RemoveAlbumEverywhere drops albumID from every list with a single write.
func (m *Manager) RemoveAlbumEverywhere(ctx context.Context, albumID string) error {
	return m.mutate(ctx, func(lists []AlbumList) (bool, error) {
		for i := range lists {
			lists[i].AlbumIDs = without(lists[i].AlbumIDs, albumID)
		}
		return true, nil
	})
}

func (m *Manager) CreateList(ctx context.Context, name string) (AlbumList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return AlbumList{}, errors.New("list name is required")
	}

	created := AlbumList{ID: m.newID(), Name: name, AlbumIDs: []string{}}
	err := m.mutateWhole(ctx, func(lists []AlbumList) ([]AlbumList, bool, error) {
		return append(lists, created), true, nil
	})
	if err != nil {
		return AlbumList{}, err
	}
	return created.clone(), nil
}

func (m *Manager) RenameList(ctx context.Context, listID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("list name is required")
	}
	return m.mutate(ctx, func(lists []AlbumList) (bool, error) {
		i := indexOf(lists, listID)
		if i < 0 {
			return false, ErrListNotFound
		}
		if lists[i].Name == name {
			return false, nil
		}
		lists[i].Name = name
		return true, nil
	})
}

// DeleteList removes a list. Deleting a missing list is a no-op.
func (m *Manager) DeleteList(ctx context.Context, listID string) error {
	return m.mutateWhole(ctx, func(lists []AlbumList) ([]AlbumList, bool, error) {
		i := indexOf(lists, listID)
		if i < 0 {
			return lists, false, nil
		}
		return append(lists[:i], lists[i+1:]...), true, nil
	})
}

// Prune removes ids for which exists returns false and reports how many
// memberships were dropped.
func (m *Manager) Prune(ctx context.Context, exists func(albumID string) bool) (int, error) {
	removed := 0
	err := m.mutate(ctx, func(lists []AlbumList) (bool, error) {
		for i := range lists {
			kept := lists[i].AlbumIDs[:0]
			for _, id := range lists[i].AlbumIDs {
				if exists(id) {
					kept = append(kept, id)
				} else {
					removed++
				}
			}
			lists[i].AlbumIDs = kept
		}
		return removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Subscribe registers fn to receive the lists after every change. The
// returned func unregisters it.
func (m *Manager) Subscribe(fn func([]AlbumList)) (cancel func()) {
	return m.listeners.Add(fn)
}

// mutate applies change to a copy of the lists in place, then saves and
// publishes the result when change reports a modification.
func (m *Manager) mutate(ctx context.Context, change func([]AlbumList) (bool, error)) error {
	return m.mutateWhole(ctx, func(lists []AlbumList) ([]AlbumList, bool, error) {
		changed, err := change(lists)
		return lists, changed, err
	})
}

func (m *Manager) mutateWhole(ctx context.Context, change func([]AlbumList) ([]AlbumList, bool, error)) error {
	changed, err := m.commit(ctx, change)
	if err != nil || !changed {
		return err
	}
	// Notify outside writeMu so subscribers may call back into the manager.
	m.listeners.Notify(m.Lists())
	return nil
}

func (m *Manager) commit(ctx context.Context, change func([]AlbumList) ([]AlbumList, bool, error)) (bool, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	next, changed, err := change(m.Lists())
	if err != nil || !changed {
		return false, err
	}

	if err := m.save(ctx, next); err != nil {
		return false, err
	}
	m.swap(next)
	return true, nil
}

func (m *Manager) save(ctx context.Context, lists []AlbumList) error {
	if lists == nil {
		lists = []AlbumList{}
	}
	data, err := json.Marshal(lists)
	if err != nil {
		return fmt.Errorf("encoding album lists: %w", err)
	}
	if err := m.store.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("saving album lists: %w", err)
	}
	return nil
}

func (m *Manager) swap(lists []AlbumList) {
	m.mu.Lock()
	m.lists = lists
	m.mu.Unlock()
}

func indexOf(lists []AlbumList, listID string) int {
	for i, l := range lists {
		if l.ID == listID {
			return i
		}
	}
	return -1
}

func without(ids []string, albumID string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != albumID {
			out = append(out, id)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func cloneAll(lists []AlbumList) []AlbumList {
	out := make([]AlbumList, len(lists))
	for i, l := range lists {
		out[i] = l.clone()
	}
	return out
}
