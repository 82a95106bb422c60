package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/voyagen/m3uvault/internal/models"
)

// Memory is an in-process Store. It backs the server when no database is
// configured and doubles as the store in tests.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	sources map[int64]*models.Source
	entries map[int64][]models.StoredEntry
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		sources: make(map[int64]*models.Source),
		entries: make(map[int64][]models.StoredEntry),
	}
}

func (m *Memory) CreateOrGetSource(_ context.Context, name, url string, sourceType int16) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		if s.Name == name {
			s.URL = url
			s.SourceType = sourceType
			return s.ID, nil
		}
	}
	m.nextID++
	now := time.Now().UTC()
	m.sources[m.nextID] = &models.Source{
		ID:          m.nextID,
		Name:        name,
		URL:         url,
		SourceType:  sourceType,
		HeaderAttrs: map[string]string{},
		CreatedAt:   &now,
	}
	return m.nextID, nil
}

func (m *Memory) GetSource(_ context.Context, sourceID int64) (*models.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sources[sourceID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m *Memory) ListSources(_ context.Context) ([]models.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Source, 0, len(m.sources))
	for _, s := range m.sources {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) DeleteSource(_ context.Context, sourceID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[sourceID]; !ok {
		return ErrNotFound
	}
	delete(m.sources, sourceID)
	delete(m.entries, sourceID)
	return nil
}

func (m *Memory) ReplaceEntries(_ context.Context, sourceID int64, pl *models.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[sourceID]
	if !ok {
		return ErrNotFound
	}
	base := sourceID << 32
	stored := make([]models.StoredEntry, len(pl.Items))
	for i, e := range pl.Items {
		stored[i] = models.StoredEntry{ID: base + int64(i) + 1, SourceID: sourceID, Position: i, Entry: e}
	}
	m.entries[sourceID] = stored

	now := time.Now().UTC()
	s.HeaderRaw = pl.Header.Raw
	s.HeaderAttrs = headerAttrs(pl.Header)
	s.EntryCount = len(pl.Items)
	s.LastUpdated = &now
	return nil
}

func (m *Memory) ListEntries(_ context.Context, filter EntryFilter) ([]models.StoredEntry, int, error) {
	f := filter.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var matched []models.StoredEntry
	for _, e := range m.entries[f.SourceID] {
		if f.Group != nil && e.Group.Title != *f.Group {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Name), search) {
			continue
		}
		if f.CompleteOnly && !e.HasURL() {
			continue
		}
		matched = append(matched, e)
	}
	total := len(matched)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return matched[f.Offset:end], total, nil
}

func (m *Memory) ListGroups(_ context.Context, sourceID int64) ([]models.GroupCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.GroupCount
	index := make(map[string]int)
	for _, e := range m.entries[sourceID] {
		t := e.Group.Title
		if t == "" {
			continue
		}
		if i, ok := index[t]; ok {
			out[i].Entries++
			continue
		}
		index[t] = len(out)
		out = append(out, models.GroupCount{Title: t, Entries: 1})
	}
	return out, nil
}
