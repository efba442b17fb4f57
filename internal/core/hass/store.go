package hass

import (
	"sort"
	"strings"
	"sync"

	"github.com/berfenger/tdsflow/pkg/display"
)

// StateStore is the read side of the host entity registry. A missing
// entity is an expected answer, not an error.
type StateStore interface {
	Reading(entityID string) (*display.Reading, bool)
	EntityIDs() []string
}

type Store struct {
	mu       sync.RWMutex
	readings map[string]display.Reading
}

var _ StateStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		readings: make(map[string]display.Reading),
	}
}

// Reading returns a copy of the entity reading.
func (s *Store) Reading(entityID string) (*display.Reading, bool) {
	if entityID == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readings[entityID]
	if !ok {
		return nil, false
	}
	if r.Precision != nil {
		p := *r.Precision
		r.Precision = &p
	}
	return &r, true
}

func (s *Store) EntityIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.readings))
	for id := range s.readings {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func FilterDomain(entityIDs []string, domain string) []string {
	prefix := domain + "."
	var out []string
	for _, id := range entityIDs {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Store) SetState(entityID, state string) {
	s.update(entityID, func(r *display.Reading) {
		r.State = state
	})
}

func (s *Store) SetUnit(entityID, unit string) {
	s.update(entityID, func(r *display.Reading) {
		r.Unit = unit
	})
}

func (s *Store) SetPrecision(entityID string, precision *int) {
	s.update(entityID, func(r *display.Reading) {
		r.Precision = precision
	})
}

func (s *Store) Put(reading display.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[reading.EntityID] = reading
}

func (s *Store) Remove(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.readings, entityID)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

func (s *Store) update(entityID string, fn func(*display.Reading)) {
	if entityID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.readings[entityID]
	if !ok {
		// attributes may arrive before the state, unknown until then
		r = display.Reading{EntityID: entityID, State: display.STATE_UNKNOWN}
	}
	fn(&r)
	s.readings[entityID] = r
}
