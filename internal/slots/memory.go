package slots

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps slots in process. It backs local development and tests
// and evaluates the same filter contract as the database stores.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]Slot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: map[string][]Slot{}}
}

// Put appends slots to a collection.
func (m *MemoryStore) Put(collection string, slots ...Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[collection] = append(m.slots[collection], slots...)
}

func (m *MemoryStore) Query(ctx context.Context, collection string, filters []Filter, orderBy *OrderBy, limit int) ([]Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range filters {
		if _, ok := fieldValue(Slot{}, f.Field); !ok {
			return nil, fmt.Errorf("%w: field %q", ErrUnsupportedQuery, f.Field)
		}
	}
	if orderBy != nil {
		if _, ok := fieldValue(Slot{}, orderBy.Field); !ok {
			return nil, fmt.Errorf("%w: order field %q", ErrUnsupportedQuery, orderBy.Field)
		}
	}

	m.mu.RLock()
	var out []Slot
	for _, s := range m.slots[collection] {
		if matchesAll(s, filters) {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()

	if orderBy != nil {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := fieldValue(out[i], orderBy.Field)
			b, _ := fieldValue(out[j], orderBy.Field)
			c := compare(a, b)
			if orderBy.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesAll(s Slot, filters []Filter) bool {
	for _, f := range filters {
		got, _ := fieldValue(s, f.Field)
		c := compare(got, f.Value)
		var ok bool
		switch f.Op {
		case OpEq:
			ok = c == 0
		case OpGte:
			ok = c >= 0
		case OpLte:
			ok = c <= 0
		case OpGt:
			ok = c > 0
		case OpLt:
			ok = c < 0
		}
		if !ok {
			return false
		}
	}
	return true
}

func fieldValue(s Slot, field string) (any, bool) {
	switch field {
	case FieldDate:
		return s.Date, true
	case FieldTime:
		return s.Time, true
	case FieldState:
		return s.State, true
	case FieldStateAbbr:
		return s.StateAbbr, true
	case FieldProvider:
		return s.Provider, true
	case FieldProviderID:
		return s.ProviderID, true
	case FieldAppointmentID:
		return s.AppointmentID, true
	case FieldAvailable:
		return s.Available, true
	}
	return nil, false
}

// compare orders bools false<true and everything else as strings.
func compare(a, b any) int {
	if ab, ok := a.(bool); ok {
		bb, _ := b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
