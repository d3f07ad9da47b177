package vocabulary

import (
	"context"
	"strings"
	"sync"

	"recruit-backend/internal/shared/auth"
)

// MemorySource is an in-memory Source used in dev mode and tests.
type MemorySource struct {
	mu     sync.RWMutex
	values map[Dimension][]Value
	nextID int64
	failOn map[Dimension]error
}

// NewMemorySource returns a source seeded with names per dimension.
func NewMemorySource(seed map[Dimension][]string) *MemorySource {
	s := &MemorySource{values: make(map[Dimension][]Value), failOn: make(map[Dimension]error)}
	for _, dim := range Dimensions {
		for _, name := range seed[dim] {
			s.Add(dim, name)
		}
	}
	return s
}

// Add inserts a value and returns its id.
func (s *MemorySource) Add(d Dimension, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.values[d] = append(s.values[d], Value{ID: s.nextID, Name: strings.TrimSpace(name)})
	return s.nextID
}

// Rename changes the name of an existing value.
func (s *MemorySource) Rename(d Dimension, id int64, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.values[d] {
		if s.values[d][i].ID == id {
			s.values[d][i].Name = name
			return true
		}
	}
	return false
}

// FailOn makes reads of d return err. A nil err clears the failure.
func (s *MemorySource) FailOn(d Dimension, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failOn, d)
		return
	}
	s.failOn[d] = err
}

// Dimension returns a copy of the values of d.
func (s *MemorySource) Dimension(ctx context.Context, _ auth.Principal, d Dimension) ([]Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failOn[d]; err != nil {
		return nil, err
	}
	out := make([]Value, len(s.values[d]))
	copy(out, s.values[d])
	return out, nil
}

// DefaultSeed is the reference data used by the in-memory dev backend.
func DefaultSeed() map[Dimension][]string {
	return map[Dimension][]string{
		City:     {"Beijing", "Shanghai", "Shenzhen", "Hangzhou", "Guangzhou", "Chengdu"},
		Level:    {"Intern", "Junior", "Mid", "Senior", "Lead", "Principal"},
		Industry: {"Internet", "Finance", "Education", "Healthcare", "Manufacturing", "E-commerce"},
		Degree:   {"High School", "Associate", "Bachelor", "Master", "PhD"},
		Skill:    {"Go", "Java", "Python", "JavaScript", "TypeScript", "SQL", "Kubernetes", "React", "Docker", "Redis"},
	}
}

// NameOf returns the current name of id in d.
func (s *MemorySource) NameOf(d Dimension, id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, val := range s.values[d] {
		if val.ID == id {
			return val.Name, true
		}
	}
	return "", false
}

var _ Source = (*MemorySource)(nil)
