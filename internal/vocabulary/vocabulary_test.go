package vocabulary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/storage/db"
)

func TestResolverLoadsAllDimensions(t *testing.T) {
	src := NewMemorySource(DefaultSeed())
	vocab, err := NewResolver(src).Load(context.Background(), auth.Principal{UserID: "u1"})
	require.NoError(t, err)

	for _, dim := range Dimensions {
		require.NotEmpty(t, vocab.Values(dim), "dimension %s", dim)
	}
	require.Equal(t, DefaultSeed()[City], vocab.Names(City))

	id, ok := vocab.Lookup(City, "Shanghai")
	require.True(t, ok)
	name, ok := vocab.NameOf(City, id)
	require.True(t, ok)
	require.Equal(t, "Shanghai", name)
}

func TestResolverFailsWholeCallOnOneDimension(t *testing.T) {
	src := NewMemorySource(DefaultSeed())
	boom := errors.New("permission denied")
	src.FailOn(Degree, boom)

	vocab, err := NewResolver(src).Load(context.Background(), auth.Principal{})
	require.Nil(t, vocab)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "degrees")
}

func TestLookupExactThenCaseInsensitive(t *testing.T) {
	vocab := New(map[Dimension][]Value{
		Skill: {{ID: 1, Name: "Go"}, {ID: 2, Name: "go"}, {ID: 3, Name: "SQL"}},
	})

	id, ok := vocab.Lookup(Skill, "go")
	require.True(t, ok)
	require.Equal(t, int64(2), id)

	id, ok = vocab.Lookup(Skill, " sql ")
	require.True(t, ok)
	require.Equal(t, int64(3), id)

	require.Nil(t, vocab.Ref(Skill, "Rust"))
	require.Nil(t, vocab.Ref(City, ""))
}

func TestSnapshotIgnoresLaterRename(t *testing.T) {
	src := NewMemorySource(nil)
	jsID := src.Add(Skill, "JS")

	vocab, err := NewResolver(src).Load(context.Background(), auth.Principal{})
	require.NoError(t, err)

	require.True(t, src.Rename(Skill, jsID, "JavaScript"))

	id, ok := vocab.Lookup(Skill, "JS")
	require.True(t, ok)
	require.Equal(t, jsID, id)
	_, ok = vocab.Lookup(Skill, "JavaScript")
	require.False(t, ok)
}

func TestParseDimension(t *testing.T) {
	dim, err := ParseDimension("career_levels")
	require.NoError(t, err)
	require.Equal(t, Level, dim)

	_, err = ParseDimension("planets")
	require.Error(t, err)
}

func TestPGSourceReadsDimension(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mock.ExpectQuery("SELECT id, name FROM cities ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Beijing").AddRow(2, "Shanghai"))

	src := &PGSource{Scope: db.NewScope(sqlDB, nil)}
	values, err := src.Dimension(context.Background(), auth.Service(), City)
	require.NoError(t, err)
	require.Equal(t, []Value{{ID: 1, Name: "Beijing"}, {ID: 2, Name: "Shanghai"}}, values)
	require.NoError(t, mock.ExpectationsWereMet())
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls []time.Duration
	sets int
}

func (m *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return raw, nil
}

func (m *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls = append(m.ttls, ttl)
	m.sets++
	return nil
}

func TestCachedSourceReadsThroughOnce(t *testing.T) {
	src := NewMemorySource(DefaultSeed())
	cache := &mapCache{data: map[string][]byte{}}
	cached := &CachedSource{Source: src, Cache: cache, TTL: time.Minute}

	first, err := cached.Dimension(context.Background(), auth.Principal{}, Skill)
	require.NoError(t, err)

	src.FailOn(Skill, errors.New("db down"))
	second, err := cached.Dimension(context.Background(), auth.Principal{}, Skill)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, cache.sets)
}

func TestCachedSourceAlwaysSetsExpiry(t *testing.T) {
	cases := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{"configured", 90 * time.Second, 90 * time.Second},
		{"zero", 0, DefaultCacheTTL},
		{"negative", -time.Second, DefaultCacheTTL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache := &mapCache{data: map[string][]byte{}}
			cached := &CachedSource{Source: NewMemorySource(DefaultSeed()), Cache: cache, TTL: tc.ttl}

			_, err := cached.Dimension(context.Background(), auth.Principal{}, City)
			require.NoError(t, err)
			require.Equal(t, []time.Duration{tc.want}, cache.ttls)
		})
	}
}
