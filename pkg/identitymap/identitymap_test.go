package identitymap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hata-go/hata/internal/domain/shared"
)

type entity struct {
	id   shared.Snowflake
	name string
}

func TestMap_UpsertReturnsPrevious(t *testing.T) {
	m := New[*entity]("TEAMS", 10)

	first := &entity{id: 1, name: "first"}
	_, existed := m.Upsert(1, first)
	assert.False(t, existed)

	second := &entity{id: 1, name: "second"}
	previous, existed := m.Upsert(1, second)
	assert.True(t, existed)
	assert.Same(t, first, previous)

	got, ok := m.Get(1)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, m.Len())
}

func TestMap_GetOrCreate(t *testing.T) {
	m := New[*entity]("USERS", 10)

	calls := 0
	create := func() *entity {
		calls++
		return &entity{id: 7}
	}

	a, created := m.GetOrCreate(7, create)
	assert.True(t, created)
	b, created := m.GetOrCreate(7, create)
	assert.False(t, created)
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestMap_EvictsLeastRecentlyUsed(t *testing.T) {
	m := New[*entity]("GUILDS", 2)
	m.Upsert(1, &entity{id: 1})
	m.Upsert(2, &entity{id: 2})

	_, ok := m.Get(1)
	require.True(t, ok)

	m.Upsert(3, &entity{id: 3})

	assert.True(t, m.Contains(1))
	assert.False(t, m.Contains(2))
	assert.True(t, m.Contains(3))
	assert.Equal(t, []shared.Snowflake{1, 3}, m.Keys())
}

func TestMap_ResizeAndPurge(t *testing.T) {
	m := New[*entity]("SCHEDULED_EVENTS", 5)
	for i := 1; i <= 5; i++ {
		m.Upsert(shared.Snowflake(i), &entity{id: shared.Snowflake(i)})
	}

	assert.Equal(t, 3, m.Resize(2))
	assert.Equal(t, 2, m.Len())

	assert.True(t, m.Remove(5))
	assert.False(t, m.Remove(5))

	m.Purge()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, "SCHEDULED_EVENTS", m.Name())
}

func TestMap_ConcurrentGetOrCreateCreatesOnce(t *testing.T) {
	m := New[*entity]("USERS", 0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, isNew := m.GetOrCreate(42, func() *entity { return &entity{id: 42} })
			if isNew {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}
