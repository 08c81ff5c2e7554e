package preinstanced

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PredefinedInstances(t *testing.T) {
	roles := NewRegistry[string]("TeamMembershipRole")
	admin := roles.Register("admin", "admin")
	developer := roles.Register("developer", "developer")

	assert.Same(t, admin, roles.Get("admin"))
	assert.Same(t, developer, roles.Get("developer"))
	assert.Same(t, admin, roles.Register("admin", "other name"))
	assert.Equal(t, "TeamMembershipRole(name=\"admin\", value=admin)", admin.String())
}

func TestRegistry_UnknownValueIsRegistered(t *testing.T) {
	states := NewRegistry[int]("TeamMembershipState")
	states.Register(1, "invited")

	_, ok := states.Lookup(7)
	assert.False(t, ok)

	unknown := states.Get(7)
	assert.Equal(t, NameDefault, unknown.Name())
	assert.Equal(t, 7, unknown.Value())
	assert.Equal(t, "TeamMembershipState", unknown.Kind())

	again, ok := states.Lookup(7)
	require.True(t, ok)
	assert.Same(t, unknown, again)
	assert.Equal(t, 2, states.Len())
}

func TestRegistry_AllIsSorted(t *testing.T) {
	levels := NewRegistry[int]("PrivacyLevel")
	levels.Register(2, "guild_only")
	levels.Register(0, "none")
	levels.Register(1, "public")

	all := levels.All()
	require.Len(t, all, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{all[0].Value(), all[1].Value(), all[2].Value()})
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	registry := NewRegistry[int]("Concurrent")

	var wg sync.WaitGroup
	results := make([]*Instance[int], 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = registry.Get(99)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, registry.Len())
}
