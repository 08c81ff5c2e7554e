package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/user"
)

// offlineCache returns a cache whose client is never dialed; validation
// errors are returned before any command is sent.
func offlineCache(t *testing.T) *Cache {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheFromClient(client, DefaultConfig())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "hata:user:42", EntityKey(shared.KindUser, 42))
	assert.Equal(t, "hata:scheduled_event:*", KindPattern(shared.KindScheduledEvent))
	assert.Equal(t, "hata:updates:guild", UpdatesChannel(shared.KindGuild))
}

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())
	assert.Equal(t, TTLEntity, cfg.EntityTTL)
}

func TestNewCacheFromClient_DefaultsTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	c := NewCacheFromClient(client, Config{})
	assert.Equal(t, TTLEntity, c.config.EntityTTL)
	assert.Equal(t, TTLPartialEntity, c.entityTTL(true))
	assert.Equal(t, TTLEntity, c.entityTTL(false))
}

func TestValidation(t *testing.T) {
	c := offlineCache(t)
	ctx := context.Background()

	_, err := c.GetBytes(ctx, "")
	assert.ErrorIs(t, err, ErrCacheKeyEmpty)
	_, err = c.DeleteByPattern(ctx, "")
	assert.ErrorIs(t, err, ErrCacheKeyEmpty)
	_, err = c.Subscribe(ctx)
	assert.ErrorIs(t, err, ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.Publish(ctx, "", "v"), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.Publish(ctx, "ch", make(chan int)), ErrCacheSerialization)
	assert.NoError(t, c.Delete(ctx))
}

func TestEntityValidation(t *testing.T) {
	c := offlineCache(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.SetEntity(ctx, "", 1, field.Data{}, 0), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.SetEntity(ctx, shared.KindUser, 0, field.Data{}, 0), shared.ErrMissingID)
	assert.ErrorIs(t, c.SetEntity(ctx, shared.KindUser, 1, nil, 0), ErrCacheNilValue)
	assert.ErrorIs(t, c.SetEntity(ctx, shared.KindUser, 1, field.Data{}, -time.Second), ErrCacheInvalidTTL)
	assert.ErrorIs(t, c.SetEntity(ctx, shared.KindUser, 1, field.Data{"bad": make(chan int)}, 0), ErrCacheSerialization)

	_, err := c.GetEntity(ctx, shared.KindUser, 0)
	assert.ErrorIs(t, err, shared.ErrMissingID)
	_, err = c.InvalidateKind(ctx, "")
	assert.ErrorIs(t, err, ErrCacheKeyEmpty)
	_, err = c.SubscribeUpdates(ctx, "")
	assert.ErrorIs(t, err, ErrCacheKeyEmpty)

	assert.NoError(t, c.PublishUpdate(ctx, shared.KindUser, 1, field.Data{}))
}

func TestDecodeUpdate(t *testing.T) {
	u, err := decodeUpdate(`{"kind":"user","id":"9","changes":{"discriminator":1234}}`)
	require.NoError(t, err)
	assert.Equal(t, shared.KindUser, u.Kind)
	assert.Equal(t, shared.Snowflake(9), u.ID)
	assert.Equal(t, json.Number("1234"), u.Changes["discriminator"])

	_, err = decodeUpdate(`"garbage"`)
	assert.Error(t, err)
	_, err = decodeUpdate(`{"kind":"user"}`)
	assert.Error(t, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// IN-PROCESS SERVER
// ══════════════════════════════════════════════════════════════════════════════

// newTestCache runs an in-process Redis and purges the identity maps the
// typed helpers fill.
func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		user.Users.Purge()
		guild.Guilds.Purge()
	})
	return NewCacheFromClient(client, DefaultConfig()), mr
}

func receive(t *testing.T, sub *Subscription) Update {
	t.Helper()
	select {
	case u, ok := <-sub.Updates():
		require.True(t, ok, "subscription closed")
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
		return Update{}
	}
}

func TestEntity_SetGetInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.SetEntity(ctx, shared.KindUser, 1, field.Data{"id": "1", "username": "one"}, 0))
	require.NoError(t, c.SetEntity(ctx, shared.KindUser, 2, field.Data{"id": "2", "username": "two"}, time.Minute))
	require.NoError(t, c.SetEntity(ctx, shared.KindGuild, 3, field.Data{"id": "3", "name": "pit"}, 0))

	got, err := c.GetEntity(ctx, shared.KindUser, 1)
	require.NoError(t, err)
	assert.Equal(t, field.Data{"id": "1", "username": "one"}, got)

	assert.Equal(t, TTLEntity, mr.TTL(EntityKey(shared.KindUser, 1)))
	assert.Equal(t, time.Minute, mr.TTL(EntityKey(shared.KindUser, 2)))

	removed, err := c.InvalidateKind(ctx, shared.KindUser)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = c.GetEntity(ctx, shared.KindUser, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.True(t, mr.Exists(EntityKey(shared.KindGuild, 3)))

	require.NoError(t, c.DeleteEntity(ctx, shared.KindGuild, 3))
	assert.False(t, mr.Exists(EntityKey(shared.KindGuild, 3)))
}

func TestEntity_ExpiresAfterTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetEntity(ctx, shared.KindUser, 1, field.Data{"id": "1"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.GetEntity(ctx, shared.KindUser, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSetEntity_PublishesChangedFields(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	sub, err := c.SubscribeUpdates(ctx, shared.KindUser)
	require.NoError(t, err)
	defer sub.Close()

	// First write and an identical rewrite have nothing to announce.
	require.NoError(t, c.SetEntity(ctx, shared.KindUser, 1, field.Data{"id": "1", "username": "old", "discriminator": 1}, 0))
	require.NoError(t, c.SetEntity(ctx, shared.KindUser, 1, field.Data{"id": "1", "username": "old", "discriminator": 1}, 0))
	// Foreign messages on the channel are skipped.
	require.NoError(t, c.Publish(ctx, UpdatesChannel(shared.KindUser), "garbage"))
	require.NoError(t, c.SetEntity(ctx, shared.KindUser, 1, field.Data{"id": "1", "username": "new", "discriminator": 1}, 0))

	update := receive(t, sub)
	assert.Equal(t, shared.KindUser, update.Kind)
	assert.Equal(t, shared.Snowflake(1), update.ID)
	assert.Equal(t, field.Data{"username": "old"}, update.Changes)

	// Explicit announcements use the same message.
	require.NoError(t, c.PublishUpdate(ctx, shared.KindUser, 2, field.Data{"avatar": nil}))
	update = receive(t, sub)
	assert.Equal(t, shared.Snowflake(2), update.ID)
	assert.Equal(t, field.Data{"avatar": nil}, update.Changes)
}

func TestSubscribeUpdates_ClosesWithContext(t *testing.T) {
	c, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := c.SubscribeUpdates(ctx, shared.KindGuild)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sub.Updates():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestSetUser_PartialExpiresSooner(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	full, err := user.FromData(field.Data{"id": "77", "username": "full"})
	require.NoError(t, err)
	partial, err := user.Precreate(78, user.WithName("partial"))
	require.NoError(t, err)
	require.True(t, partial.Partial())

	require.NoError(t, c.SetUser(ctx, full))
	require.NoError(t, c.SetUser(ctx, partial))

	assert.Equal(t, TTLEntity, mr.TTL(EntityKey(shared.KindUser, 77)))
	assert.Equal(t, TTLPartialEntity, mr.TTL(EntityKey(shared.KindUser, 78)))
}

func TestGetUser_RefillsIdentityMap(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	u, err := user.FromData(field.Data{"id": "77", "username": "cached"})
	require.NoError(t, err)
	require.NoError(t, c.SetUser(ctx, u))

	user.Users.Purge()
	_, ok := user.Users.Get(77)
	require.False(t, ok)

	loaded, err := c.GetUser(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, "cached", loaded.Name)

	refilled, ok := user.Users.Get(77)
	require.True(t, ok)
	assert.Same(t, loaded, refilled)

	_, err = c.GetUser(ctx, 78)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetGuild_RefillsIdentityMap(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	g, err := guild.FromData(field.Data{"id": "10", "name": "Snake Pit"})
	require.NoError(t, err)
	require.NoError(t, c.SetGuild(ctx, g))

	guild.Guilds.Purge()
	loaded, err := c.GetGuild(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Snake Pit", loaded.Name)

	refilled, ok := guild.Guilds.Get(10)
	require.True(t, ok)
	assert.Same(t, loaded, refilled)
}
