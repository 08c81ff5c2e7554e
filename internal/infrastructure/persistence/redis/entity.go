package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY PAYLOADS
// ══════════════════════════════════════════════════════════════════════════════

// EntityKey returns the key of an entity payload: hata:<kind>:<id>.
func EntityKey(kind shared.Kind, id shared.Snowflake) string {
	return Prefix + string(kind) + ":" + id.String()
}

// KindPattern matches every payload key of a kind.
func KindPattern(kind shared.Kind) string {
	return Prefix + string(kind) + ":*"
}

// UpdatesChannel returns the channel entity changes of a kind are
// published on.
func UpdatesChannel(kind shared.Kind) string {
	return PrefixUpdates + string(kind)
}

// Update is the message published when a cached entity changed.
type Update struct {
	Kind    shared.Kind      `json:"kind"`
	ID      shared.Snowflake `json:"id"`
	Changes field.Data       `json:"changes"`
}

// SetEntity stores a payload. A zero ttl uses the configured entity TTL.
// When it replaces an older payload, the old values of the fields that
// changed are published on UpdatesChannel(kind).
func (c *Cache) SetEntity(ctx context.Context, kind shared.Kind, id shared.Snowflake, data field.Data, ttl time.Duration) error {
	if kind == "" {
		return ErrCacheKeyEmpty
	}
	if id.IsZero() {
		return shared.ErrMissingID
	}
	if data == nil {
		return ErrCacheNilValue
	}
	if ttl < 0 {
		return ErrCacheInvalidTTL
	}
	if ttl == 0 {
		ttl = c.config.EntityTTL
	}

	raw, err := field.Encode(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	// SET ... GET swaps atomically, so concurrent writers each diff against
	// the payload they actually replaced.
	prev, err := c.client.SetArgs(ctx, EntityKey(kind, id), raw, redis.SetArgs{TTL: ttl, Get: true}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	old, err := field.Decode([]byte(prev))
	if err != nil {
		// An unreadable previous payload has nothing useful to announce.
		return nil
	}
	fresh, err := field.Decode(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.PublishUpdate(ctx, kind, id, field.Diff(old, fresh))
}

// GetEntity returns a cached payload.
// Returns ErrCacheMiss if it is not cached.
func (c *Cache) GetEntity(ctx context.Context, kind shared.Kind, id shared.Snowflake) (field.Data, error) {
	if kind == "" {
		return nil, ErrCacheKeyEmpty
	}
	if id.IsZero() {
		return nil, shared.ErrMissingID
	}

	raw, err := c.GetBytes(ctx, EntityKey(kind, id))
	if err != nil {
		return nil, err
	}
	data, err := field.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return data, nil
}

// DeleteEntity drops a cached payload.
func (c *Cache) DeleteEntity(ctx context.Context, kind shared.Kind, id shared.Snowflake) error {
	if kind == "" {
		return ErrCacheKeyEmpty
	}
	return c.Delete(ctx, EntityKey(kind, id))
}

// InvalidateKind drops every cached payload of a kind and returns how many
// were removed.
func (c *Cache) InvalidateKind(ctx context.Context, kind shared.Kind) (int, error) {
	if kind == "" {
		return 0, ErrCacheKeyEmpty
	}
	return c.DeleteByPattern(ctx, KindPattern(kind))
}

// PublishUpdate announces the changed fields of an entity to other
// processes. Empty change sets are not published.
func (c *Cache) PublishUpdate(ctx context.Context, kind shared.Kind, id shared.Snowflake, changes field.Data) error {
	if len(changes) == 0 {
		return nil
	}
	return c.Publish(ctx, UpdatesChannel(kind), Update{Kind: kind, ID: id, Changes: changes})
}

// Subscription delivers the updates published for one kind.
type Subscription struct {
	ps      *redis.PubSub
	updates chan Update
}

// SubscribeUpdates listens on UpdatesChannel(kind). Messages that do not
// decode as an Update are dropped. The channel closes after Close or when
// ctx is done.
func (c *Cache) SubscribeUpdates(ctx context.Context, kind shared.Kind) (*Subscription, error) {
	if kind == "" {
		return nil, ErrCacheKeyEmpty
	}
	ps, err := c.Subscribe(ctx, UpdatesChannel(kind))
	if err != nil {
		return nil, err
	}

	sub := &Subscription{ps: ps, updates: make(chan Update)}
	go sub.pump(ctx)
	return sub, nil
}

// Updates returns the stream of decoded updates.
func (s *Subscription) Updates() <-chan Update {
	return s.updates
}

// Close ends the subscription.
func (s *Subscription) Close() error {
	return s.ps.Close()
}

func (s *Subscription) pump(ctx context.Context) {
	defer close(s.updates)

	messages := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.ps.Close()
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			update, err := decodeUpdate(msg.Payload)
			if err != nil {
				continue
			}
			select {
			case s.updates <- update:
			case <-ctx.Done():
				_ = s.ps.Close()
				return
			}
		}
	}
}

func decodeUpdate(payload string) (Update, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var u Update
	if err := dec.Decode(&u); err != nil {
		return Update{}, err
	}
	if u.Kind == "" || u.ID.IsZero() {
		return Update{}, fmt.Errorf("update without kind or id")
	}
	return u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TYPED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func (c *Cache) entityTTL(partial bool) time.Duration {
	if partial && c.config.EntityTTL > TTLPartialEntity {
		return TTLPartialEntity
	}
	return c.config.EntityTTL
}

// SetUser caches a user and announces what changed. Partial users expire
// sooner.
func (c *Cache) SetUser(ctx context.Context, u *user.User) error {
	return c.SetEntity(ctx, shared.KindUser, u.ID, u.ToData(true, true), c.entityTTL(u.Partial()))
}

// GetUser loads a cached user and refreshes it in user.Users.
func (c *Cache) GetUser(ctx context.Context, id shared.Snowflake) (*user.User, error) {
	data, err := c.GetEntity(ctx, shared.KindUser, id)
	if err != nil {
		return nil, err
	}
	return user.FromData(data)
}

// SetGuild caches a guild. Partial guilds expire sooner.
func (c *Cache) SetGuild(ctx context.Context, g *guild.Guild) error {
	return c.SetEntity(ctx, shared.KindGuild, g.ID, g.ToData(true, true), c.entityTTL(g.Partial()))
}

// GetGuild loads a cached guild and refreshes it in guild.Guilds.
func (c *Cache) GetGuild(ctx context.Context, id shared.Snowflake) (*guild.Guild, error) {
	data, err := c.GetEntity(ctx, shared.KindGuild, id)
	if err != nil {
		return nil, err
	}
	return guild.FromData(data)
}
