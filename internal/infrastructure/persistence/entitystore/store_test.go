package entitystore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
	"github.com/hata-go/hata/internal/domain/scheduledevent"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/team"
	"github.com/hata-go/hata/internal/domain/user"
	"github.com/hata-go/hata/internal/infrastructure/persistence/sqlasync"
	"github.com/hata-go/hata/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	engine, err := sqlasync.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "entities.db"), sqlasync.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	s := New(engine, logger.Nop())
	require.NoError(t, s.Migrate(ctx))

	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	t.Cleanup(func() {
		user.Users.Purge()
		guild.Guilds.Purge()
		team.Teams.Purge()
		scheduledevent.ScheduledEvents.Purge()
	})
	return s
}

func TestMigrator_StatusAndRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))

	status, err := s.Migrator().Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	for _, m := range status {
		assert.True(t, m.IsApplied, m.Name)
		assert.False(t, m.AppliedAt.IsZero())
	}

	require.NoError(t, s.Migrator().Rollback(ctx))
	ok, err := s.engine.HasTable(ctx, "entity_changes")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.engine.HasTable(ctx, "entities")
	require.NoError(t, err)
	assert.True(t, ok)

	status, err = s.Migrator().Status(ctx)
	require.NoError(t, err)
	assert.True(t, status[0].IsApplied)
	assert.False(t, status[1].IsApplied)

	require.NoError(t, s.Migrate(ctx))
	ok, err = s.engine.HasTable(ctx, "entity_changes")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMigrator_MissingUpSQL(t *testing.T) {
	s := newTestStore(t)
	m := NewMigratorWithMigrations(s.engine, []Migration{{Version: 10, Name: "empty"}})

	err := m.Migrate(context.Background())
	assert.ErrorIs(t, err, ErrMigrationFailed)
}

func TestStatements(t *testing.T) {
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "DROP TABLE b"}, statements("\nCREATE TABLE a (x INT);\n\nDROP TABLE b;\n"))
}

func TestStore_SaveLoadDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	data := field.Data{"id": "42", "name": "thing"}
	require.NoError(t, s.Save(ctx, shared.KindGuild, 42, data))

	loaded, err := s.Load(ctx, shared.KindGuild, 42)
	require.NoError(t, err)
	assert.Equal(t, "thing", loaded["name"])

	n, err := s.Count(ctx, shared.KindGuild)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	deleted, err := s.Delete(ctx, shared.KindGuild, 42)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, shared.KindGuild, 42)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.Load(ctx, shared.KindGuild, 42)
	assert.ErrorIs(t, err, ErrEntityNotFound)
	assert.True(t, shared.IsNotFound(err))
}

func TestStore_SaveRequiresID(t *testing.T) {
	s := newTestStore(t)

	err := s.Save(context.Background(), shared.KindUser, 0, field.Data{})
	assert.ErrorIs(t, err, shared.ErrMissingID)
}

func TestStore_KindsAreSeparate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, shared.KindUser, 1, field.Data{"id": "1"}))
	_, err := s.Load(ctx, shared.KindGuild, 1)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, shared.KindUser, 1, field.Data{"id": "1", "username": "first"}))
	require.NoError(t, s.Save(ctx, shared.KindUser, 2, field.Data{"id": "2", "username": "second"}))
	require.NoError(t, s.Save(ctx, shared.KindGuild, 3, field.Data{"id": "3"}))

	records, err := s.List(ctx, shared.KindUser)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, shared.Snowflake(2), records[0].ID)
	assert.Equal(t, "second", records[0].Data["username"])
	assert.Equal(t, shared.Snowflake(1), records[1].ID)
	assert.True(t, records[0].UpdatedAt.After(records[1].UpdatedAt))

	empty, err := s.List(ctx, shared.KindTeam)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_History(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, shared.KindUser, 7, field.Data{"id": "7", "username": "before", "bot": false}))
	require.NoError(t, s.Save(ctx, shared.KindUser, 7, field.Data{"id": "7", "username": "before", "bot": false}))
	require.NoError(t, s.Save(ctx, shared.KindUser, 7, field.Data{"id": "7", "username": "after", "bot": false}))

	changes, err := s.History(ctx, shared.KindUser, 7)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, field.Data{"username": "before"}, changes[0].Old)

	_, err = s.Delete(ctx, shared.KindUser, 7)
	require.NoError(t, err)
	changes, err = s.History(ctx, shared.KindUser, 7)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestStore_ConcurrentSaves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var tick atomic.Int64
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		return base.Add(time.Duration(tick.Add(1)) * time.Millisecond)
	}

	var g errgroup.Group
	for i := range 20 {
		id := shared.Snowflake(1 + i%2)
		g.Go(func() error {
			return s.Save(ctx, shared.KindUser, id, field.Data{"id": id.String(), "username": fmt.Sprintf("name-%d", i)})
		})
	}
	require.NoError(t, g.Wait())

	n, err := s.Count(ctx, shared.KindUser)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []shared.Snowflake{1, 2} {
		changes, err := s.History(ctx, shared.KindUser, id)
		require.NoError(t, err)
		assert.Len(t, changes, 9, "every overwrite of %s records one change", id)
	}
}

func TestStore_UserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := user.FromData(field.Data{"id": "100", "username": "alice", "global_name": "Alice", "bot": true})
	require.NoError(t, err)
	require.NoError(t, s.SaveUser(ctx, u))

	user.Users.Purge()
	loaded, err := s.LoadUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, u.Equal(loaded))
	assert.Equal(t, "Alice", loaded.DisplayName)
	assert.True(t, loaded.Bot)

	cached, ok := user.Users.Get(100)
	require.True(t, ok)
	assert.Same(t, loaded, cached)
}

func TestStore_GuildRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := guild.FromData(field.Data{"id": "200", "name": "hata", "features": []any{"COMMUNITY"}})
	require.NoError(t, err)
	require.NoError(t, s.SaveGuild(ctx, g))

	loaded, err := s.LoadGuild(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, "hata", loaded.Name)
	assert.True(t, loaded.HasFeature(guild.FeatureCommunity))
}

func TestStore_TeamRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tm, err := team.FromData(field.Data{
		"id":            "500",
		"name":          "hata devs",
		"owner_user_id": "1",
		"members": []any{
			map[string]any{
				"role":             "admin",
				"membership_state": 2,
				"team_id":          "500",
				"user":             map[string]any{"id": "1", "username": "owner"},
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, s.SaveTeam(ctx, tm))

	team.Teams.Purge()
	loaded, err := s.LoadTeam(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, "hata devs", loaded.Name)
	require.Len(t, loaded.Members, 1)
	assert.Same(t, team.RoleAdmin, loaded.Members[0].Role)
	assert.Equal(t, "owner", loaded.Owner().Name)
}

func TestStore_ScheduledEventRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	ev, err := scheduledevent.FromData(field.Data{
		"id":                   "900",
		"guild_id":             "200",
		"name":                 "game night",
		"entity_type":          3,
		"status":               1,
		"scheduled_start_time": field.FormatTimestamp(start),
		"scheduled_end_time":   field.FormatTimestamp(start.Add(2 * time.Hour)),
		"entity_metadata":      map[string]any{"location": "the pub"},
	})
	require.NoError(t, err)
	require.NoError(t, s.SaveScheduledEvent(ctx, ev))

	scheduledevent.ScheduledEvents.Purge()
	loaded, err := s.LoadScheduledEvent(ctx, 900)
	require.NoError(t, err)
	assert.Equal(t, "game night", loaded.Name)
	assert.Equal(t, "the pub", loaded.Location)
	assert.Same(t, scheduledevent.StatusScheduled, loaded.Status)
	assert.True(t, start.Equal(loaded.Start))
	assert.Equal(t, shared.Snowflake(200), loaded.GuildID)
}
