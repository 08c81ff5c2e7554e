// Package entitystore persists entity wire payloads in SQL through the
// sqlasync worker. Rows hold the JSON payload an entity produces with
// ToData(true, true), so loading goes back through FromData and lands in
// the process-wide caches.
package entitystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
	"github.com/hata-go/hata/internal/domain/scheduledevent"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/team"
	"github.com/hata-go/hata/internal/domain/user"
	"github.com/hata-go/hata/internal/infrastructure/persistence/sqlasync"
	"github.com/hata-go/hata/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPES
// ══════════════════════════════════════════════════════════════════════════════

// ErrEntityNotFound is returned by Load for a missing row.
var ErrEntityNotFound = shared.NewDomainError("entitystore", "Load", shared.ErrNotFound, "entity is not stored")

// Record is one stored entity payload.
type Record struct {
	Kind      shared.Kind
	ID        shared.Snowflake
	Data      field.Data
	UpdatedAt time.Time
}

// Change holds the previous values of the fields one Save overwrote.
type Change struct {
	Kind      shared.Kind
	ID        shared.Snowflake
	ChangedAt time.Time
	Old       field.Data
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store reads and writes entity payloads.
type Store struct {
	engine   *sqlasync.Engine
	migrator *Migrator
	log      *logger.Logger
	now      func() time.Time
}

// New creates a Store on engine. Call Migrate before first use.
func New(engine *sqlasync.Engine, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		engine:   engine,
		migrator: NewMigrator(engine),
		log:      log.With(logger.Component("entitystore")),
		now:      time.Now,
	}
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrator.Migrate(ctx)
}

// Migrator exposes the schema migrator.
func (s *Store) Migrator() *Migrator {
	return s.migrator
}

// ─────────────────────────────────────────────────────────────────────────────
// Raw payloads
// ─────────────────────────────────────────────────────────────────────────────

// Save upserts a payload. When a row already exists, the old values of the
// fields that changed are appended to the entity's history.
func (s *Store) Save(ctx context.Context, kind shared.Kind, id shared.Snowflake, data field.Data) error {
	if id.IsZero() {
		return shared.ErrMissingID
	}
	raw, err := field.Encode(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", kind, id, err)
	}
	// Compare in decoded form so stored and fresh payloads agree on number types.
	fresh, err := field.Decode(raw)
	if err != nil {
		return fmt.Errorf("failed to normalize %s %s: %w", kind, id, err)
	}

	now := s.now().UnixMilli()
	selectQuery := s.engine.Rebind(`SELECT data FROM entities WHERE kind = ? AND id = ?`)
	upsertQuery := s.engine.Rebind(`
		INSERT INTO entities (kind, id, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`)
	changeQuery := s.engine.Rebind(`INSERT INTO entity_changes (kind, id, changed_at, old_values) VALUES (?, ?, ?, ?)`)

	var changedFields []string
	err = s.engine.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var prev any
		err := tx.QueryRowContext(ctx, selectQuery, string(kind), id.String()).Scan(&prev)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read previous %s: %w", kind, err)
		}

		if prevRaw, ok := asString(prev); ok {
			old, err := field.Decode([]byte(prevRaw))
			if err != nil {
				return fmt.Errorf("failed to decode stored %s: %w", kind, err)
			}
			if changed := field.Diff(old, fresh); len(changed) > 0 {
				changedFields = field.Keys(changed)
				oldRaw, err := field.Encode(changed)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, changeQuery, string(kind), id.String(), now, string(oldRaw)); err != nil {
					return fmt.Errorf("failed to record change: %w", err)
				}
			}
		}

		_, err = tx.ExecContext(ctx, upsertQuery, string(kind), id.String(), string(raw), now)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", kind, id, err)
	}

	s.log.Debug("entity saved",
		logger.String("kind", string(kind)),
		logger.Uint64("id", uint64(id)),
		logger.Any("changed", changedFields),
	)
	return nil
}

// Load returns the stored payload.
func (s *Store) Load(ctx context.Context, kind shared.Kind, id shared.Snowflake) (field.Data, error) {
	query := s.engine.Rebind(`SELECT data FROM entities WHERE kind = ? AND id = ?`)

	v, err := s.engine.Scalar(ctx, query, string(kind), id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", kind, id, err)
	}
	raw, ok := asString(v)
	if !ok {
		return nil, ErrEntityNotFound
	}
	return field.Decode([]byte(raw))
}

// Delete removes a stored payload and its history. It reports whether a
// row existed.
func (s *Store) Delete(ctx context.Context, kind shared.Kind, id shared.Snowflake) (bool, error) {
	deleteEntity := s.engine.Rebind(`DELETE FROM entities WHERE kind = ? AND id = ?`)
	deleteChanges := s.engine.Rebind(`DELETE FROM entity_changes WHERE kind = ? AND id = ?`)

	var deleted int64
	err := s.engine.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, deleteEntity, string(kind), id.String())
		if err != nil {
			return err
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, deleteChanges, string(kind), id.String())
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	return deleted > 0, nil
}

// List returns every stored payload of a kind, most recently updated first.
func (s *Store) List(ctx context.Context, kind shared.Kind) ([]Record, error) {
	query := s.engine.Rebind(`SELECT id, data, updated_at FROM entities WHERE kind = ? ORDER BY updated_at DESC, id`)

	rows, err := s.engine.Query(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}

	var records []Record
	for row, err := range rows.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row: %w", kind, err)
		}
		rec, err := scanRecord(kind, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the number of stored payloads of a kind.
func (s *Store) Count(ctx context.Context, kind shared.Kind) (int, error) {
	v, err := s.engine.Scalar(ctx, s.engine.Rebind(`SELECT COUNT(*) FROM entities WHERE kind = ?`), string(kind))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	n, _ := asInt64(v)
	return int(n), nil
}

// History returns the recorded changes of an entity, oldest first.
func (s *Store) History(ctx context.Context, kind shared.Kind, id shared.Snowflake) ([]Change, error) {
	query := s.engine.Rebind(`SELECT changed_at, old_values FROM entity_changes WHERE kind = ? AND id = ? ORDER BY changed_at`)

	rows, err := s.engine.Query(ctx, query, string(kind), id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	all, err := rows.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	changes := make([]Change, 0, len(all))
	for _, row := range all {
		at, _ := asInt64(row.Values[0])
		raw, _ := asString(row.Values[1])
		old, err := field.Decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode change: %w", err)
		}
		changes = append(changes, Change{
			Kind:      kind,
			ID:        id,
			ChangedAt: time.UnixMilli(at).UTC(),
			Old:       old,
		})
	}
	return changes, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Typed helpers
// ─────────────────────────────────────────────────────────────────────────────

// SaveUser stores a user.
func (s *Store) SaveUser(ctx context.Context, u *user.User) error {
	return s.Save(ctx, shared.KindUser, u.ID, u.ToData(true, true))
}

// LoadUser loads a user and refreshes it in user.Users.
func (s *Store) LoadUser(ctx context.Context, id shared.Snowflake) (*user.User, error) {
	data, err := s.Load(ctx, shared.KindUser, id)
	if err != nil {
		return nil, err
	}
	return user.FromData(data)
}

// SaveGuild stores a guild.
func (s *Store) SaveGuild(ctx context.Context, g *guild.Guild) error {
	return s.Save(ctx, shared.KindGuild, g.ID, g.ToData(true, true))
}

// LoadGuild loads a guild and refreshes it in guild.Guilds.
func (s *Store) LoadGuild(ctx context.Context, id shared.Snowflake) (*guild.Guild, error) {
	data, err := s.Load(ctx, shared.KindGuild, id)
	if err != nil {
		return nil, err
	}
	return guild.FromData(data)
}

// SaveTeam stores a team with its members.
func (s *Store) SaveTeam(ctx context.Context, t *team.Team) error {
	return s.Save(ctx, shared.KindTeam, t.ID, t.ToData(true, true))
}

// LoadTeam loads a team and refreshes it in team.Teams.
func (s *Store) LoadTeam(ctx context.Context, id shared.Snowflake) (*team.Team, error) {
	data, err := s.Load(ctx, shared.KindTeam, id)
	if err != nil {
		return nil, err
	}
	return team.FromData(data)
}

// SaveScheduledEvent stores a scheduled event.
func (s *Store) SaveScheduledEvent(ctx context.Context, e *scheduledevent.ScheduledEvent) error {
	return s.Save(ctx, shared.KindScheduledEvent, e.ID, e.ToData(true, true))
}

// LoadScheduledEvent loads a scheduled event and refreshes it in
// scheduledevent.ScheduledEvents.
func (s *Store) LoadScheduledEvent(ctx context.Context, id shared.Snowflake) (*scheduledevent.ScheduledEvent, error) {
	data, err := s.Load(ctx, shared.KindScheduledEvent, id)
	if err != nil {
		return nil, err
	}
	return scheduledevent.FromData(data)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCANNING
// ══════════════════════════════════════════════════════════════════════════════

func scanRecord(kind shared.Kind, row sqlasync.Row) (Record, error) {
	rawID, _ := asString(row.Values[0])
	id, err := shared.ParseSnowflake(rawID)
	if err != nil {
		return Record{}, fmt.Errorf("stored %s has bad id %q: %w", kind, rawID, err)
	}
	raw, _ := asString(row.Values[1])
	data, err := field.Decode([]byte(raw))
	if err != nil {
		return Record{}, fmt.Errorf("stored %s %s: %w", kind, id, err)
	}
	at, _ := asInt64(row.Values[2])
	return Record{Kind: kind, ID: id, Data: data, UpdatedAt: time.UnixMilli(at).UTC()}, nil
}

// asString accepts the text representations drivers hand back.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return "", false
	}
}

func asInt64(v any) (int64, bool) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	return field.Int64(v)
}
