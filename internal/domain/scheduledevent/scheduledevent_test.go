package scheduledevent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/user"
)

var (
	start = time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	end   = start.Add(2 * time.Hour)
)

func eventPayload() field.Data {
	return field.Data{
		"id":                   "900",
		"guild_id":             "10",
		"channel_id":           nil,
		"creator_id":           "20",
		"creator":              map[string]any{"id": "20", "username": "organizer"},
		"name":                 "Meetup",
		"description":          "Come along",
		"scheduled_start_time": "2025-01-10T18:00:00.000000+00:00",
		"scheduled_end_time":   "2025-01-10T20:00:00.000000+00:00",
		"privacy_level":        2,
		"status":               1,
		"entity_type":          3,
		"entity_id":            nil,
		"entity_metadata":      map[string]any{"location": "Budapest"},
		"user_count":           12,
		"sku_ids":              []any{"3", "1", "3"},
	}
}

func cleanup(t *testing.T) {
	t.Cleanup(func() {
		ScheduledEvents.Purge()
		user.Users.Purge()
	})
}

func TestFromData(t *testing.T) {
	cleanup(t)

	e, err := FromData(eventPayload())
	require.NoError(t, err)

	assert.Equal(t, shared.Snowflake(900), e.ID)
	assert.Equal(t, shared.Snowflake(10), e.GuildID)
	assert.Zero(t, e.ChannelID)
	assert.Equal(t, "Meetup", e.Name)
	assert.Equal(t, start, e.Start)
	assert.Equal(t, end, e.End)
	assert.Same(t, EntityTypeLocation, e.EntityType)
	assert.Same(t, PrivacyLevelGuildOnly, e.PrivacyLevel)
	assert.Same(t, StatusScheduled, e.Status)
	assert.Equal(t, "Budapest", e.Location)
	assert.Equal(t, 12, e.UserCount)
	assert.Equal(t, []shared.Snowflake{1, 3}, e.SKUIDs)
	require.NotNil(t, e.Creator)
	assert.Equal(t, "organizer", e.Creator.Name)
	assert.NoError(t, e.Validate())

	cached, ok := ScheduledEvents.Get(900)
	require.True(t, ok)
	assert.Same(t, e, cached)
	_, ok = user.Users.Get(20)
	assert.True(t, ok)

	assert.Equal(t, "https://discord.com/events/10/900", e.URL())
}

func TestToData(t *testing.T) {
	cleanup(t)

	e, err := FromData(eventPayload())
	require.NoError(t, err)

	public := e.ToData(false, false)
	assert.Equal(t, field.Data{
		"name":                 "Meetup",
		"description":          "Come along",
		"scheduled_start_time": "2025-01-10T18:00:00.000000+00:00",
		"scheduled_end_time":   "2025-01-10T20:00:00.000000+00:00",
		"entity_type":          3,
		"entity_metadata":      field.Data{"location": "Budapest"},
	}, public)

	internal := e.ToData(false, true)
	assert.Equal(t, "900", internal["id"])
	assert.Equal(t, "10", internal["guild_id"])
	assert.Equal(t, 1, internal["status"])
	assert.Equal(t, []any{"1", "3"}, internal["sku_ids"])
}

func TestUpdate(t *testing.T) {
	cleanup(t)

	_, err := FromData(eventPayload())
	require.NoError(t, err)

	payload := eventPayload()
	payload["status"] = 2
	payload["user_count"] = 15
	e, changes, err := Update(payload)
	require.NoError(t, err)

	assert.Same(t, StatusActive, e.Status)
	assert.Equal(t, field.Data{"status": 1, "user_count": 12}, changes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name:    "location without end",
			opts:    []Option{WithName("x"), WithStart(start), WithEntityType(EntityTypeLocation), WithLocation("here")},
			wantErr: shared.ErrEventMissingLocation,
		},
		{
			name:    "location without location",
			opts:    []Option{WithName("x"), WithStart(start), WithEnd(end), WithEntityType(EntityTypeLocation)},
			wantErr: shared.ErrEventMissingLocation,
		},
		{
			name:    "voice without channel",
			opts:    []Option{WithName("x"), WithStart(start), WithEntityType(EntityTypeVoice)},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "end before start",
			opts:    []Option{WithName("x"), WithStart(end), WithEnd(start)},
			wantErr: shared.ErrValueOutOfRange,
		},
		{
			name:    "missing name",
			opts:    []Option{WithStart(start)},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "no entity type",
			opts:    []Option{WithName("x"), WithStart(start)},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name: "valid stage event",
			opts: []Option{WithName("x"), WithStart(start), WithEntityType(EntityTypeStage), WithChannel("55")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.opts...)
			require.NoError(t, err)

			err = e.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateData_WritesRequiredEnums(t *testing.T) {
	e, err := New(
		WithName("Meetup"),
		WithStart(start),
		WithEnd(end),
		WithEntityType(EntityTypeLocation),
		WithLocation("Budapest"),
		WithPrivacyLevel(PrivacyLevelGuildOnly),
	)
	require.NoError(t, err)

	_, present := e.ToData(false, false)["privacy_level"]
	assert.False(t, present)

	data := e.CreateData()
	assert.Equal(t, 2, data["privacy_level"])
	assert.Equal(t, 3, data["entity_type"])
	assert.Equal(t, "Meetup", data["name"])
	assert.NotContains(t, data, "id")
}

func TestTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusScheduled, StatusActive))
	assert.True(t, CanTransition(StatusScheduled, StatusCancelled))
	assert.True(t, CanTransition(StatusActive, StatusCompleted))
	assert.False(t, CanTransition(StatusActive, StatusScheduled))
	assert.False(t, CanTransition(StatusCompleted, StatusActive))
	assert.False(t, CanTransition(StatusCancelled, StatusScheduled))

	e, err := New(WithName("x"), WithStatus(StatusScheduled))
	require.NoError(t, err)

	active, err := e.Transition(StatusActive)
	require.NoError(t, err)
	assert.Same(t, StatusActive, active.Status)
	assert.Same(t, StatusScheduled, e.Status)

	_, err = active.Transition(StatusScheduled)
	assert.ErrorIs(t, err, shared.ErrEventTransition)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}

func TestOptionValidation(t *testing.T) {
	_, err := New(WithName(""))
	assert.True(t, shared.IsValidation(err))

	_, err = New(WithDescription(string(make([]rune, DescriptionLengthMax+1))))
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = New(WithSKUIDs(0))
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = New(WithStatus(nil))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPrecreateAndCopy(t *testing.T) {
	cleanup(t)

	e, err := Precreate(1000, WithName("later"))
	require.NoError(t, err)
	assert.True(t, e.Partial())

	again, err := Precreate(1000)
	require.NoError(t, err)
	assert.Same(t, e, again)

	c, err := e.CopyWith(WithSKUIDs(5, 4))
	require.NoError(t, err)
	assert.Equal(t, []shared.Snowflake{4, 5}, c.SKUIDs)
	assert.Nil(t, e.SKUIDs)
	assert.True(t, e.Equal(c))
	assert.Equal(t, `<ScheduledEvent id=1000, name="later", status="none", entity_type="none">`, e.String())
}
