package discord

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/hata-go/hata/internal/domain/emoji"
	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
	"github.com/hata-go/hata/internal/domain/poll"
	"github.com/hata-go/hata/internal/domain/scheduledevent"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/team"
	"github.com/hata-go/hata/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, userID shared.Snowflake) (*user.User, error) {
	data, err := c.getObject(ctx, request{route: NewRoute(http.MethodGet, "/users/{user_id}", userID)})
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user.FromData(data)
}

// GetCurrentUser fetches the user the token belongs to.
func (c *Client) GetCurrentUser(ctx context.Context) (*user.User, error) {
	data, err := c.getObject(ctx, request{route: NewRoute(http.MethodGet, "/users/@me")})
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return user.FromData(data)
}

// GetUsers fetches several users concurrently, at most MaxConcurrency at a
// time. The result keeps the order of userIDs; the first error cancels the rest.
func (c *Client) GetUsers(ctx context.Context, userIDs []shared.Snowflake) ([]*user.User, error) {
	users := make([]*user.User, len(userIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxConcurrency)
	for i, id := range userIDs {
		g.Go(func() error {
			u, err := c.GetUser(ctx, id)
			if err != nil {
				return err
			}
			users[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GUILD AND TEAM OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetGuild fetches a guild. withCounts fills the approximate member and presence counts.
func (c *Client) GetGuild(ctx context.Context, guildID shared.Snowflake, withCounts bool) (*guild.Guild, error) {
	req := request{route: NewRoute(http.MethodGet, "/guilds/{guild_id}", guildID)}
	if withCounts {
		req.query = url.Values{"with_counts": {"true"}}
	}

	data, err := c.getObject(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild %s: %w", guildID, err)
	}
	return guild.FromData(data)
}

// GetApplicationTeam fetches the team owning the current application.
// It returns nil without error when the application is owned by a user.
func (c *Client) GetApplicationTeam(ctx context.Context) (*team.Team, error) {
	data, err := c.getObject(ctx, request{route: NewRoute(http.MethodGet, "/oauth2/applications/@me")})
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	teamData, ok := field.Object(data["team"])
	if !ok {
		return nil, nil
	}
	return team.FromData(teamData)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULED EVENT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

func userCountQuery(withUserCount bool) url.Values {
	if !withUserCount {
		return nil
	}
	return url.Values{"with_user_count": {"true"}}
}

// ListScheduledEvents fetches the scheduled events of a guild.
func (c *Client) ListScheduledEvents(ctx context.Context, guildID shared.Snowflake, withUserCount bool) ([]*scheduledevent.ScheduledEvent, error) {
	items, err := c.getArray(ctx, request{
		route: NewRoute(http.MethodGet, "/guilds/{guild_id}/scheduled-events", guildID),
		query: userCountQuery(withUserCount),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled events of guild %s: %w", guildID, err)
	}

	events := make([]*scheduledevent.ScheduledEvent, 0, len(items))
	for _, item := range items {
		event, err := scheduledevent.FromData(item)
		if err != nil {
			return nil, fmt.Errorf("failed to parse scheduled event: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

// GetScheduledEvent fetches one scheduled event.
func (c *Client) GetScheduledEvent(ctx context.Context, guildID, eventID shared.Snowflake, withUserCount bool) (*scheduledevent.ScheduledEvent, error) {
	data, err := c.getObject(ctx, request{
		route: NewRoute(http.MethodGet, "/guilds/{guild_id}/scheduled-events/{event_id}", guildID, eventID),
		query: userCountQuery(withUserCount),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled event %s: %w", eventID, err)
	}
	return scheduledevent.FromData(data)
}

// CreateScheduledEvent creates a scheduled event in a guild from a locally
// built event. The event is validated before anything is sent.
func (c *Client) CreateScheduledEvent(ctx context.Context, guildID shared.Snowflake, event *scheduledevent.ScheduledEvent, reason string) (*scheduledevent.ScheduledEvent, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	data, err := c.getObject(ctx, request{
		route:  NewRoute(http.MethodPost, "/guilds/{guild_id}/scheduled-events", guildID),
		body:   event.CreateData(),
		reason: reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled event in guild %s: %w", guildID, err)
	}
	return scheduledevent.FromData(data)
}

// DeleteScheduledEvent deletes a scheduled event and drops it from the cache.
func (c *Client) DeleteScheduledEvent(ctx context.Context, guildID, eventID shared.Snowflake, reason string) error {
	_, err := c.doRequest(ctx, request{
		route:  NewRoute(http.MethodDelete, "/guilds/{guild_id}/scheduled-events/{event_id}", guildID, eventID),
		reason: reason,
	})
	if err != nil {
		return fmt.Errorf("failed to delete scheduled event %s: %w", eventID, err)
	}
	scheduledevent.ScheduledEvents.Remove(eventID)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REACTION AND POLL OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AddReaction reacts to a message as the current user.
func (c *Client) AddReaction(ctx context.Context, channelID, messageID shared.Snowflake, e *emoji.Emoji) error {
	if e == nil {
		return shared.NewDomainError("reaction", "AddReaction", shared.ErrInvalidInput, "emoji is required")
	}

	_, err := c.doRequest(ctx, request{
		route: NewRoute(http.MethodPut, "/channels/{channel_id}/messages/{message_id}/reactions/{emoji}/@me",
			channelID, messageID, e.AsReaction()),
	})
	if err != nil {
		return fmt.Errorf("failed to add reaction to message %s: %w", messageID, err)
	}
	return nil
}

// ReactionUsersOptions pages through the users of a reaction.
type ReactionUsersOptions struct {
	Type  emoji.ReactionType
	After shared.Snowflake
	Limit int
}

// GetReactionUsers fetches users who reacted to a message with an emoji.
func (c *Client) GetReactionUsers(ctx context.Context, channelID, messageID shared.Snowflake, e *emoji.Emoji, opts ReactionUsersOptions) ([]*user.User, error) {
	if e == nil {
		return nil, shared.NewDomainError("reaction", "GetReactionUsers", shared.ErrInvalidInput, "emoji is required")
	}

	query := url.Values{}
	if opts.Type != nil {
		query.Set("type", strconv.Itoa(opts.Type.Value()))
	}
	if !opts.After.IsZero() {
		query.Set("after", opts.After.String())
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	items, err := c.getArray(ctx, request{
		route: NewRoute(http.MethodGet, "/channels/{channel_id}/messages/{message_id}/reactions/{emoji}",
			channelID, messageID, e.AsReaction()),
		query: query,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction users of message %s: %w", messageID, err)
	}
	return parseUsers(items)
}

// GetPollAnswerVoters fetches users who voted for a poll answer.
func (c *Client) GetPollAnswerVoters(ctx context.Context, channelID, messageID shared.Snowflake, answerID int, after shared.Snowflake, limit int) ([]*user.User, error) {
	query := url.Values{}
	if !after.IsZero() {
		query.Set("after", after.String())
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	data, err := c.getObject(ctx, request{
		route: NewRoute(http.MethodGet, "/channels/{channel_id}/polls/{message_id}/answers/{answer_id}",
			channelID, messageID, answerID),
		query: query,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get voters of answer %d: %w", answerID, err)
	}

	raw, _ := field.Array(data["users"])
	items := make([]field.Data, 0, len(raw))
	for _, item := range raw {
		if obj, ok := field.Object(item); ok {
			items = append(items, obj)
		}
	}
	return parseUsers(items)
}

// EndPoll expires a poll immediately and returns its finalized state.
func (c *Client) EndPoll(ctx context.Context, channelID, messageID shared.Snowflake) (*poll.Poll, error) {
	data, err := c.getObject(ctx, request{
		route: NewRoute(http.MethodPost, "/channels/{channel_id}/polls/{message_id}/expire", channelID, messageID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to end poll on message %s: %w", messageID, err)
	}

	pollData, ok := field.Object(data["poll"])
	if !ok {
		return nil, fmt.Errorf("%w: message has no poll", shared.ErrDiscordBadResponse)
	}
	return poll.FromData(pollData)
}

func parseUsers(items []field.Data) ([]*user.User, error) {
	users := make([]*user.User, 0, len(items))
	for _, item := range items {
		u, err := user.FromData(item)
		if err != nil {
			return nil, fmt.Errorf("failed to parse user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}
