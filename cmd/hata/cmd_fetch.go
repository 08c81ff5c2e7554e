package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hata-go/hata/config"
	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
	"github.com/hata-go/hata/internal/domain/scheduledevent"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/team"
	"github.com/hata-go/hata/internal/domain/user"
	"github.com/hata-go/hata/internal/infrastructure/external/discord"
	"github.com/hata-go/hata/internal/infrastructure/persistence/entitystore"
	"github.com/hata-go/hata/internal/infrastructure/persistence/redis"
	"github.com/hata-go/hata/internal/infrastructure/persistence/sqlasync"
	"github.com/hata-go/hata/pkg/logger"
	"github.com/hata-go/hata/pkg/retry"
)

// ErrNoToken is returned when a fetch runs without DISCORD_TOKEN.
var ErrNoToken = errors.New("DISCORD_TOKEN is not set")

// fetchOptions are the flags shared by every fetch subcommand.
type fetchOptions struct {
	envFile    string
	save       bool
	cache      bool
	withCounts bool
}

func newFetchCmd(c *cli) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch an entity from the Discord API",
		Long: `Fetch an entity from the Discord REST API and print its JSON.

Configuration comes from the environment (and .env). --save writes the entity
to the store at DATABASE_URL, --cache writes it to Redis.`,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment from this file instead of ./.env")
	cmd.PersistentFlags().BoolVar(&opts.save, "save", false, "Persist the entity to the entity store")
	cmd.PersistentFlags().BoolVar(&opts.cache, "cache", false, "Write the entity through the Redis cache")

	userCmd := &cobra.Command{
		Use:   "user <id>",
		Short: "Fetch a user by id, or @me for the token's own user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd, opts, func(ctx context.Context, s *session) (entity, error) {
				if args[0] == "@me" {
					return s.client.GetCurrentUser(ctx)
				}
				id, err := shared.ParseSnowflake(args[0])
				if err != nil {
					return nil, err
				}
				return s.client.GetUser(ctx, id)
			})
		},
	}

	guildCmd := &cobra.Command{
		Use:   "guild <id>",
		Short: "Fetch a guild by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.ParseSnowflake(args[0])
			if err != nil {
				return err
			}
			return c.runFetch(cmd, opts, func(ctx context.Context, s *session) (entity, error) {
				return s.client.GetGuild(ctx, id, opts.withCounts)
			})
		},
	}
	guildCmd.Flags().BoolVar(&opts.withCounts, "with-counts", false, "Include approximate member counts")

	cmd.AddCommand(userCmd, guildCmd)
	return cmd
}

// entity is what every fetch subcommand prints and persists.
type entity interface {
	ToData(defaults, includeInternals bool) field.Data
}

// session is the wiring for one fetch invocation.
type session struct {
	cfg    *config.Config
	log    *logger.Logger
	client *discord.Client
	store  *entitystore.Store
	cache  *redis.Cache

	closers []func() error
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *cli) runFetch(cmd *cobra.Command, opts *fetchOptions, fetch func(ctx context.Context, s *session) (entity, error)) error {
	ctx := cmd.Context()

	s, err := c.openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			s.log.Warn("failed to close session", logger.Err(err))
		}
	}()

	e, err := fetch(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to fetch: %w", err)
	}

	if err := s.persist(ctx, e); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), e.ToData(true, true))
}

func (c *cli) openSession(ctx context.Context, opts *fetchOptions) (*session, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Discord.Token == "" {
		return nil, ErrNoToken
	}

	log := c.log
	if c.logLevel == "" && !c.verbose && cfg.Observability.LogLevel != "" {
		log = logger.New(logger.Options{
			Output:    c.output,
			Level:     logger.ParseLevel(cfg.Observability.LogLevel),
			AddCaller: cfg.Observability.LogCaller,
		})
	}
	log = log.With(logger.String("app", cfg.App.Name))

	resizeIdentityMaps(cfg.Cache)

	s := &session{
		cfg:    cfg,
		log:    log,
		client: discord.NewClient(clientConfig(cfg, log)),
	}

	if opts.save {
		store, closeStore, err := openStore(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.closers = append(s.closers, closeStore)
	}

	if opts.cache {
		if cfg.Redis.Disabled {
			log.Warn("redis is disabled, --cache ignored")
		} else {
			cache, err := redis.NewCache(cacheConfig(cfg.Redis))
			if err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			s.cache = cache
			s.closers = append(s.closers, cache.Close)
		}
	}

	return s, nil
}

// persist writes e to the store and cache when they are open.
func (s *session) persist(ctx context.Context, e entity) error {
	switch v := e.(type) {
	case *user.User:
		if s.store != nil {
			if err := s.store.SaveUser(ctx, v); err != nil {
				return fmt.Errorf("failed to save user: %w", err)
			}
		}
		if s.cache != nil {
			if err := s.cache.SetUser(ctx, v); err != nil {
				return fmt.Errorf("failed to cache user: %w", err)
			}
		}
	case *guild.Guild:
		if s.store != nil {
			if err := s.store.SaveGuild(ctx, v); err != nil {
				return fmt.Errorf("failed to save guild: %w", err)
			}
		}
		if s.cache != nil {
			if err := s.cache.SetGuild(ctx, v); err != nil {
				return fmt.Errorf("failed to cache guild: %w", err)
			}
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING
// ══════════════════════════════════════════════════════════════════════════════

func resizeIdentityMaps(cfg config.CacheConfig) {
	user.Users.Resize(cfg.Users)
	guild.Guilds.Resize(cfg.Guilds)
	team.Teams.Resize(cfg.Teams)
	scheduledevent.ScheduledEvents.Resize(cfg.ScheduledEvents)
}

func clientConfig(cfg *config.Config, log *logger.Logger) discord.ClientConfig {
	cc := discord.DefaultClientConfig(cfg.Discord.Token)
	cc.TokenType = cfg.Discord.TokenType
	cc.BaseURL = cfg.Discord.BaseURL
	cc.APIVersion = cfg.Discord.APIVersion
	cc.UserAgent = fmt.Sprintf("DiscordBot (https://github.com/hata-go/hata, %s)", Version)
	cc.Timeout = cfg.Discord.RequestTimeout
	cc.MaxConcurrency = cfg.Discord.MaxConcurrency
	cc.RateLimiterConfig = discord.RateLimiterConfig{
		GlobalRate:  float64(cfg.Discord.GlobalRateLimit),
		GlobalBurst: cfg.Discord.GlobalRateBurst,
		RouteRate:   cfg.Discord.RouteRateLimit,
		RouteBurst:  1,
	}
	cc.MaxAttempts = cfg.Discord.MaxRetries
	cc.RetryDelay = cfg.Discord.RetryBaseDelay
	cc.BreakerThreshold = cfg.Discord.CircuitBreakerThreshold
	cc.BreakerTimeout = cfg.Discord.CircuitBreakerTimeout
	cc.Logger = log
	return cc
}

func cacheConfig(cfg config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Host
	rc.Port = cfg.Port
	rc.Password = cfg.Password
	rc.DB = cfg.DB
	rc.PoolSize = cfg.PoolSize
	rc.MinIdleConns = cfg.MinIdleConns
	rc.DialTimeout = cfg.DialTimeout
	rc.ReadTimeout = cfg.ReadTimeout
	rc.WriteTimeout = cfg.WriteTimeout
	rc.EntityTTL = cfg.EntityTTL
	return rc
}

// openStore opens the database behind the entity store and applies its
// migrations. Connection failures are retried, unsupported urls are not.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*entitystore.Store, func() error, error) {
	opts := sqlasync.Options{
		QueueSize:    cfg.QueueSize,
		QueryTimeout: cfg.QueryTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
		Logger:       log,
	}

	retrier := retry.DatabaseRetrier(retry.WithRetryIf(func(err error) bool {
		return !errors.Is(err, sqlasync.ErrUnsupportedURL)
	}))
	engine, err := retry.DoWithData(ctx, retrier, func(ctx context.Context) (*sqlasync.Engine, error) {
		return sqlasync.Open(ctx, cfg.URL, opts)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := entitystore.New(engine, log)
	if err := store.Migrate(ctx); err != nil {
		_ = engine.Close()
		return nil, nil, fmt.Errorf("failed to migrate entity store: %w", err)
	}
	return store, engine.Close, nil
}

func writeJSON(w io.Writer, data field.Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
