package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hata-go/hata/config"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/infrastructure/persistence/redis"
	"github.com/hata-go/hata/pkg/logger"
)

var (
	// ErrRedisDisabled is returned by watch when REDIS_DISABLED is set.
	ErrRedisDisabled = errors.New("redis is disabled")
	// ErrUnknownKind is returned for a kind no entity is cached under.
	ErrUnknownKind = errors.New("unknown entity kind")
)

var watchableKinds = map[shared.Kind]bool{
	shared.KindUser:           true,
	shared.KindGuild:          true,
	shared.KindTeam:           true,
	shared.KindScheduledEvent: true,
}

func newWatchCmd(c *cli) *cobra.Command {
	var (
		envFile string
		count   int
	)

	cmd := &cobra.Command{
		Use:   "watch <kind>",
		Short: "Print entity changes other processes publish to the cache",
		Long: `Subscribe to the Redis update channel of one entity kind (user, guild,
team, scheduled_event) and print every update as a JSON line. Updates are
published whenever a cached entity is overwritten with different fields.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := shared.Kind(args[0])
			if !watchableKinds[kind] {
				return fmt.Errorf("%w: %q", ErrUnknownKind, args[0])
			}

			var envFiles []string
			if envFile != "" {
				envFiles = append(envFiles, envFile)
			}
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Redis.Disabled {
				return ErrRedisDisabled
			}

			return c.watch(cmd, cfg.Redis, kind, count)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of ./.env")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Exit after this many updates (0 waits until interrupted)")
	return cmd
}

func (c *cli) watch(cmd *cobra.Command, cfg config.RedisConfig, kind shared.Kind, count int) error {
	ctx := cmd.Context()

	cache, err := redis.NewCache(cacheConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer cache.Close()

	sub, err := cache.SubscribeUpdates(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Close()

	c.log.Info("watching entity updates", logger.String("kind", kind.String()))

	enc := json.NewEncoder(cmd.OutOrStdout())
	seen := 0
	for update := range sub.Updates() {
		if err := enc.Encode(update); err != nil {
			return err
		}
		seen++
		if count > 0 && seen >= count {
			return nil
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}
