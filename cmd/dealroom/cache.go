package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/config"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/deals"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the deal context cache",
	Long: `Manage the Redis cache in front of the deal store.

Examples:
  dealroom cache invalidate deal-1
  dealroom cache invalidate deal-1 deal-2`,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <deal-id>...",
	Short: "Drop cached deal context so the next turn reloads it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := invalidateDeals(cmd.Context(), cfg, logger, args...); err != nil {
			return err
		}
		for _, id := range args {
			fmt.Println(successStyle.Render("Invalidated " + id))
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInvalidateCmd)
}

func invalidateDeals(ctx context.Context, c *config.Config, logger *zap.Logger, dealIDs ...string) error {
	if c.Deals.RedisAddr == "" {
		return errors.New("deal cache is not configured, set deals.redis_addr")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := redis.NewClient(&redis.Options{Addr: c.Deals.RedisAddr})
	defer client.Close()

	cache := deals.NewCachedProvider(nil, client, c.Deals.CacheTTL, logger)
	for _, id := range dealIDs {
		if err := cache.Invalidate(ctx, id); err != nil {
			return fmt.Errorf("failed to invalidate %s: %w", id, err)
		}
	}
	return nil
}
