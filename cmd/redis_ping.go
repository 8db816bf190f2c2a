package cmd

import (
	"context"
	"fmt"
	"time"

	"topic-crawler/internal/redisclient"
	"topic-crawler/internal/storage"

	"github.com/spf13/cobra"
)

// pingCmd pings the configured Redis server.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping Redis and print PONG with the round trip",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()

		start := time.Now()
		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", res, cfg.Redis.Addr, time.Since(start).Round(time.Microsecond))
		return nil
	},
}

var snapshotsLimit int

// snapshotsCmd lists the stored snapshot dates of a source.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots <source>",
	Short: "List stored snapshot dates, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rdb := redisclient.New(GetConfig().Redis)
		defer rdb.Close()

		dates, err := storage.NewRedisStore(rdb).SnapshotDates(cmd.Context(), args[0], snapshotsLimit)
		if err != nil {
			return err
		}
		for _, d := range dates {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	},
}

func init() {
	snapshotsCmd.Flags().IntVar(&snapshotsLimit, "limit", 30, "maximum number of dates")
	redisCmd.AddCommand(pingCmd, snapshotsCmd)
}
