package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"topic-crawler/internal/model"
	"topic-crawler/internal/snapshot"

	"github.com/spf13/cobra"
)

var (
	newsAll     bool
	newsName    string
	newsCompact bool
)

// newsCmd fetches the latest headlines of one platform, or of every
// configured platform with --all.
var newsCmd = &cobra.Command{
	Use:   "news [platform_id]",
	Short: "Fetch latest headlines from the newsnow aggregator",
	Args: func(cmd *cobra.Command, args []string) error {
		if newsAll && len(args) == 0 {
			return nil
		}
		if !newsAll && len(args) == 1 {
			return nil
		}
		return fmt.Errorf("expected a platform id or --all")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		client, err := newNewsnow(cfg)
		if err != nil {
			return err
		}
		store, closeStore := openStore(cfg)
		defer closeStore()

		ctx := cmd.Context()
		at := time.Now().UTC()
		out := filepath.Join(cfg.Output.Dir, cfg.Output.File)
		opts := newsOptions(cfg)

		if newsAll {
			batch, err := client.FetchBatch(ctx, cfg.Sources.Newsnow.Platforms, cfg.NewsInterval(), opts)
			if err != nil {
				return err
			}
			for pid, items := range batch {
				mirror(ctx, store, pid, at, model.StripRaw(items))
			}
			return snapshot.Write(cmd.OutOrStdout(), out, batch, newsCompact)
		}

		pid := args[0]
		name := newsName
		if name == "" {
			name = platformName(cfg.Sources.Newsnow.Platforms, pid)
		}
		items, err := client.FetchLatest(ctx, pid, name, opts)
		if err != nil {
			return err
		}
		mirror(ctx, store, pid, at, model.StripRaw(items))
		return snapshot.Write(cmd.OutOrStdout(), out, items, newsCompact)
	},
}

func platformName(ps []model.Platform, id string) string {
	for _, p := range ps {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func init() {
	newsCmd.Flags().BoolVar(&newsAll, "all", false, "fetch every configured platform")
	newsCmd.Flags().StringVar(&newsName, "name", "", "display name of the platform")
	newsCmd.Flags().BoolVar(&newsCompact, "compact", false, "omit raw upstream payloads")
	rootCmd.AddCommand(newsCmd)
}
