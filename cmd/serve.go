package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"topic-crawler/internal/api"
	"topic-crawler/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the collector and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		interval, err := time.ParseDuration(cfg.Collector.Interval)
		if err != nil {
			return err
		}
		bili, err := newBilibili(cfg)
		if err != nil {
			return err
		}
		news, err := newNewsnow(cfg)
		if err != nil {
			return err
		}
		titles, err := newTitleSuggester(cfg)
		if err != nil {
			return err
		}
		store, closeStore := openStore(cfg)
		defer closeStore()

		collector := &worker.Collector{
			News:              news,
			Video:             bili,
			DataRoot:          cfg.Output.DataRoot,
			Interval:          interval,
			Platforms:         cfg.Sources.Newsnow.Platforms,
			NewsOptions:       newsOptions(cfg),
			NewsInterval:      cfg.NewsInterval(),
			HotLimit:          cfg.Collector.HotLimit,
			EnrichPer:         cfg.Collector.EnrichPageSize(),
			EnrichConcurrency: cfg.Collector.EnrichConcurrency,
			Keywords:          cfg.Collector.Keywords,
		}
		deps := api.Deps{DataRoot: cfg.Output.DataRoot, Titles: titles}
		// typed nil pointers must not reach the interfaces
		if store != nil {
			collector.Store = store
			deps.Snapshots = store
		}

		if cfg.App.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		server := &worker.HTTPServer{Addr: cfg.Server.Addr, Handler: api.NewRouter(deps)}

		slog.Info("starting collector", "platforms", len(collector.Platforms), "interval", interval)
		mgr := worker.NewManager(collector, server)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			slog.Info("received signal, shutting down", "signal", s.String())
			cancel()
		}()

		return mgr.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
