package cmd

import (
	"context"
	"log/slog"
	"time"

	"topic-crawler/internal/ai"
	"topic-crawler/internal/bilibili"
	"topic-crawler/internal/config"
	"topic-crawler/internal/fetch"
	"topic-crawler/internal/newsnow"
	"topic-crawler/internal/redisclient"
	"topic-crawler/internal/storage"

	"golang.org/x/time/rate"
)

func newBilibili(cfg config.Config) (*bilibili.Client, error) {
	b := cfg.Sources.Bilibili
	opts := fetch.Options{Proxy: b.Proxy}
	if b.RateLimitRPS > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(b.RateLimitRPS), 1)
	}
	fc, err := fetch.New(opts)
	if err != nil {
		return nil, err
	}
	return bilibili.NewClient(bilibili.Config{
		SearchURL:  b.SearchURL,
		HotwordURL: b.HotwordURL,
		RankingURL: b.RankingURL,
		Cookie:     b.Cookie,
	}, fc), nil
}

func newNewsnow(cfg config.Config) (*newsnow.Client, error) {
	fc, err := fetch.New(fetch.Options{Proxy: cfg.Sources.Newsnow.Proxy})
	if err != nil {
		return nil, err
	}
	return newsnow.NewClient(cfg.Sources.Newsnow.BaseURL, fc), nil
}

func newsOptions(cfg config.Config) newsnow.Options {
	return newsnow.Options{
		Retries:          cfg.Sources.Newsnow.RetryCount(),
		MaxDetailFetches: cfg.Sources.Newsnow.MaxDetailFetches,
	}
}

// openStore returns nil when Redis mirroring is disabled. The returned
// close func is always safe to call.
func openStore(cfg config.Config) (*storage.RedisStore, func()) {
	if !cfg.Redis.Enabled {
		return nil, func() {}
	}
	rdb := redisclient.New(cfg.Redis)
	return storage.NewRedisStore(rdb), func() { rdb.Close() }
}

// mirror stores payload when a store is configured; failures are logged only.
func mirror(ctx context.Context, store *storage.RedisStore, source string, at time.Time, payload any) {
	if store == nil {
		return
	}
	if _, err := store.SaveSnapshot(ctx, source, at, payload); err != nil {
		slog.Warn("redis: snapshot not stored", "source", source, "err", err)
	}
}

// newTitleSuggester returns nil without an API key.
func newTitleSuggester(cfg config.Config) (ai.TitleSuggester, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, nil
	}
	c, err := ai.NewOpenAI(ai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL})
	if err != nil {
		return nil, err
	}
	return c, nil
}
