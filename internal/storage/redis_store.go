package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Snapshot is one stored fetch result. Items holds the JSON payload exactly
// as it was written to disk.
type Snapshot struct {
	RunID     string          `json:"run_id"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
	Items     json.RawMessage `json:"items"`
}

// DatedTTL bounds how long per-day snapshots are kept.
const DatedTTL = 30 * 24 * time.Hour

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func latestKey(source string) string {
	return fmt.Sprintf("topics:snapshot:%s:latest", source)
}

func datedKey(source, date string) string {
	return fmt.Sprintf("topics:snapshot:%s:%s", source, date)
}

func indexKey(source string) string {
	return fmt.Sprintf("topics:snapshot:%s:index", source)
}

func seenKey(source, id string) string {
	return fmt.Sprintf("topics:seen:%s:%s", source, id)
}

// SaveSnapshot stores payload as the source's latest snapshot and as the
// snapshot of fetchedAt's UTC date, and records the date in the index.
func (s *RedisStore) SaveSnapshot(ctx context.Context, source string, fetchedAt time.Time, payload any) (Snapshot, error) {
	items, err := json.Marshal(payload)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		RunID:     uuid.NewString(),
		Source:    source,
		FetchedAt: fetchedAt.UTC(),
		Items:     items,
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, err
	}
	date := snap.FetchedAt.Format(time.DateOnly)
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, latestKey(source), b, 0)
	pipe.Set(ctx, datedKey(source, date), b, DatedTTL)
	pipe.ZAdd(ctx, indexKey(source), redis.Z{Score: float64(snap.FetchedAt.Unix()), Member: date})
	if _, err := pipe.Exec(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// LatestSnapshot returns the most recent snapshot; ok is false when none exists.
func (s *RedisStore) LatestSnapshot(ctx context.Context, source string) (Snapshot, bool, error) {
	return s.get(ctx, latestKey(source))
}

// SnapshotOn returns the snapshot stored for date (YYYY-MM-DD).
func (s *RedisStore) SnapshotOn(ctx context.Context, source, date string) (Snapshot, bool, error) {
	return s.get(ctx, datedKey(source, date))
}

// SnapshotDates lists stored dates, newest first.
func (s *RedisStore) SnapshotDates(ctx context.Context, source string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.rdb.ZRevRange(ctx, indexKey(source), 0, int64(n-1)).Result()
}

func (s *RedisStore) get(ctx context.Context, key string) (Snapshot, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// MarkSeen records id for source and reports whether it was new within d.
func (s *RedisStore) MarkSeen(ctx context.Context, source, id string, d time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, seenKey(source, id), "1", d).Result()
}
