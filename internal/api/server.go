// Package api exposes reports and stored snapshots over HTTP.
package api

import (
	"context"
	"time"

	"topic-crawler/internal/ai"
	"topic-crawler/internal/storage"

	"github.com/gin-gonic/gin"
)

// SnapshotReader is the read side of the snapshot store.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, source string) (storage.Snapshot, bool, error)
	SnapshotOn(ctx context.Context, source, date string) (storage.Snapshot, bool, error)
}

// Deps are the collaborators of the handlers. Titles and Snapshots may be nil.
type Deps struct {
	DataRoot  string
	Titles    ai.TitleSuggester
	Snapshots SnapshotReader
	Now       func() time.Time
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	r := gin.New()
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r)
	RegisterReportRoutes(r, d)
	RegisterSnapshotRoutes(r, d)
	return r
}
