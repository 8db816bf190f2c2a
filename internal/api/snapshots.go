package api

import (
	"net/http"

	"topic-crawler/internal/storage"

	"github.com/gin-gonic/gin"
)

// RegisterSnapshotRoutes registers read access to stored snapshots.
func RegisterSnapshotRoutes(r *gin.Engine, d Deps) {
	r.GET("/api/snapshots/:source", func(c *gin.Context) { handleSnapshot(c, d) })
}

// handleSnapshot serves the latest snapshot of a source, or the one of
// ?date=YYYY-MM-DD.
func handleSnapshot(c *gin.Context, d Deps) {
	if d.Snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot store disabled"})
		return
	}
	source := c.Param("source")
	date := c.Query("date")

	var (
		snap storage.Snapshot
		ok   bool
		err  error
	)
	if date == "" {
		snap, ok, err = d.Snapshots.LatestSnapshot(c.Request.Context(), source)
	} else {
		snap, ok, err = d.Snapshots.SnapshotOn(c.Request.Context(), source, date)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot", "source": source, "date": date})
		return
	}
	c.JSON(http.StatusOK, snap)
}
