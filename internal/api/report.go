package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"topic-crawler/internal/report"

	"github.com/gin-gonic/gin"
)

type reportRequest struct {
	Topic string `json:"topic"`
	Date  string `json:"date"`
}

type reportResponse struct {
	Summary  report.Summary `json:"summary"`
	Titles   []string       `json:"titles"`
	Markdown string         `json:"markdown"`
}

// RegisterReportRoutes registers the report endpoint.
func RegisterReportRoutes(r *gin.Engine, d Deps) {
	r.POST("/api/report", func(c *gin.Context) { handleReport(c, d) })
}

// handleReport summarizes the stored search snapshot for the requested date
// and renders it. Title suggestions are best effort.
func handleReport(c *gin.Context, d Deps) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
		return
	}

	req.Date = strings.TrimSpace(req.Date)
	if req.Date != "" {
		if _, err := time.Parse(time.DateOnly, req.Date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
	}

	records, err := report.LoadTopicItems(d.DataRoot, req.Date)
	if err != nil {
		slog.Error("api: load records", "date", req.Date, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary := report.Summarize(records)

	titles := []string{}
	if d.Titles != nil {
		got, err := d.Titles.SuggestTitles(c.Request.Context(), req.Topic, "热搜选题")
		if err != nil {
			slog.Warn("api: title suggestions failed", "topic", req.Topic, "err", err)
		} else {
			titles = got
		}
	}

	md, err := report.Render(req.Topic, summary, titles, d.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reportResponse{Summary: summary, Titles: titles, Markdown: md})
}
