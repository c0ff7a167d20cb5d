package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/edirooss/loglite-server/internal/domain/event"
	"github.com/edirooss/loglite-server/internal/logfmt"
	"github.com/edirooss/loglite-server/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// rawIngestAppID scopes raw text ingests that carry no tenant of their own.
const rawIngestAppID = "default"

// Ingestor is the pipeline slice the ingest handler needs.
type Ingestor interface {
	Ingest(ctx context.Context, appID string, events []event.IngestEvent) (int, error)
}

// IngestHandler serves structured and raw log ingestion.
type IngestHandler struct {
	log *zap.Logger
	svc Ingestor
}

// NewIngestHandler initializes the ingest handler.
func NewIngestHandler(log *zap.Logger, svc Ingestor) *IngestHandler {
	return &IngestHandler{log: log.Named("ingest_handler"), svc: svc}
}

// Ingest accepts a JSON batch of events for one application.
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req struct {
		AppID  string              `json:"app_id"`
		Events []event.IngestEvent `json:"events"`
	}
	if err := jsonx.DecodeStrictBody(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if strings.TrimSpace(req.AppID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "app_id is required"})
		return
	}

	accepted, err := h.svc.Ingest(c.Request.Context(), req.AppID, req.Events)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

// IngestRaw accepts a text/plain body of log lines on
// /api/ingest/{nginx|java|rust|go|auto} and runs it through the matching
// parser. "auto" detects the format first and rejects unknown input.
func (h *IngestHandler) IngestRaw(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	lines := strings.Split(string(body), "\n")

	var events []event.IngestEvent
	switch c.Param("format") {
	case "nginx":
		events = nginxEvents(lines)
	case "java":
		events = mergedEvents(lines, logfmt.Java)
	case "rust":
		events = mergedEvents(lines, logfmt.Rust)
	case "go":
		events = mergedEvents(lines, logfmt.Go)
	case "auto":
		switch format := logfmt.Detect(lines); format {
		case logfmt.Unknown:
			c.JSON(http.StatusBadRequest, gin.H{"message": "unknown log format"})
			return
		case logfmt.Nginx:
			events = nginxEvents(lines)
		default:
			events = mergedEvents(lines, format)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "unsupported log format"})
		return
	}

	accepted, err := h.svc.Ingest(c.Request.Context(), rawIngestAppID, events)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

// nginxEvents parses access log lines one-to-one; the multi-line merge does
// not apply to nginx.
func nginxEvents(lines []string) []event.IngestEvent {
	sourcetype := "nginx_access"
	now := time.Now().UTC()

	var events []event.IngestEvent
	for _, line := range lines {
		msg, fields, ok := logfmt.ParseNginxAccessLine(line)
		if !ok {
			continue
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			raw = json.RawMessage("{}")
		}
		events = append(events, event.IngestEvent{
			TS:         now,
			Source:     "nginx",
			Sourcetype: &sourcetype,
			Message:    msg,
			Fields:     raw,
		})
	}
	return events
}

// mergedEvents runs the multi-line merge for an application log format.
func mergedEvents(lines []string, format logfmt.Format) []event.IngestEvent {
	name := format.String()
	entries := logfmt.Merge(lines, format)

	events := make([]event.IngestEvent, 0, len(entries))
	for _, entry := range entries {
		var severity *int
		if sev, ok := logfmt.LevelToSeverity(entry.Level); ok {
			severity = &sev
		}
		fields := json.RawMessage("{}")
		if len(entry.Fields) > 0 {
			if raw, err := json.Marshal(entry.Fields); err == nil {
				fields = raw
			}
		}
		events = append(events, event.IngestEvent{
			TS:         entry.Timestamp,
			Source:     name,
			Sourcetype: &name,
			Severity:   severity,
			Message:    entry.Message,
			Fields:     fields,
		})
	}
	return events
}
