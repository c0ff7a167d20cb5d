package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/edirooss/loglite-server/internal/domain/source"
	"github.com/edirooss/loglite-server/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SourceStore is the configuration slice the sources handler needs.
type SourceStore interface {
	Create(ctx context.Context, s *source.Source) (*source.Source, error)
	List(ctx context.Context, appID string) ([]*source.Source, error)
	Get(ctx context.Context, id int64) (*source.Source, error)
	Update(ctx context.Context, id int64, req *source.UpdateRequest) (*source.Source, error)
	Delete(ctx context.Context, id int64) error
}

// SourcesHandler serves the log-source CRUD endpoints.
type SourcesHandler struct {
	log     *zap.Logger
	sources SourceStore
}

// NewSourcesHandler initializes the sources handler.
func NewSourcesHandler(log *zap.Logger, sources SourceStore) *SourcesHandler {
	return &SourcesHandler{log: log.Named("sources_handler"), sources: sources}
}

// CreateSource registers a tailed path for an application.
func (h *SourcesHandler) CreateSource(c *gin.Context) {
	var req source.CreateRequest
	if err := jsonx.DecodeStrictBody(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if strings.TrimSpace(req.AppID) == "" || strings.TrimSpace(req.Path) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "app_id and path are required"})
		return
	}

	s := &source.Source{
		AppID:       req.AppID,
		Kind:        req.Kind,
		Path:        req.Path,
		Recursive:   false,
		Encoding:    "utf-8",
		IncludeGlob: req.IncludeGlob,
		ExcludeGlob: req.ExcludeGlob,
		Enabled:     true,
		CreatedAt:   time.Now().UTC(),
	}
	if req.Recursive != nil {
		s.Recursive = *req.Recursive
	}
	if req.Encoding != nil {
		s.Encoding = *req.Encoding
	}
	if req.Enabled != nil {
		s.Enabled = *req.Enabled
	}

	out, err := h.sources.Create(c.Request.Context(), s)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetSourceList lists sources, optionally filtered by ?app_id=.
func (h *SourcesHandler) GetSourceList(c *gin.Context) {
	sources, err := h.sources.List(c.Request.Context(), c.Query("app_id"))
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sources)
}

// GetSource returns one source by id.
func (h *SourcesHandler) GetSource(c *gin.Context) {
	id, ok := sourceID(c)
	if !ok {
		return
	}
	s, err := h.sources.Get(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSource applies a partial update to one source.
func (h *SourcesHandler) UpdateSource(c *gin.Context) {
	id, ok := sourceID(c)
	if !ok {
		return
	}
	var req source.UpdateRequest
	if err := jsonx.DecodeStrictBody(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	s, err := h.sources.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// DeleteSource removes one source.
func (h *SourcesHandler) DeleteSource(c *gin.Context) {
	id, ok := sourceID(c)
	if !ok {
		return
	}
	if err := h.sources.Delete(c.Request.Context(), id); err != nil {
		h.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func sourceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid source id"})
		return 0, false
	}
	return id, true
}

func (h *SourcesHandler) storeError(c *gin.Context, err error) {
	c.Error(err)
	if errors.Is(err, source.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}
