package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/edirooss/loglite-server/internal/domain/event"
	"github.com/edirooss/loglite-server/internal/search"
	"github.com/edirooss/loglite-server/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Searcher is the planner slice the search handler needs.
type Searcher interface {
	Search(ctx context.Context, req *event.SearchRequest) (*event.SearchResponse, error)
}

// SearchHandler serves hybrid full-text + structured queries.
type SearchHandler struct {
	log *zap.Logger
	svc Searcher
}

// NewSearchHandler initializes the search handler.
func NewSearchHandler(log *zap.Logger, svc Searcher) *SearchHandler {
	return &SearchHandler{log: log.Named("search_handler"), svc: svc}
}

// Search executes one query. A malformed user query string maps to 400;
// store failures map to 500.
func (h *SearchHandler) Search(c *gin.Context) {
	req := event.SearchRequest{Limit: 100}
	if err := jsonx.DecodeStrictBody(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if strings.TrimSpace(req.AppID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "app_id is required"})
		return
	}

	resp, err := h.svc.Search(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		if errors.Is(err, search.ErrBadQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}
