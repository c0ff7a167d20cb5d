// Package handler contains the gin route handlers for the /api surface.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/edirooss/loglite-server/internal/domain/app"
	"github.com/edirooss/loglite-server/pkg/appid"
	"github.com/edirooss/loglite-server/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AppStore is the registry slice the apps handler needs.
type AppStore interface {
	Upsert(ctx context.Context, a *app.App) (*app.App, error)
	List(ctx context.Context) ([]*app.App, error)
}

// AppsHandler serves the application registry endpoints.
type AppsHandler struct {
	log  *zap.Logger
	apps AppStore
}

// NewAppsHandler initializes the apps handler.
func NewAppsHandler(log *zap.Logger, apps AppStore) *AppsHandler {
	return &AppsHandler{log: log.Named("apps_handler"), apps: apps}
}

// CreateApp registers an application. The app_id derives deterministically
// from the trimmed name, so repeated registration converges on one row.
func (h *AppsHandler) CreateApp(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := jsonx.DecodeStrictBody(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}

	out, err := h.apps.Upsert(c.Request.Context(), &app.App{
		AppID:     appid.FromName(name),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, out)
}

// GetAppList lists registered applications, newest first.
func (h *AppsHandler) GetAppList(c *gin.Context) {
	apps, err := h.apps.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, apps)
}
