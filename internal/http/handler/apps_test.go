package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/edirooss/loglite-server/internal/domain/app"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAppStore struct {
	byID map[string]*app.App
}

func newFakeAppStore() *fakeAppStore {
	return &fakeAppStore{byID: map[string]*app.App{}}
}

func (s *fakeAppStore) Upsert(ctx context.Context, a *app.App) (*app.App, error) {
	if existing, ok := s.byID[a.AppID]; ok {
		existing.Name = a.Name
		return existing, nil
	}
	cp := *a
	s.byID[a.AppID] = &cp
	return &cp, nil
}

func (s *fakeAppStore) List(ctx context.Context) ([]*app.App, error) {
	out := make([]*app.App, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	return out, nil
}

func appsRouter(store AppStore) *gin.Engine {
	r := newRouter()
	h := NewAppsHandler(zap.NewNop(), store)
	r.POST("/api/apps", h.CreateApp)
	r.GET("/api/apps", h.GetAppList)
	return r
}

func TestCreateApp(t *testing.T) {
	r := appsRouter(newFakeAppStore())

	w := performRequest(t, r, http.MethodPost, "/api/apps", `{"name":"My App"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got app.App
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "My App", got.Name)
	assert.Regexp(t, `^my-app-[0-9a-f]{8}$`, got.AppID)
}

func TestCreateAppIdempotent(t *testing.T) {
	store := newFakeAppStore()
	r := appsRouter(store)

	w1 := performRequest(t, r, http.MethodPost, "/api/apps", `{"name":"payments"}`)
	w2 := performRequest(t, r, http.MethodPost, "/api/apps", `{"name":"payments"}`)
	require.Equal(t, http.StatusOK, w1.Code)
	require.Equal(t, http.StatusOK, w2.Code)

	var a1, a2 app.App
	require.NoError(t, json.Unmarshal(w1.Body.Bytes(), &a1))
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &a2))
	assert.Equal(t, a1.AppID, a2.AppID)
	assert.Len(t, store.byID, 1)
}

func TestCreateAppValidation(t *testing.T) {
	r := appsRouter(newFakeAppStore())

	w := performRequest(t, r, http.MethodPost, "/api/apps", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/apps", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/apps", `{"name":"x","bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAppList(t *testing.T) {
	store := newFakeAppStore()
	r := appsRouter(store)

	performRequest(t, r, http.MethodPost, "/api/apps", `{"name":"one"}`)
	performRequest(t, r, http.MethodPost, "/api/apps", `{"name":"two"}`)

	w := performRequest(t, r, http.MethodGet, "/api/apps", "")
	require.Equal(t, http.StatusOK, w.Code)

	var apps []app.App
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apps))
	assert.Len(t, apps, 2)
}
