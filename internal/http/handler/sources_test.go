package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/edirooss/loglite-server/internal/domain/source"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSourceStore struct {
	nextID  int64
	sources map[int64]*source.Source
}

func newFakeSourceStore() *fakeSourceStore {
	return &fakeSourceStore{nextID: 1, sources: map[int64]*source.Source{}}
}

func (s *fakeSourceStore) Create(ctx context.Context, src *source.Source) (*source.Source, error) {
	cp := *src
	cp.ID = s.nextID
	s.nextID++
	s.sources[cp.ID] = &cp
	return &cp, nil
}

func (s *fakeSourceStore) List(ctx context.Context, appID string) ([]*source.Source, error) {
	var out []*source.Source
	for _, src := range s.sources {
		if appID == "" || src.AppID == appID {
			out = append(out, src)
		}
	}
	return out, nil
}

func (s *fakeSourceStore) Get(ctx context.Context, id int64) (*source.Source, error) {
	src, ok := s.sources[id]
	if !ok {
		return nil, source.ErrNotFound
	}
	return src, nil
}

func (s *fakeSourceStore) Update(ctx context.Context, id int64, req *source.UpdateRequest) (*source.Source, error) {
	src, ok := s.sources[id]
	if !ok {
		return nil, source.ErrNotFound
	}
	if req.Path != nil {
		src.Path = *req.Path
	}
	if req.Enabled != nil {
		src.Enabled = *req.Enabled
	}
	return src, nil
}

func (s *fakeSourceStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.sources[id]; !ok {
		return source.ErrNotFound
	}
	delete(s.sources, id)
	return nil
}

func sourcesRouter(store SourceStore) *gin.Engine {
	r := newRouter()
	h := NewSourcesHandler(zap.NewNop(), store)
	r.POST("/api/sources", h.CreateSource)
	r.GET("/api/sources", h.GetSourceList)
	r.GET("/api/sources/:id", h.GetSource)
	r.PUT("/api/sources/:id", h.UpdateSource)
	r.DELETE("/api/sources/:id", h.DeleteSource)
	return r
}

func TestCreateSourceDefaults(t *testing.T) {
	r := sourcesRouter(newFakeSourceStore())

	w := performRequest(t, r, http.MethodPost, "/api/sources",
		`{"app_id":"web-1","kind":"tail","path":"/var/log/app"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got source.Source
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.ID)
	assert.False(t, got.Recursive)
	assert.Equal(t, "utf-8", got.Encoding)
	assert.True(t, got.Enabled)
}

func TestCreateSourceValidation(t *testing.T) {
	r := sourcesRouter(newFakeSourceStore())

	w := performRequest(t, r, http.MethodPost, "/api/sources", `{"kind":"tail","path":"/var/log/app"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/sources", `{"app_id":"web-1","kind":"tail"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSourceNotFound(t *testing.T) {
	r := sourcesRouter(newFakeSourceStore())

	w := performRequest(t, r, http.MethodGet, "/api/sources/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(t, r, http.MethodGet, "/api/sources/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSource(t *testing.T) {
	store := newFakeSourceStore()
	r := sourcesRouter(store)

	performRequest(t, r, http.MethodPost, "/api/sources",
		`{"app_id":"web-1","kind":"tail","path":"/var/log/app"}`)

	w := performRequest(t, r, http.MethodPut, "/api/sources/1", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got source.Source
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.Enabled)
	assert.Equal(t, "/var/log/app", got.Path)
}

func TestDeleteSource(t *testing.T) {
	store := newFakeSourceStore()
	r := sourcesRouter(store)

	performRequest(t, r, http.MethodPost, "/api/sources",
		`{"app_id":"web-1","kind":"tail","path":"/var/log/app"}`)

	w := performRequest(t, r, http.MethodDelete, "/api/sources/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.sources)

	w = performRequest(t, r, http.MethodDelete, "/api/sources/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSourceListFiltersByApp(t *testing.T) {
	r := sourcesRouter(newFakeSourceStore())

	performRequest(t, r, http.MethodPost, "/api/sources",
		`{"app_id":"web-1","kind":"tail","path":"/var/log/a"}`)
	performRequest(t, r, http.MethodPost, "/api/sources",
		`{"app_id":"api-2","kind":"tail","path":"/var/log/b"}`)

	w := performRequest(t, r, http.MethodGet, "/api/sources?app_id=web-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []source.Source
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "web-1", got[0].AppID)
}
