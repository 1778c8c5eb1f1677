package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/building"
	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
)

type fakeBuildings struct {
	mu       sync.Mutex
	building *document.Building
}

func (f *fakeBuildings) BuildingSpec(_ context.Context, actor *auth.Session, id string) (*document.Building, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.building.ID {
		return nil, building.ErrNotFound
	}
	if actor.UserID == "" {
		return nil, building.ErrNotMember
	}
	b := *f.building
	return &b, nil
}

func (f *fakeBuildings) bump() {
	f.mu.Lock()
	f.building.Revision++
	f.mu.Unlock()
}

type countingFetcher struct {
	calls atomic.Int64
	inner engine.Fetcher
}

func (c *countingFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	c.calls.Add(1)
	return c.inner.Fetch(ctx, source)
}

func newTestService(t *testing.T) (*Service, *fakeBuildings, *countingFetcher) {
	t.Helper()
	src := &fakeBuildings{building: document.NewSampleBuilding("bld_1")}
	src.building.Revision = 1
	fetcher := &countingFetcher{inner: engine.StaticFetcher(document.SampleSources)}
	svc, err := NewService(src, engine.NewPipeline(fetcher), 4, nil)
	require.NoError(t, err)
	return svc, src, fetcher
}

var member = &auth.Session{UserID: "user_1"}

func TestGetCachesByRevision(t *testing.T) {
	svc, src, fetcher := newTestService(t)
	ctx := context.Background()

	m, err := svc.Get(ctx, member, "bld_1")
	require.NoError(t, err)
	require.Len(t, m.Floors, 2)
	assert.Equal(t, int64(1), m.Revision)
	assert.Equal(t, 0.0, m.Heights[0])
	assert.InDelta(t, m.Heights[1], m.Floors[1].StackY(), 1e-9)
	assert.Equal(t, int64(2), fetcher.calls.Load())

	again, err := svc.Get(ctx, member, "bld_1")
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Equal(t, int64(2), fetcher.calls.Load())

	src.bump()
	next, err := svc.Get(ctx, member, "bld_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Revision)
	assert.Equal(t, int64(4), fetcher.calls.Load())

	svc.Invalidate("bld_1")
	assert.Zero(t, svc.cache.Len())
}

func TestGetSharesConcurrentBuilds(t *testing.T) {
	svc, _, _ := newTestService(t)

	var wg sync.WaitGroup
	results := make([]*Model, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := svc.Get(context.Background(), member, "bld_1")
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range results[1:] {
		assert.Same(t, results[0], m)
	}
}

func TestHeight(t *testing.T) {
	svc, src, _ := newTestService(t)
	ctx := context.Background()

	h, err := svc.Height(ctx, member, "bld_1", 1)
	require.NoError(t, err)
	assert.InDelta(t, engine.HeightForIndex(src.building.Floors, 1), h, 1e-12)
	assert.Positive(t, h)

	_, err = svc.Height(ctx, member, "bld_1", 3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = svc.Height(ctx, member, "bld_1", -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func serve(t *testing.T, svc *Service, sess *auth.Session, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	NewHandler(svc).Register(router)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(auth.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	svc, _, _ := newTestService(t)

	rec := serve(t, svc, member, "/buildings/bld_1/model")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Floors []struct {
			Name   string `json:"name"`
			Meshes []struct {
				Name string `json:"name"`
			} `json:"meshes"`
		} `json:"floors"`
		Heights []float64 `json:"heights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Floors, 2)
	assert.NotEmpty(t, body.Floors[0].Meshes)

	rec = serve(t, svc, member, "/buildings/bld_1/model/height?index=2")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, svc, member, "/buildings/bld_1/model/height?index=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, svc, member, "/buildings/bld_2/model")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, svc, &auth.Session{}, "/buildings/bld_1/model")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerReportsFailedFloor(t *testing.T) {
	svc, src, _ := newTestService(t)
	src.building.Floors[1].SVGSource = "sample://missing.svg"

	rec := serve(t, svc, member, "/buildings/bld_1/model")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, src.building.Floors[1].ID, body["floorId"])
	assert.Contains(t, body["error"], "missing.svg")
}
