// Package model builds and caches the assembled 3D model of a building.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
)

var ErrIndexOutOfRange = errors.New("floor index out of range")

// BuildingSource loads a building manifest after checking the caller may
// read it.
type BuildingSource interface {
	BuildingSpec(ctx context.Context, actor *auth.Session, buildingID string) (*document.Building, error)
}

// Model is a fully assembled building. Cached models are shared between
// requests and must not be mutated.
type Model struct {
	BuildingID  string               `json:"buildingId"`
	Name        string               `json:"name"`
	Revision    int64                `json:"revision"`
	Floors      []*engine.FloorGroup `json:"floors"`
	Heights     []float64            `json:"heights"`
	TotalHeight float64              `json:"totalHeight"`
}

type Service struct {
	buildings BuildingSource
	pipeline  *engine.Pipeline
	cache     *lru.Cache[string, *Model]
	builds    singleflight.Group
	logger    *slog.Logger
}

func NewService(buildings BuildingSource, pipeline *engine.Pipeline, cacheSize int, logger *slog.Logger) (*Service, error) {
	cache, err := lru.New[string, *Model](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create model cache: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		buildings: buildings,
		pipeline:  pipeline,
		cache:     cache,
		logger:    logger,
	}, nil
}

func cacheKey(buildingID string, revision int64) string {
	return buildingID + "@" + strconv.FormatInt(revision, 10)
}

// Get returns the model for the building's current revision, building it
// if no cached copy exists. Concurrent requests for the same revision share
// one build.
func (s *Service) Get(ctx context.Context, actor *auth.Session, buildingID string) (*Model, error) {
	spec, err := s.buildings.BuildingSpec(ctx, actor, buildingID)
	if err != nil {
		return nil, err
	}

	key := cacheKey(spec.ID, spec.Revision)
	if m, ok := s.cache.Get(key); ok {
		return m, nil
	}

	v, err, shared := s.builds.Do(key, func() (interface{}, error) {
		m, err := s.build(context.WithoutCancel(ctx), spec)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("model build shared", "building", buildingID, "revision", spec.Revision)
	}
	return v.(*Model), nil
}

func (s *Service) build(ctx context.Context, spec *document.Building) (*Model, error) {
	groups, err := s.pipeline.LoadFloors(ctx, spec.Floors)
	if err != nil {
		return nil, err
	}

	stack := engine.NewStack(spec.Floors)
	m := &Model{
		BuildingID:  spec.ID,
		Name:        spec.Name,
		Revision:    spec.Revision,
		Floors:      groups,
		Heights:     make([]float64, len(groups)),
		TotalHeight: stack.Total(),
	}
	for i := range groups {
		m.Heights[i] = stack.Height(i)
	}

	s.logger.Info("model built", "building", spec.ID, "revision", spec.Revision, "floors", len(groups))
	return m, nil
}

// Height returns the vertical offset of the floor at index. index may equal
// the floor count, giving the height of the whole stack.
func (s *Service) Height(ctx context.Context, actor *auth.Session, buildingID string, index int) (float64, error) {
	spec, err := s.buildings.BuildingSpec(ctx, actor, buildingID)
	if err != nil {
		return 0, err
	}
	if index < 0 || index > len(spec.Floors) {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, len(spec.Floors))
	}
	return engine.HeightForIndex(spec.Floors, index), nil
}

// Invalidate drops every cached revision of the building.
func (s *Service) Invalidate(buildingID string) {
	prefix := buildingID + "@"
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Remove(key)
		}
	}
}
