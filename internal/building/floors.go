package building

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/db/dbgen"
	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
	"github.com/johngerving/3D-Building-Map-sub000/internal/typeid"
)

const maxSearchResults = 50

type Floor struct {
	document.FloorSpec
	BuildingID string `json:"buildingId"`
	Ordinal    int    `json:"ordinal"`
	UpdatedAt  string `json:"updatedAt"`
}

type Location struct {
	document.Location
	FloorID string `json:"floorId"`
}

func (s *Service) CreateFloor(ctx context.Context, actor *auth.Session, buildingID string, spec document.FloorSpec) (*Floor, error) {
	spec.ID = typeid.NewFloorID()
	if err := validateFloor(spec); err != nil {
		return nil, err
	}
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleEditor); err != nil {
		return nil, err
	}

	var f dbgen.Floor
	err := s.mutate(ctx, buildingID, func(q *dbgen.Queries) error {
		ordinal, err := q.NextFloorOrdinal(ctx, buildingID)
		if err != nil {
			return fmt.Errorf("next ordinal: %w", err)
		}
		f, err = q.CreateFloor(ctx, dbgen.CreateFloorParams{
			ID:                 spec.ID,
			BuildingID:         buildingID,
			Ordinal:            ordinal,
			Name:               spec.Name,
			SvgSource:          spec.SVGSource,
			Scale:              spec.Scale,
			PositionX:          spec.Position.X,
			PositionZ:          spec.Position.Z,
			VerticalGap:        spec.VerticalGap,
			ExtrudedSectionIds: spec.ExtrudedSectionIDs,
			ExtrudeDepth:       spec.ExtrudeDepth,
			FloorLayerID:       spec.FloorLayer.ID,
			FloorLayerEnabled:  spec.FloorLayer.Enabled,
		})
		if err != nil {
			return fmt.Errorf("create floor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dbFloorToFloor(f, nil), nil
}

func (s *Service) GetFloor(ctx context.Context, actor *auth.Session, buildingID, floorID string) (*Floor, error) {
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleViewer); err != nil {
		return nil, err
	}
	f, err := s.floorIn(ctx, s.queries, buildingID, floorID)
	if err != nil {
		return nil, err
	}
	locs, err := s.queries.ListLocationsByFloor(ctx, floorID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return dbFloorToFloor(f, locs), nil
}

func (s *Service) ListFloors(ctx context.Context, actor *auth.Session, buildingID string) ([]Floor, error) {
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleViewer); err != nil {
		return nil, err
	}
	dbFloors, err := s.queries.ListFloorsByBuilding(ctx, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list floors: %w", err)
	}

	floors := make([]Floor, len(dbFloors))
	for i, f := range dbFloors {
		floors[i] = *dbFloorToFloor(f, nil)
	}
	return floors, nil
}

// UpdateFloor replaces every editable field of the floor.
func (s *Service) UpdateFloor(ctx context.Context, actor *auth.Session, buildingID, floorID string, spec document.FloorSpec) (*Floor, error) {
	spec.ID = floorID
	if err := validateFloor(spec); err != nil {
		return nil, err
	}
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleEditor); err != nil {
		return nil, err
	}

	var f dbgen.Floor
	err := s.mutate(ctx, buildingID, func(q *dbgen.Queries) error {
		if _, err := s.floorIn(ctx, q, buildingID, floorID); err != nil {
			return err
		}
		var err error
		f, err = q.UpdateFloor(ctx, dbgen.UpdateFloorParams{
			ID:                 floorID,
			Name:               spec.Name,
			SvgSource:          spec.SVGSource,
			Scale:              spec.Scale,
			PositionX:          spec.Position.X,
			PositionZ:          spec.Position.Z,
			VerticalGap:        spec.VerticalGap,
			ExtrudedSectionIds: spec.ExtrudedSectionIDs,
			ExtrudeDepth:       spec.ExtrudeDepth,
			FloorLayerID:       spec.FloorLayer.ID,
			FloorLayerEnabled:  spec.FloorLayer.Enabled,
		})
		if err != nil {
			return fmt.Errorf("update floor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dbFloorToFloor(f, nil), nil
}

// SetFloorPosition commits a floor offset, typically after a live drag.
func (s *Service) SetFloorPosition(ctx context.Context, actor *auth.Session, buildingID, floorID string, pos document.Position) error {
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleEditor); err != nil {
		return err
	}
	return s.mutate(ctx, buildingID, func(q *dbgen.Queries) error {
		if _, err := s.floorIn(ctx, q, buildingID, floorID); err != nil {
			return err
		}
		return q.SetFloorPosition(ctx, dbgen.SetFloorPositionParams{
			ID:        floorID,
			PositionX: pos.X,
			PositionZ: pos.Z,
		})
	})
}

// ReorderFloors sets the stacking order. floorIDs must name every floor of
// the building exactly once, ground floor first.
func (s *Service) ReorderFloors(ctx context.Context, actor *auth.Session, buildingID string, floorIDs []string) ([]Floor, error) {
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleEditor); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, buildingID, func(q *dbgen.Queries) error {
		current, err := q.ListFloorsByBuilding(ctx, buildingID)
		if err != nil {
			return fmt.Errorf("list floors: %w", err)
		}
		if err := samePermutation(current, floorIDs); err != nil {
			return err
		}
		for i, id := range floorIDs {
			if err := q.SetFloorOrdinal(ctx, dbgen.SetFloorOrdinalParams{ID: id, Ordinal: int32(i)}); err != nil {
				return fmt.Errorf("set ordinal: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ListFloors(ctx, actor, buildingID)
}

func samePermutation(current []dbgen.Floor, ids []string) error {
	if len(ids) != len(current) {
		return fmt.Errorf("%w: expected %d floor ids, got %d", ErrInvalid, len(current), len(ids))
	}
	want := make(map[string]bool, len(current))
	for _, f := range current {
		want[f.ID] = true
	}
	for _, id := range ids {
		if !want[id] {
			return fmt.Errorf("%w: floor %q is not in this building or is repeated", ErrInvalid, id)
		}
		delete(want, id)
	}
	return nil
}

func (s *Service) DeleteFloor(ctx context.Context, actor *auth.Session, buildingID, floorID string) error {
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleEditor); err != nil {
		return err
	}
	return s.mutate(ctx, buildingID, func(q *dbgen.Queries) error {
		if _, err := s.floorIn(ctx, q, buildingID, floorID); err != nil {
			return err
		}
		return q.DeleteFloor(ctx, floorID)
	})
}

func (s *Service) CreateLocation(ctx context.Context, actor *auth.Session, buildingID, floorID string, loc document.Location) (*Location, error) {
	if err := validateLocation(loc); err != nil {
		return nil, err
	}
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleEditor); err != nil {
		return nil, err
	}

	var l dbgen.Location
	err := s.mutate(ctx, buildingID, func(q *dbgen.Queries) error {
		if _, err := s.floorIn(ctx, q, buildingID, floorID); err != nil {
			return err
		}
		var err error
		l, err = q.CreateLocation(ctx, dbgen.CreateLocationParams{
			ID:      typeid.NewLocationID(),
			FloorID: floorID,
			Name:    strings.TrimSpace(loc.Name),
			Kind:    loc.Kind,
			X:       loc.X,
			Y:       loc.Y,
		})
		if err != nil {
			return fmt.Errorf("create location: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dbLocationToLocation(l), nil
}

func (s *Service) ListLocations(ctx context.Context, actor *auth.Session, buildingID, floorID string) ([]Location, error) {
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleViewer); err != nil {
		return nil, err
	}
	if _, err := s.floorIn(ctx, s.queries, buildingID, floorID); err != nil {
		return nil, err
	}
	rows, err := s.queries.ListLocationsByFloor(ctx, floorID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return dbLocationsToLocations(rows), nil
}

func (s *Service) UpdateLocation(ctx context.Context, actor *auth.Session, buildingID, locationID string, loc document.Location) (*Location, error) {
	if err := validateLocation(loc); err != nil {
		return nil, err
	}
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleEditor); err != nil {
		return nil, err
	}

	var l dbgen.Location
	err := s.mutate(ctx, buildingID, func(q *dbgen.Queries) error {
		if err := s.locationIn(ctx, q, buildingID, locationID); err != nil {
			return err
		}
		var err error
		l, err = q.UpdateLocation(ctx, dbgen.UpdateLocationParams{
			ID:   locationID,
			Name: strings.TrimSpace(loc.Name),
			Kind: loc.Kind,
			X:    loc.X,
			Y:    loc.Y,
		})
		if err != nil {
			return fmt.Errorf("update location: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dbLocationToLocation(l), nil
}

func (s *Service) DeleteLocation(ctx context.Context, actor *auth.Session, buildingID, locationID string) error {
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleEditor); err != nil {
		return err
	}
	return s.mutate(ctx, buildingID, func(q *dbgen.Queries) error {
		if err := s.locationIn(ctx, q, buildingID, locationID); err != nil {
			return err
		}
		return q.DeleteLocation(ctx, locationID)
	})
}

// SearchLocations finds locations anywhere in the building whose name
// contains query, ignoring case.
func (s *Service) SearchLocations(ctx context.Context, actor *auth.Session, buildingID, query string, limit int) ([]Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: q is required", ErrInvalid)
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleViewer); err != nil {
		return nil, err
	}

	rows, err := s.queries.SearchLocations(ctx, dbgen.SearchLocationsParams{
		BuildingID: buildingID,
		Query:      escapeLike(query),
		Limit:      int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}
	return dbLocationsToLocations(rows), nil
}

// BuildingSpec assembles the manifest the floor pipeline consumes: the
// building's floors in stacking order with their locations attached.
func (s *Service) BuildingSpec(ctx context.Context, actor *auth.Session, buildingID string) (*document.Building, error) {
	b, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleViewer)
	if err != nil {
		return nil, err
	}

	var (
		floors []dbgen.Floor
		locs   []dbgen.Location
	)
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead}, func(tx pgx.Tx) error {
		q := s.queries.WithTx(tx)
		var err error
		if b, err = q.GetBuilding(ctx, buildingID); err != nil {
			return fmt.Errorf("get building: %w", err)
		}
		if floors, err = q.ListFloorsByBuilding(ctx, buildingID); err != nil {
			return fmt.Errorf("list floors: %w", err)
		}
		if locs, err = q.ListLocationsByBuilding(ctx, buildingID); err != nil {
			return fmt.Errorf("list locations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byFloor := make(map[string][]dbgen.Location)
	for _, l := range locs {
		byFloor[l.FloorID] = append(byFloor[l.FloorID], l)
	}

	spec := &document.Building{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Revision:    b.Revision,
		Floors:      make([]document.FloorSpec, len(floors)),
	}
	for i, f := range floors {
		spec.Floors[i] = dbFloorToFloor(f, byFloor[f.ID]).FloorSpec
	}
	return spec, nil
}

func (s *Service) floorIn(ctx context.Context, q *dbgen.Queries, buildingID, floorID string) (dbgen.Floor, error) {
	f, err := q.GetFloor(ctx, floorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Floor{}, ErrNotFound
		}
		return dbgen.Floor{}, fmt.Errorf("get floor: %w", err)
	}
	if f.BuildingID != buildingID {
		return dbgen.Floor{}, ErrNotFound
	}
	return f, nil
}

func (s *Service) locationIn(ctx context.Context, q *dbgen.Queries, buildingID, locationID string) error {
	l, err := q.GetLocation(ctx, locationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get location: %w", err)
	}
	_, err = s.floorIn(ctx, q, buildingID, l.FloorID)
	return err
}

func validateFloor(spec document.FloorSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	if strings.TrimSpace(spec.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if typeid.IsAssetSource(spec.SVGSource) {
		if _, err := typeid.AssetIDFromSource(spec.SVGSource); err != nil {
			return fmt.Errorf("%w: svgSource: %s", ErrInvalid, err.Error())
		}
	}
	return nil
}

func validateLocation(loc document.Location) error {
	if strings.TrimSpace(loc.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func dbFloorToFloor(f dbgen.Floor, locs []dbgen.Location) *Floor {
	out := &Floor{
		FloorSpec: document.FloorSpec{
			ID:                 f.ID,
			Name:               f.Name,
			SVGSource:          f.SvgSource,
			Scale:              f.Scale,
			Position:           document.Position{X: f.PositionX, Z: f.PositionZ},
			VerticalGap:        f.VerticalGap,
			ExtrudedSectionIDs: f.ExtrudedSectionIds,
			ExtrudeDepth:       f.ExtrudeDepth,
			FloorLayer:         document.FloorLayer{ID: f.FloorLayerID, Enabled: f.FloorLayerEnabled},
		},
		BuildingID: f.BuildingID,
		Ordinal:    int(f.Ordinal),
		UpdatedAt:  f.UpdatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
	for _, l := range locs {
		out.Locations = append(out.Locations, dbLocationToLocation(l).Location)
	}
	return out
}

func dbLocationToLocation(l dbgen.Location) *Location {
	return &Location{
		Location: document.Location{
			ID:   l.ID,
			Name: l.Name,
			Kind: l.Kind,
			X:    l.X,
			Y:    l.Y,
		},
		FloorID: l.FloorID,
	}
}

func dbLocationsToLocations(rows []dbgen.Location) []Location {
	out := make([]Location, len(rows))
	for i, l := range rows {
		out[i] = *dbLocationToLocation(l)
	}
	return out
}
