package dbgen

import (
	"context"
)

const floorColumns = `id, building_id, ordinal, name, svg_source, scale, position_x, position_z,
vertical_gap, extruded_section_ids, extrude_depth, floor_layer_id, floor_layer_enabled,
created_at, updated_at`

func scanFloor(row interface{ Scan(...interface{}) error }) (Floor, error) {
	var i Floor
	err := row.Scan(
		&i.ID,
		&i.BuildingID,
		&i.Ordinal,
		&i.Name,
		&i.SvgSource,
		&i.Scale,
		&i.PositionX,
		&i.PositionZ,
		&i.VerticalGap,
		&i.ExtrudedSectionIds,
		&i.ExtrudeDepth,
		&i.FloorLayerID,
		&i.FloorLayerEnabled,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if i.ExtrudedSectionIds == nil {
		i.ExtrudedSectionIds = []string{}
	}
	return i, err
}

const nextFloorOrdinal = `-- name: NextFloorOrdinal :one
SELECT COALESCE(MAX(ordinal) + 1, 0)::INTEGER FROM floors WHERE building_id = $1`

func (q *Queries) NextFloorOrdinal(ctx context.Context, buildingID string) (int32, error) {
	var ordinal int32
	err := q.db.QueryRow(ctx, nextFloorOrdinal, buildingID).Scan(&ordinal)
	return ordinal, err
}

const createFloor = `-- name: CreateFloor :one
INSERT INTO floors (
    id, building_id, ordinal, name, svg_source, scale, position_x, position_z,
    vertical_gap, extruded_section_ids, extrude_depth, floor_layer_id, floor_layer_enabled
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + floorColumns

type CreateFloorParams struct {
	ID                 string
	BuildingID         string
	Ordinal            int32
	Name               string
	SvgSource          string
	Scale              float64
	PositionX          float64
	PositionZ          float64
	VerticalGap        float64
	ExtrudedSectionIds []string
	ExtrudeDepth       float64
	FloorLayerID       string
	FloorLayerEnabled  bool
}

func (q *Queries) CreateFloor(ctx context.Context, arg CreateFloorParams) (Floor, error) {
	row := q.db.QueryRow(ctx, createFloor,
		arg.ID,
		arg.BuildingID,
		arg.Ordinal,
		arg.Name,
		arg.SvgSource,
		arg.Scale,
		arg.PositionX,
		arg.PositionZ,
		arg.VerticalGap,
		nonNil(arg.ExtrudedSectionIds),
		arg.ExtrudeDepth,
		arg.FloorLayerID,
		arg.FloorLayerEnabled,
	)
	return scanFloor(row)
}

const getFloor = `-- name: GetFloor :one
SELECT ` + floorColumns + ` FROM floors WHERE id = $1`

func (q *Queries) GetFloor(ctx context.Context, id string) (Floor, error) {
	return scanFloor(q.db.QueryRow(ctx, getFloor, id))
}

const listFloorsByBuilding = `-- name: ListFloorsByBuilding :many
SELECT ` + floorColumns + `
FROM floors
WHERE building_id = $1
ORDER BY ordinal, created_at`

// ListFloorsByBuilding returns floors bottom-up.
func (q *Queries) ListFloorsByBuilding(ctx context.Context, buildingID string) ([]Floor, error) {
	rows, err := q.db.Query(ctx, listFloorsByBuilding, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Floor{}
	for rows.Next() {
		i, err := scanFloor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateFloor = `-- name: UpdateFloor :one
UPDATE floors
SET name = $2,
    svg_source = $3,
    scale = $4,
    position_x = $5,
    position_z = $6,
    vertical_gap = $7,
    extruded_section_ids = $8,
    extrude_depth = $9,
    floor_layer_id = $10,
    floor_layer_enabled = $11,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + floorColumns

type UpdateFloorParams struct {
	ID                 string
	Name               string
	SvgSource          string
	Scale              float64
	PositionX          float64
	PositionZ          float64
	VerticalGap        float64
	ExtrudedSectionIds []string
	ExtrudeDepth       float64
	FloorLayerID       string
	FloorLayerEnabled  bool
}

func (q *Queries) UpdateFloor(ctx context.Context, arg UpdateFloorParams) (Floor, error) {
	row := q.db.QueryRow(ctx, updateFloor,
		arg.ID,
		arg.Name,
		arg.SvgSource,
		arg.Scale,
		arg.PositionX,
		arg.PositionZ,
		arg.VerticalGap,
		nonNil(arg.ExtrudedSectionIds),
		arg.ExtrudeDepth,
		arg.FloorLayerID,
		arg.FloorLayerEnabled,
	)
	return scanFloor(row)
}

const setFloorPosition = `-- name: SetFloorPosition :exec
UPDATE floors SET position_x = $2, position_z = $3, updated_at = NOW() WHERE id = $1`

type SetFloorPositionParams struct {
	ID        string
	PositionX float64
	PositionZ float64
}

func (q *Queries) SetFloorPosition(ctx context.Context, arg SetFloorPositionParams) error {
	_, err := q.db.Exec(ctx, setFloorPosition, arg.ID, arg.PositionX, arg.PositionZ)
	return err
}

const setFloorOrdinal = `-- name: SetFloorOrdinal :exec
UPDATE floors SET ordinal = $2, updated_at = NOW() WHERE id = $1`

type SetFloorOrdinalParams struct {
	ID      string
	Ordinal int32
}

func (q *Queries) SetFloorOrdinal(ctx context.Context, arg SetFloorOrdinalParams) error {
	_, err := q.db.Exec(ctx, setFloorOrdinal, arg.ID, arg.Ordinal)
	return err
}

const deleteFloor = `-- name: DeleteFloor :exec
DELETE FROM floors WHERE id = $1`

func (q *Queries) DeleteFloor(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteFloor, id)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
