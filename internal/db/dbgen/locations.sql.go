package dbgen

import (
	"context"
)

const locationColumns = `l.id, l.floor_id, l.name, l.kind, l.x, l.y, l.created_at`

func scanLocation(row interface{ Scan(...interface{}) error }) (Location, error) {
	var i Location
	err := row.Scan(
		&i.ID,
		&i.FloorID,
		&i.Name,
		&i.Kind,
		&i.X,
		&i.Y,
		&i.CreatedAt,
	)
	return i, err
}

func (q *Queries) listLocations(ctx context.Context, query string, args ...interface{}) ([]Location, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Location{}
	for rows.Next() {
		i, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createLocation = `-- name: CreateLocation :one
INSERT INTO locations AS l (id, floor_id, name, kind, x, y)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + locationColumns

type CreateLocationParams struct {
	ID      string
	FloorID string
	Name    string
	Kind    string
	X       float64
	Y       float64
}

func (q *Queries) CreateLocation(ctx context.Context, arg CreateLocationParams) (Location, error) {
	row := q.db.QueryRow(ctx, createLocation, arg.ID, arg.FloorID, arg.Name, arg.Kind, arg.X, arg.Y)
	return scanLocation(row)
}

const getLocation = `-- name: GetLocation :one
SELECT ` + locationColumns + ` FROM locations l WHERE l.id = $1`

func (q *Queries) GetLocation(ctx context.Context, id string) (Location, error) {
	return scanLocation(q.db.QueryRow(ctx, getLocation, id))
}

const listLocationsByFloor = `-- name: ListLocationsByFloor :many
SELECT ` + locationColumns + ` FROM locations l WHERE l.floor_id = $1 ORDER BY l.name`

func (q *Queries) ListLocationsByFloor(ctx context.Context, floorID string) ([]Location, error) {
	return q.listLocations(ctx, listLocationsByFloor, floorID)
}

const listLocationsByBuilding = `-- name: ListLocationsByBuilding :many
SELECT ` + locationColumns + `
FROM locations l
JOIN floors f ON f.id = l.floor_id
WHERE f.building_id = $1
ORDER BY f.ordinal, l.name`

func (q *Queries) ListLocationsByBuilding(ctx context.Context, buildingID string) ([]Location, error) {
	return q.listLocations(ctx, listLocationsByBuilding, buildingID)
}

const searchLocations = `-- name: SearchLocations :many
SELECT ` + locationColumns + `
FROM locations l
JOIN floors f ON f.id = l.floor_id
WHERE f.building_id = $1 AND LOWER(l.name) LIKE '%' || LOWER($2) || '%'
ORDER BY l.name
LIMIT $3`

type SearchLocationsParams struct {
	BuildingID string
	Query      string
	Limit      int32
}

// SearchLocations matches location names case-insensitively by substring.
func (q *Queries) SearchLocations(ctx context.Context, arg SearchLocationsParams) ([]Location, error) {
	return q.listLocations(ctx, searchLocations, arg.BuildingID, arg.Query, arg.Limit)
}

const updateLocation = `-- name: UpdateLocation :one
UPDATE locations AS l
SET name = $2, kind = $3, x = $4, y = $5
WHERE l.id = $1
RETURNING ` + locationColumns

type UpdateLocationParams struct {
	ID   string
	Name string
	Kind string
	X    float64
	Y    float64
}

func (q *Queries) UpdateLocation(ctx context.Context, arg UpdateLocationParams) (Location, error) {
	row := q.db.QueryRow(ctx, updateLocation, arg.ID, arg.Name, arg.Kind, arg.X, arg.Y)
	return scanLocation(row)
}

const deleteLocation = `-- name: DeleteLocation :exec
DELETE FROM locations WHERE id = $1`

func (q *Queries) DeleteLocation(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteLocation, id)
	return err
}
