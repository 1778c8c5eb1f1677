package dbgen

import (
	"context"
)

const buildingColumns = `b.id, b.name, b.description, b.owner_id, b.revision, b.created_at, b.updated_at`

func scanBuilding(row interface{ Scan(...interface{}) error }) (Building, error) {
	var i Building
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.OwnerID,
		&i.Revision,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createBuilding = `-- name: CreateBuilding :one
INSERT INTO buildings AS b (id, name, description, owner_id)
VALUES ($1, $2, $3, $4)
RETURNING ` + buildingColumns

type CreateBuildingParams struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
}

func (q *Queries) CreateBuilding(ctx context.Context, arg CreateBuildingParams) (Building, error) {
	row := q.db.QueryRow(ctx, createBuilding, arg.ID, arg.Name, arg.Description, arg.OwnerID)
	return scanBuilding(row)
}

const getBuilding = `-- name: GetBuilding :one
SELECT ` + buildingColumns + ` FROM buildings b WHERE b.id = $1`

func (q *Queries) GetBuilding(ctx context.Context, id string) (Building, error) {
	return scanBuilding(q.db.QueryRow(ctx, getBuilding, id))
}

const listBuildingsForUser = `-- name: ListBuildingsForUser :many
SELECT ` + buildingColumns + `
FROM buildings b
JOIN building_permissions p ON p.building_id = b.id
WHERE p.user_id = $1
ORDER BY b.updated_at DESC`

func (q *Queries) ListBuildingsForUser(ctx context.Context, userID string) ([]Building, error) {
	return q.listBuildings(ctx, listBuildingsForUser, userID)
}

const listAllBuildings = `-- name: ListAllBuildings :many
SELECT ` + buildingColumns + ` FROM buildings b ORDER BY b.updated_at DESC`

func (q *Queries) ListAllBuildings(ctx context.Context) ([]Building, error) {
	return q.listBuildings(ctx, listAllBuildings)
}

func (q *Queries) listBuildings(ctx context.Context, query string, args ...interface{}) ([]Building, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Building{}
	for rows.Next() {
		i, err := scanBuilding(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateBuilding = `-- name: UpdateBuilding :one
UPDATE buildings AS b
SET name = $2, description = $3, updated_at = NOW()
WHERE b.id = $1
RETURNING ` + buildingColumns

type UpdateBuildingParams struct {
	ID          string
	Name        string
	Description string
}

func (q *Queries) UpdateBuilding(ctx context.Context, arg UpdateBuildingParams) (Building, error) {
	return scanBuilding(q.db.QueryRow(ctx, updateBuilding, arg.ID, arg.Name, arg.Description))
}

const bumpBuildingRevision = `-- name: BumpBuildingRevision :one
UPDATE buildings
SET revision = revision + 1, updated_at = NOW()
WHERE id = $1
RETURNING revision`

// BumpBuildingRevision marks the building's floors as changed and returns
// the new revision.
func (q *Queries) BumpBuildingRevision(ctx context.Context, id string) (int64, error) {
	var revision int64
	err := q.db.QueryRow(ctx, bumpBuildingRevision, id).Scan(&revision)
	return revision, err
}

const deleteBuilding = `-- name: DeleteBuilding :exec
DELETE FROM buildings WHERE id = $1`

func (q *Queries) DeleteBuilding(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteBuilding, id)
	return err
}

const upsertPermission = `-- name: UpsertPermission :exec
INSERT INTO building_permissions (building_id, user_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (building_id, user_id) DO UPDATE SET role = EXCLUDED.role`

type UpsertPermissionParams struct {
	BuildingID string
	UserID     string
	Role       BuildingRole
}

func (q *Queries) UpsertPermission(ctx context.Context, arg UpsertPermissionParams) error {
	_, err := q.db.Exec(ctx, upsertPermission, arg.BuildingID, arg.UserID, arg.Role)
	return err
}

const getPermission = `-- name: GetPermission :one
SELECT building_id, user_id, role, created_at
FROM building_permissions
WHERE building_id = $1 AND user_id = $2`

type GetPermissionParams struct {
	BuildingID string
	UserID     string
}

func (q *Queries) GetPermission(ctx context.Context, arg GetPermissionParams) (BuildingPermission, error) {
	var i BuildingPermission
	err := q.db.QueryRow(ctx, getPermission, arg.BuildingID, arg.UserID).Scan(
		&i.BuildingID,
		&i.UserID,
		&i.Role,
		&i.CreatedAt,
	)
	return i, err
}

const listPermissions = `-- name: ListPermissions :many
SELECT p.user_id, p.role, u.display_name, u.email
FROM building_permissions p
JOIN users u ON u.id = p.user_id
WHERE p.building_id = $1
ORDER BY p.created_at`

type ListPermissionsRow struct {
	UserID      string
	Role        BuildingRole
	DisplayName string
	Email       string
}

func (q *Queries) ListPermissions(ctx context.Context, buildingID string) ([]ListPermissionsRow, error) {
	rows, err := q.db.Query(ctx, listPermissions, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListPermissionsRow{}
	for rows.Next() {
		var i ListPermissionsRow
		if err := rows.Scan(&i.UserID, &i.Role, &i.DisplayName, &i.Email); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deletePermission = `-- name: DeletePermission :exec
DELETE FROM building_permissions WHERE building_id = $1 AND user_id = $2`

type DeletePermissionParams struct {
	BuildingID string
	UserID     string
}

func (q *Queries) DeletePermission(ctx context.Context, arg DeletePermissionParams) error {
	_, err := q.db.Exec(ctx, deletePermission, arg.BuildingID, arg.UserID)
	return err
}
