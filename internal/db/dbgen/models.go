package dbgen

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type BuildingRole string

const (
	BuildingRoleOwner  BuildingRole = "owner"
	BuildingRoleEditor BuildingRole = "editor"
	BuildingRoleViewer BuildingRole = "viewer"
)

// Rank orders roles by privilege; unknown roles rank lowest.
func (r BuildingRole) Rank() int {
	switch r {
	case BuildingRoleOwner:
		return 3
	case BuildingRoleEditor:
		return 2
	case BuildingRoleViewer:
		return 1
	}
	return 0
}

func (r BuildingRole) Valid() bool {
	return r.Rank() > 0
}

type User struct {
	ID          string
	GoogleSub   string
	Email       string
	DisplayName string
	PictureURL  string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type Building struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	Revision    int64
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type BuildingPermission struct {
	BuildingID string
	UserID     string
	Role       BuildingRole
	CreatedAt  pgtype.Timestamptz
}

type Floor struct {
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
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

type Location struct {
	ID        string
	FloorID   string
	Name      string
	Kind      string
	X         float64
	Y         float64
	CreatedAt pgtype.Timestamptz
}
