package building

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/db/dbgen"
	"github.com/johngerving/3D-Building-Map-sub000/internal/typeid"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrNotMember         = errors.New("no access to building")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalid           = errors.New("invalid request")
	ErrCannotRevokeOwner = errors.New("cannot revoke the building owner")
)

// ChangeFunc is called after a mutation that changes the building model
// has been committed.
type ChangeFunc func(buildingID string, revision int64)

type Service struct {
	pool     *pgxpool.Pool
	queries  *dbgen.Queries
	onChange ChangeFunc
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool, queries: dbgen.New(pool)}
}

// OnChange registers the model change hook. It must be set before the
// service is shared.
func (s *Service) OnChange(fn ChangeFunc) {
	s.onChange = fn
}

type Building struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"ownerId"`
	Revision    int64  `json:"revision"`
	Role        string `json:"role,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type Permission struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

func (s *Service) Create(ctx context.Context, actor *auth.Session, name, description string) (*Building, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	var b dbgen.Building
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		q := s.queries.WithTx(tx)
		var err error
		b, err = q.CreateBuilding(ctx, dbgen.CreateBuildingParams{
			ID:          typeid.NewBuildingID(),
			Name:        name,
			Description: description,
			OwnerID:     actor.UserID,
		})
		if err != nil {
			return fmt.Errorf("create building: %w", err)
		}
		return q.UpsertPermission(ctx, dbgen.UpsertPermissionParams{
			BuildingID: b.ID,
			UserID:     actor.UserID,
			Role:       dbgen.BuildingRoleOwner,
		})
	})
	if err != nil {
		return nil, err
	}

	return dbBuildingToBuilding(b, dbgen.BuildingRoleOwner), nil
}

func (s *Service) Get(ctx context.Context, actor *auth.Session, buildingID string) (*Building, error) {
	b, role, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleViewer)
	if err != nil {
		return nil, err
	}
	return dbBuildingToBuilding(b, role), nil
}

// List returns the buildings the actor holds any role on. Admins see all
// buildings.
func (s *Service) List(ctx context.Context, actor *auth.Session) ([]Building, error) {
	var (
		dbBuildings []dbgen.Building
		err         error
	)
	if actor.Admin {
		dbBuildings, err = s.queries.ListAllBuildings(ctx)
	} else {
		dbBuildings, err = s.queries.ListBuildingsForUser(ctx, actor.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}

	buildings := make([]Building, len(dbBuildings))
	for i, b := range dbBuildings {
		buildings[i] = *dbBuildingToBuilding(b, "")
	}
	return buildings, nil
}

func (s *Service) Update(ctx context.Context, actor *auth.Session, buildingID, name, description string) (*Building, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	_, role, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleEditor)
	if err != nil {
		return nil, err
	}

	b, err := s.queries.UpdateBuilding(ctx, dbgen.UpdateBuildingParams{
		ID:          buildingID,
		Name:        name,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("update building: %w", err)
	}
	return dbBuildingToBuilding(b, role), nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.Session, buildingID string) error {
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleOwner); err != nil {
		return err
	}
	return s.queries.DeleteBuilding(ctx, buildingID)
}

// Grant gives the user with email an editor or viewer role, replacing any
// role they already hold.
func (s *Service) Grant(ctx context.Context, actor *auth.Session, buildingID, email, role string) error {
	r := dbgen.BuildingRole(role)
	if r != dbgen.BuildingRoleEditor && r != dbgen.BuildingRoleViewer {
		return fmt.Errorf("%w: role must be editor or viewer", ErrInvalid)
	}
	b, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleOwner)
	if err != nil {
		return err
	}

	grantee, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if grantee.ID == b.OwnerID {
		return ErrCannotRevokeOwner
	}

	return s.queries.UpsertPermission(ctx, dbgen.UpsertPermissionParams{
		BuildingID: buildingID,
		UserID:     grantee.ID,
		Role:       r,
	})
}

func (s *Service) ListPermissions(ctx context.Context, actor *auth.Session, buildingID string) ([]Permission, error) {
	if _, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleViewer); err != nil {
		return nil, err
	}

	rows, err := s.queries.ListPermissions(ctx, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	perms := make([]Permission, len(rows))
	for i, p := range rows {
		perms[i] = Permission{
			UserID:      p.UserID,
			Role:        string(p.Role),
			DisplayName: p.DisplayName,
			Email:       p.Email,
		}
	}
	return perms, nil
}

func (s *Service) Revoke(ctx context.Context, actor *auth.Session, buildingID, targetUserID string) error {
	b, _, err := s.authorize(ctx, actor, buildingID, dbgen.BuildingRoleOwner)
	if err != nil {
		return err
	}
	if targetUserID == b.OwnerID {
		return ErrCannotRevokeOwner
	}

	return s.queries.DeletePermission(ctx, dbgen.DeletePermissionParams{
		BuildingID: buildingID,
		UserID:     targetUserID,
	})
}

// authorize loads the building and checks that actor holds at least need.
// Admins are treated as owners of every building.
func (s *Service) authorize(ctx context.Context, actor *auth.Session, buildingID string, need dbgen.BuildingRole) (dbgen.Building, dbgen.BuildingRole, error) {
	b, err := s.queries.GetBuilding(ctx, buildingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Building{}, "", ErrNotFound
		}
		return dbgen.Building{}, "", fmt.Errorf("get building: %w", err)
	}

	if actor.Admin {
		return b, dbgen.BuildingRoleOwner, nil
	}

	perm, err := s.queries.GetPermission(ctx, dbgen.GetPermissionParams{
		BuildingID: buildingID,
		UserID:     actor.UserID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Building{}, "", ErrNotMember
		}
		return dbgen.Building{}, "", fmt.Errorf("check permission: %w", err)
	}
	if perm.Role.Rank() < need.Rank() {
		return dbgen.Building{}, "", ErrForbidden
	}
	return b, perm.Role, nil
}

// mutate bumps the building revision, runs fn in the same transaction and
// then reports the change.
func (s *Service) mutate(ctx context.Context, buildingID string, fn func(q *dbgen.Queries) error) error {
	var revision int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		q := s.queries.WithTx(tx)
		// The revision bump locks the building row, so mutations of one
		// building run one at a time.
		var err error
		revision, err = q.BumpBuildingRevision(ctx, buildingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("bump revision: %w", err)
		}
		return fn(q)
	})
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %s", ErrInvalid, err.Error())
		}
		return err
	}
	if s.onChange != nil {
		s.onChange(buildingID, revision)
	}
	return nil
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514" // check_violation
	}
	return false
}

func dbBuildingToBuilding(b dbgen.Building, role dbgen.BuildingRole) *Building {
	return &Building{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		Revision:    b.Revision,
		Role:        string(role),
		CreatedAt:   b.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   b.UpdatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
}
