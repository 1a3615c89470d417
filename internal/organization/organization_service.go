package organization

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-hrms/internal/audit"
	"go-hrms/internal/domain"
	organizationerrors "go-hrms/internal/organization/errors"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const cacheTTL = 30 * time.Minute

func CacheKey(companyID string, kind Kind) string {
	return fmt.Sprintf("organization:%s:all:%s", kind, companyID)
}

type Service interface {
	Create(ctx context.Context, actor domain.Actor, kind Kind, req UnitRequest) (UnitResponse, error)
	GetAll(ctx context.Context, companyID string, kind Kind) ([]UnitResponse, error)
	GetByID(ctx context.Context, companyID string, kind Kind, id string) (UnitResponse, error)
	Update(ctx context.Context, actor domain.Actor, kind Kind, id string, req UnitRequest) (UnitResponse, error)
	Delete(ctx context.Context, actor domain.Actor, kind Kind, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	audit  audit.Recorder
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client, recorder audit.Recorder, logger ...*zap.Logger) Service {
	l := zap.L().Named("organization.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("organization.service")
	}
	if recorder == nil {
		recorder = audit.NewStdoutRecorder(l)
	}
	return &service{db: db, repo: repo, rdb: rdb, sf: &singleflight.Group{}, audit: recorder, logger: l}
}

func (s *service) Create(ctx context.Context, actor domain.Actor, kind Kind, req UnitRequest) (UnitResponse, error) {
	if !kind.Valid() {
		return UnitResponse{}, organizationerrors.ErrInvalidKind
	}
	companyUUID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return UnitResponse{}, apperror.InvalidField("company_id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UnitResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	parentID, err := s.resolveParent(ctx, qtx, actor.CompanyID, kind, req.ParentID)
	if err != nil {
		return UnitResponse{}, err
	}

	unit := &Unit{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		ParentID:    parentID,
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.TrimSpace(req.Code),
		Description: req.Description,
	}

	if err := qtx.Create(ctx, kind, unit); err != nil {
		return UnitResponse{}, mapRepositoryError(err)
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionCreate,
		TargetType: audit.TargetOrganization,
		TargetID:   unit.ID.String(),
		Details:    map[string]any{"kind": string(kind), "name": unit.Name},
	})

	if err := tx.Commit(); err != nil {
		return UnitResponse{}, err
	}

	s.invalidate(ctx, actor.CompanyID, kind)
	return mapToResponse(kind, *unit), nil
}

func (s *service) GetAll(ctx context.Context, companyID string, kind Kind) ([]UnitResponse, error) {
	if !kind.Valid() {
		return nil, organizationerrors.ErrInvalidKind
	}

	cacheKey := CacheKey(companyID, kind)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp []UnitResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		units, err := s.repo.FindAllByCompany(ctx, companyID, kind)
		if err != nil {
			return nil, err
		}

		resp := mapToListResponse(kind, units)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, jsonData, cacheTTL).Err(); err != nil {
					s.logger.Warn("organization cache set failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]UnitResponse), nil
}

func (s *service) GetByID(ctx context.Context, companyID string, kind Kind, id string) (UnitResponse, error) {
	if !kind.Valid() {
		return UnitResponse{}, organizationerrors.ErrInvalidKind
	}
	unit, err := s.repo.FindByIDAndCompany(ctx, companyID, kind, id)
	if err != nil {
		return UnitResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(kind, *unit), nil
}

func (s *service) Update(ctx context.Context, actor domain.Actor, kind Kind, id string, req UnitRequest) (UnitResponse, error) {
	if !kind.Valid() {
		return UnitResponse{}, organizationerrors.ErrInvalidKind
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UnitResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	unit, err := qtx.FindByIDAndCompany(ctx, actor.CompanyID, kind, id)
	if err != nil {
		return UnitResponse{}, mapRepositoryError(err)
	}

	parentID, err := s.resolveParent(ctx, qtx, actor.CompanyID, kind, req.ParentID)
	if err != nil {
		return UnitResponse{}, err
	}

	before := unit.Name
	unit.ParentID = parentID
	unit.Name = strings.TrimSpace(req.Name)
	unit.Code = strings.TrimSpace(req.Code)
	unit.Description = req.Description
	unit.UpdatedAt = time.Now().UTC()

	if err := qtx.Update(ctx, kind, unit); err != nil {
		return UnitResponse{}, mapRepositoryError(err)
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionUpdate,
		TargetType: audit.TargetOrganization,
		TargetID:   unit.ID.String(),
		Details:    map[string]any{"kind": string(kind), "old_name": before, "new_name": unit.Name},
	})

	if err := tx.Commit(); err != nil {
		return UnitResponse{}, err
	}

	s.invalidate(ctx, actor.CompanyID, kind)
	return mapToResponse(kind, *unit), nil
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, kind Kind, id string) error {
	if !kind.Valid() {
		return organizationerrors.ErrInvalidKind
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	unit, err := qtx.FindByIDAndCompany(ctx, actor.CompanyID, kind, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	children, err := qtx.CountChildren(ctx, actor.CompanyID, kind, id)
	if err != nil {
		return err
	}
	placed, err := qtx.CountPlacedEmployees(ctx, actor.CompanyID, kind, id)
	if err != nil {
		return err
	}
	if children > 0 || placed > 0 {
		contextutil.GetLogger(ctx, s.logger).Warn("organization unit in use",
			zap.String("kind", string(kind)),
			zap.String("id", id),
			zap.Int64("children", children),
			zap.Int64("employees", placed),
		)
		return organizationerrors.ErrUnitInUse
	}

	if err := qtx.Delete(ctx, actor.CompanyID, kind, id); err != nil {
		return mapRepositoryError(err)
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionDelete,
		TargetType: audit.TargetOrganization,
		TargetID:   id,
		Details:    map[string]any{"kind": string(kind), "name": unit.Name},
	})

	if err := tx.Commit(); err != nil {
		return err
	}

	s.invalidate(ctx, actor.CompanyID, kind)
	return nil
}

// resolveParent enforces the containment rules: branch under a location,
// department under a branch, no parent for anything else.
func (s *service) resolveParent(ctx context.Context, qtx Repository, companyID string, kind Kind, raw *string) (*uuid.UUID, error) {
	hasParent := raw != nil && strings.TrimSpace(*raw) != ""
	parentKind, needsParent := kind.Parent()

	switch {
	case !needsParent && hasParent:
		return nil, organizationerrors.ErrParentNotAllowed
	case !needsParent:
		return nil, nil
	case !hasParent:
		return nil, organizationerrors.ErrParentRequired
	}

	parentID, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, organizationerrors.ErrParentNotFound
	}
	if _, err := qtx.FindByIDAndCompany(ctx, companyID, parentKind, parentID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, organizationerrors.ErrParentNotFound
		}
		return nil, err
	}
	return &parentID, nil
}

func (s *service) invalidate(ctx context.Context, companyID string, kind Kind) {
	if s.rdb == nil {
		return
	}
	cacheKey := CacheKey(companyID, kind)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("organization cache invalidation failed", zap.String("key", cacheKey), zap.Error(err))
	}
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return organizationerrors.ErrUnitNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return organizationerrors.ErrCodeAlreadyExists
	}
	return err
}

func mapToResponse(kind Kind, u Unit) UnitResponse {
	resp := UnitResponse{
		ID:          u.ID.String(),
		CompanyID:   u.CompanyID.String(),
		Kind:        string(kind),
		Name:        u.Name,
		Code:        u.Code,
		Description: u.Description,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
	if u.ParentID != nil {
		v := u.ParentID.String()
		resp.ParentID = &v
	}
	return resp
}

func mapToListResponse(kind Kind, units []Unit) []UnitResponse {
	res := make([]UnitResponse, len(units))
	for i, u := range units {
		res[i] = mapToResponse(kind, u)
	}
	return res
}
