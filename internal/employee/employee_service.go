package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go-hrms/internal/audit"
	"go-hrms/internal/domain"
	employeeerrors "go-hrms/internal/employee/errors"
	"go-hrms/internal/events"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/organization"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	EmployeeOptionsKeyPrefix = "employees:options:"
	optionsCacheTTL          = time.Hour
	dateLayout               = "2006-01-02"
)

func GetEmployeeOptionsKey(companyID string) string {
	return EmployeeOptionsKeyPrefix + companyID
}

// UnitLookup resolves organisation units for placement checks.
type UnitLookup interface {
	FindByIDAndCompany(ctx context.Context, companyID string, kind organization.Kind, id string) (*organization.Unit, error)
}

type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateEmployeeRequest) (EmployeeResponse, error)
	List(ctx context.Context, companyID string, q ListQuery) ([]EmployeeResponse, int64, error)
	GetOptions(ctx context.Context, companyID string) ([]EmployeeRefResponse, error)
	GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error)
	Update(ctx context.Context, actor domain.Actor, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

type service struct {
	db      *sql.DB
	repo    Repository
	units   UnitLookup
	counter counter.Repository
	outbox  kafka.OutboxRepository
	rdb     *redis.Client
	sf      *singleflight.Group
	audit   audit.Recorder
	logger  *zap.Logger
}

type Dependencies struct {
	Units    UnitLookup
	Counter  counter.Repository
	Outbox   kafka.OutboxRepository
	Redis    *redis.Client
	Recorder audit.Recorder
}

func NewService(db *sql.DB, repo Repository, deps Dependencies, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = audit.NewStdoutRecorder(l)
	}
	return &service{
		db:      db,
		repo:    repo,
		units:   deps.Units,
		counter: deps.Counter,
		outbox:  deps.Outbox,
		rdb:     deps.Redis,
		sf:      &singleflight.Group{},
		audit:   recorder,
		logger:  l,
	}
}

func (s *service) Create(
	ctx context.Context,
	actor domain.Actor,
	req CreateEmployeeRequest,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create employee requested",
		zap.String("company_id", actor.CompanyID),
		zap.String("email", req.Email),
	)

	companyID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidCompanyID
	}

	empl := &Employee{
		ID:        uuid.New(),
		CompanyID: companyID,
	}
	if err := s.apply(ctx, empl, req); err != nil {
		return EmployeeResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := s.checkSupervisor(ctx, qtx, actor.CompanyID, empl.ID, empl.SupervisorID); err != nil {
		return EmployeeResponse{}, err
	}

	if empl.StaffNumber == "" {
		// Staff numbers are unique across companies, so the sequence is global.
		staffNumber, err := s.counter.WithTx(tx).Next(ctx, counter.StaffNumber)
		if err != nil {
			log.Error("create employee generate staff number failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		empl.StaffNumber = staffNumber
	}

	if err := qtx.Create(ctx, empl); err != nil {
		log.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionCreate,
		TargetType: audit.TargetEmployee,
		TargetID:   empl.ID.String(),
		Details:    map[string]any{"staff_number": empl.StaffNumber, "full_name": empl.FullName},
	})

	if s.outbox != nil {
		event, err := kafka.NewEvent(rid, "employee", empl.ID.String(), events.EventEmployeeCreated, events.EmployeeLifecycleTopic,
			events.EmployeeCreatedEvent{
				EventType:   events.EventEmployeeCreated,
				RequestID:   rid,
				EmployeeID:  empl.ID.String(),
				CompanyID:   actor.CompanyID,
				StaffNumber: empl.StaffNumber,
				FullName:    empl.FullName,
				Email:       empl.Email,
				DateOfJoin:  empl.DateOfJoin.Format(dateLayout),
				OccurredAt:  time.Now().UTC(),
			})
		if err != nil {
			return EmployeeResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			log.Error("create employee outbox persist failed",
				zap.String("employee_id", empl.ID.String()),
				zap.Error(err),
			)
			return EmployeeResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("create employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptions(ctx, actor.CompanyID)

	log.Info("create employee success",
		zap.String("employee_id", empl.ID.String()),
		zap.String("staff_number", empl.StaffNumber),
	)

	return mapToResponse(*empl), nil
}

func (s *service) List(ctx context.Context, companyID string, q ListQuery) ([]EmployeeResponse, int64, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	empls, total, err := s.repo.List(ctx, companyID, q.Normalize())
	if err != nil {
		log.Error("list employees failed", zap.String("company_id", companyID), zap.Error(err))
		return nil, 0, mapRepositoryError(err)
	}

	return mapToListResponse(empls), total, nil
}

func (s *service) GetOptions(ctx context.Context, companyID string) ([]EmployeeRefResponse, error) {
	cacheKey := GetEmployeeOptionsKey(companyID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []EmployeeRefResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// Form pickers open in bursts; collapse concurrent misses into one query.
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		empls, err := s.repo.FindOptionsByCompany(ctx, companyID)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := make([]EmployeeRefResponse, len(empls))
		for i, e := range empls {
			resp[i] = mapToRef(e)
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, jsonData, optionsCacheTTL).Err(); err != nil {
					s.logger.Warn("employee options cache set failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]EmployeeRefResponse), nil
}

func (s *service) GetByID(
	ctx context.Context,
	companyID, id string,
) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", id),
	)
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	empl, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*empl), nil
}

func (s *service) Update(
	ctx context.Context,
	actor domain.Actor,
	id string,
	req UpdateEmployeeRequest,
) (EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("update employee requested",
		zap.String("company_id", actor.CompanyID),
		zap.String("employee_id", id),
	)
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	empl, err := qtx.FindByIDAndCompany(ctx, actor.CompanyID, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	before := *empl

	staffNumber := empl.StaffNumber
	if err := s.apply(ctx, empl, CreateEmployeeRequest(req)); err != nil {
		return EmployeeResponse{}, err
	}
	if empl.StaffNumber == "" {
		empl.StaffNumber = staffNumber
	}
	if !sameUUID(before.SupervisorID, empl.SupervisorID) {
		empl.Supervisor = nil
	}

	if err := s.checkSupervisor(ctx, qtx, actor.CompanyID, empl.ID, empl.SupervisorID); err != nil {
		return EmployeeResponse{}, err
	}

	if err := qtx.Update(ctx, empl); err != nil {
		log.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionUpdate,
		TargetType: audit.TargetEmployee,
		TargetID:   id,
		Details:    map[string]any{"staff_number": empl.StaffNumber, "changed": changedFields(before, *empl)},
	})

	if err := tx.Commit(); err != nil {
		log.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptions(ctx, actor.CompanyID)

	log.Info("update employee success", zap.String("employee_id", id))

	return mapToResponse(*empl), nil
}

func (s *service) Delete(
	ctx context.Context,
	actor domain.Actor,
	id string,
) error {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("delete employee requested",
		zap.String("company_id", actor.CompanyID),
		zap.String("employee_id", id),
	)
	if _, err := uuid.Parse(id); err != nil {
		return employeeerrors.ErrEmployeeNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("delete employee begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	empl, err := qtx.FindByIDAndCompany(ctx, actor.CompanyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	reports, err := qtx.CountDirectReports(ctx, actor.CompanyID, id)
	if err != nil {
		return err
	}
	if reports > 0 {
		log.Warn("delete employee refused, has direct reports",
			zap.String("employee_id", id),
			zap.Int64("reports", reports),
		)
		return employeeerrors.ErrEmployeeHasReports
	}

	if err := qtx.Delete(ctx, actor.CompanyID, id); err != nil {
		log.Error("delete employee failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionDelete,
		TargetType: audit.TargetEmployee,
		TargetID:   id,
		Details: map[string]any{
			"staff_number": empl.StaffNumber,
			"full_name":    empl.FullName,
			"email":        empl.Email,
		},
	})

	if err := tx.Commit(); err != nil {
		log.Error("delete employee commit failed", zap.Error(err))
		return err
	}

	s.invalidateOptions(ctx, actor.CompanyID)

	log.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

// apply copies request fields onto empl after validating dates, references
// and placement containment.
func (s *service) apply(ctx context.Context, empl *Employee, req CreateEmployeeRequest) error {
	var fieldErrs []*apperror.AppError

	doj, err := time.Parse(dateLayout, req.DateOfJoin)
	if err != nil {
		fieldErrs = append(fieldErrs, employeeerrors.ErrInvalidDateOfJoin)
	}

	var dob *time.Time
	if strings.TrimSpace(req.DateOfBirth) != "" {
		parsed, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil || (!doj.IsZero() && !parsed.Before(doj)) {
			fieldErrs = append(fieldErrs, employeeerrors.ErrInvalidDateOfBirth)
		} else {
			dob = &parsed
		}
	}

	userID, err := optionalUUID(req.UserID)
	if err != nil {
		fieldErrs = append(fieldErrs, apperror.InvalidField("user_id"))
	}
	supervisorID, err := optionalUUID(req.SupervisorID)
	if err != nil {
		fieldErrs = append(fieldErrs, apperror.InvalidField("supervisor_id"))
	}
	if supervisorID != nil && *supervisorID == empl.ID {
		fieldErrs = append(fieldErrs, employeeerrors.ErrSelfSupervisor)
	}

	if err := apperror.JoinFields(fieldErrs...); err != nil {
		return err
	}

	placement, err := s.resolvePlacement(ctx, empl.CompanyID.String(), req.Placement)
	if err != nil {
		return err
	}

	empl.UserID = userID
	empl.StaffNumber = strings.TrimSpace(req.StaffNumber)
	empl.FullName = strings.TrimSpace(req.FullName)
	empl.Email = strings.ToLower(strings.TrimSpace(req.Email))
	empl.Gender = req.Gender
	empl.MobileNumber = strings.TrimSpace(req.MobileNumber)
	empl.HomeAddress = req.HomeAddress
	empl.DateOfBirth = dob
	empl.DateOfJoin = doj
	empl.SupervisorID = supervisorID
	empl.LocationID = placement[organization.KindLocation]
	empl.BranchID = placement[organization.KindBranch]
	empl.DepartmentID = placement[organization.KindDepartment]
	empl.DesignationID = placement[organization.KindDesignation]
	empl.ContractTypeID = placement[organization.KindContractType]
	return nil
}

// resolvePlacement checks every referenced unit exists in the company and
// that branch and department sit under the chosen location and branch.
func (s *service) resolvePlacement(ctx context.Context, companyID string, p Placement) (map[organization.Kind]*uuid.UUID, error) {
	refs := map[organization.Kind]*string{
		organization.KindLocation:     p.LocationID,
		organization.KindBranch:       p.BranchID,
		organization.KindDepartment:   p.DepartmentID,
		organization.KindDesignation:  p.DesignationID,
		organization.KindContractType: p.ContractTypeID,
	}

	ids := make(map[organization.Kind]*uuid.UUID, len(refs))
	units := make(map[organization.Kind]*organization.Unit, len(refs))
	for kind, raw := range refs {
		id, err := optionalUUID(raw)
		if err != nil {
			return nil, apperror.InvalidField(kind.EmployeeColumn())
		}
		if id == nil {
			continue
		}
		if s.units == nil {
			ids[kind] = id
			continue
		}
		unit, err := s.units.FindByIDAndCompany(ctx, companyID, kind, id.String())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, employeeerrors.ErrPlacementNotFound
			}
			return nil, err
		}
		ids[kind] = id
		units[kind] = unit
	}

	if !containedIn(units[organization.KindBranch], ids[organization.KindLocation]) ||
		!containedIn(units[organization.KindDepartment], ids[organization.KindBranch]) {
		return nil, employeeerrors.ErrPlacementMismatch
	}

	return ids, nil
}

// checkSupervisor rejects self-supervision and any assignment that would put
// employeeID inside its own supervisor chain.
func (s *service) checkSupervisor(
	ctx context.Context,
	qtx Repository,
	companyID string,
	employeeID uuid.UUID,
	supervisorID *uuid.UUID,
) error {
	if supervisorID == nil {
		return nil
	}
	if *supervisorID == employeeID {
		return employeeerrors.ErrSelfSupervisor
	}

	current := *supervisorID
	for hop := 0; hop < maxSupervisorHops; hop++ {
		next, err := qtx.FindSupervisorID(ctx, companyID, current.String())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) && hop == 0 {
				return employeeerrors.ErrSupervisorNotFound
			}
			return err
		}
		if next == nil {
			return nil
		}
		if *next == employeeID {
			return employeeerrors.ErrSupervisorCycle
		}
		current = *next
	}

	contextutil.GetLogger(ctx, s.logger).Warn("supervisor chain exceeds hop limit",
		zap.String("employee_id", employeeID.String()),
		zap.Int("max_hops", maxSupervisorHops),
	)
	return employeeerrors.ErrSupervisorCycle
}

func (s *service) invalidateOptions(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetEmployeeOptionsKey(companyID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee options cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

func containedIn(child *organization.Unit, parentID *uuid.UUID) bool {
	if child == nil || parentID == nil {
		return true
	}
	return child.ParentID != nil && *child.ParentID == *parentID
}

func optionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func changedFields(before, after Employee) []string {
	var changed []string
	add := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}
	add("user_id", !sameUUID(before.UserID, after.UserID))
	add("staff_number", before.StaffNumber != after.StaffNumber)
	add("full_name", before.FullName != after.FullName)
	add("email", before.Email != after.Email)
	add("gender", before.Gender != after.Gender)
	add("mobile_number", before.MobileNumber != after.MobileNumber)
	add("home_address", before.HomeAddress != after.HomeAddress)
	add("date_of_join", !before.DateOfJoin.Equal(after.DateOfJoin))
	add("supervisor_id", !sameUUID(before.SupervisorID, after.SupervisorID))
	add("location_id", !sameUUID(before.LocationID, after.LocationID))
	add("branch_id", !sameUUID(before.BranchID, after.BranchID))
	add("department_id", !sameUUID(before.DepartmentID, after.DepartmentID))
	add("designation_id", !sameUUID(before.DesignationID, after.DesignationID))
	add("contract_type_id", !sameUUID(before.ContractTypeID, after.ContractTypeID))
	return changed
}

func mapToRef(e Employee) EmployeeRefResponse {
	return EmployeeRefResponse{
		ID:          e.ID.String(),
		StaffNumber: e.StaffNumber,
		FullName:    e.FullName,
	}
}

func mapToResponse(empl Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:             empl.ID.String(),
		CompanyID:      empl.CompanyID.String(),
		UserID:         uuidToString(empl.UserID),
		StaffNumber:    empl.StaffNumber,
		FullName:       empl.FullName,
		Email:          empl.Email,
		Gender:         empl.Gender,
		MobileNumber:   empl.MobileNumber,
		HomeAddress:    empl.HomeAddress,
		DateOfJoin:     empl.DateOfJoin.Format(dateLayout),
		LocationID:     uuidToString(empl.LocationID),
		BranchID:       uuidToString(empl.BranchID),
		DepartmentID:   uuidToString(empl.DepartmentID),
		DesignationID:  uuidToString(empl.DesignationID),
		ContractTypeID: uuidToString(empl.ContractTypeID),
		SupervisorID:   uuidToString(empl.SupervisorID),
		CreatedAt:      empl.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      empl.UpdatedAt.Format(time.RFC3339),
	}
	if empl.DateOfBirth != nil {
		dob := empl.DateOfBirth.Format(dateLayout)
		resp.DateOfBirth = &dob
	}
	if empl.Supervisor != nil {
		ref := mapToRef(*empl.Supervisor)
		resp.Supervisor = &ref
	}
	return resp
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		res[i] = mapToResponse(e)
	}
	return res
}

func uuidToString(v *uuid.UUID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
