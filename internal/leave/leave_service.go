package leave

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go-hrms/internal/audit"
	"go-hrms/internal/domain"
	"go-hrms/internal/employee"
	"go-hrms/internal/events"
	leaveerrors "go-hrms/internal/leave/errors"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Submit(ctx context.Context, actor domain.Actor, req SubmitLeaveRequest) (LeaveResponse, error)
	Create(ctx context.Context, actor domain.Actor, req AdminCreateLeaveRequest) (LeaveResponse, error)
	Update(ctx context.Context, actor domain.Actor, id string, req UpdateLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, actor domain.Actor, id string, req DecisionRequest) (LeaveResponse, error)
	Reject(ctx context.Context, actor domain.Actor, id string, req DecisionRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error)
	Override(ctx context.Context, actor domain.Actor, id string, req OverrideLeaveRequest) (LeaveResponse, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	BulkDelete(ctx context.Context, actor domain.Actor, req BulkDeleteRequest) (BulkDeleteResponse, error)
	GetByID(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error)
	List(ctx context.Context, actor domain.Actor, filter ListFilter) ([]LeaveResponse, int64, error)
	SelectAll(ctx context.Context, actor domain.Actor, filter ListFilter) (SelectAllResponse, error)
	Export(ctx context.Context, actor domain.Actor, filter ListFilter, format string) (ExportFile, error)
}

type Dependencies struct {
	Authorizer Authorizer
	Employees  EmployeeLookup
	Outbox     kafka.OutboxRepository
	Recorder   audit.Recorder
	// Location decides which calendar day is "today" for new leaves.
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	db        *sql.DB
	repo      Repository
	policy    *Policy
	employees EmployeeLookup
	outbox    kafka.OutboxRepository
	audit     audit.Recorder
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(db *sql.DB, repo Repository, deps Dependencies, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = audit.NewStdoutRecorder(l)
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:        db,
		repo:      repo,
		policy:    NewPolicy(deps.Authorizer, deps.Employees, l),
		employees: deps.Employees,
		outbox:    deps.Outbox,
		audit:     recorder,
		location:  loc,
		now:       now,
		logger:    l,
	}
}

func (s *service) Submit(ctx context.Context, actor domain.Actor, req SubmitLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("submit leave requested",
		zap.String("company_id", actor.CompanyID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	companyID, actorID, err := parseActor(actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	if scope.EmployeeID == nil {
		return LeaveResponse{}, leaveerrors.ErrEmployeeProfileRequired
	}

	in, err := s.validate(ctx, leaveInput{
		LeaveType: req.LeaveType,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
		DaysHint:  req.DaysRequested,
	}, true)
	if err != nil {
		log.Warn("submit leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	empl, err := s.employees.FindByIDAndCompany(ctx, actor.CompanyID, scope.EmployeeID.String())
	if err != nil {
		log.Error("submit leave employee lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	l := &Leave{
		ID:         uuid.New(),
		CompanyID:  companyID,
		EmployeeID: empl.ID,
		CreatedBy:  actorID,
		Status:     StatusPending,
		Employee:   empl,
	}
	in.applyTo(l)

	if err := s.create(ctx, actor, l); err != nil {
		return LeaveResponse{}, err
	}

	log.Info("submit leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", l.EmployeeID.String()),
		zap.Int("days_requested", l.DaysRequested),
	)
	return mapToResponse(*l), nil
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req AdminCreateLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("admin create leave requested",
		zap.String("company_id", actor.CompanyID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("status", req.Status),
	)

	companyID, actorID, err := parseActor(actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !scope.ManageAll {
		return LeaveResponse{}, leaveerrors.ErrLeaveForbidden
	}

	status := req.Status
	if status == "" {
		status = StatusPending
	}
	if !IsValidStatus(status) {
		return LeaveResponse{}, leaveerrors.ErrInvalidStatus
	}
	if _, err := uuid.Parse(req.EmployeeID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}

	in, err := s.validate(ctx, leaveInput{
		LeaveType: req.LeaveType,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
		DaysHint:  req.DaysRequested,
	}, false)
	if err != nil {
		log.Warn("admin create leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	empl, err := s.employees.FindByIDAndCompany(ctx, actor.CompanyID, req.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrEmployeeNotInCompany
		}
		log.Error("admin create leave employee lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	l := &Leave{
		ID:         uuid.New(),
		CompanyID:  companyID,
		EmployeeID: empl.ID,
		CreatedBy:  actorID,
		Status:     StatusPending,
		Employee:   empl,
	}
	in.applyTo(l)

	if isDecision(status) && !scope.canDecideFor(l) {
		log.Warn("admin create leave self decision denied", zap.String("employee_id", req.EmployeeID))
		return LeaveResponse{}, leaveerrors.ErrLeaveForbidden
	}
	if status != StatusPending {
		l.setStatus(status, actorID, s.now().UTC(), trimNotes(req.ApprovalNotes))
	}

	if err := s.create(ctx, actor, l); err != nil {
		return LeaveResponse{}, err
	}

	log.Info("admin create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", l.EmployeeID.String()),
		zap.String("status", l.Status),
	)
	return mapToResponse(*l), nil
}

// create stores a new leave with its audit record and submission event in
// one transaction.
func (s *service) create(ctx context.Context, actor domain.Actor, l *Leave) error {
	log := contextutil.GetLogger(ctx, s.logger)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create leave begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if isActive(l.Status) {
		overlap, err := qtx.HasOverlappingPeriod(ctx, actor.CompanyID, l.EmployeeID.String(), l.StartDate, l.EndDate, nil)
		if err != nil {
			log.Error("create leave overlap check failed", zap.Error(err))
			return err
		}
		if overlap {
			log.Warn("create leave overlap detected",
				zap.String("employee_id", l.EmployeeID.String()),
				zap.String("start_date", l.StartDate.Format(dateLayout)),
				zap.String("end_date", l.EndDate.Format(dateLayout)),
			)
			return leaveerrors.ErrLeaveOverlap
		}
	}

	if err := qtx.Create(ctx, l); err != nil {
		log.Error("create leave persist failed", zap.Error(err))
		return err
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionCreate,
		TargetType: audit.TargetLeave,
		TargetID:   l.ID.String(),
		Details:    l.snapshot(),
	})

	if err := s.queueEvent(ctx, tx, events.EventLeaveSubmitted, l, "", actor); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("create leave commit failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *service) Update(ctx context.Context, actor domain.Actor, id string, req UpdateLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("update leave requested",
		zap.String("leave_id", id),
		zap.String("company_id", actor.CompanyID),
		zap.String("target_status", req.Status),
	)

	_, actorID, err := parseActor(actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	if req.Status != "" && !IsValidStatus(req.Status) {
		return LeaveResponse{}, leaveerrors.ErrInvalidStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("update leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := s.lockLeave(ctx, qtx, scope, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !scope.CanView(l) {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}
	if !l.IsPending() {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotPending
	}
	if !scope.Owns(l) && !scope.ManageAll {
		log.Warn("update leave denied", zap.String("leave_id", id))
		return LeaveResponse{}, leaveerrors.ErrLeaveForbidden
	}

	in, err := s.validate(ctx, leaveInput{
		LeaveType: req.LeaveType,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
		DaysHint:  req.DaysRequested,
	}, req.StartDate != l.StartDate.Format(dateLayout))
	if err != nil {
		log.Warn("update leave validation failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	oldStatus := l.Status
	newStatus := oldStatus
	if req.Status != "" && req.Status != oldStatus {
		if !scope.ManageAll {
			log.Warn("update leave status change denied", zap.String("leave_id", id))
			return LeaveResponse{}, leaveerrors.ErrLeaveForbidden
		}
		if isDecision(req.Status) && !scope.CanDecide(l) {
			log.Warn("update leave self decision denied", zap.String("leave_id", id))
			return LeaveResponse{}, leaveerrors.ErrLeaveForbidden
		}
		newStatus = req.Status
	}

	if isActive(newStatus) {
		overlap, err := qtx.HasOverlappingPeriod(ctx, actor.CompanyID, l.EmployeeID.String(), in.start, in.end, &id)
		if err != nil {
			log.Error("update leave overlap check failed", zap.Error(err))
			return LeaveResponse{}, err
		}
		if overlap {
			return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
		}
	}

	before := l.snapshot()
	in.applyTo(l)
	if newStatus != oldStatus {
		l.setStatus(newStatus, actorID, s.now().UTC(), trimNotes(req.ApprovalNotes))
	}

	if err := qtx.Update(ctx, l); err != nil {
		log.Error("update leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionUpdate,
		TargetType: audit.TargetLeave,
		TargetID:   l.ID.String(),
		Details:    map[string]any{"before": before, "after": l.snapshot()},
	})

	if newStatus != oldStatus {
		if err := s.queueEvent(ctx, tx, events.EventLeaveStatusChanged, l, oldStatus, actor); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("update leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("update leave success",
		zap.String("leave_id", id),
		zap.String("status", l.Status),
	)
	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, actor domain.Actor, id string, req DecisionRequest) (LeaveResponse, error) {
	return s.decide(ctx, actor, id, StatusApproved, req)
}

func (s *service) Reject(ctx context.Context, actor domain.Actor, id string, req DecisionRequest) (LeaveResponse, error) {
	return s.decide(ctx, actor, id, StatusRejected, req)
}

func (s *service) decide(ctx context.Context, actor domain.Actor, id, status string, req DecisionRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("decide leave requested",
		zap.String("leave_id", id),
		zap.String("company_id", actor.CompanyID),
		zap.String("target_status", status),
	)

	_, actorID, err := parseActor(actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := s.lockLeave(ctx, qtx, scope, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !scope.CanDecide(l) {
		log.Warn("decide leave denied",
			zap.String("leave_id", id),
			zap.String("target_status", status),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveForbidden
	}
	if !l.IsPending() {
		log.Warn("decide leave invalid state",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status),
			zap.String("to_status", status),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveNotPending
	}

	oldStatus := l.Status
	notes := trimNotes(req.Notes)
	l.setStatus(status, actorID, s.now().UTC(), notes)

	if err := qtx.Update(ctx, l); err != nil {
		log.Error("decide leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	action := audit.ActionApprove
	if status == StatusRejected {
		action = audit.ActionReject
	}
	details := map[string]any{"old_status": oldStatus, "new_status": status}
	if notes != nil {
		details["notes"] = *notes
	}
	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     action,
		TargetType: audit.TargetLeave,
		TargetID:   l.ID.String(),
		Details:    details,
	})

	if err := s.queueEvent(ctx, tx, events.EventLeaveStatusChanged, l, oldStatus, actor); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("decide leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("status", status),
	)
	return mapToResponse(*l), nil
}

func (s *service) Cancel(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("company_id", actor.CompanyID),
	)

	_, actorID, err := parseActor(actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := s.lockLeave(ctx, qtx, scope, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !scope.CanView(l) {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}
	if !scope.Owns(l) {
		log.Warn("cancel leave denied", zap.String("leave_id", id))
		return LeaveResponse{}, leaveerrors.ErrLeaveForbidden
	}
	if !l.IsPending() {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotPending
	}

	oldStatus := l.Status
	l.setStatus(StatusCancelled, actorID, s.now().UTC(), nil)

	if err := qtx.Update(ctx, l); err != nil {
		log.Error("cancel leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionCancel,
		TargetType: audit.TargetLeave,
		TargetID:   l.ID.String(),
		Details:    map[string]any{"old_status": oldStatus, "new_status": StatusCancelled},
	})

	if err := s.queueEvent(ctx, tx, events.EventLeaveStatusChanged, l, oldStatus, actor); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("cancel leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("cancel leave success", zap.String("leave_id", id))
	return mapToResponse(*l), nil
}

// Override moves a leave to any other status, terminal ones included. It
// is kept apart from Update so that it always carries a reason and shows up
// as its own audit action.
func (s *service) Override(ctx context.Context, actor domain.Actor, id string, req OverrideLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("override leave requested",
		zap.String("leave_id", id),
		zap.String("company_id", actor.CompanyID),
		zap.String("target_status", req.Status),
	)

	_, actorID, err := parseActor(actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !scope.ManageAll {
		return LeaveResponse{}, leaveerrors.ErrLeaveForbidden
	}

	var errs []*apperror.AppError
	if !IsValidStatus(req.Status) {
		errs = append(errs, leaveerrors.ErrInvalidStatus)
	}
	reason := strings.TrimSpace(req.Reason)
	if n := utf8.RuneCountInString(reason); n < minReasonLength || n > maxReasonLength {
		errs = append(errs, leaveerrors.ErrOverrideReason)
	}
	if err := apperror.JoinFields(errs...); err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("override leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := s.lockLeave(ctx, qtx, scope, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.Status == req.Status {
		return LeaveResponse{}, leaveerrors.ErrStatusUnchanged
	}
	if isDecision(req.Status) && !scope.CanDecide(l) {
		log.Warn("override leave self decision denied", zap.String("leave_id", id))
		return LeaveResponse{}, leaveerrors.ErrLeaveForbidden
	}
	if isActive(req.Status) && !isActive(l.Status) {
		overlap, err := qtx.HasOverlappingPeriod(ctx, actor.CompanyID, l.EmployeeID.String(), l.StartDate, l.EndDate, &id)
		if err != nil {
			log.Error("override leave overlap check failed", zap.Error(err))
			return LeaveResponse{}, err
		}
		if overlap {
			return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
		}
	}

	oldStatus := l.Status
	l.setStatus(req.Status, actorID, s.now().UTC(), &reason)

	if err := qtx.Update(ctx, l); err != nil {
		log.Error("override leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionOverride,
		TargetType: audit.TargetLeave,
		TargetID:   l.ID.String(),
		Details: map[string]any{
			"old_status": oldStatus,
			"new_status": req.Status,
			"reason":     reason,
		},
	})

	if err := s.queueEvent(ctx, tx, events.EventLeaveStatusChanged, l, oldStatus, actor); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("override leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("override leave success",
		zap.String("leave_id", id),
		zap.String("old_status", oldStatus),
		zap.String("status", req.Status),
	)
	return mapToResponse(*l), nil
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("delete leave requested",
		zap.String("leave_id", id),
		zap.String("company_id", actor.CompanyID),
	)

	if err := s.policy.Require(actor, domain.ActionDelete); err != nil {
		return err
	}
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("delete leave begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := s.lockLeave(ctx, qtx, scope, id)
	if err != nil {
		return err
	}
	if !scope.CanView(l) {
		return leaveerrors.ErrLeaveNotFound
	}

	if err := qtx.Delete(ctx, actor.CompanyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrLeaveNotFound
		}
		log.Error("delete leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionDelete,
		TargetType: audit.TargetLeave,
		TargetID:   id,
		Details:    l.snapshot(),
	})

	if err := tx.Commit(); err != nil {
		log.Error("delete leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}

	log.Info("delete leave success", zap.String("leave_id", id))
	return nil
}

// BulkDelete removes the caller's visible leaves matching the filter. The
// id set is resolved inside the transaction, so a stale or forged id list
// can only shrink it.
func (s *service) BulkDelete(ctx context.Context, actor domain.Actor, req BulkDeleteRequest) (BulkDeleteResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("bulk delete leaves requested",
		zap.String("company_id", actor.CompanyID),
		zap.Int("ids", len(req.IDs)),
		zap.Bool("all_matching", req.AllMatching),
	)

	if len(req.IDs) == 0 && !req.AllMatching {
		return BulkDeleteResponse{}, leaveerrors.ErrNothingSelected
	}

	if err := s.policy.Require(actor, domain.ActionDelete); err != nil {
		return BulkDeleteResponse{}, err
	}
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return BulkDeleteResponse{}, err
	}

	filter := req.Filter
	filter.IDs = req.IDs

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("bulk delete leaves begin tx failed", zap.Error(err))
		return BulkDeleteResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	rows, err := qtx.FindAll(ctx, scope, filter)
	if err != nil {
		log.Error("bulk delete leaves resolve failed", zap.Error(err))
		return BulkDeleteResponse{}, err
	}
	if len(rows) == 0 {
		return BulkDeleteResponse{Deleted: 0, IDs: []string{}}, nil
	}

	ids := make([]string, len(rows))
	items := make([]map[string]any, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID.String()
		items[i] = rows[i].snapshot()
	}

	deleted, err := qtx.DeleteByIDs(ctx, actor.CompanyID, ids)
	if err != nil {
		log.Error("bulk delete leaves persist failed", zap.Error(err))
		return BulkDeleteResponse{}, err
	}

	s.audit.WithTx(tx).Record(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		ActorID:    actor.UserID,
		Action:     audit.ActionBulkDelete,
		TargetType: audit.TargetLeave,
		Details:    map[string]any{"count": deleted, "items": items},
	})

	if err := tx.Commit(); err != nil {
		log.Error("bulk delete leaves commit failed", zap.Error(err))
		return BulkDeleteResponse{}, err
	}

	log.Info("bulk delete leaves success", zap.Int64("deleted", deleted))
	return BulkDeleteResponse{Deleted: int(deleted), IDs: ids}, nil
}

func (s *service) GetByID(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error) {
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return LeaveResponse{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}

	l, err := s.repo.FindVisibleByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) List(ctx context.Context, actor domain.Actor, filter ListFilter) ([]LeaveResponse, int64, error) {
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return nil, 0, err
	}

	leaves, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list leaves failed", zap.Error(err))
		return nil, 0, err
	}
	return mapToListResponse(leaves), total, nil
}

func (s *service) SelectAll(ctx context.Context, actor domain.Actor, filter ListFilter) (SelectAllResponse, error) {
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return SelectAllResponse{}, err
	}

	ids, err := s.repo.FindIDs(ctx, scope, filter)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("select all leaves failed", zap.Error(err))
		return SelectAllResponse{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return SelectAllResponse{IDs: ids, Total: len(ids)}, nil
}

func (s *service) Export(ctx context.Context, actor domain.Actor, filter ListFilter, format string) (ExportFile, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return ExportFile{}, leaveerrors.ErrInvalidFormat
	}

	if err := s.policy.Require(actor, domain.ActionExport); err != nil {
		return ExportFile{}, err
	}
	scope, err := s.policy.Resolve(ctx, actor)
	if err != nil {
		return ExportFile{}, err
	}

	rows, err := s.repo.FindAll(ctx, scope, filter)
	if err != nil {
		log.Error("export leaves query failed", zap.Error(err))
		return ExportFile{}, err
	}

	file, err := Render(rows, format, exportScope(filter), s.now().In(s.location))
	if err != nil {
		log.Error("export leaves render failed", zap.String("format", format), zap.Error(err))
		return ExportFile{}, err
	}

	log.Info("export leaves success",
		zap.String("format", format),
		zap.String("filename", file.Filename),
		zap.Int("rows", file.Rows),
	)
	return file, nil
}

// lockLeave reads the leave row FOR UPDATE and attaches its employee with
// the supervisor reference the policy needs.
func (s *service) lockLeave(ctx context.Context, qtx Repository, scope Scope, id string) (*Leave, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, leaveerrors.ErrLeaveNotFound
	}

	l, err := qtx.FindByIDForUpdate(ctx, scope.CompanyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		contextutil.GetLogger(ctx, s.logger).Error("lock leave failed", zap.String("leave_id", id), zap.Error(err))
		return nil, err
	}

	empl, err := s.employees.FindByIDAndCompany(ctx, scope.CompanyID, l.EmployeeID.String())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	l.Employee = empl
	return l, nil
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, eventType string, l *Leave, oldStatus string, actor domain.Actor) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	payload := events.LeaveEvent{
		EventType:  eventType,
		RequestID:  rid,
		LeaveID:    l.ID.String(),
		CompanyID:  l.CompanyID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  l.LeaveType,
		StartDate:  l.StartDate.Format(dateLayout),
		EndDate:    l.EndDate.Format(dateLayout),
		Days:       l.DaysRequested,
		Reason:     l.Reason,
		OldStatus:  oldStatus,
		Status:     l.Status,
		ActorID:    actor.UserID,
		OccurredAt: s.now().UTC(),
	}
	if l.ApprovalNotes != nil {
		payload.Notes = *l.ApprovalNotes
	}
	if l.Employee != nil {
		payload.EmployeeName = l.Employee.FullName
		payload.EmployeeEmail = l.Employee.Email
		if l.Employee.Supervisor != nil {
			payload.ApproverEmail = l.Employee.Supervisor.Email
		}
	}

	evt, err := kafka.NewEvent(rid, "leave", l.ID.String(), eventType, events.LeaveNotificationsTopic, payload)
	if err != nil {
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, evt); err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("leave outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

type leaveInput struct {
	LeaveType string
	StartDate string
	EndDate   string
	Reason    string
	DaysHint  *int
}

type validatedInput struct {
	leaveType string
	start     time.Time
	end       time.Time
	reason    string
	days      int
}

func (v validatedInput) applyTo(l *Leave) {
	l.LeaveType = v.leaveType
	l.StartDate = v.start
	l.EndDate = v.end
	l.Reason = v.reason
	l.DaysRequested = v.days
}

// validate checks every field and reports all violations at once. The day
// count is always computed here; a client value is only compared.
func (s *service) validate(ctx context.Context, in leaveInput, requireFuture bool) (validatedInput, error) {
	var errs []*apperror.AppError

	if !IsValidType(in.LeaveType) {
		errs = append(errs, leaveerrors.ErrInvalidLeaveType)
	}

	reason := strings.TrimSpace(in.Reason)
	if n := utf8.RuneCountInString(reason); n < minReasonLength || n > maxReasonLength {
		errs = append(errs, leaveerrors.ErrReasonLength)
	}

	start, startErr := ParseDate(in.StartDate)
	if startErr != nil {
		errs = append(errs, leaveerrors.ErrInvalidStartDate)
	}
	end, endErr := ParseDate(in.EndDate)
	if endErr != nil {
		errs = append(errs, leaveerrors.ErrInvalidEndDate)
	}

	var days int
	if startErr == nil && endErr == nil {
		if requireFuture && start.Before(s.today()) {
			errs = append(errs, leaveerrors.ErrStartDateInPast)
		}
		d, err := BusinessDays(start, end)
		switch {
		case err != nil:
			errs = append(errs, leaveerrors.ErrInvalidDateRange)
		case d < minDays || d > maxDays:
			errs = append(errs, leaveerrors.ErrDaysOutOfRange)
		default:
			days = d
		}
	}

	if err := apperror.JoinFields(errs...); err != nil {
		return validatedInput{}, err
	}

	if in.DaysHint != nil && *in.DaysHint != days {
		contextutil.GetLogger(ctx, s.logger).Warn("client days_requested replaced",
			zap.Int("client_days", *in.DaysHint),
			zap.Int("computed_days", days),
		)
	}

	return validatedInput{
		leaveType: in.LeaveType,
		start:     start,
		end:       end,
		reason:    reason,
		days:      days,
	}, nil
}

func (s *service) today() time.Time {
	return truncateDate(s.now().In(s.location))
}

func parseActor(actor domain.Actor) (uuid.UUID, uuid.UUID, error) {
	companyID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return uuid.Nil, uuid.Nil, leaveerrors.ErrInvalidCompanyID
	}
	actorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, leaveerrors.ErrInvalidActorID
	}
	return companyID, actorID, nil
}

func isDecision(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// isActive reports whether a leave in status blocks overlapping requests.
func isActive(status string) bool {
	return status == StatusPending || status == StatusApproved
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	v := strings.TrimSpace(*notes)
	if v == "" {
		return nil
	}
	return &v
}

func mapToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:            l.ID.String(),
		CompanyID:     l.CompanyID.String(),
		EmployeeID:    l.EmployeeID.String(),
		CreatedBy:     l.CreatedBy.String(),
		LeaveType:     l.LeaveType,
		StartDate:     l.StartDate.Format(dateLayout),
		EndDate:       l.EndDate.Format(dateLayout),
		DaysRequested: l.DaysRequested,
		Reason:        l.Reason,
		Status:        l.Status,
		ApprovalNotes: l.ApprovalNotes,
		CreatedAt:     l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     l.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if l.Employee != nil {
		resp.EmployeeName = l.Employee.FullName
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.UTC().Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	return resp
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}

var _ EmployeeLookup = employee.Repository(nil)
