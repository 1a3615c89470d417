package employee_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-hrms/internal/audit"
	"go-hrms/internal/domain"
	"go-hrms/internal/employee"
	employeeerrors "go-hrms/internal/employee/errors"
	"go-hrms/internal/events"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/organization"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/counter"

	employeeMock "go-hrms/internal/employee/mock"
	kafkaMock "go-hrms/internal/messaging/kafka/mock"
	organizationMock "go-hrms/internal/organization/mock"
	counterMock "go-hrms/internal/shared/counter/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   employee.Service
	repo      *employeeMock.MockRepository
	units     *organizationMock.MockRepository
	counter   *counterMock.MockRepository
	outbox    *kafkaMock.MockOutboxRepository
	redismock redismock.ClientMock
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	rdb, redisMock := redismock.NewClientMock()
	repo := employeeMock.NewMockRepository(ctrl)
	units := organizationMock.NewMockRepository(ctrl)
	counterRepo := counterMock.NewMockRepository(ctrl)
	outboxRepo := kafkaMock.NewMockOutboxRepository(ctrl)

	svc := employee.NewService(db, repo, employee.Dependencies{
		Units:    units,
		Counter:  counterRepo,
		Outbox:   outboxRepo,
		Redis:    rdb,
		Recorder: audit.NewStdoutRecorder(zap.NewNop()),
	}, zap.NewNop())

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		units:     units,
		counter:   counterRepo,
		outbox:    outboxRepo,
		redismock: redisMock,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func strPtr(v string) *string { return &v }

func baseRequest() employee.CreateEmployeeRequest {
	return employee.CreateEmployeeRequest{
		FullName:   "Dina Maharani",
		Email:      "Dina@Example.com",
		Gender:     employee.GenderFemale,
		DateOfJoin: "2026-01-05",
	}
}

func TestEmployeeService_Create(t *testing.T) {
	actor := domain.Actor{UserID: uuid.New().String(), CompanyID: uuid.New().String()}

	t.Run("success - generates staff number and queues outbox", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		rid := "REQ-123-ABC"
		ctx := contextutil.WithRequestID(context.Background(), rid)

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.counter.EXPECT().WithTx(gomock.Any()).Return(deps.counter)
		deps.counter.EXPECT().
			Next(ctx, counter.StaffNumber).
			Return("EMP-000123", nil)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, "EMP-000123", e.StaffNumber)
				assert.Equal(t, "dina@example.com", e.Email)
				assert.Equal(t, actor.CompanyID, e.CompanyID.String())
				assert.Nil(t, e.SupervisorID)
				return nil
			})
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, evt kafka.OutboxEvent) error {
				assert.Equal(t, rid, evt.RequestID)
				assert.Equal(t, events.EventEmployeeCreated, evt.EventType)
				assert.Equal(t, events.EmployeeLifecycleTopic, evt.Topic)

				var payload events.EmployeeCreatedEvent
				assert.NoError(t, json.Unmarshal(evt.Payload, &payload))
				assert.Equal(t, "EMP-000123", payload.StaffNumber)
				assert.Equal(t, "2026-01-05", payload.DateOfJoin)
				return nil
			})
		deps.redismock.ExpectDel(employee.GetEmployeeOptionsKey(actor.CompanyID)).SetVal(1)

		resp, err := deps.service.Create(ctx, actor, baseRequest())

		assert.NoError(t, err)
		assert.Equal(t, "EMP-000123", resp.StaffNumber)
		assert.Equal(t, "2026-01-05", resp.DateOfJoin)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("success - placement and supervisor", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		ctx := context.Background()

		locationID, branchID, supervisorID := uuid.New(), uuid.New(), uuid.New()
		req := baseRequest()
		req.StaffNumber = "HR-7"
		req.SupervisorID = strPtr(supervisorID.String())
		req.LocationID = strPtr(locationID.String())
		req.BranchID = strPtr(branchID.String())

		deps.units.EXPECT().
			FindByIDAndCompany(ctx, actor.CompanyID, organization.KindLocation, locationID.String()).
			Return(&organization.Unit{ID: locationID}, nil)
		deps.units.EXPECT().
			FindByIDAndCompany(ctx, actor.CompanyID, organization.KindBranch, branchID.String()).
			Return(&organization.Unit{ID: branchID, ParentID: &locationID}, nil)

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindSupervisorID(ctx, actor.CompanyID, supervisorID.String()).Return(nil, nil)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, "HR-7", e.StaffNumber)
				assert.Equal(t, supervisorID, *e.SupervisorID)
				assert.Equal(t, branchID, *e.BranchID)
				return nil
			})
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.redismock.ExpectDel(employee.GetEmployeeOptionsKey(actor.CompanyID)).SetVal(1)

		resp, err := deps.service.Create(ctx, actor, req)

		assert.NoError(t, err)
		assert.Equal(t, supervisorID.String(), *resp.SupervisorID)
		assert.Equal(t, locationID.String(), *resp.LocationID)
	})

	t.Run("negative branch outside location", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		ctx := context.Background()

		locationID, branchID, otherLocation := uuid.New(), uuid.New(), uuid.New()
		req := baseRequest()
		req.LocationID = strPtr(locationID.String())
		req.BranchID = strPtr(branchID.String())

		deps.units.EXPECT().
			FindByIDAndCompany(ctx, actor.CompanyID, organization.KindLocation, locationID.String()).
			Return(&organization.Unit{ID: locationID}, nil)
		deps.units.EXPECT().
			FindByIDAndCompany(ctx, actor.CompanyID, organization.KindBranch, branchID.String()).
			Return(&organization.Unit{ID: branchID, ParentID: &otherLocation}, nil)

		_, err := deps.service.Create(ctx, actor, req)

		assert.ErrorIs(t, err, employeeerrors.ErrPlacementMismatch)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unknown department", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		ctx := context.Background()

		departmentID := uuid.New()
		req := baseRequest()
		req.DepartmentID = strPtr(departmentID.String())

		deps.units.EXPECT().
			FindByIDAndCompany(ctx, actor.CompanyID, organization.KindDepartment, departmentID.String()).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Create(ctx, actor, req)

		assert.ErrorIs(t, err, employeeerrors.ErrPlacementNotFound)
	})

	t.Run("negative supervisor not in company", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		ctx := context.Background()

		supervisorID := uuid.New()
		req := baseRequest()
		req.SupervisorID = strPtr(supervisorID.String())

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			FindSupervisorID(ctx, actor.CompanyID, supervisorID.String()).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Create(ctx, actor, req)

		assert.ErrorIs(t, err, employeeerrors.ErrSupervisorNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative duplicate staff number", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		ctx := context.Background()

		req := baseRequest()
		req.StaffNumber = "EMP-000001"

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_employees_staff_number"})

		_, err := deps.service.Create(ctx, actor, req)

		assert.ErrorIs(t, err, employeeerrors.ErrStaffNumberAlreadyExists)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid dates are reported together", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		req := baseRequest()
		req.DateOfJoin = "05/01/2026"
		req.DateOfBirth = "1990-13-01"

		_, err := deps.service.Create(context.Background(), actor, req)

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidDateOfJoin)
		assert.ErrorIs(t, err, employeeerrors.ErrInvalidDateOfBirth)
	})

	t.Run("negative invalid company", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(context.Background(), domain.Actor{UserID: "u", CompanyID: "acme"}, baseRequest())

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidCompanyID)
	})
}

func TestEmployeeService_Update(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{UserID: uuid.New().String(), CompanyID: uuid.New().String()}

	existing := func(id uuid.UUID) *employee.Employee {
		return &employee.Employee{
			ID:          id,
			CompanyID:   uuid.MustParse(actor.CompanyID),
			StaffNumber: "EMP-000010",
			FullName:    "Dina",
			Email:       "dina@example.com",
			Gender:      employee.GenderFemale,
			DateOfJoin:  time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		}
	}

	t.Run("success - blank staff number keeps current", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		req := employee.UpdateEmployeeRequest(baseRequest())
		req.FullName = "Dina M."

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDAndCompany(ctx, actor.CompanyID, id.String()).Return(existing(id), nil)
		deps.repo.EXPECT().
			Update(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, "EMP-000010", e.StaffNumber)
				assert.Equal(t, "Dina M.", e.FullName)
				return nil
			})
		deps.redismock.ExpectDel(employee.GetEmployeeOptionsKey(actor.CompanyID)).SetVal(1)

		resp, err := deps.service.Update(ctx, actor, id.String(), req)

		assert.NoError(t, err)
		assert.Equal(t, "EMP-000010", resp.StaffNumber)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative self supervision", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		req := employee.UpdateEmployeeRequest(baseRequest())
		req.SupervisorID = strPtr(id.String())

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDAndCompany(ctx, actor.CompanyID, id.String()).Return(existing(id), nil)
		deps.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

		_, err := deps.service.Update(ctx, actor, id.String(), req)

		assert.ErrorIs(t, err, employeeerrors.ErrSelfSupervisor)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative supervisor cycle", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		// E -> X -> Y -> E would close a loop.
		e, x, y := uuid.New(), uuid.New(), uuid.New()
		req := employee.UpdateEmployeeRequest(baseRequest())
		req.SupervisorID = strPtr(x.String())

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDAndCompany(ctx, actor.CompanyID, e.String()).Return(existing(e), nil)
		deps.repo.EXPECT().FindSupervisorID(ctx, actor.CompanyID, x.String()).Return(&y, nil)
		deps.repo.EXPECT().FindSupervisorID(ctx, actor.CompanyID, y.String()).Return(&e, nil)
		deps.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

		_, err := deps.service.Update(ctx, actor, e.String(), req)

		assert.ErrorIs(t, err, employeeerrors.ErrSupervisorCycle)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative chain longer than the hop limit", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		e, x := uuid.New(), uuid.New()
		req := employee.UpdateEmployeeRequest(baseRequest())
		req.SupervisorID = strPtr(x.String())

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDAndCompany(ctx, actor.CompanyID, e.String()).Return(existing(e), nil)
		deps.repo.EXPECT().
			FindSupervisorID(ctx, actor.CompanyID, gomock.Any()).
			DoAndReturn(func(context.Context, string, string) (*uuid.UUID, error) {
				next := uuid.New()
				return &next, nil
			}).
			Times(64)

		_, err := deps.service.Update(ctx, actor, e.String(), req)

		assert.ErrorIs(t, err, employeeerrors.ErrSupervisorCycle)
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDAndCompany(ctx, actor.CompanyID, id.String()).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Update(ctx, actor, id.String(), employee.UpdateEmployeeRequest(baseRequest()))

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})
}

func TestEmployeeService_Delete(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{UserID: uuid.New().String(), CompanyID: uuid.New().String()}

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDAndCompany(ctx, actor.CompanyID, id.String()).Return(&employee.Employee{ID: id, StaffNumber: "EMP-000002"}, nil)
		deps.repo.EXPECT().CountDirectReports(ctx, actor.CompanyID, id.String()).Return(int64(0), nil)
		deps.repo.EXPECT().Delete(ctx, actor.CompanyID, id.String()).Return(nil)
		deps.redismock.ExpectDel(employee.GetEmployeeOptionsKey(actor.CompanyID)).SetVal(1)

		err := deps.service.Delete(ctx, actor, id.String())

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("negative still supervises others", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDAndCompany(ctx, actor.CompanyID, id.String()).Return(&employee.Employee{ID: id}, nil)
		deps.repo.EXPECT().CountDirectReports(ctx, actor.CompanyID, id.String()).Return(int64(2), nil)
		deps.repo.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		err := deps.service.Delete(ctx, actor, id.String())

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeHasReports)
	})

	t.Run("negative referenced by leave rows", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByIDAndCompany(ctx, actor.CompanyID, id.String()).Return(&employee.Employee{ID: id}, nil)
		deps.repo.EXPECT().CountDirectReports(ctx, actor.CompanyID, id.String()).Return(int64(0), nil)
		deps.repo.EXPECT().Delete(ctx, actor.CompanyID, id.String()).Return(&pgconn.PgError{Code: "23503"})

		err := deps.service.Delete(ctx, actor, id.String())

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeInUse)
	})
}

func TestEmployeeService_GetOptions(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	cacheKey := employee.GetEmployeeOptionsKey(companyID)

	t.Run("cache miss loads and stores", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		expected, _ := json.Marshal([]employee.EmployeeRefResponse{{ID: id.String(), StaffNumber: "EMP-000001", FullName: "Dina"}})

		deps.redismock.ExpectGet(cacheKey).RedisNil()
		deps.repo.EXPECT().
			FindOptionsByCompany(gomock.Any(), companyID).
			Return([]employee.Employee{{ID: id, StaffNumber: "EMP-000001", FullName: "Dina"}}, nil)
		deps.redismock.ExpectSet(cacheKey, expected, time.Hour).SetVal("OK")

		resp, err := deps.service.GetOptions(ctx, companyID)

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("cache hit", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		cached, _ := json.Marshal([]employee.EmployeeRefResponse{{ID: "e-1", FullName: "Raka"}})
		deps.redismock.ExpectGet(cacheKey).SetVal(string(cached))
		deps.repo.EXPECT().FindOptionsByCompany(gomock.Any(), gomock.Any()).Times(0)

		resp, err := deps.service.GetOptions(ctx, companyID)

		assert.NoError(t, err)
		assert.Equal(t, "Raka", resp[0].FullName)
	})

	t.Run("negative repository error", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.redismock.ExpectGet(cacheKey).RedisNil()
		deps.repo.EXPECT().FindOptionsByCompany(gomock.Any(), companyID).Return(nil, errors.New("db down"))

		_, err := deps.service.GetOptions(ctx, companyID)

		assert.EqualError(t, err, "db down")
	})
}

func TestEmployeeService_GetByID(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.GetByID(context.Background(), uuid.New().String(), "not-a-uuid")

	assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
}
