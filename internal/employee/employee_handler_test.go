package employee_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go-hrms/internal/domain"
	"go-hrms/internal/employee"
	employeeerrors "go-hrms/internal/employee/errors"
	"go-hrms/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeEmployeeService struct {
	CreateFn     func(ctx context.Context, actor domain.Actor, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error)
	ListFn       func(ctx context.Context, companyID string, q employee.ListQuery) ([]employee.EmployeeResponse, int64, error)
	GetOptionsFn func(ctx context.Context, companyID string) ([]employee.EmployeeRefResponse, error)
	GetByIDFn    func(ctx context.Context, companyID, id string) (employee.EmployeeResponse, error)
	UpdateFn     func(ctx context.Context, actor domain.Actor, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error)
	DeleteFn     func(ctx context.Context, actor domain.Actor, id string) error
}

func (f *fakeEmployeeService) Create(ctx context.Context, actor domain.Actor, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	return f.CreateFn(ctx, actor, req)
}
func (f *fakeEmployeeService) List(ctx context.Context, companyID string, q employee.ListQuery) ([]employee.EmployeeResponse, int64, error) {
	return f.ListFn(ctx, companyID, q)
}
func (f *fakeEmployeeService) GetOptions(ctx context.Context, companyID string) ([]employee.EmployeeRefResponse, error) {
	return f.GetOptionsFn(ctx, companyID)
}
func (f *fakeEmployeeService) GetByID(ctx context.Context, companyID, id string) (employee.EmployeeResponse, error) {
	return f.GetByIDFn(ctx, companyID, id)
}
func (f *fakeEmployeeService) Update(ctx context.Context, actor domain.Actor, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	return f.UpdateFn(ctx, actor, id, req)
}
func (f *fakeEmployeeService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	return f.DeleteFn(ctx, actor, id)
}

func TestMain(m *testing.M) {
	apperror.Init()
	os.Exit(m.Run())
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func withActor(userID, companyID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("company_id", companyID)
		c.Next()
	}
}

const validBody = `{"full_name":"John Doe","email":"john@example.com","gender":"male","date_of_join":"2026-01-05"}`

func TestEmployeeHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		userID := uuid.New().String()
		companyID := uuid.New().String()

		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, actor domain.Actor, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
				assert.Equal(t, domain.Actor{UserID: userID, CompanyID: companyID}, actor)
				assert.Equal(t, "John Doe", req.FullName)
				return employee.EmployeeResponse{
					ID:          uuid.New().String(),
					CompanyID:   actor.CompanyID,
					FullName:    req.FullName,
					StaffNumber: "EMP-000001",
				}, nil
			},
		}

		h := employee.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(validBody))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req

		// Values normally set by the auth middleware.
		c.Set("user_id", userID)
		c.Set("company_id", companyID)

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "EMP-000001")
	})

	t.Run("validation error", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{}, zap.NewNop())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		body := `{"full_name":"John Doe","email":"not-an-email","gender":"robot","date_of_join":"2026-01-05"}`
		req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		c.Set("company_id", uuid.New().String())

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeInvalidInput)
		assert.Contains(t, w.Body.String(), `"email"`)
		assert.Contains(t, w.Body.String(), `"gender"`)
	})

	t.Run("service error", func(t *testing.T) {
		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, actor domain.Actor, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, errors.New("database connection failed")
			},
		}

		h := employee.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(validBody))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		c.Set("company_id", uuid.New().String())

		h.Create(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "database connection failed")
	})

	t.Run("duplicate staff number returns conflict", func(t *testing.T) {
		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, actor domain.Actor, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.ErrStaffNumberAlreadyExists
			},
		}

		h := employee.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(validBody))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		c.Set("company_id", uuid.New().String())

		h.Create(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeConflict)
		assert.Contains(t, w.Body.String(), "Staff number already exists")
	})
}

func TestEmployeeHandler_List(t *testing.T) {
	t.Run("passes the query and pages the result", func(t *testing.T) {
		companyID := uuid.New().String()

		svc := &fakeEmployeeService{
			ListFn: func(ctx context.Context, cid string, q employee.ListQuery) ([]employee.EmployeeResponse, int64, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, employee.ListQuery{
					Search:   "doe",
					SortBy:   "staff_number",
					SortDir:  "desc",
					Page:     2,
					PageSize: 1,
				}, q)
				return []employee.EmployeeResponse{
					{ID: "1", FullName: "John Doe", StaffNumber: "EMP-000002"},
				}, 2, nil
			},
		}

		h := employee.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Request = httptest.NewRequest(http.MethodGet, "/employees?q=doe&sort_by=staff_number&sort_dir=desc&page=2&page_size=1", nil)
		c.Set("company_id", companyID)

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "John Doe")
		assert.Contains(t, w.Body.String(), `"total":2`)
		assert.Contains(t, w.Body.String(), `"totalPages":2`)
	})

	t.Run("page size is clamped", func(t *testing.T) {
		svc := &fakeEmployeeService{
			ListFn: func(ctx context.Context, cid string, q employee.ListQuery) ([]employee.EmployeeResponse, int64, error) {
				assert.Equal(t, 1, q.Page)
				assert.Equal(t, 100, q.PageSize)
				return nil, 0, nil
			},
		}

		h := employee.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Request = httptest.NewRequest(http.MethodGet, "/employees?page=0&page_size=5000", nil)
		c.Set("company_id", uuid.New().String())

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("service error", func(t *testing.T) {
		svc := &fakeEmployeeService{
			ListFn: func(ctx context.Context, cid string, q employee.ListQuery) ([]employee.EmployeeResponse, int64, error) {
				return nil, 0, errors.New("database error")
			},
		}

		h := employee.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		c.Request = httptest.NewRequest(http.MethodGet, "/employees", nil)
		c.Set("company_id", uuid.New().String())

		h.List(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "database error")
	})
}

func TestEmployeeHandler_GetOptions(t *testing.T) {
	companyID := uuid.New().String()
	svc := &fakeEmployeeService{
		GetOptionsFn: func(ctx context.Context, cid string) ([]employee.EmployeeRefResponse, error) {
			assert.Equal(t, companyID, cid)
			return []employee.EmployeeRefResponse{
				{ID: "1", FullName: "Alice Smith", StaffNumber: "EMP-000001"},
				{ID: "2", FullName: "Bob Wilson", StaffNumber: "EMP-000002"},
			}, nil
		},
	}

	h := employee.NewHandler(svc, zap.NewNop())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(http.MethodGet, "/employees/options", nil)
	c.Set("company_id", companyID)

	h.Options(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alice Smith")
	assert.Contains(t, w.Body.String(), "EMP-000002")
}

func TestEmployeeHandler_GetByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		companyID := uuid.New().String()
		employeeID := uuid.New().String()

		svc := &fakeEmployeeService{
			GetByIDFn: func(ctx context.Context, cid, id string) (employee.EmployeeResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, employeeID, id)
				return employee.EmployeeResponse{ID: id, FullName: "HR", CompanyID: cid}, nil
			},
		}

		r := setupRouter()
		r.Use(withActor(uuid.New().String(), companyID))
		h := employee.NewHandler(svc, zap.NewNop())
		r.GET("/employees/:id", h.Get)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/employees/"+employeeID, nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeEmployeeService{
			GetByIDFn: func(ctx context.Context, cid, id string) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
			},
		}

		r := setupRouter()
		r.Use(withActor(uuid.New().String(), uuid.New().String()))
		h := employee.NewHandler(svc, zap.NewNop())
		r.GET("/employees/:id", h.Get)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/employees/"+uuid.New().String(), nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestEmployeeHandler_Update(t *testing.T) {
	t.Run("supervisor cycle is a validation error", func(t *testing.T) {
		employeeID := uuid.New().String()
		svc := &fakeEmployeeService{
			UpdateFn: func(ctx context.Context, actor domain.Actor, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
				assert.Equal(t, employeeID, id)
				return employee.EmployeeResponse{}, employeeerrors.ErrSupervisorCycle
			},
		}

		r := setupRouter()
		r.Use(withActor(uuid.New().String(), uuid.New().String()))
		h := employee.NewHandler(svc, zap.NewNop())
		r.PUT("/employees/:id", h.Update)

		req := httptest.NewRequest(http.MethodPut, "/employees/"+employeeID, strings.NewReader(validBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"supervisor_id"`)
	})
}

func TestEmployeeHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		userID := uuid.New().String()
		employeeID := uuid.New().String()
		svc := &fakeEmployeeService{
			DeleteFn: func(ctx context.Context, actor domain.Actor, id string) error {
				assert.Equal(t, userID, actor.UserID)
				assert.Equal(t, employeeID, id)
				return nil
			},
		}

		r := setupRouter()
		r.Use(withActor(userID, uuid.New().String()))
		h := employee.NewHandler(svc, zap.NewNop())
		r.DELETE("/employees/:id", h.Delete)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/employees/"+employeeID, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"deleted":true`)
	})

	t.Run("has direct reports", func(t *testing.T) {
		svc := &fakeEmployeeService{
			DeleteFn: func(ctx context.Context, actor domain.Actor, id string) error {
				return employeeerrors.ErrEmployeeHasReports
			},
		}

		r := setupRouter()
		r.Use(withActor(uuid.New().String(), uuid.New().String()))
		h := employee.NewHandler(svc, zap.NewNop())
		r.DELETE("/employees/:id", h.Delete)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/employees/"+uuid.New().String(), nil))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
