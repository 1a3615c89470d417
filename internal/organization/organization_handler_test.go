package organization_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-hrms/internal/domain"
	"go-hrms/internal/organization"
	organizationerrors "go-hrms/internal/organization/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeOrganizationService struct {
	CreateFn  func(ctx context.Context, actor domain.Actor, kind organization.Kind, req organization.UnitRequest) (organization.UnitResponse, error)
	GetAllFn  func(ctx context.Context, companyID string, kind organization.Kind) ([]organization.UnitResponse, error)
	GetByIDFn func(ctx context.Context, companyID string, kind organization.Kind, id string) (organization.UnitResponse, error)
	UpdateFn  func(ctx context.Context, actor domain.Actor, kind organization.Kind, id string, req organization.UnitRequest) (organization.UnitResponse, error)
	DeleteFn  func(ctx context.Context, actor domain.Actor, kind organization.Kind, id string) error
}

func (f *fakeOrganizationService) Create(ctx context.Context, actor domain.Actor, kind organization.Kind, req organization.UnitRequest) (organization.UnitResponse, error) {
	return f.CreateFn(ctx, actor, kind, req)
}
func (f *fakeOrganizationService) GetAll(ctx context.Context, companyID string, kind organization.Kind) ([]organization.UnitResponse, error) {
	return f.GetAllFn(ctx, companyID, kind)
}
func (f *fakeOrganizationService) GetByID(ctx context.Context, companyID string, kind organization.Kind, id string) (organization.UnitResponse, error) {
	return f.GetByIDFn(ctx, companyID, kind, id)
}
func (f *fakeOrganizationService) Update(ctx context.Context, actor domain.Actor, kind organization.Kind, id string, req organization.UnitRequest) (organization.UnitResponse, error) {
	return f.UpdateFn(ctx, actor, kind, id, req)
}
func (f *fakeOrganizationService) Delete(ctx context.Context, actor domain.Actor, kind organization.Kind, id string) error {
	return f.DeleteFn(ctx, actor, kind, id)
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
}

func setupRouter(h *organization.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Set("company_id", "company-1")
		c.Next()
	})
	r.GET("/organization/:kind", h.GetAll)
	r.POST("/organization/:kind", h.Create)
	r.DELETE("/organization/:kind/:id", h.Delete)
	return r
}

func TestOrganizationHandler(t *testing.T) {
	t.Run("create passes kind and actor", func(t *testing.T) {
		svc := &fakeOrganizationService{
			CreateFn: func(ctx context.Context, actor domain.Actor, kind organization.Kind, req organization.UnitRequest) (organization.UnitResponse, error) {
				assert.Equal(t, domain.Actor{UserID: "user-1", CompanyID: "company-1"}, actor)
				assert.Equal(t, organization.KindLocation, kind)
				return organization.UnitResponse{ID: "loc-1", Kind: string(kind), Name: req.Name}, nil
			},
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/organization/location", strings.NewReader(`{"name":"Jakarta"}`))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(organization.NewHandler(svc, zap.NewNop())).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var env apiEnvelope
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.True(t, env.Ok)
	})

	t.Run("negative missing name", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/organization/location", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(organization.NewHandler(&fakeOrganizationService{}, zap.NewNop())).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var env apiEnvelope
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
		assert.Len(t, env.Error.Details, 1)
	})

	t.Run("negative unit in use", func(t *testing.T) {
		svc := &fakeOrganizationService{
			DeleteFn: func(ctx context.Context, actor domain.Actor, kind organization.Kind, id string) error {
				assert.Equal(t, "br-1", id)
				return organizationerrors.ErrUnitInUse
			},
		}
		w := httptest.NewRecorder()
		setupRouter(organization.NewHandler(svc, zap.NewNop())).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/organization/branch/br-1", nil))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("negative unknown kind", func(t *testing.T) {
		svc := &fakeOrganizationService{
			GetAllFn: func(ctx context.Context, companyID string, kind organization.Kind) ([]organization.UnitResponse, error) {
				return nil, organizationerrors.ErrInvalidKind
			},
		}
		w := httptest.NewRecorder()
		setupRouter(organization.NewHandler(svc, zap.NewNop())).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/organization/team", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
