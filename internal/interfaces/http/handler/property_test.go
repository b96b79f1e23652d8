package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appproperty "github.com/armonia/backend/internal/application/property"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/property"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Save(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPropertyRepository) SaveWithLock(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPropertyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*property.Property, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByUnitNumber(ctx context.Context, tenantID uuid.UUID, unitNumber string) (*property.Property, error) {
	args := m.Called(ctx, tenantID, unitNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*property.Property, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*property.Property), args.Error(1)
}

func (m *MockPropertyRepository) List(ctx context.Context, tenantID uuid.UUID, filter property.PropertyFilter) ([]*property.Property, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*property.Property), args.Get(1).(int64), args.Error(2)
}

func (m *MockPropertyRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

// setupPropertyRouter wires the property handler behind the dev header
// fallback so tests do not need to mint tokens.
func setupPropertyRouter(handler *PropertyHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/properties", handler.Register)
	router.GET("/properties", handler.List)
	router.GET("/properties/:id", handler.GetByID)
	router.POST("/properties/:id/activate", handler.Activate)
	return router
}

func createTestProperty(t *testing.T, tenantID uuid.UUID) *property.Property {
	t.Helper()
	prop, err := property.NewProperty(
		tenantID,
		"T2-501",
		property.PropertyTypeApartment,
		decimal.NewFromFloat(72.5),
		"Carlos Mendoza",
		"carlos@example.com",
	)
	require.NoError(t, err)
	return prop
}

func TestPropertyHandler_Register_Success(t *testing.T) {
	tenant, err := identity.NewTenant("TORRES001", "Conjunto Torres del Parque")
	require.NoError(t, err)
	actorID := uuid.New()

	propertyRepo := new(MockPropertyRepository)
	tenantRepo := new(MockTenantRepository)

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	propertyRepo.On("Count", mock.Anything, tenant.ID).Return(int64(3), nil)
	propertyRepo.On("FindByUnitNumber", mock.Anything, tenant.ID, "T2-501").Return(nil, nil)
	propertyRepo.On("Save", mock.Anything, mock.AnythingOfType("*property.Property")).Return(nil)

	service := appproperty.NewPropertyService(appproperty.PropertyServiceConfig{
		PropertyRepo: propertyRepo,
		TenantRepo:   tenantRepo,
	})
	router := setupPropertyRouter(NewPropertyHandler(service))

	body, _ := json.Marshal(RegisterPropertyRequest{
		UnitNumber:   "T2-501",
		PropertyType: "APARTMENT",
		Area:         decimal.NewFromFloat(72.5),
		OwnerName:    "Carlos Mendoza",
		OwnerEmail:   "carlos@example.com",
	})
	req := httptest.NewRequest(http.MethodPost, "/properties", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenant.ID.String())
	req.Header.Set("X-User-ID", actorID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Success bool             `json:"success"`
		Data    PropertyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "T2-501", resp.Data.UnitNumber)
	assert.Equal(t, "APARTMENT", resp.Data.PropertyType)
	assert.Equal(t, "ACTIVE", resp.Data.Status)

	propertyRepo.AssertExpectations(t)
}

func TestPropertyHandler_Register_DuplicateUnit(t *testing.T) {
	tenant, err := identity.NewTenant("TORRES001", "Conjunto Torres del Parque")
	require.NoError(t, err)
	existing := createTestProperty(t, tenant.ID)

	propertyRepo := new(MockPropertyRepository)
	tenantRepo := new(MockTenantRepository)

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	propertyRepo.On("Count", mock.Anything, tenant.ID).Return(int64(3), nil)
	propertyRepo.On("FindByUnitNumber", mock.Anything, tenant.ID, "T2-501").Return(existing, nil)

	service := appproperty.NewPropertyService(appproperty.PropertyServiceConfig{
		PropertyRepo: propertyRepo,
		TenantRepo:   tenantRepo,
	})
	router := setupPropertyRouter(NewPropertyHandler(service))

	body, _ := json.Marshal(RegisterPropertyRequest{
		UnitNumber:   "T2-501",
		PropertyType: "APARTMENT",
		Area:         decimal.NewFromFloat(72.5),
		OwnerName:    "Carlos Mendoza",
	})
	req := httptest.NewRequest(http.MethodPost, "/properties", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenant.ID.String())
	req.Header.Set("X-User-ID", uuid.New().String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	propertyRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPropertyHandler_GetByID_Success(t *testing.T) {
	tenantID := uuid.New()
	prop := createTestProperty(t, tenantID)

	propertyRepo := new(MockPropertyRepository)
	tenantRepo := new(MockTenantRepository)
	propertyRepo.On("FindByIDForTenant", mock.Anything, tenantID, prop.ID).Return(prop, nil)

	service := appproperty.NewPropertyService(appproperty.PropertyServiceConfig{
		PropertyRepo: propertyRepo,
		TenantRepo:   tenantRepo,
	})
	router := setupPropertyRouter(NewPropertyHandler(service))

	req := httptest.NewRequest(http.MethodGet, "/properties/"+prop.ID.String(), nil)
	req.Header.Set("X-Tenant-ID", tenantID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool             `json:"success"`
		Data    PropertyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, prop.ID, resp.Data.ID)
	assert.Equal(t, "Carlos Mendoza", resp.Data.OwnerName)
}

func TestPropertyHandler_List_FiltersByStatus(t *testing.T) {
	tenantID := uuid.New()
	prop := createTestProperty(t, tenantID)

	propertyRepo := new(MockPropertyRepository)
	tenantRepo := new(MockTenantRepository)
	propertyRepo.On("List", mock.Anything, tenantID, mock.MatchedBy(func(f property.PropertyFilter) bool {
		return f.Status != nil && *f.Status == property.PropertyStatusActive
	})).Return([]*property.Property{prop}, int64(1), nil)

	service := appproperty.NewPropertyService(appproperty.PropertyServiceConfig{
		PropertyRepo: propertyRepo,
		TenantRepo:   tenantRepo,
	})
	router := setupPropertyRouter(NewPropertyHandler(service))

	req := httptest.NewRequest(http.MethodGet, "/properties?status=ACTIVE", nil)
	req.Header.Set("X-Tenant-ID", tenantID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool                 `json:"success"`
		Data    PropertyListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.Total)
	require.Len(t, resp.Data.Properties, 1)
	assert.Equal(t, "T2-501", resp.Data.Properties[0].UnitNumber)

	propertyRepo.AssertExpectations(t)
}

func TestPropertyHandler_Register_MissingTenant(t *testing.T) {
	service := appproperty.NewPropertyService(appproperty.PropertyServiceConfig{
		PropertyRepo: new(MockPropertyRepository),
		TenantRepo:   new(MockTenantRepository),
	})
	router := setupPropertyRouter(NewPropertyHandler(service))

	body, _ := json.Marshal(RegisterPropertyRequest{
		UnitNumber:   "T2-501",
		PropertyType: "APARTMENT",
		Area:         decimal.NewFromFloat(72.5),
	})
	req := httptest.NewRequest(http.MethodPost, "/properties", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
