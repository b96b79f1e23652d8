package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appbilling "github.com/armonia/backend/internal/application/billing"
	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByPropertyAndPeriod(ctx context.Context, tenantID, propertyID uuid.UUID, period string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, propertyID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]billing.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindDueBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOpen(ctx context.Context, tenantID uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) SumBilledForPeriod(ctx context.Context, tenantID uuid.UUID, period string) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) SumOutstandingForPeriod(ctx context.Context, tenantID uuid.UUID, period string) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func setupBillingRouter(handler *BillingHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/billing/invoices", handler.ListInvoices)
	router.GET("/billing/invoices/:id", handler.GetInvoice)
	router.GET("/billing/invoices/:id/late-fee", handler.PreviewLateFee)
	return router
}

func newBillingService(invoiceRepo *MockInvoiceRepository, tenantRepo *MockTenantRepository) *appbilling.BillingService {
	return appbilling.NewBillingService(appbilling.BillingServiceConfig{
		InvoiceRepo: invoiceRepo,
		TenantRepo:  tenantRepo,
	})
}

func createTestInvoice(t *testing.T, tenantID uuid.UUID, rawPeriod string) *billing.Invoice {
	t.Helper()
	period, err := billing.ParsePeriod(rawPeriod)
	require.NoError(t, err)
	item, err := billing.NewBillItem(uuid.New(), "Administración",
		valueobject.NewMoneyCOP(decimal.NewFromInt(350000)))
	require.NoError(t, err)
	invoice, err := billing.NewInvoice(tenantID, uuid.New(), period, []billing.BillItem{*item})
	require.NoError(t, err)
	return invoice
}

func TestBillingHandler_GetInvoice_Success(t *testing.T) {
	tenantID := uuid.New()
	invoice := createTestInvoice(t, tenantID, "2026-08")

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)

	router := setupBillingRouter(NewBillingHandler(newBillingService(invoiceRepo, new(MockTenantRepository))))

	req := httptest.NewRequest(http.MethodGet, "/billing/invoices/"+invoice.ID.String(), nil)
	req.Header.Set("X-Tenant-ID", tenantID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool            `json:"success"`
		Data    InvoiceResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, invoice.ID, resp.Data.ID)
	assert.Equal(t, "2026-08", resp.Data.BillingPeriod)
	assert.Equal(t, "PENDING", resp.Data.Status)
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "Administración", resp.Data.Items[0].Name)
}

func TestBillingHandler_GetInvoice_NotFound(t *testing.T) {
	tenantID := uuid.New()
	invoiceID := uuid.New()

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoiceID).Return(nil, nil)

	router := setupBillingRouter(NewBillingHandler(newBillingService(invoiceRepo, new(MockTenantRepository))))

	req := httptest.NewRequest(http.MethodGet, "/billing/invoices/"+invoiceID.String(), nil)
	req.Header.Set("X-Tenant-ID", tenantID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestBillingHandler_ListInvoices_FiltersByPeriod(t *testing.T) {
	tenantID := uuid.New()
	invoice := createTestInvoice(t, tenantID, "2026-08")

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("List", mock.Anything, tenantID, mock.MatchedBy(func(f billing.InvoiceFilter) bool {
		return f.Period == "2026-08" && f.Status == billing.InvoiceStatusPending
	})).Return([]billing.Invoice{*invoice}, int64(1), nil)

	router := setupBillingRouter(NewBillingHandler(newBillingService(invoiceRepo, new(MockTenantRepository))))

	req := httptest.NewRequest(http.MethodGet, "/billing/invoices?period=2026-08&status=PENDING", nil)
	req.Header.Set("X-Tenant-ID", tenantID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool                `json:"success"`
		Data    InvoiceListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.Total)
	require.Len(t, resp.Data.Invoices, 1)
	assert.Equal(t, "2026-08", resp.Data.Invoices[0].BillingPeriod)
}

func TestBillingHandler_PreviewLateFee_Success(t *testing.T) {
	tenant, err := identity.NewTenant("TORRES001", "Conjunto Torres del Parque")
	require.NoError(t, err)
	require.NoError(t, tenant.SetPlan(identity.TenantPlanStandard))

	invoice := createTestInvoice(t, tenant.ID, "2026-01")

	invoiceRepo := new(MockInvoiceRepository)
	tenantRepo := new(MockTenantRepository)
	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	invoiceRepo.On("FindByIDForTenant", mock.Anything, tenant.ID, invoice.ID).Return(invoice, nil)

	router := setupBillingRouter(NewBillingHandler(newBillingService(invoiceRepo, tenantRepo)))

	req := httptest.NewRequest(http.MethodGet, "/billing/invoices/"+invoice.ID.String()+"/late-fee", nil)
	req.Header.Set("X-Tenant-ID", tenant.ID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool                      `json:"success"`
		Data    appbilling.LateFeePreview `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, invoice.ID, resp.Data.InvoiceID)
	assert.Greater(t, resp.Data.DaysLate, 0)
	assert.True(t, resp.Data.LateFee.GreaterThan(decimal.Zero))
}

func TestBillingHandler_PreviewLateFee_FeatureNotLicensed(t *testing.T) {
	tenant, err := identity.NewTenant("TORRES001", "Conjunto Torres del Parque")
	require.NoError(t, err)

	invoiceRepo := new(MockInvoiceRepository)
	tenantRepo := new(MockTenantRepository)
	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)

	router := setupBillingRouter(NewBillingHandler(newBillingService(invoiceRepo, tenantRepo)))

	req := httptest.NewRequest(http.MethodGet, "/billing/invoices/"+uuid.New().String()+"/late-fee", nil)
	req.Header.Set("X-Tenant-ID", tenant.ID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	invoiceRepo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}
