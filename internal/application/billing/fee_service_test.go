package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateFee(t *testing.T) {
	t.Run("creates a fixed fee with the default currency", func(t *testing.T) {
		feeRepo := new(mockFeeRepository)
		feeRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		service := NewFeeService(feeRepo, nil, nil)

		fee, err := service.CreateFee(context.Background(), uuid.New(), uuid.New(), CreateFeeCommand{
			Name:       "Cuota de administracion",
			FeeType:    "FIXED",
			BaseAmount: decimal.RequireFromString("350000"),
		})

		require.NoError(t, err)
		assert.Equal(t, billing.FeeTypeFixed, fee.FeeType)
		assert.Equal(t, "COP", string(fee.Currency))
		assert.True(t, fee.Active)
		feeRepo.AssertExpectations(t)
	})

	t.Run("rejects an unknown fee type", func(t *testing.T) {
		service := NewFeeService(new(mockFeeRepository), nil, nil)

		_, err := service.CreateFee(context.Background(), uuid.New(), uuid.New(), CreateFeeCommand{
			Name:       "Cuota",
			FeeType:    "HOURLY",
			BaseAmount: decimal.RequireFromString("1000"),
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_FEE_TYPE", domainErr.Code)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		service := NewFeeService(new(mockFeeRepository), nil, nil)

		_, err := service.CreateFee(context.Background(), uuid.New(), uuid.New(), CreateFeeCommand{
			Name:       "Cuota",
			FeeType:    "FIXED",
			BaseAmount: decimal.Zero,
		})

		require.Error(t, err)
	})
}

func TestUpdateFee(t *testing.T) {
	t.Run("updates name and amount with optimistic locking", func(t *testing.T) {
		feeRepo := new(mockFeeRepository)
		tenantID := uuid.New()
		fee := createTestFee(t, tenantID, "Cuota de administracion", billing.FeeTypeFixed, "350000")

		feeRepo.On("FindByIDForTenant", mock.Anything, tenantID, fee.ID).Return(fee, nil)
		feeRepo.On("SaveWithLock", mock.Anything, fee).Return(nil)

		service := NewFeeService(feeRepo, nil, nil)

		updated, err := service.UpdateFee(context.Background(), tenantID, uuid.New(), fee.ID, UpdateFeeCommand{
			Name:       "Cuota de administracion 2025",
			BaseAmount: decimal.RequireFromString("380000"),
		})

		require.NoError(t, err)
		assert.Equal(t, "Cuota de administracion 2025", updated.Name)
		assert.True(t, updated.BaseAmount.Equal(decimal.RequireFromString("380000")))
		feeRepo.AssertExpectations(t)
	})

	t.Run("returns not found for another tenant's fee", func(t *testing.T) {
		feeRepo := new(mockFeeRepository)
		tenantID := uuid.New()
		feeID := uuid.New()

		feeRepo.On("FindByIDForTenant", mock.Anything, tenantID, feeID).Return(nil, nil)

		service := NewFeeService(feeRepo, nil, nil)

		_, err := service.UpdateFee(context.Background(), tenantID, uuid.New(), feeID, UpdateFeeCommand{
			Name:       "Cuota",
			BaseAmount: decimal.RequireFromString("1000"),
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDeactivateFee(t *testing.T) {
	t.Run("excludes the fee from future billing runs", func(t *testing.T) {
		feeRepo := new(mockFeeRepository)
		tenantID := uuid.New()
		fee := createTestFee(t, tenantID, "Mantenimiento", billing.FeeTypePerArea, "1200")

		feeRepo.On("FindByIDForTenant", mock.Anything, tenantID, fee.ID).Return(fee, nil)
		feeRepo.On("SaveWithLock", mock.Anything, fee).Return(nil)

		service := NewFeeService(feeRepo, nil, nil)

		require.NoError(t, service.DeactivateFee(context.Background(), tenantID, fee.ID))
		assert.False(t, fee.Active)
	})
}
