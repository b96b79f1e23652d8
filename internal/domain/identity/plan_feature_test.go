package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlanFeature(t *testing.T) {
	t.Run("creates plan feature successfully", func(t *testing.T) {
		pf := NewPlanFeature(TenantPlanStandard, FeatureBillingEngine, true, "Automated monthly bill generation")

		require.NotNil(t, pf)
		assert.NotEqual(t, uuid.Nil, pf.ID)
		assert.Equal(t, TenantPlanStandard, pf.PlanID)
		assert.Equal(t, FeatureBillingEngine, pf.FeatureKey)
		assert.True(t, pf.Enabled)
		assert.Nil(t, pf.Limit)
		assert.Equal(t, "Automated monthly bill generation", pf.Description)
		assert.False(t, pf.CreatedAt.IsZero())
		assert.False(t, pf.UpdatedAt.IsZero())
	})

	t.Run("creates disabled plan feature", func(t *testing.T) {
		pf := NewPlanFeature(TenantPlanBasic, FeaturePaymentGateway, false, "Online payment gateway checkout")

		require.NotNil(t, pf)
		assert.Equal(t, TenantPlanBasic, pf.PlanID)
		assert.Equal(t, FeaturePaymentGateway, pf.FeatureKey)
		assert.False(t, pf.Enabled)
	})
}

func TestNewPlanFeatureWithLimit(t *testing.T) {
	t.Run("creates plan feature with limit", func(t *testing.T) {
		pf := NewPlanFeatureWithLimit(TenantPlanBasic, FeatureDataExport, true, 500, "Export data to CSV")

		require.NotNil(t, pf)
		assert.Equal(t, TenantPlanBasic, pf.PlanID)
		assert.Equal(t, FeatureDataExport, pf.FeatureKey)
		assert.True(t, pf.Enabled)
		require.NotNil(t, pf.Limit)
		assert.Equal(t, 500, *pf.Limit)
	})
}

func TestPlanFeature_EnableDisable(t *testing.T) {
	pf := NewPlanFeature(TenantPlanBasic, FeatureActivityLog, false, "Activity audit log")

	pf.Enable()
	assert.True(t, pf.Enabled)

	pf.Disable()
	assert.False(t, pf.Enabled)
}

func TestPlanFeature_Limits(t *testing.T) {
	pf := NewPlanFeature(TenantPlanStandard, FeatureDataExport, true, "Export data to CSV")

	assert.True(t, pf.IsUnlimited())
	assert.Equal(t, -1, pf.GetLimit())

	pf.SetLimit(1000)
	assert.False(t, pf.IsUnlimited())
	assert.Equal(t, 1000, pf.GetLimit())

	pf.ClearLimit()
	assert.True(t, pf.IsUnlimited())
}

func TestDefaultPlanFeatures(t *testing.T) {
	t.Run("basic plan has no billing engine", func(t *testing.T) {
		features := DefaultPlanFeatures(TenantPlanBasic)
		require.NotEmpty(t, features)

		assert.False(t, PlanHasFeature(TenantPlanBasic, FeatureBillingEngine))
		assert.False(t, PlanHasFeature(TenantPlanBasic, FeatureLateFees))
		assert.False(t, PlanHasFeature(TenantPlanBasic, FeaturePaymentGateway))
		assert.True(t, PlanHasFeature(TenantPlanBasic, FeatureExpenseTracking))
	})

	t.Run("standard plan has billing engine but no gateway", func(t *testing.T) {
		assert.True(t, PlanHasFeature(TenantPlanStandard, FeatureBillingEngine))
		assert.True(t, PlanHasFeature(TenantPlanStandard, FeatureLateFees))
		assert.True(t, PlanHasFeature(TenantPlanStandard, FeatureFinancialReports))
		assert.False(t, PlanHasFeature(TenantPlanStandard, FeaturePaymentGateway))
	})

	t.Run("premium plan has everything", func(t *testing.T) {
		for _, key := range GetAllFeatureKeys() {
			assert.True(t, PlanHasFeature(TenantPlanPremium, key), "premium should enable %s", key)
		}
	})

	t.Run("unknown plan falls back to basic", func(t *testing.T) {
		features := DefaultPlanFeatures(TenantPlan("unknown"))
		require.NotEmpty(t, features)
		assert.Equal(t, TenantPlanBasic, features[0].PlanID)
	})

	t.Run("each plan defines every feature key", func(t *testing.T) {
		for _, plan := range []TenantPlan{TenantPlanBasic, TenantPlanStandard, TenantPlanPremium} {
			features := DefaultPlanFeatures(plan)
			assert.Len(t, features, len(GetAllFeatureKeys()))
		}
	})
}

func TestIsValidFeatureKey(t *testing.T) {
	assert.True(t, IsValidFeatureKey(FeatureBillingEngine))
	assert.True(t, IsValidFeatureKey(FeatureReceiptAttachments))
	assert.False(t, IsValidFeatureKey(FeatureKey("warp_drive")))
}

func TestGetPlanFeatureLimit(t *testing.T) {
	limit := GetPlanFeatureLimit(TenantPlanBasic, FeatureDataExport)
	require.NotNil(t, limit)
	assert.Equal(t, 500, *limit)

	assert.Nil(t, GetPlanFeatureLimit(TenantPlanPremium, FeatureDataExport))
	assert.Nil(t, GetPlanFeatureLimit(TenantPlanBasic, FeatureKey("missing")))
}
