package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("creates tenant successfully", func(t *testing.T) {
		tenant, err := NewTenant("TORRES001", "Conjunto Torres del Parque")

		require.NoError(t, err)
		assert.NotNil(t, tenant)
		assert.Equal(t, "TORRES001", tenant.Code)
		assert.Equal(t, "Conjunto Torres del Parque", tenant.Name)
		assert.Equal(t, TenantStatusActive, tenant.Status)
		assert.Equal(t, TenantPlanBasic, tenant.Plan)
		assert.Equal(t, 10, tenant.Config.MaxUsers)
		assert.Equal(t, 100, tenant.Config.MaxProperties)
		assert.Equal(t, "COP", tenant.Config.Currency)
		assert.Equal(t, "America/Bogota", tenant.Config.Timezone)
		assert.Equal(t, "es-CO", tenant.Config.Locale)
		assert.Len(t, tenant.GetDomainEvents(), 1)
	})

	t.Run("converts code to uppercase", func(t *testing.T) {
		tenant, err := NewTenant("torres002", "Conjunto Torres")

		require.NoError(t, err)
		assert.Equal(t, "TORRES002", tenant.Code)
	})

	t.Run("fails with empty code", func(t *testing.T) {
		tenant, err := NewTenant("", "Conjunto Torres")

		assert.Error(t, err)
		assert.Nil(t, tenant)
		assert.Contains(t, err.Error(), "code cannot be empty")
	})

	t.Run("fails with invalid code characters", func(t *testing.T) {
		tenant, err := NewTenant("TORRES@001", "Conjunto Torres")

		assert.Error(t, err)
		assert.Nil(t, tenant)
		assert.Contains(t, err.Error(), "can only contain")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		tenant, err := NewTenant("TORRES001", "")

		assert.Error(t, err)
		assert.Nil(t, tenant)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})
}

func TestNewTrialTenant(t *testing.T) {
	t.Run("creates trial tenant with end date", func(t *testing.T) {
		tenant, err := NewTrialTenant("TRIAL001", "Conjunto Prueba", 30)

		require.NoError(t, err)
		assert.Equal(t, TenantStatusTrial, tenant.Status)
		require.NotNil(t, tenant.TrialEndsAt)
		assert.True(t, tenant.TrialEndsAt.After(time.Now().AddDate(0, 0, 29)))
		assert.True(t, tenant.IsTrial())
		assert.False(t, tenant.IsTrialExpired())
	})

	t.Run("fails with non-positive trial days", func(t *testing.T) {
		_, err := NewTrialTenant("TRIAL001", "Conjunto Prueba", 0)
		assert.Error(t, err)
	})
}

func TestTenant_SetPlan(t *testing.T) {
	t.Run("upgrading raises limits", func(t *testing.T) {
		tenant, err := NewTenant("TORRES001", "Conjunto Torres")
		require.NoError(t, err)

		require.NoError(t, tenant.SetPlan(TenantPlanStandard))
		assert.Equal(t, TenantPlanStandard, tenant.Plan)
		assert.Equal(t, 50, tenant.Config.MaxUsers)
		assert.Equal(t, 500, tenant.Config.MaxProperties)

		require.NoError(t, tenant.SetPlan(TenantPlanPremium))
		assert.Equal(t, 500, tenant.Config.MaxUsers)
		assert.Equal(t, 5000, tenant.Config.MaxProperties)
	})

	t.Run("upgrading from trial clears trial state", func(t *testing.T) {
		tenant, err := NewTrialTenant("TRIAL001", "Conjunto Prueba", 30)
		require.NoError(t, err)

		require.NoError(t, tenant.SetPlan(TenantPlanStandard))
		assert.Equal(t, TenantStatusActive, tenant.Status)
		assert.Nil(t, tenant.TrialEndsAt)
	})

	t.Run("rejects unknown plan", func(t *testing.T) {
		tenant, err := NewTenant("TORRES001", "Conjunto Torres")
		require.NoError(t, err)

		assert.Error(t, tenant.SetPlan(TenantPlan("platinum")))
	})
}

func TestTenant_StatusTransitions(t *testing.T) {
	tenant, err := NewTenant("TORRES001", "Conjunto Torres")
	require.NoError(t, err)

	// Already active
	assert.Error(t, tenant.Activate())

	require.NoError(t, tenant.Suspend())
	assert.True(t, tenant.IsSuspended())
	assert.Error(t, tenant.Suspend())

	require.NoError(t, tenant.Activate())
	assert.True(t, tenant.IsActive())

	require.NoError(t, tenant.Deactivate())
	assert.False(t, tenant.IsActive())
	assert.Error(t, tenant.Deactivate())
}

func TestTenant_SubscriptionExpiry(t *testing.T) {
	tenant, err := NewTenant("TORRES001", "Conjunto Torres")
	require.NoError(t, err)

	assert.False(t, tenant.IsSubscriptionExpired())

	tenant.SetExpiration(time.Now().Add(-time.Hour))
	assert.True(t, tenant.IsSubscriptionExpired())

	tenant.ClearExpiration()
	assert.False(t, tenant.IsSubscriptionExpired())
}

func TestTenant_Limits(t *testing.T) {
	tenant, err := NewTenant("TORRES001", "Conjunto Torres")
	require.NoError(t, err)

	assert.True(t, tenant.CanAddUser(9))
	assert.False(t, tenant.CanAddUser(10))
	assert.True(t, tenant.CanAddProperty(99))
	assert.False(t, tenant.CanAddProperty(100))

	require.NoError(t, tenant.UpdateConfig(TenantConfig{MaxUsers: 2, MaxProperties: 5, Currency: "COP"}))
	assert.False(t, tenant.CanAddUser(2))

	assert.Error(t, tenant.UpdateConfig(TenantConfig{MaxUsers: -1}))
}

func TestTenant_SetContact(t *testing.T) {
	tenant, err := NewTenant("TORRES001", "Conjunto Torres")
	require.NoError(t, err)

	require.NoError(t, tenant.SetContact("Claudia Perez", "+57 300 123 4567", "admin@torres.example.com"))
	assert.Equal(t, "Claudia Perez", tenant.ContactName)
	assert.Equal(t, "admin@torres.example.com", tenant.ContactEmail)
}
