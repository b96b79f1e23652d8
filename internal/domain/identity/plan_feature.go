package identity

import (
	"time"

	"github.com/google/uuid"
)

// FeatureKey represents a unique identifier for a feature
type FeatureKey string

// Predefined feature keys for the system
const (
	// Billing features
	FeatureBillingEngine  FeatureKey = "billing_engine"
	FeatureLateFees       FeatureKey = "late_fees"
	FeaturePaymentGateway FeatureKey = "payment_gateway"

	// Finance features
	FeatureFinancialReports   FeatureKey = "financial_reports"
	FeatureExpenseTracking    FeatureKey = "expense_tracking"
	FeatureReceiptAttachments FeatureKey = "receipt_attachments"

	// Platform features
	FeatureActivityLog      FeatureKey = "activity_log"
	FeatureDataExport       FeatureKey = "data_export"
	FeatureNotifications    FeatureKey = "notifications"
	FeaturePrioritySupport  FeatureKey = "priority_support"
	FeatureDedicatedSupport FeatureKey = "dedicated_support"
)

// PlanFeature represents a feature mapping for a subscription plan
// It defines which features are available for each plan and their limits
type PlanFeature struct {
	ID          uuid.UUID
	PlanID      TenantPlan // The subscription plan (basic, standard, premium)
	FeatureKey  FeatureKey // Unique identifier for the feature
	Enabled     bool       // Whether the feature is enabled for this plan
	Limit       *int       // Optional limit for the feature (nil = unlimited)
	Description string     // Human-readable description of the feature
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPlanFeature creates a new PlanFeature with the given parameters
func NewPlanFeature(planID TenantPlan, featureKey FeatureKey, enabled bool, description string) *PlanFeature {
	now := time.Now()
	return &PlanFeature{
		ID:          uuid.New(),
		PlanID:      planID,
		FeatureKey:  featureKey,
		Enabled:     enabled,
		Limit:       nil,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewPlanFeatureWithLimit creates a new PlanFeature with a limit
func NewPlanFeatureWithLimit(planID TenantPlan, featureKey FeatureKey, enabled bool, limit int, description string) *PlanFeature {
	pf := NewPlanFeature(planID, featureKey, enabled, description)
	pf.Limit = &limit
	return pf
}

// SetLimit sets the limit for this feature
func (pf *PlanFeature) SetLimit(limit int) {
	pf.Limit = &limit
	pf.UpdatedAt = time.Now()
}

// ClearLimit removes the limit for this feature (makes it unlimited)
func (pf *PlanFeature) ClearLimit() {
	pf.Limit = nil
	pf.UpdatedAt = time.Now()
}

// Enable enables this feature
func (pf *PlanFeature) Enable() {
	pf.Enabled = true
	pf.UpdatedAt = time.Now()
}

// Disable disables this feature
func (pf *PlanFeature) Disable() {
	pf.Enabled = false
	pf.UpdatedAt = time.Now()
}

// IsUnlimited returns true if the feature has no limit
func (pf *PlanFeature) IsUnlimited() bool {
	return pf.Limit == nil
}

// GetLimit returns the limit value, or -1 if unlimited
func (pf *PlanFeature) GetLimit() int {
	if pf.Limit == nil {
		return -1
	}
	return *pf.Limit
}

// DefaultPlanFeatures returns the default feature set for a given plan
// This defines which features are available for each subscription tier
func DefaultPlanFeatures(plan TenantPlan) []PlanFeature {
	switch plan {
	case TenantPlanBasic:
		return defaultBasicPlanFeatures()
	case TenantPlanStandard:
		return defaultStandardPlanFeatures()
	case TenantPlanPremium:
		return defaultPremiumPlanFeatures()
	default:
		return defaultBasicPlanFeatures()
	}
}

// defaultBasicPlanFeatures returns features for the basic plan
func defaultBasicPlanFeatures() []PlanFeature {
	plan := TenantPlanBasic
	features := []PlanFeature{
		// Billing - manual registration only, no automated engine
		*NewPlanFeature(plan, FeatureBillingEngine, false, "Automated monthly bill generation"),
		*NewPlanFeature(plan, FeatureLateFees, false, "Automatic late fee accrual"),
		*NewPlanFeature(plan, FeaturePaymentGateway, false, "Online payment gateway checkout"),

		// Finance - expense tracking only
		*NewPlanFeature(plan, FeatureFinancialReports, false, "Financial summary reports"),
		*NewPlanFeature(plan, FeatureExpenseTracking, true, "Expense tracking"),
		*NewPlanFeature(plan, FeatureReceiptAttachments, false, "Receipt document attachments"),

		// Platform
		*NewPlanFeature(plan, FeatureActivityLog, false, "Activity audit log"),
		*NewPlanFeatureWithLimit(plan, FeatureDataExport, true, 500, "Export data to CSV (500 rows/export)"),
		*NewPlanFeature(plan, FeatureNotifications, false, "Email notifications"),
		*NewPlanFeature(plan, FeaturePrioritySupport, false, "Priority support"),
		*NewPlanFeature(plan, FeatureDedicatedSupport, false, "Dedicated support manager"),
	}
	return features
}

// defaultStandardPlanFeatures returns features for the standard plan
func defaultStandardPlanFeatures() []PlanFeature {
	plan := TenantPlanStandard
	features := []PlanFeature{
		// Billing - automated engine with late fees
		*NewPlanFeature(plan, FeatureBillingEngine, true, "Automated monthly bill generation"),
		*NewPlanFeature(plan, FeatureLateFees, true, "Automatic late fee accrual"),
		*NewPlanFeature(plan, FeaturePaymentGateway, false, "Online payment gateway checkout"),

		// Finance
		*NewPlanFeature(plan, FeatureFinancialReports, true, "Financial summary reports"),
		*NewPlanFeature(plan, FeatureExpenseTracking, true, "Expense tracking"),
		*NewPlanFeature(plan, FeatureReceiptAttachments, true, "Receipt document attachments"),

		// Platform
		*NewPlanFeature(plan, FeatureActivityLog, true, "Activity audit log"),
		*NewPlanFeature(plan, FeatureDataExport, true, "Export data to CSV"),
		*NewPlanFeature(plan, FeatureNotifications, true, "Email notifications"),
		*NewPlanFeature(plan, FeaturePrioritySupport, false, "Priority support"),
		*NewPlanFeature(plan, FeatureDedicatedSupport, false, "Dedicated support manager"),
	}
	return features
}

// defaultPremiumPlanFeatures returns features for the premium plan
func defaultPremiumPlanFeatures() []PlanFeature {
	plan := TenantPlanPremium
	features := []PlanFeature{
		// Billing - everything
		*NewPlanFeature(plan, FeatureBillingEngine, true, "Automated monthly bill generation"),
		*NewPlanFeature(plan, FeatureLateFees, true, "Automatic late fee accrual"),
		*NewPlanFeature(plan, FeaturePaymentGateway, true, "Online payment gateway checkout"),

		// Finance
		*NewPlanFeature(plan, FeatureFinancialReports, true, "Financial summary reports"),
		*NewPlanFeature(plan, FeatureExpenseTracking, true, "Expense tracking"),
		*NewPlanFeature(plan, FeatureReceiptAttachments, true, "Receipt document attachments"),

		// Platform
		*NewPlanFeature(plan, FeatureActivityLog, true, "Activity audit log"),
		*NewPlanFeature(plan, FeatureDataExport, true, "Export data to CSV"),
		*NewPlanFeature(plan, FeatureNotifications, true, "Email notifications"),
		*NewPlanFeature(plan, FeaturePrioritySupport, true, "Priority support"),
		*NewPlanFeature(plan, FeatureDedicatedSupport, true, "Dedicated support manager"),
	}
	return features
}

// GetAllFeatureKeys returns all defined feature keys
func GetAllFeatureKeys() []FeatureKey {
	return []FeatureKey{
		FeatureBillingEngine,
		FeatureLateFees,
		FeaturePaymentGateway,
		FeatureFinancialReports,
		FeatureExpenseTracking,
		FeatureReceiptAttachments,
		FeatureActivityLog,
		FeatureDataExport,
		FeatureNotifications,
		FeaturePrioritySupport,
		FeatureDedicatedSupport,
	}
}

// IsValidFeatureKey checks if a feature key is valid
func IsValidFeatureKey(key FeatureKey) bool {
	for _, k := range GetAllFeatureKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// PlanHasFeature is a helper function to check if a plan has a specific feature enabled
// based on the default feature definitions
func PlanHasFeature(plan TenantPlan, featureKey FeatureKey) bool {
	features := DefaultPlanFeatures(plan)
	for _, f := range features {
		if f.FeatureKey == featureKey {
			return f.Enabled
		}
	}
	return false
}

// GetPlanFeatureLimit returns the limit for a feature in a plan based on default definitions
// Returns nil if the feature is unlimited or not found
func GetPlanFeatureLimit(plan TenantPlan, featureKey FeatureKey) *int {
	features := DefaultPlanFeatures(plan)
	for _, f := range features {
		if f.FeatureKey == featureKey {
			return f.Limit
		}
	}
	return nil
}
