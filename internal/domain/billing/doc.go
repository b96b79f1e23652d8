// Package billing provides domain models for recurring fee billing in a multi-tenant
// property administration platform.
//
// This package implements the billing bounded context, which is responsible for:
//   - Defining the recurring and one-off fees a complex charges its units
//   - Generating monthly invoices per property from the active fee definitions
//   - Tracking invoice lifecycle (pending, partial, paid, overdue, cancelled)
//   - Assessing late fees on overdue invoices
//
// Key Aggregates:
//   - FeeDefinition: A named charge with a base amount and fee type
//   - Invoice: The bill for one property and one period, composed of BillItems
//
// Value Objects:
//   - Period: A billing period in YYYY-MM form
//   - BillItem: A single line on an invoice, traceable to its fee definition
//
// The billing domain integrates with:
//   - Property domain: Invoices are generated for registered, active units
//   - Payment domain: Payments settle invoices and drive status transitions
//   - Identity domain: Plan features gate billing operations per tenant
package billing
