package models

import "github.com/shopspring/decimal"

// Allocation assigns part of a budget's amount to a category. It holds a
// weak many-to-one reference to exactly one budget and one category by
// identifier. No foreign key is enforced at the store layer and deleting
// a budget does not cascade to its allocations; whether it should is an
// unresolved product decision (see DESIGN.md).
type Allocation struct {
	SyncEnvelope
	BudgetID   string          `gorm:"type:uuid;not null" json:"budget_id" validate:"required"`
	CategoryID string          `gorm:"type:uuid;not null" json:"category_id" validate:"required"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
}

// EntityKind returns the sync kind for allocations.
func (Allocation) EntityKind() Kind { return KindAllocation }

// TableName returns the table name for Allocation.
func (Allocation) TableName() string { return "allocations" }
