package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget represents a spending budget over a date range
type Budget struct {
	SyncEnvelope
	Name      string          `gorm:"not null" json:"name" validate:"required"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	StartDate time.Time       `gorm:"not null" json:"start_date"`
	EndDate   time.Time       `gorm:"not null" json:"end_date"`
}

// EntityKind returns the sync kind for budgets.
func (Budget) EntityKind() Kind { return KindBudget }

// TableName returns the table name for Budget.
func (Budget) TableName() string { return "budgets" }
