package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind represents the direction of a transaction
type TransactionKind string

const (
	TransactionKindIncome  TransactionKind = "income"
	TransactionKindExpense TransactionKind = "expense"
)

// Transaction represents a financial transaction in the system.
// Category and budget references are advisory: they are validated by the
// caller at write time and carry no database foreign key.
type Transaction struct {
	SyncEnvelope
	Name            string          `gorm:"not null" json:"name" validate:"required"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Kind            TransactionKind `gorm:"not null" json:"kind" validate:"required,transaction_kind"`
	TransactionDate time.Time       `gorm:"not null" json:"transaction_date"`
	CategoryID      *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	BudgetID        *string         `gorm:"type:uuid" json:"budget_id,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// EntityKind returns the sync kind for transactions.
func (Transaction) EntityKind() Kind { return KindTransaction }

// TableName returns the table name for Transaction.
func (Transaction) TableName() string { return "transactions" }
