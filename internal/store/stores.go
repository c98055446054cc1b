package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/domain80/centabit-core/internal/database"
	"github.com/domain80/centabit-core/internal/models"
)

// Per-entity store aliases. The four accessors share one shape; only the
// entity type differs.
type (
	TransactionStore = Store[models.Transaction, *models.Transaction]
	CategoryStore    = Store[models.Category, *models.Category]
	BudgetStore      = Store[models.Budget, *models.Budget]
	AllocationStore  = Store[models.Allocation, *models.Allocation]
)

// NewTransactionStore creates a transaction accessor bound to the given owner.
func NewTransactionStore(m *database.Manager, ownerID string) *TransactionStore {
	return New[models.Transaction](m, ownerID)
}

// NewCategoryStore creates a category accessor bound to the given owner.
func NewCategoryStore(m *database.Manager, ownerID string) *CategoryStore {
	return New[models.Category](m, ownerID)
}

// NewBudgetStore creates a budget accessor bound to the given owner.
func NewBudgetStore(m *database.Manager, ownerID string) *BudgetStore {
	return New[models.Budget](m, ownerID)
}

// NewAllocationStore creates an allocation accessor bound to the given owner.
func NewAllocationStore(m *database.Manager, ownerID string) *AllocationStore {
	return New[models.Allocation](m, ownerID)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
