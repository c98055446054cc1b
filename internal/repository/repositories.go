package repository

import (
	"github.com/domain80/centabit-core/internal/database"
	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/store"
)

// defaultCategoryColor is applied when a category is created without a
// colour. Carried over from the product's existing palette behaviour;
// kept as a known limitation rather than redesigned (see DESIGN.md).
const defaultCategoryColor = "#9E9E9E"

// Per-entity repository aliases. The four repositories share one shape;
// only the entity type differs.
type (
	TransactionRepository = Repository[models.Transaction, *models.Transaction]
	CategoryRepository    = Repository[models.Category, *models.Category]
	BudgetRepository      = Repository[models.Budget, *models.Budget]
	AllocationRepository  = Repository[models.Allocation, *models.Allocation]
)

// NewTransactionRepository creates a transaction repository bound to the given owner.
func NewTransactionRepository(m *database.Manager, ownerID string) *TransactionRepository {
	return newRepository(store.NewTransactionStore(m, ownerID), nil)
}

// NewCategoryRepository creates a category repository bound to the given owner.
func NewCategoryRepository(m *database.Manager, ownerID string) *CategoryRepository {
	return newRepository(store.NewCategoryStore(m, ownerID), func(c *models.Category) {
		if c.ColorHex == "" {
			c.ColorHex = defaultCategoryColor
		}
	})
}

// NewBudgetRepository creates a budget repository bound to the given owner.
func NewBudgetRepository(m *database.Manager, ownerID string) *BudgetRepository {
	return newRepository(store.NewBudgetStore(m, ownerID), nil)
}

// NewAllocationRepository creates an allocation repository bound to the given owner.
func NewAllocationRepository(m *database.Manager, ownerID string) *AllocationRepository {
	return newRepository(store.NewAllocationStore(m, ownerID), nil)
}
