package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/store"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestTransaction creates an expense transaction through the given store.
func CreateTestTransaction(t *testing.T, st *store.TransactionStore, amount string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Name:            fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:          decimal.RequireFromString(amount),
		Kind:            models.TransactionKindExpense,
		TransactionDate: time.Now().UTC(),
	}
	if err := st.Create(tx); err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestCategory creates a category through the given store.
func CreateTestCategory(t *testing.T, st *store.CategoryStore) *models.Category {
	t.Helper()

	cat := &models.Category{
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		IconName: "wallet",
		ColorHex: "#FF0000",
	}
	if err := st.Create(cat); err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return cat
}

// CreateTestBudget creates a month-long budget through the given store.
func CreateTestBudget(t *testing.T, st *store.BudgetStore) *models.Budget {
	t.Helper()

	start := time.Now().UTC().Truncate(24 * time.Hour)
	budget := &models.Budget{
		Name:      fmt.Sprintf("Test Budget %d", nextID()),
		Amount:    decimal.RequireFromString("500.00"),
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
	}
	if err := st.Create(budget); err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestAllocation creates an allocation referencing the given budget
// and category through the given store.
func CreateTestAllocation(t *testing.T, st *store.AllocationStore, budgetID, categoryID string) *models.Allocation {
	t.Helper()

	alloc := &models.Allocation{
		BudgetID:   budgetID,
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString("100.00"),
	}
	if err := st.Create(alloc); err != nil {
		t.Fatalf("failed to create test allocation: %v", err)
	}
	return alloc
}
