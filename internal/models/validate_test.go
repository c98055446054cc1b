package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidateTransaction(t *testing.T) {
	valid := func() *Transaction {
		return &Transaction{
			Name:            "Coffee",
			Amount:          decimal.RequireFromString("4.50"),
			Kind:            TransactionKindExpense,
			TransactionDate: time.Now().UTC(),
		}
	}

	t.Run("valid", func(t *testing.T) {
		if err := Validate(valid()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		tx := valid()
		tx.Name = ""
		if err := Validate(tx); err == nil {
			t.Error("expected a validation error")
		}
	})

	t.Run("unknown_kind", func(t *testing.T) {
		tx := valid()
		tx.Kind = "gift"
		if err := Validate(tx); err == nil {
			t.Error("expected a validation error")
		}
	})

	t.Run("income_kind", func(t *testing.T) {
		tx := valid()
		tx.Kind = TransactionKindIncome
		if err := Validate(tx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestValidateCategoryColor(t *testing.T) {
	cases := []struct {
		name  string
		color string
		valid bool
	}{
		{"six_digit", "#9E9E9E", true},
		{"three_digit", "#FA0", true},
		{"empty_is_allowed", "", true},
		{"missing_hash", "9E9E9E", false},
		{"bad_length", "#9E9E", false},
		{"bad_characters", "#GGGGGG", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat := &Category{Name: "Test", ColorHex: tc.color}
			err := Validate(cat)
			if tc.valid && err != nil {
				t.Errorf("expected %q to validate: %v", tc.color, err)
			}
			if !tc.valid && err == nil {
				t.Errorf("expected %q to be rejected", tc.color)
			}
		})
	}
}
