package models

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks the validate tags on a model before it is written to
// the store. Returns the raw validator error; callers wrap it into an
// application error.
func Validate(v any) error {
	return validatorInstance().Struct(v)
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("hex_color", validateHexColor)
		_ = validate.RegisterValidation("transaction_kind", validateTransactionKind)
	})
	return validate
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}
