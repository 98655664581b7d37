// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"kyatflow/internal/models"
)

// phoneRegex accepts local and international numbers with common separators.
var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 \-]{4,19}$`)

var codeRegex = regexp.MustCompile(`^[A-Za-z0-9]{4,32}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn installs the custom tags and the decimal type func on v.
func RegisterOn(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("party_type", validatePartyType)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("subscription_status", validateSubscriptionStatus)
	_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("redemption_code", validateRedemptionCode)
}

// decimalValue exposes decimals to numeric tags such as gt=0. The zero
// value is reported as nil so "required" rejects a missing amount.
func decimalValue(field reflect.Value) interface{} {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	if d.IsZero() {
		return nil
	}
	f, _ := d.Float64()
	return f
}

func validatePartyType(fl validator.FieldLevel) bool {
	return models.PartyType(fl.Field().String()).Valid()
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).Valid()
}

func validateSubscriptionStatus(fl validator.FieldLevel) bool {
	return models.SubscriptionStatus(fl.Field().String()).Valid()
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	return models.BudgetPeriod(fl.Field().String()).Valid()
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func validateRedemptionCode(fl validator.FieldLevel) bool {
	return codeRegex.MatchString(fl.Field().String())
}
