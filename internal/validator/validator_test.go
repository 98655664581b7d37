package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type transactionRequest struct {
	Amount decimal.Decimal `validate:"required,gt=0"`
	Type   string          `validate:"required,transaction_type"`
}

type partyRequest struct {
	Name  string  `validate:"required"`
	Type  string  `validate:"required,party_type"`
	Phone *string `validate:"omitempty,phone"`
}

type statusRequest struct {
	Status string `validate:"required,subscription_status"`
	Period string `validate:"omitempty,budget_period"`
	Code   string `validate:"omitempty,redemption_code"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func TestDecimalAmount(t *testing.T) {
	v := newValidate()

	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"positive", "12.50", false},
		{"smallest_unit", "0.01", false},
		{"zero", "0", true},
		{"negative", "-5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := transactionRequest{Amount: decimal.RequireFromString(tt.amount), Type: "income"}
			err := v.Struct(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnumTags(t *testing.T) {
	v := newValidate()

	if err := v.Struct(transactionRequest{Amount: decimal.NewFromInt(1), Type: "transfer"}); err == nil {
		t.Error("expected transfer to be rejected as a transaction type")
	}
	if err := v.Struct(partyRequest{Name: "Ko Aung", Type: "customer"}); err != nil {
		t.Errorf("customer should be valid: %v", err)
	}
	if err := v.Struct(partyRequest{Name: "Ko Aung", Type: "vendor"}); err == nil {
		t.Error("expected vendor to be rejected as a party type")
	}

	for _, status := range []string{"free", "trial", "pro", "expired"} {
		if err := v.Struct(statusRequest{Status: status}); err != nil {
			t.Errorf("status %q should be valid: %v", status, err)
		}
	}
	if err := v.Struct(statusRequest{Status: "premium"}); err == nil {
		t.Error("expected premium to be rejected")
	}
	if err := v.Struct(statusRequest{Status: "pro", Period: "weekly"}); err == nil {
		t.Error("expected weekly to be rejected as a budget period")
	}
}

func TestPhoneAndCode(t *testing.T) {
	v := newValidate()

	valid := []string{"+95 9 123 456 789", "09-123456789", "0912345"}
	for _, p := range valid {
		phone := p
		if err := v.Struct(partyRequest{Name: "x", Type: "supplier", Phone: &phone}); err != nil {
			t.Errorf("phone %q should be valid: %v", p, err)
		}
	}

	bad := "call me"
	if err := v.Struct(partyRequest{Name: "x", Type: "supplier", Phone: &bad}); err == nil {
		t.Error("expected non-numeric phone to be rejected")
	}

	if err := v.Struct(statusRequest{Status: "pro", Code: "AB12CD34"}); err != nil {
		t.Errorf("code should be valid: %v", err)
	}
	if err := v.Struct(statusRequest{Status: "pro", Code: "AB 12"}); err == nil {
		t.Error("expected code with a space to be rejected")
	}
}
