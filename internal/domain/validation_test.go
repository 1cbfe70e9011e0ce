package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateCurrency(t *testing.T) {
	for _, code := range []string{"USD", "usd", "BRL", "JPY", "BHD"} {
		if err := ValidateCurrency(code); err != nil {
			t.Errorf("%s: unexpected error: %v", code, err)
		}
	}

	for _, code := range []string{"XYZ", "", "US", "DOGE"} {
		if err := ValidateCurrency(code); !errors.Is(err, ErrInvalidCurrency) {
			t.Errorf("%s: expected ErrInvalidCurrency, got %v", code, err)
		}
	}
}

func TestMinorUnits(t *testing.T) {
	tests := map[string]int32{
		"USD": 2,
		"brl": 2,
		"JPY": 0,
		"KRW": 0,
		"BHD": 3,
	}

	for code, want := range tests {
		if got := MinorUnits(code); got != want {
			t.Errorf("%s: expected %d, got %d", code, want, got)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(decimal.RequireFromString("0.01")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if err := ValidateAmount(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative, got %v", err)
	}

	max := decimal.RequireFromString(MaxTransactionAmount)
	if err := ValidateAmount(max); err != nil {
		t.Errorf("maximum amount must be accepted, got %v", err)
	}
	if err := ValidateAmount(max.Add(decimal.NewFromInt(1))); !errors.Is(err, ErrAmountTooLarge) {
		t.Errorf("expected ErrAmountTooLarge above maximum, got %v", err)
	}
}

func TestValidateMetadata(t *testing.T) {
	if err := ValidateMetadata(nil); err != nil {
		t.Errorf("nil metadata must be accepted, got %v", err)
	}

	if err := ValidateMetadata(map[string]string{"invoice": "inv-123"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	oversized := map[string]string{"blob": strings.Repeat("x", MaxMetadataValueSize+1)}
	if err := ValidateMetadata(oversized); !errors.Is(err, ErrMetadataTooLarge) {
		t.Errorf("expected ErrMetadataTooLarge for big value, got %v", err)
	}

	crowded := make(map[string]string, MaxMetadataEntries+1)
	for i := 0; i <= MaxMetadataEntries; i++ {
		crowded[strings.Repeat("k", i+1)] = "v"
	}
	if err := ValidateMetadata(crowded); !errors.Is(err, ErrMetadataTooLarge) {
		t.Errorf("expected ErrMetadataTooLarge for too many entries, got %v", err)
	}
}

func TestIsValidationError(t *testing.T) {
	for _, err := range []error{
		ErrInsufficientFunds,
		ErrFraudDetected,
		ErrTransactionLimitExceeded,
		ErrSameAccount,
		ErrInvalidTransactionType,
		ErrInvalidCurrency,
		ErrAmountTooLarge,
		ErrMetadataTooLarge,
	} {
		if !IsValidationError(err) {
			t.Errorf("%v must be a validation error", err)
		}
	}

	for _, err := range []error{
		ErrRateUnavailable,
		ErrLockTimeout,
		ErrPersistenceFailure,
	} {
		if IsValidationError(err) {
			t.Errorf("%v must not be a validation error", err)
		}
	}
}
