package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrMetadataTooLarge = errors.New("metadata size exceeds limit")
)

const (
	MaxMetadataEntries   = 32
	MaxMetadataValueSize = 1024
	MaxTransactionAmount = "1000000000" // 1 billion
)

// currencyMinorUnits maps ISO 4217 codes to minor-unit precision.
// Codes not listed here are not accepted.
var currencyMinorUnits = map[string]int32{
	"USD": 2, "EUR": 2, "GBP": 2, "BRL": 2,
	"CAD": 2, "AUD": 2, "CHF": 2, "CNY": 2,
	"INR": 2, "MXN": 2, "SGD": 2, "ZAR": 2,
	"KES": 2, "NGN": 2, "HKD": 2, "SEK": 2,
	"JPY": 0, "KRW": 0,
	"BHD": 3, "KWD": 3,
}

// ValidateCurrency checks the code is a supported ISO 4217 currency.
func ValidateCurrency(currency string) error {
	if _, ok := currencyMinorUnits[strings.ToUpper(currency)]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidCurrency, currency)
	}
	return nil
}

// MinorUnits returns the decimal precision of a currency.
func MinorUnits(currency string) int32 {
	if units, ok := currencyMinorUnits[strings.ToUpper(currency)]; ok {
		return units
	}
	return 2
}

// ValidateAmount checks a transaction amount is positive and bounded.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransactionAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransactionAmount)
	}

	return nil
}

// ValidateMetadata bounds the metadata map so it cannot drift into an
// unbounded document store.
func ValidateMetadata(metadata map[string]string) error {
	if metadata == nil {
		return nil
	}

	if len(metadata) > MaxMetadataEntries {
		return fmt.Errorf("%w: at most %d entries", ErrMetadataTooLarge, MaxMetadataEntries)
	}

	for k, v := range metadata {
		if len(k)+len(v) > MaxMetadataValueSize {
			return fmt.Errorf("%w: entry %q exceeds %d bytes", ErrMetadataTooLarge, k, MaxMetadataValueSize)
		}
	}

	return nil
}
