package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
)

// Converter resolves exchange rates and computes converted amounts.
type Converter struct {
	rates RateProvider
}

// NewConverter creates a new Converter.
func NewConverter(rates RateProvider) *Converter {
	return &Converter{rates: rates}
}

// GetRate resolves the exchange rate between two currencies. Equal
// currencies resolve to 1 without touching the provider. When the provider
// cannot answer, the error surfaces as ErrRateUnavailable; callers must
// not guess a rate.
func (c *Converter) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if err := domain.ValidateCurrency(from); err != nil {
		return decimal.Zero, err
	}
	if err := domain.ValidateCurrency(to); err != nil {
		return decimal.Zero, err
	}

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	return c.rates.Rate(ctx, from, to)
}

// Convert computes the amount in the target currency, rounded half-up to
// the currency's minor-unit precision. A non-nil rate overrides lookup,
// used for contractually locked-in rates.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string, rate *decimal.Decimal) (decimal.Decimal, error) {
	var r decimal.Decimal

	if rate != nil {
		r = *rate
	} else {
		var err error
		r, err = c.GetRate(ctx, from, to)
		if err != nil {
			return decimal.Zero, err
		}
	}

	// decimal.Round rounds half away from zero; amounts are positive, so
	// this is round-half-up at the currency's precision.
	return amount.Mul(r).Round(domain.MinorUnits(to)), nil
}
