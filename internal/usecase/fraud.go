package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
)

// FraudConfig holds the tunable rule weights and thresholds. Defaults
// mirror production calibration but nothing outside the engine depends on
// the exact values.
type FraudConfig struct {
	SuspiciousScore   int
	VelocityWindow    time.Duration
	VelocityCount     int64
	VelocityWeight    int
	CriticalAmount    decimal.Decimal
	HighAmountWeight  int
	NightStartHour    int
	NightEndHour      int
	UnusualTimeWeight int
	NewAccountAge     time.Duration
	NewAccountWeight  int
	PatternMultiplier decimal.Decimal
	PatternWeight     int
	GeoWeight         int
}

// DefaultFraudConfig returns the default rule calibration.
func DefaultFraudConfig() FraudConfig {
	return FraudConfig{
		SuspiciousScore:   50,
		VelocityWindow:    5 * time.Minute,
		VelocityCount:     10,
		VelocityWeight:    30,
		CriticalAmount:    decimal.NewFromInt(10000),
		HighAmountWeight:  25,
		NightStartHour:    23,
		NightEndHour:      5,
		UnusualTimeWeight: 15,
		NewAccountAge:     7 * 24 * time.Hour,
		NewAccountWeight:  20,
		PatternMultiplier: decimal.NewFromInt(10),
		PatternWeight:     25,
		GeoWeight:         35,
	}
}

// FraudEngine scores prospective transactions. Rules are additive and
// independent: every applicable rule contributes regardless of order, and
// the total is capped at 100.
type FraudEngine struct {
	cfg    FraudConfig
	txRepo TransactionRepository
}

// NewFraudEngine creates a new FraudEngine.
func NewFraudEngine(cfg FraudConfig, txRepo TransactionRepository) *FraudEngine {
	return &FraudEngine{cfg: cfg, txRepo: txRepo}
}

// Assess scores a prospective transaction against the account's recent
// history. It reads the transaction log but performs no other I/O and
// never mutates state.
func (f *FraudEngine) Assess(
	ctx context.Context,
	account *domain.Account,
	txType domain.TransactionType,
	amount decimal.Decimal,
	txCtx domain.TransactionContext,
) (*domain.FraudAssessment, error) {
	now := txCtx.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	assessment := &domain.FraudAssessment{AssessedAt: now}

	recent, err := f.txRepo.CountByAccountSince(ctx, account.ID, now.Add(-f.cfg.VelocityWindow))
	if err != nil {
		return nil, err
	}
	if recent >= f.cfg.VelocityCount {
		f.addFactor(assessment, domain.RiskFactorVelocity, f.cfg.VelocityWeight)
	}

	if amount.GreaterThanOrEqual(f.cfg.CriticalAmount) {
		f.addFactor(assessment, domain.RiskFactorHighAmount, f.cfg.HighAmountWeight)
	}

	if f.isNightHour(now.Hour()) {
		f.addFactor(assessment, domain.RiskFactorUnusualTime, f.cfg.UnusualTimeWeight)
	}

	if now.Sub(account.CreatedAt) < f.cfg.NewAccountAge {
		f.addFactor(assessment, domain.RiskFactorNewAccount, f.cfg.NewAccountWeight)
	}

	average, err := f.txRepo.AverageCompletedAmount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if average.IsPositive() && amount.GreaterThan(average.Mul(f.cfg.PatternMultiplier)) {
		f.addFactor(assessment, domain.RiskFactorPatternAnomaly, f.cfg.PatternWeight)
	}

	if txCtx.Country != "" && usualCountry(account) != "" && txCtx.Country != usualCountry(account) {
		f.addFactor(assessment, domain.RiskFactorGeoAnomaly, f.cfg.GeoWeight)
	}

	if assessment.RiskScore > 100 {
		assessment.RiskScore = 100
	}
	assessment.IsSuspicious = assessment.RiskScore >= f.cfg.SuspiciousScore

	return assessment, nil
}

func (f *FraudEngine) addFactor(a *domain.FraudAssessment, name string, weight int) {
	a.RiskScore += weight
	a.RiskFactors = append(a.RiskFactors, name)
}

func (f *FraudEngine) isNightHour(hour int) bool {
	if f.cfg.NightStartHour > f.cfg.NightEndHour {
		// Window wraps midnight, e.g. 23..5.
		return hour >= f.cfg.NightStartHour || hour < f.cfg.NightEndHour
	}
	return hour >= f.cfg.NightStartHour && hour < f.cfg.NightEndHour
}

// usualCountry is the account's established country. Derived from the
// currency's home market until per-account geo profiles are persisted.
func usualCountry(account *domain.Account) string {
	switch account.Currency {
	case "BRL":
		return "BR"
	case "USD":
		return "US"
	case "EUR":
		return "DE"
	case "GBP":
		return "GB"
	case "JPY":
		return "JP"
	case "KES":
		return "KE"
	case "NGN":
		return "NG"
	default:
		return ""
	}
}
