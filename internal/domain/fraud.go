package domain

import "time"

// Risk factor names reported by the fraud engine.
const (
	RiskFactorVelocity       = "velocity"
	RiskFactorHighAmount     = "high_amount"
	RiskFactorUnusualTime    = "unusual_time"
	RiskFactorNewAccount     = "new_account"
	RiskFactorPatternAnomaly = "pattern_anomaly"
	RiskFactorGeoAnomaly     = "geographic_anomaly"
)

// FraudAssessment is the per-attempt scoring result. It is consumed
// immediately by the processor and never mutates account state.
type FraudAssessment struct {
	RiskScore    int
	RiskFactors  []string
	IsSuspicious bool
	AssessedAt   time.Time
}

// TransactionContext carries request-scoped signals for fraud scoring.
type TransactionContext struct {
	Country string
	Now     time.Time
}
