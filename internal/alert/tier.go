package alert

// Tier classifies how much of a deposit's initial amount is left.
type Tier string

const (
	TierHealthy   Tier = "HEALTHY"
	TierAttention Tier = "ATTENTION"
	TierWarning   Tier = "WARNING"
	TierCritical  Tier = "CRITICAL"
	TierDepleted  Tier = "DEPLETED"
)

// Classify maps a remaining-balance percentage to an alert tier. Recharges can
// push the balance above the initial amount, so inputs over 100 are healthy.
func Classify(percentage float64) Tier {
	switch {
	case percentage > 50:
		return TierHealthy
	case percentage > 20:
		return TierAttention
	case percentage > 10:
		return TierWarning
	case percentage > 0:
		return TierCritical
	default:
		return TierDepleted
	}
}

// Percentage computes the remaining share of the initial amount. A deposit
// created with a zero initial amount never happens, but guard anyway.
func Percentage(currentBalanceCentimes, initialAmountCentimes int64) float64 {
	if initialAmountCentimes <= 0 {
		return 0
	}
	return float64(currentBalanceCentimes) / float64(initialAmountCentimes) * 100
}
