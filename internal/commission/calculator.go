package commission

import (
	"errors"
	"fmt"
	"math"
)

type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

// Estimated deal value bounds, in centimes (dhs x 100).
const (
	MinEstimatedValueCentimes int64 = 50 * 100
	MaxEstimatedValueCentimes int64 = 1_000_000 * 100
)

var (
	ErrValueOutOfRange = errors.New("estimated value out of range")
	ErrUnknownType     = errors.New("unknown commission type")
	ErrInvalidRule     = errors.New("invalid commission rule")
)

// Rule is the campaign-level commission configuration. InfluencerShare is the
// fraction of the total commission accrued to the influencer; it is campaign
// configuration, never a constant baked in here.
type Rule struct {
	Type                Type
	Rate                float64
	FixedAmountCentimes int64
	InfluencerShare     float64
}

type Breakdown struct {
	CommissionCentimes int64 `json:"commission_centimes"`
	InfluencerCentimes int64 `json:"influencer_centimes"`
	Type               Type  `json:"commission_type"`
}

// Compute derives the commission for an estimated deal value. Pure: safe to
// call any number of times for previews.
func Compute(rule Rule, estimatedValueCentimes int64) (Breakdown, error) {
	if estimatedValueCentimes < MinEstimatedValueCentimes || estimatedValueCentimes > MaxEstimatedValueCentimes {
		return Breakdown{}, fmt.Errorf("%w: got %d centimes, want %d..%d",
			ErrValueOutOfRange, estimatedValueCentimes, MinEstimatedValueCentimes, MaxEstimatedValueCentimes)
	}
	if rule.InfluencerShare < 0 || rule.InfluencerShare > 1 {
		return Breakdown{}, fmt.Errorf("%w: influencer share %v", ErrInvalidRule, rule.InfluencerShare)
	}

	var commission int64
	switch rule.Type {
	case TypePercentage:
		if rule.Rate < 0 || rule.Rate > 100 {
			return Breakdown{}, fmt.Errorf("%w: rate %v", ErrInvalidRule, rule.Rate)
		}
		commission = roundHalfUp(float64(estimatedValueCentimes) * rule.Rate / 100)
	case TypeFixed:
		if rule.FixedAmountCentimes <= 0 {
			return Breakdown{}, fmt.Errorf("%w: fixed amount %d", ErrInvalidRule, rule.FixedAmountCentimes)
		}
		commission = rule.FixedAmountCentimes
	default:
		return Breakdown{}, fmt.Errorf("%w: %q", ErrUnknownType, rule.Type)
	}

	return Breakdown{
		CommissionCentimes: commission,
		InfluencerCentimes: roundHalfUp(float64(commission) * rule.InfluencerShare),
		Type:               rule.Type,
	}, nil
}

func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
