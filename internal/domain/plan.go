package domain

// Plan represents a subscription plan tier
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// planRank defines the total order free < pro < premium
var planRank = map[Plan]int{
	PlanFree:    0,
	PlanPro:     1,
	PlanPremium: 2,
}

// IsValid returns true if the plan is a known plan
func (p Plan) IsValid() bool {
	_, exists := planRank[p]
	return exists
}

// AtLeast returns true if the plan is equal to or above the minimum plan
func (p Plan) AtLeast(minimum Plan) bool {
	rank, ok := planRank[p]
	minRank, minOK := planRank[minimum]
	if !ok || !minOK {
		return false
	}
	return rank >= minRank
}

// CreditAllowance returns the monthly AI credit allowance for the plan
func (p Plan) CreditAllowance() int {
	switch p {
	case PlanPro:
		return 50
	case PlanPremium:
		return 200
	default:
		return 5
	}
}

// PlatformFeeRate returns the platform's cut of gross event revenue for
// organizers on this plan, as a fraction
func (p Plan) PlatformFeeRate() float64 {
	switch p {
	case PlanPro:
		return 0.05
	case PlanPremium:
		return 0.03
	default:
		return 0.08
	}
}
