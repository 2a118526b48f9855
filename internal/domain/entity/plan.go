package entity

// Plan is a subscription tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

var planFeatures = map[Plan][]string{
	PlanFree: {
		"5GB storage",
		"Basic support",
		"1 project",
	},
	PlanPro: {
		"50GB storage",
		"Priority support",
		"Unlimited projects",
		"API access",
		"Custom domains",
	},
	PlanEnterprise: {
		"Unlimited storage",
		"24/7 support",
		"Unlimited projects",
		"API access",
		"Custom domains",
		"SSO",
		"SLA",
	},
}

var familyCapacity = map[Plan]int{
	PlanPro:        5,
	PlanEnterprise: 10,
}

// ParsePlan returns the plan named s and whether it is a known tier.
func ParsePlan(s string) (Plan, bool) {
	p := Plan(s)
	_, ok := planFeatures[p]
	return p, ok
}

// IsPaid reports whether the plan is a paid tier.
func (p Plan) IsPaid() bool {
	return p == PlanPro || p == PlanEnterprise
}

// Features returns the capabilities granted by the plan. Unknown tiers get
// the free set. The returned slice is a copy.
func (p Plan) Features() []string {
	features, ok := planFeatures[p]
	if !ok {
		features = planFeatures[PlanFree]
	}
	out := make([]string, len(features))
	copy(out, features)
	return out
}

// FamilyCapacity returns the maximum number of members a family plan on
// this tier may hold, or 0 when the tier cannot own a family plan.
func (p Plan) FamilyCapacity() int {
	return familyCapacity[p]
}

func (p Plan) String() string {
	return string(p)
}
