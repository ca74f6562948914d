package entity

import "strings"

const (
	PlanBasic   = "Basic"
	PlanPremium = "Premium"
)

// Plan is an entry of the subscription catalog. Amount is in the currency's minor unit.
type Plan struct {
	Name     string
	Amount   int64
	Currency string
	Paid     bool
}

var plans = map[string]Plan{
	"basic":   {Name: PlanBasic},
	"premium": {Name: PlanPremium, Amount: 99900, Currency: "INR", Paid: true},
}

// LookupPlan resolves a plan name case-insensitively to its canonical catalog entry.
func LookupPlan(name string) (Plan, bool) {
	p, ok := plans[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// LookupPaidPlan is LookupPlan restricted to plans that can be purchased.
func LookupPaidPlan(name string) (Plan, bool) {
	p, ok := LookupPlan(name)
	if !ok || !p.Paid {
		return Plan{}, false
	}
	return p, true
}
