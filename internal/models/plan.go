package models

// LimitCategory names a gated resource category on a plan.
type LimitCategory string

const (
	LimitProperties LimitCategory = "properties"
	LimitUnits      LimitCategory = "units"
	LimitTenants    LimitCategory = "tenants"
	LimitWorkers    LimitCategory = "workers"
	LimitSMS        LimitCategory = "sms"
)

// ValidLimitCategory reports whether s names a gated category.
func ValidLimitCategory(s string) bool {
	switch LimitCategory(s) {
	case LimitProperties, LimitUnits, LimitTenants, LimitWorkers, LimitSMS:
		return true
	}
	return false
}

// Plan describes a subscription tier. A nil limit means unlimited.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Properties  *int   `json:"properties"`
	Units       *int   `json:"units"`
	Tenants     *int   `json:"tenants"`
	Workers     *int   `json:"workers"`
	SMSPerMonth *int   `json:"sms_per_month"`
	AmountCents int    `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// Limit returns the plan's limit for a category, nil for unlimited.
func (p *Plan) Limit(category LimitCategory) *int {
	switch category {
	case LimitProperties:
		return p.Properties
	case LimitUnits:
		return p.Units
	case LimitTenants:
		return p.Tenants
	case LimitWorkers:
		return p.Workers
	case LimitSMS:
		return p.SMSPerMonth
	}
	return nil
}
