package domain

import "github.com/shopspring/decimal"

type AdSet struct {
	ID          string          `json:"id"`
	ExternalID  string          `json:"ad_set_id"`
	CampaignID  string          `json:"campaign_id"`
	Name        string          `json:"name"`
	Status      string          `json:"status"`
	DailyBudget decimal.Decimal `json:"daily_budget"`
	Targeting   OpaqueJSON      `json:"targeting"`
}

// BudgetFromMinorUnits converts a Graph budget (cents as a string) into
// major units. Missing or unparsable values are treated as zero.
func BudgetFromMinorUnits(minor string) decimal.Decimal {
	if minor == "" {
		return decimal.Zero
	}

	v, err := decimal.NewFromString(minor)
	if err != nil {
		return decimal.Zero
	}

	return v.Div(decimal.NewFromInt(100))
}
