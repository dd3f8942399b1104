package domain

import "time"

type Campaign struct {
	ID          string     `json:"id"`
	ExternalID  string     `json:"campaign_id"`
	AdAccountID *string    `json:"ad_account_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Objective   string     `json:"objective"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Metrics     *Metrics   `json:"metrics,omitempty"`
}

// Metrics are lifetime totals reported alongside an entity. Nil means the
// fetch did not include insights and stored totals must be left alone.
type Metrics struct {
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Leads       int64   `json:"leads"`
	Purchases   int64   `json:"purchases"`
	Revenue     float64 `json:"revenue"`
	ROAS        float64 `json:"roas"`
}
