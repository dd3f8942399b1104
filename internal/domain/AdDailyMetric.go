package domain

import "time"

// AdDailyMetric is one (ad, date) row. AdExternalID is the Graph ad id.
type AdDailyMetric struct {
	AdExternalID string    `json:"ad_id"`
	Date         time.Time `json:"date"`
	Spend        float64   `json:"spend"`
	Impressions  int64     `json:"impressions"`
	Clicks       int64     `json:"clicks"`
	Leads        int64     `json:"leads"`
	Purchases    int64     `json:"purchases"`
	Revenue      *float64  `json:"revenue"`
	ROAS         *float64  `json:"roas"`
}

// AdAggregates are the rollups stored on the ad row
type AdAggregates struct {
	Spend       float64
	Impressions int64
	Clicks      int64
	Revenue     float64
	ROAS        float64
}

// ComputeROAS divides revenue by spend, returning zero when spend is zero
func ComputeROAS(revenue, spend float64) float64 {
	if spend == 0 {
		return 0
	}
	return revenue / spend
}
