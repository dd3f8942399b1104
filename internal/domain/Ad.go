package domain

import "time"

type Ad struct {
	ID             string   `json:"id"`
	ExternalID     string   `json:"ad_id"`
	AdSetID        string   `json:"ad_set_id"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	DeliveryStatus string   `json:"delivery_status"`
	Metrics        *Metrics `json:"metrics,omitempty"`
}

// IsFullyActive reports whether both the configured and effective status are ACTIVE
func (a Ad) IsFullyActive() bool {
	return a.Status == StatusActive && a.DeliveryStatus == StatusActive
}

type AdLiveStatus struct {
	AdID               string     `json:"ad_id"`
	IsRunningNow       bool       `json:"is_running_now"`
	LastImpressionTime *time.Time `json:"last_impression_time"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
