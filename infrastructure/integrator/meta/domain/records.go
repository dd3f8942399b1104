package metadomain

import (
	"fmt"
	"time"

	"github.com/vfg2006/ads-sync/internal/domain"
)

const graphTimeLayout = "2006-01-02T15:04:05-0700"

type Campaign struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Status      string        `json:"status"`
	Objective   string        `json:"objective"`
	StartTime   string        `json:"start_time"`
	StopTime    string        `json:"stop_time"`
	UpdatedTime string        `json:"updated_time"`
	Insights    *InsightsEdge `json:"insights"`
}

// CampaignRef is the campaign{id,name} expansion nested in ads
type CampaignRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AdSet struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	CampaignID  string            `json:"campaign_id"`
	DailyBudget string            `json:"daily_budget"`
	Targeting   domain.OpaqueJSON `json:"targeting"`
	UpdatedTime string            `json:"updated_time"`
}

type Ad struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Status          string        `json:"status"`
	EffectiveStatus string        `json:"effective_status"`
	AdSetID         string        `json:"adset_id"`
	AdSet           *AdSet        `json:"adset"`
	Campaign        *CampaignRef  `json:"campaign"`
	UpdatedTime     string        `json:"updated_time"`
	Insights        *InsightsEdge `json:"insights"`
}

// ToDomain converts the record; adAccountID is the internal account id
func (c Campaign) ToDomain(adAccountID string) (*domain.Campaign, error) {
	if c.ID == "" {
		return nil, fmt.Errorf("campaign id: %w", ErrMissingField)
	}

	start, err := parseGraphTime(c.StartTime)
	if err != nil {
		return nil, fmt.Errorf("campaign %s start_time: %w", c.ID, err)
	}

	stop, err := parseGraphTime(c.StopTime)
	if err != nil {
		return nil, fmt.Errorf("campaign %s stop_time: %w", c.ID, err)
	}

	campaign := &domain.Campaign{
		ExternalID: c.ID,
		Name:       c.Name,
		Status:     defaultString(c.Status, domain.StatusPaused),
		Objective:  c.Objective,
		StartDate:  start,
		EndDate:    stop,
	}
	if adAccountID != "" {
		campaign.AdAccountID = &adAccountID
	}

	// Graph omits the insights edge when the campaign never delivered
	campaign.Metrics = &domain.Metrics{}
	if insight := c.Insights.first(); insight != nil {
		campaign.Metrics, err = insight.Metrics()
		if err != nil {
			return nil, fmt.Errorf("campaign %s insights: %w", c.ID, err)
		}
	}

	return campaign, nil
}

// ToDomain converts the record. The campaign id is resolved by the caller.
func (s AdSet) ToDomain() (*domain.AdSet, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("ad set id: %w", ErrMissingField)
	}

	return &domain.AdSet{
		ExternalID:  s.ID,
		Name:        s.Name,
		Status:      defaultString(s.Status, domain.StatusActive),
		DailyBudget: domain.BudgetFromMinorUnits(s.DailyBudget),
		Targeting:   s.Targeting,
	}, nil
}

// ParentAdSetID returns the ad set id from the flat field or the expansion
func (a Ad) ParentAdSetID() string {
	if a.AdSet != nil && a.AdSet.ID != "" {
		return a.AdSet.ID
	}
	return a.AdSetID
}

// ToDomain converts the record. The ad set id is resolved by the caller.
// Totals are only set when the insights edge was requested and returned.
func (a Ad) ToDomain() (*domain.Ad, error) {
	if a.ID == "" {
		return nil, fmt.Errorf("ad id: %w", ErrMissingField)
	}

	ad := &domain.Ad{
		ExternalID:     a.ID,
		Name:           a.Name,
		Status:         defaultString(a.Status, domain.StatusPaused),
		DeliveryStatus: defaultString(a.EffectiveStatus, "UNKNOWN"),
	}

	if insight := a.Insights.first(); insight != nil {
		m, err := insight.Metrics()
		if err != nil {
			return nil, fmt.Errorf("ad %s insights: %w", a.ID, err)
		}
		ad.Metrics = m
	} else if a.Insights != nil {
		ad.Metrics = &domain.Metrics{}
	}

	return ad, nil
}

func parseGraphTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(graphTimeLayout, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, err
		}
	}

	return &t, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
