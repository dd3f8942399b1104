package metadomain

import (
	"errors"
	"fmt"

	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/utils"
)

var ErrMissingField = errors.New("missing required field")

// InsightsEdge is the nested insights{...} edge of an entity
type InsightsEdge struct {
	Data []Insight `json:"data"`
}

func (e *InsightsEdge) first() *Insight {
	if e == nil || len(e.Data) == 0 {
		return nil
	}
	return &e.Data[0]
}

type Insight struct {
	AdID         string  `json:"ad_id"`
	AdName       string  `json:"ad_name"`
	CampaignID   string  `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	DateStart    string  `json:"date_start"`
	DateStop     string  `json:"date_stop"`
	Spend        string  `json:"spend"`
	Impressions  string  `json:"impressions"`
	Clicks       string  `json:"clicks"`
	Actions      Actions `json:"actions"`
	ActionValues Actions `json:"action_values"`
	PurchaseROAS Actions `json:"purchase_roas"`
}

// Revenue is the purchase value, nil when no purchase value was reported
func (i Insight) Revenue() *float64 {
	if !i.ActionValues.Has(purchaseActionType) {
		return nil
	}
	v := i.ActionValues.Sum(purchaseActionType)
	return &v
}

// ROAS prefers the reported purchase_roas and falls back to revenue/spend
func (i Insight) ROAS(spend float64) *float64 {
	if v, ok := i.PurchaseROAS.First(); ok {
		return &v
	}
	revenue := i.Revenue()
	if revenue == nil {
		return nil
	}
	v := domain.ComputeROAS(*revenue, spend)
	return &v
}

// Metrics converts the insight into entity totals
func (i Insight) Metrics() (*domain.Metrics, error) {
	spend, err := utils.ParseFloat(i.Spend)
	if err != nil {
		return nil, fmt.Errorf("spend %q: %w", i.Spend, err)
	}

	impressions, err := utils.ParseInt(i.Impressions)
	if err != nil {
		return nil, fmt.Errorf("impressions %q: %w", i.Impressions, err)
	}

	clicks, err := utils.ParseInt(i.Clicks)
	if err != nil {
		return nil, fmt.Errorf("clicks %q: %w", i.Clicks, err)
	}

	m := &domain.Metrics{
		Spend:       spend,
		Impressions: impressions,
		Clicks:      clicks,
		Leads:       i.Actions.Leads(),
		Purchases:   i.Actions.Purchases(),
	}

	if revenue := i.Revenue(); revenue != nil {
		m.Revenue = *revenue
	}
	if roas := i.ROAS(spend); roas != nil {
		m.ROAS = *roas
	}

	return m, nil
}

// ToDailyMetric converts a level=ad, time_increment=1 insight row
func (i Insight) ToDailyMetric() (*domain.AdDailyMetric, error) {
	if i.AdID == "" {
		return nil, fmt.Errorf("ad_id: %w", ErrMissingField)
	}
	if i.DateStart == "" {
		return nil, fmt.Errorf("date_start: %w", ErrMissingField)
	}

	date, err := utils.ParseDate(i.DateStart)
	if err != nil {
		return nil, fmt.Errorf("date_start %q: %w", i.DateStart, err)
	}

	m, err := i.Metrics()
	if err != nil {
		return nil, err
	}

	return &domain.AdDailyMetric{
		AdExternalID: i.AdID,
		Date:         *date,
		Spend:        m.Spend,
		Impressions:  m.Impressions,
		Clicks:       m.Clicks,
		Leads:        m.Leads,
		Purchases:    m.Purchases,
		Revenue:      i.Revenue(),
		ROAS:         i.ROAS(m.Spend),
	}, nil
}
