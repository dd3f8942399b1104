package domain

import "time"

// AdSpend is the spend and leads of one ad on one day
type AdSpend struct {
	AdName       string
	CampaignName string
	Spend        float64
	Leads        int64
}

// DailySummary is the yesterday/month-to-date report sent once per day
type DailySummary struct {
	Date          time.Time
	Categories    []CategoryTotal
	TotalSpend    float64
	TotalLeads    int64
	MonthToDate   CategoryTotal
	DashboardLink string
}

type CategoryTotal struct {
	Name  string
	Spend float64
	Leads int64
}
