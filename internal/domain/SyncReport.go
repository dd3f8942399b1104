package domain

import "time"

type SyncMode string

const (
	SyncModeIncremental SyncMode = "incremental"
	SyncModeBulk        SyncMode = "bulk"
	SyncModeSummary     SyncMode = "summary"
)

// StageReport counts the outcome of one sync stage
type StageReport struct {
	Stage    string `json:"stage"`
	Fetched  int    `json:"fetched"`
	Upserted int    `json:"upserted"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
	Error    string `json:"error,omitempty"`
}

// SyncReport is the outcome of a sync run
type SyncReport struct {
	RunID      string         `json:"run_id"`
	Mode       SyncMode       `json:"mode"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Stages     []*StageReport `json:"stages"`
	Alerts     int            `json:"alerts"`
	LiveAds    int            `json:"live_ads"`
}

// Stage returns the named stage report, creating it on first use
func (r *SyncReport) Stage(name string) *StageReport {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s
		}
	}
	s := &StageReport{Stage: name}
	r.Stages = append(r.Stages, s)
	return s
}

// Failed reports whether any stage stopped on an error
func (r *SyncReport) Failed() bool {
	for _, s := range r.Stages {
		if s.Error != "" {
			return true
		}
	}
	return false
}
