package metadomain

import (
	"github.com/vfg2006/ads-sync/pkg/utils"
)

// Lead action types in priority order. The first one with a nonzero value
// is the lead count; they are alternative views of the same conversions.
var leadActionTypes = []string{
	"onsite_conversion.messaging_conversation_started_7d",
	"onsite_conversion.total_messaging_connection",
	"lead",
}

const purchaseActionType = "purchase"

type Action struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type Actions []Action

// Sum adds every value reported for actionType. Unparsable values count as zero.
func (a Actions) Sum(actionType string) float64 {
	var total float64
	for _, action := range a {
		if action.ActionType != actionType {
			continue
		}
		v, err := utils.ParseFloat(action.Value)
		if err != nil {
			continue
		}
		total += v
	}
	return total
}

// Has reports whether actionType appears at all
func (a Actions) Has(actionType string) bool {
	for _, action := range a {
		if action.ActionType == actionType {
			return true
		}
	}
	return false
}

// Leads returns the first nonzero lead count following leadActionTypes
func (a Actions) Leads() int64 {
	for _, actionType := range leadActionTypes {
		if v := a.Sum(actionType); v != 0 {
			return int64(v)
		}
	}
	return 0
}

func (a Actions) Purchases() int64 {
	return int64(a.Sum(purchaseActionType))
}

// First returns the value of the first entry, used for purchase_roas
func (a Actions) First() (float64, bool) {
	if len(a) == 0 {
		return 0, false
	}
	v, err := utils.ParseFloat(a[0].Value)
	if err != nil {
		return 0, false
	}
	return v, true
}
