package domain

// Entity and delivery statuses as reported by the Graph API
const (
	StatusActive      = "ACTIVE"
	StatusPaused      = "PAUSED"
	StatusDisapproved = "DISAPPROVED"
)

// IsDisapprovalTransition reports whether a delivery status moved into
// DISAPPROVED. An empty previous status means the ad was never stored.
func IsDisapprovalTransition(previous, current string) bool {
	return current == StatusDisapproved && previous != StatusDisapproved
}
