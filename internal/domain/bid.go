package domain

import "time"

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

// Bid is a provider's offer on a client's job listing. At most one bid per
// (listing, provider) pair.
type Bid struct {
	ID          int64     `json:"id"`
	ListingID   int64     `json:"listing_id"`
	ProviderID  int64     `json:"provider_id"`
	AmountCents int64     `json:"amount_cents"`
	Message     string    `json:"message"`
	Status      BidStatus `json:"status"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}
