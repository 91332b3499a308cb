package domain

import "time"

type ListingType string

const (
	// A service listing is offered by a provider and booked by clients.
	ListingTypeService ListingType = "service"
	// A job listing is posted by a client and receives provider bids.
	ListingTypeJob ListingType = "job"
)

type Listing struct {
	ID              int64       `json:"id"`
	OwnerID         int64       `json:"owner_id"`
	Type            ListingType `json:"type"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	HourlyRateCents int64       `json:"hourly_rate_cents"`
	Location        string      `json:"location"`
	Available       bool        `json:"available"`
	CreatedOn       time.Time   `json:"created_on"`
	UpdatedOn       time.Time   `json:"updated_on"`
	DeletedOn       *time.Time  `json:"deleted_on,omitempty"`
}
