package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is one bid attempt against an auction listing. Append-only: a bid is
// never updated or deleted after creation.
type Bid struct {
	ID        uuid.UUID
	ListingID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// NewBid creates a new Bid instance.
func NewBid(id, listingID, bidderID uuid.UUID, amount decimal.Decimal, createdAt time.Time) *Bid {
	return &Bid{
		ID:        id,
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: createdAt,
	}
}
