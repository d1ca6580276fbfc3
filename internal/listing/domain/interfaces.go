package domain

import (
	"context"

	"github.com/google/uuid"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	GetActiveListings(ctx context.Context) ([]*Listing, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error

	// AppendBid persists the bid and the listing's updated leading-bid
	// snapshot as one atomic unit, guarded by the version the snapshot was
	// computed from. A version mismatch returns ErrConcurrentUpdate and
	// persists nothing; on success the listing's Version is bumped.
	AppendBid(ctx context.Context, listing *Listing, bid *Bid) error
}

type BidRepository interface {
	// GetBidsByListingID returns bids newest first, at most limit of them
	// (limit <= 0 means no limit).
	GetBidsByListingID(ctx context.Context, listingID uuid.UUID, limit int) ([]*Bid, error)
}
