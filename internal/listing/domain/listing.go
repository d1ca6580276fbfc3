package domain

import (
	"time"

	"github.com/cdexmarket/cdex/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Kind says what the lister wants done with the card.
type Kind string

const (
	KindSale    Kind = "SALE"
	KindTrade   Kind = "TRADE"
	KindAuction Kind = "AUCTION"
)

// Status is the flat lifecycle state of a listing.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSold      Status = "SOLD"
	StatusTraded    Status = "TRADED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
	StatusPending   Status = "PENDING"
)

// Listing is an offer to sell, trade or auction a single card. For auctions it
// carries a denormalized snapshot of the currently-winning bid
// (CurrentHighestBid / CurrentHighBidderID) for fast reads; the snapshot must
// always be re-derivable as the max of the listing's bid history.
//
// Version guards the snapshot against concurrent writers: every snapshot
// update increments it, and a persisted update must match the version it was
// computed from.
type Listing struct {
	ID                  uuid.UUID
	ListerID            uuid.UUID
	CardID              uuid.UUID
	Kind                Kind
	Status              Status
	Price               *decimal.Decimal
	TradePreference     string
	StartPrice          decimal.Decimal
	BidIncrement        decimal.Decimal
	EndTime             *time.Time
	CurrentHighestBid   *decimal.Decimal
	CurrentHighBidderID *uuid.UUID
	Description         string
	ViewsCount          int64
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewListingParams carries the user-supplied fields for a new listing.
type NewListingParams struct {
	ID              uuid.UUID
	ListerID        uuid.UUID
	CardID          uuid.UUID
	Kind            Kind
	Price           *decimal.Decimal
	TradePreference string
	StartPrice      decimal.Decimal
	BidIncrement    decimal.Decimal
	EndTime         *time.Time
	Description     string
}

// NewListing validates the kind-dependent required fields and returns an
// ACTIVE listing. Sales need a price; auctions need a start price and a future
// end time.
func NewListing(p NewListingParams, now time.Time) (*Listing, error) {
	switch p.Kind {
	case KindSale:
		if p.Price == nil || !p.Price.IsPositive() {
			return nil, ErrPriceRequired
		}
	case KindAuction:
		if !p.StartPrice.IsPositive() {
			return nil, ErrStartPriceRequired
		}
		if p.EndTime == nil {
			return nil, ErrEndTimeRequired
		}
		if !p.EndTime.After(now) {
			return nil, ErrEndTimeInPast
		}
	}

	increment := p.BidIncrement
	if !increment.IsPositive() {
		increment = decimal.NewFromInt(1)
	}

	return &Listing{
		ID:              p.ID,
		ListerID:        p.ListerID,
		CardID:          p.CardID,
		Kind:            p.Kind,
		Status:          StatusActive,
		Price:           p.Price,
		TradePreference: p.TradePreference,
		StartPrice:      p.StartPrice,
		BidIncrement:    increment,
		EndTime:         p.EndTime,
		Description:     p.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// OwningUserID implements the ownership capability.
func (l *Listing) OwningUserID() uuid.UUID {
	return l.ListerID
}

// MinimumAcceptableBid is the smallest amount the next bid must reach: leading
// bid plus increment once a bid exists, start price before that.
func (l *Listing) MinimumAcceptableBid() decimal.Decimal {
	if l.CurrentHighestBid != nil {
		return l.CurrentHighestBid.Add(l.BidIncrement)
	}
	return l.StartPrice
}

// PlaceBid validates a proposed bid and, if accepted, updates the leading-bid
// snapshot and returns the new Bid. Checks run in order and the first failure
// wins; a rejection never mutates the listing.
//
// PlaceBid itself does no locking. Callers must serialize the whole
// load-PlaceBid-persist sequence per listing (the submit use case does this),
// otherwise two bidders can validate against the same stale snapshot.
func (l *Listing) PlaceBid(bidderID uuid.UUID, amount decimal.Decimal, now time.Time) (*Bid, error) {
	if l.Kind != KindAuction {
		log.Warn("Bid rejected: not an auction",
			zap.String("listingID", l.ID.String()),
			zap.String("kind", string(l.Kind)),
			zap.String("bidderID", bidderID.String()),
		)
		return nil, ErrNotAnAuction
	}

	if l.Status != StatusActive {
		log.Warn("Bid rejected: listing not active",
			zap.String("listingID", l.ID.String()),
			zap.String("status", string(l.Status)),
			zap.String("bidderID", bidderID.String()),
		)
		return nil, ErrListingNotActive
	}

	if l.EndTime != nil && !now.Before(*l.EndTime) {
		log.Warn("Bid rejected: auction ended",
			zap.String("listingID", l.ID.String()),
			zap.Time("endTime", *l.EndTime),
			zap.String("bidderID", bidderID.String()),
		)
		return nil, ErrAuctionEnded
	}

	if bidderID == l.ListerID {
		log.Warn("Bid rejected: bidder owns the listing",
			zap.String("listingID", l.ID.String()),
			zap.String("bidderID", bidderID.String()),
		)
		return nil, ErrSelfBid
	}

	minimum := l.MinimumAcceptableBid()
	if amount.LessThan(minimum) {
		log.Warn("Bid rejected: amount too low",
			zap.String("listingID", l.ID.String()),
			zap.String("amount", amount.StringFixed(2)),
			zap.String("minimum", minimum.StringFixed(2)),
			zap.String("bidderID", bidderID.String()),
		)
		return nil, &BidTooLowError{Minimum: minimum}
	}

	newBid := NewBid(uuid.New(), l.ID, bidderID, amount, now)

	// Update the leading-bid snapshot. The amount can only move up here, so
	// the snapshot stays monotonically non-decreasing.
	l.CurrentHighestBid = &newBid.Amount
	l.CurrentHighBidderID = &newBid.BidderID
	l.UpdatedAt = now

	log.Info("Bid accepted",
		zap.String("listingID", l.ID.String()),
		zap.String("bidID", newBid.ID.String()),
		zap.String("bidderID", bidderID.String()),
		zap.String("amount", amount.StringFixed(2)),
	)

	return newBid, nil
}
