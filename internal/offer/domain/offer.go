package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the negotiation state of an offer.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusRetracted Status = "RETRACTED"
	StatusExpired   Status = "EXPIRED"
)

// Offer is a buyer's proposal against a listing. The seller accepts or
// rejects it, the buyer may retract it; every transition is only valid from
// PENDING. Amount visibility on the listing is the buyer's choice (IsPublic).
type Offer struct {
	ID        uuid.UUID
	ListingID uuid.UUID
	BuyerID   uuid.UUID
	Amount    decimal.Decimal
	IsPublic  bool
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Thread is the conversation record attached to an offer. It is created in
// the same transaction as its offer, never after the fact; message content
// lives outside this module.
type Thread struct {
	ID        uuid.UUID
	ListingID uuid.UUID
	OfferID   uuid.UUID
	CreatedAt time.Time
}

// NewOffer builds a PENDING offer together with its conversation thread.
// Returning both makes the offer-implies-thread invariant explicit: the
// repository persists the pair atomically.
func NewOffer(listingID, buyerID uuid.UUID, amount decimal.Decimal, isPublic bool, now time.Time) (*Offer, *Thread, error) {
	if !amount.IsPositive() {
		return nil, nil, ErrInvalidOfferAmount
	}

	offer := &Offer{
		ID:        uuid.New(),
		ListingID: listingID,
		BuyerID:   buyerID,
		Amount:    amount,
		IsPublic:  isPublic,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	thread := &Thread{
		ID:        uuid.New(),
		ListingID: listingID,
		OfferID:   offer.ID,
		CreatedAt: now,
	}
	return offer, thread, nil
}

// Accept marks the offer accepted by the seller.
func (o *Offer) Accept(now time.Time) error {
	return o.transition(StatusAccepted, now)
}

// Reject marks the offer rejected by the seller.
func (o *Offer) Reject(now time.Time) error {
	return o.transition(StatusRejected, now)
}

// Retract marks the offer withdrawn by the buyer.
func (o *Offer) Retract(now time.Time) error {
	return o.transition(StatusRetracted, now)
}

func (o *Offer) transition(to Status, now time.Time) error {
	if o.Status != StatusPending {
		return ErrOfferNotPending
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}
