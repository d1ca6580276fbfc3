package domain

import (
	"context"

	"github.com/google/uuid"
)

type OfferRepository interface {
	// Create persists the offer and its conversation thread as one atomic
	// unit.
	Create(ctx context.Context, offer *Offer, thread *Thread) error
	GetByID(ctx context.Context, id uuid.UUID) (*Offer, error)
	UpdateStatus(ctx context.Context, offer *Offer) error
	GetByListingID(ctx context.Context, listingID uuid.UUID) ([]*Offer, error)
}
