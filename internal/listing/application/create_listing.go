package application

import (
	"context"
	"fmt"
	"time"

	catalog "github.com/cdexmarket/cdex/internal/catalog/domain"
	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/cdexmarket/cdex/internal/shared/ownership"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateListingDTO is the input for creating a listing.
type CreateListingDTO struct {
	ListerID        uuid.UUID
	CardID          uuid.UUID
	Kind            domain.Kind
	Price           *decimal.Decimal
	TradePreference string
	StartPrice      decimal.Decimal
	BidIncrement    decimal.Decimal
	EndTime         *time.Time
	Description     string
}

type CreateListingUseCase struct {
	listingRepo domain.ListingRepository
	cardRepo    catalog.CardRepository
}

func NewCreateListingUseCase(listingRepo domain.ListingRepository, cardRepo catalog.CardRepository) *CreateListingUseCase {
	return &CreateListingUseCase{
		listingRepo: listingRepo,
		cardRepo:    cardRepo,
	}
}

// Execute checks the card belongs to the lister, builds the listing and
// persists it.
func (uc *CreateListingUseCase) Execute(ctx context.Context, cmd CreateListingDTO) (*domain.Listing, error) {
	card, err := uc.cardRepo.GetByID(ctx, cmd.CardID)
	if err != nil {
		return nil, fmt.Errorf("create listing: failed to get card %s: %w", cmd.CardID, err)
	}
	if !ownership.CanModify(card, cmd.ListerID) {
		return nil, domain.ErrNotCardOwner
	}

	listing, err := domain.NewListing(domain.NewListingParams{
		ID:              uuid.New(),
		ListerID:        cmd.ListerID,
		CardID:          cmd.CardID,
		Kind:            cmd.Kind,
		Price:           cmd.Price,
		TradePreference: cmd.TradePreference,
		StartPrice:      cmd.StartPrice,
		BidIncrement:    cmd.BidIncrement,
		EndTime:         cmd.EndTime,
		Description:     cmd.Description,
	}, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("create listing: failed to persist listing: %w", err)
	}

	return listing, nil
}
