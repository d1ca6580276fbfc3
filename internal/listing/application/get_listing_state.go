package application

import (
	"context"
	"time"

	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ListingStateDTO is the output DTO for exposing listing state to the API/WS.
type ListingStateDTO struct {
	ListingID           uuid.UUID        `json:"listing_id"`
	CardID              uuid.UUID        `json:"card_id"`
	ListerID            uuid.UUID        `json:"lister_id"`
	Kind                string           `json:"kind"`
	Status              string           `json:"status"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	StartPrice          decimal.Decimal  `json:"start_price"`
	BidIncrement        decimal.Decimal  `json:"bid_increment"`
	EndTime             *time.Time       `json:"end_time,omitempty"`
	CurrentHighestBid   *decimal.Decimal `json:"current_highest_bid,omitempty"`
	CurrentHighBidderID *uuid.UUID       `json:"current_high_bidder_id,omitempty"`
	MinimumAcceptable   decimal.Decimal  `json:"minimum_acceptable_bid"`
	Description         string           `json:"description"`
	ViewsCount          int64            `json:"views_count"`
	CreatedAt           time.Time        `json:"created_at"`
}

// GetListingStateUseCase retrieves the current state of a listing and counts
// the view.
type GetListingStateUseCase struct {
	listingRepo domain.ListingRepository
}

func NewGetListingStateUseCase(listingRepo domain.ListingRepository) *GetListingStateUseCase {
	return &GetListingStateUseCase{listingRepo: listingRepo}
}

func (uc *GetListingStateUseCase) Execute(ctx context.Context, listingID uuid.UUID) (*ListingStateDTO, error) {
	if err := uc.listingRepo.IncrementViews(ctx, listingID); err != nil {
		// View counting is best effort, never fail the read over it.
		log.Warn("GetListingStateUseCase: failed to increment views",
			zap.String("listingID", listingID.String()),
			zap.Error(err),
		)
	}

	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	return listingToStateDTO(listing), nil
}

func listingToStateDTO(l *domain.Listing) *ListingStateDTO {
	return &ListingStateDTO{
		ListingID:           l.ID,
		CardID:              l.CardID,
		ListerID:            l.ListerID,
		Kind:                string(l.Kind),
		Status:              string(l.Status),
		Price:               l.Price,
		StartPrice:          l.StartPrice,
		BidIncrement:        l.BidIncrement,
		EndTime:             l.EndTime,
		CurrentHighestBid:   l.CurrentHighestBid,
		CurrentHighBidderID: l.CurrentHighBidderID,
		MinimumAcceptable:   l.MinimumAcceptableBid(),
		Description:         l.Description,
		ViewsCount:          l.ViewsCount,
		CreatedAt:           l.CreatedAt,
	}
}
