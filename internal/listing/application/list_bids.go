package application

import (
	"context"
	"fmt"

	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/cdexmarket/cdex/internal/shared/ownership"
	"github.com/google/uuid"
)

// RecentBidsLimit caps how much bid history non-owners see on a listing.
const RecentBidsLimit = 10

type ListBidsUseCase struct {
	listingRepo domain.ListingRepository
	bidRepo     domain.BidRepository
}

func NewListBidsUseCase(listingRepo domain.ListingRepository, bidRepo domain.BidRepository) *ListBidsUseCase {
	return &ListBidsUseCase{
		listingRepo: listingRepo,
		bidRepo:     bidRepo,
	}
}

// Execute returns bids newest first. The lister sees the full history (or the
// limit they asked for); everyone else gets at most RecentBidsLimit entries.
func (uc *ListBidsUseCase) Execute(ctx context.Context, listingID, requesterID uuid.UUID, limit int) ([]*domain.Bid, error) {
	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("list bids: failed to get listing %s: %w", listingID, err)
	}

	if !ownership.CanModify(listing, requesterID) {
		if limit <= 0 || limit > RecentBidsLimit {
			limit = RecentBidsLimit
		}
	}

	bids, err := uc.bidRepo.GetBidsByListingID(ctx, listingID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bids: failed to get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}
