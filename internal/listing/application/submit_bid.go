package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/cdexmarket/cdex/internal/shared/lock"
	"github.com/cdexmarket/cdex/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// SubmitBidDTO is the input for the submit bid use case.
type SubmitBidDTO struct {
	ListingID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
}

// SubmitBidUseCase runs the whole bid acceptance sequence: load the listing,
// validate the bid against it, persist the bid together with the updated
// leading-bid snapshot.
//
// The sequence is serialized per listing with a keyed mutex so two bidders can
// never validate against the same stale snapshot; bids on different listings
// proceed in parallel. The repository's version guard covers writers outside
// this process, surfacing domain.ErrConcurrentUpdate, which callers may retry.
type SubmitBidUseCase struct {
	listingRepo domain.ListingRepository
	locks       *lock.KeyedMutex
}

func NewSubmitBidUseCase(listingRepo domain.ListingRepository, locks *lock.KeyedMutex) *SubmitBidUseCase {
	return &SubmitBidUseCase{
		listingRepo: listingRepo,
		locks:       locks,
	}
}

func (uc *SubmitBidUseCase) Execute(ctx context.Context, cmd SubmitBidDTO) (*domain.Bid, error) {
	log.Info("Executing SubmitBidUseCase",
		zap.String("listingID", cmd.ListingID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.String("amount", cmd.Amount.StringFixed(2)),
	)

	if !cmd.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	uc.locks.Lock(cmd.ListingID)
	defer uc.locks.Unlock(cmd.ListingID)

	listing, err := uc.listingRepo.GetByID(ctx, cmd.ListingID)
	if err != nil {
		return nil, fmt.Errorf("submit bid: failed to get listing %s: %w", cmd.ListingID, err)
	}

	newBid, err := listing.PlaceBid(cmd.BidderID, cmd.Amount, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("submit bid: bid rejected for listing %s: %w", cmd.ListingID, err)
	}

	if err := uc.listingRepo.AppendBid(ctx, listing, newBid); err != nil {
		log.Error("SubmitBidUseCase: failed to persist accepted bid",
			zap.String("listingID", cmd.ListingID.String()),
			zap.String("bidID", newBid.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("submit bid: failed to persist bid for listing %s: %w", cmd.ListingID, err)
	}

	return newBid, nil
}
