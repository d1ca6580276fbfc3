package application

import (
	"context"
	"fmt"
	"time"

	listingdomain "github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/cdexmarket/cdex/internal/offer/domain"
	"github.com/cdexmarket/cdex/internal/shared/logger"
	"github.com/cdexmarket/cdex/internal/shared/ownership"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// CreateOfferDTO is the input for making an offer on a listing.
type CreateOfferDTO struct {
	ListingID uuid.UUID
	BuyerID   uuid.UUID
	Amount    decimal.Decimal
	IsPublic  bool
}

// OfferService exposes the offer use cases to the transport layer.
type OfferService interface {
	CreateOffer(ctx context.Context, cmd CreateOfferDTO) (*domain.Offer, error)
	AcceptOffer(ctx context.Context, offerID, callerID uuid.UUID) (*domain.Offer, error)
	RejectOffer(ctx context.Context, offerID, callerID uuid.UUID) (*domain.Offer, error)
	RetractOffer(ctx context.Context, offerID, callerID uuid.UUID) (*domain.Offer, error)
	// ListOffersForListing returns every offer for the listing owner and
	// only the public ones for anyone else.
	ListOffersForListing(ctx context.Context, listingID, requesterID uuid.UUID) ([]*domain.Offer, error)
}

type offerService struct {
	offerRepo   domain.OfferRepository
	listingRepo listingdomain.ListingRepository
}

func NewOfferService(offerRepo domain.OfferRepository, listingRepo listingdomain.ListingRepository) OfferService {
	return &offerService{
		offerRepo:   offerRepo,
		listingRepo: listingRepo,
	}
}

func (s *offerService) CreateOffer(ctx context.Context, cmd CreateOfferDTO) (*domain.Offer, error) {
	listing, err := s.listingRepo.GetByID(ctx, cmd.ListingID)
	if err != nil {
		return nil, fmt.Errorf("create offer: failed to get listing %s: %w", cmd.ListingID, err)
	}
	if listing.Status != listingdomain.StatusActive {
		return nil, listingdomain.ErrListingNotActive
	}
	if ownership.CanModify(listing, cmd.BuyerID) {
		return nil, domain.ErrOfferOnOwnListing
	}

	offer, thread, err := domain.NewOffer(cmd.ListingID, cmd.BuyerID, cmd.Amount, cmd.IsPublic, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.offerRepo.Create(ctx, offer, thread); err != nil {
		return nil, fmt.Errorf("create offer: failed to persist offer: %w", err)
	}

	log.Info("Offer created",
		zap.String("offerID", offer.ID.String()),
		zap.String("listingID", cmd.ListingID.String()),
		zap.String("buyerID", cmd.BuyerID.String()),
		zap.String("amount", cmd.Amount.StringFixed(2)),
	)
	return offer, nil
}

func (s *offerService) AcceptOffer(ctx context.Context, offerID, callerID uuid.UUID) (*domain.Offer, error) {
	return s.sellerTransition(ctx, offerID, callerID, (*domain.Offer).Accept)
}

func (s *offerService) RejectOffer(ctx context.Context, offerID, callerID uuid.UUID) (*domain.Offer, error) {
	return s.sellerTransition(ctx, offerID, callerID, (*domain.Offer).Reject)
}

// sellerTransition covers the two seller-side transitions, which differ only
// in the target state.
func (s *offerService) sellerTransition(ctx context.Context, offerID, callerID uuid.UUID, apply func(*domain.Offer, time.Time) error) (*domain.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer transition: failed to get offer %s: %w", offerID, err)
	}

	listing, err := s.listingRepo.GetByID(ctx, offer.ListingID)
	if err != nil {
		return nil, fmt.Errorf("offer transition: failed to get listing %s: %w", offer.ListingID, err)
	}
	if !ownership.CanModify(listing, callerID) {
		return nil, listingdomain.ErrNotListingOwner
	}

	if err := apply(offer, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.offerRepo.UpdateStatus(ctx, offer); err != nil {
		return nil, fmt.Errorf("offer transition: failed to persist offer %s: %w", offerID, err)
	}
	return offer, nil
}

func (s *offerService) RetractOffer(ctx context.Context, offerID, callerID uuid.UUID) (*domain.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("retract offer: failed to get offer %s: %w", offerID, err)
	}
	if offer.BuyerID != callerID {
		return nil, domain.ErrNotOfferBuyer
	}

	if err := offer.Retract(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.offerRepo.UpdateStatus(ctx, offer); err != nil {
		return nil, fmt.Errorf("retract offer: failed to persist offer %s: %w", offerID, err)
	}
	return offer, nil
}

func (s *offerService) ListOffersForListing(ctx context.Context, listingID, requesterID uuid.UUID) ([]*domain.Offer, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("list offers: failed to get listing %s: %w", listingID, err)
	}

	offers, err := s.offerRepo.GetByListingID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("list offers: failed to get offers for listing %s: %w", listingID, err)
	}

	if ownership.CanModify(listing, requesterID) {
		return offers, nil
	}
	visible := make([]*domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.IsPublic || o.BuyerID == requesterID {
			visible = append(visible, o)
		}
	}
	return visible, nil
}
