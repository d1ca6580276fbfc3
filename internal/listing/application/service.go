package application

import (
	"context"

	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/google/uuid"
)

// ListingService is the application interface of the listing module, exposed
// to the transport layers (HTTP, websocket).
type ListingService interface {
	// SubmitBid handles one bid attempt against an auction listing. Returns
	// the created bid or the rejection reason.
	SubmitBid(ctx context.Context, cmd SubmitBidDTO) (*domain.Bid, error)
	CreateListing(ctx context.Context, cmd CreateListingDTO) (*domain.Listing, error)
	GetListingState(ctx context.Context, listingID uuid.UUID) (*ListingStateDTO, error)
	GetActiveListings(ctx context.Context) ([]*ListingStateDTO, error)
	ListBids(ctx context.Context, listingID, requesterID uuid.UUID, limit int) ([]*domain.Bid, error)
}

type listingService struct {
	submitBidUC     *SubmitBidUseCase
	createListingUC *CreateListingUseCase
	getStateUC      *GetListingStateUseCase
	listBidsUC      *ListBidsUseCase
	listingRepo     domain.ListingRepository
}

func NewListingService(
	submitBidUC *SubmitBidUseCase,
	createListingUC *CreateListingUseCase,
	getStateUC *GetListingStateUseCase,
	listBidsUC *ListBidsUseCase,
	listingRepo domain.ListingRepository,
) ListingService {
	return &listingService{
		submitBidUC:     submitBidUC,
		createListingUC: createListingUC,
		getStateUC:      getStateUC,
		listBidsUC:      listBidsUC,
		listingRepo:     listingRepo,
	}
}

func (s *listingService) SubmitBid(ctx context.Context, cmd SubmitBidDTO) (*domain.Bid, error) {
	return s.submitBidUC.Execute(ctx, cmd)
}

func (s *listingService) CreateListing(ctx context.Context, cmd CreateListingDTO) (*domain.Listing, error) {
	return s.createListingUC.Execute(ctx, cmd)
}

func (s *listingService) GetListingState(ctx context.Context, listingID uuid.UUID) (*ListingStateDTO, error) {
	return s.getStateUC.Execute(ctx, listingID)
}

func (s *listingService) GetActiveListings(ctx context.Context) ([]*ListingStateDTO, error) {
	listings, err := s.listingRepo.GetActiveListings(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]*ListingStateDTO, 0, len(listings))
	for _, l := range listings {
		dtos = append(dtos, listingToStateDTO(l))
	}
	return dtos, nil
}

func (s *listingService) ListBids(ctx context.Context, listingID, requesterID uuid.UUID, limit int) ([]*domain.Bid, error) {
	return s.listBidsUC.Execute(ctx, listingID, requesterID, limit)
}
