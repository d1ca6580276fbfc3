package memory

import (
	"context"
	"sync"

	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/google/uuid"
)

// Repo is a concurrency-safe in-memory implementation of both
// domain.ListingRepository and domain.BidRepository. It mirrors the postgres
// behaviour including the version guard on AppendBid, which makes it usable
// for exercising the bid acceptance path without a database.
type Repo struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]*domain.Listing
	bids     map[uuid.UUID][]*domain.Bid // key: listingID
}

func NewRepo() *Repo {
	return &Repo{
		listings: make(map[uuid.UUID]*domain.Listing),
		bids:     make(map[uuid.UUID][]*domain.Bid),
	}
}

// cloneListing copies the aggregate so callers never alias stored state.
// Reads returning the stored pointer would hide exactly the stale-snapshot
// races the version guard exists to catch.
func cloneListing(l *domain.Listing) *domain.Listing {
	c := *l
	if l.Price != nil {
		v := *l.Price
		c.Price = &v
	}
	if l.EndTime != nil {
		v := *l.EndTime
		c.EndTime = &v
	}
	if l.CurrentHighestBid != nil {
		v := *l.CurrentHighestBid
		c.CurrentHighestBid = &v
	}
	if l.CurrentHighBidderID != nil {
		v := *l.CurrentHighBidderID
		c.CurrentHighBidderID = &v
	}
	return &c
}

func (r *Repo) Create(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return cloneListing(listing), nil
}

func (r *Repo) GetActiveListings(ctx context.Context) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var listings []*domain.Listing
	for _, l := range r.listings {
		if l.Status == domain.StatusActive {
			listings = append(listings, cloneListing(l))
		}
	}
	return listings, nil
}

func (r *Repo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	listing.ViewsCount++
	return nil
}

func (r *Repo) AppendBid(ctx context.Context, listing *domain.Listing, bid *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.listings[listing.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if stored.Version != listing.Version {
		return domain.ErrConcurrentUpdate
	}

	updated := cloneListing(listing)
	updated.Version++
	updated.ViewsCount = stored.ViewsCount
	r.listings[listing.ID] = updated

	b := *bid
	r.bids[listing.ID] = append(r.bids[listing.ID], &b)

	listing.Version++
	return nil
}

func (r *Repo) GetBidsByListingID(ctx context.Context, listingID uuid.UUID, limit int) ([]*domain.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.bids[listingID]
	// Newest first, matching the postgres ordering.
	bids := make([]*domain.Bid, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		b := *stored[i]
		bids = append(bids, &b)
		if limit > 0 && len(bids) == limit {
			break
		}
	}
	return bids, nil
}
