package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/cdexmarket/cdex/internal/listing/infra/repository/memory"
	"github.com/cdexmarket/cdex/internal/shared/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedAuction(t *testing.T, repo *memory.Repo, listerID uuid.UUID, startPrice, increment string) *domain.Listing {
	t.Helper()
	end := time.Now().UTC().Add(24 * time.Hour)
	listing, err := domain.NewListing(domain.NewListingParams{
		ID:           uuid.New(),
		ListerID:     listerID,
		CardID:       uuid.New(),
		Kind:         domain.KindAuction,
		StartPrice:   dec(startPrice),
		BidIncrement: dec(increment),
		EndTime:      &end,
	}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), listing))
	return listing
}

// The full happy-path sequence: a too-low opener, a first accepted bid, an
// under-increment raise, then a valid raise.
func TestSubmitBid_Sequence(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepo()
	uc := NewSubmitBidUseCase(repo, lock.NewKeyedMutex())

	lister := uuid.New()
	bidderA := uuid.New()
	bidderB := uuid.New()
	listing := seedAuction(t, repo, lister, "10.00", "1.00")

	// 9.99 is below the start price.
	_, err := uc.Execute(ctx, SubmitBidDTO{ListingID: listing.ID, BidderID: bidderA, Amount: dec("9.99")})
	var tooLow *domain.BidTooLowError
	require.True(t, errors.As(err, &tooLow))
	require.True(t, tooLow.Minimum.Equal(dec("10.00")))

	// 10.00 matches the start price exactly.
	bid, err := uc.Execute(ctx, SubmitBidDTO{ListingID: listing.ID, BidderID: bidderA, Amount: dec("10.00")})
	require.NoError(t, err)
	require.True(t, bid.Amount.Equal(dec("10.00")))

	stored, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	require.True(t, stored.CurrentHighestBid.Equal(dec("10.00")))
	require.Equal(t, bidderA, *stored.CurrentHighBidderID)

	// 10.50 does not clear leading + increment.
	_, err = uc.Execute(ctx, SubmitBidDTO{ListingID: listing.ID, BidderID: bidderB, Amount: dec("10.50")})
	require.True(t, errors.As(err, &tooLow))
	require.True(t, tooLow.Minimum.Equal(dec("11.00")))

	// 11.00 does.
	_, err = uc.Execute(ctx, SubmitBidDTO{ListingID: listing.ID, BidderID: bidderB, Amount: dec("11.00")})
	require.NoError(t, err)

	stored, err = repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	require.True(t, stored.CurrentHighestBid.Equal(dec("11.00")))
	require.Equal(t, bidderB, *stored.CurrentHighBidderID)

	// History is newest first and re-derives the snapshot.
	bids, err := repo.GetBidsByListingID(ctx, listing.ID, 0)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	require.True(t, bids[0].Amount.Equal(dec("11.00")))
	require.True(t, bids[1].Amount.Equal(dec("10.00")))
}

func TestSubmitBid_RejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepo()
	uc := NewSubmitBidUseCase(repo, lock.NewKeyedMutex())
	listing := seedAuction(t, repo, uuid.New(), "10.00", "1.00")

	_, err := uc.Execute(ctx, SubmitBidDTO{ListingID: listing.ID, BidderID: uuid.New(), Amount: dec("0")})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = uc.Execute(ctx, SubmitBidDTO{ListingID: listing.ID, BidderID: uuid.New(), Amount: dec("-5")})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestSubmitBid_UnknownListing(t *testing.T) {
	uc := NewSubmitBidUseCase(memory.NewRepo(), lock.NewKeyedMutex())
	_, err := uc.Execute(context.Background(), SubmitBidDTO{ListingID: uuid.New(), BidderID: uuid.New(), Amount: dec("10.00")})
	require.ErrorIs(t, err, domain.ErrListingNotFound)
}

// Two bidders race with 11 and 12 against start=10/increment=1. Whatever the
// interleaving, the 12 bid must win the snapshot: the cache ends at 12 with
// the 12-bidder, and never regresses to 11 after 12 was accepted.
func TestSubmitBid_ConcurrentBiddersHighestWins(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		repo := memory.NewRepo()
		uc := NewSubmitBidUseCase(repo, lock.NewKeyedMutex())
		listing := seedAuction(t, repo, uuid.New(), "10.00", "1.00")

		bidder11 := uuid.New()
		bidder12 := uuid.New()

		var wg sync.WaitGroup
		var err12 error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = uc.Execute(ctx, SubmitBidDTO{ListingID: listing.ID, BidderID: bidder11, Amount: dec("11.00")})
		}()
		go func() {
			defer wg.Done()
			_, err12 = uc.Execute(ctx, SubmitBidDTO{ListingID: listing.ID, BidderID: bidder12, Amount: dec("12.00")})
		}()
		wg.Wait()

		// 12 always clears the minimum, whether it ran first (min 10.00)
		// or after 11 was accepted (min 12.00).
		require.NoError(t, err12)

		stored, err := repo.GetByID(ctx, listing.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.CurrentHighestBid)
		require.True(t, stored.CurrentHighestBid.Equal(dec("12.00")),
			"cache = %s, want 12.00", stored.CurrentHighestBid)
		require.Equal(t, bidder12, *stored.CurrentHighBidderID)

		// The snapshot must equal the max of the persisted history.
		bids, err := repo.GetBidsByListingID(ctx, listing.ID, 0)
		require.NoError(t, err)
		max := decimal.Zero
		for _, b := range bids {
			if b.Amount.GreaterThan(max) {
				max = b.Amount
			}
		}
		require.True(t, stored.CurrentHighestBid.Equal(max))
	}
}

// Many bidders hammer one listing; every accepted bid must have cleared the
// then-current minimum, so the history read oldest-to-newest climbs by at
// least the increment, and the snapshot ends at the overall max.
func TestSubmitBid_ManyConcurrentBidders(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepo()
	uc := NewSubmitBidUseCase(repo, lock.NewKeyedMutex())
	listing := seedAuction(t, repo, uuid.New(), "10.00", "1.00")

	const bidders = 20
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			amount := decimal.NewFromInt(int64(10 + n))
			_, _ = uc.Execute(ctx, SubmitBidDTO{ListingID: listing.ID, BidderID: uuid.New(), Amount: amount})
		}(i)
	}
	wg.Wait()

	bids, err := repo.GetBidsByListingID(ctx, listing.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, bids)

	increment := dec("1.00")
	// bids are newest first; walk backwards to get acceptance order.
	for i := len(bids) - 1; i > 0; i-- {
		older := bids[i]
		newer := bids[i-1]
		require.True(t, newer.Amount.GreaterThanOrEqual(older.Amount.Add(increment)),
			"bid %s followed %s without clearing the increment", newer.Amount, older.Amount)
	}

	stored, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	require.True(t, stored.CurrentHighestBid.Equal(bids[0].Amount))
}

// Bids on distinct listings must not serialize against each other.
func TestSubmitBid_IndependentListingsProceedInParallel(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepo()
	uc := NewSubmitBidUseCase(repo, lock.NewKeyedMutex())

	const listings = 10
	errs := make(chan error, listings)
	var wg sync.WaitGroup
	for i := 0; i < listings; i++ {
		listing := seedAuction(t, repo, uuid.New(), "10.00", "1.00")
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := uc.Execute(ctx, SubmitBidDTO{ListingID: id, BidderID: uuid.New(), Amount: dec("10.00")})
			errs <- err
		}(listing.ID)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
