package memory

import (
	"context"
	"testing"
	"time"

	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *Repo) *domain.Listing {
	t.Helper()
	end := time.Now().UTC().Add(time.Hour)
	listing, err := domain.NewListing(domain.NewListingParams{
		ID:           uuid.New(),
		ListerID:     uuid.New(),
		CardID:       uuid.New(),
		Kind:         domain.KindAuction,
		StartPrice:   decimal.RequireFromString("10.00"),
		BidIncrement: decimal.RequireFromString("1.00"),
		EndTime:      &end,
	}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), listing))
	return listing
}

func TestRepo_ReadsDoNotAliasStoredState(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo()
	listing := seed(t, repo)

	got, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)

	// Mutating the returned aggregate must not leak into the store.
	got.Status = domain.StatusCancelled

	again, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, again.Status)
}

func TestRepo_AppendBidVersionGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo()
	listing := seed(t, repo)

	// Two callers load the same version.
	first, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	bidA, err := first.PlaceBid(uuid.New(), decimal.RequireFromString("10.00"), now)
	require.NoError(t, err)
	require.NoError(t, repo.AppendBid(ctx, first, bidA))

	// The second writer is now stale and must not clobber the snapshot.
	bidB, err := second.PlaceBid(uuid.New(), decimal.RequireFromString("10.00"), now)
	require.NoError(t, err)
	require.ErrorIs(t, repo.AppendBid(ctx, second, bidB), domain.ErrConcurrentUpdate)

	stored, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	require.Equal(t, bidA.BidderID, *stored.CurrentHighBidderID)

	bids, err := repo.GetBidsByListingID(ctx, listing.ID, 0)
	require.NoError(t, err)
	require.Len(t, bids, 1)
}

func TestRepo_BidLimitAndOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo()
	listing := seed(t, repo)

	amounts := []string{"10.00", "11.00", "12.00"}
	for _, a := range amounts {
		loaded, err := repo.GetByID(ctx, listing.ID)
		require.NoError(t, err)
		bid, err := loaded.PlaceBid(uuid.New(), decimal.RequireFromString(a), time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, repo.AppendBid(ctx, loaded, bid))
	}

	bids, err := repo.GetBidsByListingID(ctx, listing.ID, 2)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	require.True(t, bids[0].Amount.Equal(decimal.RequireFromString("12.00")))
	require.True(t, bids[1].Amount.Equal(decimal.RequireFromString("11.00")))
}
