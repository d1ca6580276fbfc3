package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestAuction(t *testing.T, listerID uuid.UUID, startPrice, increment string, endTime *time.Time) *Listing {
	t.Helper()
	listing, err := NewListing(NewListingParams{
		ID:           uuid.New(),
		ListerID:     listerID,
		CardID:       uuid.New(),
		Kind:         KindAuction,
		StartPrice:   dec(startPrice),
		BidIncrement: dec(increment),
		EndTime:      endTime,
	}, time.Now().UTC())
	require.NoError(t, err)
	return listing
}

func TestListing_PlaceBid(t *testing.T) {
	lister := uuid.New()
	bidder := uuid.New()
	now := time.Now().UTC()
	end := now.Add(24 * time.Hour)

	leading := dec("10.00")
	leadingBidder := uuid.New()

	tests := []struct {
		name       string
		setup      func() *Listing
		bidderID   uuid.UUID
		amount     string
		wantErr    error
		wantTooLow string // non-empty: expect BidTooLowError with this minimum
		wantAccept bool
	}{
		{
			name:       "first bid at start price accepted",
			setup:      func() *Listing { return newTestAuction(t, lister, "10.00", "1.00", &end) },
			bidderID:   bidder,
			amount:     "10.00",
			wantAccept: true,
		},
		{
			name:       "first bid one cent below start price rejected",
			setup:      func() *Listing { return newTestAuction(t, lister, "10.00", "1.00", &end) },
			bidderID:   bidder,
			amount:     "9.99",
			wantTooLow: "10.00",
		},
		{
			name: "leading plus increment accepted",
			setup: func() *Listing {
				l := newTestAuction(t, lister, "10.00", "1.00", &end)
				l.CurrentHighestBid = &leading
				l.CurrentHighBidderID = &leadingBidder
				return l
			},
			bidderID:   bidder,
			amount:     "11.00",
			wantAccept: true,
		},
		{
			name: "leading plus increment minus one cent rejected",
			setup: func() *Listing {
				l := newTestAuction(t, lister, "10.00", "1.00", &end)
				l.CurrentHighestBid = &leading
				l.CurrentHighBidderID = &leadingBidder
				return l
			},
			bidderID:   bidder,
			amount:     "10.99",
			wantTooLow: "11.00",
		},
		{
			name: "sale listing rejects any bid",
			setup: func() *Listing {
				price := dec("5.00")
				l, err := NewListing(NewListingParams{
					ID:       uuid.New(),
					ListerID: lister,
					CardID:   uuid.New(),
					Kind:     KindSale,
					Price:    &price,
				}, now)
				require.NoError(t, err)
				return l
			},
			bidderID: bidder,
			amount:   "1000.00",
			wantErr:  ErrNotAnAuction,
		},
		{
			name: "cancelled auction rejects bids",
			setup: func() *Listing {
				l := newTestAuction(t, lister, "10.00", "1.00", &end)
				l.Status = StatusCancelled
				return l
			},
			bidderID: bidder,
			amount:   "10.00",
			wantErr:  ErrListingNotActive,
		},
		{
			name: "ended auction rejects a qualifying amount",
			setup: func() *Listing {
				past := now.Add(-time.Minute)
				l := newTestAuction(t, lister, "10.00", "1.00", &end)
				l.EndTime = &past
				return l
			},
			bidderID: bidder,
			amount:   "50.00",
			wantErr:  ErrAuctionEnded,
		},
		{
			name:     "lister cannot bid on own auction",
			setup:    func() *Listing { return newTestAuction(t, lister, "10.00", "1.00", &end) },
			bidderID: lister,
			amount:   "10.00",
			wantErr:  ErrSelfBid,
		},
		{
			name: "auction without end time accepts bids",
			setup: func() *Listing {
				l := newTestAuction(t, lister, "10.00", "1.00", &end)
				l.EndTime = nil
				return l
			},
			bidderID:   bidder,
			amount:     "10.00",
			wantAccept: true,
		},
		{
			name: "kind check wins over status check",
			setup: func() *Listing {
				price := dec("5.00")
				l, err := NewListing(NewListingParams{
					ID:       uuid.New(),
					ListerID: lister,
					CardID:   uuid.New(),
					Kind:     KindSale,
					Price:    &price,
				}, now)
				require.NoError(t, err)
				l.Status = StatusCancelled
				return l
			},
			bidderID: bidder,
			amount:   "10.00",
			wantErr:  ErrNotAnAuction,
		},
		{
			name: "ended check wins over self-bid check",
			setup: func() *Listing {
				past := now.Add(-time.Minute)
				l := newTestAuction(t, lister, "10.00", "1.00", &end)
				l.EndTime = &past
				return l
			},
			bidderID: lister,
			amount:   "50.00",
			wantErr:  ErrAuctionEnded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := tt.setup()
			before := *listing

			bid, err := listing.PlaceBid(tt.bidderID, dec(tt.amount), now)

			if tt.wantAccept {
				require.NoError(t, err)
				require.NotNil(t, bid)
				require.Equal(t, listing.ID, bid.ListingID)
				require.Equal(t, tt.bidderID, bid.BidderID)
				require.True(t, bid.Amount.Equal(dec(tt.amount)))
				require.NotNil(t, listing.CurrentHighestBid)
				require.True(t, listing.CurrentHighestBid.Equal(dec(tt.amount)))
				require.NotNil(t, listing.CurrentHighBidderID)
				require.Equal(t, tt.bidderID, *listing.CurrentHighBidderID)
				return
			}

			require.Error(t, err)
			require.Nil(t, bid)

			if tt.wantTooLow != "" {
				var tooLow *BidTooLowError
				require.True(t, errors.As(err, &tooLow))
				require.True(t, tooLow.Minimum.Equal(dec(tt.wantTooLow)),
					"minimum = %s, want %s", tooLow.Minimum, tt.wantTooLow)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}

			// A rejection must not mutate the listing.
			require.Equal(t, before.Status, listing.Status)
			require.Equal(t, before.CurrentHighestBid, listing.CurrentHighestBid)
			require.Equal(t, before.CurrentHighBidderID, listing.CurrentHighBidderID)
		})
	}
}

func TestListing_MinimumAcceptableBid(t *testing.T) {
	lister := uuid.New()
	end := time.Now().UTC().Add(time.Hour)

	listing := newTestAuction(t, lister, "10.00", "1.50", &end)
	require.True(t, listing.MinimumAcceptableBid().Equal(dec("10.00")))

	leading := dec("20.00")
	listing.CurrentHighestBid = &leading
	require.True(t, listing.MinimumAcceptableBid().Equal(dec("21.50")))
}

func TestNewListing_Validation(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	price := dec("5.00")

	tests := []struct {
		name    string
		params  NewListingParams
		wantErr error
	}{
		{
			name:    "sale without price",
			params:  NewListingParams{Kind: KindSale},
			wantErr: ErrPriceRequired,
		},
		{
			name:    "auction without start price",
			params:  NewListingParams{Kind: KindAuction, EndTime: &future},
			wantErr: ErrStartPriceRequired,
		},
		{
			name:    "auction without end time",
			params:  NewListingParams{Kind: KindAuction, StartPrice: dec("10.00")},
			wantErr: ErrEndTimeRequired,
		},
		{
			name:    "auction ending in the past",
			params:  NewListingParams{Kind: KindAuction, StartPrice: dec("10.00"), EndTime: &past},
			wantErr: ErrEndTimeInPast,
		},
		{
			name:   "valid sale",
			params: NewListingParams{Kind: KindSale, Price: &price},
		},
		{
			name:   "valid trade needs nothing extra",
			params: NewListingParams{Kind: KindTrade},
		},
		{
			name:   "valid auction",
			params: NewListingParams{Kind: KindAuction, StartPrice: dec("10.00"), EndTime: &future},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, err := NewListing(tt.params, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, StatusActive, listing.Status)
		})
	}
}

func TestNewListing_DefaultsIncrement(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	listing, err := NewListing(NewListingParams{
		Kind:       KindAuction,
		StartPrice: dec("10.00"),
		EndTime:    &future,
	}, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, listing.BidIncrement.Equal(dec("1")))
}
