package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrNotAnAuction     = errors.New("bids can only be placed on auction listings")
	ErrListingNotActive = errors.New("bids can only be placed on active listings")
	ErrAuctionEnded     = errors.New("this auction has ended")
	ErrSelfBid          = errors.New("you cannot bid on your own auction")
	ErrInvalidAmount    = errors.New("bid amount cannot be zero or less than zero")
	ErrNotCardOwner     = errors.New("you can only list cards you own")
	ErrNotListingOwner  = errors.New("only the listing owner may do this")

	// ErrConcurrentUpdate means the listing row changed between read and
	// write. The whole submission is safe to retry, it re-reads current state.
	ErrConcurrentUpdate = errors.New("listing was updated concurrently, retry the bid")

	// Listing creation validation
	ErrPriceRequired      = errors.New("price is required for sale listings")
	ErrStartPriceRequired = errors.New("start price is required for auctions")
	ErrEndTimeRequired    = errors.New("end date/time is required for auctions")
	ErrEndTimeInPast      = errors.New("auction end time must be in the future")
)

// BidTooLowError reports a rejected bid together with the amount that would
// have been accepted, so the caller can show the user what to resubmit.
type BidTooLowError struct {
	Minimum decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount must be at least %s", e.Minimum.StringFixed(2))
}
