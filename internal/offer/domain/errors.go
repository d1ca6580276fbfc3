package domain

import "errors"

var (
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferNotPending    = errors.New("offer is no longer pending")
	ErrNotOfferBuyer      = errors.New("only the offer's buyer may do this")
	ErrInvalidOfferAmount = errors.New("offer amount must be greater than zero")
	ErrOfferOnOwnListing  = errors.New("you cannot make an offer on your own listing")
)
