package http

import (
	"errors"
	"time"

	catalog "github.com/cdexmarket/cdex/internal/catalog/domain"
	"github.com/cdexmarket/cdex/internal/listing/application"
	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/cdexmarket/cdex/internal/shared/httpserver"
	"github.com/cdexmarket/cdex/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// ListingHandler exposes the listing module over REST.
type ListingHandler struct {
	service application.ListingService
}

func NewListingHandler(service application.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// Register mounts the listing routes on the app.
func (h *ListingHandler) Register(app *fiber.App) {
	api := app.Group("/api")
	api.Post("/listings", h.createListing)
	api.Get("/listings", h.getActiveListings)
	api.Get("/listings/:id", h.getListing)
	api.Post("/listings/:id/bids", h.submitBid)
	api.Get("/listings/:id/bids", h.listBids)
}

type createListingRequest struct {
	CardID          uuid.UUID        `json:"card_id"`
	Kind            string           `json:"kind"`
	Price           *decimal.Decimal `json:"price"`
	TradePreference string           `json:"trade_preference"`
	StartPrice      decimal.Decimal  `json:"start_price"`
	BidIncrement    decimal.Decimal  `json:"bid_increment"`
	EndTime         *time.Time       `json:"end_time"`
	Description     string           `json:"description"`
}

type submitBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type bidResponse struct {
	ID        uuid.UUID       `json:"id"`
	ListingID uuid.UUID       `json:"listing_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func toBidResponse(b *domain.Bid) bidResponse {
	return bidResponse{
		ID:        b.ID,
		ListingID: b.ListingID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		CreatedAt: b.CreatedAt,
	}
}

func (h *ListingHandler) createListing(c *fiber.Ctx) error {
	userID, err := httpserver.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	listing, err := h.service.CreateListing(c.Context(), application.CreateListingDTO{
		ListerID:        userID,
		CardID:          req.CardID,
		Kind:            domain.Kind(req.Kind),
		Price:           req.Price,
		TradePreference: req.TradePreference,
		StartPrice:      req.StartPrice,
		BidIncrement:    req.BidIncrement,
		EndTime:         req.EndTime,
		Description:     req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"listing_id": listing.ID})
}

func (h *ListingHandler) getActiveListings(c *fiber.Ctx) error {
	listings, err := h.service.GetActiveListings(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listings)
}

func (h *ListingHandler) getListing(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid listing id"})
	}

	state, err := h.service.GetListingState(c.Context(), listingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

func (h *ListingHandler) submitBid(c *fiber.Ctx) error {
	userID, err := httpserver.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid listing id"})
	}

	var req submitBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	bid, err := h.service.SubmitBid(c.Context(), application.SubmitBidDTO{
		ListingID: listingID,
		BidderID:  userID,
		Amount:    req.Amount,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toBidResponse(bid))
}

func (h *ListingHandler) listBids(c *fiber.Ctx) error {
	userID, err := httpserver.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid listing id"})
	}

	bids, err := h.service.ListBids(c.Context(), listingID, userID, c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}

	out := make([]bidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResponse(b))
	}
	return c.JSON(out)
}

// respondError maps domain errors onto HTTP statuses. Every bid rejection
// reason reaches the caller; BidTooLow additionally carries the amount that
// would have been accepted.
func respondError(c *fiber.Ctx, err error) error {
	var tooLow *domain.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":                  tooLow.Error(),
			"minimum_acceptable_bid": tooLow.Minimum,
		})

	case errors.Is(err, domain.ErrListingNotFound), errors.Is(err, catalog.ErrCardNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrNotCardOwner), errors.Is(err, domain.ErrNotListingOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrConcurrentUpdate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     err.Error(),
			"retryable": true,
		})

	case errors.Is(err, domain.ErrNotAnAuction),
		errors.Is(err, domain.ErrListingNotActive),
		errors.Is(err, domain.ErrAuctionEnded),
		errors.Is(err, domain.ErrSelfBid),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrPriceRequired),
		errors.Is(err, domain.ErrStartPriceRequired),
		errors.Is(err, domain.ErrEndTimeRequired),
		errors.Is(err, domain.ErrEndTimeInPast):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	default:
		log.Error("unhandled error in listing handler", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
