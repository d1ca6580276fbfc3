package http

import (
	"context"
	"errors"
	"time"

	listingdomain "github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/cdexmarket/cdex/internal/offer/application"
	"github.com/cdexmarket/cdex/internal/offer/domain"
	"github.com/cdexmarket/cdex/internal/shared/httpserver"
	"github.com/cdexmarket/cdex/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// OfferHandler exposes the offer module over REST.
type OfferHandler struct {
	service application.OfferService
}

func NewOfferHandler(service application.OfferService) *OfferHandler {
	return &OfferHandler{service: service}
}

func (h *OfferHandler) Register(app *fiber.App) {
	api := app.Group("/api")
	api.Post("/offers", h.createOffer)
	api.Post("/offers/:id/accept", h.transition(application.OfferService.AcceptOffer))
	api.Post("/offers/:id/reject", h.transition(application.OfferService.RejectOffer))
	api.Post("/offers/:id/retract", h.transition(application.OfferService.RetractOffer))
	api.Get("/listings/:id/offers", h.listOffers)
}

type createOfferRequest struct {
	ListingID uuid.UUID       `json:"listing_id"`
	Amount    decimal.Decimal `json:"amount"`
	IsPublic  bool            `json:"is_public"`
}

type offerResponse struct {
	ID        uuid.UUID       `json:"id"`
	ListingID uuid.UUID       `json:"listing_id"`
	BuyerID   uuid.UUID       `json:"buyer_id"`
	Amount    decimal.Decimal `json:"amount"`
	IsPublic  bool            `json:"is_public"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toOfferResponse(o *domain.Offer) offerResponse {
	return offerResponse{
		ID:        o.ID,
		ListingID: o.ListingID,
		BuyerID:   o.BuyerID,
		Amount:    o.Amount,
		IsPublic:  o.IsPublic,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func (h *OfferHandler) createOffer(c *fiber.Ctx) error {
	userID, err := httpserver.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req createOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	offer, err := h.service.CreateOffer(c.Context(), application.CreateOfferDTO{
		ListingID: req.ListingID,
		BuyerID:   userID,
		Amount:    req.Amount,
		IsPublic:  req.IsPublic,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toOfferResponse(offer))
}

// transition wraps the three status-change endpoints, which only differ in
// the service call.
func (h *OfferHandler) transition(apply func(application.OfferService, context.Context, uuid.UUID, uuid.UUID) (*domain.Offer, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := httpserver.UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		offerID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid offer id"})
		}

		offer, err := apply(h.service, c.Context(), offerID, userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(toOfferResponse(offer))
	}
}

func (h *OfferHandler) listOffers(c *fiber.Ctx) error {
	userID, err := httpserver.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid listing id"})
	}

	offers, err := h.service.ListOffersForListing(c.Context(), listingID, userID)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]offerResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, toOfferResponse(o))
	}
	return c.JSON(out)
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrOfferNotFound), errors.Is(err, listingdomain.ErrListingNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrNotOfferBuyer), errors.Is(err, listingdomain.ErrNotListingOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrOfferNotPending):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrInvalidOfferAmount),
		errors.Is(err, domain.ErrOfferOnOwnListing),
		errors.Is(err, listingdomain.ErrListingNotActive):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	default:
		log.Error("unhandled error in offer handler", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
