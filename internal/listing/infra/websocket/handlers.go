package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cdexmarket/cdex/internal/listing/application"
	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/cdexmarket/cdex/internal/shared/logger"
	ws "github.com/cdexmarket/cdex/internal/shared/websocket"
	userdomain "github.com/cdexmarket/cdex/internal/user/domain"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// ListingWSHandler processes inbound websocket frames for the listing module
// and pushes listing updates back through the shared hub.
type ListingWSHandler struct {
	service application.ListingService
	users   userdomain.UserRepository
	hub     *ws.Hub
}

func NewListingWSHandler(service application.ListingService, users userdomain.UserRepository, hub *ws.Hub) *ListingWSHandler {
	return &ListingWSHandler{
		service: service,
		users:   users,
		hub:     hub,
	}
}

// Register mounts the websocket endpoint. Clients connect per listing:
// GET /ws/listings/:id (with the upgrade headers set).
func (h *ListingWSHandler) Register(ctx context.Context, app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/listings/:id", fiberws.New(func(conn *fiberws.Conn) {
		listingID := conn.Params("id")
		client := &ws.Client{
			Hub:       h.hub,
			Conn:      conn,
			Send:      make(chan []byte, 16),
			ListingID: listingID,
			ID:        uuid.NewString(),
		}
		h.hub.RegisterClient(client)
		h.sendInitialState(ctx, client)

		go client.WritePump(ctx)
		// ReadPump must run on this goroutine: fiberws closes the
		// connection when the handler returns.
		client.ReadPump(ctx)
	}))
}

// ListenForMessages consumes the hub's inbound channel until ctx is cancelled.
func (h *ListingWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("ListingWSHandler listening for inbound messages")
	for {
		select {
		case <-ctx.Done():
			log.Info("ListingWSHandler stopped")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

func (h *ListingWSHandler) processMessage(ctx context.Context, client *ws.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, "invalid message format", nil)
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBid(ctx, client, data)
	default:
		h.sendErrorToClient(client, "unknown message type", nil)
	}
}

func (h *ListingWSHandler) handleClientBid(ctx context.Context, client *ws.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendErrorToClient(client, "invalid bid message format", nil)
		return
	}

	if bidMsg.Payload.ListingID.String() != client.ListingID {
		h.sendErrorToClient(client, "listing ID mismatch", nil)
		return
	}

	// The socket carries the bidder ID in the payload, so confirm the
	// identity exists before acting on it.
	bidder, err := h.users.GetByID(ctx, bidMsg.Payload.BidderID)
	if err != nil || bidder == nil {
		h.sendErrorToClient(client, "unknown bidder", nil)
		return
	}

	_, err = h.service.SubmitBid(ctx, application.SubmitBidDTO{
		ListingID: bidMsg.Payload.ListingID,
		BidderID:  bidMsg.Payload.BidderID,
		Amount:    bidMsg.Payload.Amount,
	})
	if err != nil {
		// Rejections go back to the bidder only, with the minimum that
		// would have been accepted when the amount was the problem.
		var tooLow *domain.BidTooLowError
		if errors.As(err, &tooLow) {
			h.sendErrorToClient(client, tooLow.Error(), &tooLow.Minimum)
		} else {
			h.sendErrorToClient(client, err.Error(), nil)
		}
		return
	}

	h.broadcastListingState(ctx, bidMsg.Payload.ListingID, client)
}

func (h *ListingWSHandler) sendInitialState(ctx context.Context, client *ws.Client) {
	listingID, err := uuid.Parse(client.ListingID)
	if err != nil {
		h.sendErrorToClient(client, "invalid listing id", nil)
		return
	}
	state, err := h.service.GetListingState(ctx, listingID)
	if err != nil {
		h.sendErrorToClient(client, "failed to load listing state", nil)
		return
	}

	msg := ServerInitialStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerInitialState},
		Payload:     stateToPayload(state),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal initial state message", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full, dropping initial state",
			zap.String("clientID", client.ID))
	}
}

func (h *ListingWSHandler) broadcastListingState(ctx context.Context, listingID uuid.UUID, client *ws.Client) {
	state, err := h.service.GetListingState(ctx, listingID)
	if err != nil {
		h.sendErrorToClient(client, "failed to get updated listing state", nil)
		return
	}

	msg := ServerListingUpdateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerListingUpdate},
		Payload:     stateToPayload(state),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal listing update", zap.Error(err))
		return
	}
	h.hub.BroadcastToListing(listingID.String(), data)
}

func stateToPayload(state *application.ListingStateDTO) ListingStatePayload {
	return ListingStatePayload{
		ListingID:           state.ListingID,
		Kind:                state.Kind,
		Status:              state.Status,
		StartPrice:          state.StartPrice,
		BidIncrement:        state.BidIncrement,
		EndTime:             state.EndTime,
		CurrentHighestBid:   state.CurrentHighestBid,
		CurrentHighBidderID: state.CurrentHighBidderID,
		MinimumAcceptable:   state.MinimumAcceptable,
	}
}

func (h *ListingWSHandler) sendErrorToClient(client *ws.Client, errorMessage string, minimum *decimal.Decimal) {
	errMsg := ServerErrorMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerError},
	}
	errMsg.Payload.Error = errorMessage
	errMsg.Payload.MinimumAcceptable = minimum
	data, err := json.Marshal(errMsg)
	if err != nil {
		log.Error("failed to marshal ServerErrorMessage", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full or closed, could not send error msg")
	}
}
