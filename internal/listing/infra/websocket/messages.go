package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MessageType identifies a websocket frame.
type MessageType string

const (
	MessageTypeClientBid           MessageType = "client_bid"            // client places a bid
	MessageTypeServerListingUpdate MessageType = "server_listing_update" // server pushes new listing state
	MessageTypeServerError         MessageType = "server_error"          // server reports an error to one client
	MessageTypeServerInitialState  MessageType = "server_initial_state"  // listing state sent on connect
)

// BaseMessage is embedded by every websocket message; Type drives dispatch.
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is a bid submitted over the socket.
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		ListingID uuid.UUID       `json:"listing_id"`
		BidderID  uuid.UUID       `json:"bidder_id"`
		Amount    decimal.Decimal `json:"amount"`
	} `json:"payload"`
}

// ListingStatePayload is the listing snapshot shared by update and
// initial-state messages.
type ListingStatePayload struct {
	ListingID           uuid.UUID        `json:"listing_id"`
	Kind                string           `json:"kind"`
	Status              string           `json:"status"`
	StartPrice          decimal.Decimal  `json:"start_price"`
	BidIncrement        decimal.Decimal  `json:"bid_increment"`
	EndTime             *time.Time       `json:"end_time,omitempty"`
	CurrentHighestBid   *decimal.Decimal `json:"current_highest_bid,omitempty"`
	CurrentHighBidderID *uuid.UUID       `json:"current_high_bidder_id,omitempty"`
	MinimumAcceptable   decimal.Decimal  `json:"minimum_acceptable_bid"`
}

type ServerListingUpdateMessage struct {
	BaseMessage
	Payload ListingStatePayload `json:"payload"`
}

type ServerInitialStateMessage struct {
	BaseMessage
	Payload ListingStatePayload `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Error             string           `json:"error"`
		MinimumAcceptable *decimal.Decimal `json:"minimum_acceptable_bid,omitempty"`
	} `json:"payload"`
}
