package binance

import (
	"encoding/json"
)

// streamEnvelope is the combined-stream wrapper. Events may also arrive
// bare, without the wrapper, when connecting to a raw stream endpoint.
type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// eventHeader carries just enough to dispatch on the event type tag.
// EventTime must be declared alongside it: encoding/json matches keys
// case-insensitively, so without an exact "E" target the numeric event
// time would bind to the "e" string field and fail to unmarshal.
type eventHeader struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
}

// TradeEvent is the @trade stream payload.
type TradeEvent struct {
	Event         string `json:"e"`
	EventTime     int64  `json:"E"`
	Symbol        string `json:"s"`
	TradeID       int64  `json:"t"`
	Price         string `json:"p"`
	Quantity      string `json:"q"`
	BuyerOrderID  int64  `json:"b"`
	SellerOrderID int64  `json:"a"`
	TradeTime     int64  `json:"T"`
	IsBuyerMaker  bool   `json:"m"`
	Ignore        bool   `json:"M"`
}

// DepthUpdateEvent is the @depth stream payload. Bids and asks are lists
// of [price, quantity] string pairs.
type DepthUpdateEvent struct {
	Event         string     `json:"e"`
	EventTime     int64      `json:"E"`
	Symbol        string     `json:"s"`
	FirstUpdateID int64      `json:"U"`
	FinalUpdateID int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}
