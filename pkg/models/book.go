package models

import (
	"time"
)

// PriceLevel is resting interest at a single price. A level only exists
// while Amount > 0; a zero-quantity update removes it from the book.
type PriceLevel struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// RankedLevel is a projected view of a price level with the running
// cumulative total of all levels at-or-better priced on its side.
type RankedLevel struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
	Total  float64 `json:"total"`
}

// LevelUpdate is one entry of a depth delta. Unlike PriceLevel, a
// LevelUpdate may carry Quantity == 0, which means removal.
type LevelUpdate struct {
	Price    float64
	Quantity float64
}

// BookDelta is an incremental depth update. Quantities are absolute
// replacements of the resting amount at each price, not increments.
type BookDelta struct {
	Symbol        string
	EventTime     int64
	FirstUpdateID int64
	FinalUpdateID int64
	Bids          []LevelUpdate
	Asks          []LevelUpdate
}

// BookSnapshot is a consistent, ranked view of both sides of the book.
type BookSnapshot struct {
	Symbol    string        `json:"symbol"`
	Bids      []RankedLevel `json:"bids"`
	Asks      []RankedLevel `json:"asks"`
	Spread    float64       `json:"spread"`
	Timestamp time.Time     `json:"timestamp"`
}
