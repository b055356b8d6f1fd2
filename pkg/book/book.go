// Package book maintains the reconstructed limit order book and derives
// ranked depth views from it.
package book

import (
	"sort"

	"github.com/cmorgan/bookfeed/pkg/models"
)

// Book holds the raw price levels for both sides. Keys are prices; the
// maps carry no ordering, that is a projection concern. Every stored
// level has Amount > 0.
//
// Book is not safe for concurrent use; the feed manager serializes all
// access.
type Book struct {
	bids map[float64]models.PriceLevel
	asks map[float64]models.PriceLevel
}

func New() *Book {
	return &Book{
		bids: make(map[float64]models.PriceLevel),
		asks: make(map[float64]models.PriceLevel),
	}
}

// ApplyDelta merges one depth delta into the book. Quantities are
// absolute replacements: zero removes the level (a no-op when absent),
// anything else overwrites the resting amount. Deltas must be applied in
// arrival order; each replaces state rather than diffing against it.
func (b *Book) ApplyDelta(delta *models.BookDelta) {
	applySide(b.bids, delta.Bids)
	applySide(b.asks, delta.Asks)
}

func applySide(side map[float64]models.PriceLevel, updates []models.LevelUpdate) {
	for _, u := range updates {
		if u.Quantity == 0 {
			delete(side, u.Price)
			continue
		}
		side[u.Price] = models.PriceLevel{Price: u.Price, Amount: u.Quantity}
	}
}

// Reset drops all levels on both sides.
func (b *Book) Reset() {
	b.bids = make(map[float64]models.PriceLevel)
	b.asks = make(map[float64]models.PriceLevel)
}

// Depth returns the current level counts per side.
func (b *Book) Depth() (bids, asks int) {
	return len(b.bids), len(b.asks)
}

// Project derives the ranked depth view: bids sorted descending and asks
// ascending by price, each with a running cumulative total, plus the
// spread between best ask and best bid. The view is recomputed fresh
// from the raw level maps on every call so it can never drift from
// state. A crossed book reports the raw negative spread rather than
// clamping, so feed anomalies stay visible downstream.
func (b *Book) Project() (rankedBids, rankedAsks []models.RankedLevel, spread float64) {
	rankedBids = rankSide(b.bids, func(x, y float64) bool { return x > y })
	rankedAsks = rankSide(b.asks, func(x, y float64) bool { return x < y })

	if len(rankedBids) > 0 && len(rankedAsks) > 0 {
		spread = rankedAsks[0].Price - rankedBids[0].Price
	}
	return rankedBids, rankedAsks, spread
}

func rankSide(side map[float64]models.PriceLevel, better func(x, y float64) bool) []models.RankedLevel {
	ranked := make([]models.RankedLevel, 0, len(side))
	for _, level := range side {
		ranked = append(ranked, models.RankedLevel{Price: level.Price, Amount: level.Amount})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return better(ranked[i].Price, ranked[j].Price)
	})

	var total float64
	for i := range ranked {
		total += ranked[i].Amount
		ranked[i].Total = total
	}
	return ranked
}
