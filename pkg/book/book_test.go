package book

import (
	"math"
	"testing"

	"github.com/cmorgan/bookfeed/pkg/models"
)

func delta(bids, asks []models.LevelUpdate) *models.BookDelta {
	return &models.BookDelta{Symbol: "BTCUSDT", Bids: bids, Asks: asks}
}

func TestApplyDelta_UpsertAndRemove(t *testing.T) {
	b := New()
	b.ApplyDelta(delta([]models.LevelUpdate{
		{Price: 100, Quantity: 2},
		{Price: 99, Quantity: 1},
	}, []models.LevelUpdate{
		{Price: 101, Quantity: 3},
	}))

	bids, asks := b.Depth()
	if bids != 2 || asks != 1 {
		t.Fatalf("expected depth 2/1, got %d/%d", bids, asks)
	}

	// Remove the 100 level and add 98 at qty 5.
	b.ApplyDelta(delta([]models.LevelUpdate{
		{Price: 100, Quantity: 0},
		{Price: 98, Quantity: 5},
	}, nil))

	rankedBids, rankedAsks, spread := b.Project()
	want := []models.RankedLevel{
		{Price: 99, Amount: 1, Total: 1},
		{Price: 98, Amount: 5, Total: 6},
	}
	if len(rankedBids) != len(want) {
		t.Fatalf("expected %d ranked bids, got %d", len(want), len(rankedBids))
	}
	for i, lvl := range want {
		if rankedBids[i] != lvl {
			t.Fatalf("ranked bid %d: expected %+v, got %+v", i, lvl, rankedBids[i])
		}
	}
	if len(rankedAsks) != 1 || rankedAsks[0].Price != 101 {
		t.Fatalf("unexpected ranked asks: %+v", rankedAsks)
	}
	if spread != 2 {
		t.Fatalf("expected spread 2, got %v", spread)
	}
}

func TestApplyDelta_RemovalOfAbsentPriceIsNoop(t *testing.T) {
	b := New()
	b.ApplyDelta(delta([]models.LevelUpdate{{Price: 100, Quantity: 0}}, nil))

	bids, asks := b.Depth()
	if bids != 0 || asks != 0 {
		t.Fatalf("expected empty book, got %d/%d levels", bids, asks)
	}
}

func TestApplyDelta_ReplacementSemantics(t *testing.T) {
	b := New()
	b.ApplyDelta(delta([]models.LevelUpdate{{Price: 100, Quantity: 2}}, nil))
	b.ApplyDelta(delta([]models.LevelUpdate{{Price: 100, Quantity: 7}}, nil))

	rankedBids, _, _ := b.Project()
	if len(rankedBids) != 1 {
		t.Fatalf("expected a single level, got %d", len(rankedBids))
	}
	if rankedBids[0].Amount != 7 {
		t.Fatalf("expected replacement quantity 7, got %v", rankedBids[0].Amount)
	}
}

func TestProject_CumulativeTotalsMonotonic(t *testing.T) {
	b := New()
	b.ApplyDelta(delta(
		[]models.LevelUpdate{
			{Price: 100, Quantity: 1.5},
			{Price: 99.5, Quantity: 0.25},
			{Price: 101, Quantity: 2},
			{Price: 98, Quantity: 4},
		},
		[]models.LevelUpdate{
			{Price: 102, Quantity: 0.5},
			{Price: 103, Quantity: 1},
			{Price: 102.5, Quantity: 3},
		},
	))

	rankedBids, rankedAsks, _ := b.Project()

	for i := 1; i < len(rankedBids); i++ {
		if rankedBids[i].Price >= rankedBids[i-1].Price {
			t.Fatalf("bids not strictly descending at rank %d", i)
		}
		if rankedBids[i].Total <= rankedBids[i-1].Total {
			t.Fatalf("bid totals not strictly increasing at rank %d", i)
		}
	}
	for i := 1; i < len(rankedAsks); i++ {
		if rankedAsks[i].Price <= rankedAsks[i-1].Price {
			t.Fatalf("asks not strictly ascending at rank %d", i)
		}
		if rankedAsks[i].Total <= rankedAsks[i-1].Total {
			t.Fatalf("ask totals not strictly increasing at rank %d", i)
		}
	}

	lastBid := rankedBids[len(rankedBids)-1]
	if math.Abs(lastBid.Total-7.75) > 1e-9 {
		t.Fatalf("expected final bid total 7.75, got %v", lastBid.Total)
	}
}

func TestProject_EmptySidesReportZeroSpread(t *testing.T) {
	b := New()
	if _, _, spread := b.Project(); spread != 0 {
		t.Fatalf("expected zero spread on empty book, got %v", spread)
	}

	b.ApplyDelta(delta([]models.LevelUpdate{{Price: 100, Quantity: 1}}, nil))
	if _, _, spread := b.Project(); spread != 0 {
		t.Fatalf("expected zero spread with one side empty, got %v", spread)
	}
}

func TestProject_CrossedBookReportsRawNegativeSpread(t *testing.T) {
	// The engine trusts the feed and performs no update-id gap check, so a
	// crossed book after a reconnect is possible. The raw negative spread is
	// passed through so the anomaly stays detectable.
	b := New()
	b.ApplyDelta(delta(
		[]models.LevelUpdate{{Price: 101, Quantity: 1}},
		[]models.LevelUpdate{{Price: 100, Quantity: 1}},
	))

	_, _, spread := b.Project()
	if spread != -1 {
		t.Fatalf("expected raw negative spread -1, got %v", spread)
	}
}

func TestReset_EmptiesBothSides(t *testing.T) {
	b := New()
	b.ApplyDelta(delta(
		[]models.LevelUpdate{{Price: 100, Quantity: 1}},
		[]models.LevelUpdate{{Price: 101, Quantity: 1}},
	))
	b.Reset()

	bids, asks := b.Depth()
	if bids != 0 || asks != 0 {
		t.Fatalf("expected empty book after reset, got %d/%d", bids, asks)
	}
}
