package tape

import (
	"testing"

	"github.com/cmorgan/bookfeed/pkg/models"
)

func TestAppend_NewestFirst(t *testing.T) {
	l := NewLog(10)
	l.Append(models.Trade{TradeID: 1})
	l.Append(models.Trade{TradeID: 2})
	l.Append(models.Trade{TradeID: 3})

	recent := l.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(recent))
	}
	for i, want := range []int64{3, 2, 1} {
		if recent[i].TradeID != want {
			t.Fatalf("position %d: expected trade %d, got %d", i, want, recent[i].TradeID)
		}
	}
}

func TestAppend_BoundedAtCapacity(t *testing.T) {
	l := NewLog(50)
	for i := 1; i <= 120; i++ {
		l.Append(models.Trade{TradeID: int64(i)})
	}

	recent := l.Recent()
	if len(recent) != 50 {
		t.Fatalf("expected exactly 50 trades, got %d", len(recent))
	}
	if recent[0].TradeID != 120 {
		t.Fatalf("expected newest trade 120 first, got %d", recent[0].TradeID)
	}
	if recent[49].TradeID != 71 {
		t.Fatalf("expected oldest retained trade 71, got %d", recent[49].TradeID)
	}
}

func TestNewLog_DefaultCapacity(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		l.Append(models.Trade{TradeID: int64(i)})
	}
	if l.Len() != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, l.Len())
	}
}

func TestRecent_SnapshotIsolation(t *testing.T) {
	l := NewLog(10)
	l.Append(models.Trade{TradeID: 1})

	snapshot := l.Recent()
	l.Append(models.Trade{TradeID: 2})

	if len(snapshot) != 1 || snapshot[0].TradeID != 1 {
		t.Fatalf("snapshot mutated by later append: %+v", snapshot)
	}
}

func TestReset_Empties(t *testing.T) {
	l := NewLog(10)
	l.Append(models.Trade{TradeID: 1})
	l.Reset()

	if l.Len() != 0 {
		t.Fatalf("expected empty log after reset, got %d", l.Len())
	}
	l.Append(models.Trade{TradeID: 2})
	if recent := l.Recent(); len(recent) != 1 || recent[0].TradeID != 2 {
		t.Fatalf("log unusable after reset: %+v", recent)
	}
}
