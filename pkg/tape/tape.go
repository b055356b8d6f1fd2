// Package tape keeps a bounded, most-recent-first log of tape prints.
package tape

import (
	"github.com/cmorgan/bookfeed/pkg/models"
)

// DefaultCapacity bounds the log when no explicit capacity is given.
const DefaultCapacity = 50

// Log is a bounded trade log, newest entry first, backed by a ring
// buffer so appends are O(1). It is not safe for concurrent use; the
// feed manager serializes all access.
type Log struct {
	capacity int
	trades   []models.Trade
	next     int
	size     int
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity: capacity,
		trades:   make([]models.Trade, capacity),
	}
}

// Append inserts a trade, silently dropping the oldest entry once the
// log is at capacity.
func (l *Log) Append(trade models.Trade) {
	l.trades[l.next] = trade
	l.next = (l.next + 1) % l.capacity
	if l.size < l.capacity {
		l.size++
	}
}

// Recent returns a snapshot copy of the log, newest first. The copy is
// never mutated by later appends.
func (l *Log) Recent() []models.Trade {
	out := make([]models.Trade, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.trades[(l.next-1-i+l.capacity)%l.capacity]
	}
	return out
}

// Reset empties the log. Called on a fresh subscribe only; the log
// survives transient reconnects to keep the tape continuous.
func (l *Log) Reset() {
	l.next = 0
	l.size = 0
}

func (l *Log) Len() int {
	return l.size
}
