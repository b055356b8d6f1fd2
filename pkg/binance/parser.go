// Package binance decodes the Binance market data stream protocol into
// the engine's typed events.
package binance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cmorgan/bookfeed/pkg/models"
)

// ErrMalformedMessage marks a payload that could not be decoded. The
// message is dropped; the stream continues.
var ErrMalformedMessage = errors.New("malformed stream message")

const (
	eventTypeTrade       = "trade"
	eventTypeDepthUpdate = "depthUpdate"
)

// ParseMessage decodes one raw stream payload into at most one typed
// event. It accepts both the combined-stream envelope {stream, data} and
// a bare event object; dispatch is on the "e" event type tag either way.
// Unknown event types return (nil, nil, nil) so unrecognized streams are
// ignored rather than treated as errors.
func ParseMessage(raw []byte) (*models.Trade, *models.BookDelta, error) {
	var envelope streamEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	payload := raw
	if len(envelope.Data) > 0 {
		payload = envelope.Data
	}

	var header eventHeader
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch header.Event {
	case eventTypeTrade:
		trade, err := parseTrade(payload)
		return trade, nil, err
	case eventTypeDepthUpdate:
		delta, err := parseDepthUpdate(payload)
		return nil, delta, err
	default:
		return nil, nil, nil
	}
}

func parseTrade(payload []byte) (*models.Trade, error) {
	var event TradeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	price, err := strconv.ParseFloat(event.Price, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: trade price %q", ErrMalformedMessage, event.Price)
	}
	amount, err := strconv.ParseFloat(event.Quantity, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: trade quantity %q", ErrMalformedMessage, event.Quantity)
	}

	direction := models.TradeDirectionBuy
	if event.IsBuyerMaker {
		// The buyer was the resting maker, so the aggressor sold.
		direction = models.TradeDirectionSell
	}

	return &models.Trade{
		Symbol:    event.Symbol,
		TradeID:   event.TradeID,
		Price:     price,
		Amount:    amount,
		Time:      event.TradeTime,
		Direction: direction,
	}, nil
}

func parseDepthUpdate(payload []byte) (*models.BookDelta, error) {
	var event DepthUpdateEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	return &models.BookDelta{
		Symbol:        event.Symbol,
		EventTime:     event.EventTime,
		FirstUpdateID: event.FirstUpdateID,
		FinalUpdateID: event.FinalUpdateID,
		Bids:          parseLevelUpdates(event.Bids),
		Asks:          parseLevelUpdates(event.Asks),
	}, nil
}

// parseLevelUpdates converts [price, quantity] string pairs. Entries that
// fail to parse are skipped individually; the rest of the delta still
// applies.
func parseLevelUpdates(pairs [][]string) []models.LevelUpdate {
	updates := make([]models.LevelUpdate, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			continue
		}
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			continue
		}
		quantity, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			continue
		}
		updates = append(updates, models.LevelUpdate{Price: price, Quantity: quantity})
	}
	return updates
}

// StreamURL composes the combined trade and depth stream endpoint for a
// symbol, e.g. wss://stream.binance.com/stream?streams=btcusdt@trade/btcusdt@depth@100ms.
func StreamURL(baseURL, symbol, depthInterval string) string {
	s := strings.ToLower(symbol)
	return fmt.Sprintf("%s/stream?streams=%s@trade/%s@depth@%s", baseURL, s, s, depthInterval)
}
