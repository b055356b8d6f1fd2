package models

type TradeDirection string

const (
	TradeDirectionBuy  TradeDirection = "buy"
	TradeDirectionSell TradeDirection = "sell"
)

// Trade is a single tape print. Direction is the aggressor side: when the
// buyer was the resting maker, the aggressor was a seller.
type Trade struct {
	Symbol    string         `json:"symbol"`
	TradeID   int64          `json:"trade_id"`
	Price     float64        `json:"price"`
	Amount    float64        `json:"amount"`
	Time      int64          `json:"time"`
	Direction TradeDirection `json:"direction"`
}
