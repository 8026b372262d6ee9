package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchedTrade is a closed round trip: a BUY lot consumed against a SELL lot
// of the same symbol. BuyPrice/BuyTime always refer to the BUY-side execution
// regardless of which side arrived first, so profit keeps a consistent sign
// for long (buy then sell) and short (sell then buy) round trips.
type MatchedTrade struct {
	Account      string
	Symbol       string
	Quantity     int64
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal
	BuyTime      time.Time
	SellTime     time.Time
	Profit       decimal.Decimal
	Commission   decimal.Decimal
	BuyOriginID  string
	SellOriginID string
	HoldDuration time.Duration
}

// OpenPosition is a lot that never found a full opposing match by the end of
// a run. It carries no realized P&L.
type OpenPosition struct {
	Account    string
	Symbol     string
	Side       PositionSide
	Quantity   int64
	Price      decimal.Decimal
	Commission decimal.Decimal
	OpenedAt   time.Time
	OriginID   string
}
