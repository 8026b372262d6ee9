// Package models provides domain models for the trade ledger engine.
// All monetary values use shopspring/decimal — never float64 for money.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the side of an execution.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the opposing side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// PositionSide represents the direction of an open position.
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// PositionSideFor maps an unmatched execution side to a position direction.
func PositionSideFor(s Side) PositionSide {
	if s == SideBuy {
		return PositionLong
	}
	return PositionShort
}

// ExecutionSideFor maps a carried position direction back to the execution
// side it originated from, for re-seeding incremental runs.
func ExecutionSideFor(p PositionSide) Side {
	if p == PositionLong {
		return SideBuy
	}
	return SideSell
}

// RawExecution is one fill as reported by a broker export. Immutable once
// ingested. ExternalID is the broker's own identifier and doubles as the
// idempotency key and the tie-break when timestamps collide.
type RawExecution struct {
	Account    string
	ExternalID string
	Symbol     string
	Side       Side
	Quantity   int64
	Price      decimal.Decimal
	Commission decimal.Decimal
	ExecutedAt time.Time
}

// Lot is an unmatched quantity of one side of one symbol awaiting an
// opposing fill. Commission is the still-unallocated share of the
// originating execution's commission; it shrinks as the lot is consumed.
type Lot struct {
	Symbol     string
	Side       Side
	Remaining  int64
	Price      decimal.Decimal
	Commission decimal.Decimal
	ExecutedAt time.Time
	OriginID   string
}
