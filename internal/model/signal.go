package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// SignalType is the direction of a trading signal. Hold is never
// materialized; a bar without a signal is an implicit hold.
type SignalType int

const (
	Buy SignalType = iota + 1
	Sell
)

func (t SignalType) String() string {
	switch t {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("SignalType(%d)", int(t))
	}
}

func (t SignalType) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// SignalStrength buckets the absolute rule score.
type SignalStrength int

const (
	Weak SignalStrength = iota + 1
	Moderate
	Strong
)

func (s SignalStrength) String() string {
	switch s {
	case Weak:
		return "WEAK"
	case Moderate:
		return "MODERATE"
	case Strong:
		return "STRONG"
	default:
		return fmt.Sprintf("SignalStrength(%d)", int(s))
	}
}

func (s SignalStrength) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// TradingSignal is one scored bar. Indicators holds the snapshot inputs
// (RSI, MACD, MACD_Signal, BB_Position, Stoch_K, Williams_R, CCI) that are
// defined at that bar; undefined ones are omitted, so the map can hold fewer
// than seven entries. Reasons lists the rules that fired, in rule order.
type TradingSignal struct {
	Time       time.Time          `json:"date"`
	Type       SignalType         `json:"type"`
	Strength   SignalStrength     `json:"strength"`
	Price      float64            `json:"price"`
	Score      int                `json:"score"`
	Indicators map[string]float64 `json:"indicators"`
	Reasons    []string           `json:"reasons"`
	Confidence float64            `json:"confidence"`
}
