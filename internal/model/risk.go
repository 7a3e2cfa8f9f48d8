package model

// RiskSnapshot is computed once from the final bar of a series.
// Fields hold Undefined when the inputs are degenerate.
type RiskSnapshot struct {
	Price           float64
	ATR             float64
	StopLoss        float64
	TakeProfit      float64
	RiskRewardRatio float64
	PositionSize    float64
	MaxDrawdown     float64
	Volatility      float64
}
