package analysis

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"StockAnalyzer/internal/calculator"
	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/risk"
)

const supportWindow = 20

// Report is the JSON analysis payload. Undefined numbers encode as null.
type Report struct {
	Symbol              string              `json:"symbol"`
	CurrentPrice        float64             `json:"current_price"`
	Date                string              `json:"date"`
	TechnicalIndicators TechnicalIndicators `json:"technical_indicators"`
	TrendAnalysis       TrendAnalysis       `json:"trend_analysis"`
	SupportResistance   SupportResistance   `json:"support_resistance"`
	LatestSignal        *SignalSummary      `json:"latest_signal,omitempty"`
	RiskManagement      RiskManagement      `json:"risk_management"`
	Performance         Performance         `json:"performance"`
	SignalHistory       []SignalEntry       `json:"signal_history"`
	DataSummary         DataSummary         `json:"data_summary"`
	Warnings            []string            `json:"warnings,omitempty"`
}

type TechnicalIndicators struct {
	RSI        *float64 `json:"RSI"`
	RSISignal  string   `json:"RSI_Signal"`
	MACD       *float64 `json:"MACD"`
	MACDSignal *float64 `json:"MACD_Signal"`
	MACDTrend  string   `json:"MACD_Trend"`
	BBPosition *float64 `json:"BB_Position"`
	StochK     *float64 `json:"Stoch_K"`
	StochD     *float64 `json:"Stoch_D"`
	WilliamsR  *float64 `json:"Williams_R"`
	CCI        *float64 `json:"CCI"`
	ATR        *float64 `json:"ATR"`
	Volatility *float64 `json:"Volatility"` // ATR as % of price
}

type TrendAnalysis struct {
	ShortTerm  string `json:"short_term"`
	MediumTerm string `json:"medium_term"`
	LongTerm   string `json:"long_term"`
}

type SupportResistance struct {
	Support    *float64 `json:"support"`
	Resistance *float64 `json:"resistance"`
	BBUpper    *float64 `json:"bb_upper"`
	BBLower    *float64 `json:"bb_lower"`
}

type SignalSummary struct {
	Date       string   `json:"date"`
	Type       string   `json:"type"`
	Strength   string   `json:"strength"`
	Confidence string   `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

type RiskManagement struct {
	StopLoss        decimal.NullDecimal `json:"stop_loss"`
	TakeProfit      decimal.NullDecimal `json:"take_profit"`
	RiskRewardRatio string              `json:"risk_reward_ratio"`
	PositionSize    decimal.NullDecimal `json:"position_size"`
	AccountBalance  decimal.Decimal     `json:"account_balance"`
	Volatility      string              `json:"volatility"`
	MaxDrawdown     string              `json:"max_drawdown"`
}

type Performance struct {
	SharpeRatio *float64 `json:"sharpe_ratio"`
	ValueAtRisk *float64 `json:"value_at_risk_95"`
}

type SignalEntry struct {
	Date       string   `json:"date"`
	Type       string   `json:"type"`
	Strength   string   `json:"strength"`
	Price      float64  `json:"price"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

type DataSummary struct {
	TotalRecords int `json:"total_records"`
	DateRange    struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_range"`
	PriceRange struct {
		High    decimal.Decimal `json:"high"`
		Low     decimal.Decimal `json:"low"`
		Current decimal.Decimal `json:"current"`
	} `json:"price_range"`
}

// BuildReport renders r for API clients. r must hold at least one bar.
func BuildReport(r *Result) *Report {
	aug := r.Series
	n := aug.Len()
	last := aug.Bars[n-1]
	at := func(name string) *float64 { return num(aug.Col(name)[n-1]) }

	rep := &Report{
		Symbol:       r.Symbol,
		CurrentPrice: last.Close,
		Date:         last.Time.Format(time.DateOnly),
		Warnings:     r.Warnings,
	}

	rsi, rsiOK := aug.Col(model.ColRSI).Last()
	macd, macdOK := aug.Col(model.ColMACD).Last()
	macdSig, sigOK := aug.Col(model.ColMACDSignal).Last()
	atr, _ := aug.Col(model.ColATR).Last()
	rep.TechnicalIndicators = TechnicalIndicators{
		RSI:        num(rsi),
		RSISignal:  rsiLabel(rsi, rsiOK, r.Params.RSIOversold, r.Params.RSIOverbought),
		MACD:       num(macd),
		MACDSignal: num(macdSig),
		MACDTrend:  trend(macd, macdSig, macdOK && sigOK),
		BBPosition: num(calculator.BBPosition(aug)[n-1]),
		StochK:     at(model.ColStochK),
		StochD:     at(model.ColStochD),
		WilliamsR:  at(model.ColWilliamsR),
		CCI:        at(model.ColCCI),
		ATR:        at(model.ColATR),
		Volatility: num(atr / last.Close * 100),
	}

	rep.TrendAnalysis = TrendAnalysis{
		ShortTerm:  compare(aug, n-1, "", model.ColSMA20),
		MediumTerm: compare(aug, n-1, model.ColSMA20, model.ColSMA50),
		LongTerm:   compare(aug, n-1, model.ColSMA50, model.ColSMA200),
	}

	ps := model.PriceSeries{Bars: aug.Bars}
	rep.SupportResistance = SupportResistance{
		Support:    num(calculator.RollingMin(ps.Lows(), supportWindow)[n-1]),
		Resistance: num(calculator.RollingMax(ps.Highs(), supportWindow)[n-1]),
		BBUpper:    at(model.ColBBUpper),
		BBLower:    at(model.ColBBLower),
	}

	if sig := r.LatestSignal(); sig != nil {
		rep.LatestSignal = &SignalSummary{
			Date:       sig.Time.Format(time.DateOnly),
			Type:       sig.Type.String(),
			Strength:   sig.Strength.String(),
			Confidence: percent(sig.Confidence),
			Reasons:    sig.Reasons,
		}
	}

	rs := r.Risk
	rep.RiskManagement = RiskManagement{
		StopLoss:        money(rs.StopLoss),
		TakeProfit:      money(rs.TakeProfit),
		RiskRewardRatio: ratio(rs.RiskRewardRatio),
		PositionSize:    money(rs.PositionSize),
		AccountBalance:  decimal.NewFromFloat(r.Balance).Round(2),
		Volatility:      percent(rs.Volatility),
		MaxDrawdown:     percent(rs.MaxDrawdown),
	}

	returns := aug.Col(model.ColReturns)
	rep.Performance = Performance{
		SharpeRatio: num(risk.SharpeRatio(returns, risk.RiskFreeRate)),
		ValueAtRisk: num(risk.ValueAtRisk(returns, risk.VaRLevel)),
	}

	rep.SignalHistory = make([]SignalEntry, 0, len(r.Signals))
	for _, s := range r.Signals {
		rep.SignalHistory = append(rep.SignalHistory, SignalEntry{
			Date:       s.Time.Format(time.RFC3339),
			Type:       s.Type.String(),
			Strength:   s.Strength.String(),
			Price:      s.Price,
			Confidence: s.Confidence,
			Reasons:    s.Reasons,
		})
	}

	rep.DataSummary.TotalRecords = n
	rep.DataSummary.DateRange.Start = aug.Bars[0].Time.Format(time.RFC3339)
	rep.DataSummary.DateRange.End = last.Time.Format(time.RFC3339)
	hi, lo := aug.Bars[0].High, aug.Bars[0].Low
	for _, b := range aug.Bars {
		hi = max(hi, b.High)
		lo = min(lo, b.Low)
	}
	rep.DataSummary.PriceRange.High = decimal.NewFromFloat(hi).Round(2)
	rep.DataSummary.PriceRange.Low = decimal.NewFromFloat(lo).Round(2)
	rep.DataSummary.PriceRange.Current = decimal.NewFromFloat(last.Close).Round(2)
	return rep
}

// ChartRow is one bar with the columns a price chart draws.
type ChartRow struct {
	Date          string   `json:"Date"`
	Open          float64  `json:"Open"`
	High          float64  `json:"High"`
	Low           float64  `json:"Low"`
	Close         float64  `json:"Close"`
	Volume        float64  `json:"Volume"`
	SMA20         *float64 `json:"SMA_20"`
	SMA50         *float64 `json:"SMA_50"`
	BBUpper       *float64 `json:"BB_Upper"`
	BBLower       *float64 `json:"BB_Lower"`
	RSI           *float64 `json:"RSI"`
	MACD          *float64 `json:"MACD"`
	MACDSignal    *float64 `json:"MACD_Signal"`
	MACDHistogram *float64 `json:"MACD_Histogram"`
}

// ChartData returns one row per bar in time order.
func ChartData(aug *model.AugmentedSeries) []ChartRow {
	rows := make([]ChartRow, aug.Len())
	col := func(name string, i int) *float64 { return num(aug.Col(name)[i]) }
	for i, b := range aug.Bars {
		rows[i] = ChartRow{
			Date:          b.Time.Format(time.RFC3339),
			Open:          b.Open,
			High:          b.High,
			Low:           b.Low,
			Close:         b.Close,
			Volume:        b.Volume,
			SMA20:         col(model.ColSMA20, i),
			SMA50:         col(model.ColSMA50, i),
			BBUpper:       col(model.ColBBUpper, i),
			BBLower:       col(model.ColBBLower, i),
			RSI:           col(model.ColRSI, i),
			MACD:          col(model.ColMACD, i),
			MACDSignal:    col(model.ColMACDSignal, i),
			MACDHistogram: col(model.ColMACDHistogram, i),
		}
	}
	return rows
}

func num(v float64) *float64 {
	if !model.IsDefined(v) {
		return nil
	}
	return &v
}

func money(v float64) decimal.NullDecimal {
	if !model.IsDefined(v) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(2))
}

// percent formats a fraction as "62.5%".
func percent(v float64) string {
	if !model.IsDefined(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

func ratio(v float64) string {
	if !model.IsDefined(v) {
		return "N/A"
	}
	return fmt.Sprintf("1:%.1f", v)
}

func rsiLabel(v float64, ok bool, oversold, overbought float64) string {
	switch {
	case !ok:
		return "Unknown"
	case v < oversold:
		return "Oversold"
	case v > overbought:
		return "Overbought"
	default:
		return "Neutral"
	}
}

func trend(a, b float64, ok bool) string {
	switch {
	case !ok:
		return "Unknown"
	case a > b:
		return "Bullish"
	default:
		return "Bearish"
	}
}

// compare labels column a against column b at i. An empty a means the close.
func compare(aug *model.AugmentedSeries, i int, a, b string) string {
	var av float64
	aOK := true
	if a == "" {
		av = aug.Bars[i].Close
	} else {
		av, aOK = aug.Col(a).At(i)
	}
	bv, bOK := aug.Col(b).At(i)
	return trend(av, bv, aOK && bOK)
}
