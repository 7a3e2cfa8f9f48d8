package notifier

import (
	"fmt"
	"html"
	"strings"

	"StockAnalyzer/internal/analysis"
)

// FormatSignalAlert formats the latest signal of rep as a Telegram alert.
// It returns "" when rep carries no signal.
func FormatSignalAlert(rep *analysis.Report) string {
	sig := rep.LatestSignal
	if sig == nil {
		return ""
	}

	icon := "🟢"
	if sig.Type == "SELL" {
		icon = "🔴"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s\n\n", icon, sig.Type, html.EscapeString(rep.Symbol), sig.Date))
	b.WriteString(fmt.Sprintf("Price: %.2f\n", rep.CurrentPrice))
	b.WriteString(fmt.Sprintf("Strength: %s (confidence %s)\n\n", sig.Strength, sig.Confidence))

	b.WriteString("📈 <b>Reasons:</b>\n")
	for _, r := range sig.Reasons {
		b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(r)))
	}

	rm := rep.RiskManagement
	b.WriteString("\n🛡 <b>Risk:</b>\n")
	b.WriteString(fmt.Sprintf("  Stop loss: %s | Take profit: %s\n", nullMoney(rm.StopLoss.Valid, rm.StopLoss.Decimal.StringFixed(2)), nullMoney(rm.TakeProfit.Valid, rm.TakeProfit.Decimal.StringFixed(2))))
	b.WriteString(fmt.Sprintf("  Risk/reward: %s\n", rm.RiskRewardRatio))
	b.WriteString(fmt.Sprintf("  Position size: %s (account currency)\n", nullMoney(rm.PositionSize.Valid, rm.PositionSize.Decimal.StringFixed(2))))
	return b.String()
}

// FormatReport formats a condensed analysis for the /analyze command.
func FormatReport(rep *analysis.Report) string {
	ti := rep.TechnicalIndicators
	ta := rep.TrendAnalysis

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(rep.Symbol), rep.Date))
	b.WriteString(fmt.Sprintf("Price: %.2f\n", rep.CurrentPrice))
	b.WriteString(fmt.Sprintf("RSI: %s (%s)\n", value(ti.RSI), ti.RSISignal))
	b.WriteString(fmt.Sprintf("MACD: %s | Signal: %s (%s)\n", value(ti.MACD), value(ti.MACDSignal), ti.MACDTrend))
	b.WriteString(fmt.Sprintf("Stoch %%K/%%D: %s / %s\n", value(ti.StochK), value(ti.StochD)))
	b.WriteString(fmt.Sprintf("Williams %%R: %s | CCI: %s\n\n", value(ti.WilliamsR), value(ti.CCI)))

	b.WriteString(fmt.Sprintf("Trend: short %s, medium %s, long %s\n", ta.ShortTerm, ta.MediumTerm, ta.LongTerm))
	b.WriteString(fmt.Sprintf("Volatility: %s | Max drawdown: %s\n", rep.RiskManagement.Volatility, rep.RiskManagement.MaxDrawdown))

	if sig := rep.LatestSignal; sig != nil {
		b.WriteString(fmt.Sprintf("\nLatest signal: %s %s on %s (%s)\n", sig.Strength, sig.Type, sig.Date, sig.Confidence))
	} else {
		b.WriteString("\nNo signals in this period\n")
	}

	for _, w := range rep.Warnings {
		b.WriteString(fmt.Sprintf("⚠️ %s\n", html.EscapeString(w)))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "<b>Commands</b>\n" +
		"/analyze SYMBOL [PERIOD] - technical analysis (default period 1y)\n" +
		"/help - this message"
}

func value(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func nullMoney(valid bool, s string) string {
	if !valid {
		return "N/A"
	}
	return s
}
