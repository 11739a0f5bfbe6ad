package reasoning

import (
	"fmt"
	"strings"

	"StockGate/internal/domain/models"
)

const systemPrompt = `You are an equity analyst. Given quantitative market data you produce a single investment recommendation. Respond using exactly this format:

RECOMMENDATION: <Buy|Hold|Sell>
CONFIDENCE: <number 0-100>
REASONING:
<a few sentences of analysis>
KEY FACTORS:
- <factor>
- <factor>

Do not add any other sections.`

// buildPrompt embeds the quantitative series, never the raw user text, so
// the same inputs always produce the same prompt.
func buildPrompt(symbol *models.CanonicalSymbol, snap *models.MarketSnapshot, hist *models.HistoricalSeries) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze %s (%s).\n\n", symbol.DisplayName, symbol.Symbol)
	fmt.Fprintf(&b, "Current quote (as of %s):\n", snap.AsOf.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "  price: %.2f\n  daily high: %.2f\n  daily low: %.2f\n  volume: %.0f\n", snap.Price, snap.DailyHigh, snap.DailyLow, snap.Volume)
	if snap.Stale {
		fmt.Fprintf(&b, "  note: quote is stale, age %s\n", snap.Age().Round(1e9))
	}

	if hist != nil && len(hist.Candles) > 0 {
		first := hist.Candles[0]
		last := hist.Candles[len(hist.Candles)-1]
		change := 0.0
		if first.Close != 0 {
			change = (last.Close - first.Close) / first.Close * 100
		}
		high, low := first.High, first.Low
		for _, c := range hist.Candles {
			if c.High > high {
				high = c.High
			}
			if c.Low < low && c.Low > 0 {
				low = c.Low
			}
		}
		fmt.Fprintf(&b, "\nTrailing window (%s to %s, %d sessions):\n",
			first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), len(hist.Candles))
		fmt.Fprintf(&b, "  change: %+.2f%%\n  window high: %.2f\n  window low: %.2f\n", change, high, low)

		tail := hist.Candles
		if len(tail) > 10 {
			tail = tail[len(tail)-10:]
		}
		b.WriteString("  recent closes:")
		for _, c := range tail {
			fmt.Fprintf(&b, " %.2f", c.Close)
		}
		b.WriteString("\n")
	}

	return b.String()
}
