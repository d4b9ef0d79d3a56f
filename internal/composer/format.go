package composer

import (
	"strings"

	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

// sourceLabels are the display names of upstream providers
var sourceLabels = map[string]string{
	"binance":       "Binance",
	"coinmarketcap": "CoinMarketCap",
	"coingecko":     "CoinGecko",
	"cryptopanic":   "CryptoPanic",
}

func sourceLabel(name string) string {
	if l, ok := sourceLabels[name]; ok {
		return l
	}
	return name
}

// formatPrice renders a USD price with two decimals, or up to eight for
// sub-dollar assets.
func formatPrice(p float64) string {
	d := decimal.NewFromFloat(p)
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return "$" + group(d.StringFixed(2))
	}
	s := d.StringFixed(8)
	for strings.HasSuffix(s, "0") && len(s)-strings.IndexByte(s, '.') > 3 {
		s = strings.TrimSuffix(s, "0")
	}
	return "$" + s
}

// formatMarketCap renders a whole-dollar amount with thousands separators
func formatMarketCap(v float64) string {
	return "$" + group(decimal.NewFromFloat(v).StringFixed(0))
}

// formatAmount renders a conversion value with six decimals
func formatAmount(v float64) string {
	return group(decimal.NewFromFloat(v).StringFixed(6))
}

// group inserts thousands separators into the integer part of a decimal string
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
