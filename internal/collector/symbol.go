package collector

import (
	"fmt"
	"regexp"
	"strings"
)

// Quote currencies in detection priority.
var quoteCurrencies = []string{"USDT", "FDUSD", "USDC", "BUSD", "BTC", "ETH", "BNB"}

var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{2,20}$`)

var separators = strings.NewReplacer("-", "", "/", "", "_", "")

// NormalizeSymbol converts "btc", "BTC-USDT", "btc/usdt" and similar inputs
// to the exchange form "BTCUSDT".
func NormalizeSymbol(input string, defaultQuote string) string {
	if input == "" {
		return ""
	}

	s := separators.Replace(strings.ToUpper(input))
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return s
		}
	}
	return s + strings.ToUpper(defaultQuote)
}

// ParseSymbol splits a normalized symbol: "BTCUSDT" -> ("BTC", "USDT").
func ParseSymbol(symbol string) (base, quote string) {
	s := strings.ToUpper(symbol)
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q
		}
	}
	if len(s) > 4 {
		return s[:len(s)-4], s[len(s)-4:]
	}
	return s, ""
}

// FormatDisplay renders "BTCUSDT" as "BTC/USDT".
func FormatDisplay(symbol string) string {
	base, quote := ParseSymbol(symbol)
	if quote == "" {
		return base
	}
	return base + "/" + quote
}

// ValidateSymbol rejects symbols that cannot be safely placed in a query string.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 30 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(separators.Replace(symbol)) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}
