package options

import (
	"fmt"
	"strconv"
	"time"
)

// Option tickers use the OCC-style packed encoding
// <UNDERLYING><YYMMDD><C|P><strike*1000, 8 digits>, e.g. SPY240621C00450000.
const (
	tickerDateLen   = 6
	tickerStrikeLen = 8
	tickerMinLen    = 1 + tickerDateLen + 1 + tickerStrikeLen
)

// FormatTicker packs a contract into its OCC-style ticker.
func FormatTicker(underlying string, expiry time.Time, optType Type, strike float64) string {
	cp := byte('C')
	if optType == TypePut {
		cp = 'P'
	}
	return fmt.Sprintf("%s%s%c%08d", underlying, expiry.UTC().Format("060102"), cp, int64(strike*1000+0.5))
}

// ParseTicker unpacks an OCC-style ticker into a contract. Expiry resolves to
// 21:00 UTC (16:00 New York close) on the encoded date.
func ParseTicker(ticker string) (Contract, error) {
	if len(ticker) < tickerMinLen {
		return Contract{}, fmt.Errorf("option ticker too short: %q", ticker)
	}

	strikePart := ticker[len(ticker)-tickerStrikeLen:]
	cp := ticker[len(ticker)-tickerStrikeLen-1]
	datePart := ticker[len(ticker)-tickerStrikeLen-1-tickerDateLen : len(ticker)-tickerStrikeLen-1]
	underlying := ticker[:len(ticker)-tickerStrikeLen-1-tickerDateLen]

	if underlying == "" {
		return Contract{}, fmt.Errorf("option ticker missing underlying: %q", ticker)
	}

	var optType Type
	switch cp {
	case 'C':
		optType = TypeCall
	case 'P':
		optType = TypePut
	default:
		return Contract{}, fmt.Errorf("option ticker type must be C or P: %q", ticker)
	}

	expiryDate, err := time.Parse("060102", datePart)
	if err != nil {
		return Contract{}, fmt.Errorf("option ticker date invalid: %q", ticker)
	}
	expiry := time.Date(expiryDate.Year(), expiryDate.Month(), expiryDate.Day(), 21, 0, 0, 0, time.UTC)

	strikeMilli, err := strconv.ParseInt(strikePart, 10, 64)
	if err != nil || strikeMilli <= 0 {
		return Contract{}, fmt.Errorf("option ticker strike invalid: %q", ticker)
	}

	return Contract{
		Ticker:     ticker,
		Underlying: underlying,
		Strike:     float64(strikeMilli) / 1000,
		ExpiryUTC:  expiry,
		Type:       optType,
	}, nil
}

// IsOptionTicker reports whether the symbol parses as an OCC-style ticker.
func IsOptionTicker(symbol string) bool {
	_, err := ParseTicker(symbol)
	return err == nil
}
