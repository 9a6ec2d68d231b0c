package options

import "time"

// Type distinguishes calls from puts.
type Type uint16

const (
	TypeUnknown Type = iota
	TypeCall
	TypePut
)

func (t Type) String() string {
	switch t {
	case TypeCall:
		return "call"
	case TypePut:
		return "put"
	default:
		return "unknown"
	}
}

// YearNanos is the number of nanoseconds in one 365.25-day year.
const YearNanos = int64(365.25 * 24 * float64(time.Hour))

// Contract identifies a single listed option.
type Contract struct {
	Ticker     string
	Underlying string
	Strike     float64
	ExpiryUTC  time.Time
	Type       Type
}

// YearsToExpiry returns the time to expiry in 365.25-day years, floored at 0.
func (c Contract) YearsToExpiry(nowNs int64) float64 {
	return YearsBetween(nowNs, c.ExpiryUTC.UnixNano())
}

// DaysToExpiry returns the whole days remaining until expiry, floored at 0.
func (c Contract) DaysToExpiry(nowNs int64) int {
	delta := c.ExpiryUTC.UnixNano() - nowNs
	if delta <= 0 {
		return 0
	}
	return int(delta / int64(24*time.Hour))
}

// YearsBetween converts a nanosecond interval into 365.25-day years.
func YearsBetween(fromNs, toNs int64) float64 {
	if toNs <= fromNs {
		return 0
	}
	return float64(toNs-fromNs) / float64(YearNanos)
}
