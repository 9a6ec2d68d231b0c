package schema

import (
	"strconv"
	"strings"
)

// TickKind describes what a market tick observed.
type TickKind uint8

const (
	TickUnknown TickKind = iota
	TickTrade
	TickBid
	TickAsk
	TickQuote
)

func (k TickKind) String() string {
	switch k {
	case TickTrade:
		return "trade"
	case TickBid:
		return "bid"
	case TickAsk:
		return "ask"
	case TickQuote:
		return "quote"
	default:
		return "unknown"
	}
}

// Tick is a single market observation.
type Tick struct {
	TsNs   int64
	Symbol string
	Price  Price
	Qty    Quantity
	Kind   TickKind
}

// Quote is a two-sided top-of-book update. One side may be absent (zero
// price and size); when both sides are present a crossed quote is still
// accepted, and the fill model trades against the touch without checking
// for crossing.
type Quote struct {
	TsNs   int64
	Symbol string
	BidPx  Price
	BidSz  Quantity
	AskPx  Price
	AskSz  Quantity
}

// Mid returns the quote midpoint, falling back to the present side when the
// other is empty. The second return is false when both sides are empty.
func (q Quote) Mid() (Price, bool) {
	switch {
	case q.BidPx > 0 && q.AskPx > 0:
		return (q.BidPx + q.AskPx) / 2, true
	case q.BidPx > 0:
		return q.BidPx, true
	case q.AskPx > 0:
		return q.AskPx, true
	default:
		return 0, false
	}
}

// OrderSide describes order direction.
type OrderSide uint16

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "buy"
	case OrderSideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderType describes order type.
type OrderType uint16

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "market"
	case OrderTypeLimit:
		return "limit"
	default:
		return "unknown"
	}
}

// TimeInForce describes order time-in-force.
type TimeInForce uint16

const (
	TimeInForceUnknown TimeInForce = iota
	TimeInForceGTC
	TimeInForceIOC
	TimeInForceFOK
)

// Order is a strategy-produced instruction, unique per OrderID within a run.
type Order struct {
	OrderID string
	Symbol  string
	Side    OrderSide
	Type    OrderType
	Qty     Quantity
	LimitPx Price
	TIF     TimeInForce
	TsNs    int64
}

// OrderStatus is the lifecycle state reported on acknowledgements.
type OrderStatus uint16

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusPending
	OrderStatusAccepted
	OrderStatusRejected
	OrderStatusPartFilled
	OrderStatusFilled
	OrderStatusCanceled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "pending"
	case OrderStatusAccepted:
		return "accepted"
	case OrderStatusRejected:
		return "rejected"
	case OrderStatusPartFilled:
		return "part_filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusRejected, OrderStatusFilled, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// OrderAck reports the outcome of an order submission or transition.
type OrderAck struct {
	OrderID    string
	ExchangeID uint64
	Symbol     string
	Status     OrderStatus
	TsNs       int64
	Reason     string
}

// Fill reports an execution. Qty is signed with the side of the order.
type Fill struct {
	OrderID    string
	ExchangeID uint64
	Symbol     string
	Qty        Quantity
	Price      Price
	LeavesQty  Quantity
	TsNs       int64
	Commission Price
}

// BookLevel is one price level; Size == 0 marks an empty level.
type BookLevel struct {
	Price Price
	Size  Quantity
}

// Empty reports whether the level holds no liquidity.
func (l BookLevel) Empty() bool {
	return l.Size == 0
}

// BookSnapshot is a point-in-time order book: bids descending, asks
// ascending by price.
type BookSnapshot struct {
	Symbol string
	TsNs   int64
	Bids   []BookLevel
	Asks   []BookLevel
}

// Order ids follow the grammar <PREFIX>_<SYMBOL>_<SEQ>. The portfolio relies
// on this to attribute fills to symbols when the fill itself carries none.

// SymbolFromOrderID extracts the symbol component of a conventional order id.
func SymbolFromOrderID(orderID string) (string, bool) {
	parts := strings.Split(orderID, "_")
	if len(parts) < 3 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// MakeOrderID assembles a conventional order id.
func MakeOrderID(prefix, symbol string, seq uint64) string {
	return prefix + "_" + symbol + "_" + strconv.FormatUint(seq, 10)
}
