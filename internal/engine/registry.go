package engine

import (
	"errors"

	"main/internal/schema"
)

var (
	ErrDuplicateOrder     = errors.New("order already exists")
	ErrUnknownOrder       = errors.New("order not found")
	ErrTerminalOrder      = errors.New("order is in a terminal state")
	ErrInvalidFill        = errors.New("invalid fill quantity")
	ErrOrderNotCancelable = errors.New("order cannot be canceled")
)

// TrackedOrder is the kernel's view of an in-flight order.
type TrackedOrder struct {
	Order      schema.Order
	ExchangeID uint64
	LeavesQty  schema.Quantity
	Status     schema.OrderStatus
	SubmitTsNs int64
}

// Registry tracks order lifecycles and enforces terminal states: no fill or
// transition is accepted for a Rejected, Filled, or Canceled order id.
type Registry struct {
	orders map[string]*TrackedOrder
	nextID uint64
}

// NewRegistry creates an empty order registry.
func NewRegistry() *Registry {
	return &Registry{orders: make(map[string]*TrackedOrder)}
}

// Order returns the tracked state for an order id.
func (r *Registry) Order(id string) (*TrackedOrder, bool) {
	o, ok := r.orders[id]
	return o, ok
}

// Len returns the number of tracked orders.
func (r *Registry) Len() int {
	return len(r.orders)
}

// Submit registers a new order as Pending and assigns its exchange id from a
// monotonic counter.
func (r *Registry) Submit(order schema.Order, tsNs int64) (*TrackedOrder, error) {
	if order.OrderID == "" {
		return nil, ErrUnknownOrder
	}
	if _, ok := r.orders[order.OrderID]; ok {
		return nil, ErrDuplicateOrder
	}
	r.nextID++
	o := &TrackedOrder{
		Order:      order,
		ExchangeID: r.nextID,
		LeavesQty:  order.Qty,
		Status:     schema.OrderStatusPending,
		SubmitTsNs: tsNs,
	}
	r.orders[order.OrderID] = o
	return o, nil
}

// Accept moves a pending order to Accepted.
func (r *Registry) Accept(id string) (*TrackedOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.Status.Terminal() {
		return o, ErrTerminalOrder
	}
	o.Status = schema.OrderStatusAccepted
	return o, nil
}

// Reject moves an order to the terminal Rejected state.
func (r *Registry) Reject(id string) (*TrackedOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.Status.Terminal() {
		return o, ErrTerminalOrder
	}
	o.Status = schema.OrderStatusRejected
	return o, nil
}

// Cancel moves an accepted or partially filled order to Canceled.
func (r *Registry) Cancel(id string) (*TrackedOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	switch o.Status {
	case schema.OrderStatusAccepted, schema.OrderStatusPartFilled:
		o.Status = schema.OrderStatusCanceled
		return o, nil
	default:
		return o, ErrOrderNotCancelable
	}
}

// ApplyFill reduces the order's leaves quantity and advances it to
// PartiallyFilled or Filled.
func (r *Registry) ApplyFill(fill schema.Fill) (*TrackedOrder, error) {
	o, ok := r.orders[fill.OrderID]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.Status.Terminal() {
		return o, ErrTerminalOrder
	}
	qty := fill.Qty.Abs()
	if qty <= 0 {
		return o, ErrInvalidFill
	}
	if qty >= o.LeavesQty {
		o.LeavesQty = 0
		o.Status = schema.OrderStatusFilled
	} else {
		o.LeavesQty -= qty
		o.Status = schema.OrderStatusPartFilled
	}
	return o, nil
}
