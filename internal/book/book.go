package book

import "main/internal/schema"

// State is the per-symbol top of book the kernel maintains from ticks and
// quote updates.
type State struct {
	Symbol       string
	BestBid      schema.BookLevel
	BestAsk      schema.BookLevel
	LastUpdateNs int64
}

// HasBid reports whether the bid side holds liquidity.
func (s *State) HasBid() bool {
	return s.BestBid.Size > 0 && s.BestBid.Price > 0
}

// HasAsk reports whether the ask side holds liquidity.
func (s *State) HasAsk() bool {
	return s.BestAsk.Size > 0 && s.BestAsk.Price > 0
}

// Empty reports whether neither side holds liquidity.
func (s *State) Empty() bool {
	return !s.HasBid() && !s.HasAsk()
}

// ApplyTick folds a market tick into the book. Trades leave the book levels
// alone; bid and ask ticks replace their side as a synthetic single level.
func (s *State) ApplyTick(tick schema.Tick) {
	switch tick.Kind {
	case schema.TickBid:
		s.BestBid = schema.BookLevel{Price: tick.Price, Size: tick.Qty}
	case schema.TickAsk:
		s.BestAsk = schema.BookLevel{Price: tick.Price, Size: tick.Qty}
	}
	s.LastUpdateNs = tick.TsNs
}

// ApplyQuote overwrites both sides from a quote update.
func (s *State) ApplyQuote(quote schema.Quote) {
	s.BestBid = schema.BookLevel{Price: quote.BidPx, Size: quote.BidSz}
	s.BestAsk = schema.BookLevel{Price: quote.AskPx, Size: quote.AskSz}
	s.LastUpdateNs = quote.TsNs
}

// Crossed reports a bid above the ask. Crossed books are kept as received;
// downstream consumers decide whether to trade against them.
func (s *State) Crossed() bool {
	return s.HasBid() && s.HasAsk() && s.BestBid.Price > s.BestAsk.Price
}

// Snapshot renders the state as a one-level book snapshot.
func (s *State) Snapshot() schema.BookSnapshot {
	snap := schema.BookSnapshot{Symbol: s.Symbol, TsNs: s.LastUpdateNs}
	if s.HasBid() {
		snap.Bids = []schema.BookLevel{s.BestBid}
	}
	if s.HasAsk() {
		snap.Asks = []schema.BookLevel{s.BestAsk}
	}
	return snap
}

// Map holds book state per symbol. Lookups never allocate once a symbol has
// been touched; Preallocate primes the map for a known symbol set.
type Map struct {
	states map[string]*State
}

// NewMap creates an empty book map.
func NewMap() *Map {
	return &Map{states: make(map[string]*State)}
}

// Preallocate inserts empty states for the given symbols.
func (m *Map) Preallocate(symbols []string) {
	for _, symbol := range symbols {
		if _, ok := m.states[symbol]; !ok {
			m.states[symbol] = &State{Symbol: symbol}
		}
	}
}

// Get returns the state for symbol, creating it when unseen.
func (m *Map) Get(symbol string) *State {
	if state, ok := m.states[symbol]; ok {
		return state
	}
	state := &State{Symbol: symbol}
	m.states[symbol] = state
	return state
}

// Lookup returns the state for symbol without creating it.
func (m *Map) Lookup(symbol string) (*State, bool) {
	state, ok := m.states[symbol]
	return state, ok
}

// Len returns the number of tracked symbols.
func (m *Map) Len() int {
	return len(m.states)
}
