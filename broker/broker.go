package broker

import (
	"context"
	"sort"

	"github.com/rustyeddy/tradier/tradier"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Broker is the brokerage surface the CLI drives. *tradier.Client
// implements it; tests substitute fakes.
type Broker interface {
	AccountID() string
	GetQuotes(ctx context.Context, symbols ...string) (*tradier.QuotesResponse, error)
	GetQuotesWithGreeks(ctx context.Context, symbols ...string) (*tradier.QuotesResponse, error)
	GetPositions(ctx context.Context) ([]tradier.Position, error)
	GetOrders(ctx context.Context, filter tradier.OrdersFilter) ([]tradier.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*tradier.Order, error)
	PlaceOrder(ctx context.Context, req tradier.OrderRequest) (*tradier.OrderAck, error)
	PreviewOrder(ctx context.Context, req tradier.OrderRequest) (*tradier.OrderPreview, error)
	ModifyOrder(ctx context.Context, req tradier.ModifyOrderRequest) (*tradier.OrderAck, error)
	CancelOrder(ctx context.Context, orderID int64) (*tradier.OrderAck, error)
	LookupOptionSymbols(ctx context.Context, underlying string) ([]tradier.OptionSymbols, error)
}

var _ Broker = (*tradier.Client)(nil)

// Holding is a position joined with its latest quote. Quote is nil when
// Tradier did not match the symbol.
type Holding struct {
	tradier.Position
	Quote *tradier.Quote
}

// MarketValue is quantity times last price, if there is a last price.
func (h Holding) MarketValue() (decimal.Decimal, bool) {
	if h.Quote == nil || !h.Quote.Last.Valid {
		return decimal.Zero, false
	}
	return h.Quantity.Mul(h.Quote.Last.Decimal), true
}

// GainLoss is MarketValue minus cost basis.
func (h Holding) GainLoss() (decimal.Decimal, bool) {
	mv, ok := h.MarketValue()
	if !ok {
		return decimal.Zero, false
	}
	return mv.Sub(h.CostBasis), true
}

// Account is a point in time view of one brokerage account.
type Account struct {
	ID         string
	Holdings   []Holding
	OpenOrders []tradier.Order
	Unmatched  []string
}

// MarketValue sums the holdings that could be priced.
func (a *Account) MarketValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range a.Holdings {
		if mv, ok := h.MarketValue(); ok {
			total = total.Add(mv)
		}
	}
	return total
}

// OpenOrders drops orders that reached a final status.
func OpenOrders(orders []tradier.Order) []tradier.Order {
	open := make([]tradier.Order, 0, len(orders))
	for _, o := range orders {
		if !o.Status.Final() {
			open = append(open, o)
		}
	}
	return open
}

// Snapshot fetches positions and orders concurrently, then prices the
// positions with a single quotes call. The first error cancels the rest.
func Snapshot(ctx context.Context, b Broker) (*Account, error) {
	var (
		positions []tradier.Position
		orders    []tradier.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positions, err = b.GetPositions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = b.GetOrders(gctx, tradier.OrdersFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	acct := &Account{
		ID:         b.AccountID(),
		Holdings:   make([]Holding, 0, len(positions)),
		OpenOrders: OpenOrders(orders),
		Unmatched:  []string{},
	}
	if len(positions) == 0 {
		return acct, nil
	}

	symbols := make([]string, 0, len(positions))
	seen := make(map[string]bool, len(positions))
	for _, p := range positions {
		if !seen[p.Symbol] {
			seen[p.Symbol] = true
			symbols = append(symbols, p.Symbol)
		}
	}
	sort.Strings(symbols)

	quotes, err := b.GetQuotes(ctx, symbols...)
	if err != nil {
		return nil, err
	}
	acct.Unmatched = quotes.UnmatchedSymbols

	for _, p := range positions {
		h := Holding{Position: p}
		if q, ok := quotes.Find(p.Symbol); ok {
			h.Quote = q
		}
		acct.Holdings = append(acct.Holdings, h)
	}
	return acct, nil
}
