package tradier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// SecurityType discriminates quotes.
type SecurityType string

const (
	SecurityStock      SecurityType = "stock"
	SecurityETF        SecurityType = "etf"
	SecurityIndex      SecurityType = "index"
	SecurityOption     SecurityType = "option"
	SecurityMutualFund SecurityType = "mutual_fund"
)

func (t SecurityType) valid() bool {
	switch t {
	case SecurityStock, SecurityETF, SecurityIndex, SecurityOption, SecurityMutualFund:
		return true
	}
	return false
}

// OptionType is put or call.
type OptionType string

const (
	Put  OptionType = "put"
	Call OptionType = "call"
)

// ExpirationType is the option series an expiration belongs to.
type ExpirationType string

const (
	ExpirationStandard   ExpirationType = "standard"
	ExpirationQuarterlys ExpirationType = "quarterlys"
	ExpirationWeeklys    ExpirationType = "weeklys"
	ExpirationEOM        ExpirationType = "eom"
)

// Greeks accompany option quotes requested with greeks=true.
type Greeks struct {
	Delta     float64 `json:"delta"`
	Gamma     float64 `json:"gamma"`
	Theta     float64 `json:"theta"`
	Vega      float64 `json:"vega"`
	Rho       float64 `json:"rho"`
	Phi       float64 `json:"phi"`
	BidIV     float64 `json:"bid_iv"`
	MidIV     float64 `json:"mid_iv"`
	AskIV     float64 `json:"ask_iv"`
	SmvVol    float64 `json:"smv_vol"`
	UpdatedAt string  `json:"updated_at"`
}

// Quote is a market quote for a stock, ETF, index, mutual fund or option.
// Price fields Tradier may leave null are NullDecimal.
type Quote struct {
	Symbol           string              `json:"symbol"`
	Description      string              `json:"description"`
	Exch             string              `json:"exch"`
	Type             SecurityType        `json:"type"`
	Last             decimal.NullDecimal `json:"last"`
	Change           decimal.NullDecimal `json:"change"`
	Volume           int64               `json:"volume"`
	Open             decimal.NullDecimal `json:"open"`
	High             decimal.NullDecimal `json:"high"`
	Low              decimal.NullDecimal `json:"low"`
	Close            decimal.NullDecimal `json:"close"`
	Bid              decimal.NullDecimal `json:"bid"`
	Ask              decimal.NullDecimal `json:"ask"`
	ChangePercentage decimal.NullDecimal `json:"change_percentage"`
	AverageVolume    int64               `json:"average_volume"`
	LastVolume       int64               `json:"last_volume"`
	TradeDate        Timestamp           `json:"trade_date"`
	PrevClose        decimal.NullDecimal `json:"prevclose"`
	Week52High       decimal.NullDecimal `json:"week_52_high"`
	Week52Low        decimal.NullDecimal `json:"week_52_low"`
	BidSize          int64               `json:"bidsize"`
	BidExch          string              `json:"bidexch"`
	BidDate          Timestamp           `json:"bid_date"`
	AskSize          int64               `json:"asksize"`
	AskExch          string              `json:"askexch"`
	AskDate          Timestamp           `json:"ask_date"`
	RootSymbols      string              `json:"root_symbols,omitempty"`

	// Option quotes only.
	Underlying     string              `json:"underlying,omitempty"`
	Strike         decimal.NullDecimal `json:"strike"`
	OpenInterest   int64               `json:"open_interest,omitempty"`
	ContractSize   int64               `json:"contract_size,omitempty"`
	ExpirationDate Date                `json:"expiration_date"`
	ExpirationType ExpirationType      `json:"expiration_type,omitempty"`
	OptionType     OptionType          `json:"option_type,omitempty"`
	RootSymbol     string              `json:"root_symbol,omitempty"`
	Greeks         *Greeks             `json:"greeks,omitempty"`
}

func (q *Quote) validate() error {
	if strings.TrimSpace(q.Symbol) == "" {
		return invalid("quote", "symbol is required")
	}
	if q.Type != "" && !q.Type.valid() {
		return invalid("quote", "%s: unknown security type %q", q.Symbol, q.Type)
	}
	if q.Type != SecurityOption {
		return nil
	}

	switch q.OptionType {
	case Put, Call:
	default:
		return invalid("quote", "%s: option_type %q is not put or call", q.Symbol, q.OptionType)
	}
	if q.RootSymbol == "" {
		return invalid("quote", "%s: option quote is missing root_symbol", q.Symbol)
	}
	if q.ExpirationDate.IsZero() {
		return invalid("quote", "%s: option quote is missing expiration_date", q.Symbol)
	}
	switch q.ExpirationType {
	case "":
		return invalid("quote", "%s: option quote is missing expiration_type", q.Symbol)
	case ExpirationStandard, ExpirationQuarterlys, ExpirationWeeklys, ExpirationEOM:
	default:
		return invalid("quote", "%s: unknown expiration_type %q", q.Symbol, q.ExpirationType)
	}
	return nil
}

// QuotesResponse is the result of a quotes lookup. Symbols Tradier did
// not recognise are listed rather than failing the whole call.
type QuotesResponse struct {
	Quotes           []Quote
	UnmatchedSymbols []string
}

type quotesWire struct {
	Quotes json.RawMessage `json:"quotes"`
}

type quotesBody struct {
	Quote     json.RawMessage `json:"quote"`
	Unmatched *struct {
		Symbol json.RawMessage `json:"symbol"`
	} `json:"unmatched_symbols"`
}

func (r *QuotesResponse) UnmarshalJSON(b []byte) error {
	var w quotesWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Quotes == nil {
		return errors.New(`missing "quotes" key`)
	}
	r.Quotes = []Quote{}
	r.UnmatchedSymbols = []string{}
	if isNullish(w.Quotes) {
		return nil
	}

	var body quotesBody
	if err := json.Unmarshal(w.Quotes, &body); err != nil {
		return err
	}
	quotes, err := oneOrMany[Quote](body.Quote)
	if err != nil {
		return errors.Wrap(err, "quote")
	}
	r.Quotes = quotes
	if body.Unmatched != nil {
		syms, err := oneOrMany[string](body.Unmatched.Symbol)
		if err != nil {
			return errors.Wrap(err, "unmatched_symbols")
		}
		r.UnmatchedSymbols = syms
	}
	return nil
}

func (r *QuotesResponse) validate() error {
	for i := range r.Quotes {
		if err := r.Quotes[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the quote for symbol, if present.
func (r *QuotesResponse) Find(symbol string) (*Quote, bool) {
	for i := range r.Quotes {
		if strings.EqualFold(r.Quotes[i].Symbol, symbol) {
			return &r.Quotes[i], true
		}
	}
	return nil, false
}

// GetQuotes fetches quotes for one or more symbols. Option symbols
// (OCC format) are accepted alongside equities.
func (c *Client) GetQuotes(ctx context.Context, symbols ...string) (*QuotesResponse, error) {
	return c.getQuotes(ctx, false, symbols)
}

// GetQuotesWithGreeks is GetQuotes with greeks attached to option quotes.
func (c *Client) GetQuotesWithGreeks(ctx context.Context, symbols ...string) (*QuotesResponse, error) {
	return c.getQuotes(ctx, true, symbols)
}

func (c *Client) getQuotes(ctx context.Context, greeks bool, symbols []string) (*QuotesResponse, error) {
	clean := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			clean = append(clean, s)
		}
	}
	if len(clean) == 0 {
		return nil, invalid("quotes request", "at least one symbol is required")
	}

	form := url.Values{}
	form.Set("symbols", strings.Join(clean, ","))
	if greeks {
		form.Set("greeks", "true")
	}

	body, err := c.do(ctx, call{method: http.MethodPost, path: "/markets/quotes", form: form})
	if err != nil {
		return nil, err
	}

	var resp QuotesResponse
	if err := decode("quotes", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetQuote fetches a single symbol. An unmatched symbol is a
// ValidationError since no quote can be returned.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	resp, err := c.GetQuotes(ctx, symbol)
	if err != nil {
		return nil, err
	}
	q, ok := resp.Find(strings.ToUpper(strings.TrimSpace(symbol)))
	if !ok {
		return nil, invalid("quote", "no quote returned for %s", symbol)
	}
	return q, nil
}
