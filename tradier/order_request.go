package tradier

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// TradeLinkURL is where StageOrderURL sends an order for review in
// Tradier's web dashboard.
const TradeLinkURL = "https://dash.tradier.com/tradelink"

const maxLegs = 4

var formEncoder = schema.NewEncoder()

// Leg is one option of a multileg order.
type Leg struct {
	OptionSymbol string
	Side         Side
	Quantity     int64
}

// OrderRequest describes an equity, option or multileg order to place.
// Price and Stop are sent with at most two decimals.
type OrderRequest struct {
	Class        OrderClass
	Symbol       string
	Side         Side
	Quantity     int64
	Type         OrderType
	Duration     Duration
	Price        decimal.NullDecimal
	Stop         decimal.NullDecimal
	OptionSymbol string
	Tag          string
	Legs         []Leg
}

// orderForm is the flat wire shape; legs are appended by index.
type orderForm struct {
	Class        string `schema:"class"`
	Symbol       string `schema:"symbol"`
	Side         string `schema:"side,omitempty"`
	Quantity     string `schema:"quantity,omitempty"`
	Type         string `schema:"type"`
	Duration     string `schema:"duration"`
	Price        string `schema:"price,omitempty"`
	Stop         string `schema:"stop,omitempty"`
	OptionSymbol string `schema:"option_symbol,omitempty"`
	Tag          string `schema:"tag,omitempty"`
}

// Validate checks the request against the rules Tradier applies, so bad
// orders fail locally as ValidationError.
func (r OrderRequest) Validate() error {
	if err := r.check(); err != nil {
		return &ValidationError{Type: "order request", Reason: "invalid order", Err: err}
	}
	return nil
}

func (r OrderRequest) check() error {
	rules, ok := rulesByClass[r.Class]
	if !ok {
		return fmt.Errorf("unsupported order class %q", r.Class)
	}
	if strings.TrimSpace(r.Symbol) == "" {
		return errors.New("symbol is required")
	}
	if !rules.types[r.Type] {
		return fmt.Errorf("type %q is not valid for %s orders", r.Type, r.Class)
	}
	if !r.Duration.valid() {
		return fmt.Errorf("unknown duration %q", r.Duration)
	}
	if err := checkPriceFields(r.Type, r.Price.Valid, r.Stop.Valid, "stop"); err != nil {
		return err
	}
	if r.Price.Valid && !hasCents(r.Price.Decimal) {
		return fmt.Errorf("price %s has more than two decimals", r.Price.Decimal)
	}
	if r.Stop.Valid {
		if r.Stop.Decimal.IsNegative() {
			return fmt.Errorf("stop %s is negative", r.Stop.Decimal)
		}
		if !hasCents(r.Stop.Decimal) {
			return fmt.Errorf("stop %s has more than two decimals", r.Stop.Decimal)
		}
	}
	if err := ValidateTag(r.Tag); err != nil {
		return err
	}

	if r.Class == ClassMultileg {
		return r.checkLegs()
	}

	if !rules.sides[r.Side] {
		return fmt.Errorf("side %q is not valid for %s orders", r.Side, r.Class)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", r.Quantity)
	}
	if r.Class == ClassOption && r.OptionSymbol == "" {
		return errors.New("option order requires option_symbol")
	}
	if len(r.Legs) > 0 {
		return fmt.Errorf("%s orders do not take legs", r.Class)
	}
	return nil
}

func (r OrderRequest) checkLegs() error {
	if len(r.Legs) < 2 || len(r.Legs) > maxLegs {
		return fmt.Errorf("multileg orders take 2 to %d legs, got %d", maxLegs, len(r.Legs))
	}
	for i, leg := range r.Legs {
		if leg.OptionSymbol == "" {
			return fmt.Errorf("leg %d missing option_symbol", i)
		}
		if !optionSides[leg.Side] {
			return fmt.Errorf("leg %d: side %q is not an option side", i, leg.Side)
		}
		if leg.Quantity <= 0 {
			return fmt.Errorf("leg %d: quantity must be positive, got %d", i, leg.Quantity)
		}
	}
	return nil
}

func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

func formatPrice(d decimal.Decimal) string {
	if d.Exponent() >= 0 {
		return d.String()
	}
	return d.StringFixed(2)
}

// Form validates the request and encodes it as Tradier's form body.
// Multileg legs are flattened to option_symbol[i], side[i], quantity[i].
func (r OrderRequest) Form() (url.Values, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	f := orderForm{
		Class:        string(r.Class),
		Symbol:       strings.ToUpper(strings.TrimSpace(r.Symbol)),
		Type:         string(r.Type),
		Duration:     string(r.Duration),
		OptionSymbol: r.OptionSymbol,
		Tag:          r.Tag,
	}
	if r.Class != ClassMultileg {
		f.Side = string(r.Side)
		f.Quantity = strconv.FormatInt(r.Quantity, 10)
	}
	if r.Price.Valid {
		f.Price = formatPrice(r.Price.Decimal)
	}
	if r.Stop.Valid {
		f.Stop = formatPrice(r.Stop.Decimal)
	}

	form := url.Values{}
	if err := formEncoder.Encode(&f, form); err != nil {
		return nil, errors.Wrap(err, "encode order form")
	}
	for i, leg := range r.Legs {
		form.Set(fmt.Sprintf("option_symbol[%d]", i), leg.OptionSymbol)
		form.Set(fmt.Sprintf("side[%d]", i), string(leg.Side))
		form.Set(fmt.Sprintf("quantity[%d]", i), strconv.FormatInt(leg.Quantity, 10))
	}
	return form, nil
}

// StageOrderURL returns a tradelink URL that opens the order, unsent, in
// Tradier's dashboard for manual review.
func StageOrderURL(r OrderRequest) (string, error) {
	form, err := r.Form()
	if err != nil {
		return "", err
	}
	return TradeLinkURL + "?" + form.Encode(), nil
}

// ModifyOrderRequest changes an open order. Only set fields are sent.
type ModifyOrderRequest struct {
	OrderID  int64
	Type     OrderType
	Duration Duration
	Price    decimal.NullDecimal
	Stop     decimal.NullDecimal
}

type modifyForm struct {
	Type     string `schema:"type,omitempty"`
	Duration string `schema:"duration,omitempty"`
	Price    string `schema:"price,omitempty"`
	Stop     string `schema:"stop,omitempty"`
}

func (r ModifyOrderRequest) Validate() error {
	if err := r.check(); err != nil {
		return &ValidationError{Type: "modify request", Reason: fmt.Sprintf("order %d", r.OrderID), Err: err}
	}
	return nil
}

func (r ModifyOrderRequest) check() error {
	if r.OrderID <= 0 {
		return fmt.Errorf("order id must be positive, got %d", r.OrderID)
	}
	if r.Type == "" && r.Duration == "" && !r.Price.Valid && !r.Stop.Valid {
		return errors.New("nothing to modify")
	}
	if r.Type != "" && !singleLegTypes[r.Type] && !multilegTypes[r.Type] {
		return fmt.Errorf("unknown order type %q", r.Type)
	}
	if r.Duration != "" && !r.Duration.valid() {
		return fmt.Errorf("unknown duration %q", r.Duration)
	}
	if r.Price.Valid && !hasCents(r.Price.Decimal) {
		return fmt.Errorf("price %s has more than two decimals", r.Price.Decimal)
	}
	if r.Stop.Valid && (r.Stop.Decimal.IsNegative() || !hasCents(r.Stop.Decimal)) {
		return fmt.Errorf("stop %s must be non-negative with at most two decimals", r.Stop.Decimal)
	}
	return nil
}

// Form validates and encodes the modification.
func (r ModifyOrderRequest) Form() (url.Values, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	f := modifyForm{
		Type:     string(r.Type),
		Duration: string(r.Duration),
	}
	if r.Price.Valid {
		f.Price = formatPrice(r.Price.Decimal)
	}
	if r.Stop.Valid {
		f.Stop = formatPrice(r.Stop.Decimal)
	}
	form := url.Values{}
	if err := formEncoder.Encode(&f, form); err != nil {
		return nil, errors.Wrap(err, "encode modify form")
	}
	return form, nil
}
