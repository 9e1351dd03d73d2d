package tradier

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusOpen            OrderStatus = "open"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusFilled          OrderStatus = "filled"
	StatusExpired         OrderStatus = "expired"
	StatusCanceled        OrderStatus = "canceled"
	StatusPending         OrderStatus = "pending"
	StatusRejected        OrderStatus = "rejected"
	StatusError           OrderStatus = "error"
)

// Final reports whether the order can no longer be modified or canceled.
func (s OrderStatus) Final() bool {
	switch s {
	case StatusFilled, StatusExpired, StatusCanceled, StatusRejected, StatusError:
		return true
	}
	return false
}

func (s OrderStatus) valid() bool {
	switch s {
	case StatusOpen, StatusPartiallyFilled, StatusFilled, StatusExpired,
		StatusCanceled, StatusPending, StatusRejected, StatusError:
		return true
	}
	return false
}

type OrderClass string

const (
	ClassEquity   OrderClass = "equity"
	ClassOption   OrderClass = "option"
	ClassMultileg OrderClass = "multileg"
)

type OrderType string

const (
	TypeMarket    OrderType = "market"
	TypeLimit     OrderType = "limit"
	TypeStop      OrderType = "stop"
	TypeStopLimit OrderType = "stop_limit"
	TypeDebit     OrderType = "debit"
	TypeCredit    OrderType = "credit"
	TypeEven      OrderType = "even"
)

type Side string

const (
	SideBuy        Side = "buy"
	SideBuyToCover Side = "buy_to_cover"
	SideSell       Side = "sell"
	SideSellShort  Side = "sell_short"

	SideBuyToOpen   Side = "buy_to_open"
	SideBuyToClose  Side = "buy_to_close"
	SideSellToOpen  Side = "sell_to_open"
	SideSellToClose Side = "sell_to_close"
)

type Duration string

const (
	DurationDay  Duration = "day"
	DurationPre  Duration = "pre"
	DurationPost Duration = "post"
	DurationGTC  Duration = "gtc"
)

func (d Duration) valid() bool {
	switch d {
	case DurationDay, DurationPre, DurationPost, DurationGTC:
		return true
	}
	return false
}

var multilegStrategies = map[string]bool{
	"freeform":       true,
	"covered_call":   true,
	"protective_put": true,
	"strangle":       true,
	"straddle":       true,
	"spread":         true,
	"collar":         true,
	"butterfly":      true,
	"condor":         true,
	"unknown":        true,
}

// classRules is what each class allows for type and side.
type classRules struct {
	types map[OrderType]bool
	sides map[Side]bool
}

var (
	singleLegTypes = map[OrderType]bool{TypeMarket: true, TypeLimit: true, TypeStop: true, TypeStopLimit: true}
	multilegTypes  = map[OrderType]bool{TypeMarket: true, TypeDebit: true, TypeCredit: true, TypeEven: true}
	equitySides    = map[Side]bool{SideBuy: true, SideBuyToCover: true, SideSell: true, SideSellShort: true}
	optionSides    = map[Side]bool{SideBuyToOpen: true, SideBuyToClose: true, SideSellToOpen: true, SideSellToClose: true}

	rulesByClass = map[OrderClass]classRules{
		ClassEquity:   {types: singleLegTypes, sides: equitySides},
		ClassOption:   {types: singleLegTypes, sides: optionSides},
		ClassMultileg: {types: multilegTypes, sides: map[Side]bool{SideBuy: true}},
	}
)

// checkPriceFields enforces which price fields an order type carries.
// Requests name the stop price "stop", responses "stop_price".
func checkPriceFields(typ OrderType, hasPrice, hasStop bool, stopName string) error {
	var wantPrice, wantStop bool
	switch typ {
	case TypeMarket, TypeEven:
	case TypeLimit, TypeDebit, TypeCredit:
		wantPrice = true
	case TypeStop:
		wantStop = true
	case TypeStopLimit:
		wantPrice, wantStop = true, true
	default:
		return fmt.Errorf("unknown order type %q", typ)
	}

	switch {
	case wantPrice && !hasPrice:
		return fmt.Errorf("%s order should have price field", typ)
	case !wantPrice && hasPrice:
		return fmt.Errorf("%s order should not have price field", typ)
	case wantStop && !hasStop:
		return fmt.Errorf("%s order should have %s field", typ, stopName)
	case !wantStop && hasStop:
		return fmt.Errorf("%s order should not have %s field", typ, stopName)
	}
	return nil
}

// ValidateTag checks an order tag: at most 255 letters, digits and dashes.
func ValidateTag(tag string) error {
	if len(tag) > 255 {
		return fmt.Errorf("tag is too long: %d", len(tag))
	}
	for _, c := range tag {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-') {
			return fmt.Errorf("invalid character in tag: %c (%s)", c, tag)
		}
	}
	return nil
}

// Order is an order as reported by the account orders endpoints. Multileg
// orders carry their option legs in Legs; each leg repeats the overall
// order price in Price and its own fill in AvgFillPrice.
type Order struct {
	ID                int64               `json:"id"`
	Type              OrderType           `json:"type"`
	Symbol            string              `json:"symbol"`
	Side              Side                `json:"side"`
	Quantity          decimal.Decimal     `json:"quantity"`
	Status            OrderStatus         `json:"status"`
	Duration          Duration            `json:"duration"`
	Price             decimal.NullDecimal `json:"price"`
	StopPrice         decimal.NullDecimal `json:"stop_price"`
	AvgFillPrice      decimal.Decimal     `json:"avg_fill_price"`
	ExecQuantity      decimal.Decimal     `json:"exec_quantity"`
	LastFillPrice     decimal.Decimal     `json:"last_fill_price"`
	LastFillQuantity  decimal.Decimal     `json:"last_fill_quantity"`
	RemainingQuantity decimal.Decimal     `json:"remaining_quantity"`
	CreateDate        time.Time           `json:"create_date"`
	TransactionDate   time.Time           `json:"transaction_date"`
	Class             OrderClass          `json:"class"`
	OptionSymbol      string              `json:"option_symbol,omitempty"`
	NumLegs           int                 `json:"num_legs,omitempty"`
	Strategy          string              `json:"strategy,omitempty"`
	Legs              []Order             `json:"leg,omitempty"`
	ReasonDescription string              `json:"reason_description,omitempty"`
	Tag               string              `json:"tag,omitempty"`
}

func (o *Order) validate() error {
	if err := o.check(); err != nil {
		return &ValidationError{Type: "order", Reason: fmt.Sprintf("order %d", o.ID), Err: err}
	}
	return nil
}

func (o *Order) check() error {
	if o.ID <= 0 {
		return errors.New("id must be positive")
	}
	if strings.TrimSpace(o.Symbol) == "" {
		return errors.New("symbol is required")
	}
	if !o.Status.valid() {
		return fmt.Errorf("unknown status %q", o.Status)
	}
	if !o.Duration.valid() {
		return fmt.Errorf("unknown duration %q", o.Duration)
	}
	rules, ok := rulesByClass[o.Class]
	if !ok {
		return fmt.Errorf("unsupported order class %q", o.Class)
	}
	if !rules.types[o.Type] {
		return fmt.Errorf("type %q is not valid for %s orders", o.Type, o.Class)
	}
	if !rules.sides[o.Side] {
		return fmt.Errorf("side %q is not valid for %s orders", o.Side, o.Class)
	}
	if err := checkPriceFields(o.Type, o.Price.Valid, o.StopPrice.Valid, "stop_price"); err != nil {
		return err
	}
	if err := ValidateTag(o.Tag); err != nil {
		return err
	}

	switch o.Class {
	case ClassOption:
		if o.OptionSymbol == "" {
			return errors.New("option order is missing option_symbol")
		}
	case ClassMultileg:
		if !multilegStrategies[o.Strategy] {
			return fmt.Errorf("unknown multileg strategy %q", o.Strategy)
		}
		if len(o.Legs) == 0 {
			return errors.New("multileg order has no legs")
		}
		if o.NumLegs != 0 && o.NumLegs != len(o.Legs) {
			return fmt.Errorf("num_legs is %d but %d legs present", o.NumLegs, len(o.Legs))
		}
		for i := range o.Legs {
			if err := o.checkLeg(&o.Legs[i]); err != nil {
				return fmt.Errorf("leg %d: %w", i, err)
			}
		}
	}
	return nil
}

func (o *Order) checkLeg(leg *Order) error {
	if leg.Type != o.Type {
		return fmt.Errorf("each leg type must match root type: %q != %q", leg.Type, o.Type)
	}
	if leg.Class != "" && leg.Class != ClassOption {
		return fmt.Errorf("leg class %q is not option", leg.Class)
	}
	if !optionSides[leg.Side] {
		return fmt.Errorf("side %q is not valid for an option leg", leg.Side)
	}
	if leg.OptionSymbol == "" {
		return errors.New("leg is missing option_symbol")
	}
	if leg.Status != "" && !leg.Status.valid() {
		return fmt.Errorf("unknown status %q", leg.Status)
	}
	return checkPriceFields(leg.Type, leg.Price.Valid, leg.StopPrice.Valid, "stop_price")
}

type ordersResponse struct {
	Orders []Order
}

func (r *ordersResponse) UnmarshalJSON(b []byte) error {
	var w struct {
		Orders json.RawMessage `json:"orders"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Orders == nil {
		return errors.New(`missing "orders" key`)
	}
	orders, err := unwrapList[Order](w.Orders, "order")
	if err != nil {
		return errors.Wrap(err, "orders")
	}
	r.Orders = orders
	return nil
}

func (r *ordersResponse) validate() error {
	for i := range r.Orders {
		if err := r.Orders[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// orderResponse mirrors {"order": {...}} from the single order endpoint.
type orderResponse struct {
	Order *Order `json:"order"`
}

func (r *orderResponse) validate() error {
	if r.Order == nil {
		return invalid("order", `missing "order" key`)
	}
	return r.Order.validate()
}

// OrderAck is Tradier's reply to placing, modifying or canceling an order.
type OrderAck struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	PartnerID string `json:"partner_id,omitempty"`
}

type orderAckResponse struct {
	Order *OrderAck `json:"order"`
}

func (r *orderAckResponse) validate() error {
	switch {
	case r.Order == nil:
		return invalid("order ack", `missing "order" key`)
	case r.Order.ID <= 0:
		return invalid("order ack", "id must be positive, got %d", r.Order.ID)
	case r.Order.Status != "ok":
		return invalid("order ack", "status is %q, want ok", r.Order.Status)
	}
	return nil
}

// OrderPreview is the cost estimate Tradier returns for preview=true.
type OrderPreview struct {
	Status        string          `json:"status"`
	Result        bool            `json:"result"`
	Commission    decimal.Decimal `json:"commission"`
	Cost          decimal.Decimal `json:"cost"`
	Fees          decimal.Decimal `json:"fees"`
	OrderCost     decimal.Decimal `json:"order_cost"`
	MarginChange  decimal.Decimal `json:"margin_change"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	Side          Side            `json:"side,omitempty"`
	Type          OrderType       `json:"type"`
	Duration      Duration        `json:"duration"`
	Class         OrderClass      `json:"class"`
	Strategy      string          `json:"strategy,omitempty"`
	DayTrades     int             `json:"day_trades"`
	ExtendedHours bool            `json:"extended_hours"`
}

type orderPreviewResponse struct {
	Order *OrderPreview `json:"order"`
}

func (r *orderPreviewResponse) validate() error {
	switch {
	case r.Order == nil:
		return invalid("order preview", `missing "order" key`)
	case r.Order.Status != "ok":
		return invalid("order preview", "status is %q, want ok", r.Order.Status)
	}
	return nil
}
