package tradier

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func spreadRequest() OrderRequest {
	return OrderRequest{
		Class:    ClassMultileg,
		Symbol:   "SPY",
		Type:     TypeDebit,
		Duration: DurationDay,
		Price:    price("1.25"),
		Tag:      "spread-1",
		Legs: []Leg{
			{OptionSymbol: "SPY240621C00500000", Side: SideBuyToOpen, Quantity: 1},
			{OptionSymbol: "SPY240621C00510000", Side: SideSellToOpen, Quantity: 1},
		},
	}
}

func TestOrderRequestValidate(t *testing.T) {
	equity := OrderRequest{Class: ClassEquity, Symbol: "AAPL", Side: SideBuy, Quantity: 1, Type: TypeMarket, Duration: DurationDay}

	tests := []struct {
		name    string
		mutate  func(r *OrderRequest)
		wantErr string
	}{
		{"valid market", func(r *OrderRequest) {}, ""},
		{"valid stop limit", func(r *OrderRequest) {
			r.Type, r.Price, r.Stop = TypeStopLimit, price("10.5"), price("10")
		}, ""},
		{"unknown class", func(r *OrderRequest) { r.Class = "combo" }, "unsupported order class"},
		{"missing symbol", func(r *OrderRequest) { r.Symbol = " " }, "symbol is required"},
		{"multileg type on equity", func(r *OrderRequest) { r.Type = TypeDebit; r.Price = price("1") }, "not valid for equity"},
		{"bad duration", func(r *OrderRequest) { r.Duration = "week" }, "unknown duration"},
		{"market with price", func(r *OrderRequest) { r.Price = price("1") }, "should not have price"},
		{"stop without stop", func(r *OrderRequest) { r.Type = TypeStop }, "should have stop field"},
		{"limit with stop", func(r *OrderRequest) { r.Type, r.Price, r.Stop = TypeLimit, price("1"), price("2") }, "should not have stop"},
		{"sub-cent price", func(r *OrderRequest) { r.Type, r.Price = TypeLimit, price("1.005") }, "more than two decimals"},
		{"negative stop", func(r *OrderRequest) { r.Type, r.Stop = TypeStop, price("-1") }, "negative"},
		{"option side on equity", func(r *OrderRequest) { r.Side = SideSellToClose }, "side"},
		{"zero quantity", func(r *OrderRequest) { r.Quantity = 0 }, "quantity must be positive"},
		{"bad tag", func(r *OrderRequest) { r.Tag = "has space" }, "invalid character in tag"},
		{"long tag", func(r *OrderRequest) { r.Tag = strings.Repeat("a", 256) }, "tag is too long"},
		{"legs on equity", func(r *OrderRequest) { r.Legs = []Leg{{}} }, "do not take legs"},
		{"option without symbol", func(r *OrderRequest) { r.Class, r.Side = ClassOption, SideBuyToOpen }, "option_symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := equity
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOrderRequestValidate_Multileg(t *testing.T) {
	assert.NoError(t, spreadRequest().Validate())

	tests := []struct {
		name    string
		mutate  func(r *OrderRequest)
		wantErr string
	}{
		{"one leg", func(r *OrderRequest) { r.Legs = r.Legs[:1] }, "2 to 4 legs"},
		{"five legs", func(r *OrderRequest) { r.Legs = append(r.Legs, r.Legs[0], r.Legs[1], r.Legs[0]) }, "2 to 4 legs"},
		{"leg without symbol", func(r *OrderRequest) { r.Legs[1].OptionSymbol = "" }, "leg 1 missing option_symbol"},
		{"equity side on leg", func(r *OrderRequest) { r.Legs[0].Side = SideBuy }, "not an option side"},
		{"leg quantity", func(r *OrderRequest) { r.Legs[0].Quantity = -1 }, "quantity must be positive"},
		{"limit type", func(r *OrderRequest) { r.Type = TypeLimit }, "not valid for multileg"},
		{"even with price", func(r *OrderRequest) { r.Type = TypeEven }, "should not have price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := spreadRequest()
			tt.mutate(&req)
			err := req.Validate()
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOrderRequestForm(t *testing.T) {
	t.Run("option", func(t *testing.T) {
		form, err := OrderRequest{
			Class:        ClassOption,
			Symbol:       "spy",
			OptionSymbol: "SPY240621P00480000",
			Side:         SideSellToOpen,
			Quantity:     3,
			Type:         TypeStop,
			Duration:     DurationGTC,
			Stop:         price("2"),
		}.Form()
		require.NoError(t, err)

		assert.Equal(t, url.Values{
			"class":         {"option"},
			"symbol":        {"SPY"},
			"option_symbol": {"SPY240621P00480000"},
			"side":          {"sell_to_open"},
			"quantity":      {"3"},
			"type":          {"stop"},
			"duration":      {"gtc"},
			"stop":          {"2"},
		}, form)
	})

	t.Run("multileg legs are flattened", func(t *testing.T) {
		form, err := spreadRequest().Form()
		require.NoError(t, err)

		assert.Equal(t, "multileg", form.Get("class"))
		assert.Equal(t, "1.25", form.Get("price"))
		assert.Equal(t, "spread-1", form.Get("tag"))
		assert.Equal(t, "SPY240621C00500000", form.Get("option_symbol[0]"))
		assert.Equal(t, "buy_to_open", form.Get("side[0]"))
		assert.Equal(t, "1", form.Get("quantity[0]"))
		assert.Equal(t, "SPY240621C00510000", form.Get("option_symbol[1]"))
		assert.Equal(t, "sell_to_open", form.Get("side[1]"))
		assert.NotContains(t, form, "side")
		assert.NotContains(t, form, "quantity")
		assert.NotContains(t, form, "option_symbol[2]")
	})

	t.Run("invalid request", func(t *testing.T) {
		_, err := OrderRequest{Class: ClassEquity}.Form()
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestStageOrderURL(t *testing.T) {
	link, err := StageOrderURL(OrderRequest{
		Class: ClassEquity, Symbol: "AAPL", Side: SideBuy, Quantity: 5,
		Type: TypeLimit, Duration: DurationDay, Price: price("101.1"),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, TradeLinkURL+"?"))

	u, err := url.Parse(link)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "AAPL", q.Get("symbol"))
	assert.Equal(t, "101.10", q.Get("price"))
	assert.Equal(t, "5", q.Get("quantity"))

	_, err = StageOrderURL(OrderRequest{})
	assert.Error(t, err)
}

func TestModifyOrderRequestForm(t *testing.T) {
	form, err := ModifyOrderRequest{OrderID: 7, Type: TypeStopLimit, Price: price("3.1"), Stop: price("3")}.Form()
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"type":  {"stop_limit"},
		"price": {"3.10"},
		"stop":  {"3"},
	}, form)

	tests := []struct {
		name string
		req  ModifyOrderRequest
	}{
		{"no order id", ModifyOrderRequest{Type: TypeMarket}},
		{"nothing set", ModifyOrderRequest{OrderID: 7}},
		{"bad type", ModifyOrderRequest{OrderID: 7, Type: "trailing"}},
		{"bad duration", ModifyOrderRequest{OrderID: 7, Duration: "ioc"}},
		{"sub-cent", ModifyOrderRequest{OrderID: 7, Price: price("0.001")}},
		{"negative stop", ModifyOrderRequest{OrderID: 7, Stop: price("-2")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vErr *ValidationError
			assert.ErrorAs(t, tt.req.Validate(), &vErr)
		})
	}
}
