package tradier

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const equityOrderJSON = `{
	"id": 228175, "type": "limit", "symbol": "AAPL", "side": "buy", "quantity": 50.00000000,
	"status": "open", "duration": "pre", "price": 22.0, "avg_fill_price": 0.00000000,
	"exec_quantity": 0.00000000, "last_fill_price": 0.00000000, "last_fill_quantity": 0.00000000,
	"remaining_quantity": 0.00000000, "create_date": "2018-06-01T12:02:29.682Z",
	"transaction_date": "2018-06-01T12:30:02.385Z", "class": "equity", "tag": "my-tag-1"
}`

const multilegOrderJSON = `{
	"id": 229063, "type": "debit", "symbol": "SPY", "side": "buy", "quantity": 1.00000000,
	"status": "filled", "duration": "day", "price": 1.5, "avg_fill_price": 1.45,
	"exec_quantity": 1.00000000, "last_fill_price": 0.00000000, "last_fill_quantity": 0.00000000,
	"remaining_quantity": 0.00000000, "create_date": "2018-06-12T21:13:36.076Z",
	"transaction_date": "2018-06-12T21:18:41.604Z", "class": "multileg", "num_legs": 2,
	"strategy": "spread",
	"leg": [
		{"id": 229064, "type": "debit", "symbol": "SPY", "side": "buy_to_open", "quantity": 1,
		 "status": "filled", "duration": "day", "price": 1.5, "avg_fill_price": 2.45,
		 "exec_quantity": 1, "last_fill_price": 2.45, "last_fill_quantity": 1, "remaining_quantity": 0,
		 "create_date": "2018-06-12T21:13:36.076Z", "transaction_date": "2018-06-12T21:18:41.587Z",
		 "class": "option", "option_symbol": "SPY180720C00274000"},
		{"id": 229065, "type": "debit", "symbol": "SPY", "side": "sell_to_open", "quantity": 1,
		 "status": "filled", "duration": "day", "price": 1.5, "avg_fill_price": 1.0,
		 "exec_quantity": 1, "last_fill_price": 1.0, "last_fill_quantity": 1, "remaining_quantity": 0,
		 "create_date": "2018-06-12T21:13:36.076Z", "transaction_date": "2018-06-12T21:18:41.597Z",
		 "class": "option", "option_symbol": "SPY180720C00276000"}
	]
}`

func TestGetOrders(t *testing.T) {
	t.Run("null orders", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/accounts/ACC123/orders", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("includeTags"))
			assert.Empty(t, r.URL.Query().Get("start"))
			writeBody(w, http.StatusOK, `{"orders":"null"}`)
		})

		orders, err := client.GetOrders(context.Background(), OrdersFilter{})
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})

	t.Run("single order object", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, `{"orders":{"order":`+equityOrderJSON+`}}`)
		})

		orders, err := client.GetOrders(context.Background(), OrdersFilter{})
		require.NoError(t, err)
		require.Len(t, orders, 1)

		o := orders[0]
		assert.Equal(t, int64(228175), o.ID)
		assert.Equal(t, TypeLimit, o.Type)
		assert.Equal(t, SideBuy, o.Side)
		assert.Equal(t, StatusOpen, o.Status)
		assert.Equal(t, DurationPre, o.Duration)
		assert.Equal(t, ClassEquity, o.Class)
		assert.Equal(t, "50", o.Quantity.String())
		assert.True(t, o.Price.Valid)
		assert.Equal(t, "22", o.Price.Decimal.String())
		assert.False(t, o.StopPrice.Valid)
		assert.Equal(t, "my-tag-1", o.Tag)
		assert.Equal(t, time.Date(2018, 6, 1, 12, 2, 29, 682000000, time.UTC), o.CreateDate.UTC())
	})

	t.Run("list with multileg", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, `{"orders":{"order":[`+equityOrderJSON+`,`+multilegOrderJSON+`]}}`)
		})

		orders, err := client.GetOrders(context.Background(), OrdersFilter{})
		require.NoError(t, err)
		require.Len(t, orders, 2)

		ml := orders[1]
		assert.Equal(t, ClassMultileg, ml.Class)
		assert.Equal(t, "spread", ml.Strategy)
		require.Len(t, ml.Legs, 2)
		assert.Equal(t, "SPY180720C00276000", ml.Legs[1].OptionSymbol)
		assert.Equal(t, "2.45", ml.Legs[0].AvgFillPrice.String())
		assert.True(t, ml.Status.Final())
	})

	t.Run("history filter", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "true", q.Get("includeTags"))
			assert.Equal(t, "2024-03-05", q.Get("start"))
			assert.Equal(t, "10000", q.Get("limit"))
			assert.Equal(t, "all", q.Get("filter"))
			writeBody(w, http.StatusOK, `{"orders":"null"}`)
		})

		since := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
		_, err := client.GetOrders(context.Background(), OrdersFilter{Since: since})
		require.NoError(t, err)
	})
}

func TestGetOrders_Validation(t *testing.T) {
	tests := []struct {
		name  string
		order string
	}{
		{"limit without price", `{"id":1,"type":"limit","symbol":"AAPL","side":"buy","quantity":1,"status":"open","duration":"day","class":"equity"}`},
		{"market with price", `{"id":1,"type":"market","symbol":"AAPL","side":"buy","quantity":1,"status":"open","duration":"day","price":1,"class":"equity"}`},
		{"stop without stop_price", `{"id":1,"type":"stop","symbol":"AAPL","side":"sell","quantity":1,"status":"open","duration":"day","class":"equity"}`},
		{"option side on equity", `{"id":1,"type":"market","symbol":"AAPL","side":"buy_to_open","quantity":1,"status":"open","duration":"day","class":"equity"}`},
		{"option without option_symbol", `{"id":1,"type":"market","symbol":"AAPL","side":"buy_to_open","quantity":1,"status":"open","duration":"day","class":"option"}`},
		{"unknown status", `{"id":1,"type":"market","symbol":"AAPL","side":"buy","quantity":1,"status":"weird","duration":"day","class":"equity"}`},
		{"unsupported class", `{"id":1,"type":"market","symbol":"AAPL","side":"buy","quantity":1,"status":"open","duration":"day","class":"combo"}`},
		{"bad tag", `{"id":1,"type":"market","symbol":"AAPL","side":"buy","quantity":1,"status":"open","duration":"day","class":"equity","tag":"no_underscores"}`},
		{"leg type mismatch", `{"id":1,"type":"debit","symbol":"SPY","side":"buy","quantity":1,"status":"open","duration":"day","price":1,"class":"multileg","strategy":"spread",
			"leg":[{"id":2,"type":"credit","symbol":"SPY","side":"buy_to_open","price":1,"class":"option","option_symbol":"SPY180720C00274000"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeBody(w, http.StatusOK, `{"orders":{"order":`+tt.order+`}}`)
			})

			orders, err := client.GetOrders(context.Background(), OrdersFilter{})
			assert.Nil(t, orders)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}
}

func TestGetOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/ACC123/orders/229063", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("includeTags"))
		writeBody(w, http.StatusOK, `{"order":`+multilegOrderJSON+`}`)
	})

	order, err := client.GetOrder(context.Background(), 229063)
	require.NoError(t, err)
	assert.Equal(t, int64(229063), order.ID)
	assert.Equal(t, 2, order.NumLegs)

	t.Run("missing order key", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, `{}`)
		})
		_, err := client.GetOrder(context.Background(), 1)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestPlaceOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/accounts/ACC123/orders", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "equity", r.PostForm.Get("class"))
		assert.Equal(t, "AAPL", r.PostForm.Get("symbol"))
		assert.Equal(t, "buy", r.PostForm.Get("side"))
		assert.Equal(t, "10", r.PostForm.Get("quantity"))
		assert.Equal(t, "limit", r.PostForm.Get("type"))
		assert.Equal(t, "day", r.PostForm.Get("duration"))
		assert.Equal(t, "150.50", r.PostForm.Get("price"))
		assert.Empty(t, r.PostForm.Get("preview"))
		writeBody(w, http.StatusOK, `{"order":{"id":257459,"status":"ok","partner_id":"c4998eb7-06e8-4820-a7ab-55d9760065fb"}}`)
	})

	ack, err := client.PlaceOrder(context.Background(), OrderRequest{
		Class:    ClassEquity,
		Symbol:   "aapl",
		Side:     SideBuy,
		Quantity: 10,
		Type:     TypeLimit,
		Duration: DurationDay,
		Price:    decimal.NewNullDecimal(decimal.RequireFromString("150.5")),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(257459), ack.ID)
	assert.Equal(t, "ok", ack.Status)
	assert.Equal(t, "c4998eb7-06e8-4820-a7ab-55d9760065fb", ack.PartnerID)
}

func TestPlaceOrder_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"errors":{"error":"Insufficient buying power."}}`)
	})

	ack, err := client.PlaceOrder(context.Background(), OrderRequest{
		Class: ClassEquity, Symbol: "AAPL", Side: SideBuy, Quantity: 1000,
		Type: TypeMarket, Duration: DurationDay,
	})
	assert.Nil(t, ack)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"Insufficient buying power."}, apiErr.Errors)
}

func TestPlaceOrder_InvalidRequestNeverSent(t *testing.T) {
	client := newTestClient(t, unreachable(t))

	_, err := client.PlaceOrder(context.Background(), OrderRequest{
		Class: ClassEquity, Symbol: "AAPL", Side: SideBuy, Quantity: 1,
		Type: TypeLimit, Duration: DurationDay,
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), "limit order should have price field")
}

func TestPlaceOrder_BadAck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"order":{"id":1,"status":"pending"}}`)
	})

	_, err := client.PlaceOrder(context.Background(), OrderRequest{
		Class: ClassEquity, Symbol: "AAPL", Side: SideBuy, Quantity: 1,
		Type: TypeMarket, Duration: DurationDay,
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestPreviewOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "true", r.PostForm.Get("preview"))
		writeBody(w, http.StatusOK, `{"order":{"status":"ok","commission":0,"cost":1505.0,"fees":0.02,
			"symbol":"AAPL","quantity":10,"side":"buy","type":"limit","duration":"day","result":true,
			"order_cost":1505.0,"margin_change":0,"request_date":"2024-05-01T14:00:00.000","extended_hours":false,
			"class":"equity","day_trades":0}}`)
	})

	preview, err := client.PreviewOrder(context.Background(), OrderRequest{
		Class: ClassEquity, Symbol: "AAPL", Side: SideBuy, Quantity: 10,
		Type: TypeLimit, Duration: DurationDay,
		Price: decimal.NewNullDecimal(decimal.NewFromFloat(150.5)),
	})
	require.NoError(t, err)
	assert.True(t, preview.Result)
	assert.Equal(t, "1505", preview.OrderCost.String())
	assert.Equal(t, "0.02", preview.Fees.String())
}

func TestModifyOrder(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/accounts/ACC123/orders/228175", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "21.75", r.PostForm.Get("price"))
			assert.Equal(t, "gtc", r.PostForm.Get("duration"))
			_, hasType := r.PostForm["type"]
			assert.False(t, hasType)
			writeBody(w, http.StatusOK, `{"order":{"id":228175,"status":"ok","partner_id":"p1"}}`)
		})

		ack, err := client.ModifyOrder(context.Background(), ModifyOrderRequest{
			OrderID:  228175,
			Duration: DurationGTC,
			Price:    decimal.NewNullDecimal(decimal.RequireFromString("21.75")),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(228175), ack.ID)
	})

	t.Run("already finalized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Order is already filled"))
		})

		ack, err := client.ModifyOrder(context.Background(), ModifyOrderRequest{
			OrderID: 228175, Type: TypeMarket,
		})
		assert.Nil(t, ack)

		var finErr *OrderFinalizedError
		require.ErrorAs(t, err, &finErr)
		assert.Equal(t, int64(228175), finErr.OrderID)
		assert.Equal(t, "Order is already filled", finErr.Body)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})

	t.Run("nothing to modify", func(t *testing.T) {
		client := newTestClient(t, unreachable(t))
		_, err := client.ModifyOrder(context.Background(), ModifyOrderRequest{OrderID: 1})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/accounts/ACC123/orders/228175", r.URL.Path)
			writeBody(w, http.StatusOK, `{"order":{"id":228175,"status":"ok"}}`)
		})

		ack, err := client.CancelOrder(context.Background(), 228175)
		require.NoError(t, err)
		assert.Equal(t, int64(228175), ack.ID)
		assert.Empty(t, ack.PartnerID)
	})

	t.Run("already finalized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Order already canceled"))
		})

		_, err := client.CancelOrder(context.Background(), 228175)
		var finErr *OrderFinalizedError
		require.ErrorAs(t, err, &finErr)
	})

	t.Run("other failures pass through", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.CancelOrder(context.Background(), 228175)
		var finErr *OrderFinalizedError
		assert.False(t, errors.As(err, &finErr))
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		client := newTestClient(t, unreachable(t))
		_, err := client.CancelOrder(context.Background(), 0)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}
