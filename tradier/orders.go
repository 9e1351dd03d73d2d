package tradier

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// OrdersFilter narrows GetOrders. The zero value lists the account's
// current orders.
type OrdersFilter struct {
	// Since switches to the filtered history endpoint and returns every
	// order created on or after that day.
	Since time.Time
}

const historyLimit = 10000

func (f OrdersFilter) query() url.Values {
	q := url.Values{}
	q.Set("includeTags", "true")
	if !f.Since.IsZero() {
		q.Set("start", f.Since.Format(dateLayout))
		q.Set("limit", strconv.Itoa(historyLimit))
		q.Set("filter", "all")
	}
	return q
}

// GetOrders lists account orders, tags included.
func (c *Client) GetOrders(ctx context.Context, filter OrdersFilter) ([]Order, error) {
	body, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   c.accountPath("/orders"),
		query:  filter.query(),
	})
	if err != nil {
		return nil, err
	}

	var resp ordersResponse
	if err := decode("orders", body, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	if orderID <= 0 {
		return nil, invalid("order request", "order id must be positive, got %d", orderID)
	}
	q := url.Values{}
	q.Set("includeTags", "true")

	body, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   c.orderPath(orderID),
		query:  q,
	})
	if err != nil {
		return nil, err
	}

	var resp orderResponse
	if err := decode("order", body, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// PlaceOrder validates and submits req.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderAck, error) {
	form, err := req.Form()
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, call{method: http.MethodPost, path: c.accountPath("/orders"), form: form})
	if err != nil {
		return nil, err
	}

	var resp orderAckResponse
	if err := decode("order ack", body, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// PreviewOrder asks Tradier to price req without sending it to market.
func (c *Client) PreviewOrder(ctx context.Context, req OrderRequest) (*OrderPreview, error) {
	form, err := req.Form()
	if err != nil {
		return nil, err
	}
	form.Set("preview", "true")

	body, err := c.do(ctx, call{method: http.MethodPost, path: c.accountPath("/orders"), form: form})
	if err != nil {
		return nil, err
	}

	var resp orderPreviewResponse
	if err := decode("order preview", body, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// ModifyOrder changes an open order. A 400 means the order is already
// finalized and is reported as *OrderFinalizedError.
func (c *Client) ModifyOrder(ctx context.Context, req ModifyOrderRequest) (*OrderAck, error) {
	form, err := req.Form()
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, call{method: http.MethodPut, path: c.orderPath(req.OrderID), form: form})
	if err != nil {
		return nil, finalized(req.OrderID, err)
	}

	var resp orderAckResponse
	if err := decode("order ack", body, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// CancelOrder cancels an open order. A 400 means the order is already
// finalized and is reported as *OrderFinalizedError.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) (*OrderAck, error) {
	if orderID <= 0 {
		return nil, invalid("cancel request", "order id must be positive, got %d", orderID)
	}

	body, err := c.do(ctx, call{method: http.MethodDelete, path: c.orderPath(orderID)})
	if err != nil {
		return nil, finalized(orderID, err)
	}

	var resp orderAckResponse
	if err := decode("order ack", body, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

func (c *Client) orderPath(orderID int64) string {
	return c.accountPath("/orders/" + strconv.FormatInt(orderID, 10))
}

func finalized(orderID int64, err error) error {
	ae, ok := err.(*APIError)
	if !ok || ae.StatusCode != http.StatusBadRequest {
		return err
	}
	return &OrderFinalizedError{OrderID: orderID, APIError: *ae}
}
