package tradier

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Position is an open holding in the account.
type Position struct {
	ID           int64           `json:"id"`
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	DateAcquired time.Time       `json:"date_acquired"`
}

func (p *Position) validate() error {
	if p.ID <= 0 {
		return invalid("position", "id must be positive, got %d", p.ID)
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return invalid("position", "position %d has no symbol", p.ID)
	}
	return nil
}

// positionsResponse mirrors {"positions": {"position": ...}}.
type positionsResponse struct {
	Positions []Position
}

func (r *positionsResponse) UnmarshalJSON(b []byte) error {
	var w struct {
		Positions json.RawMessage `json:"positions"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Positions == nil {
		return errors.New(`missing "positions" key`)
	}
	ps, err := unwrapList[Position](w.Positions, "position")
	if err != nil {
		return errors.Wrap(err, "positions")
	}
	r.Positions = ps
	return nil
}

func (r *positionsResponse) validate() error {
	for i := range r.Positions {
		if err := r.Positions[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetPositions lists the account's open positions. An account with no
// positions yields an empty, non-nil slice.
func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	body, err := c.do(ctx, call{method: http.MethodGet, path: c.accountPath("/positions")})
	if err != nil {
		return nil, err
	}

	var resp positionsResponse
	if err := decode("positions", body, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}
