package tradier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// OptionSymbols lists the OCC symbols listed under one option root.
type OptionSymbols struct {
	RootSymbol string   `json:"rootSymbol"`
	Options    []string `json:"options"`
}

// Tradier answers {"symbols": null} for an unknown underlying. The key
// itself is required.
type optionSymbolsResponse struct {
	Symbols []OptionSymbols
}

func (r *optionSymbolsResponse) UnmarshalJSON(b []byte) error {
	var w struct {
		Symbols json.RawMessage `json:"symbols"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Symbols == nil {
		return errors.New(`missing "symbols" key`)
	}
	r.Symbols = nil
	if isNullish(w.Symbols) {
		return nil
	}
	if err := json.Unmarshal(w.Symbols, &r.Symbols); err != nil {
		return errors.Wrap(err, "symbols")
	}
	return nil
}

func (r *optionSymbolsResponse) validate() error {
	for _, s := range r.Symbols {
		if s.RootSymbol == "" {
			return invalid("option symbols", "entry is missing rootSymbol")
		}
	}
	return nil
}

// LookupOptionSymbols returns every option symbol for underlying, grouped
// by root. An unknown underlying gives a nil slice and no error.
func (c *Client) LookupOptionSymbols(ctx context.Context, underlying string) ([]OptionSymbols, error) {
	underlying = strings.ToUpper(strings.TrimSpace(underlying))
	if underlying == "" {
		return nil, invalid("option lookup", "underlying is required")
	}

	q := url.Values{}
	q.Set("underlying", underlying)
	body, err := c.do(ctx, call{method: http.MethodGet, path: "/markets/options/lookup", query: q})
	if err != nil {
		return nil, err
	}

	var resp optionSymbolsResponse
	if err := decode("option symbols", body, &resp); err != nil {
		return nil, err
	}
	return resp.Symbols, nil
}
