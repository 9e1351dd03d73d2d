package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rustyeddy/tradier/broker"
	"github.com/rustyeddy/tradier/pkg/id"
	"github.com/rustyeddy/tradier/tradier"
	"github.com/shopspring/decimal"
)

func jsonOutput() bool { return cfg != nil && cfg.Output == "json" }

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

func money(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(2)
}

func num(d decimal.Decimal) string { return d.String() }

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func renderQuotes(w io.Writer, r *tradier.QuotesResponse, greeks bool) {
	header := []string{"Symbol", "Type", "Last", "Change", "Bid", "Ask", "Volume", "Trade Date"}
	if greeks {
		header = append(header, "Delta", "Gamma", "Theta", "Vega", "IV")
	}
	table := newTable(w, header...)
	for _, q := range r.Quotes {
		row := []string{
			q.Symbol, string(q.Type), money(q.Last), money(q.Change),
			money(q.Bid), money(q.Ask), strconv.FormatInt(q.Volume, 10), stamp(q.TradeDate.Time),
		}
		if greeks {
			if g := q.Greeks; g != nil {
				row = append(row,
					strconv.FormatFloat(g.Delta, 'f', 4, 64),
					strconv.FormatFloat(g.Gamma, 'f', 4, 64),
					strconv.FormatFloat(g.Theta, 'f', 4, 64),
					strconv.FormatFloat(g.Vega, 'f', 4, 64),
					strconv.FormatFloat(g.MidIV, 'f', 4, 64))
			} else {
				row = append(row, "-", "-", "-", "-", "-")
			}
		}
		table.Append(row)
	}
	table.Render()
	for _, s := range r.UnmatchedSymbols {
		fmt.Fprintf(w, "unmatched symbol: %s\n", s)
	}
}

func renderPositions(w io.Writer, positions []tradier.Position) {
	table := newTable(w, "ID", "Symbol", "Quantity", "Cost Basis", "Acquired")
	for _, p := range positions {
		table.Append([]string{
			strconv.FormatInt(p.ID, 10), p.Symbol, num(p.Quantity),
			p.CostBasis.StringFixed(2), stamp(p.DateAcquired),
		})
	}
	table.Render()
}

func renderAccount(w io.Writer, a *broker.Account) {
	fmt.Fprintf(w, "Account %s\n", a.ID)
	table := newTable(w, "Symbol", "Quantity", "Cost Basis", "Last", "Market Value", "Gain/Loss")
	for _, h := range a.Holdings {
		last := "-"
		if h.Quote != nil {
			last = money(h.Quote.Last)
		}
		mv, gl := "-", "-"
		if v, ok := h.MarketValue(); ok {
			mv = v.StringFixed(2)
		}
		if v, ok := h.GainLoss(); ok {
			gl = v.StringFixed(2)
		}
		table.Append([]string{h.Symbol, num(h.Quantity), h.CostBasis.StringFixed(2), last, mv, gl})
	}
	table.SetFooter([]string{"", "", "", "Total", a.MarketValue().StringFixed(2), ""})
	table.Render()

	fmt.Fprintf(w, "%d open orders\n", len(a.OpenOrders))
	if len(a.OpenOrders) > 0 {
		renderOrders(w, a.OpenOrders)
	}
	for _, s := range a.Unmatched {
		fmt.Fprintf(w, "unmatched symbol: %s\n", s)
	}
}

func orderSymbol(o tradier.Order) string {
	if o.OptionSymbol != "" {
		return o.OptionSymbol
	}
	return o.Symbol
}

func renderOrders(w io.Writer, orders []tradier.Order) {
	table := newTable(w, "ID", "Class", "Symbol", "Side", "Qty", "Type", "Price", "Stop", "Status", "Filled", "Tag", "Created")
	for _, o := range orders {
		table.Append([]string{
			strconv.FormatInt(o.ID, 10), string(o.Class), orderSymbol(o), string(o.Side),
			num(o.Quantity), string(o.Type), money(o.Price), money(o.StopPrice),
			string(o.Status), num(o.ExecQuantity), o.Tag, stamp(o.CreateDate),
		})
		for _, leg := range o.Legs {
			table.Append([]string{
				"", "", "  " + orderSymbol(leg), string(leg.Side), num(leg.Quantity),
				"", "", "", string(leg.Status), num(leg.ExecQuantity), "", "",
			})
		}
	}
	table.Render()
}

func renderOrder(w io.Writer, o *tradier.Order) {
	renderOrders(w, []tradier.Order{*o})
	// Tags generated by place are ULIDs and carry the submit time.
	if at, err := id.Time(o.Tag); err == nil {
		fmt.Fprintf(w, "tagged at: %s\n", stamp(at))
	}
	if o.ReasonDescription != "" {
		fmt.Fprintf(w, "reason: %s\n", o.ReasonDescription)
	}
}

func renderAck(w io.Writer, verb string, ack *tradier.OrderAck) {
	fmt.Fprintf(w, "✓ Order %d %s (%s)\n", ack.ID, verb, ack.Status)
}

func renderPreview(w io.Writer, p *tradier.OrderPreview) {
	table := newTable(w, "Field", "Value")
	table.AppendBulk([][]string{
		{"Symbol", p.Symbol},
		{"Class", string(p.Class)},
		{"Type", string(p.Type)},
		{"Quantity", num(p.Quantity)},
		{"Cost", p.Cost.StringFixed(2)},
		{"Commission", p.Commission.StringFixed(2)},
		{"Fees", p.Fees.StringFixed(2)},
		{"Order Cost", p.OrderCost.StringFixed(2)},
		{"Margin Change", p.MarginChange.StringFixed(2)},
		{"Day Trades", strconv.Itoa(p.DayTrades)},
		{"Result", strconv.FormatBool(p.Result)},
	})
	table.Render()
}

func renderOptionSymbols(w io.Writer, roots []tradier.OptionSymbols) {
	for _, r := range roots {
		fmt.Fprintf(w, "%s (%d contracts)\n", r.RootSymbol, len(r.Options))
		for _, s := range r.Options {
			fmt.Fprintf(w, "  %s\n", s)
		}
	}
}
