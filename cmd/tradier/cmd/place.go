package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rustyeddy/tradier/pkg/id"
	"github.com/rustyeddy/tradier/tradier"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Place (or preview) an equity, option or multileg order",
	Long: `Place an order. The class is inferred when --class is omitted:
--leg makes it multileg, --option-symbol makes it an option order,
anything else is an equity order. Without --tag a ULID is used.

Examples:
  tradier place --symbol AAPL --side buy --qty 10 --type limit --price 150.25
  tradier place --symbol SPY --option-symbol SPY240621C00500000 --side buy_to_open --qty 1
  tradier place --symbol SPY --type debit --price 1.25 \
      --leg SPY240621C00500000:buy_to_open:1 --leg SPY240621C00510000:sell_to_open:1
  tradier place --preview --symbol AAPL --side buy --qty 10`,
	Args: cobra.NoArgs,
	RunE: runPlace,
}

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Print a dashboard link that pre-fills an order for review",
	Long: `Build a Tradier tradelink URL for the order. Nothing is submitted;
open the link to review and send the order from the dashboard.`,
	Args: cobra.NoArgs,
	RunE: runStage,
}

type orderFlags struct {
	class        string
	symbol       string
	side         string
	qty          int64
	typ          string
	duration     string
	price        string
	stop         string
	optionSymbol string
	tag          string
	legs         []string
}

var (
	placeFlags   orderFlags
	stageFlags   orderFlags
	placePreview bool
)

func (o *orderFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.class, "class", "", "order class: equity, option or multileg (inferred when empty)")
	fs.StringVar(&o.symbol, "symbol", "", "underlying or equity symbol (required)")
	fs.StringVar(&o.side, "side", "", "side, e.g. buy, sell, sell_short, buy_to_open")
	fs.Int64Var(&o.qty, "qty", 0, "quantity")
	fs.StringVar(&o.typ, "type", string(tradier.TypeMarket), "order type")
	fs.StringVar(&o.duration, "duration", string(tradier.DurationDay), "duration: day, gtc, pre or post")
	fs.StringVar(&o.price, "price", "", "limit price (limit, stop_limit, debit, credit)")
	fs.StringVar(&o.stop, "stop", "", "stop price (stop, stop_limit)")
	fs.StringVar(&o.optionSymbol, "option-symbol", "", "OCC option symbol for option orders")
	fs.StringVar(&o.tag, "tag", "", "order tag: letters, digits and dashes")
	fs.StringArrayVar(&o.legs, "leg", nil, "multileg leg as OPTION_SYMBOL:SIDE:QTY (repeatable)")
}

func init() {
	rootCmd.AddCommand(placeCmd)
	rootCmd.AddCommand(stageCmd)

	placeFlags.register(placeCmd.Flags())
	placeCmd.Flags().BoolVar(&placePreview, "preview", false, "ask Tradier for cost and commission without placing")
	placeCmd.MarkFlagRequired("symbol")

	stageFlags.register(stageCmd.Flags())
	stageCmd.MarkFlagRequired("symbol")
}

// parseLeg reads OPTION_SYMBOL:SIDE:QTY.
func parseLeg(s string) (tradier.Leg, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return tradier.Leg{}, fmt.Errorf("leg %q: want OPTION_SYMBOL:SIDE:QTY", s)
	}
	qty, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return tradier.Leg{}, fmt.Errorf("leg %q: quantity: %w", s, err)
	}
	return tradier.Leg{
		OptionSymbol: strings.ToUpper(strings.TrimSpace(parts[0])),
		Side:         tradier.Side(strings.ToLower(strings.TrimSpace(parts[1]))),
		Quantity:     qty,
	}, nil
}

func (o *orderFlags) request() (tradier.OrderRequest, error) {
	req := tradier.OrderRequest{
		Class:        tradier.OrderClass(o.class),
		Symbol:       o.symbol,
		Side:         tradier.Side(o.side),
		Quantity:     o.qty,
		Type:         tradier.OrderType(o.typ),
		Duration:     tradier.Duration(o.duration),
		OptionSymbol: o.optionSymbol,
		Tag:          o.tag,
	}
	for _, s := range o.legs {
		leg, err := parseLeg(s)
		if err != nil {
			return tradier.OrderRequest{}, err
		}
		req.Legs = append(req.Legs, leg)
	}

	if req.Class == "" {
		switch {
		case len(req.Legs) > 0:
			req.Class = tradier.ClassMultileg
		case req.OptionSymbol != "":
			req.Class = tradier.ClassOption
		default:
			req.Class = tradier.ClassEquity
		}
	}

	var err error
	if req.Price, err = parsePrice("price", o.price); err != nil {
		return tradier.OrderRequest{}, err
	}
	if req.Stop, err = parsePrice("stop", o.stop); err != nil {
		return tradier.OrderRequest{}, err
	}
	return req, nil
}

func runPlace(cmd *cobra.Command, args []string) error {
	req, err := placeFlags.request()
	if err != nil {
		return err
	}
	if req.Tag == "" {
		req.Tag = id.New()
	}
	if err := req.Validate(); err != nil {
		return err
	}

	b, err := connect()
	if err != nil {
		return err
	}
	log.WithField("tag", req.Tag).Debug("submitting order")

	if placePreview {
		preview, err := b.PreviewOrder(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("preview order: %w", err)
		}
		if jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), preview)
		}
		renderPreview(cmd.OutOrStdout(), preview)
		return nil
	}

	ack, err := b.PlaceOrder(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), ack)
	}
	renderAck(cmd.OutOrStdout(), "placed", ack)
	fmt.Fprintf(cmd.OutOrStdout(), "  tag: %s\n", req.Tag)
	return nil
}

func runStage(cmd *cobra.Command, args []string) error {
	req, err := stageFlags.request()
	if err != nil {
		return err
	}
	link, err := tradier.StageOrderURL(req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}
