package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rustyeddy/tradier/broker"
	"github.com/rustyeddy/tradier/tradier"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List account orders",
	Long: `List the orders of the account. By default Tradier returns the
orders of the current session; --since queries the order history.

Examples:
  tradier orders
  tradier orders --open
  tradier orders --since 2024-06-01`,
	Args: cobra.NoArgs,
	RunE: runOrders,
}

var orderCmd = &cobra.Command{
	Use:   "order ID",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrder,
}

var modifyCmd = &cobra.Command{
	Use:   "modify ID",
	Short: "Change the type, duration, price or stop of an open order",
	Long: `Modify an open order. Only the flags given are sent.

Example:
  tradier modify 123456 --price 101.50`,
	Args: cobra.ExactArgs(1),
	RunE: runModify,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel ID",
	Short: "Cancel an open order",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

var (
	ordersSince string
	ordersOpen  bool

	modifyType     string
	modifyDuration string
	modifyPrice    string
	modifyStop     string
)

func init() {
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(modifyCmd)
	rootCmd.AddCommand(cancelCmd)

	ordersCmd.Flags().StringVar(&ordersSince, "since", "", "list orders created on or after this date (YYYY-MM-DD)")
	ordersCmd.Flags().BoolVar(&ordersOpen, "open", false, "only orders that can still be modified or canceled")

	modifyCmd.Flags().StringVar(&modifyType, "type", "", "new order type")
	modifyCmd.Flags().StringVar(&modifyDuration, "duration", "", "new duration (day, gtc, pre, post)")
	modifyCmd.Flags().StringVar(&modifyPrice, "price", "", "new limit price")
	modifyCmd.Flags().StringVar(&modifyStop, "stop", "", "new stop price")
}

func parseOrderID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q", s)
	}
	return id, nil
}

func parsePrice(flag, s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func runOrders(cmd *cobra.Command, args []string) error {
	var filter tradier.OrdersFilter
	if ordersSince != "" {
		since, err := time.Parse("2006-01-02", ordersSince)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		filter.Since = since
	}

	b, err := connect()
	if err != nil {
		return err
	}
	orders, err := b.GetOrders(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("get orders: %w", err)
	}
	if ordersOpen {
		orders = broker.OpenOrders(orders)
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), orders)
	}
	if len(orders) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no orders")
		return nil
	}
	renderOrders(cmd.OutOrStdout(), orders)
	return nil
}

func runOrder(cmd *cobra.Command, args []string) error {
	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	b, err := connect()
	if err != nil {
		return err
	}
	order, err := b.GetOrder(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), order)
	}
	renderOrder(cmd.OutOrStdout(), order)
	return nil
}

func runModify(cmd *cobra.Command, args []string) error {
	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	req := tradier.ModifyOrderRequest{
		OrderID:  id,
		Type:     tradier.OrderType(modifyType),
		Duration: tradier.Duration(modifyDuration),
	}
	if req.Price, err = parsePrice("price", modifyPrice); err != nil {
		return err
	}
	if req.Stop, err = parsePrice("stop", modifyStop); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	b, err := connect()
	if err != nil {
		return err
	}
	ack, err := b.ModifyOrder(cmd.Context(), req)
	if err != nil {
		return explainFinalized(fmt.Errorf("modify order: %w", err))
	}
	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), ack)
	}
	renderAck(cmd.OutOrStdout(), "modified", ack)
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	b, err := connect()
	if err != nil {
		return err
	}
	ack, err := b.CancelOrder(cmd.Context(), id)
	if err != nil {
		return explainFinalized(fmt.Errorf("cancel order: %w", err))
	}
	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), ack)
	}
	renderAck(cmd.OutOrStdout(), "canceled", ack)
	return nil
}

func explainFinalized(err error) error {
	var fin *tradier.OrderFinalizedError
	if errors.As(err, &fin) {
		return fmt.Errorf("%w (order %d is already filled, canceled or expired)", err, fin.OrderID)
	}
	return err
}
