package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/openkite/goindiatrader/exchanges/order"
)

var ordersCommand = &cli.Command{
	Name:  "orders",
	Usage: "order management",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "lists the open orders of the current trading day",
			Action: listOpenOrders,
		},
		{
			Name:   "history",
			Usage:  "lists the completed, cancelled and rejected orders of the current trading day",
			Action: listOrderHistory,
		},
		{
			Name:      "get",
			Usage:     "returns the latest state of an order",
			ArgsUsage: "<order_id>",
			Action:    getOrder,
		},
		{
			Name:      "place",
			Usage:     "places a new order",
			ArgsUsage: "<pair> <side> <type> <amount>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "pair",
					Usage: "the pair to trade, e.g. NSE:INFY/INR",
				},
				&cli.StringFlag{
					Name:  "side",
					Usage: "BUY or SELL",
				},
				&cli.StringFlag{
					Name:  "type",
					Usage: "MARKET, LIMIT, STOP_LIMIT or STOP_MARKET",
					Value: "LIMIT",
				},
				&cli.Float64Flag{
					Name:  "amount",
					Usage: "quantity in shares",
				},
				&cli.Float64Flag{
					Name:  "price",
					Usage: "limit price, required for limit orders",
				},
				&cli.Float64Flag{
					Name:  "triggerprice",
					Usage: "trigger price for stop orders",
				},
				&cli.StringFlag{
					Name:  "product",
					Usage: "broker product code: CNC for delivery, MIS for intraday",
					Value: "CNC",
				},
				&cli.StringFlag{
					Name:  "validity",
					Usage: "order validity: DAY or IOC",
					Value: "DAY",
				},
				&cli.StringFlag{
					Name:  "tag",
					Usage: "optional tag to correlate fills with",
				},
			},
			Action: placeOrder,
		},
		{
			Name:      "modify",
			Usage:     "modifies a pending order",
			ArgsUsage: "<order_id>",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:  "price",
					Usage: "new limit price",
				},
				&cli.Float64Flag{
					Name:  "amount",
					Usage: "new quantity in shares",
				},
				&cli.Float64Flag{
					Name:  "triggerprice",
					Usage: "new trigger price",
				},
			},
			Action: modifyOrder,
		},
		{
			Name:      "cancel",
			Usage:     "cancels a pending order",
			ArgsUsage: "<order_id>",
			Action:    cancelOrder,
		},
	},
}

func listOpenOrders(c *cli.Context) error {
	z, err := loadExchange()
	if err != nil {
		return err
	}
	orders, err := z.GetActiveOrders(c.Context, &order.GetOrdersRequest{})
	if err != nil {
		return err
	}
	jsonOutput(orders)
	return nil
}

func listOrderHistory(c *cli.Context) error {
	z, err := loadExchange()
	if err != nil {
		return err
	}
	orders, err := z.GetOrderHistory(c.Context, &order.GetOrdersRequest{})
	if err != nil {
		return err
	}
	jsonOutput(orders)
	return nil
}

func getOrder(c *cli.Context) error {
	orderID := c.Args().First()
	if orderID == "" {
		return cli.ShowSubcommandHelp(c)
	}

	z, err := loadExchange()
	if err != nil {
		return err
	}
	detail, err := z.GetOrderInfo(c.Context, orderID)
	if err != nil {
		return err
	}
	jsonOutput(detail)
	return nil
}

func placeOrder(c *cli.Context) error {
	pair := firstArgOrFlag(c, "pair")
	if pair == "" {
		return cli.ShowSubcommandHelp(c)
	}

	z, err := loadExchange()
	if err != nil {
		return err
	}

	submit := &order.Submit{
		Pair:         pair,
		Side:         order.Side(strings.ToUpper(c.String("side"))),
		Type:         order.Type(strings.ToUpper(c.String("type"))),
		Amount:       c.Float64("amount"),
		Price:        c.Float64("price"),
		TriggerPrice: c.Float64("triggerprice"),
		Product:      c.String("product"),
		Validity:     c.String("validity"),
		Tag:          c.String("tag"),
	}

	resp, err := z.SubmitOrder(c.Context, submit)
	if err != nil {
		return err
	}
	fmt.Printf("order placed: %s\n", resp.OrderID)
	return nil
}

func modifyOrder(c *cli.Context) error {
	orderID := c.Args().First()
	if orderID == "" {
		return cli.ShowSubcommandHelp(c)
	}

	z, err := loadExchange()
	if err != nil {
		return err
	}

	id, err := z.ModifyOrder(c.Context, &order.Modify{
		ID:           orderID,
		Price:        c.Float64("price"),
		Amount:       c.Float64("amount"),
		TriggerPrice: c.Float64("triggerprice"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("order modified: %s\n", id)
	return nil
}

func cancelOrder(c *cli.Context) error {
	orderID := c.Args().First()
	if orderID == "" {
		return cli.ShowSubcommandHelp(c)
	}

	z, err := loadExchange()
	if err != nil {
		return err
	}
	if err := z.CancelOrder(c.Context, &order.Cancel{ID: orderID}); err != nil {
		return err
	}
	fmt.Printf("order cancelled: %s\n", orderID)
	return nil
}
