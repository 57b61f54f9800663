package main

import (
	"github.com/urfave/cli/v2"
)

var balanceCommand = &cli.Command{
	Name:   "balance",
	Usage:  "returns cash margins and demat holdings as unified balances",
	Action: getBalance,
}

var tradesCommand = &cli.Command{
	Name:      "trades",
	Usage:     "returns the fills of the current trading day",
	ArgsUsage: "[pair]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "pair",
			Usage: "restrict output to a pair, e.g. NSE:INFY/INR",
		},
	},
	Action: getTrades,
}

func getBalance(c *cli.Context) error {
	z, err := loadExchange()
	if err != nil {
		return err
	}

	holdings, err := z.UpdateAccountInfo(c.Context)
	if err != nil {
		return err
	}
	jsonOutput(holdings)
	return nil
}

func getTrades(c *cli.Context) error {
	z, err := loadExchange()
	if err != nil {
		return err
	}

	trades, err := z.GetMyTrades(c.Context, firstArgOrFlag(c, "pair"))
	if err != nil {
		return err
	}
	jsonOutput(trades)
	return nil
}
