package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/openkite/goindiatrader/exchanges/kline"
)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

var klineIntervalNames = map[string]kline.Interval{
	"1m":  kline.OneMin,
	"3m":  kline.ThreeMin,
	"5m":  kline.FiveMin,
	"10m": kline.TenMin,
	"15m": kline.FifteenMin,
	"30m": kline.ThirtyMin,
	"1h":  kline.OneHour,
	"1d":  kline.OneDay,
}

var marketsCommand = &cli.Command{
	Name:      "markets",
	Usage:     "lists tradable equity pairs from the instrument master",
	ArgsUsage: "[filter]",
	Action:    listMarkets,
}

var tickerCommand = &cli.Command{
	Name:      "ticker",
	Usage:     "returns the ticker for a pair",
	ArgsUsage: "<pair>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "pair",
			Usage: "the pair to fetch, e.g. NSE:INFY/INR",
		},
	},
	Action: getTicker,
}

var candlesCommand = &cli.Command{
	Name:      "candles",
	Usage:     "returns historic candles for a pair",
	ArgsUsage: "<pair> <interval>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "pair",
			Usage: "the pair to fetch, e.g. NSE:INFY/INR",
		},
		&cli.StringFlag{
			Name:  "interval",
			Usage: "candle interval: 1m, 3m, 5m, 10m, 15m, 30m, 1h, 1d",
			Value: "1d",
		},
		&cli.IntFlag{
			Name:  "days",
			Usage: "lookback window in days",
			Value: 30,
		},
	},
	Action: getCandles,
}

func firstArgOrFlag(c *cli.Context, flag string) string {
	if v := c.String(flag); v != "" {
		return v
	}
	return c.Args().First()
}

func listMarkets(c *cli.Context) error {
	z, err := loadExchange()
	if err != nil {
		return err
	}

	pairs, err := z.FetchTradablePairs(c.Context)
	if err != nil {
		return err
	}

	filter := c.Args().First()
	for i := range pairs {
		if filter != "" && !containsFold(pairs[i], filter) {
			continue
		}
		fmt.Println(pairs[i])
	}
	return nil
}

func getTicker(c *cli.Context) error {
	pair := firstArgOrFlag(c, "pair")
	if pair == "" {
		return cli.ShowSubcommandHelp(c)
	}

	z, err := loadExchange()
	if err != nil {
		return err
	}

	p, err := z.UpdateTicker(c.Context, pair)
	if err != nil {
		return err
	}
	jsonOutput(p)
	return nil
}

func getCandles(c *cli.Context) error {
	pair := firstArgOrFlag(c, "pair")
	if pair == "" {
		return cli.ShowSubcommandHelp(c)
	}

	interval, ok := klineIntervalNames[c.String("interval")]
	if !ok {
		return fmt.Errorf("unknown interval %q", c.String("interval"))
	}

	z, err := loadExchange()
	if err != nil {
		return err
	}
	if err := z.UpdateInstruments(c.Context); err != nil {
		return err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -c.Int("days"))
	item, err := z.GetHistoricCandles(c.Context, pair, interval, start, end)
	if err != nil {
		return err
	}
	jsonOutput(item)
	return nil
}
