package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/openkite/goindiatrader/config"
	"github.com/openkite/goindiatrader/exchanges/zerodha"
)

var (
	configPath string
	verbose    bool
)

func jsonOutput(in any) {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return
	}
	fmt.Println(string(j))
}

// loadExchange builds a configured Zerodha instance for a command to act on.
// When no config file is available it falls back to defaults plus the
// environment credentials so the tool stays usable without a config
func loadExchange() (*zerodha.Zerodha, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
		log.Debug("no config file found, using defaults")
		cfg = config.GetDefaultConfig()
		if err := cfg.CheckExchangeConfigValues(); err != nil {
			return nil, err
		}
	}

	exchCfg, err := cfg.GetExchangeConfig("Zerodha")
	if err != nil {
		return nil, err
	}
	if verbose {
		exchCfg.Verbose = true
	}

	z := new(zerodha.Zerodha)
	z.SetDefaults()
	if err := z.Setup(exchCfg); err != nil {
		return nil, err
	}
	return z, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	app := cli.NewApp()
	app.Name = "goindiatrader"
	app.Usage = "command line interface for trading Indian equities through Zerodha Kite Connect"
	app.EnableBashCompletion = true
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file to load",
			Destination: &configPath,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "enable verbose output",
			Destination: &verbose,
		},
	}
	app.Before = func(c *cli.Context) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	}
	app.Commands = []*cli.Command{
		marketsCommand,
		tickerCommand,
		candlesCommand,
		balanceCommand,
		ordersCommand,
		tradesCommand,
		sessionCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
