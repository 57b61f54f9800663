package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var sessionCommand = &cli.Command{
	Name:  "session",
	Usage: "daily session token management",
	Subcommands: []*cli.Command{
		{
			Name:      "generate",
			Usage:     "exchanges a request token from the manual login flow for an access token and caches it",
			ArgsUsage: "<request_token>",
			Action:    generateSession,
		},
		{
			Name:   "invalidate",
			Usage:  "logs out the current session and removes the cached token",
			Action: invalidateSession,
		},
	},
}

func generateSession(c *cli.Context) error {
	requestToken := c.Args().First()
	if requestToken == "" {
		return cli.ShowSubcommandHelp(c)
	}

	z, err := loadExchange()
	if err != nil {
		return err
	}

	session, err := z.GenerateSession(c.Context, requestToken)
	if err != nil {
		return err
	}
	fmt.Printf("session generated for %s (%s), token cached in %s\n",
		session.UserID, session.UserName, z.TokenCachePath())
	return nil
}

func invalidateSession(c *cli.Context) error {
	z, err := loadExchange()
	if err != nil {
		return err
	}
	if err := z.InvalidateSession(c.Context); err != nil {
		return err
	}
	fmt.Println("session invalidated")
	return nil
}
