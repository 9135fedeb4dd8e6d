package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/videotube/internal/client/cli"
	"github.com/dmitrijs2005/videotube/internal/client/client"
	"github.com/dmitrijs2005/videotube/internal/client/config"
	"github.com/dmitrijs2005/videotube/internal/client/session"
	"github.com/dmitrijs2005/videotube/internal/flagx"
)

func main() {

	cfg := config.LoadConfig()

	command := ""
	if args := flagx.Positionals(os.Args[1:], config.ValueFlags); len(args) > 0 {
		command = args[0]
	}

	store, err := session.NewFileStore(cfg.SessionDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	c, err := client.NewGRPCClient(cfg.ServerEndpointAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	app := cli.NewApp(c, store, os.Stdin, os.Stdout)
	if err := app.Run(ctx, command); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		c.Close()
		os.Exit(1)
	}

}
