package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/videotube/internal/server"
	"github.com/dmitrijs2005/videotube/internal/server/config"
)

func main() {
	if err := run(context.Background(), config.LoadConfig()); err != nil {
		fmt.Fprintln(os.Stderr, "videotube:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
