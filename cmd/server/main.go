package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "path to a .env file",
		Value: ".env",
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "safety-chat",
		Usage: "chat front end for the working-at-heights safety RAG service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the chat web server",
				Flags:  []cli.Flag{envFlag()},
				Action: serveAction,
			},
			{
				Name:      "ask",
				Usage:     "ask one question and print the answer with its sources",
				ArgsUsage: "<question>",
				Flags: []cli.Flag{
					envFlag(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "number of chunks to request (0 = TOP_K from the environment)",
					},
				},
				Action: askAction,
			},
			{
				Name:   "health",
				Usage:  "print the RAG backend health",
				Flags:  []cli.Flag{envFlag()},
				Action: healthAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
