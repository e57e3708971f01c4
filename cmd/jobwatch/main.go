package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	common := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to an env file",
				Value: ".env",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "number of independent jobs to run concurrently",
				Value: 1,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "cancel jobs still running after this long",
				Value: 2 * time.Minute,
			},
		}
	}

	return &cli.Command{
		Name:  "jobwatch",
		Usage: "submit video or sandbox jobs and follow them until they finish",
		Commands: []*cli.Command{
			{
				Name:  "video",
				Usage: "generate avatar videos",
				Flags: append(common(),
					&cli.StringFlag{
						Name:     "script",
						Usage:    "script the avatar reads",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "replica-id",
						Usage: "avatar replica to render",
					},
				),
				Action: videoAction,
			},
			{
				Name:  "exec",
				Usage: "run code in the sandbox",
				Flags: append(common(),
					&cli.StringFlag{
						Name:     "code",
						Usage:    "code to execute",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "python, javascript, typescript or bash",
						Value: "python",
					},
				),
				Action: execAction,
			},
		},
	}
}
