// shoo: bulk-block or mute every account on a Bluesky list or feed.
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"

	"github.com/skyshoo/shoo/sweep"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:      "shoo",
		Usage:     "block or mute every account on a Bluesky list or feed",
		ArgsUsage: "<list-url>",
		Version:   versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "action",
				Usage:    "moderation action to apply: block or mute",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "report what would be done without blocking or muting anyone",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "path for the enumerated-users JSON snapshot",
				Value: "users_to_process.json",
			},
			&cli.Int64Flag{
				Name:  "limit",
				Usage: "number of posts to fetch from a feed (feeds only)",
				Value: 100,
			},
			&cli.StringFlag{
				Name:    "pds-host",
				Usage:   "method, hostname, and port of PDS instance",
				Value:   "https://bsky.social",
				EnvVars: []string{"ATP_PDS_HOST"},
			},
			&cli.StringFlag{
				Name:     "handle",
				Usage:    "account handle for login",
				Required: true,
				EnvVars:  []string{"BSKY_USERNAME"},
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "account password for login",
				Required: true,
				EnvVars:  []string{"BSKY_PASSWORD"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log verbosity: debug, info, warn, error",
				Value: "info",
			},
		},
		Action: runSweep,
	}
	return app.Run(args)
}

func runSweep(cctx *cli.Context) error {
	ctx := context.Background()
	logger := configLogger(cctx, os.Stderr)

	rawTarget := cctx.Args().First()
	if rawTarget == "" {
		return fmt.Errorf("need a list or feed URL (or at:// URI) as argument")
	}

	action, err := sweep.ParseAction(cctx.String("action"))
	if err != nil {
		return err
	}

	out, err := sweep.Run(ctx, sweep.Config{
		PDSHost:    cctx.String("pds-host"),
		Identifier: cctx.String("handle"),
		Password:   cctx.String("password"),
		Target:     rawTarget,
		Action:     action,
		DryRun:     cctx.Bool("dry-run"),
		OutputPath: cctx.String("output"),
		FeedLimit:  cctx.Int64("limit"),
		Logger:     logger,
		UserAgent:  userAgent(),
	})
	if err != nil {
		return err
	}

	if out.Applied == nil {
		fmt.Printf("dry run: found %d users, would %s each of them (saved to %s)\n",
			len(out.Users), action, cctx.String("output"))
		return nil
	}
	fmt.Printf("completed: %d users %sed, %d errors\n", out.Applied.Processed, action, out.Applied.Errors)
	return nil
}
