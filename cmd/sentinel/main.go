package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/internal/setup"
	"github.com/urfave/cli/v3"
)

// MainLogDir specifies where CLI log files are stored.
const MainLogDir = "logs/cli_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "sentinel",
		Usage: "Administer the content moderation pipeline",
		Commands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "Submit content for synchronous moderation",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "content", Required: true, Usage: "Content to analyze"},
					&cli.UintFlag{Name: "target", Required: true, Usage: "Target user ID"},
					&cli.UintFlag{Name: "scope", Usage: "Scope (community) ID"},
					&cli.StringFlag{Name: "priority", Value: "medium", Usage: "Queue priority (low, medium, high, critical)"},
				},
				Action: submitAction,
			},
			{
				Name:   "stats",
				Usage:  "Show pipeline statistics",
				Action: statsAction,
			},
			{
				Name:  "report",
				Usage: "Generate a community health report",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "scope", Usage: "Scope (community) ID"},
					&cli.IntFlag{Name: "hours", Value: 24, Usage: "Report window in hours"},
				},
				Action: reportAction,
			},
			{
				Name:  "history",
				Usage: "Show recent moderation history for a user",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "target", Required: true, Usage: "Target user ID"},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum entries"},
				},
				Action: historyAction,
			},
			{
				Name:  "punishments",
				Usage: "List a user's active punishments",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "target", Required: true, Usage: "Target user ID"},
				},
				Action: punishmentsAction,
			},
			{
				Name:  "resolve-appeal",
				Usage: "Resolve a pending appeal",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "appeal", Required: true, Usage: "Appeal ID"},
					&cli.UintFlag{Name: "reviewer", Required: true, Usage: "Reviewer user ID"},
					&cli.BoolFlag{Name: "overturn", Usage: "Overturn the punishment"},
					&cli.StringFlag{Name: "note", Usage: "Resolution note"},
				},
				Action: resolveAppealAction,
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

func submitAction(ctx context.Context, c *cli.Command) error {
	app, err := setup.InitializeApp(ctx, MainLogDir)
	if err != nil {
		return err
	}
	defer app.Cleanup(ctx)

	priority, err := enum.ParsePriority(c.String("priority"))
	if err != nil {
		return err
	}

	decision, err := app.Service.Submit(ctx, &types.ModerationRequest{
		Type:        enum.RequestTypeMessage,
		SubmitterID: c.Uint("target"),
		TargetID:    c.Uint("target"),
		ScopeID:     c.Uint("scope"),
		Content:     c.String("content"),
		Priority:    priority,
		SubmittedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	return printJSON(decision)
}

func statsAction(ctx context.Context, _ *cli.Command) error {
	app, err := setup.InitializeApp(ctx, MainLogDir)
	if err != nil {
		return err
	}
	defer app.Cleanup(ctx)

	return printJSON(app.Service.GetStats(ctx))
}

func reportAction(ctx context.Context, c *cli.Command) error {
	app, err := setup.InitializeApp(ctx, MainLogDir)
	if err != nil {
		return err
	}
	defer app.Cleanup(ctx)

	report, err := app.Service.GetHealthReport(ctx, c.Uint("scope"), int(c.Int("hours")))
	if err != nil {
		return err
	}

	return printJSON(report)
}

func historyAction(ctx context.Context, c *cli.Command) error {
	app, err := setup.InitializeApp(ctx, MainLogDir)
	if err != nil {
		return err
	}
	defer app.Cleanup(ctx)

	entries, _, err := app.Service.GetHistory(ctx, c.Uint("target"), nil, int(c.Int("limit")))
	if err != nil {
		return err
	}

	for _, entry := range entries {
		fmt.Printf("%s  %-22s  %s\n",
			entry.CreatedAt.Format(time.RFC3339), entry.ActionType, entry.Reason)
	}

	return nil
}

func punishmentsAction(ctx context.Context, c *cli.Command) error {
	app, err := setup.InitializeApp(ctx, MainLogDir)
	if err != nil {
		return err
	}
	defer app.Cleanup(ctx)

	punishments, err := app.Service.GetActivePunishments(ctx, c.Uint("target"))
	if err != nil {
		return err
	}

	return printJSON(punishments)
}

func resolveAppealAction(ctx context.Context, c *cli.Command) error {
	app, err := setup.InitializeApp(ctx, MainLogDir)
	if err != nil {
		return err
	}
	defer app.Cleanup(ctx)

	appeal, err := app.Service.ResolveAppeal(
		ctx, c.Int("appeal"), c.Uint("reviewer"), c.Bool("overturn"), c.String("note"),
	)
	if err != nil {
		return err
	}

	return printJSON(appeal)
}

func printJSON(v any) error {
	data, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))

	return nil
}
