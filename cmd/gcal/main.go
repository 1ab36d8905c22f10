package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var version = "dev"

type CLI struct {
	Config   string `help:"Config directory path" default:"~/.config/gcal" type:"path"`
	Calendar string `help:"Calendar ID (default: primary, or calendar_id from config.yaml)"`
	JSON     bool   `help:"JSON output format"`
	Verbose  bool   `help:"Verbose logging"`
	NoColor  bool   `help:"Disable colored output"`

	Configure struct{} `cmd:"" help:"Run the OAuth consent flow and cache the token"`
	Version   struct{} `cmd:"" help:"Show version"`

	Add struct {
		Text []string `arg:"" required:"" help:"Event description (e.g. \"Dinner at 7pm\")"`
	} `cmd:"" help:"Add an event via natural language"`

	Next struct{} `cmd:"" help:"Show the immediate next event"`

	Today struct {
		ICS bool `help:"Write the remaining agenda as iCalendar to stdout"`
	} `cmd:"" help:"Show remaining events for today"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("gcal"),
		kong.Description("Command-line Google Calendar client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	out := newOutputWriter(cli.JSON, cli.NoColor, cli.Verbose)

	switch ctx.Command() {
	case "configure":
		if err := runConfigure(cli.Config); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

	case "version":
		fmt.Printf("gcal %s\n", version)

	case "add <text>", "add <text> ...":
		cmdCtx := context.Background()
		conn, calendarID, err := getConnection(cmdCtx, &cli, out)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}

		if err := runEventsAdd(cmdCtx, conn, calendarID, cli.Add.Text, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "next":
		cmdCtx := context.Background()
		conn, calendarID, err := getConnection(cmdCtx, &cli, out)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}

		if err := runEventsNext(cmdCtx, conn, calendarID, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	case "today":
		cmdCtx := context.Background()
		conn, calendarID, err := getConnection(cmdCtx, &cli, out)
		if err != nil {
			out.writeError(err)
			os.Exit(3)
		}

		if err := runEventsToday(cmdCtx, conn, calendarID, cli.Today.ICS, out); err != nil {
			out.writeError(err)
			os.Exit(2)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", ctx.Command())
		os.Exit(1)
	}
}
