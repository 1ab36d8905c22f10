package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	gcal "github.com/wesnick/gcal/pkg/gcal"
)

// getConnection creates the calendar connection and resolves the calendar ID
// from the flag, then config.yaml, then the "primary" default.
func getConnection(ctx context.Context, cli *CLI, out *outputWriter) (*gcal.Client, string, error) {
	paths, err := gcal.GetConfigPaths(cli.Config)
	if err != nil {
		return nil, "", err
	}

	settings, err := gcal.LoadSettings(paths.Settings)
	if err != nil {
		return nil, "", err
	}
	if settings.NoColor {
		color.NoColor = true
	}

	calendarID := cli.Calendar
	if calendarID == "" {
		calendarID = settings.CalendarID
	}
	if calendarID == "" {
		calendarID = gcal.DefaultCalendarID
	}

	out.writeVerbose("Using calendar %s", calendarID)

	conn, err := gcal.New(ctx, cli.Config, cli.Verbose)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create Calendar connection: %w", err)
	}
	return conn, calendarID, nil
}

// runConfigure runs the OAuth consent flow and caches the token.
func runConfigure(configDir string) error {
	paths, err := gcal.GetConfigPaths(configDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(paths.Dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	credFile, err := os.Open(paths.Credentials)
	if err != nil {
		return fmt.Errorf("credentials not found at %s - see 'gcal configure --help'", paths.Credentials)
	}
	defer credFile.Close()

	auth, err := gcal.NewAuthenticator(credFile)
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	fmt.Printf("Configuring OAuth authentication...\n")
	fmt.Printf("Token will be saved to: %s\n", paths.Token)

	tok, err := auth.AuthorizeLocal(context.Background(), os.Stdout)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := gcal.SaveToken(paths.Token, tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Printf("\nToken saved to: %s\n", paths.Token)
	return nil
}
