package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokrelay-go/internal/cli/connection"
	"github.com/yndnr/tokrelay-go/internal/cli/output"
	"github.com/yndnr/tokrelay-go/internal/infra/buildinfo"
)

// healthView mirrors the server's health payload.
type healthView struct {
	Status     string `json:"status" yaml:"status"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	QueueDepth int    `json:"queue_depth" yaml:"queue_depth"`
	Time       string `json:"time" yaml:"time"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status commands",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check that the server is up",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check that the server accepts reports",
				Action: systemReady,
			},
			{
				Name:   "version",
				Usage:  "Show CLI build information",
				Action: systemVersion,
			},
		},
	}
}

func systemHealth(c *cli.Context) error {
	return checkEndpoint(c, "/health", "healthy")
}

func systemReady(c *cli.Context) error {
	return checkEndpoint(c, "/ready", "ready")
}

func checkEndpoint(c *cli.Context, path, want string) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	var result healthView
	if err := connection.ParseResponse(resp, &result); err != nil {
		var apiErr *connection.APIError
		if errors.As(err, &apiErr) && flags.Output == output.FormatTable {
			fmt.Fprintf(stdout(c), "✗ Server is not %s: %s\n", want, apiErr.Message)
		}
		return err
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, result)
	}
	if result.Status != want {
		fmt.Fprintf(stdout(c), "✗ Server is not %s: %s\n", want, result.Status)
		return fmt.Errorf("server status %q", result.Status)
	}
	fmt.Fprintf(stdout(c), "✓ Server is %s\n", want)
	fmt.Fprintf(stdout(c), "  Target:      %s\n", client.BaseURL())
	if result.Version != "" {
		fmt.Fprintf(stdout(c), "  Version:     %s\n", result.Version)
	}
	fmt.Fprintf(stdout(c), "  Queue depth: %d\n", result.QueueDepth)
	return nil
}

func systemVersion(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	return render(c, flags, buildinfo.Get())
}
