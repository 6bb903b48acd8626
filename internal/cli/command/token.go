package command

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokrelay-go/internal/cli/connection"
	"github.com/yndnr/tokrelay-go/internal/cli/output"
)

// tokenView mirrors the server's token representation.
type tokenView struct {
	ID         string `json:"id" yaml:"id"`
	OwnerID    int64  `json:"owner_id" yaml:"owner_id"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	Active     bool   `json:"active" yaml:"active"`
	UsageCount int64  `json:"usage_count" yaml:"usage_count"`
	CreatedAt  int64  `json:"created_at" yaml:"created_at" table:"unixms"`
	RevokedAt  int64  `json:"revoked_at,omitempty" yaml:"revoked_at,omitempty" table:"unixms,ago,wide"`
}

type tokenListResponse struct {
	Tokens []tokenView `json:"tokens" yaml:"tokens"`
	Total  int         `json:"total" yaml:"total"`
}

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:    "token",
		Aliases: []string{"tok"},
		Usage:   "Manage collection tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Issue a new token for an owner",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "owner",
						Usage:    "Telegram chat ID that receives reports",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "label",
						Usage: "Free-form label",
					},
				},
				Action: tokenCreate,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List tokens of an owner",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "owner",
						Usage:    "Owner chat ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "include-revoked",
						Usage: "Also list revoked tokens",
					},
				},
				Action: tokenList,
			},
			{
				Name:      "get",
				Usage:     "Show one token",
				ArgsUsage: "<token-id>",
				Action:    tokenGet,
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a token",
				ArgsUsage: "<token-id>",
				Action:    tokenRevoke,
			},
		},
	}
}

func tokenCreate(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	owner := c.Int64("owner")
	if owner == 0 {
		return fmt.Errorf("--owner must be a non-zero chat ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/tokens", map[string]any{
		"owner_id": owner,
		"label":    c.String("label"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var tok tokenView
	if err := connection.ParseResponse(resp, &tok); err != nil {
		return err
	}

	if flags.Output == output.FormatTable {
		fmt.Fprintf(stdout(c), "Token created: %s\n", tok.ID)
		fmt.Fprintf(stdout(c), "Collect URL:   %s/collect/%s\n", client.BaseURL(), tok.ID)
		return nil
	}
	return render(c, flags, tok)
}

func tokenList(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("owner_id", strconv.FormatInt(c.Int64("owner"), 10))
	if c.Bool("include-revoked") {
		q.Set("include_revoked", "true")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/admin/v1/tokens?"+q.Encode())
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var list tokenListResponse
	if err := connection.ParseResponse(resp, &list); err != nil {
		return err
	}

	if flags.Output == output.FormatTable {
		if len(list.Tokens) == 0 {
			fmt.Fprintln(stdout(c), "No tokens found.")
			return nil
		}
		if err := render(c, flags, list.Tokens); err != nil {
			return err
		}
		fmt.Fprintf(stdout(c), "\nTotal: %d\n", list.Total)
		return nil
	}
	return render(c, flags, list)
}

func tokenGet(c *cli.Context) error {
	id, err := tokenArg(c)
	if err != nil {
		return err
	}
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/admin/v1/tokens/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var tok tokenView
	if err := connection.ParseResponse(resp, &tok); err != nil {
		return err
	}
	return render(c, flags, tok)
}

func tokenRevoke(c *cli.Context) error {
	id, err := tokenArg(c)
	if err != nil {
		return err
	}
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/tokens/"+url.PathEscape(id)+"/revoke", nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var tok tokenView
	if err := connection.ParseResponse(resp, &tok); err != nil {
		return err
	}

	if flags.Output == output.FormatTable {
		fmt.Fprintf(stdout(c), "Token revoked: %s\n", id)
		return nil
	}
	return render(c, flags, tok)
}

func tokenArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one token ID")
	}
	return c.Args().First(), nil
}
