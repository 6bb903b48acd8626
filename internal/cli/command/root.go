package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokrelay-go/internal/cli/config"
	"github.com/yndnr/tokrelay-go/internal/cli/connection"
	"github.com/yndnr/tokrelay-go/internal/cli/output"
	"github.com/yndnr/tokrelay-go/internal/infra/buildinfo"
)

const (
	defaultServer  = "localhost:5080"
	requestTimeout = 30 * time.Second

	metaConfig = "cliConfig"
)

// App creates the CLI application.
func App() *cli.App {
	info := buildinfo.Get()
	return &cli.App{
		Name:    "tokrelay-cli",
		Usage:   "TokRelay administration tool",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TokenCommand(),
			SystemCommand(),
			ConfigCommand(),
		},
		Before: loadConfig,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "TokRelay server address (e.g., localhost:5080)",
			EnvVars: []string{"TOKRELAY_SERVER"},
			Value:   defaultServer,
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"K"},
			Usage:   "Admin API key",
			EnvVars: []string{"TOKRELAY_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Saved profile from the CLI config file",
			EnvVars: []string{"TOKRELAY_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"TOKRELAY_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaConfig] = cfg
	return nil
}

// cliConfig returns the loaded CLI config, or defaults when Before did not
// run.
func cliConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// GlobalFlags are the resolved connection and output settings.
type GlobalFlags struct {
	Server string
	APIKey string
	Output output.Format
	Wide   bool
}

// ParseGlobalFlags resolves global settings. Explicit flags and environment
// variables win over the selected profile, which wins over defaults.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := cliConfig(c)

	flags := &GlobalFlags{
		Server: c.String("server"),
		APIKey: c.String("api-key"),
		Wide:   c.Bool("wide"),
	}

	profileName := c.String("profile")
	profile, ok := cfg.Profile(profileName)
	if profileName != "" && !ok {
		return nil, fmt.Errorf("profile %q not found in %s", profileName, c.String("config"))
	}
	if ok {
		if !c.IsSet("server") && profile.Server != "" {
			flags.Server = profile.Server
		}
		if !c.IsSet("api-key") {
			flags.APIKey = profile.APIKey
		}
	}

	format := c.String("output")
	if !c.IsSet("output") && cfg.Output != "" {
		format = cfg.Output
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f

	return flags, nil
}

// EnsureConnected builds an HTTP client from the resolved global settings.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	return connection.NewHTTPClient(flags.Server, flags.APIKey), flags, nil
}

// render writes data with the selected formatter.
func render(c *cli.Context, flags *GlobalFlags, data any) error {
	return output.NewFormatter(flags.Output, flags.Wide).Format(stdout(c), data)
}

func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, requestTimeout)
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
