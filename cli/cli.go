package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/trendwiki/codebeamer"
	"github.com/perfgo/trendwiki/config"
	"github.com/perfgo/trendwiki/publish"
)

const AppName = config.AppName

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Publish build trends to a codeBeamer wiki page",
			Authors: []*cli.Author{
				{Name: "Christian Simon", Email: fmt.Sprintf("simon+%s@swine.de", AppName)},
			},
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "config",
					Aliases: []string{"c"},
					Usage:   "Path to the config file (default: ./trendwiki.yaml, ~/.config/trendwiki/trendwiki.yaml)",
				},
				&cli.StringFlag{
					Name:  "document-uri",
					Usage: "Wiki page to publish to, e.g. https://cb.example.com/cb/wiki/1234",
				},
				&cli.StringFlag{
					Name:  "credentials",
					Usage: "Credentials reference: env:NAME or file:PATH",
				},
				&cli.IntFlag{
					Name:  "retention",
					Usage: "Number of entries kept on the wiki page, 0 keeps everything (default: 50)",
				},
				&cli.BoolFlag{
					Name:  "strict-writes",
					Usage: "Fail when the wiki page update is not accepted",
				},
				&cli.DurationFlag{
					Name:  "timeout",
					Usage: "Connect and request timeout for remote calls",
					Value: config.DefaultTimeout,
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}

	buildFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "facts",
			Aliases:  []string{"f"},
			Usage:    "Path to the JSON build facts file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "pprof profile to derive performance reports from",
		},
		&cli.BoolFlag{
			Name:  "git",
			Usage: "Add the HEAD commit and origin remote of the working directory",
		},
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "publish",
		Usage:  "Publish the trend entry of a finished build",
		Action: app.runPublish,
		Flags:  buildFlags,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "preview",
		Usage:  "Print the merged wiki page and history row without writing anything",
		Action: app.runPreview,
		Flags:  buildFlags,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List the newest rows of the trend history attachment",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "performance",
				Usage: "Show the performance history instead of the test report history",
			},
		},
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

// loadConfig reads the configuration with explicitly set global flags
// taking precedence over environment and config file. The result is
// validated by connect once the document URI is known to be ours.
func (a *App) loadConfig(ctx *cli.Context) (*config.Config, error) {
	v := config.New(ctx.String("config"))
	bindFlags(ctx, v)

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("document_uri", cfg.DocumentURI).
		Str("config", v.ConfigFileUsed()).
		Dur("timeout", cfg.Timeout).
		Bool("strict_writes", cfg.StrictWrites).
		Msg("Loaded configuration")

	return cfg, nil
}

func bindFlags(ctx *cli.Context, v *viper.Viper) {
	if ctx.IsSet("document-uri") {
		v.Set(config.KeyDocumentURI, ctx.String("document-uri"))
	}
	if ctx.IsSet("credentials") {
		v.Set(config.KeyCredentials, ctx.String("credentials"))
	}
	if ctx.IsSet("retention") {
		v.Set(config.KeyRetention, ctx.Int("retention"))
	}
	if ctx.IsSet("strict-writes") {
		v.Set(config.KeyStrictWrites, ctx.Bool("strict-writes"))
	}
	if ctx.IsSet("timeout") {
		v.Set(config.KeyTimeout, ctx.Duration("timeout"))
	}
}

// newClient creates the codeBeamer client for target.
func (a *App) newClient(cfg *config.Config, creds codebeamer.Credentials, target config.Target) *codebeamer.Client {
	return codebeamer.New(target.BaseURL, target.WikiID, creds,
		codebeamer.WithTimeout(cfg.Timeout),
		codebeamer.WithStrictWrites(cfg.StrictWrites),
		codebeamer.WithLogger(a.logger),
	)
}

// connect validates cfg and resolves the credentials.
func connect(cfg *config.Config) (codebeamer.Credentials, error) {
	if err := cfg.Validate(); err != nil {
		return codebeamer.Credentials{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config.ResolveCredentials(cfg.Credentials)
}

func (a *App) dialer(cfg *config.Config, creds codebeamer.Credentials) publish.Dialer {
	return func(target config.Target) publish.Remote {
		return a.newClient(cfg, creds, target)
	}
}
