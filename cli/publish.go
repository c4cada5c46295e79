package cli

// This file contains the publish and preview commands.

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/trendwiki/config"
	"github.com/perfgo/trendwiki/facts"
	"github.com/perfgo/trendwiki/model"
	"github.com/perfgo/trendwiki/publish"
)

func (a *App) runPublish(ctx *cli.Context) error {
	return a.runBuild(ctx, false)
}

func (a *App) runPreview(ctx *cli.Context) error {
	return a.runBuild(ctx, true)
}

func (a *App) runBuild(ctx *cli.Context, dryRun bool) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	// jobs that are not configured for a wiki page are left alone
	if _, ok := config.ParseDocumentURI(cfg.DocumentURI); !ok {
		a.logger.Warn().Str("uri", cfg.DocumentURI).Msg("Invalid codeBeamer wiki URI, skipping")
		return nil
	}

	creds, err := connect(cfg)
	if err != nil {
		return err
	}

	build, err := a.loadBuild(ctx)
	if err != nil {
		return err
	}

	p := publish.New(a.logger, a.dialer(cfg, creds))
	result, err := p.Run(ctx.Context, build, publish.Options{
		DocumentURI: cfg.DocumentURI,
		Retention:   cfg.Retention,
		DryRun:      dryRun,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("Publishing build trend failed")
		return err
	}

	if result.Skipped {
		return nil
	}

	if dryRun {
		fmt.Println(result.Markup)
		fmt.Printf("\n=== %s (%d entries) ===\n\n", result.Family.AttachmentName(), result.Entries)
		fmt.Print(string(result.Row))
		return nil
	}

	a.logger.Info().
		Str("run", result.RunID).
		Str("job", build.Job).
		Int("number", build.Number).
		Stringer("family", result.Family).
		Stringer("attachment", result.Attachment).
		Int("entries", result.Entries).
		Msg("Build trend published")

	return nil
}

// loadBuild reads the facts file and merges the optional profile and git
// information into it.
func (a *App) loadBuild(ctx *cli.Context) (*model.Build, error) {
	build, err := facts.Load(a.logger, ctx.String("facts"))
	if err != nil {
		return nil, err
	}

	if path := ctx.String("profile"); path != "" {
		reports, err := facts.LoadProfile(a.logger, path)
		if err != nil {
			return nil, err
		}
		build.Performance = append(build.Performance, reports...)
	}

	if ctx.Bool("git") {
		info, err := a.getGitInfo()
		if err != nil {
			// the facts file is still complete without it
			a.logger.Warn().Err(err).Msg("Failed to collect git information")
		} else {
			applyGitInfo(build, info)
		}
	}

	return build, nil
}
