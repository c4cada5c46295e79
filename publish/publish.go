// Package publish runs one trend update: it fetches the wiki page, merges
// the entry of the finished build, reconciles the CSV history attachment and
// writes the page back. Nothing is kept between runs.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/perfgo/trendwiki/codebeamer"
	"github.com/perfgo/trendwiki/config"
	"github.com/perfgo/trendwiki/model"
	"github.com/perfgo/trendwiki/render"
	"github.com/perfgo/trendwiki/trend"
)

// Remote is the set of remote operations a run needs.
type Remote interface {
	AttachmentStore
	ScmResolver
	ReadDocument(ctx context.Context) (string, error)
	WriteDocument(ctx context.Context, markup string) error
}

var _ Remote = (*codebeamer.Client)(nil)

// Dialer creates the remote client for a wiki page. It is only called once
// the document URI has been parsed successfully.
type Dialer func(target config.Target) Remote

// Options are the per-run settings.
type Options struct {
	DocumentURI string
	// nil selects trend.DefaultKeep, values <= 0 disable truncation
	Retention *int
	// DryRun stops after merging; nothing is written
	DryRun bool
}

// Result describes a finished run.
type Result struct {
	RunID string
	// Skipped is set when the document URI did not match and nothing was done
	Skipped bool
	Target  config.Target
	Family  trend.Family
	// Attachment tells whether the history attachment was created or replaced
	Attachment Action
	Markup     string
	Row        []byte
	Entries    int
}

// Publisher runs trend updates.
type Publisher struct {
	logger zerolog.Logger
	dial   Dialer
	now    func() time.Time
}

// Option is a function that configures a Publisher.
type Option func(*Publisher)

// WithClock replaces the clock used for timestamps of entries and rows.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// New creates a Publisher that reaches the remote store through dial.
func New(logger zerolog.Logger, dial Dialer, opts ...Option) *Publisher {
	p := &Publisher{
		logger: logger,
		dial:   dial,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run publishes build. A document URI that does not match <base>/wiki/<id>
// yields a skipped result and no remote call. Any remote error before the
// page write aborts the run; the page is written last so it never refers to
// history the attachment does not have.
func (p *Publisher) Run(ctx context.Context, build *model.Build, opts Options) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	logger := p.logger.With().Str("run", result.RunID).Logger()

	target, ok := config.ParseDocumentURI(opts.DocumentURI)
	if !ok {
		logger.Warn().Str("uri", opts.DocumentURI).Msg("Invalid codeBeamer wiki URI, skipping")
		result.Skipped = true
		return result, nil
	}
	result.Target = target

	logger = logger.With().Str("wiki", target.WikiID).Logger()
	remote := p.dial(target)
	now := p.now()

	logger.Info().Str("url", target.BaseURL).Msg("Fetching wiki page")
	current, err := remote.ReadDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wiki page: %w", err)
	}

	scm, err := CollectScm(ctx, remote, build)
	if err != nil {
		return nil, err
	}

	result.Family = trend.SelectFamily(build)
	logger.Debug().Stringer("family", result.Family).Msg("Selected metric family")

	fragment, err := render.Render(result.Family, build, scm, now)
	if err != nil {
		return nil, fmt.Errorf("failed to render build entry: %w", err)
	}
	result.Row = fragment.Row

	keep := trend.EffectiveKeep(opts.Retention)
	result.Markup, err = trend.Merge(current, fragment.Markup, keep, result.Family)
	if err != nil {
		return nil, fmt.Errorf("failed to merge build entry: %w", err)
	}
	result.Entries = trend.CountEntries(result.Markup)

	logger.Debug().
		Int("keep", keep).
		Int("entries", result.Entries).
		Msg("Merged build entry")

	if opts.DryRun {
		logger.Info().Msg("Dry run, skipping remote updates")
		return result, nil
	}

	name := result.Family.AttachmentName()
	result.Attachment, err = NewReconciler(logger, remote).Reconcile(ctx, name, fragment.Row)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("name", name).
		Stringer("action", result.Attachment).
		Msg("Attachment uploaded")

	logger.Info().Msg("Starting wiki update")
	if err := remote.WriteDocument(ctx, result.Markup); err != nil {
		return nil, fmt.Errorf("failed to update wiki page: %w", err)
	}
	logger.Info().Int("entries", result.Entries).Msg("Wiki update finished")

	return result, nil
}
