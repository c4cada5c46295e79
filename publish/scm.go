package publish

import (
	"context"
	"fmt"

	"github.com/perfgo/trendwiki/model"
)

// ScmResolver is the part of the remote client used to link changesets.
type ScmResolver interface {
	LookupUserID(ctx context.Context, displayName string) (id string, ok bool, err error)
	LookupRepository(ctx context.Context, kind model.RepositoryKind, remote string) string
}

// CollectScm resolves the authors and repositories of build. Authors are
// looked up once each; unknown authors keep their plain name and unknown
// repositories get the not-managed sentinel.
func CollectScm(ctx context.Context, resolver ScmResolver, build *model.Build) (model.ScmSummary, error) {
	var summary model.ScmSummary

	ids := make(map[string]string)
	for _, change := range build.Changes {
		id, seen := ids[change.Author]
		if !seen {
			found, ok, err := resolver.LookupUserID(ctx, change.Author)
			if err != nil {
				return model.ScmSummary{}, fmt.Errorf("failed to look up user %q: %w", change.Author, err)
			}
			if ok {
				id = found
			}
			ids[change.Author] = id
		}
		summary.Changes = append(summary.Changes, model.ResolvedChange{Changeset: change, AuthorID: id})
	}

	for _, repo := range build.Repositories {
		summary.Repositories = append(summary.Repositories, model.ResolvedRepository{
			Repository: repo,
			Link:       resolver.LookupRepository(ctx, repo.Kind, repo.Remote),
		})
	}

	return summary, nil
}
