package cli

// This file contains Git integration utilities for retrieving
// repository information.

import (
	"fmt"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/perfgo/trendwiki/model"
)

// gitInfo describes the checkout the build ran on.
type gitInfo struct {
	Commit  string
	Branch  string
	Remote  string
	Author  string
	Subject string
}

func (a *App) git(args ...string) (string, error) {
	cmdArgs := append([]string{"git"}, args...)
	parts := make([]string, len(cmdArgs))
	for i, arg := range cmdArgs {
		parts[i] = shellescape.Quote(arg)
	}
	a.logger.Debug().Str("cmd", strings.Join(parts, " ")).Msg("Running git")

	output, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (a *App) getGitInfo() (*gitInfo, error) {
	// Get last commit hash, author and subject
	output, err := a.git("log", "-1", "--format=%H%x00%an%x00%s")
	if err != nil {
		return nil, fmt.Errorf("failed to get git commit: %w", err)
	}
	info, err := parseLastCommit(output)
	if err != nil {
		return nil, err
	}

	// Get current branch
	info.Branch, err = a.git("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git branch: %w", err)
	}

	// A checkout without origin is still usable
	if remote, err := a.git("remote", "get-url", "origin"); err == nil {
		info.Remote = remote
	} else {
		a.logger.Debug().Err(err).Msg("No origin remote configured")
	}

	return info, nil
}

// parseLastCommit parses the NUL separated output of
// git log -1 --format=%H%x00%an%x00%s.
func parseLastCommit(output string) (*gitInfo, error) {
	fields := strings.SplitN(output, "\x00", 3)
	if len(fields) != 3 || fields[0] == "" {
		return nil, fmt.Errorf("unexpected git log output %q", output)
	}
	return &gitInfo{
		Commit:  fields[0],
		Author:  fields[1],
		Subject: fields[2],
	}, nil
}

// applyGitInfo adds the commit and remote to build unless the facts file
// already lists them.
func applyGitInfo(build *model.Build, info *gitInfo) {
	hasChange := false
	for _, c := range build.Changes {
		if c.Revision == info.Commit {
			hasChange = true
			break
		}
	}
	if !hasChange {
		build.Changes = append(build.Changes, model.Changeset{
			Revision: info.Commit,
			Author:   info.Author,
			Message:  info.Subject,
		})
	}

	if info.Remote == "" {
		return
	}
	for _, r := range build.Repositories {
		if r.Kind == model.RepositoryGit && r.Remote == info.Remote {
			return
		}
	}

	branch := info.Branch
	if branch == "HEAD" {
		// detached checkout
		branch = ""
	}
	build.Repositories = append(build.Repositories, model.Repository{
		Kind:   model.RepositoryGit,
		Remote: info.Remote,
		Branch: branch,
	})
}
