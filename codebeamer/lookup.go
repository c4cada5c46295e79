package codebeamer

// lookup.go contains user and repository lookups used to link changesets.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/perfgo/trendwiki/model"
)

// NotManaged is returned by LookupRepository for remotes the instance does
// not know about.
const NotManaged = "not managed by codeBeamer"

type userDto struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

type repositoryDto struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// LookupUserID resolves a display name to a user identifier. A missing user
// is reported with ok == false and a nil error.
func (c *Client) LookupUserID(ctx context.Context, displayName string) (id string, ok bool, err error) {
	name := strings.ReplaceAll(displayName, " ", "")
	if name == "" {
		return "", false, nil
	}
	reqURL := fmt.Sprintf("%s/rest/user/%s", c.baseURL, url.PathEscape(name))

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return "", false, &RemoteError{Op: "lookup user", URL: reqURL, Err: err}
	}
	if status != http.StatusOK {
		return "", false, nil
	}

	var dto userDto
	if err := json.Unmarshal(body, &dto); err != nil {
		return "", false, &RemoteError{Op: "lookup user", URL: reqURL, StatusCode: status, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if dto.URI == "" {
		return "", false, nil
	}

	return dto.URI[strings.LastIndex(dto.URI, "/")+1:], true, nil
}

// LookupRepository resolves a source control remote to a wiki link of the
// repository managed by the instance. Resolution is best effort: any miss
// or failure yields NotManaged.
func (c *Client) LookupRepository(ctx context.Context, kind model.RepositoryKind, remote string) string {
	segments := strings.Split(strings.TrimSuffix(remote, "/"), "/")

	var candidates []string
	switch kind {
	case model.RepositoryGit:
		// the repository name is the last path segment
		candidates = []string{segments[len(segments)-1]}
	case model.RepositorySVN:
		// 0 = scheme, 1 = empty, 2 = host; any later segment may be the name
		if len(segments) > 3 {
			candidates = segments[3:]
		}
	default:
		c.logger.Debug().Str("kind", string(kind)).Msg("Unsupported repository kind")
		return NotManaged
	}

	for _, name := range candidates {
		if name == "" {
			continue
		}
		reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, kind, url.PathEscape(name))
		body, status, err := c.get(ctx, reqURL)
		if err != nil {
			c.logger.Debug().Err(err).Str("url", reqURL).Msg("Repository lookup failed")
			continue
		}
		if status != http.StatusOK {
			continue
		}

		var dto repositoryDto
		if err := json.Unmarshal(body, &dto); err != nil || dto.URI == "" {
			continue
		}
		return fmt.Sprintf("[%s%s]", c.baseURL, dto.URI)
	}

	return NotManaged
}
