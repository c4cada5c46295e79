package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/perfgo/trendwiki/model"
	"github.com/perfgo/trendwiki/trend"
)

// markup accumulates the wiki markup of one entry.
type markup struct {
	sb strings.Builder
}

// newMarkup starts an entry with the entry marker and the build header.
func newMarkup(b *model.Build, now time.Time) *markup {
	m := &markup{}
	m.line(trend.EntryMarker)

	title := fmt.Sprintf("%s #%d", b.Job, b.Number)
	if b.URL != "" {
		title = fmt.Sprintf("[%s|%s]", title, b.URL)
	}
	m.line(fmt.Sprintf("!3 %s %s", resultIcon(b.Result), title))

	m.tableHeader("Result", "Started", "Duration", "Node", "Published")
	m.tableRow(
		string(b.Result),
		formatTime(b.StartedAt),
		b.Duration.Round(time.Second).String(),
		orDash(b.Node),
		formatTime(now),
	)
	return m
}

func (m *markup) line(s string) {
	m.sb.WriteString(s)
	m.sb.WriteByte('\n')
}

func (m *markup) text(s string) {
	m.line(s)
}

func (m *markup) bullet(s string) {
	m.line("* " + s)
}

func (m *markup) tableHeader(cols ...string) {
	m.line("||" + strings.Join(cols, "||"))
}

func (m *markup) tableRow(cols ...string) {
	escaped := make([]string, len(cols))
	for i, c := range cols {
		escaped[i] = strings.ReplaceAll(c, "|", "~|")
	}
	m.line("|" + strings.Join(escaped, "|"))
}

func (m *markup) scm(scm model.ScmSummary) {
	if len(scm.Repositories) > 0 {
		m.text("__Repositories__")
		for _, r := range scm.Repositories {
			entry := fmt.Sprintf("%s %s: %s", r.Kind, r.Remote, r.Link)
			if r.Branch != "" {
				entry += fmt.Sprintf(" (%s)", r.Branch)
			}
			m.bullet(entry)
		}
	}

	if len(scm.Changes) == 0 {
		m.text("No changes.")
		return
	}

	m.text("__Changes__")
	for _, c := range scm.Changes {
		author := c.Author
		if c.AuthorID != "" {
			author = fmt.Sprintf("[USER:%s]", c.AuthorID)
		}
		m.bullet(fmt.Sprintf("{{%s}} %s: %s", shortRevision(c.Revision), author, firstLine(c.Message)))
	}
}

func (m *markup) String() string {
	return m.sb.String()
}

func resultIcon(r model.Result) string {
	switch r {
	case model.ResultSuccess:
		return "(/)"
	case model.ResultUnstable:
		return "(!)"
	case model.ResultFailure:
		return "(x)"
	default:
		return "(?)"
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortRevision shortens git hashes the same way history listings do.
func shortRevision(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
