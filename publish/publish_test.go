package publish

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/trendwiki/codebeamer"
	"github.com/perfgo/trendwiki/config"
	"github.com/perfgo/trendwiki/model"
	"github.com/perfgo/trendwiki/trend"
)

const documentURI = "https://cb.example.com/cb/wiki/1234"

var clock = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newPublisher(t *testing.T, remote *fakeRemote) (*Publisher, *[]config.Target) {
	t.Helper()

	var dialed []config.Target
	p := New(zerolog.Nop(), func(target config.Target) Remote {
		dialed = append(dialed, target)
		return remote
	}, WithClock(func() time.Time { return clock }))
	return p, &dialed
}

func testBuild(number int) *model.Build {
	return &model.Build{
		Job:      "trendwiki",
		Number:   number,
		Result:   model.ResultSuccess,
		Duration: time.Minute,
		Tests:    &model.TestResult{Total: 10},
	}
}

func TestRun_InvalidURISkips(t *testing.T) {
	remote := newFakeRemote("")
	p, dialed := newPublisher(t, remote)

	result, err := p.Run(context.Background(), testBuild(1), Options{DocumentURI: "ftp://host/notwiki/5"})
	require.NoError(t, err)
	require.True(t, result.Skipped)
	require.Empty(t, *dialed)
	require.Empty(t, remote.calls)
}

func TestRun_FirstRunCreatesAttachment(t *testing.T) {
	remote := newFakeRemote("")
	p, dialed := newPublisher(t, remote)

	result, err := p.Run(context.Background(), testBuild(1), Options{DocumentURI: documentURI})
	require.NoError(t, err)
	require.False(t, result.Skipped)
	require.Equal(t, []config.Target{{BaseURL: "https://cb.example.com/cb", WikiID: "1234"}}, *dialed)

	require.Equal(t, trend.FamilyTestReport, result.Family)
	require.Equal(t, ActionCreated, result.Attachment)
	require.Equal(t, 1, remote.called("CreateAttachment"))
	require.Equal(t, 0, remote.called("ReplaceAttachment"))

	require.True(t, strings.HasPrefix(remote.markup, "[{JenkinsBuildTrends}]"+trend.EntryMarker))
	require.Equal(t, 1, trend.CountEntries(remote.markup))

	content, ok := remote.content("jenkinsbuildtrends.csv")
	require.True(t, ok)
	require.Equal(t, string(result.Row), content)
}

func TestRun_OrderOfOperations(t *testing.T) {
	remote := newFakeRemote("[{JenkinsBuildTrends}]")
	p, _ := newPublisher(t, remote)

	_, err := p.Run(context.Background(), testBuild(1), Options{DocumentURI: documentURI})
	require.NoError(t, err)

	require.Equal(t, []string{
		"ReadDocument",
		"ListAttachments",
		"CreateAttachment",
		"WriteDocument",
	}, remote.calls)
}

func TestRun_SequentialRuns(t *testing.T) {
	keep := 2
	remote := newFakeRemote("")
	p, _ := newPublisher(t, remote)

	var rows []string
	for i := 1; i <= 3; i++ {
		result, err := p.Run(context.Background(), testBuild(i), Options{DocumentURI: documentURI, Retention: &keep})
		require.NoError(t, err)
		rows = append(rows, string(result.Row))
	}

	// the report block keeps the window, the history keeps everything
	require.Equal(t, 2, trend.CountEntries(remote.markup))
	require.Contains(t, remote.markup, "trendwiki #3")
	require.Contains(t, remote.markup, "trendwiki #2")
	require.NotContains(t, remote.markup, "trendwiki #1")
	require.Less(t, strings.Index(remote.markup, "trendwiki #3"), strings.Index(remote.markup, "trendwiki #2"))

	content, _ := remote.content("jenkinsbuildtrends.csv")
	require.Equal(t, rows[2]+rows[1]+rows[0], content)
	require.Equal(t, 1, remote.called("CreateAttachment"))
	require.Equal(t, 2, remote.called("ReplaceAttachment"))
}

func TestRun_PerformanceFamily(t *testing.T) {
	remote := newFakeRemote("")
	remote.attachments = []codebeamer.Attachment{{ID: "1", Name: "jenkinsbuildtrends.csv"}}
	p, _ := newPublisher(t, remote)

	build := testBuild(5)
	build.Performance = []model.PerformanceReport{{Name: "login", Samples: 10, Average: 3}}

	result, err := p.Run(context.Background(), build, Options{DocumentURI: documentURI})
	require.NoError(t, err)
	require.Equal(t, trend.FamilyPerformance, result.Family)
	require.Equal(t, ActionCreated, result.Attachment)
	require.True(t, strings.HasPrefix(remote.markup, "[{JenkinsPerformanceTrends}]"))

	_, ok := remote.content("jenkinsperformancetrends.csv")
	require.True(t, ok)
	require.Equal(t, 0, remote.called("ReplaceAttachment"))
}

func TestRun_ResolvesScm(t *testing.T) {
	remote := newFakeRemote("")
	remote.users["James Bond"] = "1007"
	remote.repos["https://git.example.com/trendwiki.git"] = "[https://cb.example.com/cb/repository/3]"
	p, _ := newPublisher(t, remote)

	build := testBuild(1)
	build.Changes = []model.Changeset{
		{Revision: "a1", Author: "James Bond", Message: "one"},
		{Revision: "a2", Author: "James Bond", Message: "two"},
		{Revision: "a3", Author: "Q", Message: "three"},
	}
	build.Repositories = []model.Repository{{Kind: model.RepositoryGit, Remote: "https://git.example.com/trendwiki.git"}}

	_, err := p.Run(context.Background(), build, Options{DocumentURI: documentURI})
	require.NoError(t, err)

	require.Equal(t, 2, remote.called("LookupUserID"))
	require.Contains(t, remote.markup, "{{a1}} [USER:1007]: one")
	require.Contains(t, remote.markup, "{{a3}} Q: three")
	require.Contains(t, remote.markup, "[https://cb.example.com/cb/repository/3]")
}

func TestRun_DryRun(t *testing.T) {
	remote := newFakeRemote("[{JenkinsBuildTrends}]")
	p, _ := newPublisher(t, remote)

	result, err := p.Run(context.Background(), testBuild(1), Options{DocumentURI: documentURI, DryRun: true})
	require.NoError(t, err)
	require.Equal(t, 1, result.Entries)
	require.Equal(t, ActionNone, result.Attachment)
	require.Equal(t, []string{"ReadDocument"}, remote.calls)
	require.Equal(t, "[{JenkinsBuildTrends}]", remote.markup)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fakeRemote)
		wantErr   string
		wantCalls []string
	}{
		{
			name:      "document read aborts before anything else",
			setup:     func(f *fakeRemote) { f.readErr = errRemote },
			wantErr:   "failed to fetch wiki page",
			wantCalls: []string{"ReadDocument"},
		},
		{
			name:      "user lookup failure aborts",
			setup:     func(f *fakeRemote) { f.userErr = errRemote },
			wantErr:   "failed to look up user",
			wantCalls: []string{"ReadDocument", "LookupUserID"},
		},
		{
			name:      "attachment failure leaves page untouched",
			setup:     func(f *fakeRemote) { f.createErr = errRemote },
			wantErr:   "failed to create attachment",
			wantCalls: []string{"ReadDocument", "LookupUserID", "ListAttachments", "CreateAttachment"},
		},
		{
			name:      "page write failure is reported",
			setup:     func(f *fakeRemote) { f.writeErr = errRemote },
			wantErr:   "failed to update wiki page",
			wantCalls: []string{"ReadDocument", "LookupUserID", "ListAttachments", "CreateAttachment", "WriteDocument"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote("[{JenkinsBuildTrends}]")
			tt.setup(remote)
			p, _ := newPublisher(t, remote)

			build := testBuild(1)
			build.Changes = []model.Changeset{{Revision: "a1", Author: "Q"}}

			result, err := p.Run(context.Background(), build, Options{DocumentURI: documentURI})
			require.Nil(t, result)
			require.ErrorContains(t, err, tt.wantErr)
			require.True(t, codebeamer.IsRemoteError(err))
			require.Equal(t, tt.wantCalls, remote.calls)
			require.Equal(t, "[{JenkinsBuildTrends}]", remote.markup)
		})
	}
}
