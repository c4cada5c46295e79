package trend

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perfgo/trendwiki/model"
)

func entry(name string) string {
	return fmt.Sprintf("%s\n!3 %s\n", EntryMarker, name)
}

func document(entries ...string) string {
	return "[{T}]" + strings.Join(entries, "") + "}]"
}

func TestScan(t *testing.T) {
	markup := "intro [{T}]" + entry("E2") + entry("E1") + "}] outro"

	b := scan(markup)
	require.Equal(t, strings.Index(markup, "}]"), b.blockClose)
	require.Len(t, b.entries, 2)
	for _, offset := range b.entries {
		require.True(t, strings.HasPrefix(markup[offset:], EntryMarker))
	}
	require.Less(t, b.entries[0], b.entries[1])

	require.Equal(t, -1, scan("no block here").blockClose)
	require.Empty(t, scan("no block here").entries)
}

func TestScan_MarkerInsideEntry(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   int
	}{
		{
			name:   "marker in a bullet",
			markup: "[{T}]" + EntryMarker + "\n* {{abc}} dev: revert " + EntryMarker + " guard\n",
			want:   1,
		},
		{
			name:   "marker in a table cell",
			markup: "[{T}]" + EntryMarker + "\n|" + EntryMarker + "|\n" + EntryMarker + "\n",
			want:   2,
		},
		{
			name:   "marker at document start",
			markup: EntryMarker + "\n[{T}]",
			want:   1,
		},
		{
			name:   "marker after text on the same line",
			markup: "[{T}] note " + EntryMarker + "\n",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CountEntries(tt.markup))
		})
	}
}

func TestMerge_MarkerInsideEntryIsNotCounted(t *testing.T) {
	numbered := func(n int, extra string) string {
		return fmt.Sprintf("%s\n!3 job #%d\n%s|row%d|\n", EntryMarker, n, extra, n)
	}
	first := numbered(1, "* {{abc}} dev: revert "+EntryMarker+" guard\n")

	markup := ""
	var err error
	for _, e := range []string{first, numbered(2, ""), numbered(3, "")} {
		markup, err = Merge(markup, e, 3, FamilyTestReport)
		require.NoError(t, err)
	}
	require.Equal(t, 3, CountEntries(markup))
	require.True(t, strings.HasSuffix(markup, first))

	markup, err = Merge(markup, numbered(4, ""), 3, FamilyTestReport)
	require.NoError(t, err)
	require.Equal(t, 3, CountEntries(markup))
	require.NotContains(t, markup, "job #1")
	require.True(t, strings.HasSuffix(markup, numbered(2, "")))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		keep int
		want string
	}{
		{
			name: "fewer entries than window",
			in:   document(entry("E2"), entry("E1")),
			keep: 3,
			want: document(entry("E2"), entry("E1")),
		},
		{
			name: "exactly window entries leaves room for one",
			in:   document(entry("E2"), entry("E1")),
			keep: 2,
			want: "[{T}]" + entry("E2"),
		},
		{
			name: "window of one drops all entries",
			in:   document(entry("E2"), entry("E1")),
			keep: 1,
			want: "[{T}]",
		},
		{
			name: "zero is unlimited",
			in:   document(entry("E3"), entry("E2"), entry("E1")),
			keep: 0,
			want: document(entry("E3"), entry("E2"), entry("E1")),
		},
		{
			name: "negative is unlimited",
			in:   document(entry("E1")),
			keep: -5,
			want: document(entry("E1")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Truncate(tt.in, tt.keep))
		})
	}
}

func TestInsert(t *testing.T) {
	got, err := Insert("before [{T}] after }]", "NEW")
	require.NoError(t, err)
	require.Equal(t, "before [{T}]NEW after }]", got)

	_, err = Insert("no closing marker", "NEW")
	require.ErrorIs(t, err, ErrBlockMissing)
}

func TestEnsureBlock(t *testing.T) {
	require.Equal(t, "[{JenkinsBuildTrends}]", EnsureBlock("", FamilyTestReport))
	require.Equal(t, "[{JenkinsPerformanceTrends}]text", EnsureBlock("text", FamilyPerformance))
	require.Equal(t, "[{X}]", EnsureBlock("[{X}]", FamilyPerformance))
}

func TestMerge_DefaultBlock(t *testing.T) {
	for _, family := range Families() {
		t.Run(family.String(), func(t *testing.T) {
			e := entry("E1")
			got, err := Merge("", e, 50, family)
			require.NoError(t, err)
			require.Equal(t, family.DefaultBlock()+e, got)
		})
	}
}

func TestMerge_SequentialRuns(t *testing.T) {
	doc := "[{T}]}]"

	doc, err := Merge(doc, entry("E1"), 2, FamilyTestReport)
	require.NoError(t, err)
	doc, err = Merge(doc, entry("E2"), 2, FamilyTestReport)
	require.NoError(t, err)

	require.Equal(t, "[{T}]"+entry("E2")+entry("E1")+"}]", doc)
}

func TestMerge_TruncatesOldest(t *testing.T) {
	doc := document(entry("E3"), entry("E2"), entry("E1"))

	got, err := Merge(doc, entry("E4"), 2, FamilyTestReport)
	require.NoError(t, err)

	require.Equal(t, 2, CountEntries(got))
	require.Equal(t, "[{T}]"+entry("E4")+entry("E3"), got)
	require.NotContains(t, got, "E2")
	require.NotContains(t, got, "E1")
}

func TestMerge_RetentionWindow(t *testing.T) {
	for n := 0; n <= 6; n++ {
		for keep := 1; keep <= 5; keep++ {
			t.Run(fmt.Sprintf("n=%d keep=%d", n, keep), func(t *testing.T) {
				entries := make([]string, 0, n)
				for i := n; i > 0; i-- {
					entries = append(entries, entry(fmt.Sprintf("E%d", i)))
				}

				got, err := Merge(document(entries...), entry("NEW"), keep, FamilyTestReport)
				require.NoError(t, err)

				want := n + 1
				if n >= keep {
					want = keep
				}
				require.Equal(t, want, CountEntries(got))

				// the new entry sits directly after the opening token
				require.True(t, strings.HasPrefix(got, "[{T}]"+entry("NEW")))
			})
		}
	}
}

func TestMerge_Unlimited(t *testing.T) {
	entries := make([]string, 0, 60)
	for i := 60; i > 0; i-- {
		entries = append(entries, entry(fmt.Sprintf("E%d", i)))
	}

	got, err := Merge(document(entries...), entry("NEW"), 0, FamilyTestReport)
	require.NoError(t, err)
	require.Equal(t, 61, CountEntries(got))
}

func TestMerge_EmptyEntryKeepsCount(t *testing.T) {
	doc := document(entry("E2"), entry("E1"))

	got, err := Merge(doc, "", 10, FamilyTestReport)
	require.NoError(t, err)
	require.Equal(t, CountEntries(doc), CountEntries(got))
	require.Equal(t, doc, got)
}

func TestMerge_PreservesTextOutsideBlock(t *testing.T) {
	doc := "!1 Build trends\n[{T}]" + entry("E1") + "}]\nfooter"

	got, err := Merge(doc, entry("E2"), 50, FamilyTestReport)
	require.NoError(t, err)
	require.Equal(t, "!1 Build trends\n[{T}]"+entry("E2")+entry("E1")+"}]\nfooter", got)
}

func TestMerge_EntriesBeforeBlockAreResynthesised(t *testing.T) {
	// a hand edited page whose only entries precede any closing marker
	doc := entry("E2") + entry("E1") + "[{T}]}]"

	got, err := Merge(doc, entry("NEW"), 1, FamilyPerformance)
	require.NoError(t, err)
	require.Equal(t, FamilyPerformance.DefaultBlock()+entry("NEW"), got)
}

func TestEffectiveKeep(t *testing.T) {
	zero, seven := 0, 7
	require.Equal(t, DefaultKeep, EffectiveKeep(nil))
	require.Equal(t, 0, EffectiveKeep(&zero))
	require.Equal(t, 7, EffectiveKeep(&seven))
}

func TestSelectFamily(t *testing.T) {
	require.Equal(t, FamilyTestReport, SelectFamily(&model.Build{}))
	require.Equal(t, FamilyPerformance, SelectFamily(&model.Build{
		Performance: []model.PerformanceReport{{Name: "login"}},
	}))

	require.Equal(t, "jenkinsbuildtrends.csv", FamilyTestReport.AttachmentName())
	require.Equal(t, "jenkinsperformancetrends.csv", FamilyPerformance.AttachmentName())
}
