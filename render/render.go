// Package render turns the facts of one build into a wiki markup entry and
// one CSV history row. It is pure formatting and holds no state.
package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/perfgo/trendwiki/model"
	"github.com/perfgo/trendwiki/trend"
)

// Fragment is the rendered contribution of one build.
type Fragment struct {
	// Markup is the wiki entry, starting with trend.EntryMarker
	Markup string
	// Row is one CSV line including the trailing newline
	Row []byte
}

// renderFunc renders one metric family.
type renderFunc func(b *model.Build, scm model.ScmSummary, now time.Time) (Fragment, error)

var renderers = map[trend.Family]renderFunc{
	trend.FamilyTestReport:  TestReport,
	trend.FamilyPerformance: Performance,
}

// Render dispatches to the renderer of family.
func Render(family trend.Family, b *model.Build, scm model.ScmSummary, now time.Time) (Fragment, error) {
	fn, ok := renderers[family]
	if !ok {
		return Fragment{}, fmt.Errorf("no renderer for metric family %q", family)
	}
	return fn(b, scm, now)
}

// TestReport renders the test report family.
func TestReport(b *model.Build, scm model.ScmSummary, now time.Time) (Fragment, error) {
	m := newMarkup(b, now)

	if b.Tests == nil {
		m.text("No test results were published by this build.")
	} else {
		m.tableHeader("Tests", "Passed", "Failed", "Skipped")
		m.tableRow(
			strconv.Itoa(b.Tests.Total),
			strconv.Itoa(b.Tests.Passed()),
			strconv.Itoa(b.Tests.Failed),
			strconv.Itoa(b.Tests.Skipped),
		)
		if len(b.Tests.FailedCases) > 0 {
			m.text("__Failed tests__")
			for _, name := range b.Tests.FailedCases {
				m.bullet(fmt.Sprintf("{{%s}}", name))
			}
		}
	}
	m.scm(scm)

	var total, failed, skipped int
	if b.Tests != nil {
		total, failed, skipped = b.Tests.Total, b.Tests.Failed, b.Tests.Skipped
	}

	row, err := csvRow(
		strconv.FormatInt(now.UnixMilli(), 10),
		b.Job,
		strconv.Itoa(b.Number),
		string(b.Result),
		strconv.FormatInt(b.Duration.Milliseconds(), 10),
		strconv.Itoa(total),
		strconv.Itoa(failed),
		strconv.Itoa(skipped),
	)
	if err != nil {
		return Fragment{}, err
	}

	return Fragment{Markup: m.String(), Row: row}, nil
}

// Performance renders the performance family. The CSV row aggregates every
// report: average, median and error percent are weighted by sample count,
// line90 and max are the worst and min the best of all reports. Reports
// without samples do not contribute.
func Performance(b *model.Build, scm model.ScmSummary, now time.Time) (Fragment, error) {
	if !b.HasPerformance() {
		return Fragment{}, fmt.Errorf("build %s #%d has no performance data", b.Job, b.Number)
	}

	m := newMarkup(b, now)
	m.tableHeader("Report", "Samples", "Average (ms)", "Median (ms)", "90% line (ms)", "Min (ms)", "Max (ms)", "Errors (%)")
	for _, r := range b.Performance {
		m.tableRow(
			r.Name,
			strconv.FormatInt(r.Samples, 10),
			strconv.FormatInt(r.Average, 10),
			strconv.FormatInt(r.Median, 10),
			strconv.FormatInt(r.Line90, 10),
			strconv.FormatInt(r.Min, 10),
			strconv.FormatInt(r.Max, 10),
			formatPercent(r.ErrorPercent),
		)
	}
	m.scm(scm)

	agg := aggregate(b.Performance)
	row, err := csvRow(
		strconv.FormatInt(now.UnixMilli(), 10),
		b.Job,
		strconv.Itoa(b.Number),
		string(b.Result),
		strconv.FormatInt(agg.Samples, 10),
		strconv.FormatInt(agg.Average, 10),
		strconv.FormatInt(agg.Median, 10),
		strconv.FormatInt(agg.Line90, 10),
		strconv.FormatInt(agg.Min, 10),
		strconv.FormatInt(agg.Max, 10),
		formatPercent(agg.ErrorPercent),
	)
	if err != nil {
		return Fragment{}, err
	}

	return Fragment{Markup: m.String(), Row: row}, nil
}

func aggregate(reports []model.PerformanceReport) model.PerformanceReport {
	agg := model.PerformanceReport{Name: "total"}

	var avgSum, medianSum int64
	var errSum float64
	for _, r := range reports {
		// a report without samples has no meaningful extremes
		if r.Samples <= 0 {
			continue
		}
		first := agg.Samples == 0

		agg.Samples += r.Samples
		avgSum += r.Average * r.Samples
		medianSum += r.Median * r.Samples
		errSum += r.ErrorPercent * float64(r.Samples)

		if first || r.Line90 > agg.Line90 {
			agg.Line90 = r.Line90
		}
		if first || r.Max > agg.Max {
			agg.Max = r.Max
		}
		if first || r.Min < agg.Min {
			agg.Min = r.Min
		}
	}

	if agg.Samples > 0 {
		agg.Average = avgSum / agg.Samples
		agg.Median = medianSum / agg.Samples
		agg.ErrorPercent = errSum / float64(agg.Samples)
	}
	return agg
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func csvRow(fields ...string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, fmt.Errorf("failed to encode csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode csv row: %w", err)
	}
	return buf.Bytes(), nil
}
