package facts

// profile.go derives performance reports from a pprof profile, so builds
// that record profiles instead of load test results still report trends.

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/pprof/profile"
	"github.com/rs/zerolog"

	"github.com/perfgo/trendwiki/model"
)

// LoadProfile reads the pprof profile at path and returns one performance
// report per sample type.
func LoadProfile(logger zerolog.Logger, path string) ([]model.PerformanceReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()

	prof, err := profile.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	reports := ProfileReports(prof)
	logger.Debug().
		Str("path", path).
		Int("sample_types", len(prof.SampleType)).
		Int("samples", len(prof.Sample)).
		Msg("Loaded profile")

	return reports, nil
}

// ProfileReports aggregates the samples of prof per sample type. Samples
// with a zero value for a type do not count towards that type.
func ProfileReports(prof *profile.Profile) []model.PerformanceReport {
	reports := make([]model.PerformanceReport, 0, len(prof.SampleType))

	for i, st := range prof.SampleType {
		var values []int64
		for _, s := range prof.Sample {
			if i < len(s.Value) && s.Value[i] != 0 {
				values = append(values, s.Value[i])
			}
		}

		report := model.PerformanceReport{
			Name:    fmt.Sprintf("%s (%s)", st.Type, st.Unit),
			Samples: int64(len(values)),
		}
		if len(values) > 0 {
			sort.Slice(values, func(a, b int) bool { return values[a] < values[b] })

			var sum int64
			for _, v := range values {
				sum += v
			}
			report.Average = sum / int64(len(values))
			report.Median = percentile(values, 50)
			report.Line90 = percentile(values, 90)
			report.Min = values[0]
			report.Max = values[len(values)-1]
		}

		reports = append(reports, report)
	}

	return reports
}

// percentile returns the nearest-rank percentile p of sorted values.
func percentile(sorted []int64, p int) int64 {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
