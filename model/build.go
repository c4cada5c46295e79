package model

import "time"

// Result is the outcome reported by the build system for a finished build.
type Result string

const (
	ResultSuccess  Result = "SUCCESS"
	ResultUnstable Result = "UNSTABLE"
	ResultFailure  Result = "FAILURE"
	ResultAborted  Result = "ABORTED"
	ResultNotBuilt Result = "NOT_BUILT"
)

// Build represents the facts of a single finished build.
// It is produced once per run and never modified afterwards.
type Build struct {
	// Name of the job the build belongs to
	Job string `json:"job"`
	// Sequential build number within the job
	Number int `json:"number"`
	// Link back to the build in the build system
	URL string `json:"url,omitempty"`
	// Outcome of the build
	Result Result `json:"result"`
	// Timestamp when the build started
	StartedAt time.Time `json:"started_at"`
	// Duration of the build, encoded as integer nanoseconds
	Duration time.Duration `json:"duration"`
	// Executor or node name the build ran on
	Node string `json:"node,omitempty"`

	// Test report summary (absent when the build published no tests)
	Tests *TestResult `json:"tests,omitempty"`
	// Performance test reports (empty when the build has no performance data)
	Performance []PerformanceReport `json:"performance,omitempty"`

	// Source control changes included in this build
	Changes []Changeset `json:"changes,omitempty"`
	// Source control remotes the build was checked out from
	Repositories []Repository `json:"repositories,omitempty"`
}

// HasPerformance reports whether the build carries performance data.
func (b *Build) HasPerformance() bool {
	return len(b.Performance) > 0
}

// TestResult contains the aggregated test report of a build.
type TestResult struct {
	Total   int `json:"total"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	// Names of failed test cases, in report order
	FailedCases []string `json:"failed_cases,omitempty"`
}

// Passed returns the number of tests that neither failed nor were skipped.
func (t *TestResult) Passed() int {
	return t.Total - t.Failed - t.Skipped
}

// PerformanceReport contains aggregate metrics of one performance report.
// Durations are in milliseconds, as produced by load testing tools.
type PerformanceReport struct {
	Name         string  `json:"name"`
	Samples      int64   `json:"samples"`
	Average      int64   `json:"average"`
	Median       int64   `json:"median"`
	Line90       int64   `json:"line90"`
	Min          int64   `json:"min"`
	Max          int64   `json:"max"`
	ErrorPercent float64 `json:"error_percent"`
}

// Changeset is a single source control change.
type Changeset struct {
	Revision string `json:"revision"`
	Author   string `json:"author"`
	Message  string `json:"message,omitempty"`
}

// RepositoryKind identifies the source control protocol of a remote.
type RepositoryKind string

const (
	RepositoryGit RepositoryKind = "git"
	RepositorySVN RepositoryKind = "svn"
)

// Repository is a source control remote of the build.
type Repository struct {
	Kind   RepositoryKind `json:"kind"`
	Remote string         `json:"remote"`
	// Branch checked out for the build (git only)
	Branch string `json:"branch,omitempty"`
}
