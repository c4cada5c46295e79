package trend

import "github.com/perfgo/trendwiki/model"

// Family selects which metrics a run reports. Exactly one family is active
// per run.
type Family int

const (
	FamilyTestReport Family = iota
	FamilyPerformance
)

type familyInfo struct {
	name         string
	attachment   string
	defaultBlock string
}

var families = [...]familyInfo{
	FamilyTestReport: {
		name:         "test-report",
		attachment:   "jenkinsbuildtrends.csv",
		defaultBlock: "[{JenkinsBuildTrends}]",
	},
	FamilyPerformance: {
		name:         "performance",
		attachment:   "jenkinsperformancetrends.csv",
		defaultBlock: "[{JenkinsPerformanceTrends}]",
	},
}

// Families lists every metric family.
func Families() []Family {
	return []Family{FamilyTestReport, FamilyPerformance}
}

// SelectFamily returns the performance family when the build carries
// performance data and the test report family otherwise.
func SelectFamily(b *model.Build) Family {
	if b.HasPerformance() {
		return FamilyPerformance
	}
	return FamilyTestReport
}

func (f Family) info() familyInfo {
	if f < 0 || int(f) >= len(families) {
		return families[FamilyTestReport]
	}
	return families[f]
}

// AttachmentName is the name of the CSV history attachment of the family.
func (f Family) AttachmentName() string {
	return f.info().attachment
}

// DefaultBlock is the report block opening token inserted into documents
// that do not have one yet.
func (f Family) DefaultBlock() string {
	return f.info().defaultBlock
}

func (f Family) String() string {
	return f.info().name
}
