package crawler

import "xkcdcrawl/pkg/xkcd"

// OutcomeKind tags the result of one attempted comic number
type OutcomeKind int

const (
	// OutcomeDownloaded means the artifact pair was fetched and saved this run
	OutcomeDownloaded OutcomeKind = iota
	// OutcomeSkippedExisting means a complete artifact pair already existed
	OutcomeSkippedExisting
	// OutcomeSkippedMissing means the source definitively has no such comic
	OutcomeSkippedMissing
	// OutcomeFailed means all attempts for this comic were exhausted
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeSkippedExisting:
		return "skipped_existing"
	case OutcomeSkippedMissing:
		return "skipped_missing"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchOutcome is the result of one attempted comic number.
// Exactly one outcome is produced per number per run.
type FetchOutcome struct {
	Kind   OutcomeKind
	Num    int
	Record *xkcd.ComicRecord
	Cause  error
}

// NetworkTouched reports whether producing this outcome required a network call
func (o FetchOutcome) NetworkTouched() bool {
	return o.Kind != OutcomeSkippedExisting
}

// RunSummary aggregates the outcomes of a crawl run
type RunSummary struct {
	Downloaded      int
	SkippedExisting int
	SkippedMissing  int
	Failed          int
	FailedNums      []int
}

func (s *RunSummary) record(outcome FetchOutcome) {
	switch outcome.Kind {
	case OutcomeDownloaded:
		s.Downloaded++
	case OutcomeSkippedExisting:
		s.SkippedExisting++
	case OutcomeSkippedMissing:
		s.SkippedMissing++
	case OutcomeFailed:
		s.Failed++
		s.FailedNums = append(s.FailedNums, outcome.Num)
	}
}

// Attempted returns the total number of comic numbers the run resolved
func (s *RunSummary) Attempted() int {
	return s.Downloaded + s.SkippedExisting + s.SkippedMissing + s.Failed
}
