package domain

import "errors"

var (
	// ErrFlatWindow marks a window whose 32 values are all equal. Min-max
	// normalization would divide by zero, so the sample is dropped.
	ErrFlatWindow = errors.New("flat window: zero price range")

	// ErrMissingInferenceData marks a company that cannot produce a feature
	// window for a reference date: the date has no bar, or the history
	// around it is too short. Recoverable — the company is skipped that day.
	ErrMissingInferenceData = errors.New("missing inference data")

	// ErrInconsistentHistory marks a valuation or exit that cannot locate a
	// price row even though the calendar date is inside the company's
	// covered range. Fatal: the calendar and the history have desynchronized
	// and substituting a stale price would silently corrupt the run.
	ErrInconsistentHistory = errors.New("inconsistent price history")
)
