package scheduler

import "errors"

var (
	errNoJobs             = errors.New("scheduler requires at least one job")
	errDuplicateKind      = errors.New("duplicate metric kind")
	errNonPositiveCadence = errors.New("cadence must be positive")
	errInvalidBaseTick    = errors.New("base tick must be positive")
	errBaseTickTooCoarse  = errors.New("base tick must not exceed the smallest cadence")
)
