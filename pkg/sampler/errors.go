package sampler

import "errors"

var (
	errMalformedStat  = errors.New("malformed /proc/stat cpu line")
	errNoMemAvailable = errors.New("MemAvailable not present in meminfo")
)
