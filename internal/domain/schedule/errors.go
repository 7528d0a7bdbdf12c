package schedule

import "errors"

// Sentinel errors for parsing generator output.
var (
	ErrNoJSON    = errors.New("no balanced JSON object found")
	ErrNotObject = errors.New("schedule is not a JSON object")
)
