package collector

import (
	"errors"
	"fmt"
)

var errUndeclared = errors.New("metric not declared in the snapshot definitions")

// ExpositionError is a snapshot sample that could not be rendered as a
// metric. The sample is dropped, the rest of the scrape is still served.
type ExpositionError struct {
	Metric string
	Err    error
}

func (e *ExpositionError) Error() string {
	return fmt.Sprintf("exposition of %s: %v", e.Metric, e.Err)
}

func (e *ExpositionError) Unwrap() error { return e.Err }
