package monitor

import (
	"fmt"

	"github.com/digineo/go-netcheck/probe"
)

// FailureClass tells how badly a cycle failed.
type FailureClass int

const (
	FailureNone          FailureClass = iota // everything is up
	FailureSingleTimeout                     // no more targets down than ignored
	FailureMultipleDown                      // more targets down than ignored
)

func (f FailureClass) String() string {
	switch f {
	case FailureSingleTimeout:
		return "single timeout"
	case FailureMultipleDown:
		return "multiple down"
	default:
		return "none"
	}
}

func (f FailureClass) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FailureClass) UnmarshalText(text []byte) error {
	for _, c := range []FailureClass{FailureNone, FailureSingleTimeout, FailureMultipleDown} {
		if c.String() == string(text) {
			*f = c
			return nil
		}
	}
	return fmt.Errorf("unknown failure class %q", text)
}

// Verdict is the aggregated result of a cycle.
type Verdict struct {
	Up      int
	Total   int // at least 1
	Ignored int
	Failure FailureClass
}

// OverallUp reports whether every target was up.
func (v Verdict) OverallUp() bool {
	return v.Failure == FailureNone
}

// Aggregate counts the targets that are up and classifies the cycle.
func Aggregate(outcomes []probe.Outcome, ignored int) Verdict {
	v := Verdict{
		Total:   max(1, len(outcomes)),
		Ignored: ignored,
	}
	for _, o := range outcomes {
		if o.Up {
			v.Up++
		}
	}

	switch {
	case v.Up < v.Total-ignored:
		v.Failure = FailureMultipleDown
	case v.Up < v.Total:
		v.Failure = FailureSingleTimeout
	default:
		v.Failure = FailureNone
	}
	return v
}
