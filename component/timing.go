package component

import "fmt"

// Timing is a component's schedule descriptor: it fires at virtual
// times Offset, Offset+Interval, Offset+2*Interval, ... while not
// asleep. Sleep suppresses the Sleep firings that follow the
// component's first firing. The scheduler counts these down in its own
// per-registration state; it never modifies a Timing.
type Timing struct {
	Offset   int64
	Interval int64
	Sleep    int64
}

// NewTiming validates and builds a Timing. Offset and Interval must be
// non-negative; Timing errors are rejected here rather than at
// first use, per spec.md §7.
func NewTiming(offset, interval, sleep int64) (Timing, error) {
	t := Timing{Offset: offset, Interval: interval, Sleep: sleep}
	if err := t.Validate(); err != nil {
		return Timing{}, err
	}
	return t, nil
}

// Validate reports a negative Offset, Interval, or Sleep. Timing's
// fields are exported, so a caller can build one as a struct literal
// and bypass NewTiming entirely; AddComponent calls Validate itself so
// the rejection spec.md §7 requires at registration cannot be skipped
// that way.
func (t Timing) Validate() error {
	if t.Offset < 0 {
		return fmt.Errorf("component: negative timing offset %d", t.Offset)
	}
	if t.Interval < 0 {
		return fmt.Errorf("component: negative timing interval %d", t.Interval)
	}
	if t.Sleep < 0 {
		return fmt.Errorf("component: negative timing sleep %d", t.Sleep)
	}
	return nil
}
