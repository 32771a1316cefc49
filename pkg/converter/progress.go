package converter

// tracker funnels progress reports to the caller's callback while enforcing
// the ordering invariant: percentages are clamped to 0-100 and never
// decrease within one conversion call.
type tracker struct {
	parent *tracker
	fn     ProgressFunc
	lo, hi int
	last   int
}

func newTracker(fn ProgressFunc) *tracker {
	return &tracker{fn: fn, lo: 0, hi: 100}
}

// report emits a progress event. Out-of-range or regressing percentages are
// clamped rather than rejected, so pipeline stages can report their local
// estimates without coordinating.
func (t *tracker) report(percent int, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	mapped := t.lo + (t.hi-t.lo)*percent/100

	if t.parent != nil {
		t.parent.report(mapped, message)
		return
	}

	if mapped < t.last {
		mapped = t.last
	}
	t.last = mapped

	if t.fn != nil {
		t.fn(mapped, message)
	}
}

// window returns a tracker whose 0-100 range maps into [lo, hi] of this one.
// Used when one pipeline feeds another, like office conversions finishing
// inside the PDF-to-image pipeline.
func (t *tracker) window(lo, hi int) *tracker {
	return &tracker{parent: t, lo: lo, hi: hi}
}
