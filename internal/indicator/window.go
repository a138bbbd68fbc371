package indicator

// rollingSum maintains the sum of the last N pushed values using a fixed-size
// ring buffer, so each window update is O(1) instead of re-summing the window.
type rollingSum struct {
	vals  []float64
	head  int
	count int
	sum   float64
}

func newRollingSum(size int) *rollingSum {
	return &rollingSum{vals: make([]float64, size)}
}

func (r *rollingSum) Push(v float64) {
	if r.count == len(r.vals) {
		r.sum -= r.vals[r.head]
		r.vals[r.head] = v
		r.head = (r.head + 1) % len(r.vals)
	} else {
		r.vals[(r.head+r.count)%len(r.vals)] = v
		r.count++
	}
	r.sum += v
}

// Full reports whether the window has seen at least its size in values.
func (r *rollingSum) Full() bool {
	return r.count == len(r.vals)
}

func (r *rollingSum) Sum() float64 {
	return r.sum
}

// Mean returns the average of the values currently in the window, or 0 when
// the window is empty.
func (r *rollingSum) Mean() float64 {
	if r.count == 0 {
		return 0
	}
	return r.sum / float64(r.count)
}
