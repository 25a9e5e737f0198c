// Package algorithm holds the physical join algorithms. Every algorithm
// writes rows in the same layout: all columns of the left input followed by
// the columns of the right input without its join column.
package algorithm

// Checker consults a cancellation check at a bounded interval of work so
// that the hot loops of the algorithms stay free of context plumbing.
type Checker struct {
	check    func() error
	interval int
	work     int
}

// NewChecker creates a checker calling check once every interval units of
// work. A nil check never fails.
func NewChecker(check func() error, interval int) *Checker {
	return &Checker{check: check, interval: max(interval, 1)}
}

// Step records n units of work and runs the check when the interval is
// reached.
func (c *Checker) Step(n int) error {
	c.work += n
	if c.work < c.interval {
		return nil
	}
	c.work = 0
	return c.Now()
}

// Now runs the check unconditionally.
func (c *Checker) Now() error {
	if c.check == nil {
		return nil
	}
	return c.check()
}
