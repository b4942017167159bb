package vsfs

// cleanup collects undo functions for a multi-step mutation. Deferring
// Clean runs them newest first unless Release was called once every step
// succeeded.
type cleanup struct {
	undo []func()
}

// Add registers f to run on Clean.
func (c *cleanup) Add(f func()) {
	if f != nil {
		c.undo = append(c.undo, f)
	}
}

// Clean runs the registered functions in reverse order.
func (c *cleanup) Clean() {
	for i := len(c.undo) - 1; i >= 0; i-- {
		c.undo[i]()
	}
	c.undo = nil
}

// Release drops the registered functions without running them.
func (c *cleanup) Release() {
	c.undo = nil
}
