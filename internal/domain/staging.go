package domain

// Staged is an output that has been fully written but not yet made visible
// to readers. Commit publishes it; Discard throws it away.
type Staged interface {
	Commit() error
	Discard() error
}
