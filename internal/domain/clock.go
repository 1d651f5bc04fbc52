package domain

import "github.com/jonboulle/clockwork"

// clock stamps IngestedAt on flattened rows. Fixture generators and tests
// freeze it so record output is byte-for-byte reproducible.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the ingestion clock; nil restores wall time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}
