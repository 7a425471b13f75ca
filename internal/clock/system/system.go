// Package system provides the wall-clock implementation of harvest.Clock.
package system

import "time"

// Clock implements harvest.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC. Record timestamps and run accounting
// use UTC so output trees compare cleanly across machines.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
