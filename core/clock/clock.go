package clock

import "time"

// Clock abstracts time for components that schedule or expire work, so tests
// can control the current instant.
type Clock interface {
	Now() time.Time
}

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
