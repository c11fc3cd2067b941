package jobs

import "time"

// SetClock overrides the time source of c.
func SetClock(c *OrphanCleaner, now func() time.Time) { c.now = now }
