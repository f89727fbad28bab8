package workflow

import "time"

// minWait keeps timers positive when a deadline has already passed.
const minWait = time.Second

func untilDue(now, due time.Time) time.Duration {
	if d := due.Sub(now); d > minWait {
		return d
	}

	return minWait
}

// addMonths moves t by months, clamping the day to the end of the target
// month so a period starting on the 31st stays at month end.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()

	return first.AddDate(0, 0, min(day, last)-1)
}

// nextPeriodStart returns the first period boundary start + k*months that is
// strictly after now, or start itself while it lies in the future.
func nextPeriodStart(start time.Time, months int, now time.Time) time.Time {
	if now.Before(start) {
		return start
	}

	// jump close to now, then step
	elapsed := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
	k := max(elapsed/months-1, 0)

	for {
		next := addMonths(start, k*months)
		if next.After(now) {
			return next
		}
		k++
	}
}

func untilNextPeriod(start time.Time, months int, now time.Time) time.Duration {
	return untilDue(now, nextPeriodStart(start, months, now))
}
