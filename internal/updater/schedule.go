package updater

import "time"

// Schedule is either Disabled or Every(interval).
type Schedule struct {
	interval time.Duration
}

// Disabled returns a schedule that never fires.
func Disabled() Schedule {
	return Schedule{}
}

// Every returns a schedule firing at the given interval. A non-positive
// interval yields a disabled schedule.
func Every(interval time.Duration) Schedule {
	if interval <= 0 {
		return Disabled()
	}
	return Schedule{interval: interval}
}

// Interval reports the interval and whether the schedule is enabled.
func (s Schedule) Interval() (time.Duration, bool) {
	return s.interval, s.interval > 0
}

func (s Schedule) String() string {
	if s.interval <= 0 {
		return "disabled"
	}
	return "every " + s.interval.String()
}
