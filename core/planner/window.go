package planner

import "time"

// Window is the event period of a plan. Hour arithmetic uses the hour of day
// of each bound in its own location.
type Window struct {
	Start time.Time
	End   time.Time
}

// Hours lists the hours of day from Start to End inclusive. A window whose
// end hour precedes its start hour (e.g. crossing midnight) yields no hours.
func (w Window) Hours() []int {
	s, e := w.Start.Hour(), w.End.Hour()
	if e < s {
		return nil
	}
	hours := make([]int, 0, e-s+1)
	for h := s; h <= e; h++ {
		hours = append(hours, h)
	}
	return hours
}

// ContainsHour reports whether hour lies within [Start.Hour, End.Hour].
func (w Window) ContainsHour(hour int) bool {
	return hour >= w.Start.Hour() && hour <= w.End.Hour()
}

// NoticeHours returns the lead time between now and the window start.
func (w Window) NoticeHours(now time.Time) float64 {
	return w.Start.Sub(now).Hours()
}
