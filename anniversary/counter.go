package anniversary

import "time"

// Span is a calendar distance. Years is left at zero by UntilNext.
type Span struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// daysBefore returns the length of the month preceding t's month.
func daysBefore(t time.Time) int {
	return time.Date(t.Year(), t.Month(), 0, 0, 0, 0, 0, t.Location()).Day()
}

// Together returns the years, months and days elapsed from start to now,
// borrowing days from the month before now when needed.
func Together(start, now time.Time) Span {
	years := now.Year() - start.Year()
	months := int(now.Month()) - int(start.Month())
	days := now.Day() - start.Day()

	if days < 0 {
		months--
		days += daysBefore(now)
	}
	if months < 0 {
		years--
		months += 12
	}
	return Span{Years: years, Months: months, Days: days}
}

// UntilNext returns the months and days from now until next, never negative.
func UntilNext(now, next time.Time) Span {
	months := (next.Year()-now.Year())*12 + int(next.Month()) - int(now.Month())
	days := next.Day() - now.Day()

	if days < 0 {
		months--
		days += daysBefore(next)
	}
	return Span{Months: max(months, 0), Days: max(days, 0)}
}

// NextAnniversary returns the next occurrence of the anniversary's month and
// day at midnight. Once the day has started, the next one is a year away.
func NextAnniversary(anniversary, now time.Time) time.Time {
	next := time.Date(now.Year(), anniversary.Month(), anniversary.Day(), 0, 0, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(1, 0, 0)
	}
	return next
}

// Counters is what the page shows under the header.
type Counters struct {
	Together  Span      `json:"together"`
	UntilNext Span      `json:"until_next"`
	Next      time.Time `json:"next"`
}

// CountersAt computes both counters for the anniversary at now.
func CountersAt(anniversary, now time.Time) Counters {
	start := time.Date(anniversary.Year(), anniversary.Month(), anniversary.Day(), 0, 0, 0, 0, now.Location())
	next := NextAnniversary(anniversary, now)
	return Counters{
		Together:  Together(start, now),
		UntilNext: UntilNext(now, next),
		Next:      next,
	}
}
