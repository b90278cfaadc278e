package stash

import (
	"fmt"
	"strings"
	"time"
)

// Date builds a day-precision time in UTC. All journal dates carry no clock.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to day precision in UTC.
func Day(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// FreqKind tags the variants of a Frequency.
type FreqKind int

const (
	// FreqNever means the envelope has no due date.
	FreqNever FreqKind = iota
	// FreqOnce is due on a single fixed date.
	FreqOnce
	// FreqWeekly is due every week on a weekday.
	FreqWeekly
	// FreqBiweekly is due every other week, anchored to a date.
	FreqBiweekly
	// FreqMonthly is due every month on a day of the month.
	FreqMonthly
	// FreqBimonthly is due every other month, anchored to a date.
	FreqBimonthly
	// FreqAnnually is due every year, anchored to a date.
	FreqAnnually
)

// Frequency is a due-date policy. Which payload fields are meaningful depends
// on Kind: Weekday for weekly, Day for monthly, Anchor for once, biweekly,
// bimonthly and annually.
type Frequency struct {
	Kind    FreqKind
	Weekday time.Weekday
	Day     int
	Anchor  time.Time
}

// Never returns the no-due-date frequency.
func Never() Frequency {
	return Frequency{Kind: FreqNever}
}

// Once returns a frequency due on a single date.
func Once(date time.Time) Frequency {
	return Frequency{Kind: FreqOnce, Anchor: Day(date)}
}

// Weekly returns a frequency due every week on the given weekday.
func Weekly(w time.Weekday) Frequency {
	return Frequency{Kind: FreqWeekly, Weekday: w}
}

// Biweekly returns a frequency due every other week. The anchor date fixes
// which weeks count.
func Biweekly(anchor time.Time) Frequency {
	return Frequency{Kind: FreqBiweekly, Anchor: Day(anchor)}
}

// Monthly returns a frequency due every month on the given day. Days past the
// end of a month clamp to that month's last day.
func Monthly(day int) Frequency {
	return Frequency{Kind: FreqMonthly, Day: day}
}

// Bimonthly returns a frequency due every other month, anchored to a date.
func Bimonthly(anchor time.Time) Frequency {
	return Frequency{Kind: FreqBimonthly, Anchor: Day(anchor)}
}

// Annually returns a frequency due every year on the anchor's month and day.
func Annually(anchor time.Time) Frequency {
	return Frequency{Kind: FreqAnnually, Anchor: Day(anchor)}
}

// lastDayOfMonth returns the last day in the month containing t.
func lastDayOfMonth(year int, month time.Month) time.Time {
	// day zero of the next month
	return Date(year, month+1, 0)
}

// clampedDate builds a date, clamping day to the month's last day instead of
// letting time.Date normalize the overflow into the next month.
func clampedDate(year int, month time.Month, day int) time.Time {
	last := lastDayOfMonth(year, month)
	if day > last.Day() {
		return last
	}
	return Date(year, month, day)
}

// NextDueDate computes the first due date strictly after today. The second
// return value is false when no due date exists (Never, or an elapsed Once).
func (f Frequency) NextDueDate(today time.Time) (time.Time, bool) {
	today = Day(today)
	switch f.Kind {
	case FreqNever:
		return time.Time{}, false
	case FreqOnce:
		if !f.Anchor.After(today) {
			return time.Time{}, false
		}
		return f.Anchor, true
	case FreqWeekly:
		next := today.AddDate(0, 0, 1)
		for next.Weekday() != f.Weekday {
			next = next.AddDate(0, 0, 1)
		}
		return next, true
	case FreqBiweekly:
		days := int(today.Sub(f.Anchor).Hours() / 24)
		periods := (days / 7) / 2
		return f.Anchor.AddDate(0, 0, (periods+1)*14), true
	case FreqMonthly:
		due := clampedDate(today.Year(), today.Month(), f.Day)
		if due.After(today) {
			return due, true
		}
		return clampedDate(today.Year(), today.Month()+1, f.Day), true
	case FreqBimonthly:
		if f.Anchor.After(today) {
			return f.Anchor, true
		}
		due := f.Anchor
		for !due.After(today) {
			due = clampedDate(due.Year(), due.Month()+2, f.Anchor.Day())
		}
		return due, true
	case FreqAnnually:
		due := clampedDate(today.Year(), f.Anchor.Month(), f.Anchor.Day())
		if due.After(today) {
			return due, true
		}
		return clampedDate(today.Year()+1, f.Anchor.Month(), f.Anchor.Day()), true
	}
	return time.Time{}, false
}

// LastDueDate computes the due date one period before NextDueDate. This is
// the boundary deciding whether a transaction funds the current period or the
// next one. For Once, the fixed date becomes the last due date only after it
// has elapsed; Never has none.
func (f Frequency) LastDueDate(today time.Time) (time.Time, bool) {
	next, ok := f.NextDueDate(today)
	if !ok {
		if f.Kind == FreqOnce {
			return f.Anchor, true
		}
		return time.Time{}, false
	}

	switch f.Kind {
	case FreqWeekly:
		return next.AddDate(0, 0, -7), true
	case FreqBiweekly:
		return next.AddDate(0, 0, -14), true
	case FreqMonthly:
		return clampedDate(next.Year(), next.Month()-1, f.Day), true
	case FreqBimonthly:
		return clampedDate(next.Year(), next.Month()-2, f.Anchor.Day()), true
	case FreqAnnually:
		return clampedDate(next.Year()-1, f.Anchor.Month(), f.Anchor.Day()), true
	}
	// a future Once has no previous period
	return time.Time{}, false
}

func (f Frequency) String() string {
	switch f.Kind {
	case FreqNever:
		return "no date"
	case FreqOnce:
		return "due " + f.Anchor.Format("2006/01/02")
	case FreqWeekly:
		return "due every " + strings.ToLower(f.Weekday.String())
	case FreqBiweekly:
		return fmt.Sprintf("due every other %s starting %s",
			strings.ToLower(f.Anchor.Weekday().String()), f.Anchor.Format("2006/01/02"))
	case FreqMonthly:
		return fmt.Sprintf("due every %s", ordinal(f.Day))
	case FreqBimonthly:
		return fmt.Sprintf("due every other %s starting %s",
			ordinal(f.Anchor.Day()), f.Anchor.Format("2006/01/02"))
	case FreqAnnually:
		return "due every year starting " + f.Anchor.Format("2006/01/02")
	}
	return "unknown frequency"
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 10 {
	case 1:
		if n%100 != 11 {
			suffix = "st"
		}
	case 2:
		if n%100 != 12 {
			suffix = "nd"
		}
	case 3:
		if n%100 != 13 {
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sun":       time.Sunday,
	"mon":       time.Monday,
	"tue":       time.Tuesday,
	"wed":       time.Wednesday,
	"thu":       time.Thursday,
	"fri":       time.Friday,
	"sat":       time.Saturday,
}

func parseWeekday(s string) (time.Weekday, bool) {
	w, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return w, ok
}

// parseDayOfMonth pulls the number out of strings like "5th", "23rd" or "1".
func parseDayOfMonth(s string) (int, bool) {
	var digits strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(digits.String(), "%d", &n); err != nil || n < 1 || n > 31 {
		return 0, false
	}
	return n, true
}

// ParseFrequency parses a due clause such as "every 5th", "every other
// friday", "every year", "no date", or a literal date in the journal's date
// layout. Biweekly, bimonthly and annual frequencies require a starting date.
func ParseFrequency(s, dateLayout string, starting time.Time, hasStarting bool) (Frequency, error) {
	s = strings.TrimSpace(s)
	if s == "no date" {
		return Never(), nil
	}

	if what, ok := strings.CutPrefix(s, "every other "); ok {
		if !hasStarting {
			return Frequency{}, newParseError(
				"a `starting` clause is required for `every other` frequencies", s)
		}
		if _, ok := parseWeekday(what); ok {
			return Biweekly(starting), nil
		}
		if _, ok := parseDayOfMonth(what); ok {
			return Bimonthly(starting), nil
		}
		return Frequency{}, newParseError("invalid frequency", s)
	}

	if what, ok := strings.CutPrefix(s, "every "); ok {
		if w, ok := parseWeekday(what); ok {
			return Weekly(w), nil
		}
		if d, ok := parseDayOfMonth(what); ok {
			return Monthly(d), nil
		}
		if what == "year" {
			if !hasStarting {
				return Frequency{}, newParseError(
					"envelopes due annually require a `starting` date", s)
			}
			return Annually(starting), nil
		}
		return Frequency{}, newParseError("invalid frequency", s)
	}

	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return Frequency{}, newParseError(
			fmt.Sprintf("couldn't parse `%s` as a date with layout `%s`", s, dateLayout), s)
	}
	return Once(d), nil
}
