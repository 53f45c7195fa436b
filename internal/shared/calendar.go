package shared

import "time"

// NormalizeMonth truncates a date to the first day of its calendar month.
// The normalized month is the identity key for budgets.
func NormalizeMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DayRange bounds a [from, to] filter to whole local calendar days:
// from 00:00:00 through to 23:59:59.
func DayRange(from, to time.Time) (time.Time, time.Time) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, to.Location())
	return start, end
}

// MonthRange returns the normalized month boundaries covering [from, to].
func MonthRange(from, to time.Time) (time.Time, time.Time) {
	return NormalizeMonth(from), NormalizeMonth(to)
}
