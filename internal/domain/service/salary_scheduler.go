package service

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DefaultMinLeadDays is the minimum gap between today and a same-month
// first repayment.
const DefaultMinLeadDays = 10

// SalaryScheduler picks the first repayment date from a recurring salary day.
type SalaryScheduler struct {
	minLeadDays int
	location    *time.Location
}

// NewSalaryScheduler returns a scheduler that evaluates "today" in loc.
// A nil loc means UTC.
func NewSalaryScheduler(minLeadDays int, loc *time.Location) *SalaryScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &SalaryScheduler{minLeadDays: minLeadDays, location: loc}
}

// Next returns the salary day's occurrence in the reference month when it is
// strictly after reference and at least minLeadDays away; otherwise the
// occurrence in the following month. Salary days past the end of a month
// resolve to that month's last day.
func (s *SalaryScheduler) Next(salaryDay int, reference civil.Date) civil.Date {
	candidate := OccurrenceIn(reference.Year, reference.Month, salaryDay)
	if candidate.After(reference) && candidate.DaysSince(reference) >= s.minLeadDays {
		return candidate
	}

	year, month := reference.Year, reference.Month+1
	if month > time.December {
		year, month = year+1, time.January
	}
	return OccurrenceIn(year, month, salaryDay)
}

// NextFrom is Next with the reference taken as the calendar date of now in
// the scheduler's location.
func (s *SalaryScheduler) NextFrom(salaryDay int, now time.Time) civil.Date {
	return s.Next(salaryDay, s.Today(now))
}

// Today returns the calendar date of now in the scheduler's location.
func (s *SalaryScheduler) Today(now time.Time) civil.Date {
	return civil.DateOf(now.In(s.location))
}

// OccurrenceIn returns day in the given month, clamped to the month's last day.
func OccurrenceIn(year int, month time.Month, day int) civil.Date {
	last := DaysInMonth(year, month)
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

// DaysInMonth returns the number of days in month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Ordinal renders a day of month with its English suffix, e.g. "25th".
func Ordinal(day int) string {
	suffix := "th"
	switch day % 100 {
	case 11, 12, 13:
	default:
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}
