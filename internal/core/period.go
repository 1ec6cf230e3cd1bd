package core

import (
	"errors"
	"time"
)

const (
	PeriodDaily       TimePeriod = "1D"
	PeriodWeekly      TimePeriod = "1W"
	PeriodMonthly     TimePeriod = "1M"
	PeriodThreeMonths TimePeriod = "3M"
	PeriodSixMonths   TimePeriod = "6M"
	PeriodOneYear     TimePeriod = "1Y"
)

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

type (
	// TimePeriod is a fixed-length trailing window anchored to "now".
	TimePeriod string

	// Granularity is the chart bucket size for a period.
	Granularity string
)

var ErrInvalidPeriod = errors.New("invalid time period")

// ParsePeriod maps an API period string ("1D".."1Y") to a TimePeriod.
func ParsePeriod(s string) (TimePeriod, error) {
	switch TimePeriod(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodThreeMonths, PeriodSixMonths, PeriodOneYear:
		return TimePeriod(s), nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Periods returns all periods in selector order.
func Periods() []TimePeriod {
	return []TimePeriod{
		PeriodDaily, PeriodWeekly, PeriodMonthly,
		PeriodThreeMonths, PeriodSixMonths, PeriodOneYear,
	}
}

func (p TimePeriod) Valid() bool {
	_, err := ParsePeriod(string(p))
	return err == nil
}

func (p TimePeriod) String() string { return string(p) }

// DisplayName returns the user-facing period name.
func (p TimePeriod) DisplayName() string {
	switch p {
	case PeriodDaily:
		return "Today"
	case PeriodWeekly:
		return "This Week"
	case PeriodMonthly:
		return "This Month"
	case PeriodThreeMonths:
		return "3 Months"
	case PeriodSixMonths:
		return "6 Months"
	case PeriodOneYear:
		return "1 Year"
	default:
		return string(p)
	}
}

// CurrentStart returns the start of the trailing window ending at now.
func (p TimePeriod) CurrentStart(now time.Time) time.Time {
	return p.subtract(now, 1)
}

// PreviousStart returns the start of the immediately preceding window of
// identical length. The previous window is [PreviousStart, CurrentStart);
// the two windows never overlap.
func (p TimePeriod) PreviousStart(now time.Time) time.Time {
	return p.subtract(now, 2)
}

func (p TimePeriod) subtract(now time.Time, n int) time.Time {
	switch p {
	case PeriodDaily:
		return now.AddDate(0, 0, -n)
	case PeriodWeekly:
		return now.AddDate(0, 0, -7*n)
	case PeriodMonthly:
		return now.AddDate(0, -n, 0)
	case PeriodThreeMonths:
		return now.AddDate(0, -3*n, 0)
	case PeriodSixMonths:
		return now.AddDate(0, -6*n, 0)
	case PeriodOneYear:
		return now.AddDate(-n, 0, 0)
	default:
		return now
	}
}

// Granularity returns the chart bucket size: hour for daily, day for
// weekly and monthly, month for the longer windows.
func (p TimePeriod) Granularity() Granularity {
	switch p {
	case PeriodDaily:
		return GranularityHour
	case PeriodWeekly, PeriodMonthly:
		return GranularityDay
	default:
		return GranularityMonth
	}
}

// BucketStart truncates t down to the start of its bucket.
func (g Granularity) BucketStart(t time.Time) time.Time {
	switch g {
	case GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
}

// Next returns the start of the bucket after t. t must be a bucket start.
func (g Granularity) Next(t time.Time) time.Time {
	switch g {
	case GranularityHour:
		return t.Add(time.Hour)
	case GranularityDay:
		return t.AddDate(0, 0, 1)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Label formats a bucket start for chart axes.
func (g Granularity) Label(t time.Time) string {
	switch g {
	case GranularityHour:
		return t.Format("15:04")
	case GranularityDay:
		return t.Format("2 Jan")
	default:
		return t.Format("Jan")
	}
}
