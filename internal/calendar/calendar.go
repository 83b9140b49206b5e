// Package calendar resolves day and week boundaries in the user's time
// zone, honouring the locale's first day of the week.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls in [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Empty reports whether the interval covers no time.
func (i Interval) Empty() bool {
	return !i.Start.Before(i.End)
}

// Calendar computes local-day and week intervals.
type Calendar struct {
	FirstWeekday time.Weekday
	Location     *time.Location
}

// Regions whose week starts on Sunday, Saturday or Friday (CLDR weekData).
// Everything else starts on Monday.
var (
	sundayRegions   = regionSet("AG AS BD BR BS BT BW BZ CA CN CO DM DO ET GT GU HK HN ID IL IN JM JP KE KH KR LA MH MM MO MT MX MZ NI NP PA PE PH PK PR PT PY SA SG SV TH TT TW UM US VE VI WS YE ZA ZW")
	saturdayRegions = regionSet("AE AF BH DJ DZ EG IQ IR JO KW LY OM QA SD SY")
	fridayRegions   = regionSet("MV")
)

func regionSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, code := range strings.Fields(list) {
		set[code] = true
	}
	return set
}

// ForLocale builds a Calendar for a BCP 47 locale such as "en-US" or
// "de-DE". A tag without a region uses the most likely region for its
// language ("en" resolves to US).
func ForLocale(locale string, loc *time.Location) (Calendar, error) {
	if loc == nil {
		loc = time.Local
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Calendar{}, fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	region, _ := tag.Region()
	return Calendar{FirstWeekday: FirstWeekday(region.String()), Location: loc}, nil
}

// FirstWeekday returns the first day of the week for an ISO 3166 region.
func FirstWeekday(region string) time.Weekday {
	switch {
	case sundayRegions[region]:
		return time.Sunday
	case saturdayRegions[region]:
		return time.Saturday
	case fridayRegions[region]:
		return time.Friday
	default:
		return time.Monday
	}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// StartOfDay returns local midnight of the day containing t.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc())
}

// Day returns the calendar day containing t. The day ends at the next
// local midnight, so DST transition days are 23 or 25 hours long.
func (c Calendar) Day(t time.Time) Interval {
	start := c.StartOfDay(t)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}

// Week returns the seven-day week containing t.
func (c Calendar) Week(t time.Time) Interval {
	day := c.StartOfDay(t)
	offset := (int(day.Weekday()) - int(c.FirstWeekday) + 7) % 7
	start := day.AddDate(0, 0, -offset)
	return Interval{Start: start, End: start.AddDate(0, 0, 7)}
}

// Days returns the local midnights of the seven days in week, in order.
func (c Calendar) Days(week Interval) []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = week.Start.AddDate(0, 0, i)
	}
	return days
}

// WeeksBetween counts whole weeks from the week containing a to the week
// containing b. Negative when b's week is earlier.
func (c Calendar) WeeksBetween(a, b time.Time) int {
	wa := c.Week(a).Start
	wb := c.Week(b).Start
	// Calendar-day difference, immune to DST hour drift.
	ya, ma, da := wa.Date()
	yb, mb, db := wb.Date()
	ua := time.Date(ya, ma, da, 0, 0, 0, 0, time.UTC)
	ub := time.Date(yb, mb, db, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours()/24) / 7
}
