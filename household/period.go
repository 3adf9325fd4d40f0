package household

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// PERIOD - Identifier of a bounded unit of calendar time
// =============================================================================

// PeriodID identifies a period, e.g. "2026-W42" (week) or "2026-10" (month).
// Identifiers are fixed width, so for years 1000-9999 their lexical order
// is their chronological order. Stores rely on that to find the latest one.
type PeriodID string

func (p PeriodID) String() string { return string(p) }

// PeriodCodec parses and produces period identifiers.
//
// INVARIANTS:
//   - Offset(Offset(id, a), b) == Offset(id, a+b)
//   - Offset is strictly monotonic in n (by Parse key)
//   - a period is elapsed once now >= EndOf(id)
type PeriodCodec interface {
	// Kind returns "weekly" or "monthly".
	Kind() string

	// Parse returns a sortable key. Fails with ErrInvalidPeriodID.
	Parse(id PeriodID) (int64, error)

	// Format is the inverse of Parse.
	Format(key int64) (PeriodID, error)

	// Start returns the first instant of the period.
	Start(id PeriodID) (time.Time, error)

	// EndOf returns the exclusive end boundary of the period.
	EndOf(id PeriodID) (time.Time, error)

	// IsCurrent reports whether the period has not yet elapsed at now.
	IsCurrent(id PeriodID, now time.Time) (bool, error)

	// Offset advances id by n periods (n may be negative).
	Offset(id PeriodID, n int) (PeriodID, error)

	// Containing returns the period that contains t.
	Containing(t time.Time) PeriodID
}

const (
	KindWeekly  = "weekly"
	KindMonthly = "monthly"

	minYear = 1000
	maxYear = 9999
)

// NewCodec returns the codec for kind. A nil location means UTC.
func NewCodec(kind string, loc *time.Location) (PeriodCodec, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch kind {
	case KindWeekly, "":
		return WeeklyCodec{Location: loc}, nil
	case KindMonthly:
		return MonthlyCodec{Location: loc}, nil
	default:
		return nil, fmt.Errorf("unknown period kind %q", kind)
	}
}

// =============================================================================
// WEEKLY CODEC - ISO-8601 weeks, "YYYY-Www"
// =============================================================================

// WeeklyCodec handles ISO weeks. The key is the number of weeks since the
// Monday 1970-01-05.
type WeeklyCodec struct {
	Location *time.Location
}

var weekEpoch = time.Date(1970, time.January, 5, 0, 0, 0, 0, time.UTC)

const secondsPerWeek = 7 * 24 * 60 * 60

func (c WeeklyCodec) Kind() string { return KindWeekly }

func (c WeeklyCodec) Parse(id PeriodID) (int64, error) {
	monday, err := c.monday(id)
	if err != nil {
		return 0, err
	}
	return (monday.Unix() - weekEpoch.Unix()) / secondsPerWeek, nil
}

func (c WeeklyCodec) Format(key int64) (PeriodID, error) {
	monday := weekEpoch.AddDate(0, 0, int(key)*7)
	year, week := monday.ISOWeek()
	if year < minYear || year > maxYear {
		return "", &InvalidPeriodError{ID: PeriodID(strconv.FormatInt(key, 10)), Reason: "year out of range"}
	}
	return PeriodID(fmt.Sprintf("%04d-W%02d", year, week)), nil
}

func (c WeeklyCodec) Start(id PeriodID) (time.Time, error) {
	monday, err := c.monday(id)
	if err != nil {
		return time.Time{}, err
	}
	return inLocation(monday, c.Location), nil
}

func (c WeeklyCodec) EndOf(id PeriodID) (time.Time, error) {
	monday, err := c.monday(id)
	if err != nil {
		return time.Time{}, err
	}
	return inLocation(monday.AddDate(0, 0, 7), c.Location), nil
}

func (c WeeklyCodec) IsCurrent(id PeriodID, now time.Time) (bool, error) {
	return isCurrent(c, id, now)
}

func (c WeeklyCodec) Offset(id PeriodID, n int) (PeriodID, error) {
	return offset(c, id, n)
}

func (c WeeklyCodec) Containing(t time.Time) PeriodID {
	year, week := t.In(location(c.Location)).ISOWeek()
	return PeriodID(fmt.Sprintf("%04d-W%02d", year, week))
}

// monday returns the Monday (UTC midnight) that starts the ISO week.
func (c WeeklyCodec) monday(id PeriodID) (time.Time, error) {
	s := string(id)
	if len(s) != 8 || s[4] != '-' || s[5] != 'W' {
		return time.Time{}, &InvalidPeriodError{ID: id, Reason: "expected YYYY-Www"}
	}
	year, err := parseYear(id, s[:4])
	if err != nil {
		return time.Time{}, err
	}
	week, err := strconv.Atoi(s[6:])
	if err != nil || !isDigits(s[6:]) {
		return time.Time{}, &InvalidPeriodError{ID: id, Reason: "week is not a number"}
	}
	if week < 1 || week > isoWeeksIn(year) {
		return time.Time{}, &InvalidPeriodError{ID: id, Reason: "week out of range"}
	}

	// Jan 4 always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	sinceMonday := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDate(0, 0, -sinceMonday)
	return week1.AddDate(0, 0, (week-1)*7), nil
}

// isoWeeksIn returns 52 or 53. Dec 28 is always in the last ISO week.
func isoWeeksIn(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// =============================================================================
// MONTHLY CODEC - "YYYY-MM"
// =============================================================================

// MonthlyCodec handles calendar months. The key is year*12 + month-1.
type MonthlyCodec struct {
	Location *time.Location
}

func (c MonthlyCodec) Kind() string { return KindMonthly }

func (c MonthlyCodec) Parse(id PeriodID) (int64, error) {
	year, month, err := c.YearMonth(id)
	if err != nil {
		return 0, err
	}
	return int64(year)*12 + int64(month-1), nil
}

func (c MonthlyCodec) Format(key int64) (PeriodID, error) {
	year := floorDiv(key, 12)
	month := key - year*12 + 1
	if year < minYear || year > maxYear {
		return "", &InvalidPeriodError{ID: PeriodID(strconv.FormatInt(key, 10)), Reason: "year out of range"}
	}
	return PeriodID(fmt.Sprintf("%04d-%02d", year, month)), nil
}

func (c MonthlyCodec) Start(id PeriodID) (time.Time, error) {
	year, month, err := c.YearMonth(id)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, location(c.Location)), nil
}

func (c MonthlyCodec) EndOf(id PeriodID) (time.Time, error) {
	year, month, err := c.YearMonth(id)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month+1, 1, 0, 0, 0, 0, location(c.Location)), nil
}

func (c MonthlyCodec) IsCurrent(id PeriodID, now time.Time) (bool, error) {
	return isCurrent(c, id, now)
}

func (c MonthlyCodec) Offset(id PeriodID, n int) (PeriodID, error) {
	return offset(c, id, n)
}

func (c MonthlyCodec) Containing(t time.Time) PeriodID {
	t = t.In(location(c.Location))
	return PeriodID(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// YearMonth splits a monthly identifier.
func (c MonthlyCodec) YearMonth(id PeriodID) (int, time.Month, error) {
	s := string(id)
	if len(s) != 7 || s[4] != '-' {
		return 0, 0, &InvalidPeriodError{ID: id, Reason: "expected YYYY-MM"}
	}
	year, err := parseYear(id, s[:4])
	if err != nil {
		return 0, 0, err
	}
	month, err := strconv.Atoi(s[5:])
	if err != nil || !isDigits(s[5:]) || month < 1 || month > 12 {
		return 0, 0, &InvalidPeriodError{ID: id, Reason: "month out of range"}
	}
	return year, time.Month(month), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func isCurrent(c PeriodCodec, id PeriodID, now time.Time) (bool, error) {
	end, err := c.EndOf(id)
	if err != nil {
		return false, err
	}
	return now.Before(end), nil
}

func offset(c PeriodCodec, id PeriodID, n int) (PeriodID, error) {
	key, err := c.Parse(id)
	if err != nil {
		return "", err
	}
	return c.Format(key + int64(n))
}

func parseYear(id PeriodID, s string) (int, error) {
	if !isDigits(s) {
		return 0, &InvalidPeriodError{ID: id, Reason: "year is not a number"}
	}
	year, _ := strconv.Atoi(s)
	if year < minYear || year > maxYear {
		return 0, &InvalidPeriodError{ID: id, Reason: "year out of range"}
	}
	return year, nil
}

func isDigits(s string) bool {
	return s != "" && strings.TrimLeft(s, "0123456789") == ""
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// inLocation moves a UTC calendar date to midnight of the same date in loc.
func inLocation(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, location(loc))
}
