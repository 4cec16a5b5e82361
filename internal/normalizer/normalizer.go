// Package normalizer resolves the timestamp text published by news sources
// into absolute instants in a single civil zone.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoMatch is returned when the raw text does not fit a grammar.
var ErrNoMatch = errors.New("text does not match date grammar")

// Rule names one source date grammar.
type Rule string

const (
	// RuleISO accepts RFC 3339 instants with an offset or "Z".
	RuleISO Rule = "iso"
	// RuleClock accepts a bare "HH:MM" meaning today, or yesterday when that is still ahead.
	RuleClock Rule = "clock"
	// RuleDayMonthClock accepts "DD.MM[.YYYY][,] HH:MM"; a missing year means the current one.
	RuleDayMonthClock Rule = "day-month-clock"
	// RuleRelativeDay accepts "today/yesterday at HH:MM" phrases.
	RuleRelativeDay Rule = "relative-day"
)

var (
	clockExpr    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	dayMonthExpr = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})(?:\.(\d{4}))?\.?,?\s*(\d{1,2}):(\d{2})$`)
	anyClockExpr = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
)

var (
	todayMarkers     = []string{"днес", "today"}
	yesterdayMarkers = []string{"вчера", "yesterday"}
)

// Normalizer is safe for concurrent use; it holds no mutable state.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

// New builds a normalizer bound to the civil zone. A nil clock means time.Now.
func New(loc *time.Location, now func() time.Time) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Normalizer{loc: loc, now: now}
}

// Location returns the civil zone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Now returns the current instant in the civil zone.
func (n *Normalizer) Now() time.Time {
	return n.now().In(n.loc)
}

// Normalize tries the rules in order and falls back to Now when none match.
// It never fails.
func (n *Normalizer) Normalize(raw string, rules ...Rule) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return n.Now()
	}

	for _, rule := range rules {
		if t, err := n.Parse(rule, raw); err == nil {
			return t
		}
	}
	return n.Now()
}

// Parse applies a single rule.
func (n *Normalizer) Parse(rule Rule, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	switch rule {
	case RuleISO:
		return n.parseISO(raw)
	case RuleClock:
		return n.parseClock(raw)
	case RuleDayMonthClock:
		return n.parseDayMonthClock(raw)
	case RuleRelativeDay:
		return n.parseRelativeDay(raw)
	}
	return time.Time{}, fmt.Errorf("unknown rule %q", rule)
}

// isoLayouts accept seconds-less times and offsets without a colon.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z0700",
}

func (n *Normalizer) parseISO(raw string) (time.Time, error) {
	var firstErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.In(n.loc), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("%w: %v", ErrNoMatch, firstErr)
}

func (n *Normalizer) parseClock(raw string) (time.Time, error) {
	m := clockExpr.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, ErrNoMatch
	}
	hour, minute, err := clock(m[1], m[2])
	if err != nil {
		return time.Time{}, err
	}

	now := n.Now()
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, n.loc)
	if t.After(now) {
		t = t.AddDate(0, 0, -1)
	}
	return t, nil
}

func (n *Normalizer) parseDayMonthClock(raw string) (time.Time, error) {
	m := dayMonthExpr.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, ErrNoMatch
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year := n.Now().Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	hour, minute, err := clock(m[4], m[5])
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, n.loc)
	if month < 1 || month > 12 || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: invalid date %02d.%02d.%d", ErrNoMatch, day, month, year)
	}
	return t, nil
}

func (n *Normalizer) parseRelativeDay(raw string) (time.Time, error) {
	lower := strings.ToLower(raw)

	now := n.Now()
	var day time.Time
	switch {
	case containsAny(lower, yesterdayMarkers):
		day = now.AddDate(0, 0, -1)
	case containsAny(lower, todayMarkers):
		day = now
	default:
		return time.Time{}, ErrNoMatch
	}

	m := anyClockExpr.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, ErrNoMatch
	}
	hour, minute, err := clock(m[1], m[2])
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, n.loc), nil
}

func clock(h, m string) (int, int, error) {
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: hour %q", ErrNoMatch, h)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: minute %q", ErrNoMatch, m)
	}
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: clock %02d:%02d out of range", ErrNoMatch, hour, minute)
	}
	return hour, minute, nil
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
