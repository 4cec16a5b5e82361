package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sofia = time.FixedZone("EET", 2*60*60)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestNormalizer() *Normalizer {
	return New(sofia, fixedClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, sofia)))
}

func TestParseISO(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()

	got, err := n.Parse(RuleISO, "2026-03-10T08:15:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 10, 10, 15, 0, 0, sofia).Unix(), got.Unix())
	assert.Equal(t, sofia, got.Location())

	got, err = n.Parse(RuleISO, "2026-03-09T23:59:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09 22:59", got.Format("2006-01-02 15:04"))

	_, err = n.Parse(RuleISO, "yesterday")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestParseISOLayouts(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()
	want := time.Date(2026, time.March, 9, 10, 15, 0, 0, sofia)

	for _, raw := range []string{
		"2026-03-09T10:15:00+02:00",
		"2026-03-09T10:15+02:00",
		"2026-03-09T10:15:00+0200",
		"2026-03-09T10:15:00.000+0200",
		"2026-03-09T10:15+0200",
		"2026-03-09T08:15Z",
	} {
		got, err := n.Parse(RuleISO, raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s: got %s", raw, got)
		assert.Equal(t, sofia, got.Location(), raw)
	}

	for _, raw := range []string{"2026-03-09T10:15", "2026-03-09", "2026-03-09T10:15+2"} {
		_, err := n.Parse(RuleISO, raw)
		assert.ErrorIs(t, err, ErrNoMatch, raw)
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()

	got, err := n.Parse(RuleClock, "09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 10, 9, 30, 0, 0, sofia), got)

	// A clock still ahead of now belongs to the previous day.
	got, err = n.Parse(RuleClock, "23:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 9, 23, 5, 0, 0, sofia), got)

	_, err = n.Parse(RuleClock, "25:00")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = n.Parse(RuleClock, "10.03, 09:30")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestParseDayMonthClock(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()

	cases := map[string]time.Time{
		"08.03, 17:45":      time.Date(2026, time.March, 8, 17, 45, 0, 0, sofia),
		"8.3 07:05":         time.Date(2026, time.March, 8, 7, 5, 0, 0, sofia),
		"31.12.2025, 23:10": time.Date(2025, time.December, 31, 23, 10, 0, 0, sofia),
	}
	for raw, want := range cases {
		got, err := n.Parse(RuleDayMonthClock, raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := n.Parse(RuleDayMonthClock, "31.02, 10:00")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = n.Parse(RuleDayMonthClock, "10:00")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestParseRelativeDay(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()

	got, err := n.Parse(RuleRelativeDay, "днес в 14:30 ч.")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 10, 14, 30, 0, 0, sofia), got)

	got, err = n.Parse(RuleRelativeDay, "вчера в 09:15 ч.")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 9, 9, 15, 0, 0, sofia), got)

	got, err = n.Parse(RuleRelativeDay, "Yesterday at 7:02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 9, 7, 2, 0, 0, sofia), got)

	_, err = n.Parse(RuleRelativeDay, "преди 5 минути")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = n.Parse(RuleRelativeDay, "днес")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestNormalizeTriesRulesInOrder(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer()

	got := n.Normalize("08.03, 17:45", RuleClock, RuleDayMonthClock)
	assert.Equal(t, time.Date(2026, time.March, 8, 17, 45, 0, 0, sofia), got)

	got = n.Normalize(" 11:20 ", RuleDayMonthClock, RuleClock)
	assert.Equal(t, time.Date(2026, time.March, 10, 11, 20, 0, 0, sofia), got)
}

func TestNormalizeFallsBackToNow(t *testing.T) {
	t.Parallel()

	n := New(sofia, nil)

	for _, raw := range []string{"", "   ", "sometime soon", "99:99", "днес"} {
		before := time.Now()
		got := n.Normalize(raw, RuleISO, RuleClock, RuleDayMonthClock, RuleRelativeDay)
		assert.False(t, got.IsZero(), raw)
		assert.WithinDuration(t, before, got, 5*time.Second, raw)
		assert.Equal(t, sofia, got.Location(), raw)
	}
}

func TestParseUnknownRule(t *testing.T) {
	t.Parallel()

	_, err := newTestNormalizer().Parse(Rule("epoch"), "1700000000")
	assert.Error(t, err)
}
