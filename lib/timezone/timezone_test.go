package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonthsBefore(t *testing.T) {
	paris, err := Load("Europe/Paris")
	require.NoError(t, err)

	cases := []struct {
		now      time.Time
		months   int
		expected time.Time
	}{
		{
			now:      time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC),
			months:   2,
			expected: time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			now:      time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC),
			months:   2,
			expected: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			now:      time.Date(2023, time.April, 30, 0, 0, 0, 0, time.UTC),
			months:   2,
			expected: time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			now:      time.Date(2024, time.January, 31, 23, 30, 0, 0, paris),
			months:   2,
			expected: time.Date(2023, time.November, 30, 23, 30, 0, 0, paris),
		},
		{
			now:      time.Date(2024, time.February, 10, 8, 0, 0, 0, time.UTC),
			months:   14,
			expected: time.Date(2022, time.December, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			now:      time.Date(2024, time.December, 10, 8, 0, 0, 0, time.UTC),
			months:   0,
			expected: time.Date(2024, time.December, 10, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, MonthsBefore(test.now, test.months), test.now.String())
	}
}

func TestLoad(t *testing.T) {
	loc, err := Load("")
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)

	_, err = Load("Not/AZone")
	require.Error(t, err)
}

func TestSystemClock(t *testing.T) {
	paris, err := Load("Europe/Paris")
	require.NoError(t, err)

	clock := NewSystemClock(paris)
	require.Equal(t, paris, clock.Now().Location())
	require.Equal(t, paris, clock.Location())
	require.Equal(t, time.UTC, NewSystemClock(nil).Location())
}

func TestFormatISO(t *testing.T) {
	paris, err := Load("Europe/Paris")
	require.NoError(t, err)

	cases := []struct {
		time     time.Time
		expected string
	}{
		{
			time:     time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC),
			expected: "2024-03-01T08:00:00+00:00",
		},
		{
			time:     time.Date(2024, time.March, 1, 8, 0, 0, 0, paris),
			expected: "2024-03-01T08:00:00+01:00",
		},
		{
			time:     time.Date(2024, time.July, 1, 8, 0, 0, 0, paris),
			expected: "2024-07-01T08:00:00+02:00",
		},
		{
			time:     time.Date(2024, time.March, 1, 8, 0, 0, 123456789, time.UTC),
			expected: "2024-03-01T08:00:00.123456+00:00",
		},
		{
			// sub-microsecond precision is dropped entirely
			time:     time.Date(2024, time.March, 1, 8, 0, 0, 999, time.UTC),
			expected: "2024-03-01T08:00:00+00:00",
		},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, FormatISO(test.time))
	}
}

func TestParseLocal(t *testing.T) {
	paris, err := Load("Europe/Paris")
	require.NoError(t, err)

	cases := []struct {
		value    string
		loc      *time.Location
		expected time.Time
	}{
		{
			value:    "2024-03-01T08:00:00",
			loc:      time.UTC,
			expected: time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			value:    "2024-03-01T08:00:00",
			loc:      paris,
			expected: time.Date(2024, time.March, 1, 8, 0, 0, 0, paris),
		},
		{
			value:    "2024-03-01T08:00:00.5",
			loc:      time.UTC,
			expected: time.Date(2024, time.March, 1, 8, 0, 0, 500_000_000, time.UTC),
		},
		{
			value:    "2024-03-01",
			loc:      paris,
			expected: time.Date(2024, time.March, 1, 0, 0, 0, 0, paris),
		},
		{
			value:    "2024-03-01T08:00:00Z",
			loc:      paris,
			expected: time.Date(2024, time.March, 1, 9, 0, 0, 0, paris),
		},
	}

	for _, test := range cases {
		parsed, err := ParseLocal(test.value, test.loc)
		require.NoError(t, err, test.value)
		require.True(t, test.expected.Equal(parsed), test.value)
		require.Equal(t, test.loc, parsed.Location(), test.value)
	}

	_, err = ParseLocal("yesterday", time.UTC)
	require.Error(t, err)
}
