package bridge

import (
	"ecocito-bridge/lib/scrapers/ecocito"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRecord(t *testing.T) {
	cases := []struct {
		weight   string
		date     string
		expected json.Number
		valid    bool
	}{
		{weight: "12", date: "2024-03-01T08:00:00", expected: "12", valid: true},
		{weight: "12.50", date: "2024-03-01T08:00:00", expected: "12.5", valid: true},
		{weight: "3.0", date: "2024-03-01T08:00:00", expected: "3.0", valid: true},
		{weight: "1e400", date: "2024-03-01T08:00:00"},
		{weight: `"7,5"`, date: "2024-03-01T08:00:00"},
		{weight: "null", date: "2024-03-01T08:00:00"},
		{weight: "12", date: ""},
		{weight: "12", date: "yesterday"},
	}

	for _, test := range cases {
		row := ecocito.Levee{
			Tank:   "A1",
			Chip:   "P1",
			Weight: json.RawMessage(test.weight),
			Date:   test.date,
		}
		record, err := decodeRecord(row, marchFifteenth.Location())
		if !test.valid {
			require.Error(t, err, "%s %s", test.weight, test.date)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, test.expected, record.Weight)

		payload, err := record.payload()
		require.NoError(t, err)
		require.Contains(t, string(payload), `"weight":`+string(test.expected)+`}`)
	}
}
