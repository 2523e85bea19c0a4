package ecocito

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeveeWeightNumber(t *testing.T) {
	cases := []struct {
		raw      string
		expected json.Number
		valid    bool
	}{
		{raw: "12", expected: "12", valid: true},
		{raw: "12.50", expected: "12.50", valid: true},
		{raw: " 1e2 ", expected: "1e2", valid: true},
		{raw: "", valid: false},
		{raw: "null", valid: false},
		{raw: `"7,5"`, valid: false},
		{raw: `"12"`, valid: false},
		{raw: "true", valid: false},
	}

	for _, test := range cases {
		weight, err := Levee{Weight: json.RawMessage(test.raw)}.WeightNumber()
		if !test.valid {
			require.Error(t, err, test.raw)
			continue
		}
		require.NoError(t, err, test.raw)
		require.Equal(t, test.expected, weight)
	}
}

func TestListingMissingWeight(t *testing.T) {
	var listing Listing
	err := json.Unmarshal([]byte(`{"data":[{"NumeroCuve":"A1","DATE_DONNEE":"2024-03-01T08:00:00"}]}`), &listing)
	require.NoError(t, err)
	require.Len(t, listing.Data, 1)

	_, err = listing.Data[0].WeightNumber()
	require.Error(t, err)
}
