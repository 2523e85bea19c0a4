package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstMessage(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		block    string
		item     string
		expected string
		found    bool
	}{
		{
			name:     "first list item",
			body:     `<div class="validation-summary-errors"><ul><li>Invalid credentials</li><li>Other</li></ul></div>`,
			block:    "div.validation-summary-errors",
			item:     "li",
			expected: "Invalid credentials",
			found:    true,
		},
		{
			name: "whitespace is collapsed",
			body: `<div class="validation-summary-errors"><ul><li>
				Compte   verrouillé
			</li></ul></div>`,
			block:    "div.validation-summary-errors",
			item:     "li",
			expected: "Compte verrouillé",
			found:    true,
		},
		{
			name:     "block text fallback",
			body:     `<div class="error"> Session expirée </div>`,
			block:    "div.error",
			item:     "li",
			expected: "Session expirée",
			found:    true,
		},
		{
			name:  "no block",
			body:  `<html><body><p>hello</p></body></html>`,
			block: "div.error",
			found: false,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			doc, err := Parse([]byte(test.body))
			require.NoError(t, err)

			message, ok := FirstMessage(doc, test.block, test.item)
			require.Equal(t, test.found, ok)
			require.Equal(t, test.expected, message)
		})
	}
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b c", CleanText("  a \n\t b   c\u0000 "))
}
