// Package dedup remembers which collection records were already
// published so a record is forwarded once across restarts.
package dedup

import (
	"ecocito-bridge/lib/timezone"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Entry is the identity of a collection record. Weight keeps the number
// as the portal wrote it, integers and decimals render differently.
type Entry struct {
	Time   time.Time
	Tank   string
	Chip   string
	Weight json.Number
}

// Fingerprint joins the entry's fields with underscores. The time and
// weight renderings match the ones used by existing state files, so a
// state file written by an earlier deployment keeps deduplicating.
func Fingerprint(e Entry) string {
	return strings.Join([]string{
		timezone.FormatISO(e.Time),
		e.Tank,
		e.Chip,
		FormatWeight(e.Weight),
	}, "_")
}

func isInteger(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".eE")
}

// FormatWeight renders a JSON number: integer literals as integers ("12"),
// anything else as a float (see FormatFloat). Text that is not a number is
// returned unchanged.
func FormatWeight(w json.Number) string {
	s := strings.TrimSpace(w.String())
	if isInteger(s) {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return s
		}
		return strconv.FormatInt(i, 10)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return s
	}
	return FormatFloat(f)
}

// FormatFloat renders f as the shortest decimal that round-trips, always
// with a fractional part ("12.0", "12.5") and in exponent form outside
// [1e-4, 1e16).
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
