// internal/rules/parse.go
package rules

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// toFloat reads extracted numbers and currency strings such as "$1,250.00".
// The second return is false when the value is absent or not numeric.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func toString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	}
	return "", false
}

func toBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}

// parseDate accepts the layouts extraction commonly produces. Unparseable
// input reports false so callers can skip the check.
func parseDate(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		if t, isTime := v.(time.Time); isTime {
			return t, true
		}
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// count reports how many entries a list-ish field holds: list length, a
// numeric count, or 0 when absent.
func count(v interface{}) int {
	switch l := v.(type) {
	case []interface{}:
		return len(l)
	case []string:
		return len(l)
	case []map[string]interface{}:
		return len(l)
	}
	if n, ok := toFloat(v); ok && n > 0 {
		return int(n)
	}
	return 0
}

func isMissing(v interface{}) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	}
	return false
}

func digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// olderThan reports whether date falls strictly before today minus days.
func olderThan(date, now time.Time, days int) bool {
	return date.Before(startOfDay(now).AddDate(0, 0, -days))
}

func daysSince(date, now time.Time) int {
	return int(startOfDay(now).Sub(startOfDay(date)).Hours() / 24)
}

// containsName checks that both borrower name tokens appear in value,
// case-insensitively and independently of each other.
func containsName(value, first, last string) bool {
	v := strings.ToLower(value)
	return strings.Contains(v, strings.ToLower(strings.TrimSpace(first))) &&
		strings.Contains(v, strings.ToLower(strings.TrimSpace(last)))
}

var employerStopwords = map[string]bool{
	"inc": true, "llc": true, "corp": true, "corporation": true, "co": true,
	"company": true, "ltd": true, "the": true, "of": true, "and": true, "lp": true,
}

var tokenSplitter = regexp.MustCompile(`[^a-z0-9]+`)

func significantTokens(name string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range tokenSplitter.Split(strings.ToLower(name), -1) {
		if len(tok) < 2 || employerStopwords[tok] {
			continue
		}
		out[tok] = true
	}
	return out
}

// employersMatch is true when the two names share at least one significant
// token, so "Acme Corp." and "ACME Corporation" agree.
func employersMatch(a, b string) bool {
	ta := significantTokens(a)
	for tok := range significantTokens(b) {
		if ta[tok] {
			return true
		}
	}
	return false
}
