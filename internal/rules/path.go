// internal/rules/path.go
package rules

import (
	"strconv"
	"strings"
)

type absent struct{}

func (absent) String() string { return "<absent>" }

// Absent is what Lookup returns when a path does not resolve. Every
// requirement operator evaluates to false against it.
var Absent interface{} = absent{}

// IsAbsent reports whether v is the Absent marker.
func IsAbsent(v interface{}) bool {
	_, ok := v.(absent)
	return ok
}

// Lookup walks a dot-separated path through nested maps and slices. Numeric
// segments index into slices. Missing keys, out-of-range indexes, explicit
// nulls and traversal into scalars all yield Absent.
func Lookup(root interface{}, path string) interface{} {
	if path == "" {
		return Absent
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return Absent
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return Absent
			}
			cur = node[i]
		default:
			return Absent
		}
		if cur == nil {
			return Absent
		}
	}
	return cur
}
