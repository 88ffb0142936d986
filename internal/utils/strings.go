package utils

import "strings"

// SplitList flattens comma-separated values into trimmed non-empty items, in order.
// Each argument may itself hold several items ("a, b"), so repeated query parameters
// and single comma-joined ones parse the same way.
// Returns nil when no item remains.
func SplitList(values ...string) []string {
	var result []string
	for _, s := range values {
		for _, v := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}
