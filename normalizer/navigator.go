package normalizer

import "strconv"

// resolvePath descends a decoded JSON structure along path segments.
// A segment addresses a map field, or a slice index when it parses as an
// integer. Any shape mismatch on the way down resolves to nothing.
func resolvePath(node any, path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}

	current := node
	for _, segment := range path[:len(path)-1] {
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}

	terminal := path[len(path)-1]
	switch v := current.(type) {
	case map[string]any:
		value, ok := v[terminal]
		return value, ok
	case []any:
		// Some response shapes surface the collection one level early;
		// the sequence itself is then the terminal value.
		return v, true
	default:
		return nil, false
	}
}

// step resolves one path segment against a map or slice node.
func step(node any, segment string) (any, bool) {
	switch v := node.(type) {
	case map[string]any:
		next, ok := v[segment]
		return next, ok
	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, false
		}
		return v[idx], true
	default:
		return nil, false
	}
}

// collectIDs interprets a terminal value as resource IDs.
// A sequence with idKey set yields the idKey field of each map element;
// a bare sequence yields its string elements; a scalar yields itself.
// Elements of the wrong shape are skipped, not errors.
func collectIDs(value any, idKey string) []string {
	switch v := value.(type) {
	case []any:
		var ids []string
		if idKey != "" {
			for _, element := range v {
				item, ok := element.(map[string]any)
				if !ok {
					continue
				}
				if id, _ := item[idKey].(string); id != "" {
					ids = append(ids, id)
				}
			}
			return ids
		}
		for _, element := range v {
			if id, _ := element.(string); id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}
