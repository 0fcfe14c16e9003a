package tagger

import (
	"sort"

	"github.com/yairfalse/stamp/types"
)

// sortedKeys returns tag keys in stable order so outgoing tag lists are
// deterministic.
func sortedKeys(tags types.TagSet) []string {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
