package common

import (
	"sort"
	"unicode/utf8"
)

// MaxEvidenceSentences bounds Edge.EvidenceSentences.
const MaxEvidenceSentences = 5

// MergeEvidence unions the given sentence lists and keeps the k most
// informative distinct entries: longest first, ties broken by text. The
// result depends only on the union of its inputs, so merging in any order
// or grouping yields the same list.
func MergeEvidence(k int, lists ...[]string) []string {
	seen := make(map[string]struct{})
	var all []string
	for _, list := range lists {
		for _, s := range list {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			all = append(all, s)
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.Slice(all, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(all[i]), utf8.RuneCountInString(all[j])
		if li != lj {
			return li > lj
		}
		return all[i] < all[j]
	})
	if k > 0 && len(all) > k {
		all = all[:k]
	}
	return all
}

// FirstOrEmpty returns the first sentence of list or "".
func FirstOrEmpty(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
