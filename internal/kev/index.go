// Package kev fetches the CISA Known Exploited Vulnerabilities catalog and
// indexes it by CVE identifier.
package kev

import "github.com/CZERTAINLY/kevhost/internal/model"

// Index maps a CVE identifier to its catalog entry.
type Index map[string]model.KEVEntry

// NewIndex indexes entries by their cveID. A duplicate identifier keeps the
// last entry, entries without an identifier are skipped.
func NewIndex(entries []model.KEVEntry) Index {
	idx := make(Index, len(entries))
	for _, e := range entries {
		if e.CVEID == "" {
			continue
		}
		idx[e.CVEID] = e
	}
	return idx
}

func (idx Index) Lookup(id string) (model.KEVEntry, bool) {
	e, ok := idx[id]
	return e, ok
}

// Match returns the entries of ids present in the index, in the order of ids.
func (idx Index) Match(ids []string) []model.KEVEntry {
	var ret []model.KEVEntry
	for _, id := range ids {
		if e, ok := idx[id]; ok {
			ret = append(ret, e)
		}
	}
	return ret
}

func (idx Index) Len() int {
	return len(idx)
}
