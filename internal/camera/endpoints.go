package camera

import (
	"sort"
	"strings"
)

// EndpointSet is an immutable, sorted set of stream URIs.
// The zero value is an empty set.
type EndpointSet struct {
	items []string
}

// NewEndpointSet builds a set from the given URIs; blanks and duplicates are dropped.
func NewEndpointSet(uris ...string) EndpointSet {
	seen := make(map[string]struct{}, len(uris))
	items := make([]string, 0, len(uris))
	for _, u := range uris {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		items = append(items, u)
	}
	sort.Strings(items)
	return EndpointSet{items: items}
}

// Merge returns the union of s and others. Neither input is modified.
func (s EndpointSet) Merge(others ...EndpointSet) EndpointSet {
	all := append([]string(nil), s.items...)
	for _, o := range others {
		all = append(all, o.items...)
	}
	return NewEndpointSet(all...)
}

// Slice returns a copy of the set's members in sorted order.
func (s EndpointSet) Slice() []string {
	return append([]string(nil), s.items...)
}

func (s EndpointSet) Len() int { return len(s.items) }

func (s EndpointSet) Contains(uri string) bool {
	i := sort.SearchStrings(s.items, uri)
	return i < len(s.items) && s.items[i] == uri
}
