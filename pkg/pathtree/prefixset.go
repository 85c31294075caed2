package pathtree

import (
	"sort"
)

// PrefixSet is an ancestor-closed allow-list of path prefixes used to prune
// the guided search. A nil *PrefixSet admits every path.
type PrefixSet struct {
	members map[Path]struct{}
	maxLen  int
}

// NewPrefixSet builds a set from the given prefixes and closes it under
// ancestors, so that admitting "LRL" also admits "LR" and "L".
func NewPrefixSet(prefixes ...Path) *PrefixSet {
	s := &PrefixSet{members: make(map[Path]struct{}, len(prefixes))}
	for _, p := range prefixes {
		s.add(p)
	}
	return s
}

func (s *PrefixSet) add(p Path) {
	for k := len(p); k > 0; k-- {
		if _, ok := s.members[p[:k]]; ok {
			break
		}
		s.members[p[:k]] = struct{}{}
	}
	if len(p) > s.maxLen {
		s.maxLen = len(p)
	}
}

// Allows reports whether the node at path p may be expanded.
//
// The root is always admitted. Longer paths are truncated to the longest
// prefix length present in the set before the membership test, so the set
// only constrains the top of the tree.
func (s *PrefixSet) Allows(p Path) bool {
	if s == nil || p == Root {
		return true
	}
	_, ok := s.members[p.Prefix(s.maxLen)]
	return ok
}

// Len returns the number of prefixes in the closed set.
func (s *PrefixSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// MaxLen returns the longest prefix length in the set.
func (s *PrefixSet) MaxLen() int {
	if s == nil {
		return 0
	}
	return s.maxLen
}

// Prefixes returns the members ordered by length, then lexically.
func (s *PrefixSet) Prefixes() []Path {
	if s == nil {
		return nil
	}
	out := make([]Path, 0, len(s.members))
	for p := range s.members {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
