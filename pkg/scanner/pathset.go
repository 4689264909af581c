package scanner

import "sort"

// PathSet is an insertion-ordered set of relative paths.
type PathSet struct {
	order []string
	index map[string]struct{}
}

// NewPathSet returns an empty set.
func NewPathSet() *PathSet {
	return &PathSet{index: make(map[string]struct{})}
}

// Add inserts p and reports whether it was new.
func (s *PathSet) Add(p string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[p]; ok {
		return false
	}
	s.index[p] = struct{}{}
	s.order = append(s.order, p)
	return true
}

// Has reports whether p is in the set.
func (s *PathSet) Has(p string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[p]
	return ok
}

// Len returns the number of paths.
func (s *PathSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Slice returns the paths in insertion order.
func (s *PathSet) Slice() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Sorted returns the paths in lexicographic byte order.
func (s *PathSet) Sorted() []string {
	out := s.Slice()
	sort.Strings(out)
	return out
}
